//go:build !llama

package broker

// This file provides a no-CGO stub for the llama engine factory. It is
// compiled when the 'llama' build tag is NOT set, keeping default builds and
// CI CGO-free. The real factory lives in engine_llama.go (tagged 'llama').

// llamaBuilt indicates this binary was compiled with real llama support.
var llamaBuilt = false

type llamaFactory struct{}

// NewLlamaFactory returns a factory that refuses to construct engines
// without the 'llama' build tag. This avoids any mocked inference behavior
// in production binaries built without CGO support.
func NewLlamaFactory() EngineFactory { return llamaFactory{} }

func (llamaFactory) New(spec EngineSpec) (Engine, error) {
	return nil, ErrDependencyUnavailable("llama support not built (missing 'llama' build tag)")
}
