//go:build llama

package broker

import (
	"context"
	"errors"
	"strings"

	llama "github.com/go-skynet/go-llama.cpp"
)

// llamaBuilt indicates this binary was compiled with real llama support.
var llamaBuilt = true

// llamaFactory builds one in-process go-llama.cpp engine per Grade call.
type llamaFactory struct{}

// NewLlamaFactory returns the in-process llama.cpp engine factory.
func NewLlamaFactory() EngineFactory { return llamaFactory{} }

// llamaEngine owns the loaded model for exactly one call.
type llamaEngine struct {
	model *llama.LLama
	spec  EngineSpec
}

func (llamaFactory) New(spec EngineSpec) (Engine, error) {
	if strings.TrimSpace(spec.ModelPath) == "" {
		return nil, errors.New("model path is empty")
	}
	mo := []llama.ModelOption{
		llama.SetContext(spec.CtxSize),
	}
	m, err := llama.New(spec.ModelPath, mo...)
	if err != nil {
		return nil, err
	}
	return &llamaEngine{model: m, spec: spec}, nil
}

func (e *llamaEngine) NewSession() (Session, error) {
	if e.model == nil {
		return nil, errors.New("llama model not initialized")
	}
	return &llamaSession{engine: e}, nil
}

func (e *llamaEngine) Close() error {
	if e.model != nil {
		e.model.Free()
		e.model = nil
	}
	return nil
}

// llamaSession is single-use: Feed then Generate once.
type llamaSession struct {
	engine *llamaEngine
	prompt string
	closed bool
}

func (s *llamaSession) Feed(prompt string, image []byte) error {
	if len(image) > 0 {
		// This runtime build links no multimodal projector; image answers
		// need a vision-enabled engine.
		return errors.New("image input requires a multimodal runtime build")
	}
	s.prompt = prompt
	return nil
}

func (s *llamaSession) Generate(ctx context.Context) (string, error) {
	if s.closed || s.engine.model == nil {
		return "", errors.New("llama session already closed")
	}
	// The native call blocks until done; the token callback is the only
	// place cancellation can be observed.
	s.engine.model.SetTokenCallback(func(tok string) bool {
		select {
		case <-ctx.Done():
			return false
		default:
			return true
		}
	})
	text, err := s.engine.model.Predict(s.prompt, predictOptions(s.engine.spec.Sampling, s.engine.spec.Threads)...)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", err
	}
	return text, nil
}

func (s *llamaSession) Close() error {
	s.closed = true
	return nil
}

// predictOptions converts sampling params into go-llama.cpp options.
func predictOptions(p SamplingParams, threads int) []llama.PredictOption {
	if threads < 1 {
		threads = 1
	}
	maxTokens := p.MaxTokens
	if maxTokens < 1 {
		maxTokens = 1
	}
	po := []llama.PredictOption{
		llama.SetTokens(maxTokens),
		llama.SetThreads(threads),
		llama.SetTemperature(p.Temperature),
		llama.SetTopP(p.TopP),
		llama.SetTopK(p.TopK),
	}
	if p.Seed != 0 {
		po = append(po, llama.SetSeed(p.Seed))
	}
	return po
}
