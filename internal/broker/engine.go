package broker

import "context"

// EngineSpec captures everything needed to construct one ephemeral engine.
// Vision is enabled only when the request carries an image so text-only
// grading does not pay for unused capability.
type EngineSpec struct {
	ModelPath string
	Vision    bool
	CtxSize   int
	Threads   int
	Sampling  SamplingParams
}

// SamplingParams are the generation knobs passed to the native layer.
// Grading wants reproducible output, so the broker always requests the
// deterministic profile from DeterministicSampling.
type SamplingParams struct {
	Temperature float32
	TopP        float32
	TopK        int
	MaxTokens   int
	Seed        int
}

// DeterministicSampling returns the low-variance profile used for grading:
// greedy decoding with a fixed seed, so the same answer scores the same way
// for every student.
func DeterministicSampling(maxTokens int) SamplingParams {
	if maxTokens <= 0 {
		maxTokens = 256
	}
	return SamplingParams{Temperature: 0, TopP: 1, TopK: 1, MaxTokens: maxTokens, Seed: 42}
}

// EngineFactory constructs a brand-new engine per call. Implementations must
// not cache or reuse engines: the native runtime corrupts itself into a
// permanent deadlock when an engine/session pair is reused after its first
// generation, so one-shot-per-call is a correctness requirement.
type EngineFactory interface {
	New(spec EngineSpec) (Engine, error)
}

// Engine is an owned handle to the loaded native model. It lives for exactly
// one Grade call and must be closed before that call returns.
type Engine interface {
	// NewSession binds a single-use inference session to this engine.
	NewSession() (Session, error)
	// Close tears down the native engine and frees its memory.
	Close() error
}

// Session is a single-use inference context.
type Session interface {
	// Feed supplies the prompt text and, when present, the answer image.
	Feed(prompt string, image []byte) error
	// Generate runs the blocking generation call once and returns the raw
	// model text. It is compute-bound and not interruptible mid-flight;
	// ctx is consulted only at the boundaries the native layer exposes.
	Generate(ctx context.Context) (string, error)
	// Close releases the session. Must run before the engine's Close.
	Close() error
}
