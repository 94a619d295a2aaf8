// Package broker owns the single-slot lifecycle of the native inference
// engine. Exactly one Grade call may hold the engine at a time; the lock is
// held across construction, generation, and teardown on purpose, because
// concurrent multi-gigabyte engine instantiation is the actual danger on
// constrained devices.
package broker

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"graded/internal/codec"
	"graded/pkg/types"
)

// Defaults applied when corresponding Config fields are unset.
const (
	defaultCtxSize   = 2048
	defaultThreads   = 4
	defaultMaxTokens = 256
)

// Config encapsulates the broker's tunables. ModelPath is read-only shared
// state; it is resolved per call so a blank value fails fast without
// touching the native layer.
type Config struct {
	ModelPath string
	CtxSize   int
	Threads   int
	MaxTokens int
}

// Broker serializes access to the native inference resource and enforces
// its create-use-destroy lifecycle per request.
type Broker struct {
	mu      sync.Mutex
	cfg     Config
	factory EngineFactory
	log     zerolog.Logger

	statusMu sync.RWMutex
	status   types.EngineStatus
	observer StatusObserver

	built     atomic.Uint64
	destroyed atomic.Uint64
	grades    atomic.Uint64
	failures  atomic.Uint64
}

// Option customizes a Broker.
type Option func(*Broker)

// WithObserver installs a status observer. The broker remains the single
// writer; observers only read.
func WithObserver(o StatusObserver) Option {
	return func(b *Broker) {
		if o != nil {
			b.observer = o
		}
	}
}

// WithLogger installs a structured logger.
func WithLogger(l zerolog.Logger) Option {
	return func(b *Broker) { b.log = l }
}

// New constructs a Broker. A nil factory uses the built-in llama factory
// (or its stub when the binary was built without the llama tag).
func New(cfg Config, factory EngineFactory, opts ...Option) *Broker {
	if cfg.CtxSize <= 0 {
		cfg.CtxSize = defaultCtxSize
	}
	if cfg.Threads <= 0 {
		cfg.Threads = defaultThreads
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if factory == nil {
		factory = NewLlamaFactory()
	}
	b := &Broker{
		cfg:      cfg,
		factory:  factory,
		status:   types.EngineStatus{State: types.EngineReady},
		observer: noopObserver{},
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Status returns the current engine status.
func (b *Broker) Status() types.EngineStatus {
	b.statusMu.RLock()
	defer b.statusMu.RUnlock()
	return b.status
}

// Counters reports how many engines were constructed and destroyed since
// start. They must always match once no call is in flight.
func (b *Broker) Counters() (built, destroyed uint64) {
	return b.built.Load(), b.destroyed.Load()
}

// Totals reports grade calls served and how many of them failed.
func (b *Broker) Totals() (grades, failures uint64) {
	return b.grades.Load(), b.failures.Load()
}

func (b *Broker) setStatus(state types.EngineState, cause string) {
	s := types.EngineStatus{State: state, Cause: cause}
	b.statusMu.Lock()
	b.status = s
	b.statusMu.Unlock()
	b.observer.ObserveStatus(s)
}

// Grade runs one request through the full engine lifecycle and returns the
// parsed result. The mutex is held for the entire call. On every exit path
// the session and engine are destroyed (session first) and the status ends
// at Ready; errors pass through Failed on the way.
func (b *Broker) Grade(ctx context.Context, req types.GradingRequest) (types.GradingResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.grades.Add(1)
	// Surface activity before the expensive construction begins. Busy is
	// published first, then LoadingResource; observers key off this order.
	b.setStatus(types.EngineBusy, "")
	b.setStatus(types.EngineLoadingResource, "")

	res, err := b.gradeLocked(ctx, req)
	if err != nil {
		b.failures.Add(1)
		b.setStatus(types.EngineFailed, err.Error())
		b.log.Error().Err(err).Msg("grade failed")
	}
	// Failed is transient: the slot always returns to Ready.
	b.setStatus(types.EngineReady, "")
	return res, err
}

// gradeLocked performs steps 3-8 under the lock. Resource teardown happens
// in its defers, which run before Grade publishes the final states.
func (b *Broker) gradeLocked(ctx context.Context, req types.GradingRequest) (types.GradingResult, error) {
	path := strings.TrimSpace(b.cfg.ModelPath)
	if path == "" {
		return types.GradingResult{}, configurationError{msg: "model path is not set"}
	}

	spec := EngineSpec{
		ModelPath: path,
		Vision:    req.HasImage(),
		CtxSize:   b.cfg.CtxSize,
		Threads:   b.cfg.Threads,
		Sampling:  DeterministicSampling(b.cfg.MaxTokens),
	}
	engine, err := b.factory.New(spec)
	if err != nil {
		return types.GradingResult{}, resourceConstructionError{stage: "engine", cause: err}
	}
	b.built.Add(1)
	defer func() {
		_ = engine.Close()
		b.destroyed.Add(1)
	}()

	session, err := engine.NewSession()
	if err != nil {
		return types.GradingResult{}, resourceConstructionError{stage: "session", cause: err}
	}
	defer func() { _ = session.Close() }()

	prompt := codec.BuildPrompt(req).Join()
	if err := session.Feed(prompt, req.StudentImage); err != nil {
		return types.GradingResult{}, generationError{cause: err}
	}
	raw, err := session.Generate(ctx)
	if err != nil {
		return types.GradingResult{}, generationError{cause: err}
	}

	res := codec.Parse(raw)
	if !res.Usable() {
		return types.GradingResult{}, parseFailureError{diagnostic: res.Feedback}
	}
	b.log.Debug().Int("score", *res.Score).Msg("grade parsed")
	return res, nil
}
