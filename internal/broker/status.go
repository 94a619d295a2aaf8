package broker

import (
	"sync"

	"graded/pkg/types"
)

// StatusObserver receives engine status transitions from the broker.
// Implementations should be lightweight and non-blocking; ObserveStatus
// must not panic. The broker is the only writer.
type StatusObserver interface {
	ObserveStatus(types.EngineStatus)
}

// noopObserver is the default; it drops transitions.
type noopObserver struct{}

func (noopObserver) ObserveStatus(types.EngineStatus) {}

// MemoryObserver records transitions in-memory for tests and diagnostics.
type MemoryObserver struct {
	mu     sync.Mutex
	states []types.EngineStatus
}

func NewMemoryObserver() *MemoryObserver { return &MemoryObserver{} }

func (o *MemoryObserver) ObserveStatus(s types.EngineStatus) {
	o.mu.Lock()
	o.states = append(o.states, s)
	o.mu.Unlock()
}

func (o *MemoryObserver) States() []types.EngineStatus {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]types.EngineStatus, len(o.states))
	copy(out, o.states)
	return out
}
