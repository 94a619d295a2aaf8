package broker

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// fakeFactory builds fakeEngines and records lifetime overlap so tests can
// assert strict serialization of native-resource lifetimes.
type fakeFactory struct {
	newErr    error
	sessErr   error
	feedErr   error
	genErr    error
	genDelay  time.Duration
	output    string
	newCalls  atomic.Int64
	live      atomic.Int64
	maxLive   atomic.Int64
	destroyed atomic.Int64
}

func (f *fakeFactory) New(spec EngineSpec) (Engine, error) {
	f.newCalls.Add(1)
	if f.newErr != nil {
		return nil, f.newErr
	}
	n := f.live.Add(1)
	for {
		max := f.maxLive.Load()
		if n <= max || f.maxLive.CompareAndSwap(max, n) {
			break
		}
	}
	return &fakeEngine{f: f, spec: spec}, nil
}

type fakeEngine struct {
	f      *fakeFactory
	spec   EngineSpec
	closed bool
}

func (e *fakeEngine) NewSession() (Session, error) {
	if e.f.sessErr != nil {
		return nil, e.f.sessErr
	}
	return &fakeSession{f: e.f}, nil
}

func (e *fakeEngine) Close() error {
	if !e.closed {
		e.closed = true
		e.f.live.Add(-1)
		e.f.destroyed.Add(1)
	}
	return nil
}

type fakeSession struct {
	f      *fakeFactory
	prompt string
	image  []byte
}

func (s *fakeSession) Feed(prompt string, image []byte) error {
	if s.f.feedErr != nil {
		return s.f.feedErr
	}
	s.prompt, s.image = prompt, image
	return nil
}

func (s *fakeSession) Generate(ctx context.Context) (string, error) {
	if s.f.genDelay > 0 {
		select {
		case <-time.After(s.f.genDelay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if s.f.genErr != nil {
		return "", s.f.genErr
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.f.output, nil
}

func (s *fakeSession) Close() error { return nil }

var errBoom = errors.New("boom")
