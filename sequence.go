package main

import (
	"context"
	"sync"
	"sync/atomic"
)

// LoadSequenceID identifies one load request. Zero never names a load.
type LoadSequenceID uint64

// LoadSequencer mints strictly increasing load ids and answers whether a given id
// is still the one the UI wants. Each new id cancels the context of the previous one.
type LoadSequencer struct {
	current atomic.Uint64

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewLoadSequencer returns a sequencer with no load in flight
func NewLoadSequencer() *LoadSequencer {
	return &LoadSequencer{}
}

// BeginLoad supersedes any previous load and returns the new id together with a
// context that is cancelled as soon as a newer load begins
func (s *LoadSequencer) BeginLoad(parent context.Context) (LoadSequenceID, context.Context) {
	ctx, cancel := context.WithCancel(parent)

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.cancel = cancel
	id := LoadSequenceID(s.current.Add(1))
	s.mu.Unlock()

	return id, ctx
}

// IsCurrent reports whether id is the most recent load. Safe from any goroutine.
func (s *LoadSequencer) IsCurrent(id LoadSequenceID) bool {
	return id != 0 && LoadSequenceID(s.current.Load()) == id
}

// Current returns the most recently issued id
func (s *LoadSequencer) Current() LoadSequenceID {
	return LoadSequenceID(s.current.Load())
}

// Stop cancels the in-flight load without issuing a new id
func (s *LoadSequencer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// checkpoint returns ErrCancelled once id is no longer current or ctx is done
func (s *LoadSequencer) checkpoint(ctx context.Context, id LoadSequenceID) error {
	if ctx.Err() != nil || !s.IsCurrent(id) {
		return ErrCancelled
	}
	return nil
}
