package main

import (
	"image"
	"sync"
	"time"
)

// LoadState is the phase of one staging slot
type LoadState int

const (
	LoadIdle LoadState = iota
	LoadLoading
	LoadStaged
	LoadFailed
	LoadAdopted
)

func (s LoadState) String() string {
	switch s {
	case LoadLoading:
		return "Loading"
	case LoadStaged:
		return "Staged"
	case LoadFailed:
		return "Failed"
	case LoadAdopted:
		return "Adopted"
	default:
		return "Idle"
	}
}

// StagedImage is a decoded result waiting to be adopted
type StagedImage struct {
	Source  ImagePath
	Frames  []*image.RGBA
	Delays  []time.Duration
	Kind    ContainerKind
	Width   int
	Height  int
	ModTime time.Time
	Size    int64

	// InitialFrame is shown first; the last frame when navigating backward
	InitialFrame int
}

// newStagedImage wraps a codec result for the given source
func newStagedImage(src ImagePath, dec *DecodedImage, stat fileStamp) *StagedImage {
	return &StagedImage{
		Source:  src,
		Frames:  dec.Frames,
		Delays:  dec.Delays,
		Kind:    dec.Kind,
		Width:   dec.Width,
		Height:  dec.Height,
		ModTime: stat.ModTime,
		Size:    stat.Size,
	}
}

// IsAnimated reports whether the frames should be played on a clock
func (s *StagedImage) IsAnimated() bool {
	return len(s.Frames) > 1 && !s.Kind.IsPaged()
}

// withInitialFrame returns a shallow copy starting at the first or last frame.
// Frame buffers are shared; they are never written after decode.
func (s *StagedImage) withInitialFrame(last bool) *StagedImage {
	c := *s
	c.InitialFrame = 0
	if last && len(c.Frames) > 0 {
		c.InitialFrame = len(c.Frames) - 1
	}
	return &c
}

// currencyChecker answers whether a sequence id is still wanted
type currencyChecker interface {
	IsCurrent(id LoadSequenceID) bool
}

// Staging is the mutex-guarded handoff between one background producer and the UI
// goroutine. A value is only accepted, and only handed out, while its id is current.
type Staging[T any] struct {
	mu      sync.Mutex
	current currencyChecker
	id      LoadSequenceID
	state   LoadState
	value   T
	err     error
}

// NewStaging returns an idle slot validated against current
func NewStaging[T any](current currencyChecker) *Staging[T] {
	return &Staging[T]{current: current}
}

// Begin clears the slot and marks it loading for id
func (s *Staging[T]) Begin(id LoadSequenceID) {
	var zero T
	s.mu.Lock()
	s.id = id
	s.state = LoadLoading
	s.value = zero
	s.err = nil
	s.mu.Unlock()
}

// Stage stores a successful result. It returns false when id was superseded.
func (s *Staging[T]) Stage(id LoadSequenceID, v T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != s.id || !s.current.IsCurrent(id) {
		return false
	}
	s.value = v
	s.err = nil
	s.state = LoadStaged
	return true
}

// Fail records a failure for id. It returns false when id was superseded.
func (s *Staging[T]) Fail(id LoadSequenceID, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != s.id || !s.current.IsCurrent(id) {
		return false
	}
	var zero T
	s.value = zero
	s.err = err
	s.state = LoadFailed
	return true
}

// Take hands the staged outcome to the UI goroutine exactly once.
// ok is false if nothing is ready for id or id is no longer current; in the latter
// case the slot is dropped back to idle.
func (s *Staging[T]) Take(id LoadSequenceID) (v T, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T
	if id != s.id {
		return zero, false, nil
	}
	if !s.current.IsCurrent(id) {
		s.value = zero
		s.err = nil
		s.state = LoadIdle
		return zero, false, nil
	}

	switch s.state {
	case LoadStaged:
		v = s.value
		s.value = zero
		s.state = LoadAdopted
		return v, true, nil
	case LoadFailed:
		err = s.err
		s.err = nil
		s.state = LoadIdle
		return zero, true, err
	default:
		return zero, false, nil
	}
}

// Cancel drops whatever the slot holds
func (s *Staging[T]) Cancel() {
	var zero T
	s.mu.Lock()
	s.value = zero
	s.err = nil
	s.state = LoadIdle
	s.mu.Unlock()
}

// State returns the slot's current phase
func (s *Staging[T]) State() LoadState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}
