package main

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSequencerIDsIncrease(t *testing.T) {
	seq := NewLoadSequencer()
	assert.False(t, seq.IsCurrent(0))

	id1, ctx1 := seq.BeginLoad(context.Background())
	assert.True(t, seq.IsCurrent(id1))
	assert.NoError(t, ctx1.Err())

	id2, ctx2 := seq.BeginLoad(context.Background())
	assert.Greater(t, id2, id1)
	assert.False(t, seq.IsCurrent(id1))
	assert.True(t, seq.IsCurrent(id2))
	assert.ErrorIs(t, ctx1.Err(), context.Canceled, "older load is cancelled")
	assert.NoError(t, ctx2.Err())

	assert.ErrorIs(t, seq.checkpoint(ctx1, id1), ErrCancelled)
	assert.NoError(t, seq.checkpoint(ctx2, id2))

	seq.Stop()
	assert.ErrorIs(t, ctx2.Err(), context.Canceled)
	assert.Equal(t, id2, seq.Current(), "stop does not mint a new id")
}

func TestLoadSequencerConcurrentBegin(t *testing.T) {
	seq := NewLoadSequencer()
	const n = 64

	ids := make(chan LoadSequenceID, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, _ := seq.BeginLoad(context.Background())
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[LoadSequenceID]bool)
	current := 0
	for id := range ids {
		assert.False(t, seen[id], "id %d issued twice", id)
		seen[id] = true
		if seq.IsCurrent(id) {
			current++
		}
	}
	assert.Equal(t, 1, current, "exactly one id is current")
	assert.Equal(t, LoadSequenceID(n), seq.Current())
}

func TestStagingRejectsStaleResults(t *testing.T) {
	seq := NewLoadSequencer()
	staging := NewStaging[string](seq)

	old, _ := seq.BeginLoad(context.Background())
	staging.Begin(old)
	cur, _ := seq.BeginLoad(context.Background())
	staging.Begin(cur)

	assert.False(t, staging.Stage(old, "stale"), "superseded id is refused")
	assert.False(t, staging.Fail(old, errors.New("stale")))
	assert.Equal(t, LoadLoading, staging.State())

	require.True(t, staging.Stage(cur, "fresh"))
	assert.Equal(t, LoadStaged, staging.State())

	_, ok, _ := staging.Take(old)
	assert.False(t, ok)

	v, ok, err := staging.Take(cur)
	require.True(t, ok)
	require.NoError(t, err)
	assert.Equal(t, "fresh", v)
	assert.Equal(t, LoadAdopted, staging.State())

	_, ok, _ = staging.Take(cur)
	assert.False(t, ok, "a result is handed out once")
}

func TestStagingDropsResultSupersededBeforeTake(t *testing.T) {
	seq := NewLoadSequencer()
	staging := NewStaging[int](seq)

	id, _ := seq.BeginLoad(context.Background())
	staging.Begin(id)
	require.True(t, staging.Stage(id, 7))

	// A newer load begins after staging but before the UI polls
	seq.BeginLoad(context.Background())

	_, ok, _ := staging.Take(id)
	assert.False(t, ok)
	assert.Equal(t, LoadIdle, staging.State())
}

func TestStagingFailure(t *testing.T) {
	seq := NewLoadSequencer()
	staging := NewStaging[*StagedImage](seq)

	id, _ := seq.BeginLoad(context.Background())
	staging.Begin(id)

	loadErr := newLoadError(ErrDecodeFailed, "/x.png", errors.New("truncated"))
	require.True(t, staging.Fail(id, loadErr))
	assert.Equal(t, LoadFailed, staging.State())

	v, ok, err := staging.Take(id)
	require.True(t, ok)
	assert.Nil(t, v)
	assert.ErrorIs(t, err, ErrDecodeFailed)
	assert.Equal(t, LoadIdle, staging.State())
}

func TestStagingCancel(t *testing.T) {
	seq := NewLoadSequencer()
	staging := NewStaging[string](seq)

	id, _ := seq.BeginLoad(context.Background())
	staging.Begin(id)
	require.True(t, staging.Stage(id, "x"))
	staging.Cancel()

	_, ok, _ := staging.Take(id)
	assert.False(t, ok)
	assert.Equal(t, LoadIdle, staging.State())
}

func TestStagedImageInitialFrame(t *testing.T) {
	frames := []*image.RGBA{
		image.NewRGBA(image.Rect(0, 0, 1, 1)),
		image.NewRGBA(image.Rect(0, 0, 1, 1)),
		image.NewRGBA(image.Rect(0, 0, 1, 1)),
	}
	s := &StagedImage{Frames: frames, Kind: KindGIF}

	assert.Equal(t, 0, s.withInitialFrame(false).InitialFrame)
	last := s.withInitialFrame(true)
	assert.Equal(t, 2, last.InitialFrame)
	assert.Equal(t, 0, s.InitialFrame, "the cached original is not modified")
	assert.True(t, s.IsAnimated())

	paged := &StagedImage{Frames: frames, Kind: KindTIFF}
	assert.False(t, paged.IsAnimated(), "multi-page documents do not animate")
}
