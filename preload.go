package main

import (
	"context"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// NavigationDirection represents the direction of navigation
type NavigationDirection int

const (
	NavigationForward NavigationDirection = iota
	NavigationBackward
	NavigationJump
)

// PreloadRequest represents a request to preload the neighbors of an entry
type PreloadRequest struct {
	Paths      []ImagePath
	Current    int
	Direction  NavigationDirection
	generation uint64
}

// PreloadStats provides statistics about preloading
type PreloadStats struct {
	QueueSize     int
	LoadedCount   int
	FailedCount   int
	SkippedBusy   int
	Hits          int
	LastDirection NavigationDirection
}

// Preloader decodes the immediate neighbors of the displayed image in the
// background and keeps the results in an LRU keyed by path. Entries are only handed
// out while the file on disk still matches the stamp recorded at decode time.
type Preloader struct {
	requestChan chan PreloadRequest
	ctx         context.Context
	cancel      context.CancelFunc
	cache       *lru.Cache[string, *StagedImage]
	codec       Codec
	slots       *semaphore.Weighted
	generation  atomic.Uint64
	mu          sync.RWMutex
	stats       PreloadStats
	maxPreload  int
	enabled     bool
	logger      *zap.Logger
	wg          sync.WaitGroup
}

// NewPreloader creates a Preloader and starts its worker goroutine
func NewPreloader(codec Codec, slots *semaphore.Weighted, cacheSize, maxPreload int, logger *zap.Logger) *Preloader {
	if logger == nil {
		logger = zap.NewNop()
	}
	cache, err := lru.New[string, *StagedImage](cacheSize)
	if err != nil {
		logger.Warn("invalid preload cache size, using default", zap.Int("size", cacheSize), zap.Error(err))
		cache, _ = lru.New[string, *StagedImage](defaultPreloadCacheSize)
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Preloader{
		requestChan: make(chan PreloadRequest, 16),
		ctx:         ctx,
		cancel:      cancel,
		cache:       cache,
		codec:       codec,
		slots:       slots,
		maxPreload:  maxPreload,
		enabled:     true,
		logger:      logger,
	}

	p.wg.Add(1)
	go p.worker()

	return p
}

// SetEnabled enables or disables preloading
func (p *Preloader) SetEnabled(enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enabled = enabled
}

// IsEnabled returns whether preloading is enabled
func (p *Preloader) IsEnabled() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.enabled
}

// GetStats returns current preload statistics
func (p *Preloader) GetStats() PreloadStats {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s := p.stats
	s.QueueSize = len(p.requestChan)
	return s
}

// Stop stops the worker and waits for it to exit
func (p *Preloader) Stop() {
	p.cancel()
	p.wg.Wait()
}

// CancelAll abandons queued and in-progress preloads. Cached results are kept.
func (p *Preloader) CancelAll() {
	p.generation.Add(1)
drain:
	for {
		select {
		case <-p.requestChan:
		default:
			break drain
		}
	}
}

// StartPreload queues the neighbors of current for background decoding
func (p *Preloader) StartPreload(paths []ImagePath, current int, direction NavigationDirection) {
	if !p.IsEnabled() || len(paths) < 2 {
		return
	}

	p.CancelAll()
	req := PreloadRequest{
		Paths:      paths,
		Current:    current,
		Direction:  direction,
		generation: p.generation.Load(),
	}
	select {
	case p.requestChan <- req:
	default:
		p.logger.Debug("preload request channel full, skipping")
	}
}

// Lookup returns a cached decode of src if the file has not changed since
func (p *Preloader) Lookup(src ImagePath) (*StagedImage, bool) {
	staged, ok := p.cache.Get(src.Path)
	if !ok {
		return nil, false
	}
	stamp, err := statSource(src)
	if err != nil || !stamp.ModTime.Equal(staged.ModTime) || stamp.Size != staged.Size {
		p.cache.Remove(src.Path)
		return nil, false
	}

	p.mu.Lock()
	p.stats.Hits++
	p.mu.Unlock()
	return staged, true
}

// Forget drops a cached decode, used after delete or external change
func (p *Preloader) Forget(path string) {
	p.cache.Remove(path)
}

func (p *Preloader) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case req := <-p.requestChan:
			if p.IsEnabled() {
				p.processPreloadRequest(req)
			}
		}
	}
}

func (p *Preloader) processPreloadRequest(req PreloadRequest) {
	p.mu.Lock()
	p.stats.LastDirection = req.Direction
	p.mu.Unlock()

	for _, idx := range calculatePreloadIndices(req.Current, req.Direction, len(req.Paths), p.maxPreload) {
		if p.superseded(req.generation) {
			return
		}
		p.preloadImage(req.Paths[idx], req.generation)
	}
}

func (p *Preloader) superseded(generation uint64) bool {
	return p.ctx.Err() != nil || p.generation.Load() != generation
}

// preloadImage decodes one neighbor if a decode slot is free right now
func (p *Preloader) preloadImage(src ImagePath, generation uint64) {
	if _, ok := p.cache.Peek(src.Path); ok {
		return
	}

	// Never wait for a slot: a real load must not queue behind a preload
	if !p.slots.TryAcquire(1) {
		p.mu.Lock()
		p.stats.SkippedBusy++
		p.mu.Unlock()
		return
	}
	defer p.slots.Release(1)

	staged, err := decodeSource(p.codec, src, func() error {
		if p.superseded(generation) {
			return ErrCancelled
		}
		return nil
	})
	if err != nil {
		if !isSilent(err) {
			p.mu.Lock()
			p.stats.FailedCount++
			p.mu.Unlock()
			p.logger.Debug("preload failed", zap.String("path", src.Path), zap.Error(err))
		}
		return
	}

	p.cache.Add(src.Path, staged)

	p.mu.Lock()
	p.stats.LoadedCount++
	p.mu.Unlock()

	p.logger.Debug("preloaded", zap.String("path", src.Path), zap.Int("cached", p.cache.Len()))
}

// calculatePreloadIndices returns neighbor indices in priority order, wrapping at both
// ends the way navigation does
func calculatePreloadIndices(current int, direction NavigationDirection, count, maxPreload int) []int {
	if count < 2 || maxPreload < 1 {
		return nil
	}

	seen := map[int]bool{current: true}
	var indices []int
	add := func(offset int) {
		idx := ((current+offset)%count + count) % count
		if !seen[idx] {
			seen[idx] = true
			indices = append(indices, idx)
		}
	}

	switch direction {
	case NavigationForward:
		for i := 1; i <= maxPreload; i++ {
			add(i)
		}
		add(-1)
	case NavigationBackward:
		for i := 1; i <= maxPreload; i++ {
			add(-i)
		}
		add(1)
	default:
		half := (maxPreload + 1) / 2
		for i := 1; i <= half; i++ {
			add(i)
			add(-i)
		}
	}
	return indices
}
