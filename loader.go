package main

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

type outcomeKind int

const (
	outcomeImage outcomeKind = iota
	outcomeListing
)

// loadOutcome tells the UI goroutine that a staging slot changed for id
type loadOutcome struct {
	Kind outcomeKind
	ID   LoadSequenceID
}

// LoadOptions modify how a load is started and adopted
type LoadOptions struct {
	StartAtLastFrame bool
	PreserveView     bool
}

// Loader owns the background side of the pipeline: two sequencers, their staging
// slots, and the goroutines that fill them. Only staging and the outcome channel are
// shared with the UI goroutine.
type Loader struct {
	loads    *LoadSequencer
	listings *LoadSequencer
	images   *Staging[*StagedImage]
	dirs     *Staging[*ScanResult]

	worker   *DecodeWorker
	scanner  *DirectoryScanner
	preload  *Preloader
	outcomes chan loadOutcome

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger *zap.Logger
}

// NewLoader wires the pipeline around codec. maxDecodes bounds concurrent decodes
// across real loads and preloads.
func NewLoader(codec Codec, scanner *DirectoryScanner, maxDecodes int64, cacheSize, preloadCount int, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxDecodes < 1 {
		maxDecodes = 1
	}
	slots := semaphore.NewWeighted(maxDecodes)
	loads := NewLoadSequencer()
	listings := NewLoadSequencer()
	ctx, cancel := context.WithCancel(context.Background())

	return &Loader{
		loads:    loads,
		listings: listings,
		images:   NewStaging[*StagedImage](loads),
		dirs:     NewStaging[*ScanResult](listings),
		worker:   NewDecodeWorker(codec, loads, slots, logger.Named("decode")),
		scanner:  scanner,
		preload:  NewPreloader(codec, slots, cacheSize, preloadCount, logger.Named("preload")),
		outcomes: make(chan loadOutcome, 32),
		ctx:      ctx,
		cancel:   cancel,
		logger:   logger,
	}
}

// Outcomes delivers a notification each time a current result is staged or fails
func (l *Loader) Outcomes() <-chan loadOutcome {
	return l.outcomes
}

// StartImage supersedes any in-flight image load and decodes src in the background.
// A cached preload that still matches the file on disk is staged instead.
func (l *Loader) StartImage(src ImagePath, opts LoadOptions) LoadSequenceID {
	id, ctx := l.loads.BeginLoad(l.ctx)
	l.preload.CancelAll()
	l.images.Begin(id)

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		if staged, ok := l.preload.Lookup(src); ok {
			l.logger.Debug("preload hit", zap.Uint64("seq", uint64(id)), zap.String("path", src.Path))
			if l.images.Stage(id, staged.withInitialFrame(opts.StartAtLastFrame)) {
				l.notify(ctx, loadOutcome{Kind: outcomeImage, ID: id})
			}
			return
		}

		staged, err := l.worker.Decode(ctx, DecodeRequest{ID: id, Source: src, StartAtLastFrame: opts.StartAtLastFrame})
		if err != nil {
			if isSilent(err) {
				return
			}
			if l.images.Fail(id, err) {
				l.notify(ctx, loadOutcome{Kind: outcomeImage, ID: id})
			}
			return
		}
		if l.images.Stage(id, staged) {
			l.notify(ctx, loadOutcome{Kind: outcomeImage, ID: id})
		}
	}()
	return id
}

// StartListing supersedes any in-flight listing and rescans container in the background
func (l *Loader) StartListing(container string, order SortOrder) LoadSequenceID {
	id, ctx := l.listings.BeginLoad(l.ctx)
	l.dirs.Begin(id)

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		res, err := l.scanner.ScanContainer(ctx, container, order)
		if err != nil {
			if isSilent(err) {
				return
			}
			l.logger.Debug("listing failed", zap.String("container", container), zap.Error(err))
			if l.dirs.Fail(id, err) {
				l.notify(ctx, loadOutcome{Kind: outcomeListing, ID: id})
			}
			return
		}
		if l.dirs.Stage(id, res) {
			l.notify(ctx, loadOutcome{Kind: outcomeListing, ID: id})
		}
	}()
	return id
}

// CancelImage abandons the in-flight image load, if any
func (l *Loader) CancelImage() {
	l.loads.BeginLoad(l.ctx)
	l.loads.Stop()
	l.images.Cancel()
	l.preload.CancelAll()
}

// CancelListing abandons the in-flight directory scan, if any
func (l *Loader) CancelListing() {
	l.listings.BeginLoad(l.ctx)
	l.listings.Stop()
	l.dirs.Cancel()
}

// TakeImage hands the staged image for id to the UI goroutine
func (l *Loader) TakeImage(id LoadSequenceID) (*StagedImage, bool, error) {
	return l.images.Take(id)
}

// TakeListing hands the staged listing for id to the UI goroutine
func (l *Loader) TakeListing(id LoadSequenceID) (*ScanResult, bool, error) {
	return l.dirs.Take(id)
}

// IsLoading reports whether an image load is in flight
func (l *Loader) IsLoading() bool {
	return l.images.State() == LoadLoading
}

// notify blocks until the UI accepts the outcome or the load is superseded
func (l *Loader) notify(ctx context.Context, o loadOutcome) {
	select {
	case l.outcomes <- o:
	case <-ctx.Done():
	}
}

// Preloader exposes the neighbor cache
func (l *Loader) Preloader() *Preloader {
	return l.preload
}

// Close cancels all background work and waits for it to finish
func (l *Loader) Close() {
	l.cancel()
	l.loads.Stop()
	l.listings.Stop()
	l.wg.Wait()
	l.preload.Stop()
}
