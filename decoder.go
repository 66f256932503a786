package main

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// DecodeRequest asks for one image under a load id
type DecodeRequest struct {
	ID               LoadSequenceID
	Source           ImagePath
	StartAtLastFrame bool
}

// DecodeWorker reads and decodes images off the UI goroutine.
// Concurrent decodes are bounded by a shared semaphore.
type DecodeWorker struct {
	codec  Codec
	seq    *LoadSequencer
	slots  *semaphore.Weighted
	logger *zap.Logger
}

// NewDecodeWorker returns a worker validating against seq
func NewDecodeWorker(codec Codec, seq *LoadSequencer, slots *semaphore.Weighted, logger *zap.Logger) *DecodeWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DecodeWorker{codec: codec, seq: seq, slots: slots, logger: logger}
}

// Decode runs the request to completion or to the first checkpoint that finds it
// superseded, in which case the error is ErrCancelled
func (w *DecodeWorker) Decode(ctx context.Context, req DecodeRequest) (*StagedImage, error) {
	checkpoint := func() error {
		return w.seq.checkpoint(ctx, req.ID)
	}

	if err := w.slots.Acquire(ctx, 1); err != nil {
		return nil, ErrCancelled
	}
	defer w.slots.Release(1)

	staged, err := decodeSource(w.codec, req.Source, checkpoint)
	if err != nil {
		if !isSilent(err) {
			w.logger.Debug("decode failed",
				zap.Uint64("seq", uint64(req.ID)),
				zap.String("path", req.Source.Path),
				zap.Error(err))
		}
		return nil, err
	}

	staged = staged.withInitialFrame(req.StartAtLastFrame)

	w.logger.Debug("decoded",
		zap.Uint64("seq", uint64(req.ID)),
		zap.String("path", req.Source.Path),
		zap.Int("frames", len(staged.Frames)),
		zap.Stringer("kind", staged.Kind))
	return staged, nil
}

// decodeSource reads the whole file, then decodes it, calling checkpoint before each
// expensive step. Failures come back as *LoadError.
func decodeSource(codec Codec, src ImagePath, checkpoint func() error) (*StagedImage, error) {
	if err := checkpoint(); err != nil {
		return nil, err
	}

	data, stamp, err := readImageBytes(src)
	if err != nil {
		return nil, err
	}

	if err := checkpoint(); err != nil {
		return nil, err
	}

	dec, err := codec.Decode(data, checkpoint)
	switch {
	case err == nil:
	case errors.Is(err, ErrCancelled):
		return nil, err
	case errors.Is(err, ErrNotAnImage):
		return nil, newLoadError(ErrNotAnImage, src.Path, nil)
	default:
		return nil, newLoadError(ErrDecodeFailed, src.Path, err)
	}
	if len(dec.Frames) == 0 {
		return nil, newLoadError(ErrDecodeFailed, src.Path, errors.New("no frames"))
	}

	return newStagedImage(src, dec, stamp), nil
}
