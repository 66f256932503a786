package main

import (
	"fmt"
	"image"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Saver writes the displayed image back to disk with the view's rotation, flip and
// active crop baked into the pixels
type Saver struct {
	codec  Codec
	logger *zap.Logger
}

// NewSaver returns a Saver encoding through codec
func NewSaver(codec Codec, logger *zap.Logger) *Saver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Saver{codec: codec, logger: logger}
}

// SaveInPlace replaces the source file. Kinds without an encoder are written as PNG
// next to the original, which is left untouched. Returns the path written.
func (s *Saver) SaveInPlace(live *LiveImage, vs ViewState) (string, error) {
	if live == nil || !live.HasFile() || live.Source.IsArchiveEntry() {
		return "", ErrReadOnlySource
	}

	target := live.Source.Path
	kind := live.Kind
	if !kind.CanEncode() {
		kind = KindPNG
		target = strings.TrimSuffix(target, filepath.Ext(target)) + kind.Ext()
	}
	return target, s.write(live, vs, target, kind)
}

// Export writes to target, choosing the container from its extension.
// Animated images exported as PNG become APNG.
func (s *Saver) Export(live *LiveImage, vs ViewState, target string) error {
	if live == nil {
		return ErrReadOnlySource
	}
	return s.write(live, vs, target, kindFromExt(target))
}

func (s *Saver) write(live *LiveImage, vs ViewState, target string, kind ContainerKind) error {
	out := &DecodedImage{Kind: kind, Delays: live.Delays}
	frames := live.Frames
	if kind != KindGIF && kind != KindPNG {
		// Single-image containers keep only the displayed frame
		frames = []*image.RGBA{live.Frame(vs.Frame)}
		out.Delays = nil
	}
	for _, f := range frames {
		baked := bakeFrame(f, vs)
		out.Frames = append(out.Frames, baked)
	}
	if len(out.Frames) > 0 {
		b := out.Frames[0].Bounds()
		out.Width, out.Height = b.Dx(), b.Dy()
	}

	err := writeFileAtomic(target, func(w io.Writer) error {
		return s.codec.Encode(w, out, kind)
	})
	if err != nil {
		s.logger.Warn("save failed", zap.String("path", target), zap.Error(err))
		return err
	}
	s.logger.Info("saved image",
		zap.String("path", target),
		zap.Stringer("kind", kind),
		zap.Int("frames", len(out.Frames)))
	return nil
}

// bakeFrame applies crop, then rotation, then horizontal flip, matching the order
// the view transform uses on screen
func bakeFrame(frame *image.RGBA, vs ViewState) *image.RGBA {
	var img image.Image = frame
	if r, ok := vs.CropRect(); ok && vs.Crop.Phase == CropActive {
		img = imaging.Crop(img, cropBounds(r))
	}
	switch normalizeRotation(vs.Rotation) {
	case 90:
		img = imaging.Rotate270(img)
	case 180:
		img = imaging.Rotate180(img)
	case 270:
		img = imaging.Rotate90(img)
	}
	if vs.FlippedH {
		img = imaging.FlipH(img)
	}
	return toRGBA(img)
}

// cropBounds widens a fractional image-space rectangle to whole pixels
func cropBounds(r RectF) image.Rectangle {
	return image.Rect(
		int(math.Floor(r.Left)), int(math.Floor(r.Top)),
		int(math.Ceil(r.Right)), int(math.Ceil(r.Bottom)),
	)
}

func kindFromExt(path string) ContainerKind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return KindJPEG
	case ".gif":
		return KindGIF
	case ".bmp":
		return KindBMP
	case ".tif", ".tiff":
		return KindTIFF
	default:
		return KindPNG
	}
}

// writeFileAtomic writes to a uniquely named temp file in the target's directory and
// renames it over target only after a complete, synced write. The temp file is
// removed on every failure path, so target is either replaced or untouched.
func writeFileAtomic(target string, write func(io.Writer) error) (err error) {
	dir := filepath.Dir(target)
	tmp := filepath.Join(dir, fmt.Sprintf("%s.%s.tmp", filepath.Base(target), uuid.NewString()))

	mode := os.FileMode(0o644)
	if info, statErr := os.Stat(target); statErr == nil {
		mode = info.Mode().Perm()
	}

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, mode)
	if err != nil {
		return newLoadError(ErrReplaceFailed, target, err)
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(tmp)
		}
	}()

	if err = write(f); err != nil {
		if _, ok := err.(*LoadError); !ok {
			err = newLoadError(ErrEncodeFailed, target, err)
		}
		return err
	}
	if err = f.Sync(); err != nil {
		return newLoadError(ErrReplaceFailed, target, err)
	}
	if err = f.Close(); err != nil {
		return newLoadError(ErrReplaceFailed, target, err)
	}
	if err = os.Rename(tmp, target); err != nil {
		return newLoadError(ErrReplaceFailed, target, err)
	}
	return nil
}
