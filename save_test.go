package main

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var (
	red   = color.RGBA{255, 0, 0, 255}
	green = color.RGBA{0, 255, 0, 255}
)

// markedFrame is w x h green with a red pixel at the top-left corner
func markedFrame(w, h int) *image.RGBA {
	img := solidRGBA(w, h, green)
	img.SetRGBA(0, 0, red)
	return img
}

type failingCodec struct {
	*DefaultCodec
}

func (failingCodec) Encode(w io.Writer, img *DecodedImage, kind ContainerKind) error {
	w.Write([]byte("partial"))
	return errors.New("disk full")
}

func TestBakeFrame(t *testing.T) {
	tests := []struct {
		name     string
		rotation int
		flipped  bool
		crop     *RectF
		wantSize image.Point
		wantRed  image.Point
	}{
		{"identity", 0, false, nil, image.Pt(4, 2), image.Pt(0, 0)},
		{"quarter turn clockwise", 90, false, nil, image.Pt(2, 4), image.Pt(1, 0)},
		{"half turn", 180, false, nil, image.Pt(4, 2), image.Pt(3, 1)},
		{"three quarter turn", 270, false, nil, image.Pt(2, 4), image.Pt(0, 3)},
		{"flip", 0, true, nil, image.Pt(4, 2), image.Pt(3, 0)},
		{"quarter turn then flip", 90, true, nil, image.Pt(2, 4), image.Pt(0, 0)},
		{"crop keeps corner", 0, false, &RectF{0, 0, 2, 1}, image.Pt(2, 1), image.Pt(0, 0)},
		{"fractional crop widens", 0, false, &RectF{0.5, 0.2, 2.1, 1.5}, image.Pt(3, 2), image.Pt(0, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vs := testView(1, tt.rotation, tt.flipped, Point{})
			if tt.crop != nil {
				vs.Crop = CropState{Phase: CropActive, Rect: *tt.crop}
			}

			out := bakeFrame(markedFrame(4, 2), vs)
			assert.Equal(t, tt.wantSize, out.Bounds().Size())
			assert.Equal(t, red, out.RGBAAt(tt.wantRed.X, tt.wantRed.Y))
		})
	}
}

func TestBakeFrameIgnoresPendingCrop(t *testing.T) {
	vs := testView(1, 0, false, Point{})
	vs.Crop = CropState{Phase: CropPending, Rect: RectF{0, 0, 1, 1}}
	assert.Equal(t, image.Pt(4, 2), bakeFrame(markedFrame(4, 2), vs).Bounds().Size())
}

func TestSaveInPlaceReplacesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.png")
	require.NoError(t, os.WriteFile(path, encodePNG(t, markedFrame(4, 2)), 0o600))

	live := &LiveImage{
		Source: newFilePath(path),
		Frames: []*image.RGBA{markedFrame(4, 2)},
		Kind:   KindPNG,
		Width:  4,
		Height: 2,
	}
	saver := NewSaver(NewCodec(), zaptest.NewLogger(t))

	target, err := saver.SaveInPlace(live, testView(1, 90, false, Point{}))
	require.NoError(t, err)
	assert.Equal(t, path, target)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	dec, err := NewCodec().Decode(data, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, dec.Width)
	assert.Equal(t, 4, dec.Height)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm(), "permissions are preserved")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestSaveInPlaceFailureLeavesOriginal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.png")
	original := encodePNG(t, markedFrame(4, 2))
	require.NoError(t, os.WriteFile(path, original, 0o644))

	live := &LiveImage{Source: newFilePath(path), Frames: []*image.RGBA{markedFrame(4, 2)}, Kind: KindPNG, Width: 4, Height: 2}
	saver := NewSaver(failingCodec{NewCodec()}, zaptest.NewLogger(t))

	_, err := saver.SaveInPlace(live, testView(1, 180, false, Point{}))
	assert.ErrorIs(t, err, ErrEncodeFailed)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(original, data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSaveInPlaceWebPWritesPNGBeside(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.webp")
	require.NoError(t, os.WriteFile(path, []byte("RIFF0000WEBP"), 0o644))

	live := &LiveImage{Source: newFilePath(path), Frames: []*image.RGBA{markedFrame(2, 2)}, Kind: KindWebP, Width: 2, Height: 2}
	target, err := NewSaver(NewCodec(), nil).SaveInPlace(live, testView(1, 0, false, Point{}))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "photo.png"), target)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "RIFF0000WEBP", string(data), "original untouched")
}

func TestSaveInPlaceRejectsReadOnlySources(t *testing.T) {
	saver := NewSaver(NewCodec(), nil)
	vs := testView(1, 0, false, Point{})

	_, err := saver.SaveInPlace(nil, vs)
	assert.ErrorIs(t, err, ErrReadOnlySource)

	pasted := liveFromBitmap(markedFrame(2, 2), pastedImageLabel)
	_, err = saver.SaveInPlace(pasted, vs)
	assert.ErrorIs(t, err, ErrReadOnlySource)

	entry := &LiveImage{Source: newEntryPath("/tmp/a.zip", "x.png"), Frames: []*image.RGBA{markedFrame(2, 2)}}
	_, err = saver.SaveInPlace(entry, vs)
	assert.ErrorIs(t, err, ErrReadOnlySource)
}

func TestExportKeepsDisplayedFrameOnly(t *testing.T) {
	target := filepath.Join(t.TempDir(), "out.jpg")
	live := &LiveImage{
		Frames: []*image.RGBA{markedFrame(4, 2), solidRGBA(4, 2, red)},
		Kind:   KindGIF,
		Width:  4,
		Height: 2,
	}
	vs := testView(1, 0, false, Point{})
	vs.Frame = 1

	require.NoError(t, NewSaver(NewCodec(), nil).Export(live, vs, target))

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	dec, err := NewCodec().Decode(data, nil)
	require.NoError(t, err)
	assert.Equal(t, KindJPEG, dec.Kind)
	assert.Len(t, dec.Frames, 1)
}

func TestKindFromExt(t *testing.T) {
	tests := map[string]ContainerKind{
		"a.JPG":  KindJPEG,
		"a.jpeg": KindJPEG,
		"a.gif":  KindGIF,
		"a.bmp":  KindBMP,
		"a.tiff": KindTIFF,
		"a.png":  KindPNG,
		"a.webp": KindPNG,
		"a":      KindPNG,
	}
	for name, want := range tests {
		assert.Equal(t, want, kindFromExt(name), name)
	}
}
