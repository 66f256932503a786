package main

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"time"

	"github.com/setanarut/apng"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	// Delays below the floor are treated as broken metadata
	minFrameDelay     = 10 * time.Millisecond
	defaultFrameDelay = 100 * time.Millisecond

	sniffLen    = 16
	jpegQuality = 95
)

// ContainerKind is the file format an image was decoded from
type ContainerKind int

const (
	KindUnknown ContainerKind = iota
	KindPNG
	KindJPEG
	KindGIF
	KindBMP
	KindWebP
	KindTIFF
)

func (k ContainerKind) String() string {
	switch k {
	case KindPNG:
		return "PNG"
	case KindJPEG:
		return "JPEG"
	case KindGIF:
		return "GIF"
	case KindBMP:
		return "BMP"
	case KindWebP:
		return "WebP"
	case KindTIFF:
		return "TIFF"
	default:
		return "Unknown"
	}
}

// IsPaged reports whether multiple frames are document pages rather than animation
func (k ContainerKind) IsPaged() bool {
	return k == KindTIFF
}

// CanEncode reports whether the codec can write this kind back out
func (k ContainerKind) CanEncode() bool {
	switch k {
	case KindPNG, KindJPEG, KindGIF, KindBMP, KindTIFF:
		return true
	default:
		return false
	}
}

// Ext returns the canonical file extension, including the dot
func (k ContainerKind) Ext() string {
	switch k {
	case KindJPEG:
		return ".jpg"
	case KindGIF:
		return ".gif"
	case KindBMP:
		return ".bmp"
	case KindWebP:
		return ".webp"
	case KindTIFF:
		return ".tif"
	default:
		return ".png"
	}
}

// DecodedImage is the codec's result: every frame composited to full size
type DecodedImage struct {
	Frames []*image.RGBA
	Delays []time.Duration
	Kind   ContainerKind
	Width  int
	Height int
}

// Codec is the image codec service used by the load pipeline and save path
type Codec interface {
	// ProbeIsImage sniffs the file header without decoding pixels
	ProbeIsImage(path string) bool
	// Decode decodes every frame; checkpoint is called before each expensive step
	Decode(data []byte, checkpoint func() error) (*DecodedImage, error)
	// Encode writes frames in the requested container kind
	Encode(w io.Writer, img *DecodedImage, kind ContainerKind) error
}

// DefaultCodec decodes PNG, JPEG, GIF, BMP, WebP and TIFF
type DefaultCodec struct{}

// NewCodec returns the standard codec
func NewCodec() *DefaultCodec {
	return &DefaultCodec{}
}

// sniffKind identifies the container from its magic bytes
func sniffKind(header []byte) ContainerKind {
	switch {
	case bytes.HasPrefix(header, []byte("\x89PNG\r\n\x1a\n")):
		return KindPNG
	case bytes.HasPrefix(header, []byte("\xff\xd8\xff")):
		return KindJPEG
	case bytes.HasPrefix(header, []byte("GIF87a")), bytes.HasPrefix(header, []byte("GIF89a")):
		return KindGIF
	case bytes.HasPrefix(header, []byte("BM")):
		return KindBMP
	case len(header) >= 12 && bytes.Equal(header[0:4], []byte("RIFF")) && bytes.Equal(header[8:12], []byte("WEBP")):
		return KindWebP
	case bytes.HasPrefix(header, []byte("II*\x00")), bytes.HasPrefix(header, []byte("MM\x00*")):
		return KindTIFF
	default:
		return KindUnknown
	}
}

func (c *DefaultCodec) ProbeIsImage(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	header := make([]byte, sniffLen)
	n, _ := io.ReadFull(f, header)
	return sniffKind(header[:n]) != KindUnknown
}

func (c *DefaultCodec) Decode(data []byte, checkpoint func() error) (*DecodedImage, error) {
	if checkpoint == nil {
		checkpoint = func() error { return nil }
	}

	kind := sniffKind(data)
	if kind == KindUnknown {
		return nil, ErrNotAnImage
	}
	if err := checkpoint(); err != nil {
		return nil, err
	}

	if kind == KindGIF {
		return decodeGIF(data, checkpoint)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}
	rgba := toRGBA(img)
	b := rgba.Bounds()
	return &DecodedImage{
		Frames: []*image.RGBA{rgba},
		Delays: []time.Duration{defaultFrameDelay},
		Kind:   kind,
		Width:  b.Dx(),
		Height: b.Dy(),
	}, nil
}

// decodeGIF composites every frame onto a full-size canvas honoring disposal methods
func decodeGIF(data []byte, checkpoint func() error) (*DecodedImage, error) {
	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}
	if len(g.Image) == 0 {
		return nil, fmt.Errorf("%w: no frames", ErrDecodeFailed)
	}

	bounds := image.Rect(0, 0, g.Config.Width, g.Config.Height)
	if bounds.Empty() {
		bounds = g.Image[0].Bounds()
	}
	canvas := image.NewRGBA(bounds)

	out := &DecodedImage{
		Kind:   KindGIF,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}

	var restore *image.RGBA
	for i, frame := range g.Image {
		if err := checkpoint(); err != nil {
			return nil, err
		}

		disposal := byte(gif.DisposalNone)
		if i < len(g.Disposal) {
			disposal = g.Disposal[i]
		}
		if disposal == gif.DisposalPrevious {
			restore = cloneRGBA(canvas)
		}

		draw.Draw(canvas, frame.Bounds(), frame, frame.Bounds().Min, draw.Over)
		out.Frames = append(out.Frames, cloneRGBA(canvas))

		delay := -1
		if i < len(g.Delay) {
			delay = g.Delay[i] * 10
		}
		out.Delays = append(out.Delays, clampFrameDelay(delay))

		switch disposal {
		case gif.DisposalBackground:
			draw.Draw(canvas, frame.Bounds(), image.Transparent, image.Point{}, draw.Src)
		case gif.DisposalPrevious:
			if restore != nil {
				canvas = restore
			}
		}
	}
	return out, nil
}

// clampFrameDelay converts a metadata delay in milliseconds to a display delay.
// Missing (negative) or sub-floor values fall back to the default.
func clampFrameDelay(ms int) time.Duration {
	d := time.Duration(ms) * time.Millisecond
	if ms < 0 || d < minFrameDelay {
		return defaultFrameDelay
	}
	return d
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}

func cloneRGBA(src *image.RGBA) *image.RGBA {
	dst := image.NewRGBA(src.Bounds())
	copy(dst.Pix, src.Pix)
	return dst
}

func (c *DefaultCodec) Encode(w io.Writer, img *DecodedImage, kind ContainerKind) error {
	if img == nil || len(img.Frames) == 0 {
		return fmt.Errorf("%w: no frames", ErrEncodeFailed)
	}

	var err error
	switch kind {
	case KindPNG:
		if len(img.Frames) > 1 {
			err = encodeAPNG(w, img)
		} else {
			err = png.Encode(w, img.Frames[0])
		}
	case KindJPEG:
		err = jpeg.Encode(w, img.Frames[0], &jpeg.Options{Quality: jpegQuality})
	case KindGIF:
		err = encodeGIF(w, img)
	case KindBMP:
		err = bmp.Encode(w, img.Frames[0])
	case KindTIFF:
		err = tiff.Encode(w, img.Frames[0], &tiff.Options{Compression: tiff.Deflate})
	default:
		return fmt.Errorf("%w: no encoder for %s", ErrEncodeFailed, kind)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEncodeFailed, err)
	}
	return nil
}

func encodeAPNG(w io.Writer, img *DecodedImage) error {
	a := &apng.APNG{
		Images: make([]image.Image, len(img.Frames)),
		Delays: make([]uint16, len(img.Frames)),
	}
	for i, f := range img.Frames {
		a.Images[i] = f
		a.Delays[i] = centiseconds(frameDelay(img, i))
	}
	return apng.EncodeAll(w, a)
}

func encodeGIF(w io.Writer, img *DecodedImage) error {
	g := &gif.GIF{
		Image: make([]*image.Paletted, len(img.Frames)),
		Delay: make([]int, len(img.Frames)),
	}
	for i, f := range img.Frames {
		p := image.NewPaletted(f.Bounds(), palette.Plan9)
		draw.FloydSteinberg.Draw(p, f.Bounds(), f, image.Point{})
		g.Image[i] = p
		g.Delay[i] = int(centiseconds(frameDelay(img, i)))
	}
	return gif.EncodeAll(w, g)
}

func frameDelay(img *DecodedImage, i int) time.Duration {
	if i < len(img.Delays) {
		return img.Delays[i]
	}
	return defaultFrameDelay
}

func centiseconds(d time.Duration) uint16 {
	cs := d / (10 * time.Millisecond)
	if cs < 1 {
		cs = 1
	}
	if cs > 0xffff {
		cs = 0xffff
	}
	return uint16(cs)
}

// pixelAt reads one pixel of a frame as non-premultiplied color
func pixelAt(frame *image.RGBA, x, y int) color.NRGBA {
	return color.NRGBAModel.Convert(frame.At(x, y)).(color.NRGBA)
}
