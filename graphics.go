package main

import (
	"bytes"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/gofont/goregular"
)

// Global font source shared by the renderer and placeholder images
var globalFontSource *text.GoTextFaceSource

// InitGraphics initializes the global font source for text rendering
func InitGraphics() error {
	s, err := text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
	if err != nil {
		return err
	}
	globalFontSource = s
	return nil
}

// DrawText draws text with specified position and color
func DrawText(screen *ebiten.Image, textString string, font *text.GoTextFace, x, y float64, textColor color.RGBA) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(textColor)
	text.Draw(screen, textString, font, op)
}

// DrawFilledRect draws filled rectangles with float64 coordinates
func DrawFilledRect(screen *ebiten.Image, x, y, w, h float64, bgColor color.RGBA) {
	vector.DrawFilledRect(screen, float32(x), float32(y), float32(w), float32(h), bgColor, false)
}

// DrawQuadOutline strokes the closed quadrilateral through pts
func DrawQuadOutline(screen *ebiten.Image, pts [4]Point, width float32, lineColor color.RGBA) {
	for i := range pts {
		a, b := pts[i], pts[(i+1)%len(pts)]
		vector.StrokeLine(screen, float32(a.X), float32(a.Y), float32(b.X), float32(b.Y), width, lineColor, true)
	}
}

// DrawDashedRect strokes an axis-aligned rectangle given by two corners, as used for
// the live crop drag
func DrawDashedRect(screen *ebiten.Image, a, b Point, lineColor color.RGBA) {
	const dash = 6.0
	x0, x1 := minMax(a.X, b.X)
	y0, y1 := minMax(a.Y, b.Y)
	for x := x0; x < x1; x += dash * 2 {
		end := min(x+dash, x1)
		vector.StrokeLine(screen, float32(x), float32(y0), float32(end), float32(y0), 1, lineColor, false)
		vector.StrokeLine(screen, float32(x), float32(y1), float32(end), float32(y1), 1, lineColor, false)
	}
	for y := y0; y < y1; y += dash * 2 {
		end := min(y+dash, y1)
		vector.StrokeLine(screen, float32(x0), float32(y), float32(x0), float32(end), 1, lineColor, false)
		vector.StrokeLine(screen, float32(x1), float32(y), float32(x1), float32(end), 1, lineColor, false)
	}
}

func minMax(a, b float64) (float64, float64) {
	if a < b {
		return a, b
	}
	return b, a
}

// CreatePlaceholderImage draws the empty state shown when the first image could
// not be loaded
func CreatePlaceholderImage(width, height int, filename, message string) *ebiten.Image {
	if width <= 0 || height <= 0 {
		width, height = 400, 300
	}

	img := ebiten.NewImage(width, height)
	img.Fill(color.RGBA{120, 30, 30, 255}) // Dark red background

	// White border
	white := color.RGBA{255, 255, 255, 255}
	DrawFilledRect(img, 0, 0, float64(width), 3, white)
	DrawFilledRect(img, 0, float64(height-3), float64(width), 3, white)
	DrawFilledRect(img, 0, 0, 3, float64(height), white)
	DrawFilledRect(img, float64(width-3), 0, 3, float64(height), white)

	if globalFontSource == nil {
		return img
	}

	font := &text.GoTextFace{
		Source: globalFontSource,
		Size:   20.0,
	}

	fileText := "File: " + filename
	reasonText := "Reason: " + message

	// Truncate long text to fit within image bounds
	maxChars := (width - 20) / 10 // Rough estimate: 10px per character
	if maxChars > 3 {
		if len(fileText) > maxChars {
			fileText = fileText[:maxChars-3] + "..."
		}
		if len(reasonText) > maxChars {
			reasonText = reasonText[:maxChars-3] + "..."
		}
	}

	DrawText(img, "ERROR", font, 10, 30, white)
	if filename != "" {
		DrawText(img, fileText, font, 10, 60, white)
	}
	DrawText(img, reasonText, font, 10, 90, white)

	return img
}
