package main

import "math"

// Point is a position in either window or image space
type Point struct {
	X, Y float64
}

// Size is a width/height pair in pixels
type Size struct {
	W, H float64
}

// RectF is an axis-aligned rectangle; Right and Bottom are exclusive
type RectF struct {
	Left, Top, Right, Bottom float64
}

// Empty reports whether the rectangle encloses no area
func (r RectF) Empty() bool {
	return r.Left >= r.Right || r.Top >= r.Bottom
}

// Width returns the horizontal extent of the rectangle
func (r RectF) Width() float64 { return r.Right - r.Left }

// Height returns the vertical extent of the rectangle
func (r RectF) Height() float64 { return r.Bottom - r.Top }

// rotationTrig returns exact cos/sin for a quarter-turn angle.
// Angles are always multiples of 90 degrees so no trigonometry is evaluated.
func rotationTrig(degrees int) (float64, float64) {
	switch normalizeRotation(degrees) {
	case 90:
		return 0, 1
	case 180:
		return -1, 0
	case 270:
		return 0, -1
	default:
		return 1, 0
	}
}

// scaleFactors returns the per-axis scale; flipping negates only the horizontal axis
func scaleFactors(vs ViewState) (float64, float64) {
	z := vs.Zoom
	if z == 0 {
		z = 1
	}
	if vs.FlippedH {
		return -z, z
	}
	return z, z
}

// rotatedSize swaps width and height for quarter and three-quarter turns
func rotatedSize(img Size, rotation int) Size {
	switch normalizeRotation(rotation) {
	case 90, 270:
		return Size{W: img.H, H: img.W}
	default:
		return img
	}
}

// FitScale returns the zoom that makes the rotated image exactly fill the client area
// on at least one axis. Invalid sizes yield 1.
func FitScale(client, img Size, rotation int) float64 {
	eff := rotatedSize(img, rotation)
	if eff.W <= 0 || eff.H <= 0 || client.W <= 0 || client.H <= 0 {
		return 1
	}
	return math.Min(client.W/eff.W, client.H/eff.H)
}

// WindowToImage maps a window-space point into image pixel coordinates
func WindowToImage(pt Point, vs ViewState, img, client Size) Point {
	tx := pt.X - (client.W/2 + vs.Pan.X)
	ty := pt.Y - (client.H/2 + vs.Pan.Y)

	sx, sy := scaleFactors(vs)
	x, y := tx/sx, ty/sy

	cos, sin := rotationTrig(-vs.Rotation)
	ux := x*cos - y*sin
	uy := x*sin + y*cos

	return Point{X: ux + img.W/2, Y: uy + img.H/2}
}

// ImageToWindow is the exact inverse of WindowToImage
func ImageToWindow(p Point, vs ViewState, img, client Size) Point {
	x := p.X - img.W/2
	y := p.Y - img.H/2

	cos, sin := rotationTrig(vs.Rotation)
	rx := x*cos - y*sin
	ry := x*sin + y*cos

	sx, sy := scaleFactors(vs)
	return Point{
		X: rx*sx + client.W/2 + vs.Pan.X,
		Y: ry*sy + client.H/2 + vs.Pan.Y,
	}
}

// ZoomAroundPoint multiplies the zoom by factor while keeping pt fixed on screen.
// The pan correction uses the factor actually applied after clamping.
func ZoomAroundPoint(pt Point, factor float64, vs ViewState, client Size) ViewState {
	if factor <= 0 || vs.Zoom <= 0 {
		return vs
	}

	beforeX := pt.X - (client.W/2 + vs.Pan.X)
	beforeY := pt.Y - (client.H/2 + vs.Pan.Y)

	newZoom := vs.Limits.Clamp(vs.Zoom * factor)
	applied := newZoom / vs.Zoom

	vs.Pan.X += beforeX - beforeX*applied
	vs.Pan.Y += beforeY - beforeY*applied
	vs.Zoom = newZoom
	return vs
}

// PointInImage reports whether a window point lands on an image pixel
func PointInImage(pt Point, vs ViewState, img, client Size) bool {
	p := WindowToImage(pt, vs, img, client)
	return p.X >= 0 && p.X < img.W && p.Y >= 0 && p.Y < img.H
}

// SelectionFromDrag converts a window-space drag into an image-space rectangle clamped
// to the image bounds. ok is false for a degenerate drag or one entirely off the image.
func SelectionFromDrag(start, end Point, vs ViewState, img, client Size) (RectF, bool) {
	if start == end {
		return RectF{}, false
	}

	a := WindowToImage(start, vs, img, client)
	b := WindowToImage(end, vs, img, client)

	r := RectF{
		Left:   math.Max(0, math.Min(a.X, b.X)),
		Top:    math.Max(0, math.Min(a.Y, b.Y)),
		Right:  math.Min(img.W, math.Max(a.X, b.X)),
		Bottom: math.Min(img.H, math.Max(a.Y, b.Y)),
	}
	if r.Empty() {
		return RectF{}, false
	}
	return r, true
}

// ImageRectToWindow returns the four window-space corners of an image-space rectangle
// in drawing order. Under rotation the outline stays attached to the image.
func ImageRectToWindow(r RectF, vs ViewState, img, client Size) [4]Point {
	return [4]Point{
		ImageToWindow(Point{X: r.Left, Y: r.Top}, vs, img, client),
		ImageToWindow(Point{X: r.Right, Y: r.Top}, vs, img, client),
		ImageToWindow(Point{X: r.Right, Y: r.Bottom}, vs, img, client),
		ImageToWindow(Point{X: r.Left, Y: r.Bottom}, vs, img, client),
	}
}
