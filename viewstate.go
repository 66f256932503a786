package main

// ZoomMode is the view applied when a new image is adopted
type ZoomMode int

const (
	ZoomModeFitWindow ZoomMode = iota
	ZoomModeActualSize
	ZoomModePreserve
)

// ZoomLimits bounds the zoom factor
type ZoomLimits struct {
	Min float64
	Max float64
}

const (
	defaultMinZoom = 0.01
	defaultMaxZoom = 100.0
)

// DefaultZoomLimits returns the bounds used when the config supplies none
func DefaultZoomLimits() ZoomLimits {
	return ZoomLimits{Min: defaultMinZoom, Max: defaultMaxZoom}
}

// Clamp constrains z to [Min, Max]
func (l ZoomLimits) Clamp(z float64) float64 {
	if z < l.Min {
		return l.Min
	}
	if z > l.Max {
		return l.Max
	}
	return z
}

// CropPhase tracks the crop selection lifecycle
type CropPhase int

const (
	CropNone CropPhase = iota
	CropSelecting
	CropPending
	CropActive
)

// CropState holds the drag in window space while selecting and the image-space
// rectangle once pending or active
type CropState struct {
	Phase     CropPhase
	DragStart Point
	DragEnd   Point
	Rect      RectF
}

// ViewState is the zoom/rotation/flip/pan/crop/frame record owned by the UI goroutine
type ViewState struct {
	Zoom     float64
	Rotation int // 0, 90, 180 or 270
	FlippedH bool
	Pan      Point
	Crop     CropState
	Frame    int
	Limits   ZoomLimits
}

// NewViewState returns an identity view with the given zoom bounds
func NewViewState(limits ZoomLimits) ViewState {
	return ViewState{Zoom: 1, Limits: limits}
}

func normalizeRotation(degrees int) int {
	return ((degrees % 360) + 360) % 360
}

// Rotate turns the view a quarter turn
func (vs *ViewState) Rotate(clockwise bool) {
	if clockwise {
		vs.Rotation = normalizeRotation(vs.Rotation + 90)
	} else {
		vs.Rotation = normalizeRotation(vs.Rotation - 90)
	}
}

// FlipHorizontal mirrors the view around its vertical axis
func (vs *ViewState) FlipHorizontal() {
	vs.FlippedH = !vs.FlippedH
}

// SetZoom sets the zoom factor within limits
func (vs *ViewState) SetZoom(z float64) {
	vs.Zoom = vs.Limits.Clamp(z)
}

// Fit resets pan and applies the fit-to-window zoom for the current rotation
func (vs *ViewState) Fit(client, img Size) {
	vs.SetZoom(FitScale(client, img, vs.Rotation))
	vs.Pan = Point{}
}

// ActualSize resets pan and shows one image pixel per window pixel
func (vs *ViewState) ActualSize() {
	vs.SetZoom(1)
	vs.Pan = Point{}
}

// PanBy moves the image by a window-space delta
func (vs *ViewState) PanBy(dx, dy float64) {
	vs.Pan.X += dx
	vs.Pan.Y += dy
}

// ResetForImage applies the default view for a newly adopted image.
// ZoomModePreserve keeps everything except an out-of-range frame index.
func (vs *ViewState) ResetForImage(mode ZoomMode, client, img Size, frame int) {
	if mode == ZoomModePreserve {
		vs.Frame = frame
		return
	}

	*vs = ViewState{Limits: vs.Limits, Frame: frame}
	switch mode {
	case ZoomModeActualSize:
		vs.ActualSize()
	default:
		vs.Fit(client, img)
	}
}

// CancelCrop discards any selection, pending or active crop
func (vs *ViewState) CancelCrop() {
	vs.Crop = CropState{}
}

// CropRect returns the pending or active crop rectangle
func (vs *ViewState) CropRect() (RectF, bool) {
	switch vs.Crop.Phase {
	case CropPending, CropActive:
		return vs.Crop.Rect, true
	default:
		return RectF{}, false
	}
}
