package main

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	keyboardZoomStep = 1.25
	wheelZoomIn      = 1.1
	wheelZoomOut     = 0.9
	pastedImageLabel = "Pasted Image"
)

// LiveImage is the adopted image. It belongs to the UI goroutine.
type LiveImage struct {
	Source   ImagePath
	Label    string // shown instead of the path when there is no backing file
	Frames   []*image.RGBA
	Delays   []time.Duration
	Kind     ContainerKind
	Width    int
	Height   int
	Animated bool
	ModTime  time.Time
	FileSize int64
}

func liveFromStaged(s *StagedImage) *LiveImage {
	return &LiveImage{
		Source:   s.Source,
		Frames:   s.Frames,
		Delays:   s.Delays,
		Kind:     s.Kind,
		Width:    s.Width,
		Height:   s.Height,
		Animated: s.IsAnimated(),
		ModTime:  s.ModTime,
		FileSize: s.Size,
	}
}

func liveFromBitmap(img image.Image, label string) *LiveImage {
	rgba := toRGBA(img)
	b := rgba.Bounds()
	return &LiveImage{
		Label:  label,
		Frames: []*image.RGBA{rgba},
		Kind:   KindPNG,
		Width:  b.Dx(),
		Height: b.Dy(),
	}
}

// HasFile reports whether the image came from a file (or archive entry)
func (l *LiveImage) HasFile() bool {
	return l.Source.Path != ""
}

// Frame returns frame i, clamped to the valid range
func (l *LiveImage) Frame(i int) *image.RGBA {
	if len(l.Frames) == 0 {
		return nil
	}
	if i < 0 {
		i = 0
	} else if i >= len(l.Frames) {
		i = len(l.Frames) - 1
	}
	return l.Frames[i]
}

// Dimensions returns the pixel size shared by all frames
func (l *LiveImage) Dimensions() Size {
	return Size{W: float64(l.Width), H: float64(l.Height)}
}

// Name is the label shown in the title bar and info overlay
func (l *LiveImage) Name() string {
	if l.Label != "" {
		return l.Label
	}
	return l.Source.DisplayName()
}

// Notifier shows a short message to the user
type Notifier interface {
	ShowOverlayMessage(message string)
}

// pathWatcher is the part of FileWatcher the viewer drives
type pathWatcher interface {
	Watch(activePath string) error
	Unwatch()
}

// ViewerStats counts pipeline outcomes as seen by the UI goroutine
type ViewerStats struct {
	Requested       int
	Adopted         int
	Failed          int
	ListingsAdopted int
	LastAdopted     string
}

// ViewerConfig carries a Viewer's collaborators and initial settings
type ViewerConfig struct {
	Loader    *Loader
	Saver     *Saver
	Trash     Trasher
	Clipboard Clipboard
	Notifier  Notifier
	Watcher   pathWatcher
	ZoomMode  ZoomMode
	Limits    ZoomLimits
	Order     SortOrder
	Logger    *zap.Logger
}

type pendingLoad struct {
	id        LoadSequenceID
	src       ImagePath
	opts      LoadOptions
	direction NavigationDirection
}

// Viewer is the UI-goroutine side of the viewer: it owns the live image, the view
// and the directory index, starts loads, and adopts their results in Poll. None of
// its methods may be called from another goroutine.
type Viewer struct {
	loader    *Loader
	saver     *Saver
	trash     Trasher
	clipboard Clipboard
	notifier  Notifier
	watcher   pathWatcher
	logger    *zap.Logger

	live     *LiveImage
	view     ViewState
	dir      DirectoryIndex
	anim     AnimationClock
	client   Size
	zoomMode ZoomMode

	pending    pendingLoad
	listingID  LoadSequenceID
	openFirst  bool
	activePath string

	fitted      bool
	cropMode    bool
	eyedropper  bool
	minimized   bool
	placeholder string
	failedName  string
	lastColor   string
	stats       ViewerStats
	now         func() time.Time
}

// NewViewer returns a viewer with nothing loaded
func NewViewer(cfg ViewerConfig) *Viewer {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	limits := cfg.Limits
	if limits.Min <= 0 || limits.Max < limits.Min {
		limits = DefaultZoomLimits()
	}
	return &Viewer{
		loader:    cfg.Loader,
		saver:     cfg.Saver,
		trash:     cfg.Trash,
		clipboard: cfg.Clipboard,
		notifier:  cfg.Notifier,
		watcher:   cfg.Watcher,
		logger:    logger,
		view:      NewViewState(limits),
		dir:       NewDirectoryIndex(cfg.Order),
		zoomMode:  cfg.ZoomMode,
		client:    Size{W: defaultWidth, H: defaultHeight},
		now:       time.Now,
	}
}

func (v *Viewer) notify(msg string) {
	if v.notifier != nil {
		v.notifier.ShowOverlayMessage(msg)
	}
}

// Live returns the adopted image, or nil
func (v *Viewer) Live() *LiveImage { return v.live }

// View returns a copy of the view state
func (v *Viewer) View() ViewState { return v.view }

// Directory returns a copy of the directory index
func (v *Viewer) Directory() DirectoryIndex { return v.dir }

// ClientSize returns the window size the view is laid out for
func (v *Viewer) ClientSize() Size { return v.client }

// Placeholder returns the message shown when the first load failed
func (v *Viewer) Placeholder() string { return v.placeholder }

// PlaceholderName names the file whose load produced the placeholder
func (v *Viewer) PlaceholderName() string { return v.failedName }

// IsLoading reports whether an image load is in flight
func (v *Viewer) IsLoading() bool { return v.loader.IsLoading() }

// Stats returns pipeline counters
func (v *Viewer) Stats() ViewerStats { return v.stats }

// CropMode reports whether drags select a crop rectangle
func (v *Viewer) CropMode() bool { return v.cropMode }

// EyedropperMode reports whether clicks sample colors
func (v *Viewer) EyedropperMode() bool { return v.eyedropper }

// LastColor returns the most recently picked color as #RRGGBB
func (v *Viewer) LastColor() string { return v.lastColor }

// Open shows path. A directory or archive opens its first image; a file opens
// directly while its folder is listed in the background.
func (v *Viewer) Open(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	info, err := os.Stat(abs)
	if err != nil {
		err = newLoadError(ErrFileUnavailable, abs, err)
		v.notify(userMessage(err))
		return err
	}

	if info.IsDir() || isArchiveExt(abs) {
		v.loader.CancelImage()
		v.pending = pendingLoad{}
		v.anim.Disarm()
		v.activePath = ""
		v.openFirst = true
		v.startListing(abs, v.dir.Order)
		return nil
	}

	v.openFirst = false
	v.startImage(newFilePath(abs), LoadOptions{}, NavigationJump)
	v.startListing(filepath.Dir(abs), v.dir.Order)
	return nil
}

// Next shows the following sibling, wrapping at the end
func (v *Viewer) Next() {
	v.navigate(v.dir.NextIndex(), NavigationForward, LoadOptions{})
}

// Previous shows the preceding sibling on its last frame, wrapping at the start
func (v *Viewer) Previous() {
	v.navigate(v.dir.PrevIndex(), NavigationBackward, LoadOptions{StartAtLastFrame: true})
}

// JumpTo shows the sibling at index
func (v *Viewer) JumpTo(index int) {
	if index < 0 || index >= v.dir.Len() {
		return
	}
	v.navigate(index, NavigationJump, LoadOptions{})
}

func (v *Viewer) navigate(index int, direction NavigationDirection, opts LoadOptions) {
	if index < 0 || index >= v.dir.Len() {
		return
	}
	v.dir.Active = index
	v.startImage(v.dir.Entries[index].Path, opts, direction)
}

// Reload decodes the displayed file again. preserve keeps zoom, pan, rotation,
// flip and frame, as auto refresh does.
func (v *Viewer) Reload(preserve bool) {
	if v.live == nil || !v.live.HasFile() {
		return
	}
	v.loader.Preloader().Forget(v.live.Source.Path)
	v.startImage(v.live.Source, LoadOptions{PreserveView: preserve}, NavigationJump)
}

func (v *Viewer) startImage(src ImagePath, opts LoadOptions, direction NavigationDirection) {
	v.anim.Disarm()
	id := v.loader.StartImage(src, opts)
	v.pending = pendingLoad{id: id, src: src, opts: opts, direction: direction}
	v.activePath = src.Path
	v.stats.Requested++
	v.logger.Debug("load requested",
		zap.Uint64("seq", uint64(id)),
		zap.String("path", src.Path))
}

func (v *Viewer) startListing(container string, order SortOrder) {
	if container == "" {
		return
	}
	v.dir.Order = order
	v.listingID = v.loader.StartListing(container, order)
}

// Poll adopts any current result staged since the last call. It returns true when
// something visible changed.
func (v *Viewer) Poll(now time.Time) bool {
	changed := false
drain:
	for {
		select {
		case o := <-v.loader.Outcomes():
			switch o.Kind {
			case outcomeImage:
				if o.ID == v.pending.id {
					changed = v.adoptImage(now) || changed
				}
			case outcomeListing:
				if o.ID == v.listingID {
					changed = v.adoptListing() || changed
				}
			}
		default:
			break drain
		}
	}

	// Outcomes are wakeups only; staging is the source of truth
	if v.pending.id != 0 {
		changed = v.adoptImage(now) || changed
	}
	if v.listingID != 0 {
		changed = v.adoptListing() || changed
	}
	return changed
}

func (v *Viewer) adoptImage(now time.Time) bool {
	staged, ok, err := v.loader.TakeImage(v.pending.id)
	if !ok {
		return false
	}
	req := v.pending
	v.pending = pendingLoad{}

	if err != nil {
		v.stats.Failed++
		v.logger.Warn("load failed", zap.String("path", req.src.Path), zap.Error(err))
		v.notify(userMessage(err))
		if v.live == nil {
			v.placeholder = userMessage(err)
			v.failedName = req.src.DisplayName()
		} else if v.live.Animated && !v.minimized {
			// Keep playing the image that stays on screen
			v.anim.Arm(now, v.live.Delays, v.view.Frame)
		}
		return true
	}

	preserve := req.opts.PreserveView && v.live != nil
	v.live = liveFromStaged(staged)
	v.placeholder, v.failedName = "", ""

	frame := staged.InitialFrame
	mode := v.zoomMode
	if preserve {
		mode = ZoomModePreserve
		frame = min(v.view.Frame, len(staged.Frames)-1)
	} else {
		v.cropMode = false
	}
	v.view.ResetForImage(mode, v.client, v.live.Dimensions(), frame)
	if !preserve {
		v.fitted = mode == ZoomModeFitWindow
	}

	v.anim.Disarm()
	if v.live.Animated && !v.minimized {
		v.anim.Arm(now, v.live.Delays, v.view.Frame)
	}

	if v.watcher != nil && !staged.Source.IsArchiveEntry() {
		if err := v.watcher.Watch(staged.Source.Path); err != nil {
			v.logger.Debug("watch failed", zap.Error(err))
		}
	}

	v.stats.Adopted++
	v.stats.LastAdopted = staged.Source.Path
	v.logger.Debug("adopted image",
		zap.Uint64("seq", uint64(req.id)),
		zap.String("path", staged.Source.Path),
		zap.Int("frames", len(staged.Frames)))

	v.preloadNeighbors(req.direction)
	return true
}

func (v *Viewer) adoptListing() bool {
	res, ok, err := v.loader.TakeListing(v.listingID)
	if !ok {
		return false
	}
	v.listingID = 0

	if err != nil {
		// A folder that cannot be listed leaves navigation as a no-op
		v.logger.Debug("listing failed", zap.Error(err))
		v.dir.Replace(&ScanResult{Order: v.dir.Order}, "")
		if v.openFirst {
			v.openFirst = false
			v.notify(userMessage(err))
		}
		return true
	}

	v.dir.Replace(res, v.activePath)
	v.stats.ListingsAdopted++

	if v.openFirst {
		v.openFirst = false
		if v.dir.Len() == 0 {
			v.notify("No images found")
			return true
		}
		v.navigate(0, NavigationJump, LoadOptions{})
		return true
	}

	if v.pending.id == 0 {
		v.preloadNeighbors(NavigationJump)
	}
	return true
}

func (v *Viewer) preloadNeighbors(direction NavigationDirection) {
	if v.dir.Active < 0 || v.dir.Len() < 2 {
		return
	}
	v.loader.Preloader().StartPreload(v.dir.Paths(), v.dir.Active, direction)
}

// Tick advances the animation when its frame deadline has passed
func (v *Viewer) Tick(now time.Time) bool {
	if v.live == nil || !v.anim.Armed() {
		return false
	}
	next, ok := v.anim.Tick(now, v.view.Frame)
	if !ok {
		return false
	}
	v.view.Frame = next
	return true
}

// SetMinimized stops the animation clock while the window is hidden
func (v *Viewer) SetMinimized(minimized bool) {
	if minimized == v.minimized {
		return
	}
	v.minimized = minimized
	if minimized {
		v.anim.Disarm()
		return
	}
	if v.live != nil && v.live.Animated {
		v.anim.Arm(v.now(), v.live.Delays, v.view.Frame)
	}
}

// SetClientSize records the window size and refits when the view is fitted
func (v *Viewer) SetClientSize(w, h int) {
	if w <= 0 || h <= 0 {
		return
	}
	size := Size{W: float64(w), H: float64(h)}
	if size == v.client {
		return
	}
	v.client = size
	if v.fitted && v.live != nil {
		v.view.Fit(v.client, v.live.Dimensions())
	}
}

// Rotate turns the view a quarter turn
func (v *Viewer) Rotate(clockwise bool) {
	if v.live == nil {
		return
	}
	v.view.Rotate(clockwise)
	if v.view.Crop.Phase == CropSelecting {
		v.view.CancelCrop()
	}
	if v.fitted {
		v.view.Fit(v.client, v.live.Dimensions())
	}
}

// FlipHorizontal mirrors the view
func (v *Viewer) FlipHorizontal() {
	if v.live == nil {
		return
	}
	v.view.FlipHorizontal()
}

// ZoomIn zooms around the window center
func (v *Viewer) ZoomIn() {
	v.zoomAround(v.center(), keyboardZoomStep)
}

// ZoomOut zooms around the window center
func (v *Viewer) ZoomOut() {
	v.zoomAround(v.center(), 1/keyboardZoomStep)
}

// ZoomAt zooms one wheel step keeping pt fixed under the pointer
func (v *Viewer) ZoomAt(pt Point, in bool) {
	factor := wheelZoomOut
	if in {
		factor = wheelZoomIn
	}
	v.zoomAround(pt, factor)
}

func (v *Viewer) zoomAround(pt Point, factor float64) {
	if v.live == nil {
		return
	}
	v.view = ZoomAroundPoint(pt, factor, v.view, v.client)
	v.fitted = false
}

func (v *Viewer) center() Point {
	return Point{X: v.client.W / 2, Y: v.client.H / 2}
}

// Fit scales the image to the window
func (v *Viewer) Fit() {
	if v.live == nil {
		return
	}
	v.view.Fit(v.client, v.live.Dimensions())
	v.fitted = true
}

// ActualSize shows the image at 100%
func (v *Viewer) ActualSize() {
	if v.live == nil {
		return
	}
	v.view.ActualSize()
	v.fitted = false
}

// PanBy moves the image by a window-space delta
func (v *Viewer) PanBy(dx, dy float64) {
	if v.live == nil || (dx == 0 && dy == 0) {
		return
	}
	v.view.PanBy(dx, dy)
	v.fitted = false
}

// ToggleCropMode switches left-drag between panning and crop selection
func (v *Viewer) ToggleCropMode() bool {
	if v.live == nil {
		return false
	}
	v.cropMode = !v.cropMode
	if v.cropMode {
		v.eyedropper = false
	} else if v.view.Crop.Phase == CropSelecting || v.view.Crop.Phase == CropPending {
		v.view.CancelCrop()
	}
	return v.cropMode
}

// BeginCropDrag starts a selection at pt when crop mode is on
func (v *Viewer) BeginCropDrag(pt Point) bool {
	if !v.cropMode || v.live == nil {
		return false
	}
	v.view.Crop = CropState{Phase: CropSelecting, DragStart: pt, DragEnd: pt}
	return true
}

// UpdateCropDrag moves the free corner of the selection
func (v *Viewer) UpdateCropDrag(pt Point) {
	if v.view.Crop.Phase == CropSelecting {
		v.view.Crop.DragEnd = pt
	}
}

// EndCropDrag converts the drag to an image-space rectangle. A degenerate drag, or
// one entirely outside the image, leaves no selection.
func (v *Viewer) EndCropDrag(pt Point) bool {
	if v.view.Crop.Phase != CropSelecting || v.live == nil {
		return false
	}
	start := v.view.Crop.DragStart
	r, ok := SelectionFromDrag(start, pt, v.view, v.live.Dimensions(), v.client)
	if !ok {
		v.view.CancelCrop()
		return false
	}
	v.view.Crop = CropState{Phase: CropPending, DragStart: start, DragEnd: pt, Rect: r}
	return true
}

// ApplyCrop makes a pending selection the active crop
func (v *Viewer) ApplyCrop() bool {
	if v.view.Crop.Phase != CropPending {
		return false
	}
	v.view.Crop.Phase = CropActive
	v.cropMode = false
	r := v.view.Crop.Rect
	v.notify(fmt.Sprintf("Crop %.0fx%.0f", math.Ceil(r.Right)-math.Floor(r.Left), math.Ceil(r.Bottom)-math.Floor(r.Top)))
	return true
}

// CancelCrop drops any selection or active crop
func (v *Viewer) CancelCrop() bool {
	if v.view.Crop.Phase == CropNone {
		return false
	}
	v.view.CancelCrop()
	return true
}

// ToggleEyedropper switches left-click to color sampling
func (v *Viewer) ToggleEyedropper() bool {
	if v.live == nil {
		return false
	}
	v.eyedropper = !v.eyedropper
	if v.eyedropper {
		v.cropMode = false
	}
	return v.eyedropper
}

// SampleColor returns the displayed frame's pixel under the window point pt
func (v *Viewer) SampleColor(pt Point) (color.NRGBA, bool) {
	if v.live == nil {
		return color.NRGBA{}, false
	}
	img := v.live.Dimensions()
	p := WindowToImage(pt, v.view, img, v.client)
	if p.X < 0 || p.Y < 0 || p.X >= img.W || p.Y >= img.H {
		return color.NRGBA{}, false
	}
	return pixelAt(v.live.Frame(v.view.Frame), int(math.Floor(p.X)), int(math.Floor(p.Y))), true
}

// PickColor samples pt and copies the color to the clipboard as #RRGGBB
func (v *Viewer) PickColor(pt Point) bool {
	c, ok := v.SampleColor(pt)
	if !ok {
		return false
	}
	v.lastColor = fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
	if v.clipboard != nil {
		if err := v.clipboard.WriteText(v.lastColor); err != nil {
			v.logger.Debug("clipboard write failed", zap.Error(err))
		}
	}
	v.notify(v.lastColor)
	return true
}

// SaveCurrent writes the displayed image over its file with the view baked in,
// then reloads it
func (v *Viewer) SaveCurrent() error {
	if v.live == nil || v.saver == nil {
		return ErrReadOnlySource
	}
	target, err := v.saver.SaveInPlace(v.live, v.view)
	if err != nil {
		v.notify(userMessage(err))
		return err
	}
	v.notify("Saved " + filepath.Base(target))

	if target == v.live.Source.Path {
		v.loader.Preloader().Forget(target)
		v.startImage(v.live.Source, LoadOptions{}, NavigationJump)
	} else {
		v.startListing(v.dir.Container, v.dir.Order)
	}
	return nil
}

// ExportAs writes the displayed image to target with the view baked in
func (v *Viewer) ExportAs(target string) error {
	if v.live == nil || v.saver == nil {
		return ErrReadOnlySource
	}
	if err := v.saver.Export(v.live, v.view, target); err != nil {
		v.notify(userMessage(err))
		return err
	}
	v.notify("Exported " + filepath.Base(target))
	return nil
}

// ExportPath is where the export action writes: a PNG beside the source, or in the
// working directory for images without a file
func (v *Viewer) ExportPath() string {
	if v.live == nil {
		return ""
	}
	if !v.live.HasFile() || v.live.Source.IsArchiveEntry() {
		dir, err := os.Getwd()
		if err != nil {
			dir = os.TempDir()
		}
		stem := "pasted"
		if v.live.Source.IsArchiveEntry() {
			stem = strings.TrimSuffix(filepath.Base(v.live.Source.EntryPath), filepath.Ext(v.live.Source.EntryPath))
		}
		return filepath.Join(dir, fmt.Sprintf("%s-%s.png", stem, v.now().Format("20060102-150405")))
	}
	src := v.live.Source.Path
	stem := strings.TrimSuffix(src, filepath.Ext(src))
	if strings.EqualFold(filepath.Ext(src), ".png") {
		return stem + "-edited.png"
	}
	return stem + ".png"
}

// Delete moves the displayed file to the trash and shows the entry that takes its
// place. Deleting the last image leaves nothing displayed.
func (v *Viewer) Delete() error {
	if v.live == nil || !v.live.HasFile() || v.live.Source.IsArchiveEntry() || v.trash == nil {
		v.notify(userMessage(ErrReadOnlySource))
		return ErrReadOnlySource
	}
	path := v.live.Source.Path
	if err := v.trash.Trash(path); err != nil {
		v.logger.Warn("trash failed", zap.String("path", path), zap.Error(err))
		v.notify("Could not move to trash")
		return fmt.Errorf("trashing %s: %w", path, err)
	}
	v.loader.Preloader().Forget(path)
	v.notify("Moved to trash: " + filepath.Base(path))

	idx := indexOfPath(v.dir.Entries, path)
	if idx < 0 {
		// The folder listing has not arrived yet; rescan and show its first image
		v.clearLive()
		v.dir.Clear()
		v.openFirst = true
		v.startListing(filepath.Dir(path), v.dir.Order)
		return nil
	}
	v.dir.RemoveAt(idx)

	if v.pending.id != 0 && !strings.EqualFold(v.pending.src.Path, path) {
		// A navigation is already under way; its target stays active
		v.dir.Active = indexOfPath(v.dir.Entries, v.pending.src.Path)
		return nil
	}

	next, ok := v.dir.Current()
	if !ok {
		v.clearLive()
		return nil
	}
	v.startImage(next.Path, LoadOptions{}, NavigationForward)
	return nil
}

// clearLive cancels any load or scan and leaves the viewer empty
func (v *Viewer) clearLive() {
	v.loader.CancelImage()
	v.loader.CancelListing()
	v.pending = pendingLoad{}
	v.listingID = 0
	v.live = nil
	v.activePath = ""
	v.anim.Disarm()
	v.cropMode = false
	v.eyedropper = false
	v.view = NewViewState(v.view.Limits)
	if v.watcher != nil {
		v.watcher.Unwatch()
	}
}

// PasteBitmap displays img with no backing file and an empty directory index
func (v *Viewer) PasteBitmap(img image.Image) {
	if img == nil || img.Bounds().Empty() {
		return
	}
	v.clearLive()
	v.openFirst = false
	v.dir.Clear()
	v.live = liveFromBitmap(img, pastedImageLabel)
	v.placeholder, v.failedName = "", ""
	v.view.ResetForImage(v.zoomMode, v.client, v.live.Dimensions(), 0)
	v.fitted = v.zoomMode == ZoomModeFitWindow
}

// PasteFromClipboard opens the file named by the clipboard text
func (v *Viewer) PasteFromClipboard() error {
	if v.clipboard == nil {
		return errClipboardUnsupported
	}
	text, err := v.clipboard.ReadText()
	if err != nil {
		v.notify("Clipboard unavailable")
		return err
	}
	path, ok := pastedPath(text)
	if !ok {
		v.notify("Clipboard does not name an image file")
		return errors.New("clipboard does not name a file")
	}
	return v.Open(path)
}

// CopyPath puts the displayed file's path on the clipboard
func (v *Viewer) CopyPath() error {
	if v.live == nil || !v.live.HasFile() || v.clipboard == nil {
		return ErrReadOnlySource
	}
	if err := v.clipboard.WriteText(v.live.Source.Path); err != nil {
		v.notify("Clipboard unavailable")
		return err
	}
	v.notify("Path copied")
	return nil
}

// CycleSort moves to the next sort criteria and rescans
func (v *Viewer) CycleSort() SortOrder {
	order := v.dir.Order.Next()
	v.startListing(v.dir.Container, order)
	v.dir.Order = order
	v.notify("Sort: " + order.String())
	return order
}

// ToggleSortDirection flips ascending/descending and rescans
func (v *Viewer) ToggleSortDirection() SortOrder {
	order := v.dir.Order
	order.Descending = !order.Descending
	v.startListing(v.dir.Container, order)
	v.dir.Order = order
	v.notify("Sort: " + order.String())
	return order
}

// HandleFileChange reacts to a debounced watcher notification
func (v *Viewer) HandleFileChange(change FileChange) {
	switch change.Kind {
	case ChangeActiveFile:
		if v.live == nil || !v.live.HasFile() || v.live.Source.IsArchiveEntry() {
			return
		}
		if filepath.Clean(change.Path) != filepath.Clean(v.live.Source.Path) {
			return
		}
		if v.pending.id != 0 && filepath.Clean(v.pending.src.Path) == filepath.Clean(change.Path) {
			// Already being reloaded, e.g. after our own save
			return
		}
		if change.Stamp.ModTime.Equal(v.live.ModTime) && change.Stamp.Size == v.live.FileSize {
			return
		}
		v.logger.Debug("active file changed, reloading", zap.String("path", change.Path))
		v.Reload(true)

	case ChangeListing:
		v.loader.Preloader().Forget(change.Path)
		if v.dir.Container != "" && !isArchiveExt(v.dir.Container) {
			v.startListing(v.dir.Container, v.dir.Order)
		}
	}
}

// Close stops all background work
func (v *Viewer) Close() {
	v.anim.Disarm()
	v.loader.Close()
}
