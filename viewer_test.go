package main

import (
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// gatedCodec holds every decode until the gate is opened, honoring cancellation
// while it waits
type gatedCodec struct {
	*DefaultCodec
	gate chan struct{}
}

func (c *gatedCodec) Decode(data []byte, checkpoint func() error) (*DecodedImage, error) {
	for {
		select {
		case <-c.gate:
			return c.DefaultCodec.Decode(data, checkpoint)
		case <-time.After(time.Millisecond):
			if checkpoint != nil {
				if err := checkpoint(); err != nil {
					return nil, err
				}
			}
		}
	}
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) ShowOverlayMessage(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
}

func (n *recordingNotifier) last() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.messages) == 0 {
		return ""
	}
	return n.messages[len(n.messages)-1]
}

type memClipboard struct {
	text string
}

func (c *memClipboard) ReadText() (string, error) { return c.text, nil }

func (c *memClipboard) WriteText(text string) error {
	c.text = text
	return nil
}

type removingTrash struct {
	trashed []string
}

func (r *removingTrash) Trash(path string) error {
	r.trashed = append(r.trashed, path)
	return os.Remove(path)
}

type viewerFixture struct {
	viewer    *Viewer
	notifier  *recordingNotifier
	clipboard *memClipboard
	trash     *removingTrash
}

func newTestViewer(t *testing.T, codec Codec, mode ZoomMode) *viewerFixture {
	t.Helper()
	logger := zaptest.NewLogger(t)

	scanner, err := NewDirectoryScanner(codec, nil, logger)
	require.NoError(t, err)
	loader := NewLoader(codec, scanner, 4, 8, 1, logger)
	loader.Preloader().SetEnabled(false)

	f := &viewerFixture{
		notifier:  &recordingNotifier{},
		clipboard: &memClipboard{},
		trash:     &removingTrash{},
	}
	f.viewer = NewViewer(ViewerConfig{
		Loader:    loader,
		Saver:     NewSaver(codec, logger),
		Trash:     f.trash,
		Clipboard: f.clipboard,
		Notifier:  f.notifier,
		ZoomMode:  mode,
		Logger:    logger,
	})
	f.viewer.SetClientSize(800, 600)
	t.Cleanup(f.viewer.Close)
	return f
}

// pollUntil drives Poll from the test goroutine the way the game loop would
func pollUntil(t *testing.T, v *Viewer, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		v.Poll(time.Now())
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached before timeout")
}

// writeSizedImages writes PNGs whose width encodes their position (1, 2, 3, ...)
func writeSizedImages(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for i, n := range names {
		data := encodePNG(t, solidRGBA(i+1, 1, color.RGBA{0, 0, 255, 255}))
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), data, 0o644))
	}
	return dir
}

func openAndSettle(t *testing.T, f *viewerFixture, path string, entries int) {
	t.Helper()
	require.NoError(t, f.viewer.Open(path))
	pollUntil(t, f.viewer, func() bool {
		return f.viewer.Live() != nil && !f.viewer.IsLoading() && f.viewer.Directory().Len() == entries
	})
}

func TestViewerRapidNavigationAdoptsOnlyLatest(t *testing.T) {
	dir := writeSizedImages(t, "a.png", "b.png", "c.png")
	codec := &gatedCodec{DefaultCodec: NewCodec(), gate: make(chan struct{})}
	f := newTestViewer(t, codec, ZoomModeFitWindow)
	v := f.viewer

	require.NoError(t, v.Open(filepath.Join(dir, "a.png")))
	pollUntil(t, v, func() bool { return v.Directory().Len() == 3 })
	assert.Nil(t, v.Live(), "decode is still held")
	assert.Equal(t, 0, v.Directory().Active)

	v.Next()
	v.Next()
	assert.Equal(t, 2, v.Directory().Active)

	close(codec.gate)
	pollUntil(t, v, func() bool { return v.Live() != nil && !v.IsLoading() })

	// Give superseded decodes a chance to misbehave
	time.Sleep(20 * time.Millisecond)
	v.Poll(time.Now())

	live := v.Live()
	assert.Equal(t, filepath.Join(dir, "c.png"), live.Source.Path)
	assert.Equal(t, 3, live.Width)
	stats := v.Stats()
	assert.Equal(t, 3, stats.Requested)
	assert.Equal(t, 1, stats.Adopted)
	assert.Equal(t, 0, stats.Failed)
}

func TestViewerNavigationWraps(t *testing.T) {
	dir := writeSizedImages(t, "a.png", "b.png", "c.png")
	f := newTestViewer(t, NewCodec(), ZoomModeFitWindow)
	v := f.viewer
	openAndSettle(t, f, filepath.Join(dir, "c.png"), 3)

	v.Next()
	pollUntil(t, v, func() bool { return v.Live().Width == 1 })
	assert.Equal(t, 0, v.Directory().Active)

	v.Previous()
	pollUntil(t, v, func() bool { return v.Live().Width == 3 })
	assert.Equal(t, 2, v.Directory().Active)
}

func TestViewerOpenDirectoryShowsFirst(t *testing.T) {
	dir := writeSizedImages(t, "a.png", "b.png")
	f := newTestViewer(t, NewCodec(), ZoomModeFitWindow)
	openAndSettle(t, f, dir, 2)

	assert.Equal(t, filepath.Join(dir, "a.png"), f.viewer.Live().Source.Path)
	assert.Equal(t, 0, f.viewer.Directory().Active)
}

func TestViewerOpenEmptyDirectory(t *testing.T) {
	f := newTestViewer(t, NewCodec(), ZoomModeFitWindow)
	require.NoError(t, f.viewer.Open(t.TempDir()))
	pollUntil(t, f.viewer, func() bool { return f.notifier.last() == "No images found" })
	assert.Nil(t, f.viewer.Live())
}

func TestViewerFirstLoadFailureShowsPlaceholder(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "broken.png")
	require.NoError(t, os.WriteFile(bad, []byte("\x89PNG\r\n\x1a\ntruncated"), 0o644))

	f := newTestViewer(t, NewCodec(), ZoomModeFitWindow)
	v := f.viewer
	require.NoError(t, v.Open(bad))
	pollUntil(t, v, func() bool { return v.Placeholder() != "" })

	assert.Nil(t, v.Live())
	assert.Equal(t, "Could not decode image", v.Placeholder())
	assert.Equal(t, "broken.png", v.PlaceholderName())
	assert.Equal(t, 1, v.Stats().Failed)
}

func TestViewerFailureKeepsPreviousImage(t *testing.T) {
	dir := writeSizedImages(t, "a.png")
	bad := filepath.Join(dir, "b.png")
	require.NoError(t, os.WriteFile(bad, []byte("\x89PNG\r\n\x1a\ntruncated"), 0o644))

	f := newTestViewer(t, NewCodec(), ZoomModeFitWindow)
	v := f.viewer
	openAndSettle(t, f, filepath.Join(dir, "a.png"), 2)

	v.Next()
	pollUntil(t, v, func() bool { return v.Stats().Failed == 1 })

	require.NotNil(t, v.Live())
	assert.Equal(t, filepath.Join(dir, "a.png"), v.Live().Source.Path)
	assert.Empty(t, v.Placeholder())
	assert.Equal(t, "Could not decode image", f.notifier.last())
}

func TestViewerOpenMissingFile(t *testing.T) {
	f := newTestViewer(t, NewCodec(), ZoomModeFitWindow)
	err := f.viewer.Open(filepath.Join(t.TempDir(), "nope.png"))
	assert.ErrorIs(t, err, ErrFileUnavailable)
	assert.Equal(t, "File is not accessible", f.notifier.last())
}

func TestViewerDelete(t *testing.T) {
	t.Run("middle entry shows successor", func(t *testing.T) {
		dir := writeSizedImages(t, "a.png", "b.png", "c.png")
		f := newTestViewer(t, NewCodec(), ZoomModeFitWindow)
		v := f.viewer
		openAndSettle(t, f, filepath.Join(dir, "b.png"), 3)

		require.NoError(t, v.Delete())
		assert.Equal(t, []string{filepath.Join(dir, "b.png")}, f.trash.trashed)
		pollUntil(t, v, func() bool { return v.Live().Source.Path == filepath.Join(dir, "c.png") })
		assert.Equal(t, 2, v.Directory().Len())
		assert.Equal(t, 1, v.Directory().Active)
	})

	t.Run("last entry wraps to first", func(t *testing.T) {
		dir := writeSizedImages(t, "a.png", "b.png")
		f := newTestViewer(t, NewCodec(), ZoomModeFitWindow)
		v := f.viewer
		openAndSettle(t, f, filepath.Join(dir, "b.png"), 2)

		require.NoError(t, v.Delete())
		pollUntil(t, v, func() bool { return v.Live().Source.Path == filepath.Join(dir, "a.png") })
		assert.Equal(t, 0, v.Directory().Active)
	})

	t.Run("only entry empties the viewer", func(t *testing.T) {
		dir := writeSizedImages(t, "a.png")
		f := newTestViewer(t, NewCodec(), ZoomModeFitWindow)
		v := f.viewer
		openAndSettle(t, f, filepath.Join(dir, "a.png"), 1)

		require.NoError(t, v.Delete())
		assert.Nil(t, v.Live())
		assert.Equal(t, 0, v.Directory().Len())
		assert.False(t, v.IsLoading())
		_, err := os.Stat(filepath.Join(dir, "a.png"))
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("during navigation keeps the pending target", func(t *testing.T) {
		dir := writeSizedImages(t, "a.png", "b.png", "c.png")
		f := newTestViewer(t, NewCodec(), ZoomModeFitWindow)
		v := f.viewer
		openAndSettle(t, f, filepath.Join(dir, "a.png"), 3)

		v.Next()
		require.NoError(t, v.Delete())
		assert.Equal(t, []string{filepath.Join(dir, "a.png")}, f.trash.trashed)

		pollUntil(t, v, func() bool {
			return v.Live() != nil && v.Live().Source.Path == filepath.Join(dir, "b.png") && !v.IsLoading()
		})
		d := v.Directory()
		require.Equal(t, 2, d.Len())
		assert.Equal(t, 0, d.Active)
		assert.Equal(t, filepath.Join(dir, "b.png"), d.Entries[0].Path.Path)
		assert.Equal(t, filepath.Join(dir, "c.png"), d.Entries[1].Path.Path)
	})

	t.Run("before the listing arrives", func(t *testing.T) {
		dir := writeSizedImages(t, "a.png", "b.png")
		f := newTestViewer(t, NewCodec(), ZoomModeFitWindow)
		v := f.viewer
		openAndSettle(t, f, filepath.Join(dir, "a.png"), 2)
		v.dir.Clear()

		require.NoError(t, v.Delete())
		pollUntil(t, v, func() bool {
			return v.Live() != nil && v.Live().Source.Path == filepath.Join(dir, "b.png") && v.Directory().Len() == 1
		})
		assert.Equal(t, 0, v.Directory().Active)
	})

	t.Run("pasted image cannot be deleted", func(t *testing.T) {
		f := newTestViewer(t, NewCodec(), ZoomModeFitWindow)
		f.viewer.PasteBitmap(solidRGBA(2, 2, red))
		assert.ErrorIs(t, f.viewer.Delete(), ErrReadOnlySource)
		assert.Empty(t, f.trash.trashed)
	})
}

func TestViewerCropFlow(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.png")
	require.NoError(t, os.WriteFile(path, encodePNG(t, solidRGBA(400, 300, green)), 0o644))

	f := newTestViewer(t, NewCodec(), ZoomModeActualSize)
	v := f.viewer
	openAndSettle(t, f, path, 1)

	assert.False(t, v.BeginCropDrag(Point{250, 200}), "needs crop mode")
	require.True(t, v.ToggleCropMode())
	require.True(t, v.BeginCropDrag(Point{250, 200}))
	v.UpdateCropDrag(Point{300, 230})
	assert.Equal(t, CropSelecting, v.View().Crop.Phase)

	require.True(t, v.EndCropDrag(Point{350, 260}))
	crop := v.View().Crop
	assert.Equal(t, CropPending, crop.Phase)
	assert.Equal(t, RectF{50, 50, 150, 110}, crop.Rect)

	require.True(t, v.ApplyCrop())
	assert.Equal(t, CropActive, v.View().Crop.Phase)
	assert.False(t, v.CropMode())
	assert.Equal(t, "Crop 100x60", f.notifier.last())

	assert.True(t, v.CancelCrop())
	assert.Equal(t, CropNone, v.View().Crop.Phase)
	assert.False(t, v.CancelCrop())

	// A drag entirely outside the image leaves nothing selected
	v.ToggleCropMode()
	v.BeginCropDrag(Point{0, 0})
	assert.False(t, v.EndCropDrag(Point{100, 100}))
	assert.Equal(t, CropNone, v.View().Crop.Phase)
}

func TestViewerEyedropper(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "swatch.png")
	img := solidRGBA(400, 300, green)
	img.SetRGBA(0, 0, red)
	require.NoError(t, os.WriteFile(path, encodePNG(t, img), 0o644))

	f := newTestViewer(t, NewCodec(), ZoomModeActualSize)
	v := f.viewer
	openAndSettle(t, f, path, 1)

	require.True(t, v.ToggleEyedropper())
	assert.True(t, v.PickColor(Point{400, 300}))
	assert.Equal(t, "#00FF00", v.LastColor())
	assert.Equal(t, "#00FF00", f.clipboard.text)

	assert.True(t, v.PickColor(Point{200, 150}))
	assert.Equal(t, "#FF0000", v.LastColor())

	assert.False(t, v.PickColor(Point{10, 10}), "outside the image")
	assert.Equal(t, "#FF0000", v.LastColor())

	// Crop mode and eyedropper are exclusive
	v.ToggleCropMode()
	assert.False(t, v.EyedropperMode())
}

func TestViewerPasteBitmap(t *testing.T) {
	dir := writeSizedImages(t, "a.png", "b.png")
	f := newTestViewer(t, NewCodec(), ZoomModeFitWindow)
	v := f.viewer
	openAndSettle(t, f, filepath.Join(dir, "a.png"), 2)

	v.PasteBitmap(solidRGBA(8, 4, red))
	live := v.Live()
	require.NotNil(t, live)
	assert.False(t, live.HasFile())
	assert.Equal(t, pastedImageLabel, live.Name())
	assert.Equal(t, 0, v.Directory().Len())
	assert.Equal(t, 100.0, v.View().Zoom)

	assert.True(t, strings.HasPrefix(filepath.Base(v.ExportPath()), "pasted-"))

	// Navigation has nothing to move through
	v.Next()
	assert.Same(t, live, v.Live())
	assert.ErrorIs(t, v.CopyPath(), ErrReadOnlySource)
}

func TestViewerPasteFromClipboardOpensPath(t *testing.T) {
	dir := writeSizedImages(t, "a.png", "b.png")
	f := newTestViewer(t, NewCodec(), ZoomModeFitWindow)
	v := f.viewer

	f.clipboard.text = "file://" + filepath.Join(dir, "b.png") + "\n"
	require.NoError(t, v.PasteFromClipboard())
	pollUntil(t, v, func() bool { return v.Live() != nil && v.Directory().Len() == 2 })
	assert.Equal(t, 1, v.Directory().Active)

	require.NoError(t, v.CopyPath())
	assert.Equal(t, filepath.Join(dir, "b.png"), f.clipboard.text)

	f.clipboard.text = "just some words"
	assert.Error(t, v.PasteFromClipboard())
}

func TestViewerSortRescans(t *testing.T) {
	dir := writeSizedImages(t, "a.png", "b.png", "c.png")
	f := newTestViewer(t, NewCodec(), ZoomModeFitWindow)
	v := f.viewer
	openAndSettle(t, f, filepath.Join(dir, "a.png"), 3)

	order := v.ToggleSortDirection()
	assert.True(t, order.Descending)
	pollUntil(t, v, func() bool { return v.Directory().Active == 2 })
	assert.Equal(t, filepath.Join(dir, "c.png"), v.Directory().Entries[0].Path.Path)

	order = v.CycleSort()
	assert.Equal(t, SortByModified, order.Criteria)
	assert.True(t, order.Descending)
	assert.Contains(t, f.notifier.last(), "descending")
}

func TestViewerViewOperationsNeedImage(t *testing.T) {
	f := newTestViewer(t, NewCodec(), ZoomModeFitWindow)
	v := f.viewer
	before := v.View()

	v.Rotate(true)
	v.FlipHorizontal()
	v.ZoomIn()
	v.PanBy(10, 10)
	assert.Equal(t, before, v.View())
	assert.False(t, v.ToggleCropMode())
	assert.False(t, v.ToggleEyedropper())
}

func TestViewerFitTracksWindowResize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wide.png")
	require.NoError(t, os.WriteFile(path, encodePNG(t, solidRGBA(1600, 300, green)), 0o644))

	f := newTestViewer(t, NewCodec(), ZoomModeFitWindow)
	v := f.viewer
	openAndSettle(t, f, path, 1)
	assert.InDelta(t, 0.5, v.View().Zoom, epsilon)

	v.SetClientSize(400, 600)
	assert.InDelta(t, 0.25, v.View().Zoom, epsilon)

	// Manual zoom stops refitting
	v.ZoomIn()
	zoom := v.View().Zoom
	v.SetClientSize(800, 600)
	assert.Equal(t, zoom, v.View().Zoom)
}

func TestViewerAnimationAdvances(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "anim.gif")
	require.NoError(t, os.WriteFile(path, encodeTestGIF(t, []int{5, 5, 5}), 0o644))

	f := newTestViewer(t, NewCodec(), ZoomModeFitWindow)
	v := f.viewer
	openAndSettle(t, f, path, 1)
	require.True(t, v.Live().Animated)
	assert.Equal(t, 0, v.View().Frame)

	assert.False(t, v.Tick(time.Now().Add(-time.Second)))
	assert.True(t, v.Tick(time.Now().Add(time.Second)))
	assert.Equal(t, 1, v.View().Frame)

	v.SetMinimized(true)
	assert.False(t, v.Tick(time.Now().Add(time.Hour)))
	v.SetMinimized(false)
	assert.True(t, v.Tick(time.Now().Add(time.Hour)))
	assert.Equal(t, 2, v.View().Frame)
}

func TestViewerSaveIgnoresItsOwnFileChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wide.png")
	require.NoError(t, os.WriteFile(path, encodePNG(t, solidRGBA(40, 10, green)), 0o644))

	f := newTestViewer(t, NewCodec(), ZoomModeFitWindow)
	v := f.viewer
	openAndSettle(t, f, path, 1)

	v.Rotate(true)
	require.NoError(t, v.SaveCurrent())

	// The rename shows up as a change to the active file before the reload lands
	stamp, err := statSource(newFilePath(path))
	require.NoError(t, err)
	v.HandleFileChange(FileChange{Kind: ChangeActiveFile, Path: path, Stamp: stamp})

	pollUntil(t, v, func() bool { return v.Live().Width == 10 && !v.IsLoading() })
	assert.Equal(t, 40, v.Live().Height)
	assert.Equal(t, 0, v.View().Rotation, "rotation is baked into the file, not reapplied")
}

func TestViewerAutoRefreshPreservesView(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.png")
	require.NoError(t, os.WriteFile(path, encodePNG(t, solidRGBA(40, 10, green)), 0o644))

	f := newTestViewer(t, NewCodec(), ZoomModeActualSize)
	v := f.viewer
	openAndSettle(t, f, path, 1)

	v.Rotate(true)
	v.ZoomIn()
	v.PanBy(5, 7)
	before := v.View()
	requested := v.Stats().Requested

	// An unchanged stamp is not a change
	v.HandleFileChange(FileChange{Kind: ChangeActiveFile, Path: path, Stamp: fileStamp{ModTime: v.Live().ModTime, Size: v.Live().FileSize}})
	assert.Equal(t, requested, v.Stats().Requested)

	// Nor is a change to some other file
	v.HandleFileChange(FileChange{Kind: ChangeActiveFile, Path: filepath.Join(dir, "other.png"), Stamp: fileStamp{Size: 1}})
	assert.Equal(t, requested, v.Stats().Requested)

	require.NoError(t, os.WriteFile(path, encodePNG(t, solidRGBA(20, 10, red)), 0o644))
	stamp, err := statSource(newFilePath(path))
	require.NoError(t, err)
	v.HandleFileChange(FileChange{Kind: ChangeActiveFile, Path: path, Stamp: stamp})

	pollUntil(t, v, func() bool { return v.Live().Width == 20 && !v.IsLoading() })
	after := v.View()
	assert.Equal(t, before.Rotation, after.Rotation)
	assert.Equal(t, before.Zoom, after.Zoom)
	assert.Equal(t, before.Pan, after.Pan)
}

func TestViewerMinimizeStopsAnimation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "anim.gif")
	require.NoError(t, os.WriteFile(path, encodeTestGIF(t, []int{5, 5}), 0o644))

	f := newTestViewer(t, NewCodec(), ZoomModeFitWindow)
	v := f.viewer
	openAndSettle(t, f, path, 1)
	require.True(t, v.anim.Armed())

	v.SetMinimized(true)
	assert.False(t, v.anim.Armed())
	v.SetMinimized(true)
	assert.False(t, v.anim.Armed())

	v.SetMinimized(false)
	assert.True(t, v.anim.Armed())
	assert.Equal(t, 0, v.View().Frame, "resumes from the frame it stopped on")
}

func TestViewerFailedListingLeavesNavigationInert(t *testing.T) {
	dir := writeSizedImages(t, "a.png", "b.png")
	f := newTestViewer(t, NewCodec(), ZoomModeFitWindow)
	v := f.viewer
	openAndSettle(t, f, filepath.Join(dir, "a.png"), 2)
	live := v.Live()

	require.NoError(t, os.RemoveAll(dir))
	v.HandleFileChange(FileChange{Kind: ChangeListing, Path: filepath.Join(dir, "b.png")})
	pollUntil(t, v, func() bool { return v.Directory().Len() == 0 })

	requested := v.Stats().Requested
	v.Next()
	v.Previous()
	v.Poll(time.Now())
	assert.Same(t, live, v.Live(), "the decoded image stays on screen")
	assert.Equal(t, requested, v.Stats().Requested)
	assert.Equal(t, -1, v.Directory().Active)
}

func TestViewerPasteCancelsListing(t *testing.T) {
	dir := writeSizedImages(t, "a.png", "b.png")
	codec := &gatedCodec{DefaultCodec: NewCodec(), gate: make(chan struct{})}
	f := newTestViewer(t, codec, ZoomModeFitWindow)
	v := f.viewer

	require.NoError(t, v.Open(filepath.Join(dir, "a.png")))
	v.PasteBitmap(solidRGBA(2, 2, red))
	assert.Equal(t, LoadIdle, v.loader.dirs.State())
	close(codec.gate)

	time.Sleep(20 * time.Millisecond)
	v.Poll(time.Now())
	assert.Equal(t, 0, v.Directory().Len(), "a superseded scan never lands")
	assert.False(t, v.Live().HasFile())
}
