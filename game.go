package main

import (
	"errors"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"
)

const (
	// Keyboard pan distance in window pixels
	panStep = 50.0

	windowTitle = "miv"
)

// Game is the ebiten front end. It owns the window and overlay state and forwards
// everything else to the Viewer.
type Game struct {
	viewer       *Viewer
	renderer     *Renderer
	inputHandler *InputHandler
	watcher      *FileWatcher
	instance     *InstanceServer
	logger       *zap.Logger

	config       Config
	configPath   string
	configStatus ConfigLoadResult

	fullscreen         bool
	savedWinW          int
	savedWinH          int
	showHelp           bool
	showInfo           bool
	overlayMessage     string
	overlayMessageTime time.Time
	exiting            bool
	title              string

	width, height int
	needsRedraw   bool
	lastSnapshot  *RenderStateSnapshot
}

// Update runs one UI tick: external events, staged results, animation, input
func (g *Game) Update() error {
	if g.exiting {
		g.saveSettings()
		return ebiten.Termination
	}

	g.viewer.SetClientSize(g.width, g.height)
	g.viewer.SetMinimized(ebiten.IsWindowMinimized())
	g.drainEvents()

	now := time.Now()
	if g.viewer.Poll(now) {
		g.needsRedraw = true
	}
	if g.viewer.Tick(now) {
		g.needsRedraw = true
	}
	if g.inputHandler.HandleInput() {
		g.needsRedraw = true
	}

	snapshot := NewRenderStateSnapshot(g, g.width, g.height)
	if !snapshot.Equals(g.lastSnapshot) {
		g.needsRedraw = true
	}
	g.lastSnapshot = snapshot

	g.updateTitle()
	return nil
}

// drainEvents applies file changes and open requests from other instances
func (g *Game) drainEvents() {
	if g.watcher != nil {
	changes:
		for {
			select {
			case change := <-g.watcher.Changes():
				g.viewer.HandleFileChange(change)
			default:
				break changes
			}
		}
	}

	if g.instance != nil {
	requests:
		for {
			select {
			case path := <-g.instance.Requests():
				g.logger.Info("open requested by another instance", zap.String("path", path))
				if err := g.viewer.Open(path); err != nil {
					g.logger.Warn("open failed", zap.String("path", path), zap.Error(err))
				}
			default:
				break requests
			}
		}
	}
}

func (g *Game) updateTitle() {
	title := windowTitle
	if live := g.viewer.Live(); live != nil {
		title = live.Name() + " - " + windowTitle
	}
	if title != g.title {
		ebiten.SetWindowTitle(title)
		g.title = title
	}
}

// Draw only repaints when something changed since the screen is not cleared every frame
func (g *Game) Draw(screen *ebiten.Image) {
	if !g.needsRedraw {
		return
	}
	g.renderer.Draw(screen)
	g.needsRedraw = false
}

// Layout tracks the window size in device-independent pixels
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth != g.width || outsideHeight != g.height {
		g.width, g.height = outsideWidth, outsideHeight
		g.needsRedraw = true
	}
	return outsideWidth, outsideHeight
}

// saveSettings persists window size and sort order
func (g *Game) saveSettings() {
	if g.fullscreen {
		// Save the size from before fullscreen
		if g.savedWinW > 0 && g.savedWinH > 0 {
			g.config.WindowWidth = g.savedWinW
			g.config.WindowHeight = g.savedWinH
		}
	} else {
		w, h := ebiten.WindowSize()
		g.config.WindowWidth = w
		g.config.WindowHeight = h
	}
	order := g.viewer.Directory().Order
	g.config.SortMethod = order.Criteria
	g.config.SortDescending = order.Descending

	if g.configStatus.Status == "Error" {
		// Never overwrite a file we failed to parse
		return
	}
	if err := saveConfigToPath(g.config, g.configPath); err != nil {
		g.logger.Warn("saving config failed", zap.String("path", g.configPath), zap.Error(err))
	}
}

// Close releases background resources after the game loop ends
func (g *Game) Close() {
	g.viewer.Close()
	if g.watcher != nil {
		g.watcher.Stop()
	}
	if g.instance != nil {
		if err := g.instance.Close(); err != nil {
			g.logger.Debug("closing instance socket", zap.Error(err))
		}
	}
}

// RenderState

func (g *Game) IsFullscreen() bool                  { return g.fullscreen }
func (g *Game) GetLiveImage() *LiveImage            { return g.viewer.Live() }
func (g *Game) GetViewState() ViewState             { return g.viewer.View() }
func (g *Game) GetDirectory() DirectoryIndex        { return g.viewer.Directory() }
func (g *Game) GetPlaceholder() string              { return g.viewer.Placeholder() }
func (g *Game) GetPlaceholderName() string          { return g.viewer.PlaceholderName() }
func (g *Game) IsLoading() bool                     { return g.viewer.IsLoading() }
func (g *Game) IsCropMode() bool                    { return g.viewer.CropMode() }
func (g *Game) IsEyedropperMode() bool              { return g.viewer.EyedropperMode() }
func (g *Game) GetLastColor() string                { return g.viewer.LastColor() }
func (g *Game) IsShowingHelp() bool                 { return g.showHelp }
func (g *Game) IsShowingInfo() bool                 { return g.showInfo }
func (g *Game) GetOverlayMessage() string           { return g.overlayMessage }
func (g *Game) GetOverlayMessageTime() time.Time    { return g.overlayMessageTime }
func (g *Game) GetFontSize() float64                { return g.config.HelpFontSize }
func (g *Game) GetConfigStatus() ConfigLoadResult   { return g.configStatus }
func (g *Game) GetKeybindings() map[string][]string { return g.config.Keybindings }
func (g *Game) GetMousebindings() map[string][]string {
	return g.config.Mousebindings
}

// InputState

// HasImage is true once something is displayed or there are siblings to move to
func (g *Game) HasImage() bool {
	return g.viewer.Live() != nil || g.viewer.Directory().Len() > 0
}

// InputActions

func (g *Game) Exit() {
	g.exiting = true
}

func (g *Game) ToggleHelp() {
	g.showHelp = !g.showHelp
}

func (g *Game) ToggleInfo() {
	g.showInfo = !g.showInfo
}

func (g *Game) ToggleFullscreen() {
	g.fullscreen = !g.fullscreen
	if g.fullscreen {
		g.savedWinW, g.savedWinH = ebiten.WindowSize()
		ebiten.SetFullscreen(true)
		return
	}
	ebiten.SetFullscreen(false)
	if g.savedWinW > 0 && g.savedWinH > 0 {
		ebiten.SetWindowSize(g.savedWinW, g.savedWinH)
	}
}

func (g *Game) NavigateNext()     { g.viewer.Next() }
func (g *Game) NavigatePrevious() { g.viewer.Previous() }
func (g *Game) JumpToFirst()      { g.viewer.JumpTo(0) }
func (g *Game) JumpToLast()       { g.viewer.JumpTo(g.viewer.Directory().Len() - 1) }
func (g *Game) Reload()           { g.viewer.Reload(false) }

func (g *Game) RotateLeft()     { g.viewer.Rotate(false) }
func (g *Game) RotateRight()    { g.viewer.Rotate(true) }
func (g *Game) FlipHorizontal() { g.viewer.FlipHorizontal() }

func (g *Game) ZoomIn()    { g.viewer.ZoomIn() }
func (g *Game) ZoomOut()   { g.viewer.ZoomOut() }
func (g *Game) ZoomReset() { g.viewer.ActualSize() }
func (g *Game) ZoomFit()   { g.viewer.Fit() }

func (g *Game) ZoomAtCursor(in bool) {
	x, y := ebiten.CursorPosition()
	g.viewer.ZoomAt(Point{X: float64(x), Y: float64(y)}, in)
}

func (g *Game) PanUp()                    { g.viewer.PanBy(0, panStep) }
func (g *Game) PanDown()                  { g.viewer.PanBy(0, -panStep) }
func (g *Game) PanLeft()                  { g.viewer.PanBy(panStep, 0) }
func (g *Game) PanRight()                 { g.viewer.PanBy(-panStep, 0) }
func (g *Game) PanByDelta(dx, dy float64) { g.viewer.PanBy(dx, dy) }

func (g *Game) ToggleCropMode() {
	if g.viewer.ToggleCropMode() {
		g.ShowOverlayMessage("Crop: drag to select, Enter to apply")
	}
}

func (g *Game) BeginCropDrag(x, y float64)  { g.viewer.BeginCropDrag(Point{X: x, Y: y}) }
func (g *Game) UpdateCropDrag(x, y float64) { g.viewer.UpdateCropDrag(Point{X: x, Y: y}) }
func (g *Game) EndCropDrag(x, y float64)    { g.viewer.EndCropDrag(Point{X: x, Y: y}) }
func (g *Game) ApplyCrop()                  { g.viewer.ApplyCrop() }

// Cancel closes the topmost thing: help, then crop, then eyedropper
func (g *Game) Cancel() {
	switch {
	case g.showHelp:
		g.showHelp = false
	case g.viewer.CropMode():
		g.viewer.ToggleCropMode()
	case g.viewer.CancelCrop():
	case g.viewer.EyedropperMode():
		g.viewer.ToggleEyedropper()
	}
}

func (g *Game) ToggleEyedropper() {
	if g.viewer.ToggleEyedropper() {
		g.ShowOverlayMessage("Eyedropper: click to copy a color")
	}
}

func (g *Game) PickColor(x, y float64) { g.viewer.PickColor(Point{X: x, Y: y}) }

func (g *Game) SaveImage() {
	if err := g.viewer.SaveCurrent(); err != nil {
		g.logger.Warn("save failed", zap.Error(err))
	}
}

func (g *Game) ExportImage() {
	target := g.viewer.ExportPath()
	if target == "" {
		return
	}
	if err := g.viewer.ExportAs(target); err != nil {
		g.logger.Warn("export failed", zap.String("target", target), zap.Error(err))
	}
}

func (g *Game) DeleteImage() {
	if err := g.viewer.Delete(); err != nil && !errors.Is(err, ErrReadOnlySource) {
		g.logger.Warn("delete failed", zap.Error(err))
	}
}

func (g *Game) PasteFromClipboard() {
	if err := g.viewer.PasteFromClipboard(); err != nil {
		g.logger.Debug("paste failed", zap.Error(err))
	}
}

func (g *Game) CopyPath() {
	if err := g.viewer.CopyPath(); err != nil {
		g.logger.Debug("copy path failed", zap.Error(err))
	}
}

func (g *Game) CycleSortMethod()     { g.viewer.CycleSort() }
func (g *Game) ToggleSortDirection() { g.viewer.ToggleSortDirection() }

// ShowOverlayMessage displays a message for overlayMessageDuration
func (g *Game) ShowOverlayMessage(message string) {
	g.overlayMessage = message
	g.overlayMessageTime = time.Now()
	g.needsRedraw = true
}
