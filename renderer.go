package main

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
)

// Common colors used in rendering
var (
	colorWhite     = color.RGBA{255, 255, 255, 255}
	colorGray      = color.RGBA{180, 180, 180, 255}
	colorYellow    = color.RGBA{255, 255, 100, 255}
	colorCyan      = color.RGBA{100, 255, 255, 255}
	colorLightBlue = color.RGBA{200, 200, 255, 255}
	colorGreen     = color.RGBA{100, 255, 100, 255}
	colorOrange    = color.RGBA{255, 200, 100, 255}
	colorLightRed  = color.RGBA{255, 150, 150, 255}

	// Background colors for semi-transparent overlays
	bgColorLight  = color.RGBA{0, 0, 0, 128} // Light semi-transparent
	bgColorMedium = color.RGBA{0, 0, 0, 160} // Medium semi-transparent
	bgColorDark   = color.RGBA{0, 0, 0, 200} // Dark semi-transparent
)

// Renderer handles all drawing operations
type Renderer struct {
	renderState RenderState

	// GPU copies of the live image's frames, uploaded on first use
	textureOwner *LiveImage
	textures     map[*image.RGBA]*ebiten.Image

	placeholderKey string
	placeholderImg *ebiten.Image
}

// NewRenderer creates a new Renderer. InitGraphics must have been called.
func NewRenderer(renderState RenderState) *Renderer {
	return &Renderer{
		renderState: renderState,
		textures:    make(map[*image.RGBA]*ebiten.Image),
	}
}

func (r *Renderer) face(size float64) *text.GoTextFace {
	return &text.GoTextFace{Source: globalFontSource, Size: size}
}

// getActionsList returns a sorted list of all actions that have bindings
func (r *Renderer) getActionsList() []string {
	keybindings := r.renderState.GetKeybindings()
	mousebindings := r.renderState.GetMousebindings()

	// Get sorted action list for consistent display (union of keyboard and mouse actions)
	actionSet := make(map[string]bool)
	for action := range keybindings {
		actionSet[action] = true
	}
	for action := range mousebindings {
		actionSet[action] = true
	}

	actions := make([]string, 0, len(actionSet))
	for action := range actionSet {
		actions = append(actions, action)
	}
	sort.Strings(actions)
	return actions
}

// Draw renders the entire screen
func (r *Renderer) Draw(screen *ebiten.Image) {
	// Clear the screen since SetScreenClearedEveryFrame(false) is enabled
	screen.Clear()

	client := Size{W: float64(screen.Bounds().Dx()), H: float64(screen.Bounds().Dy())}
	live := r.renderState.GetLiveImage()
	switch {
	case live != nil:
		vs := r.renderState.GetViewState()
		r.drawLiveImage(screen, live, vs, client)
		r.drawCrop(screen, live, vs, client)
	case r.renderState.GetPlaceholder() != "":
		r.drawPlaceholder(screen, client)
	default:
		r.releaseTextures()
	}

	if r.renderState.IsLoading() {
		r.drawLoadingIndicator(screen)
	}

	if r.renderState.IsEyedropperMode() {
		r.drawModeBadge(screen, "Eyedropper", r.renderState.GetLastColor())
	} else if r.renderState.IsCropMode() {
		r.drawModeBadge(screen, "Crop", "")
	}

	// Draw info display at bottom of screen if enabled
	if r.renderState.IsShowingInfo() && live != nil {
		r.drawInfoDisplay(screen)
	}

	// Draw help overlay if enabled
	if r.renderState.IsShowingHelp() {
		r.drawHelpOverlay(screen)
	}

	// Draw overlay message if active
	if r.renderState.GetOverlayMessage() != "" && time.Since(r.renderState.GetOverlayMessageTime()) < overlayMessageDuration {
		r.drawOverlayMessage(screen)
	}
}

// texture returns the uploaded copy of frame, discarding textures of a previous image
func (r *Renderer) texture(live *LiveImage, frame *image.RGBA) *ebiten.Image {
	if r.textureOwner != live {
		r.releaseTextures()
		r.textureOwner = live
	}
	if tex, ok := r.textures[frame]; ok {
		return tex
	}
	tex := ebiten.NewImageFromImage(frame)
	r.textures[frame] = tex
	return tex
}

func (r *Renderer) releaseTextures() {
	for _, tex := range r.textures {
		tex.Deallocate()
	}
	clear(r.textures)
	r.textureOwner = nil
}

// viewGeoM is the forward view transform: center the image on the origin, rotate,
// scale with the horizontal flip, then move to the window center plus pan.
func viewGeoM(vs ViewState, img, client Size) ebiten.GeoM {
	var m ebiten.GeoM
	m.Translate(-img.W/2, -img.H/2)
	if vs.Rotation != 0 {
		m.Rotate(float64(vs.Rotation) * math.Pi / 180)
	}
	sx, sy := scaleFactors(vs)
	m.Scale(sx, sy)
	m.Translate(client.W/2+vs.Pan.X, client.H/2+vs.Pan.Y)
	return m
}

func (r *Renderer) drawLiveImage(screen *ebiten.Image, live *LiveImage, vs ViewState, client Size) {
	frame := live.Frame(vs.Frame)
	if frame == nil {
		return
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM = viewGeoM(vs, live.Dimensions(), client)
	if vs.Zoom < 1 {
		op.Filter = ebiten.FilterLinear
	}
	screen.DrawImage(r.texture(live, frame), op)
}

// drawCrop draws the drag rectangle while selecting, the selection outline once
// pending, and dims everything outside an active crop
func (r *Renderer) drawCrop(screen *ebiten.Image, live *LiveImage, vs ViewState, client Size) {
	switch vs.Crop.Phase {
	case CropSelecting:
		DrawDashedRect(screen, vs.Crop.DragStart, vs.Crop.DragEnd, colorWhite)
	case CropPending:
		DrawQuadOutline(screen, ImageRectToWindow(vs.Crop.Rect, vs, live.Dimensions(), client), 2, colorYellow)
	case CropActive:
		corners := ImageRectToWindow(vs.Crop.Rect, vs, live.Dimensions(), client)
		x0, y0 := corners[0].X, corners[0].Y
		x1, y1 := x0, y0
		for _, p := range corners[1:] {
			x0, x1 = math.Min(x0, p.X), math.Max(x1, p.X)
			y0, y1 = math.Min(y0, p.Y), math.Max(y1, p.Y)
		}
		DrawFilledRect(screen, 0, 0, client.W, y0, bgColorDark)
		DrawFilledRect(screen, 0, y1, client.W, client.H-y1, bgColorDark)
		DrawFilledRect(screen, 0, y0, x0, y1-y0, bgColorDark)
		DrawFilledRect(screen, x1, y0, client.W-x1, y1-y0, bgColorDark)
	}
}

func (r *Renderer) drawPlaceholder(screen *ebiten.Image, client Size) {
	r.releaseTextures()
	msg := r.renderState.GetPlaceholder()
	w, h := int(client.W*0.8), int(client.H/3)
	key := fmt.Sprintf("%s/%dx%d", msg, w, h)
	if r.placeholderImg == nil || r.placeholderKey != key {
		if r.placeholderImg != nil {
			r.placeholderImg.Deallocate()
		}
		r.placeholderImg = CreatePlaceholderImage(w, h, r.renderState.GetPlaceholderName(), msg)
		r.placeholderKey = key
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate((client.W-float64(w))/2, (client.H-float64(h))/2)
	screen.DrawImage(r.placeholderImg, op)
}

func (r *Renderer) drawLoadingIndicator(screen *ebiten.Image) {
	font := r.face(r.renderState.GetFontSize() * 0.75)
	label := "Loading..."
	w, h := text.Measure(label, font, 0)
	DrawFilledRect(screen, 5, 5, w+10, h+10, bgColorLight)
	DrawText(screen, label, font, 10, 10, colorWhite)
}

// drawModeBadge shows the active pointer mode in the top right corner, with a
// swatch of the last picked color in eyedropper mode
func (r *Renderer) drawModeBadge(screen *ebiten.Image, mode, hex string) {
	font := r.face(r.renderState.GetFontSize() * 0.75)
	label := mode
	if hex != "" {
		label += " " + hex
	}
	w, h := text.Measure(label, font, 0)
	right := float64(screen.Bounds().Dx())
	c, hasSwatch := parseHexColor(hex)
	swatch := 0.0
	if hasSwatch {
		swatch = h + 5
	}
	x := right - w - swatch - 15
	DrawFilledRect(screen, x-5, 5, w+swatch+15, h+10, bgColorLight)
	DrawText(screen, label, font, x, 10, colorWhite)
	if hasSwatch {
		DrawFilledRect(screen, right-h-10, 10, h, h, c)
	}
}

func parseHexColor(hex string) (color.RGBA, bool) {
	var c color.RGBA
	if len(hex) != 7 || hex[0] != '#' {
		return c, false
	}
	if _, err := fmt.Sscanf(hex, "#%02X%02X%02X", &c.R, &c.G, &c.B); err != nil {
		return c, false
	}
	c.A = 255
	return c, true
}

func (r *Renderer) drawHelpOverlay(screen *ebiten.Image) {
	w, h := float64(screen.Bounds().Dx()), float64(screen.Bounds().Dy())

	// Calculate available space (accounting for padding)
	padding := 40.0
	availableWidth := w - padding*2
	availableHeight := h - padding*2

	// Calculate optimal font size
	optimalFontSize, canFit := r.calculateOptimalFontSize(availableWidth, availableHeight)

	// If cannot fit even with minimum font size, show Fermat's joke
	if !canFit {
		r.drawMarginTooSmallMessage(screen)
		return
	}

	actions := r.getActionsList()
	keybindings := r.renderState.GetKeybindings()
	mousebindings := r.renderState.GetMousebindings()
	configStatus := r.renderState.GetConfigStatus()

	DrawFilledRect(screen, 0, 0, w, h, bgColorLight)
	DrawFilledRect(screen, padding, padding, w-padding*2, h-padding*2, bgColorMedium)

	helpFont := r.face(optimalFontSize)

	titleY := padding + 30
	DrawText(screen, "HELP:", helpFont, padding+20, titleY, colorWhite)

	currentY := titleY + optimalFontSize*2
	lineHeight := optimalFontSize * 1.5

	actionDescriptions := GetActionDescriptions()

	DrawText(screen, "Controls (Keyboard | Mouse):", helpFont, padding+20, currentY, colorWhite)
	currentY += lineHeight * 1.5

	maxActionWidth, maxInputWidth, _ := r.measureColumns(actions, helpFont)

	// Calculate column positions with proper spacing
	actionColumnX := padding + 40
	arrowColumnX := actionColumnX + maxActionWidth + 20
	inputColumnX := arrowColumnX + 30
	descColumnX := inputColumnX + maxInputWidth + 20

	for _, action := range actions {
		keys := keybindings[action]
		mouseActions := mousebindings[action]
		if len(keys) == 0 && len(mouseActions) == 0 {
			continue
		}

		description := actionDescriptions[action]
		if description == "" {
			description = "No description available"
		}

		DrawText(screen, action, helpFont, actionColumnX, currentY, colorLightBlue)
		DrawText(screen, "→", helpFont, arrowColumnX, currentY, colorWhite)

		currentInputX := inputColumnX

		// Keyboard bindings in yellow, mouse bindings in cyan
		if len(keys) > 0 {
			keysList := strings.Join(keys, ", ")
			DrawText(screen, keysList, helpFont, currentInputX, currentY, colorYellow)
			keysWidth, _ := text.Measure(keysList, helpFont, 0)
			currentInputX += keysWidth
		}
		if len(keys) > 0 && len(mouseActions) > 0 {
			DrawText(screen, " | ", helpFont, currentInputX, currentY, colorWhite)
			sepWidth, _ := text.Measure(" | ", helpFont, 0)
			currentInputX += sepWidth
		}
		if len(mouseActions) > 0 {
			DrawText(screen, strings.Join(mouseActions, ", "), helpFont, currentInputX, currentY, colorCyan)
		}

		DrawText(screen, description, helpFont, descColumnX, currentY, colorGray)
		currentY += lineHeight
	}

	currentY += lineHeight
	DrawText(screen, "System:", helpFont, padding+20, currentY, colorWhite)
	currentY += lineHeight

	statusText := fmt.Sprintf("Config Status: %s", configStatus.Status)
	statusColor := colorGreen
	if configStatus.Status == "Warning" || configStatus.Status == "Error" {
		statusColor = colorOrange
	}
	DrawText(screen, statusText, helpFont, padding+40, currentY, statusColor)
	currentY += lineHeight

	for _, warning := range shortWarnings(configStatus.Warnings) {
		DrawText(screen, "• "+warning, helpFont, padding+40, currentY, colorLightRed)
		currentY += lineHeight
	}
}

// shortWarnings returns at most two warnings, truncated for the help overlay
func shortWarnings(warnings []string) []string {
	out := make([]string, 0, 2)
	for i, warning := range warnings {
		if i >= 2 {
			break
		}
		if len(warning) > 50 {
			warning = warning[:47] + "..."
		}
		out = append(out, warning)
	}
	return out
}

// measureColumns returns the widest action name, input list and description
func (r *Renderer) measureColumns(actions []string, font *text.GoTextFace) (float64, float64, float64) {
	keybindings := r.renderState.GetKeybindings()
	mousebindings := r.renderState.GetMousebindings()
	descriptions := GetActionDescriptions()

	var maxAction, maxInput, maxDesc float64
	for _, action := range actions {
		keys := keybindings[action]
		mouseActions := mousebindings[action]
		if len(keys) == 0 && len(mouseActions) == 0 {
			continue
		}

		actionWidth, _ := text.Measure(action, font, 0)
		maxAction = math.Max(maxAction, actionWidth)

		var inputParts []string
		if len(keys) > 0 {
			inputParts = append(inputParts, strings.Join(keys, ", "))
		}
		if len(mouseActions) > 0 {
			inputParts = append(inputParts, strings.Join(mouseActions, ", "))
		}
		inputWidth, _ := text.Measure(strings.Join(inputParts, " | "), font, 0)
		maxInput = math.Max(maxInput, inputWidth)

		description := descriptions[action]
		if description == "" {
			description = "No description available"
		}
		descWidth, _ := text.Measure(description, font, 0)
		maxDesc = math.Max(maxDesc, descWidth)
	}
	return maxAction, maxInput, maxDesc
}

// calculateRequiredDimensions calculates the required width and height for help content at a given font size
func (r *Renderer) calculateRequiredDimensions(fontSize float64) (float64, float64) {
	actions := r.getActionsList()
	keybindings := r.renderState.GetKeybindings()
	mousebindings := r.renderState.GetMousebindings()
	configStatus := r.renderState.GetConfigStatus()
	tempFont := r.face(fontSize)

	padding := 40.0
	lineHeight := fontSize * 1.5

	height := padding * 2
	height += fontSize * 2     // Title
	height += lineHeight * 1.5 // Controls title spacing

	actionLines := 0
	for _, action := range actions {
		if len(keybindings[action]) == 0 && len(mousebindings[action]) == 0 {
			continue
		}
		actionLines++
	}
	height += float64(actionLines) * lineHeight

	// System section: spacing, title, status and warnings
	height += lineHeight * 3
	warnings := shortWarnings(configStatus.Warnings)
	height += float64(len(warnings)) * lineHeight

	maxWidth := 0.0
	for _, title := range []string{"HELP:", "Controls (Keyboard | Mouse):", "System:"} {
		titleWidth, _ := text.Measure(title, tempFont, 0)
		maxWidth = math.Max(maxWidth, titleWidth+padding*2+40)
	}

	maxActionWidth, maxInputWidth, maxDescWidth := r.measureColumns(actions, tempFont)
	actionLineWidth := 40 + maxActionWidth + 20 + 30 + 20 + maxInputWidth + 20 + maxDescWidth + padding
	maxWidth = math.Max(maxWidth, actionLineWidth)

	statusWidth, _ := text.Measure(fmt.Sprintf("Config Status: %s", configStatus.Status), tempFont, 0)
	maxWidth = math.Max(maxWidth, statusWidth+padding*2+80)

	for _, warning := range warnings {
		warningWidth, _ := text.Measure("• "+warning, tempFont, 0)
		maxWidth = math.Max(maxWidth, warningWidth+padding*2+80)
	}

	return maxWidth, height
}

// calculateOptimalFontSize finds the largest font size that fits within the given dimensions
func (r *Renderer) calculateOptimalFontSize(availableWidth, availableHeight float64) (float64, bool) {
	maxFontSize := r.renderState.GetFontSize()
	minFontSize := 12.0

	// Quick check: can we fit with minimum font size?
	minWidth, minHeight := r.calculateRequiredDimensions(minFontSize)
	if minWidth > availableWidth || minHeight > availableHeight {
		return minFontSize, false
	}

	maxWidth, maxHeight := r.calculateRequiredDimensions(maxFontSize)
	if maxWidth <= availableWidth && maxHeight <= availableHeight {
		return maxFontSize, true
	}

	// Binary search for optimal font size
	low := minFontSize
	high := maxFontSize
	bestSize := minFontSize
	epsilon := 0.5

	for high-low > epsilon {
		mid := (low + high) / 2.0
		reqWidth, reqHeight := r.calculateRequiredDimensions(mid)
		if reqWidth <= availableWidth && reqHeight <= availableHeight {
			bestSize = mid
			low = mid
		} else {
			high = mid
		}
	}

	return bestSize, true
}

// drawMarginTooSmallMessage displays Fermat's margin joke when help cannot fit
func (r *Renderer) drawMarginTooSmallMessage(screen *ebiten.Image) {
	w, h := screen.Bounds().Dx(), screen.Bounds().Dy()

	DrawFilledRect(screen, 0, 0, float64(w), float64(h), bgColorLight)

	jokeFont := r.face(16.0)

	// The famous quote from Fermat's Last Theorem margin note
	message := "Hanc marginis exiguitas non caperet."
	subtitle := "(This margin is too small to contain it.)"

	messageWidth, messageHeight := text.Measure(message, jokeFont, 0)
	subtitleWidth, _ := text.Measure(subtitle, jokeFont, 0)

	messageX := float64(w)/2 - messageWidth/2
	messageY := float64(h)/2 - messageHeight/2

	subtitleX := float64(w)/2 - subtitleWidth/2
	subtitleY := messageY + messageHeight + 10

	DrawText(screen, message, jokeFont, messageX, messageY, colorWhite)
	DrawText(screen, subtitle, jokeFont, subtitleX, subtitleY, colorGray)
}

func (r *Renderer) drawInfoDisplay(screen *ebiten.Image) {
	infoFont := r.face(r.renderState.GetFontSize())
	infoText := buildInfoString(r.renderState.GetLiveImage(), r.renderState.GetViewState(), r.renderState.GetDirectory())

	textWidth, textHeight := text.Measure(infoText, infoFont, 0)

	// Position at bottom right corner
	padding := 10.0
	textX := float64(screen.Bounds().Dx()) - textWidth - padding
	textY := float64(screen.Bounds().Dy()) - textHeight - padding

	bgPadding := 5.0
	DrawFilledRect(screen, textX-bgPadding, textY-bgPadding, textWidth+bgPadding*2, textHeight+bgPadding*2, bgColorLight)
	DrawText(screen, infoText, infoFont, textX, textY, colorWhite)
}

// buildInfoString formats "position / total  name  WxH  zoom  [frame]  sort"
func buildInfoString(live *LiveImage, vs ViewState, dir DirectoryIndex) string {
	if live == nil {
		return ""
	}
	parts := make([]string, 0, 6)
	if dir.Active >= 0 && dir.Len() > 0 {
		parts = append(parts, fmt.Sprintf("%d / %d", dir.Active+1, dir.Len()))
	}
	parts = append(parts,
		live.Name(),
		fmt.Sprintf("%dx%d", live.Width, live.Height),
		fmt.Sprintf("%.0f%%", vs.Zoom*100))
	if len(live.Frames) > 1 {
		parts = append(parts, fmt.Sprintf("frame %d/%d", vs.Frame+1, len(live.Frames)))
	}
	if dir.Len() > 0 {
		parts = append(parts, dir.Order.String())
	}
	return strings.Join(parts, "  ")
}

func (r *Renderer) drawOverlayMessage(screen *ebiten.Image) {
	messageFont := r.face(r.renderState.GetFontSize())
	message := r.renderState.GetOverlayMessage()

	textWidth, textHeight := text.Measure(message, messageFont, 0)

	// Center of screen
	padding := 20.0
	boxWidth := textWidth + padding*2
	boxHeight := textHeight + padding*2
	boxX := (float64(screen.Bounds().Dx()) - boxWidth) / 2
	boxY := (float64(screen.Bounds().Dy()) - boxHeight) / 2

	DrawFilledRect(screen, boxX, boxY, boxWidth, boxHeight, bgColorDark)
	DrawText(screen, message, messageFont, boxX+padding, boxY+padding, colorWhite)
}
