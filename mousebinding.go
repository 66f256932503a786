package main

import (
	"strings"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// MouseSettings contains mouse-specific configuration
type MouseSettings struct {
	WheelSensitivity float64 `json:"wheel_sensitivity" mapstructure:"wheel_sensitivity"`
	DoubleClickTime  int     `json:"double_click_time" mapstructure:"double_click_time"` // milliseconds
	DragThreshold    int     `json:"drag_threshold" mapstructure:"drag_threshold"`       // pixels
	EnableMouse      bool    `json:"enable_mouse" mapstructure:"enable_mouse"`
	WheelInverted    bool    `json:"wheel_inverted" mapstructure:"wheel_inverted"`
	EnableDragPan    bool    `json:"enable_drag_pan" mapstructure:"enable_drag_pan"`   // Enable drag to pan
	DragSensitivity  float64 `json:"drag_sensitivity" mapstructure:"drag_sensitivity"` // Drag movement sensitivity
}

// clickTimer pairs consecutive presses of one button into double-clicks
type clickTimer struct {
	button ebiten.MouseButton
	last   time.Time
	armed  bool
}

// observe records a press and reports whether it completes a double-click
func (c *clickTimer) observe(button ebiten.MouseButton, now time.Time, window time.Duration) bool {
	if c.armed && c.button == button && now.Sub(c.last) <= window {
		c.armed = false
		c.last = now
		return true
	}
	c.button, c.last, c.armed = button, now, true
	return false
}

// MouseCombination represents a mouse action with optional modifiers
type MouseCombination struct {
	Modifiers
	Button        ebiten.MouseButton
	IsWheel       bool
	WheelDeltaX   float64
	WheelDeltaY   float64
	IsDoubleClick bool
}

var wheelDirections = map[string][2]float64{
	"WheelUp":    {0, 1},
	"WheelDown":  {0, -1},
	"WheelLeft":  {-1, 0},
	"WheelRight": {1, 0},
}

// MousebindingManager handles dynamic mouse binding processing
type MousebindingManager struct {
	mousebindings map[string][]string
	parsed        map[string][]*MouseCombination
	mouseMapping  map[string]ebiten.MouseButton
	settings      MouseSettings
	clicks        clickTimer
}

// NewMousebindingManager creates a new MousebindingManager
func NewMousebindingManager(mousebindings map[string][]string, settings MouseSettings) *MousebindingManager {
	mm := &MousebindingManager{
		mouseMapping: getMouseMapping(),
		settings:     settings,
	}
	mm.UpdateMousebindings(mousebindings)
	return mm
}

// getMouseMapping returns a mapping from string mouse actions to Ebiten mouse buttons
func getMouseMapping() map[string]ebiten.MouseButton {
	return map[string]ebiten.MouseButton{
		"LeftClick":   ebiten.MouseButtonLeft,
		"RightClick":  ebiten.MouseButtonRight,
		"MiddleClick": ebiten.MouseButtonMiddle,
		"Back":        ebiten.MouseButton3,
		"Forward":     ebiten.MouseButton4,
	}
}

// parseMouseString parses "Shift+LeftClick", "DoubleLeftClick" or "Ctrl+WheelUp"
func (mm *MousebindingManager) parseMouseString(mouseStr string) (*MouseCombination, bool) {
	mods, name := splitBinding(mouseStr)
	combination := &MouseCombination{Modifiers: mods}

	if strings.HasPrefix(name, "Wheel") {
		dir, ok := wheelDirections[name]
		if !ok {
			return nil, false
		}
		combination.IsWheel = true
		combination.WheelDeltaX, combination.WheelDeltaY = dir[0], dir[1]
		return combination, true
	}

	if base, ok := strings.CutPrefix(name, "Double"); ok {
		combination.IsDoubleClick = true
		name = base
	}
	button, ok := mm.mouseMapping[name]
	if !ok {
		return nil, false
	}
	combination.Button = button
	return combination, true
}

// isMouseActionTriggered checks if a mouse combination fired this frame
func (mm *MousebindingManager) isMouseActionTriggered(combination *MouseCombination) bool {
	if !mm.settings.EnableMouse || currentModifiers() != combination.Modifiers {
		return false
	}

	if combination.IsWheel {
		wheelX, wheelY := ebiten.Wheel()
		if mm.settings.WheelInverted {
			wheelY = -wheelY
		}
		wheelX *= mm.settings.WheelSensitivity
		wheelY *= mm.settings.WheelSensitivity
		if combination.WheelDeltaX != 0 {
			return wheelX*combination.WheelDeltaX > 0
		}
		return wheelY*combination.WheelDeltaY > 0
	}

	if !inpututil.IsMouseButtonJustPressed(combination.Button) {
		return false
	}
	if combination.IsDoubleClick {
		window := time.Duration(mm.settings.DoubleClickTime) * time.Millisecond
		return mm.clicks.observe(combination.Button, time.Now(), window)
	}
	return true
}

// CheckAction checks if any mouse binding for the given action is triggered
func (mm *MousebindingManager) CheckAction(action string) bool {
	for _, combination := range mm.parsed[action] {
		if mm.isMouseActionTriggered(combination) {
			return true
		}
	}
	return false
}

// ExecuteAction executes the given action using the InputActions interface.
// Actions with a pointer-anchored variant run that variant instead.
func (mm *MousebindingManager) ExecuteAction(action string, inputActions InputActions, inputState InputState) bool {
	if !mm.CheckAction(action) {
		return false
	}

	if variant, ok := mouseOnlyVariants[action]; ok {
		action = variant
	}
	return globalActionExecutor.ExecuteAction(action, inputActions, inputState)
}

// GetMousebindings returns the current mouse bindings map (for display purposes)
func (mm *MousebindingManager) GetMousebindings() map[string][]string {
	return mm.mousebindings
}

// UpdateMousebindings replaces the bindings; unparseable strings are skipped
func (mm *MousebindingManager) UpdateMousebindings(mousebindings map[string][]string) {
	mm.mousebindings = mousebindings
	mm.parsed = make(map[string][]*MouseCombination, len(mousebindings))
	for action, mouseStrings := range mousebindings {
		for _, mouseStr := range mouseStrings {
			if combination, ok := mm.parseMouseString(mouseStr); ok {
				mm.parsed[action] = append(mm.parsed[action], combination)
			}
		}
	}
}

// UpdateSettings updates the mouse settings
func (mm *MousebindingManager) UpdateSettings(settings MouseSettings) {
	mm.settings = settings
}

// GetSettings returns the current mouse settings
func (mm *MousebindingManager) GetSettings() MouseSettings {
	return mm.settings
}

// GetDefaultMouseSettings returns the default mouse settings
func GetDefaultMouseSettings() MouseSettings {
	return MouseSettings{
		WheelSensitivity: 1.0,
		DoubleClickTime:  300, // milliseconds
		DragThreshold:    5,   // pixels
		EnableMouse:      true,
		WheelInverted:    false,
		EnableDragPan:    true, // Enable drag to pan by default
		DragSensitivity:  1.0,  // 1:1 mouse movement to pan ratio
	}
}

// DragPhase is what the left button did in one frame
type DragPhase int

const (
	DragNone DragPhase = iota
	DragPress
	DragMove
	DragRelease
)

// DragEvent is one frame of a left-button gesture. Moved turns true once the pointer
// has left the threshold radius and stays true until release.
type DragEvent struct {
	Phase  DragPhase
	X, Y   float64
	DX, DY float64
	Moved  bool
}

// DragTracker turns per-frame button and cursor samples into press/move/release
// events, separating clicks from drags by a pixel threshold
type DragTracker struct {
	pressed   bool
	moved     bool
	startX    int
	startY    int
	lastX     int
	lastY     int
	threshold int
}

// NewDragTracker creates a tracker with the given click/drag threshold in pixels
func NewDragTracker(threshold int) *DragTracker {
	return &DragTracker{threshold: threshold}
}

// Update feeds one frame's sample
func (d *DragTracker) Update(down bool, x, y int) DragEvent {
	switch {
	case down && !d.pressed:
		d.pressed, d.moved = true, false
		d.startX, d.startY, d.lastX, d.lastY = x, y, x, y
		return DragEvent{Phase: DragPress, X: float64(x), Y: float64(y)}

	case down && d.pressed:
		if x == d.lastX && y == d.lastY {
			return DragEvent{Phase: DragNone, X: float64(x), Y: float64(y), Moved: d.moved}
		}
		if !d.moved {
			dx, dy := x-d.startX, y-d.startY
			if dx*dx+dy*dy <= d.threshold*d.threshold {
				return DragEvent{Phase: DragNone, X: float64(x), Y: float64(y)}
			}
			d.moved = true
		}
		ev := DragEvent{
			Phase: DragMove,
			X:     float64(x),
			Y:     float64(y),
			DX:    float64(x - d.lastX),
			DY:    float64(y - d.lastY),
			Moved: true,
		}
		d.lastX, d.lastY = x, y
		return ev

	case !down && d.pressed:
		d.pressed = false
		return DragEvent{Phase: DragRelease, X: float64(x), Y: float64(y), Moved: d.moved}
	}
	return DragEvent{Phase: DragNone, X: float64(x), Y: float64(y)}
}

// Dragging reports whether a press has turned into a drag
func (d *DragTracker) Dragging() bool {
	return d.pressed && d.moved
}
