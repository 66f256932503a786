package main

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// InputHandler handles all keyboard and mouse input processing
type InputHandler struct {
	inputActions        InputActions
	inputState          InputState
	keybindingManager   *KeybindingManager
	mousebindingManager *MousebindingManager
	drag                *DragTracker
}

// NewInputHandler creates a new InputHandler
func NewInputHandler(inputActions InputActions, inputState InputState, keybindingManager *KeybindingManager, mousebindingManager *MousebindingManager) *InputHandler {
	return &InputHandler{
		inputActions:        inputActions,
		inputState:          inputState,
		keybindingManager:   keybindingManager,
		mousebindingManager: mousebindingManager,
		drag:                NewDragTracker(mousebindingManager.GetSettings().DragThreshold),
	}
}

// HandleInput processes all input for the current frame
// Returns true if any input was processed, false otherwise
func (h *InputHandler) HandleInput() bool {
	inputProcessed := false

	for _, action := range GetActionNames() {
		if h.keybindingManager.ExecuteAction(action, h.inputActions, h.inputState) {
			inputProcessed = true
		}
	}

	inputProcessed = h.handleLeftButton() || inputProcessed

	// Wheel and buttons are ignored while a left drag is in progress
	if !h.drag.Dragging() {
		for _, action := range GetActionNames() {
			if h.mousebindingManager.ExecuteAction(action, h.inputActions, h.inputState) {
				inputProcessed = true
			}
		}
	}

	return inputProcessed
}

// handleLeftButton routes left-button gestures: crop selection in crop mode, color
// picking on click in eyedropper mode, otherwise drag to pan
func (h *InputHandler) handleLeftButton() bool {
	settings := h.mousebindingManager.GetSettings()
	if !settings.EnableMouse || !h.inputState.HasImage() {
		return false
	}

	x, y := ebiten.CursorPosition()
	ev := h.drag.Update(ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft), x, y)
	switch {
	case h.inputState.IsCropMode():
		switch ev.Phase {
		case DragPress:
			h.inputActions.BeginCropDrag(ev.X, ev.Y)
			return true
		case DragMove:
			h.inputActions.UpdateCropDrag(ev.X, ev.Y)
			return true
		case DragRelease:
			h.inputActions.EndCropDrag(ev.X, ev.Y)
			return true
		}

	case h.inputState.IsEyedropperMode():
		if ev.Phase == DragRelease && !ev.Moved {
			h.inputActions.PickColor(ev.X, ev.Y)
			return true
		}

	case settings.EnableDragPan:
		if ev.Phase == DragMove {
			h.inputActions.PanByDelta(ev.DX*settings.DragSensitivity, ev.DY*settings.DragSensitivity)
			return true
		}
	}
	return false
}
