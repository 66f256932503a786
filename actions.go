package main

// ActionDefinition defines an action with its default keybindings, mouse bindings, and description
type ActionDefinition struct {
	Name         string
	Keys         []string
	MouseActions []string
	Description  string
}

// actionDefinitions contains all action definitions with default keybindings, mouse bindings, and descriptions
var actionDefinitions = []ActionDefinition{
	{"exit", []string{"KeyQ"}, []string{}, "Quit application"},
	{"cancel", []string{"Escape"}, []string{}, "Cancel crop selection or mode"},
	{"help", []string{"Shift+Slash"}, []string{"Alt+RightClick"}, "Show/hide help"},
	{"info", []string{"KeyI"}, []string{}, "Show/hide info display"},
	{"fullscreen", []string{"Alt+Enter"}, []string{"DoubleLeftClick"}, "Toggle fullscreen"},

	// Navigation
	{"next", []string{"Space", "KeyN", "PageDown"}, []string{"Forward"}, "Next image"},
	{"previous", []string{"Backspace", "KeyP", "PageUp"}, []string{"Back"}, "Previous image (opens on last frame)"},
	{"jump_first", []string{"Home"}, []string{}, "Jump to first image"},
	{"jump_last", []string{"End"}, []string{}, "Jump to last image"},
	{"reload", []string{"F5"}, []string{}, "Reload current image"},

	// Transformations
	{"rotate_left", []string{"KeyL"}, []string{}, "Rotate left 90 degrees"},
	{"rotate_right", []string{"KeyR"}, []string{}, "Rotate right 90 degrees"},
	{"flip_horizontal", []string{"KeyH"}, []string{}, "Flip horizontally"},

	// Zoom and pan
	{"zoom_in", []string{"Equal", "Shift+Equal"}, []string{"WheelUp"}, "Zoom in (wheel keeps the pointer fixed)"},
	{"zoom_out", []string{"Minus"}, []string{"WheelDown"}, "Zoom out (wheel keeps the pointer fixed)"},
	{"zoom_reset", []string{"Key0"}, []string{"Shift+MiddleClick"}, "Actual size (100%)"},
	{"zoom_fit", []string{"KeyF"}, []string{"MiddleClick"}, "Fit to window"},
	{"pan_up", []string{"ArrowUp"}, []string{}, "Pan up"},
	{"pan_down", []string{"ArrowDown"}, []string{}, "Pan down"},
	{"pan_left", []string{"ArrowLeft"}, []string{}, "Pan left"},
	{"pan_right", []string{"ArrowRight"}, []string{}, "Pan right"},

	// Crop and eyedropper
	{"crop_mode", []string{"KeyC"}, []string{}, "Toggle crop selection (drag to select)"},
	{"apply_crop", []string{"Enter", "NumpadEnter"}, []string{}, "Apply pending crop"},
	{"eyedropper", []string{"KeyE"}, []string{}, "Toggle eyedropper (click copies #RRGGBB)"},

	// File operations
	{"save", []string{"Ctrl+KeyS"}, []string{}, "Save with rotation, flip and crop applied"},
	{"export", []string{"Ctrl+Shift+KeyS"}, []string{}, "Export as PNG"},
	{"delete", []string{"Delete"}, []string{}, "Move current file to trash"},
	{"paste", []string{"Ctrl+KeyV"}, []string{}, "Open file path from clipboard"},
	{"copy_path", []string{"Ctrl+KeyC"}, []string{}, "Copy current file path"},

	// Sorting
	{"cycle_sort", []string{"Shift+KeyS"}, []string{"Alt+MiddleClick"}, "Cycle sort (Name/Modified/Size)"},
	{"toggle_sort_direction", []string{"Alt+KeyS"}, []string{}, "Toggle ascending/descending"},
}

// mouseOnlyVariants maps actions whose mouse trigger behaves differently from the
// keyboard one
var mouseOnlyVariants = map[string]string{
	"zoom_in":  "wheel_zoom_in",
	"zoom_out": "wheel_zoom_out",
}

// ActionExecutor provides centralized action execution logic for both
// KeybindingManager and MousebindingManager
type ActionExecutor struct{}

// NewActionExecutor creates a new ActionExecutor instance
func NewActionExecutor() *ActionExecutor {
	return &ActionExecutor{}
}

// ExecuteAction executes the given action using the InputActions interface
func (ae *ActionExecutor) ExecuteAction(action string, inputActions InputActions, inputState InputState) bool {
	switch action {
	case "exit":
		inputActions.Exit()
	case "cancel":
		inputActions.Cancel()
	case "help":
		inputActions.ToggleHelp()
	case "info":
		inputActions.ToggleInfo()
	case "fullscreen":
		inputActions.ToggleFullscreen()
	case "paste":
		inputActions.PasteFromClipboard()
	default:
		if !inputState.HasImage() {
			return false
		}
		return ae.executeImageAction(action, inputActions, inputState)
	}

	return true
}

// executeImageAction runs actions that need a displayed image
func (ae *ActionExecutor) executeImageAction(action string, inputActions InputActions, inputState InputState) bool {
	switch action {
	case "next":
		inputActions.NavigateNext()
	case "previous":
		inputActions.NavigatePrevious()
	case "jump_first":
		inputActions.JumpToFirst()
	case "jump_last":
		inputActions.JumpToLast()
	case "reload":
		inputActions.Reload()
	case "rotate_left":
		inputActions.RotateLeft()
	case "rotate_right":
		inputActions.RotateRight()
	case "flip_horizontal":
		inputActions.FlipHorizontal()

	case "zoom_in":
		inputActions.ZoomIn()
	case "zoom_out":
		inputActions.ZoomOut()
	case "wheel_zoom_in":
		inputActions.ZoomAtCursor(true)
	case "wheel_zoom_out":
		inputActions.ZoomAtCursor(false)
	case "zoom_reset":
		inputActions.ZoomReset()
	case "zoom_fit":
		inputActions.ZoomFit()
	case "pan_up":
		inputActions.PanUp()
	case "pan_down":
		inputActions.PanDown()
	case "pan_left":
		inputActions.PanLeft()
	case "pan_right":
		inputActions.PanRight()

	case "crop_mode":
		inputActions.ToggleCropMode()
	case "apply_crop":
		inputActions.ApplyCrop()
	case "eyedropper":
		inputActions.ToggleEyedropper()

	case "save":
		inputActions.SaveImage()
	case "export":
		inputActions.ExportImage()
	case "delete":
		inputActions.DeleteImage()
	case "copy_path":
		inputActions.CopyPath()

	case "cycle_sort":
		inputActions.CycleSortMethod()
	case "toggle_sort_direction":
		inputActions.ToggleSortDirection()

	default:
		return false
	}

	return true
}

// globalActionExecutor is the global instance of ActionExecutor used throughout the application
var globalActionExecutor = NewActionExecutor()

// GetActionDescriptions returns a map of action names to their descriptions
func GetActionDescriptions() map[string]string {
	descriptions := make(map[string]string)
	for _, action := range actionDefinitions {
		descriptions[action.Name] = action.Description
	}
	return descriptions
}

// GetActionNames returns action names in definition order
func GetActionNames() []string {
	names := make([]string, 0, len(actionDefinitions))
	for _, action := range actionDefinitions {
		names = append(names, action.Name)
	}
	return names
}

// GetDefaultKeybindings returns a map of action names to their default keybindings
func GetDefaultKeybindings() map[string][]string {
	keybindings := make(map[string][]string)
	for _, action := range actionDefinitions {
		keybindings[action.Name] = append([]string(nil), action.Keys...)
	}
	return keybindings
}

// GetDefaultMousebindings returns a map of action names to their default mouse bindings
func GetDefaultMousebindings() map[string][]string {
	mousebindings := make(map[string][]string)
	for _, action := range actionDefinitions {
		mousebindings[action.Name] = append([]string(nil), action.MouseActions...)
	}
	return mousebindings
}
