package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Window size constants
const (
	defaultWidth  = 800
	defaultHeight = 600
	minWidth      = 400
	minHeight     = 300
)

const (
	defaultPreloadCacheSize = 16
	defaultPreloadCount     = 2
	defaultMaxDecodes       = 2
	defaultHelpFontSize     = 24.0
)

// getDefaultKeybindings returns the default keybinding configuration
func getDefaultKeybindings() map[string][]string {
	return GetDefaultKeybindings()
}

// validateKeybindings validates the keybindings configuration
func validateKeybindings(keybindings map[string][]string) error {
	// Check for valid key formats and detect conflicts
	keyToAction := make(map[string]string)
	validKeys := getValidKeyNames()

	for action, keys := range keybindings {
		for _, keyStr := range keys {
			if err := validateKeyString(keyStr, validKeys); err != nil {
				return fmt.Errorf("invalid key '%s' for action '%s': %v", keyStr, action, err)
			}

			if existingAction, exists := keyToAction[keyStr]; exists {
				return fmt.Errorf("key conflict: '%s' is bound to both '%s' and '%s'", keyStr, existingAction, action)
			}
			keyToAction[keyStr] = action
		}
	}

	return nil
}

// validateKeyString validates a single key string format
func validateKeyString(keyStr string, validKeys map[string]bool) error {
	parts := strings.Split(keyStr, "+")
	if len(parts) == 0 {
		return fmt.Errorf("empty key string")
	}

	// Last part should be the actual key
	keyName := parts[len(parts)-1]
	if !validKeys[keyName] {
		return fmt.Errorf("unknown key: %s", keyName)
	}

	for i := 0; i < len(parts)-1; i++ {
		modifier := strings.ToLower(parts[i])
		if modifier != "shift" && modifier != "ctrl" && modifier != "alt" {
			return fmt.Errorf("unknown modifier: %s", parts[i])
		}
	}

	return nil
}

// getValidKeyNames returns a set of valid key names
func getValidKeyNames() map[string]bool {
	valid := make(map[string]bool)
	for name := range getKeyMapping() {
		valid[name] = true
	}
	return valid
}

// ConfigLoadResult contains the result of loading configuration
type ConfigLoadResult struct {
	Config   Config
	HasError bool
	Warnings []string
	Status   string // "OK", "Default", "Warning", "Error"
	Path     string
}

type Config struct {
	WindowWidth    int                 `json:"window_width" mapstructure:"window_width"`
	WindowHeight   int                 `json:"window_height" mapstructure:"window_height"`
	Fullscreen     bool                `json:"fullscreen" mapstructure:"fullscreen"`
	HelpFontSize   float64             `json:"help_font_size" mapstructure:"help_font_size"`
	MinZoom        float64             `json:"min_zoom" mapstructure:"min_zoom"`
	MaxZoom        float64             `json:"max_zoom" mapstructure:"max_zoom"`
	DefaultZoom    string              `json:"default_zoom" mapstructure:"default_zoom"` // "fit" or "actual"
	SortMethod     int                 `json:"sort_method" mapstructure:"sort_method"`
	SortDescending bool                `json:"sort_descending" mapstructure:"sort_descending"`
	AutoRefresh    bool                `json:"auto_refresh" mapstructure:"auto_refresh"`
	PreloadEnabled bool                `json:"preload_enabled" mapstructure:"preload_enabled"`
	PreloadCount   int                 `json:"preload_count" mapstructure:"preload_count"`
	CacheSize      int                 `json:"cache_size" mapstructure:"cache_size"`
	MaxDecodes     int                 `json:"max_decodes" mapstructure:"max_decodes"`
	IgnorePatterns []string            `json:"ignore_patterns" mapstructure:"ignore_patterns"`
	SingleInstance bool                `json:"single_instance" mapstructure:"single_instance"`
	Keybindings    map[string][]string `json:"keybindings" mapstructure:"keybindings"`
	Mousebindings  map[string][]string `json:"mousebindings" mapstructure:"mousebindings"`
	MouseSettings  MouseSettings       `json:"mouse_settings" mapstructure:"mouse_settings"`
}

// defaultConfig returns the configuration used when no file exists
func defaultConfig() Config {
	return Config{
		WindowWidth:    defaultWidth,
		WindowHeight:   defaultHeight,
		HelpFontSize:   defaultHelpFontSize,
		MinZoom:        defaultMinZoom,
		MaxZoom:        defaultMaxZoom,
		DefaultZoom:    "fit",
		SortMethod:     SortByName,
		AutoRefresh:    true,
		PreloadEnabled: true,
		PreloadCount:   defaultPreloadCount,
		CacheSize:      defaultPreloadCacheSize,
		MaxDecodes:     defaultMaxDecodes,
		IgnorePatterns: []string{".*", "*.tmp"},
		SingleInstance: true,
		Keybindings:    getDefaultKeybindings(),
		Mousebindings:  GetDefaultMousebindings(),
		MouseSettings:  GetDefaultMouseSettings(),
	}
}

// ZoomLimits returns the validated zoom bounds
func (c Config) ZoomLimits() ZoomLimits {
	return ZoomLimits{Min: c.MinZoom, Max: c.MaxZoom}
}

// ZoomMode returns the view applied to newly opened images
func (c Config) ZoomMode() ZoomMode {
	if c.DefaultZoom == "actual" {
		return ZoomModeActualSize
	}
	return ZoomModeFitWindow
}

// SortOrder returns the initial listing order
func (c Config) SortOrder() SortOrder {
	return SortOrder{Criteria: c.SortMethod, Descending: c.SortDescending}
}

func getConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "miv.json"
	}
	return filepath.Join(homeDir, ".miv.json")
}

// setConfigDefaults registers every key so MIV_* environment overrides apply
// even when the file omits them
func setConfigDefaults(v *viper.Viper, config Config) {
	v.SetDefault("window_width", config.WindowWidth)
	v.SetDefault("window_height", config.WindowHeight)
	v.SetDefault("fullscreen", config.Fullscreen)
	v.SetDefault("help_font_size", config.HelpFontSize)
	v.SetDefault("min_zoom", config.MinZoom)
	v.SetDefault("max_zoom", config.MaxZoom)
	v.SetDefault("default_zoom", config.DefaultZoom)
	v.SetDefault("sort_method", config.SortMethod)
	v.SetDefault("sort_descending", config.SortDescending)
	v.SetDefault("auto_refresh", config.AutoRefresh)
	v.SetDefault("preload_enabled", config.PreloadEnabled)
	v.SetDefault("preload_count", config.PreloadCount)
	v.SetDefault("cache_size", config.CacheSize)
	v.SetDefault("max_decodes", config.MaxDecodes)
	v.SetDefault("ignore_patterns", config.IgnorePatterns)
	v.SetDefault("single_instance", config.SingleInstance)
	v.SetDefault("keybindings", config.Keybindings)
	v.SetDefault("mousebindings", config.Mousebindings)
	v.SetDefault("mouse_settings.wheel_sensitivity", config.MouseSettings.WheelSensitivity)
	v.SetDefault("mouse_settings.double_click_time", config.MouseSettings.DoubleClickTime)
	v.SetDefault("mouse_settings.drag_threshold", config.MouseSettings.DragThreshold)
	v.SetDefault("mouse_settings.enable_mouse", config.MouseSettings.EnableMouse)
	v.SetDefault("mouse_settings.wheel_inverted", config.MouseSettings.WheelInverted)
	v.SetDefault("mouse_settings.enable_drag_pan", config.MouseSettings.EnableDragPan)
	v.SetDefault("mouse_settings.drag_sensitivity", config.MouseSettings.DragSensitivity)
}

// loadConfigFromPath reads configPath as JSON, applies MIV_* environment overrides
// and clamps out-of-range values. A missing file is not an error.
func loadConfigFromPath(configPath string) ConfigLoadResult {
	defaults := defaultConfig()
	result := ConfigLoadResult{
		Config:   defaults,
		Warnings: []string{},
		Status:   "OK",
		Path:     configPath,
	}

	v := viper.New()
	setConfigDefaults(v, defaults)
	v.SetConfigFile(configPath)
	v.SetConfigType("json")
	v.SetEnvPrefix("MIV")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			appLogger.Warn("invalid config file, using defaults", zap.String("path", configPath), zap.Error(err))
			result.HasError = true
			result.Status = "Error"
			result.Warnings = append(result.Warnings, fmt.Sprintf("Invalid config file: %v", err))
			return result
		}
		result.Status = "Default"
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		appLogger.Warn("config does not match schema, using defaults", zap.String("path", configPath), zap.Error(err))
		result.HasError = true
		result.Status = "Error"
		result.Warnings = append(result.Warnings, fmt.Sprintf("Invalid config values: %v", err))
		return result
	}

	warn := func(format string, args ...interface{}) {
		if result.Status != "Error" {
			result.Status = "Warning"
		}
		result.Warnings = append(result.Warnings, fmt.Sprintf(format, args...))
	}

	if config.WindowWidth < minWidth {
		config.WindowWidth = defaultWidth
	}
	if config.WindowHeight < minHeight {
		config.WindowHeight = defaultHeight
	}

	// Help font size (minimum 12px for readability)
	if config.HelpFontSize <= 12.0 {
		config.HelpFontSize = defaultHelpFontSize
	}

	if config.MinZoom <= 0 || config.MinZoom >= 1 {
		config.MinZoom = defaultMinZoom
	}
	if config.MaxZoom <= 1 {
		config.MaxZoom = defaultMaxZoom
	}

	switch config.DefaultZoom {
	case "fit", "actual":
	default:
		warn("Unknown default_zoom %q, using fit", config.DefaultZoom)
		config.DefaultZoom = "fit"
	}

	if config.SortMethod < SortByName || config.SortMethod > SortBySize {
		config.SortMethod = SortByName
	}

	// Cache size (minimum 1, maximum 64)
	if config.CacheSize < 1 {
		config.CacheSize = defaultPreloadCacheSize
	} else if config.CacheSize > 64 {
		config.CacheSize = 64
	}

	// Preload count (minimum 1, maximum 16)
	if config.PreloadCount < 1 {
		config.PreloadCount = defaultPreloadCount
	} else if config.PreloadCount > 16 {
		config.PreloadCount = 16
	}

	if config.MaxDecodes < 1 {
		config.MaxDecodes = defaultMaxDecodes
	} else if config.MaxDecodes > 8 {
		config.MaxDecodes = 8
	}

	patterns := config.IgnorePatterns[:0:0]
	for _, p := range config.IgnorePatterns {
		if _, err := glob.Compile(p); err != nil {
			warn("Ignore pattern %q dropped: %v", p, err)
			continue
		}
		patterns = append(patterns, p)
	}
	config.IgnorePatterns = patterns

	if config.MouseSettings.WheelSensitivity <= 0 {
		config.MouseSettings.WheelSensitivity = 1.0
	}
	if config.MouseSettings.DoubleClickTime <= 0 {
		config.MouseSettings.DoubleClickTime = 300
	}
	if config.MouseSettings.DragThreshold < 0 {
		config.MouseSettings.DragThreshold = 5
	}
	if config.MouseSettings.DragSensitivity <= 0 {
		config.MouseSettings.DragSensitivity = 1.0
	}

	// Fill in missing bindings with defaults
	if config.Keybindings == nil {
		config.Keybindings = getDefaultKeybindings()
	} else {
		for action, defaultKeys := range getDefaultKeybindings() {
			if _, exists := config.Keybindings[action]; !exists {
				config.Keybindings[action] = defaultKeys
			}
		}

		if err := validateKeybindings(config.Keybindings); err != nil {
			appLogger.Warn("invalid keybindings, using defaults", zap.Error(err))
			config.Keybindings = getDefaultKeybindings()
			warn("Keybinding errors: %v", err)
		}
	}
	if config.Mousebindings == nil {
		config.Mousebindings = GetDefaultMousebindings()
	} else {
		for action, defaultMouse := range GetDefaultMousebindings() {
			if _, exists := config.Mousebindings[action]; !exists {
				config.Mousebindings[action] = defaultMouse
			}
		}
	}

	result.Config = config
	return result
}

// getSortMethodName returns the human-readable name of a sort method
func getSortMethodName(sortMethod int) string {
	return GetSortStrategy(sortMethod).Name()
}

func saveConfigToPath(config Config, configPath string) error {
	if config.WindowWidth < minWidth || config.WindowHeight < minHeight {
		return fmt.Errorf("not saving config with invalid window size %dx%d", config.WindowWidth, config.WindowHeight)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to save config to %s: %w", configPath, err)
	}
	return nil
}
