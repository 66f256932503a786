package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "miv [file|directory|archive]",
	Short: "View images with background decoding and folder navigation",
	Long: `miv opens an image and lets you page through the other images in its folder
or archive. Decoding and folder scans run in the background, so navigation stays
responsive on large or animated files.

Examples:
  # Open a file and browse its folder
  miv ~/Pictures/cat.png

  # Open the first image of a folder or archive
  miv ~/Pictures
  miv comic.cbz`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runViewer,
}

func init() {
	rootCmd.PersistentFlags().
		String("config", "", "config file path (default: ~/.miv.json)")
	rootCmd.PersistentFlags().
		String("log-level", "info", "set the logging level (e.g. debug, info, warn, error)")
	rootCmd.PersistentFlags().
		String("log-style", "terminal", "set the logging output style (terminal, json, noop)")
	rootCmd.Flags().
		Bool("new-instance", false, "always start a new window instead of handing the file to a running one")

	mustBindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	mustBindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	mustBindPFlag("log.style", rootCmd.PersistentFlags().Lookup("log-style"))
	mustBindPFlag("new_instance", rootCmd.Flags().Lookup("new-instance"))
}

func mustBindPFlag(key string, flag *pflag.Flag) {
	if err := viper.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("binding flag %s: %v", key, err))
	}
}

func runViewer(cmd *cobra.Command, args []string) error {
	logger := newLogger(viper.GetString("log.level"), LogStyle(viper.GetString("log.style")))
	defer func() { _ = logger.Sync() }()
	setAppLogger(logger)

	configPath := viper.GetString("config")
	if configPath == "" {
		configPath = getConfigPath()
	}
	configResult := loadConfigFromPath(configPath)
	for _, w := range configResult.Warnings {
		logger.Warn("config", zap.String("path", configPath), zap.String("warning", w))
	}
	cfg := configResult.Config

	var target string
	if len(args) > 0 {
		target = args[0]
	}

	var instance *InstanceServer
	if cfg.SingleInstance && !viper.GetBool("new_instance") {
		socketPath := instanceSocketPath()
		if target != "" {
			if err := SendToInstance(socketPath, target); err == nil {
				logger.Info("opened in running instance", zap.String("path", target))
				return nil
			}
		}
		srv, err := ListenInstance(socketPath, logger.Named("instance"))
		switch {
		case errors.Is(err, errInstanceRunning):
			logger.Debug("another instance owns the socket; running standalone")
		case err != nil:
			logger.Warn("single instance relay unavailable", zap.Error(err))
		default:
			instance = srv
		}
	}

	if err := InitGraphics(); err != nil {
		return fmt.Errorf("loading font: %w", err)
	}

	game, err := newGame(cfg, configResult, configPath, instance, logger)
	if err != nil {
		if instance != nil {
			_ = instance.Close()
		}
		return err
	}
	defer game.Close()

	if target != "" {
		if err := game.viewer.Open(target); err != nil {
			logger.Warn("open failed", zap.String("path", target), zap.Error(err))
		}
	}

	ebiten.SetWindowTitle(windowTitle)
	ebiten.SetWindowSize(cfg.WindowWidth, cfg.WindowHeight)
	ebiten.SetWindowSizeLimits(minWidth, minHeight, -1, -1)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetScreenClearedEveryFrame(false)
	if cfg.Fullscreen {
		game.ToggleFullscreen()
	}

	if err := ebiten.RunGame(game); err != nil && !errors.Is(err, ebiten.Termination) {
		return err
	}
	return nil
}

// newGame builds the pipeline and UI around cfg
func newGame(cfg Config, status ConfigLoadResult, configPath string, instance *InstanceServer, logger *zap.Logger) (*Game, error) {
	codec := NewCodec()
	scanner, err := NewDirectoryScanner(codec, cfg.IgnorePatterns, logger.Named("scanner"))
	if err != nil {
		return nil, fmt.Errorf("building scanner: %w", err)
	}
	loader := NewLoader(codec, scanner, int64(cfg.MaxDecodes), cfg.CacheSize, cfg.PreloadCount, logger.Named("loader"))
	loader.Preloader().SetEnabled(cfg.PreloadEnabled)

	g := &Game{
		config:       cfg,
		configPath:   configPath,
		configStatus: status,
		instance:     instance,
		logger:       logger,
		needsRedraw:  true,
	}

	var watcher pathWatcher
	if cfg.AutoRefresh {
		fw, err := NewFileWatcher(logger.Named("watcher"))
		if err != nil {
			logger.Warn("auto refresh disabled", zap.Error(err))
		} else {
			g.watcher = fw
			watcher = fw
		}
	}

	g.viewer = NewViewer(ViewerConfig{
		Loader:    loader,
		Saver:     NewSaver(codec, logger.Named("save")),
		Trash:     NewFreedesktopTrash(),
		Clipboard: SystemClipboard{},
		Notifier:  g,
		Watcher:   watcher,
		ZoomMode:  cfg.ZoomMode(),
		Limits:    cfg.ZoomLimits(),
		Order:     cfg.SortOrder(),
		Logger:    logger.Named("viewer"),
	})

	km := NewKeybindingManager(cfg.Keybindings)
	mm := NewMousebindingManager(cfg.Mousebindings, cfg.MouseSettings)
	g.inputHandler = NewInputHandler(g, g, km, mm)
	g.renderer = NewRenderer(g)
	return g, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "miv:", err)
		os.Exit(1)
	}
}
