package main

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogStyle selects the log encoder
type LogStyle string

const (
	LogStyleTerminal LogStyle = "terminal"
	LogStyleJSON     LogStyle = "json"
	LogStyleNoop     LogStyle = "noop"
)

// appLogger backs debugLog; replaced by main once flags are parsed
var appLogger = zap.NewNop()

// newLogger builds the process logger. Unknown levels fall back to info and
// unknown styles to terminal output on stderr.
func newLogger(level string, style LogStyle) *zap.Logger {
	if style == LogStyleNoop {
		return zap.NewNop()
	}

	lvl := zapcore.InfoLevel
	if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		lvl = zapcore.InfoLevel
	}

	var encoder zapcore.Encoder
	switch style {
	case LogStyleJSON:
		cfg := zap.NewProductionEncoderConfig()
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(cfg)
	default:
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
		encoder = zapcore.NewConsoleEncoder(cfg)
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), zap.NewAtomicLevelAt(lvl))
	return zap.New(core, zap.AddCaller())
}

func setAppLogger(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	appLogger = logger
}

// debugLog prints formatted debug output
func debugLog(format string, args ...interface{}) {
	appLogger.Debug(fmt.Sprintf(format, args...))
}
