// Package logger builds the structured zap logger shared by a fetchcsv run.
//
// The logger is constructed once at startup and passed to every component
// that logs. It always writes JSON records to an append-only file and, unless
// disabled, mirrors them to the console.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultFile is the log sink path used when none is configured
const DefaultFile = "logs/app.log"

// Config represents logger configuration
type Config struct {
	Level     string
	File      string
	NoConsole bool
	// Console receives the console sink; stderr when nil
	Console io.Writer
}

// Logger is a zap logger bound to an open log file
type Logger struct {
	*zap.Logger
	file *os.File
}

// New creates the log directory, opens the file sink and optionally
// attaches the console sink.
func New(cfg Config) (*Logger, error) {
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	path := cfg.File
	if path == "" {
		path = DefaultFile
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
		}
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644) //nolint:gosec // path is operator supplied
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig()), zapcore.AddSync(file), level),
	}

	if !cfg.NoConsole {
		console := cfg.Console
		if console == nil {
			console = os.Stderr
		}
		consoleConfig := encoderConfig()
		consoleConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		consoleConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(consoleConfig), zapcore.AddSync(console), level))
	}

	return &Logger{
		Logger: zap.New(zapcore.NewTee(cores...)),
		file:   file,
	}, nil
}

// Close flushes buffered entries and closes the log file
func (l *Logger) Close() error {
	// Sync errors on console descriptors are expected when output is redirected.
	_ = l.Logger.Sync()
	return l.file.Close()
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}
