package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the logger sinks.
type Options struct {
	// Level is a zerolog level string (trace, debug, info, warn, error, fatal, panic).
	Level string
	// Format is "json" for production, "pretty" for human-readable dev output.
	Format string
	// File, when set, receives a JSON copy of every entry and is rotated
	// once it reaches MaxSizeMB.
	File       string
	MaxSizeMB  int
	MaxBackups int
}

// Setup initializes the global zerolog logger writing to stdout only.
// Returns the configured logger instance.
func Setup(level, format string) zerolog.Logger {
	log, _ := New(Options{Level: level, Format: format})
	return log
}

// New builds a logger from opts. When a log file is configured but cannot
// be prepared, the stdout logger is still returned together with the error.
func New(opts Options) (zerolog.Logger, error) {
	var writer io.Writer

	if opts.Format == "pretty" {
		writer = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
	} else {
		writer = os.Stdout
	}

	var fileErr error
	if opts.File != "" {
		rotating, err := NewRotatingWriter(opts.File, opts.MaxSizeMB, opts.MaxBackups)
		if err != nil {
			fileErr = err
		} else {
			writer = zerolog.MultiLevelWriter(writer, rotating)
		}
	}

	lvl, err := zerolog.ParseLevel(opts.Level)
	if err != nil || opts.Level == "" {
		lvl = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(lvl)

	log := zerolog.New(writer).
		With().
		Timestamp().
		Caller().
		Logger()

	return log, fileErr
}

// NewRotatingWriter returns a size-rotated file writer for path.
func NewRotatingWriter(path string, maxSizeMB, maxBackups int) (*lumberjack.Logger, error) {
	if path == "" {
		return nil, fmt.Errorf("rotation file path must not be empty")
	}
	if maxSizeMB <= 0 {
		maxSizeMB = 10
	}
	if maxBackups <= 0 {
		maxBackups = 5
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
	}, nil
}
