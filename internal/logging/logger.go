// Package logging sets up the process-wide slog logger and log file maintenance
package logging

import (
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Logger owns the log file and the dynamic level
type Logger struct {
	file     *os.File
	path     string
	levelVar *slog.LevelVar
}

// NewSlogLogger creates a slog.Logger writing to stdout and, when logPath is set, to that file.
// Initial level is INFO. Use SetLevel() after the config is loaded.
// Standard log output (used by telegram-bot-api) goes to the same destinations.
func NewSlogLogger(logPath string) (*slog.Logger, *Logger, error) {
	var out io.Writer = os.Stdout
	var file *os.File

	if logPath != "" {
		if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
			return nil, nil, err
		}
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, err
		}
		file = f
		out = io.MultiWriter(os.Stdout, f)
	}

	log.SetOutput(out)
	log.SetFlags(log.Ldate | log.Ltime)

	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelInfo)

	handler := slog.NewTextHandler(out, &slog.HandlerOptions{
		Level:     levelVar,
		AddSource: true,
	})

	return slog.New(handler), &Logger{file: file, path: logPath, levelVar: levelVar}, nil
}

// Path returns the log file path, empty when logging to stdout only
func (l *Logger) Path() string {
	return l.path
}

// Level returns the current level
func (l *Logger) Level() slog.Level {
	return l.levelVar.Level()
}

// SetLevel changes the log level dynamically.
// Valid levels: debug, info, warn, error (case-insensitive).
// Invalid or empty values default to info with a warning.
func (l *Logger) SetLevel(level string) {
	parsedLevel, valid := parseLevel(level)
	if !valid && level != "" {
		slog.Warn("Unknown log_level, using info", "value", level)
	}
	l.levelVar.Set(parsedLevel)
}

func parseLevel(level string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// Close closes the log file
func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}
