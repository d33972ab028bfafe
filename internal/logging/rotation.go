// internal/logging/rotation.go
package logging

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// truncateOver empties the file at path once it grows past maxSize bytes.
// It reports whether the file was truncated.
func truncateOver(path string, maxSize int64) bool {
	info, err := os.Stat(path)
	if err != nil || info.Size() <= maxSize {
		return false
	}
	if err := os.Truncate(path, 0); err != nil {
		slog.Warn("Failed to truncate log file", "path", path, "error", err)
		return false
	}
	slog.Info("Log file truncated", "path", path, "size", info.Size(), "max_size", maxSize)
	return true
}

// StartRotation keeps the log file under maxSize bytes, checking it every interval
// until ctx is done. It reports false and does nothing for stdout-only loggers
// or when maxSize is not positive.
func (l *Logger) StartRotation(ctx context.Context, maxSize int64, interval time.Duration) bool {
	if l.path == "" || maxSize <= 0 || interval <= 0 {
		return false
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				truncateOver(l.path, maxSize)
			}
		}
	}()
	return true
}
