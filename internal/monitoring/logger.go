package monitoring

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger provides structured logging with domain-specific helpers.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a JSON logger writing to stdout.
func NewLogger() *Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{
					Key:   "timestamp",
					Value: slog.StringValue(a.Value.Time().Format(time.RFC3339)),
				}
			}
			return a
		},
	})
	return &Logger{Logger: slog.New(handler)}
}

// RequestLogger logs HTTP request details.
func (l *Logger) RequestLogger(method, path, ip string, statusCode int, duration time.Duration) {
	l.Info("HTTP Request",
		"method", method,
		"path", path,
		"ip", ip,
		"status_code", statusCode,
		"duration_ms", duration.Milliseconds(),
	)
}

// ScanLogger logs the outcome of one scoring run.
func (l *Logger) ScanLogger(runID, kind, scorer, statusKind string, rows int, duration time.Duration) {
	l.Info("Scan Completed",
		"run_id", runID,
		"kind", kind,
		"scorer", scorer,
		"status", statusKind,
		"result_rows", rows,
		"duration_ms", duration.Milliseconds(),
	)
}

// SummarizerLogger logs an external summarization call.
func (l *Logger) SummarizerLogger(provider string, duration time.Duration, success bool) {
	level := slog.LevelInfo
	if !success {
		level = slog.LevelWarn
	}
	l.Log(context.Background(), level, "Summarizer Call",
		"provider", provider,
		"duration_ms", duration.Milliseconds(),
		"success", success,
	)
}

// StoreLogger logs run-store operations.
func (l *Logger) StoreLogger(operation, runID string, size int) {
	l.Debug("Run Store Operation",
		"operation", operation,
		"run_id", runID,
		"store_size", size,
	)
}

// SystemLogger logs system-level events.
func (l *Logger) SystemLogger(event, details string) {
	l.Info("System Event",
		"event", event,
		"details", details,
		"uptime", time.Since(startTime).String(),
	)
}

var startTime = time.Now()
