package trilist

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with trilist-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithGraph adds a graph field to the logger.
func (l *Logger) WithGraph(base string) *Logger {
	return &Logger{
		Logger: l.Logger.With("graph", base),
	}
}

// WithServer adds a server field to the logger.
func (l *Logger) WithServer(addr string) *Logger {
	return &Logger{
		Logger: l.Logger.With("server", addr),
	}
}

// LogChunk logs the outcome of one chunk.
func (l *Logger) LogChunk(ctx context.Context, st ChunkStat, err error) {
	if err != nil {
		l.ErrorContext(ctx, "chunk failed",
			"chunk", st.Index,
			"low", st.Low,
			"high", st.High,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "chunk completed",
			"chunk", st.Index,
			"edges", st.High-st.Low,
			"triangles", st.Triangles,
			"phases", st.Phases,
			"elapsed", st.Elapsed,
		)
	}
}

// LogPhase logs the duration of one step of a run (orientation, load
// balancing, counting, concatenation).
func (l *Logger) LogPhase(ctx context.Context, phase string, took time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, phase+" failed",
			"took", took,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, phase+" completed",
			"took", took,
		)
	}
}

// LogTransfer logs one round trip with a remote server.
func (l *Logger) LogTransfer(ctx context.Context, server string, sent, received int64, took time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "transfer failed",
			"server", server,
			"sent", sent,
			"received", received,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "transfer completed",
			"server", server,
			"sent", sent,
			"received", received,
			"took", took,
		)
	}
}
