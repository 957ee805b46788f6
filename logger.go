package treemirror

import (
	"log/slog"
	"os"

	"github.com/hupe1980/treemirror/core"
)

// Logger wraps slog.Logger with treemirror-specific context.
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
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithNodeID adds a node ID field to the logger.
func (l *Logger) WithNodeID(id core.NodeID) *Logger {
	return &Logger{
		Logger: l.Logger.With("node_id", uint32(id)),
	}
}

// WithCallID adds a call correlation field to the logger.
func (l *Logger) WithCallID(callID int64) *Logger {
	return &Logger{
		Logger: l.Logger.With("call_id", callID),
	}
}

// LogCommand logs a frontend command.
func (l *Logger) LogCommand(method string, callID int64, err error) {
	if err != nil {
		l.Error("command failed",
			"method", method,
			"call_id", callID,
			"error", err,
		)
	} else {
		l.Debug("command completed",
			"method", method,
			"call_id", callID,
		)
	}
}

// LogMutation logs a forwarded tree mutation.
func (l *Logger) LogMutation(kind string, id core.NodeID) {
	l.Debug("mutation forwarded",
		"kind", kind,
		"node_id", uint32(id),
	)
}

// LogPush logs a structure push to the frontend.
func (l *Logger) LogPush(method string, nodes int) {
	l.Debug("structure pushed",
		"method", method,
		"nodes", nodes,
	)
}

// LogSearch logs the start of a search session.
func (l *Logger) LogSearch(query string, jobs int, synchronous bool) {
	l.Debug("search started",
		"query", query,
		"jobs", jobs,
		"synchronous", synchronous,
	)
}

// LogSearchBatch logs one reported result batch.
func (l *Logger) LogSearchBatch(results int) {
	l.Debug("search batch reported",
		"results", results,
	)
}
