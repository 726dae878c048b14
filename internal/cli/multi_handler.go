package cli

import (
	"context"
	"io"
	"log/slog"
)

// MultiLevelHandler fans records out to multiple handlers with independent
// level filtering. This is what lets a conversion run keep stderr quiet at
// WARN while the rotating log file records every backend decision at DEBUG.
type MultiLevelHandler struct {
	handlers []slog.Handler
}

// NewMultiLevelHandler creates a handler that distributes records to all
// of the given handlers
func NewMultiLevelHandler(handlers ...slog.Handler) *MultiLevelHandler {
	return &MultiLevelHandler{
		handlers: handlers,
	}
}

// NewLogSplitter builds the standard pcmflow logging arrangement: a
// console text handler at consoleLevel, plus an optional file handler
// pinned at DEBUG so the log file always carries the full conversion
// trace. file may be nil.
func NewLogSplitter(console io.Writer, consoleLevel slog.Level, file io.Writer) *MultiLevelHandler {
	handlers := []slog.Handler{
		slog.NewTextHandler(console, &slog.HandlerOptions{Level: consoleLevel}),
	}
	if file != nil {
		handlers = append(handlers,
			slog.NewTextHandler(file, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return NewMultiLevelHandler(handlers...)
}

// Enabled reports whether any wrapped handler would handle the level
func (h *MultiLevelHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle sends the record to every wrapped handler that accepts its level.
// A failing handler does not stop delivery to the others; the first
// error is reported after all handlers ran.
func (h *MultiLevelHandler) Handle(ctx context.Context, record slog.Record) error {
	var firstErr error
	for _, handler := range h.handlers {
		if !handler.Enabled(ctx, record.Level) {
			continue
		}
		if err := handler.Handle(ctx, record); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// WithAttrs returns a new handler with the given attributes added
func (h *MultiLevelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithAttrs(attrs)
	}
	return NewMultiLevelHandler(handlers...)
}

// WithGroup returns a new handler with the given group added
func (h *MultiLevelHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithGroup(name)
	}
	return NewMultiLevelHandler(handlers...)
}
