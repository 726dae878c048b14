package cli

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestMultiLevelHandlerIndependentLevels(t *testing.T) {
	var warnBuf, debugBuf bytes.Buffer

	warnHandler := slog.NewTextHandler(&warnBuf, &slog.HandlerOptions{Level: slog.LevelWarn})
	debugHandler := slog.NewTextHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug})

	logger := slog.New(NewMultiLevelHandler(warnHandler, debugHandler))

	logger.Debug("debug message")
	logger.Warn("warn message")

	if strings.Contains(warnBuf.String(), "debug message") {
		t.Error("warn handler should not receive debug records")
	}
	if !strings.Contains(warnBuf.String(), "warn message") {
		t.Error("warn handler should receive warn records")
	}
	if !strings.Contains(debugBuf.String(), "debug message") {
		t.Error("debug handler should receive debug records")
	}
	if !strings.Contains(debugBuf.String(), "warn message") {
		t.Error("debug handler should receive warn records")
	}
}

func TestMultiLevelHandlerEnabled(t *testing.T) {
	var buf bytes.Buffer

	handler := NewMultiLevelHandler(
		slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}),
		slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}),
	)

	ctx := context.Background()
	if handler.Enabled(ctx, slog.LevelDebug) {
		t.Error("debug should be disabled when no handler accepts it")
	}
	if !handler.Enabled(ctx, slog.LevelInfo) {
		t.Error("info should be enabled when any handler accepts it")
	}
	if !handler.Enabled(ctx, slog.LevelError) {
		t.Error("error should always be enabled")
	}
}

func TestLogSplitter(t *testing.T) {
	t.Run("console and file levels diverge", func(t *testing.T) {
		var console, file bytes.Buffer

		logger := slog.New(NewLogSplitter(&console, slog.LevelWarn, &file))
		logger.Debug("backend chosen")
		logger.Warn("short input frame")

		if strings.Contains(console.String(), "backend chosen") {
			t.Error("console should stay quiet below its level")
		}
		if !strings.Contains(console.String(), "short input frame") {
			t.Error("console should carry warnings")
		}
		if !strings.Contains(file.String(), "backend chosen") {
			t.Error("file should carry the full debug trace")
		}
	})

	t.Run("nil file writer means console only", func(t *testing.T) {
		var console bytes.Buffer

		logger := slog.New(NewLogSplitter(&console, slog.LevelInfo, nil))
		logger.Info("converting")

		if !strings.Contains(console.String(), "converting") {
			t.Error("console handler missing")
		}
	})
}

func TestMultiLevelHandlerWithAttrs(t *testing.T) {
	var buf bytes.Buffer

	handler := NewMultiLevelHandler(
		slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}),
	)

	logger := slog.New(handler.WithAttrs([]slog.Attr{slog.String("component", "converter")}))
	logger.Info("hello")

	if !strings.Contains(buf.String(), "component=converter") {
		t.Errorf("expected attribute in output, got: %s", buf.String())
	}
}
