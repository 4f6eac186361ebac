package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestNewHandlerFormats(t *testing.T) {
	var buf bytes.Buffer
	slog.New(newHandler(&buf, "info", "auto")).Info("hello", "k", 1)
	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("auto format on a non-terminal should be JSON, got %q", buf.String())
	}
	if rec["msg"] != "hello" {
		t.Errorf("record = %v", rec)
	}

	buf.Reset()
	slog.New(newHandler(&buf, "warn", "text")).Info("dropped")
	if buf.Len() != 0 {
		t.Errorf("info logged at warn level: %q", buf.String())
	}
}

func TestRunID(t *testing.T) {
	ctx := context.Background()
	if RunID(ctx) != "" {
		t.Error("empty context has a run ID")
	}
	ctx = WithRunID(ctx, "run-42")
	if got := RunID(ctx); got != "run-42" {
		t.Errorf("RunID = %q", got)
	}
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
	} {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
