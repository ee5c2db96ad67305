package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name   string
		level  string
		format string
	}{
		{"debug text", "debug", "text"},
		{"info json", "info", "json"},
		{"warn text", "warn", "text"},
		{"error json", "error", "json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := New(tt.level, tt.format)
			if logger == nil {
				t.Fatal("New() returned nil")
			}
			if logger.Logger == nil {
				t.Fatal("New() returned logger with nil slog.Logger")
			}
		})
	}
}

func TestLogger_WithContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "info", "text")

	// Context without run ID
	l := logger.WithContext(context.Background())
	if l != logger {
		t.Error("WithContext() without run ID should return the same logger")
	}

	ctx := ContextWithRunID(context.Background(), "run-123")
	logger.WithContext(ctx).Info("hello")

	if !strings.Contains(buf.String(), "run_id=run-123") {
		t.Errorf("output should carry run_id, got: %s", buf.String())
	}
}

func TestRunIDFromContext(t *testing.T) {
	if _, ok := RunIDFromContext(context.Background()); ok {
		t.Error("RunIDFromContext() ok = true on empty context")
	}

	id, ok := RunIDFromContext(ContextWithRunID(context.Background(), "abc"))
	if !ok || id != "abc" {
		t.Errorf("RunIDFromContext() = %q, %v", id, ok)
	}
}

func TestLogger_WithAnalyzer(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "info", "json")

	logger.WithAnalyzer("English").Info("index built")

	if !strings.Contains(buf.String(), `"analyzer":"English"`) {
		t.Errorf("JSON output should contain analyzer field, got: %s", buf.String())
	}
}

func TestLogger_WithError(t *testing.T) {
	logger := New("info", "text")

	l := logger.WithError(context.DeadlineExceeded)
	if l == nil {
		t.Fatal("WithError() returned nil")
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "warn", "text")

	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message should be filtered at warn level, got: %s", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("warn message missing, got: %s", out)
	}
}

func TestDefault(t *testing.T) {
	if Default() == nil {
		t.Fatal("Default() returned nil")
	}
	if Discard() == nil {
		t.Fatal("Discard() returned nil")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo}, // default
		{"", slog.LevelInfo},        // default
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLevel(tt.input); got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
