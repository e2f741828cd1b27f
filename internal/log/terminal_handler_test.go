package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestTerminalHandler_Format(t *testing.T) {
	var buf bytes.Buffer
	h := newTerminalHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})

	ts := time.Date(2026, 1, 15, 10, 30, 45, 123000000, time.UTC)
	r := slog.NewRecord(ts, slog.LevelInfo, "server started", 0)
	r.AddAttrs(slog.String("addr", "0.0.0.0:8080"))

	if err := h.Handle(context.Background(), r); err != nil {
		t.Fatalf("Handle() error: %v", err)
	}

	output := buf.String()
	for _, want := range []string{"10:30:45.123", "INF", "server started", "addr=", "0.0.0.0:8080"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}
	if !strings.HasSuffix(output, "\n") {
		t.Errorf("expected trailing newline, got: %q", output)
	}
}

func TestTerminalHandler_Levels(t *testing.T) {
	tests := []struct {
		level    slog.Level
		expected string
	}{
		{slog.LevelDebug, "DBG"},
		{slog.LevelInfo, "INF"},
		{slog.LevelWarn, "WRN"},
		{slog.LevelError, "ERR"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(newTerminalHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
			logger.Log(context.Background(), tt.level, "msg")
			if !strings.Contains(buf.String(), tt.expected) {
				t.Errorf("expected %s, got: %s", tt.expected, buf.String())
			}
		})
	}
}

func TestTerminalHandler_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newTerminalHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))

	logger.Info("quiet")
	if buf.Len() != 0 {
		t.Errorf("expected no output, got: %s", buf.String())
	}

	logger.Warn("loud")
	if !strings.Contains(buf.String(), "loud") {
		t.Errorf("expected warn output, got: %s", buf.String())
	}
}

func TestTerminalHandler_ComponentPrefix(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newTerminalHandler(&buf, nil)).With(slog.String("dispatcher", "plant_list"))

	logger.Info("dispatching query", slog.Uint64("generation", 3))

	output := buf.String()
	if !strings.Contains(output, "[plant_list]") {
		t.Errorf("expected component prefix, got: %s", output)
	}
	if strings.Contains(output, "dispatcher=") {
		t.Errorf("component must not repeat as an attr, got: %s", output)
	}
	if strings.Index(output, "[plant_list]") > strings.Index(output, "dispatching query") {
		t.Errorf("prefix must precede the message, got: %s", output)
	}
}

func TestTerminalHandler_RecordComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newTerminalHandler(&buf, nil))

	logger.Info("request", slog.String("component", "api"), slog.Int("status", 200))

	output := buf.String()
	if !strings.Contains(output, "[api]") || !strings.Contains(output, "status=") {
		t.Errorf("unexpected output: %s", output)
	}
}

func TestTerminalHandler_Groups(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newTerminalHandler(&buf, nil)).WithGroup("http").With(slog.String("method", "GET"))

	logger.Info("request", slog.Int("status", 200))

	output := buf.String()
	if !strings.Contains(output, "http.method=") {
		t.Errorf("expected grouped handler attr, got: %s", output)
	}
	if !strings.Contains(output, "http.status=") {
		t.Errorf("expected grouped record attr, got: %s", output)
	}
}

func TestTerminalHandler_InlineGroup(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newTerminalHandler(&buf, nil))

	logger.Info("saved", slog.Group("state", slog.String("key", "filters")))

	if !strings.Contains(buf.String(), "state.key=") {
		t.Errorf("expected inline group, got: %s", buf.String())
	}
}

func TestTerminalHandler_QuotesValues(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newTerminalHandler(&buf, nil))

	logger.Info("query", slog.String("text", "dahlia red"), slog.String("empty", ""))

	output := buf.String()
	if !strings.Contains(output, `"dahlia red"`) {
		t.Errorf("expected quoted value, got: %s", output)
	}
	if !strings.Contains(output, `""`) {
		t.Errorf("expected quoted empty value, got: %s", output)
	}
}

func TestTerminalHandler_ErrorValue(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newTerminalHandler(&buf, nil))

	logger.Warn("query failed", slog.Any("error", errors.New("boom")))

	output := buf.String()
	if !strings.Contains(output, ansiRed+"boom") {
		t.Errorf("expected highlighted error, got: %q", output)
	}
}

func TestTerminalHandler_ConcurrentWrites(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newTerminalHandler(&buf, nil))

	done := make(chan struct{})
	for range 8 {
		go func() {
			defer func() { done <- struct{}{} }()
			for range 50 {
				logger.Info("tick")
			}
		}()
	}
	for range 8 {
		<-done
	}

	if got := strings.Count(buf.String(), "\n"); got != 400 {
		t.Errorf("expected 400 lines, got %d", got)
	}
}
