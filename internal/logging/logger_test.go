package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"litany/internal/services"
)

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelDebug)
	return slog.New(newConsoleHandler(buf, levelVar))
}

func TestConsoleHandlerRendersComponentAndFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewComponentLogger(newTestLogger(&buf), "orchestrator")

	logger.Info("stage finished", String(FieldProcessID, "p-1"), Int("percent", 45))

	line := buf.String()
	if !strings.Contains(line, "INFO orchestrator: stage finished") {
		t.Fatalf("unexpected line: %q", line)
	}
	if !strings.Contains(line, "process_id=p-1") {
		t.Fatalf("missing process id: %q", line)
	}
	if !strings.Contains(line, "percent=45") {
		t.Fatalf("missing percent: %q", line)
	}
	if strings.Contains(line, "component=") {
		t.Fatalf("component should be inlined, not a field: %q", line)
	}
}

func TestConsoleHandlerQuotesValuesWithSpaces(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf)

	logger.Warn("backend slow", String("detail", "retrying in 2s"))

	if !strings.Contains(buf.String(), `detail="retrying in 2s"`) {
		t.Fatalf("expected quoted value: %q", buf.String())
	}
}

func TestWithContextAddsAnnotatedFields(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf)

	ctx := services.WithProcessID(context.Background(), "p-42")
	ctx = services.WithStage(ctx, "content")
	ctx = services.WithRequestID(ctx, "req-9")

	WithContext(ctx, logger).Info("working")

	line := buf.String()
	for _, want := range []string{"process_id=p-42", "stage=content", "correlation_id=req-9"} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in %q", want, line)
		}
	}
}

func TestNewNopDiscardsOutput(t *testing.T) {
	logger := NewNop()
	logger.Error("ignored")
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("expected nop logger to be disabled")
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}
