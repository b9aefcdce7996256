package services_test

import (
	"errors"
	"strings"
	"testing"

	"litany/internal/services"
)

func TestWrapTagsMarkerAndDetail(t *testing.T) {
	base := errors.New("connection refused")
	err := services.Wrap(services.ErrBackend, "content", "generate", "request failed", base)
	if !errors.Is(err, services.ErrBackend) {
		t.Fatalf("expected backend marker, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
	msg := err.Error()
	for _, want := range []string{"content", "generate", "request failed", "connection refused"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("expected %q in %q", want, msg)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected default detail, got %q", err.Error())
	}
}

func TestDiagnosticTruncatesLongMessages(t *testing.T) {
	if got := services.Diagnostic(nil); got != "" {
		t.Fatalf("expected empty diagnostic for nil error, got %q", got)
	}
	long := errors.New(strings.Repeat("x", 400))
	got := services.Diagnostic(long)
	if len(got) != 300 {
		t.Fatalf("expected 300 byte diagnostic, got %d", len(got))
	}
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("expected ellipsis suffix, got %q", got)
	}
}
