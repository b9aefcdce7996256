package artifacts_test

import (
	"errors"
	"strings"
	"testing"

	"litany/internal/artifacts"
	"litany/internal/services"
)

func TestPutAndGetRoundTrip(t *testing.T) {
	store, err := artifacts.New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ref, err := store.Put("proc-1", artifacts.KindDocument, "md", []byte("# compiled"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if !strings.HasSuffix(ref, ".md") || !strings.Contains(ref, "document") {
		t.Fatalf("unexpected reference: %q", ref)
	}

	data, err := store.Get(ref)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(data) != "# compiled" {
		t.Fatalf("unexpected data: %q", data)
	}
}

func TestGetUnknownReference(t *testing.T) {
	store, err := artifacts.New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := store.Get("proc-document-deadbeef.md"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPathRejectsTraversal(t *testing.T) {
	store, err := artifacts.New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, ref := range []string{"", "../etc/passwd", "a/b.md", ".hidden"} {
		if _, err := store.Path(ref); !errors.Is(err, services.ErrValidation) {
			t.Fatalf("expected validation error for %q, got %v", ref, err)
		}
	}
}

func TestPutRejectsEmptyData(t *testing.T) {
	store, err := artifacts.New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := store.Put("p", artifacts.KindAudio, "mp3", nil); err == nil {
		t.Fatal("expected error for empty data")
	}
}
