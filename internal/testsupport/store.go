package testsupport

import (
	"context"
	"testing"

	"litany/internal/config"
	"litany/internal/process"
)

// MustOpenStore opens a process.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *process.Store {
	t.Helper()

	store, err := process.Open(cfg)
	if err != nil {
		t.Fatalf("process.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewProcess creates a process for tests using the provided store.
func NewProcess(t testing.TB, store *process.Store, payload process.Payload) *process.Process {
	t.Helper()

	proc, err := store.Create(context.Background(), "", payload)
	if err != nil {
		t.Fatalf("store.Create: %v", err)
	}
	return proc
}
