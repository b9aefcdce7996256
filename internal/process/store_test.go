package process_test

import (
	"context"
	"errors"
	"testing"

	"litany/internal/process"
	"litany/internal/services"
	"litany/internal/testsupport"
)

func TestCreateAndGetRoundTrip(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))

	generateShort := false
	created, err := store.Create(context.Background(), "", process.Payload{
		Topic:         "gratitude",
		Style:         "contemplative",
		Duration:      "Padrão",
		PrayerType:    "morning",
		Language:      "pt",
		GenerateAudio: true,
		GenerateShort: &generateShort,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected generated id")
	}
	if created.Stage != process.StageInitiated {
		t.Fatalf("expected initiated stage, got %s", created.Stage)
	}
	if created.Progress != 0 {
		t.Fatalf("expected zero progress, got %f", created.Progress)
	}

	fetched, err := store.Get(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if fetched.Payload.Topic != "gratitude" {
		t.Fatalf("unexpected topic: %q", fetched.Payload.Topic)
	}
	if fetched.Payload.Duration != "Padrão" {
		t.Fatalf("unexpected duration: %q", fetched.Payload.Duration)
	}
	if fetched.Payload.GenerateShort == nil || *fetched.Payload.GenerateShort {
		t.Fatal("expected explicit generate_short=false to round-trip")
	}
	if !fetched.Payload.GenerateAudio {
		t.Fatal("expected generate_audio=true")
	}
	if fetched.CreatedAt.IsZero() || fetched.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps to be set")
	}
}

func TestCreateRejectsDuplicateID(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))

	if _, err := store.Create(context.Background(), "proc-1", process.Payload{Topic: "a"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, err := store.Create(context.Background(), "proc-1", process.Payload{Topic: "b"})
	if !errors.Is(err, services.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestGetUnknownIDReturnsNotFound(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))

	_, err := store.Get(context.Background(), "missing")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateStatusClampsProgressMonotonically(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	proc := testsupport.NewProcess(t, store, process.Payload{Topic: "peace"})

	if err := store.UpdateStatus(context.Background(), proc.ID, process.StageTitleSelected, "Generating content", 50); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	// Compile publishes a lower literal checkpoint after description's 90.
	if err := store.UpdateStatus(context.Background(), proc.ID, process.StageDescriptionReady, "Compiling", 90); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if err := store.UpdateStatus(context.Background(), proc.ID, process.StageCompiled, "Compiled", 80); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	fetched, err := store.Get(context.Background(), proc.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if fetched.Stage != process.StageCompiled {
		t.Fatalf("expected last-write-wins stage, got %s", fetched.Stage)
	}
	if fetched.Progress != 90 {
		t.Fatalf("expected progress clamped at 90, got %f", fetched.Progress)
	}
}

func TestUpdateStatusIgnoresUnknownID(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))

	if err := store.UpdateStatus(context.Background(), "missing", process.StageContentReady, "x", 50); err != nil {
		t.Fatalf("expected unknown id to be ignored, got %v", err)
	}
}

func TestSetFieldMutatesSingleColumn(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	proc := testsupport.NewProcess(t, store, process.Payload{Topic: "hope"})

	if err := store.SetField(context.Background(), proc.ID, process.FieldContent, "body text"); err != nil {
		t.Fatalf("SetField content: %v", err)
	}
	if err := store.SetField(context.Background(), proc.ID, process.FieldTitle, "A Title"); err != nil {
		t.Fatalf("SetField title: %v", err)
	}
	if err := store.SetField(context.Background(), proc.ID, "stage", "hack"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for unknown field, got %v", err)
	}
	if err := store.SetField(context.Background(), "missing", process.FieldContent, "x"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found for unknown process, got %v", err)
	}

	fetched, err := store.Get(context.Background(), proc.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if fetched.Payload.Content != "body text" || fetched.Payload.Title != "A Title" {
		t.Fatalf("unexpected payload: %+v", fetched.Payload)
	}
	if fetched.Payload.Description != "" {
		t.Fatalf("description should be untouched, got %q", fetched.Payload.Description)
	}
}

func TestTitlesRoundTrip(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	proc := testsupport.NewProcess(t, store, process.Payload{Topic: "light"})

	want := []string{"Morning Light", "A Prayer at Dawn", "First Light"}
	if err := store.SetTitles(context.Background(), proc.ID, want); err != nil {
		t.Fatalf("SetTitles: %v", err)
	}
	got, err := store.Titles(context.Background(), proc.ID)
	if err != nil {
		t.Fatalf("Titles: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d titles, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("title %d: got %q want %q", i, got[i], want[i])
		}
	}
}

func TestSetResultFirstWriteWins(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	proc := testsupport.NewProcess(t, store, process.Payload{Topic: "rest"})

	if err := store.SetResult(context.Background(), proc.ID, "artifact-1"); err != nil {
		t.Fatalf("SetResult: %v", err)
	}
	if err := store.SetResult(context.Background(), proc.ID, "artifact-2"); err != nil {
		t.Fatalf("SetResult second: %v", err)
	}

	fetched, err := store.Get(context.Background(), proc.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if fetched.ResultRef != "artifact-1" {
		t.Fatalf("expected first result to win, got %q", fetched.ResultRef)
	}
}

func TestMarkFailedAndMarkCompleted(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))

	failed := testsupport.NewProcess(t, store, process.Payload{Topic: "a"})
	if err := store.MarkFailed(context.Background(), failed.ID, "backend error: content: generate"); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}
	got, err := store.Get(context.Background(), failed.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Stage != process.StageFailed || got.Progress != 0 {
		t.Fatalf("unexpected failed state: %s %f", got.Stage, got.Progress)
	}
	if got.StageLabel != "backend error: content: generate" {
		t.Fatalf("expected diagnostic label, got %q", got.StageLabel)
	}
	if got.Completed {
		t.Fatal("failed process must not be completed")
	}

	done := testsupport.NewProcess(t, store, process.Payload{Topic: "b"})
	if err := store.SetResult(context.Background(), done.ID, "artifact-9"); err != nil {
		t.Fatalf("SetResult: %v", err)
	}
	if err := store.MarkCompleted(context.Background(), done.ID, ""); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}
	got, err = store.Get(context.Background(), done.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Stage != process.StageCompleted || !got.Completed || got.Progress != 100 {
		t.Fatalf("unexpected completed state: %+v", got)
	}
	if got.ResultRef != "artifact-9" {
		t.Fatalf("completed process must keep its result ref, got %q", got.ResultRef)
	}
}

func TestListAndStats(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))

	a := testsupport.NewProcess(t, store, process.Payload{Topic: "a"})
	b := testsupport.NewProcess(t, store, process.Payload{Topic: "b"})
	testsupport.NewProcess(t, store, process.Payload{Topic: "c"})

	if err := store.MarkCompleted(context.Background(), a.ID, ""); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}
	if err := store.MarkFailed(context.Background(), b.ID, "boom"); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}

	all, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 processes, got %d", len(all))
	}

	failedOnly, err := store.List(context.Background(), process.StageFailed)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(failedOnly) != 1 || failedOnly[0].ID != b.ID {
		t.Fatalf("unexpected failed list: %+v", failedOnly)
	}

	stats, err := store.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Total != 3 || stats.Completed != 1 || stats.Failed != 1 || stats.Active != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}
