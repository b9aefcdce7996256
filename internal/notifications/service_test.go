package notifications

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"litany/internal/config"
	"litany/internal/events"
	"litany/internal/logging"
)

type recordedRequest struct {
	path     string
	title    string
	tags     string
	priority string
	body     message
}

func newRecordingServer(t *testing.T) (*httptest.Server, func() []recordedRequest) {
	t.Helper()
	var mu sync.Mutex
	var requests []recordedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body message
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		mu.Lock()
		requests = append(requests, recordedRequest{
			path:     r.URL.Path,
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     body,
		})
		mu.Unlock()
	}))
	return server, func() []recordedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]recordedRequest(nil), requests...)
	}
}

func TestNotifyCompletedPostsBothTopics(t *testing.T) {
	server, recorded := newRecordingServer(t)
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL + "/litany"
	service := NewService(&cfg)

	if err := service.NotifyCompleted(context.Background(), "proc-9", "Morning Litany", "doc.md"); err != nil {
		t.Fatalf("NotifyCompleted: %v", err)
	}

	requests := recorded()
	if len(requests) != 2 {
		t.Fatalf("expected 2 deliveries, got %d", len(requests))
	}
	if requests[0].path != "/litany-proc-9" {
		t.Fatalf("expected process topic first, got %q", requests[0].path)
	}
	if requests[1].path != "/litany" {
		t.Fatalf("expected global topic second, got %q", requests[1].path)
	}
	first := requests[0]
	if first.body.ProcessID != "proc-9" || first.body.Type != "completed" || first.body.ResultRef != "doc.md" {
		t.Fatalf("unexpected payload: %+v", first.body)
	}
	if !strings.Contains(first.body.Message, "Morning Litany") {
		t.Fatalf("expected title in message, got %q", first.body.Message)
	}
	if first.title != "Litany - Complete" || first.priority != "high" {
		t.Fatalf("unexpected headers: title=%q priority=%q", first.title, first.priority)
	}
	if !strings.Contains(first.tags, "completed") {
		t.Fatalf("unexpected tags: %q", first.tags)
	}
}

func TestNotifyFailedIncludesStageAndDiagnostic(t *testing.T) {
	server, recorded := newRecordingServer(t)
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL + "/litany"
	service := NewService(&cfg)

	if err := service.NotifyFailed(context.Background(), "proc-3", "content_ready", "backend timeout"); err != nil {
		t.Fatalf("NotifyFailed: %v", err)
	}

	requests := recorded()
	if len(requests) != 2 {
		t.Fatalf("expected 2 deliveries, got %d", len(requests))
	}
	body := requests[0].body
	if body.Type != "failed" {
		t.Fatalf("unexpected type: %q", body.Type)
	}
	if !strings.Contains(body.Message, "content_ready") || !strings.Contains(body.Message, "backend timeout") {
		t.Fatalf("unexpected message: %q", body.Message)
	}
}

func TestNewServiceWithoutTopicIsNoop(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	service := NewService(&cfg)
	if _, ok := service.(noopService); !ok {
		t.Fatalf("expected noop service, got %T", service)
	}
	if err := service.NotifyCompleted(context.Background(), "p", "t", "r"); err != nil {
		t.Fatalf("noop NotifyCompleted: %v", err)
	}
}

func TestSendSurfacesServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic blocked", http.StatusForbidden)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL + "/litany"
	service := NewService(&cfg)

	err := service.NotifyCompleted(context.Background(), "p", "t", "")
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Fatalf("expected 403 error, got %v", err)
	}
}

type fakeService struct {
	mu        sync.Mutex
	completed []string
	failed    []string
}

func (f *fakeService) NotifyCompleted(_ context.Context, processID, _, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed = append(f.completed, processID)
	return nil
}

func (f *fakeService) NotifyFailed(_ context.Context, processID, _, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed = append(f.failed, processID)
	return nil
}

func (f *fakeService) TestNotification(context.Context) error { return nil }

func TestDispatcherHonorsToggles(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.Completion = true
	cfg.Notifications.Errors = false

	fake := &fakeService{}
	bus := events.NewBus(logging.NewNop())
	NewDispatcher(&cfg, fake, logging.NewNop()).Register(bus)

	if err := bus.Publish(context.Background(), events.Completed{ID: "p1", Title: "T", ResultRef: "r"}); err != nil {
		t.Fatalf("publish completed: %v", err)
	}
	if err := bus.Publish(context.Background(), events.Failed{ID: "p2", Stage: "titles_ready", Diagnostic: "boom"}); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	if len(fake.completed) != 1 || fake.completed[0] != "p1" {
		t.Fatalf("unexpected completion notifications: %v", fake.completed)
	}
	if len(fake.failed) != 0 {
		t.Fatalf("expected failure notifications suppressed, got %v", fake.failed)
	}
}
