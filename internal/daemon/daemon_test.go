package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"litany/internal/config"
	"litany/internal/logging"
	"litany/internal/testsupport"
)

// newChatBackend serves an OpenAI-compatible chat endpoint whose answer is
// always a titles object; every stage can digest it.
func newChatBackend(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": `{"titles": ["Oração da Manhã"]}`}},
			},
		}
		_ = json.NewEncoder(w).Encode(response)
	}))
}

func newTestDaemon(t *testing.T, opts ...testsupport.ConfigOption) (*Daemon, *config.Config) {
	t.Helper()
	backend := newChatBackend(t)
	t.Cleanup(backend.Close)

	cfg := testsupport.NewConfig(t, opts...)
	cfg.TextGen.BaseURL = backend.URL

	d, err := New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d, cfg
}

func TestStartRejectsSecondInstance(t *testing.T) {
	d, cfg := newTestDaemon(t)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	second, err := New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("New second: %v", err)
	}
	defer second.Close()
	if err := second.Start(context.Background()); err == nil {
		second.Stop()
		t.Fatal("expected second instance rejected by lock")
	}

	d.Stop()
	if d.Status(context.Background()).Running {
		t.Fatal("expected stopped daemon")
	}
}

func TestAPIProcessLifecycle(t *testing.T) {
	d, _ := newTestDaemon(t)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	base := "http://" + d.APIAddr()

	body, _ := json.Marshal(StartProcessRequest{Topic: "gratidão", Duration: "Padrão"})
	resp, err := http.Post(base+"/api/processes", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST processes: %v", err)
	}
	var created ProcessView
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated || created.ProcessID == "" {
		t.Fatalf("unexpected create response: %d %+v", resp.StatusCode, created)
	}

	deadline := time.Now().Add(5 * time.Second)
	var view ProcessView
	for time.Now().Before(deadline) {
		view = getView(t, base+"/api/processes/"+created.ProcessID)
		if view.Completed || view.Stage == "failed" {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if !view.Completed || view.Progress != 100 || view.ResultRef == "" {
		t.Fatalf("process did not complete: %+v", view)
	}

	var titles TitlesView
	getJSON(t, base+"/api/processes/"+created.ProcessID+"/titles", &titles)
	if len(titles.Titles) == 0 {
		t.Fatalf("expected title candidates, got %+v", titles)
	}

	var result ResultView
	getJSON(t, base+"/api/processes/"+created.ProcessID+"/result", &result)
	if result.ResultRef != view.ResultRef {
		t.Fatalf("result mismatch: %q vs %q", result.ResultRef, view.ResultRef)
	}

	var status StatusView
	getJSON(t, base+"/api/status", &status)
	if !status.Running || status.Completed != 1 {
		t.Fatalf("unexpected daemon status: %+v", status)
	}
}

func TestAPIValidationAndNotFound(t *testing.T) {
	d, _ := newTestDaemon(t)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	base := "http://" + d.APIAddr()

	resp, err := http.Post(base+"/api/processes", "application/json", bytes.NewReader([]byte(`{}`)))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing topic, got %d", resp.StatusCode)
	}

	resp, err = http.Get(base + "/api/processes/unknown-id")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown id, got %d", resp.StatusCode)
	}

	resp, err = http.Post(base+"/api/processes/unknown-id/title", "application/json", bytes.NewReader([]byte(`{"title":"T"}`)))
	if err != nil {
		t.Fatalf("POST title: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown id, got %d", resp.StatusCode)
	}
}

func TestAPIBearerAuth(t *testing.T) {
	d, _ := newTestDaemon(t, func(cfg *config.Config) {
		cfg.Paths.APIToken = "secret"
	})
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	base := "http://" + d.APIAddr()

	resp, err := http.Get(base + "/api/status")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, base+"/api/status", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET with wrong token: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong token, got %d", resp.StatusCode)
	}

	req, _ = http.NewRequest(http.MethodGet, base+"/api/status", nil)
	req.Header.Set("Authorization", "Bearer secret")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET with token: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", resp.StatusCode)
	}
}

func getView(t *testing.T, url string) ProcessView {
	t.Helper()
	var view ProcessView
	getJSON(t, url, &view)
	return view
}

func getJSON(t *testing.T, url string, target any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s: unexpected status %d", url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		t.Fatalf("decode %s: %v", url, err)
	}
}
