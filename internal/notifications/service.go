// Package notifications pushes terminal pipeline outcomes to ntfy topics and
// fans terminal events out from the bus. Delivery is best effort: failures
// are logged and never retried or re-raised into the pipeline.
package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"litany/internal/config"
)

const userAgent = "Litany-Go/0.1.0"

// Service defines the push notification surface.
type Service interface {
	NotifyCompleted(ctx context.Context, processID, title, resultRef string) error
	NotifyFailed(ctx context.Context, processID, stage, diagnostic string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: strings.TrimRight(topic, "/"),
		client:   &http.Client{Timeout: timeout},
	}
}

type message struct {
	ProcessID string `json:"process_id"`
	Type      string `json:"type"`
	Message   string `json:"message"`
	ResultRef string `json:"result_ref,omitempty"`

	title    string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyCompleted(ctx context.Context, processID, title, resultRef string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		title = processID
	}
	data := message{
		ProcessID: processID,
		Type:      "completed",
		Message:   fmt.Sprintf("Content ready: %s", title),
		ResultRef: resultRef,
		title:     "Litany - Complete",
		tags:      []string{"litany", "pipeline", "completed"},
		priority:  "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyFailed(ctx context.Context, processID, stage, diagnostic string) error {
	var builder strings.Builder
	builder.WriteString("Pipeline failed")
	if stage = strings.TrimSpace(stage); stage != "" {
		builder.WriteString(" at ")
		builder.WriteString(stage)
	}
	builder.WriteString(": ")
	if diagnostic = strings.TrimSpace(diagnostic); diagnostic != "" {
		builder.WriteString(diagnostic)
	} else {
		builder.WriteString("unknown error")
	}
	data := message{
		ProcessID: processID,
		Type:      "failed",
		Message:   builder.String(),
		title:     "Litany - Failed",
		tags:      []string{"litany", "error", "alert"},
		priority:  "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := message{
		Type:     "test",
		Message:  "Notification system test",
		title:    "Litany - Test",
		tags:     []string{"litany", "test"},
		priority: "low",
	}
	return n.post(ctx, n.endpoint, data)
}

// send posts to the process-specific topic first, then the global topic. The
// first failure is returned after both deliveries were attempted.
func (n *ntfyService) send(ctx context.Context, data message) error {
	if n == nil || n.client == nil {
		return nil
	}
	var firstErr error
	if data.ProcessID != "" {
		if err := n.post(ctx, n.endpoint+"-"+sanitizeTopic(data.ProcessID), data); err != nil {
			firstErr = err
		}
	}
	if err := n.post(ctx, n.endpoint, data); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

func (n *ntfyService) post(ctx context.Context, endpoint string, data message) error {
	body, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode ntfy payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/json")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func sanitizeTopic(value string) string {
	var b strings.Builder
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

type noopService struct{}

func (noopService) NotifyCompleted(context.Context, string, string, string) error { return nil }
func (noopService) NotifyFailed(context.Context, string, string, string) error    { return nil }
func (noopService) TestNotification(context.Context) error                        { return nil }
