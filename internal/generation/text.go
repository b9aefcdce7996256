package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"litany/internal/config"
)

const defaultTextTimeout = 120 * time.Second

// TextClient wraps an OpenAI-compatible chat completions endpoint.
type TextClient struct {
	cfg        config.TextGen
	httpClient *http.Client
	retry      retrier
}

// TextOption customizes the text client.
type TextOption func(*TextClient)

// WithTextHTTPClient overrides the default HTTP client.
func WithTextHTTPClient(client *http.Client) TextOption {
	return func(c *TextClient) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTextRetry overrides the retry policy.
func WithTextRetry(attempts int, baseDelay, maxDelay time.Duration) TextOption {
	return func(c *TextClient) {
		c.retry.maxAttempts = attempts
		c.retry.baseDelay = baseDelay
		c.retry.maxDelay = maxDelay
	}
}

// WithTextSleeper overrides how retry sleeps are performed (useful for tests).
func WithTextSleeper(sleeper func(time.Duration)) TextOption {
	return func(c *TextClient) {
		c.retry.sleeper = sleeper
	}
}

// NewTextClient constructs a text backend client from configuration.
func NewTextClient(cfg config.TextGen, opts ...TextOption) *TextClient {
	timeout := defaultTextTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &TextClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		retry:      newRetrier(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
			Refusal string `json:"refusal"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete issues a chat completion and returns the model's text.
func (c *TextClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return c.complete(ctx, systemPrompt, userPrompt, nil)
}

// CompleteJSON issues a JSON-only chat completion and returns the raw JSON
// payload produced by the model.
func (c *TextClient) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return c.complete(ctx, systemPrompt, userPrompt, map[string]string{"type": "json_object"})
}

func (c *TextClient) complete(ctx context.Context, systemPrompt, userPrompt string, responseFormat map[string]string) (string, error) {
	systemPrompt = strings.TrimSpace(systemPrompt)
	userPrompt = strings.TrimSpace(userPrompt)
	if systemPrompt == "" {
		return "", errors.New("text complete: system prompt required")
	}
	if userPrompt == "" {
		return "", errors.New("text complete: user prompt required")
	}
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return "", errors.New("text complete: api key required")
	}

	payload := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature:    0.7,
		ResponseFormat: responseFormat,
	}

	var lastErr error
	for attempt := 1; attempt <= c.retry.attempts(); attempt++ {
		content, err := c.sendOnce(ctx, payload)
		if err == nil {
			return content, nil
		}
		delay, retryable := c.retry.delay(ctx, err, attempt)
		if !retryable {
			return "", err
		}
		if sleepErr := c.retry.sleep(ctx, delay); sleepErr != nil {
			return "", sleepErr
		}
		lastErr = err
	}
	return "", fmt.Errorf("text complete: failed after %d attempts: %w", c.retry.attempts(), lastErr)
}

func (c *TextClient) sendOnce(ctx context.Context, payload chatRequest) (string, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("text request: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("text request: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Referer != "" {
		req.Header.Set("HTTP-Referer", c.cfg.Referer)
		req.Header.Set("Referer", c.cfg.Referer)
	}
	if c.cfg.Title != "" {
		req.Header.Set("X-Title", c.cfg.Title)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("text request: http error: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("text request: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", &httpStatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}

	var completion chatResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", fmt.Errorf("text request: decode response: %w", err)
	}
	if completion.Error != nil {
		return "", fmt.Errorf("text request: api error: %s", strings.TrimSpace(completion.Error.Message))
	}
	for _, choice := range completion.Choices {
		if content := strings.TrimSpace(choice.Message.Content); content != "" {
			return content, nil
		}
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("text request: empty choices")
	}
	first := completion.Choices[0]
	return "", fmt.Errorf("text request: empty content (finish_reason=%q, refusal=%q)",
		first.FinishReason, first.Message.Refusal)
}

// HealthCheck issues a fast ping to verify the API key and model are usable.
func (c *TextClient) HealthCheck(ctx context.Context) error {
	content, err := c.CompleteJSON(ctx, "You must respond with JSON only.", `Respond with {"ok":true}`)
	if err != nil {
		return err
	}
	var parsed struct {
		OK bool `json:"ok"`
	}
	if err := DecodeJSON(content, &parsed); err != nil {
		return fmt.Errorf("text health: parse payload: %w", err)
	}
	if !parsed.OK {
		return errors.New("text health: unexpected response")
	}
	return nil
}
