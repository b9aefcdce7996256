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

const defaultSpeechTimeout = 300 * time.Second

// SpeechClient wraps an OpenAI-compatible speech synthesis endpoint.
type SpeechClient struct {
	cfg        config.Speech
	httpClient *http.Client
	retry      retrier
}

// SpeechOption customizes the speech client.
type SpeechOption func(*SpeechClient)

// WithSpeechHTTPClient overrides the default HTTP client.
func WithSpeechHTTPClient(client *http.Client) SpeechOption {
	return func(c *SpeechClient) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithSpeechRetry overrides the retry policy.
func WithSpeechRetry(attempts int, baseDelay, maxDelay time.Duration) SpeechOption {
	return func(c *SpeechClient) {
		c.retry.maxAttempts = attempts
		c.retry.baseDelay = baseDelay
		c.retry.maxDelay = maxDelay
	}
}

// NewSpeechClient constructs a speech backend client from configuration.
func NewSpeechClient(cfg config.Speech, opts ...SpeechOption) *SpeechClient {
	timeout := defaultSpeechTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &SpeechClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		retry:      newRetrier(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Format returns the configured audio container format.
func (c *SpeechClient) Format() string {
	return c.cfg.Format
}

type speechRequest struct {
	Model          string `json:"model"`
	Input          string `json:"input"`
	Voice          string `json:"voice"`
	ResponseFormat string `json:"response_format,omitempty"`
}

// Synthesize converts text to audio and returns the raw audio bytes.
func (c *SpeechClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("speech synthesize: text required")
	}
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return nil, errors.New("speech synthesize: api key required")
	}

	payload := speechRequest{
		Model:          c.cfg.Model,
		Input:          text,
		Voice:          c.cfg.Voice,
		ResponseFormat: c.cfg.Format,
	}

	var lastErr error
	for attempt := 1; attempt <= c.retry.attempts(); attempt++ {
		audio, err := c.sendOnce(ctx, payload)
		if err == nil {
			return audio, nil
		}
		delay, retryable := c.retry.delay(ctx, err, attempt)
		if !retryable {
			return nil, err
		}
		if sleepErr := c.retry.sleep(ctx, delay); sleepErr != nil {
			return nil, sleepErr
		}
		lastErr = err
	}
	return nil, fmt.Errorf("speech synthesize: failed after %d attempts: %w", c.retry.attempts(), lastErr)
}

func (c *SpeechClient) sendOnce(ctx context.Context, payload speechRequest) ([]byte, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("speech request: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("speech request: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("speech request: http error: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("speech request: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &httpStatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}
	if len(body) == 0 {
		return nil, errors.New("speech request: empty audio payload")
	}
	return body, nil
}
