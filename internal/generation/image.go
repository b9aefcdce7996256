package generation

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"litany/internal/config"
)

const defaultImageTimeout = 300 * time.Second

// ImageClient wraps an OpenAI-compatible image generation endpoint.
type ImageClient struct {
	cfg        config.Image
	httpClient *http.Client
	retry      retrier
}

// ImageOption customizes the image client.
type ImageOption func(*ImageClient)

// WithImageHTTPClient overrides the default HTTP client.
func WithImageHTTPClient(client *http.Client) ImageOption {
	return func(c *ImageClient) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithImageRetry overrides the retry policy.
func WithImageRetry(attempts int, baseDelay, maxDelay time.Duration) ImageOption {
	return func(c *ImageClient) {
		c.retry.maxAttempts = attempts
		c.retry.baseDelay = baseDelay
		c.retry.maxDelay = maxDelay
	}
}

// NewImageClient constructs an image backend client from configuration.
func NewImageClient(cfg config.Image, opts ...ImageOption) *ImageClient {
	timeout := defaultImageTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &ImageClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		retry:      newRetrier(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

type imageRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	Size           string `json:"size,omitempty"`
	ResponseFormat string `json:"response_format"`
	N              int    `json:"n"`
}

type imageResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Generate renders an image from the prompt and returns the decoded bytes.
func (c *ImageClient) Generate(ctx context.Context, prompt string) ([]byte, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, errors.New("image generate: prompt required")
	}
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return nil, errors.New("image generate: api key required")
	}

	payload := imageRequest{
		Model:          c.cfg.Model,
		Prompt:         prompt,
		Size:           c.cfg.Size,
		ResponseFormat: "b64_json",
		N:              1,
	}

	var lastErr error
	for attempt := 1; attempt <= c.retry.attempts(); attempt++ {
		image, err := c.sendOnce(ctx, payload)
		if err == nil {
			return image, nil
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
	return nil, fmt.Errorf("image generate: failed after %d attempts: %w", c.retry.attempts(), lastErr)
}

func (c *ImageClient) sendOnce(ctx context.Context, payload imageRequest) ([]byte, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("image request: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("image request: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("image request: http error: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("image request: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &httpStatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}

	var decoded imageResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("image request: decode response: %w", err)
	}
	if decoded.Error != nil {
		return nil, fmt.Errorf("image request: api error: %s", strings.TrimSpace(decoded.Error.Message))
	}
	if len(decoded.Data) == 0 || strings.TrimSpace(decoded.Data[0].B64JSON) == "" {
		return nil, errors.New("image request: empty image payload")
	}
	image, err := base64.StdEncoding.DecodeString(decoded.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("image request: decode image: %w", err)
	}
	return image, nil
}
