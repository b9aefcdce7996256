// Package testsupport provides shared fixtures for package tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"litany/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.TextGen.APIKey = "test"
	cfg.Speech.Enabled = false
	cfg.Image.Enabled = false
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithSpeech enables the speech backend on the test config.
func WithSpeech(baseURL string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Speech.Enabled = true
		cfg.Speech.APIKey = "test"
		cfg.Speech.BaseURL = baseURL
	}
}

// WithImage enables the image backend on the test config.
func WithImage(baseURL string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Image.Enabled = true
		cfg.Image.APIKey = "test"
		cfg.Image.BaseURL = baseURL
	}
}
