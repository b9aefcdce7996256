package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTextGen(); err != nil {
		return err
	}
	if err := c.validateSpeech(); err != nil {
		return err
	}
	if err := c.validateImage(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateTextGen() error {
	if c.TextGen.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/litany/config.toml"
		}
		return fmt.Errorf("textgen.api_key is required. Set LITANY_TEXTGEN_API_KEY env var or edit %s (create with 'litany config init')", defaultPath)
	}
	if c.TextGen.TimeoutSeconds <= 0 {
		return errors.New("textgen.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateSpeech() error {
	if !c.Speech.Enabled {
		return nil
	}
	if strings.TrimSpace(c.Speech.APIKey) == "" {
		return errors.New("speech.api_key must be set when speech.enabled is true")
	}
	if c.Speech.TimeoutSeconds <= 0 {
		return errors.New("speech.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateImage() error {
	if !c.Image.Enabled {
		return nil
	}
	if strings.TrimSpace(c.Image.APIKey) == "" {
		return errors.New("image.api_key must be set when image.enabled is true")
	}
	if c.Image.TimeoutSeconds <= 0 {
		return errors.New("image.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if c.Pipeline.MaxConcurrent <= 0 {
		return errors.New("pipeline.max_concurrent must be positive")
	}
	if c.Pipeline.DefaultLanguage == "" {
		return errors.New("pipeline.default_language must be set")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}
