package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTextGen()
	c.normalizeSpeech()
	c.normalizeImage()
	c.normalizePipeline()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	if c.Paths.APIToken == "" {
		if value, ok := os.LookupEnv("LITANY_API_TOKEN"); ok {
			c.Paths.APIToken = strings.TrimSpace(value)
		}
	}
	return nil
}

func (c *Config) normalizeTextGen() {
	c.TextGen.BaseURL = strings.TrimSpace(c.TextGen.BaseURL)
	if c.TextGen.BaseURL == "" {
		c.TextGen.BaseURL = defaultTextGenBaseURL
	}
	c.TextGen.Model = strings.TrimSpace(c.TextGen.Model)
	if c.TextGen.Model == "" {
		c.TextGen.Model = defaultTextGenModel
	}
	c.TextGen.Referer = strings.TrimSpace(c.TextGen.Referer)
	if c.TextGen.Referer == "" {
		c.TextGen.Referer = defaultTextGenReferer
	}
	c.TextGen.Title = strings.TrimSpace(c.TextGen.Title)
	if c.TextGen.Title == "" {
		c.TextGen.Title = defaultTextGenTitle
	}
	if c.TextGen.TimeoutSeconds <= 0 {
		c.TextGen.TimeoutSeconds = defaultTextGenTimeoutSeconds
	}
	c.TextGen.APIKey = strings.TrimSpace(c.TextGen.APIKey)
	if c.TextGen.APIKey == "" {
		if value, ok := os.LookupEnv("LITANY_TEXTGEN_API_KEY"); ok {
			c.TextGen.APIKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("OPENROUTER_API_KEY"); ok {
			c.TextGen.APIKey = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeSpeech() {
	c.Speech.BaseURL = strings.TrimSpace(c.Speech.BaseURL)
	if c.Speech.BaseURL == "" {
		c.Speech.BaseURL = defaultSpeechBaseURL
	}
	c.Speech.Model = strings.TrimSpace(c.Speech.Model)
	if c.Speech.Model == "" {
		c.Speech.Model = defaultSpeechModel
	}
	c.Speech.Voice = strings.TrimSpace(c.Speech.Voice)
	if c.Speech.Voice == "" {
		c.Speech.Voice = defaultSpeechVoice
	}
	c.Speech.Format = strings.ToLower(strings.TrimSpace(c.Speech.Format))
	if c.Speech.Format == "" {
		c.Speech.Format = defaultSpeechFormat
	}
	if c.Speech.TimeoutSeconds <= 0 {
		c.Speech.TimeoutSeconds = defaultSpeechTimeoutSeconds
	}
	c.Speech.APIKey = strings.TrimSpace(c.Speech.APIKey)
	if c.Speech.APIKey == "" {
		if value, ok := os.LookupEnv("LITANY_SPEECH_API_KEY"); ok {
			c.Speech.APIKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
			c.Speech.APIKey = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeImage() {
	c.Image.BaseURL = strings.TrimSpace(c.Image.BaseURL)
	if c.Image.BaseURL == "" {
		c.Image.BaseURL = defaultImageBaseURL
	}
	c.Image.Model = strings.TrimSpace(c.Image.Model)
	if c.Image.Model == "" {
		c.Image.Model = defaultImageModel
	}
	c.Image.Size = strings.TrimSpace(c.Image.Size)
	if c.Image.Size == "" {
		c.Image.Size = defaultImageSize
	}
	if c.Image.TimeoutSeconds <= 0 {
		c.Image.TimeoutSeconds = defaultImageTimeoutSeconds
	}
	c.Image.APIKey = strings.TrimSpace(c.Image.APIKey)
	if c.Image.APIKey == "" {
		if value, ok := os.LookupEnv("LITANY_IMAGE_API_KEY"); ok {
			c.Image.APIKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
			c.Image.APIKey = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizePipeline() {
	if c.Pipeline.MaxConcurrent <= 0 {
		c.Pipeline.MaxConcurrent = defaultMaxConcurrent
	}
	c.Pipeline.DefaultLanguage = strings.ToLower(strings.TrimSpace(c.Pipeline.DefaultLanguage))
	if c.Pipeline.DefaultLanguage == "" {
		c.Pipeline.DefaultLanguage = defaultLanguage
	}
	labels := make([]string, 0, len(c.Pipeline.ShortDurations))
	seen := make(map[string]struct{}, len(c.Pipeline.ShortDurations))
	for _, label := range c.Pipeline.ShortDurations {
		normalized := strings.ToLower(strings.TrimSpace(label))
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		labels = append(labels, normalized)
	}
	if len(labels) == 0 {
		labels = []string{"curto", "curta"}
	}
	c.Pipeline.ShortDurations = labels
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
