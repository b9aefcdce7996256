package config

const (
	defaultDataDir               = "~/.local/share/litany"
	defaultLogDir                = "~/.local/share/litany/logs"
	defaultAPIBind               = "127.0.0.1:7717"
	defaultTextGenBaseURL        = "https://openrouter.ai/api/v1/chat/completions"
	defaultTextGenModel          = "google/gemini-3-flash-preview"
	defaultTextGenReferer        = "https://github.com/litany"
	defaultTextGenTitle          = "Litany Content Pipeline"
	defaultTextGenTimeoutSeconds = 120
	defaultSpeechBaseURL         = "https://api.openai.com/v1/audio/speech"
	defaultSpeechModel           = "gpt-4o-mini-tts"
	defaultSpeechVoice           = "alloy"
	defaultSpeechFormat          = "mp3"
	defaultSpeechTimeoutSeconds  = 300
	defaultImageBaseURL          = "https://api.openai.com/v1/images/generations"
	defaultImageModel            = "gpt-image-1"
	defaultImageSize             = "1024x1024"
	defaultImageTimeoutSeconds   = 300
	defaultMaxConcurrent         = 4
	defaultLanguage              = "pt"
	defaultNotifyRequestTimeout  = 10
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		TextGen: TextGen{
			BaseURL:        defaultTextGenBaseURL,
			Model:          defaultTextGenModel,
			Referer:        defaultTextGenReferer,
			Title:          defaultTextGenTitle,
			TimeoutSeconds: defaultTextGenTimeoutSeconds,
		},
		Speech: Speech{
			Enabled:        true,
			BaseURL:        defaultSpeechBaseURL,
			Model:          defaultSpeechModel,
			Voice:          defaultSpeechVoice,
			Format:         defaultSpeechFormat,
			TimeoutSeconds: defaultSpeechTimeoutSeconds,
		},
		Image: Image{
			Enabled:        false,
			BaseURL:        defaultImageBaseURL,
			Model:          defaultImageModel,
			Size:           defaultImageSize,
			TimeoutSeconds: defaultImageTimeoutSeconds,
		},
		Pipeline: Pipeline{
			MaxConcurrent:   defaultMaxConcurrent,
			DefaultLanguage: defaultLanguage,
			ShortDurations:  []string{"curto", "curta"},
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Completion:     true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
