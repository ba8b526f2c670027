package config

const (
	defaultDataDir        = "~/.local/share/reel"
	defaultLogDir         = "~/.local/share/reel/logs"
	defaultLogFormat      = "auto"
	defaultLogLevel       = "info"
	defaultLLMBaseURL     = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel       = "google/gemini-3-flash-preview"
	defaultLLMReferer     = "https://github.com/reel-project/reel"
	defaultLLMTitle       = "Reel Scene Pipeline"
	defaultLLMTimeout     = 120
	// The speech client appends the /v1 API path itself; the base URL is
	// host-only.
	defaultSpeechBaseURL  = "https://api.elevenlabs.io"
	defaultSpeechVoice    = "JBFqnCBsd6RMkjVDRZzb"
	defaultSpeechLang     = "en"
	defaultSpeechTimeout  = 120
	defaultImageryTimeout = 120
	defaultSourceTimeout  = 60
	defaultMaxFetchBytes  = 64 << 20
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeout,
		},
		Speech: Speech{
			BaseURL:        defaultSpeechBaseURL,
			Voice:          defaultSpeechVoice,
			Language:       defaultSpeechLang,
			TimeoutSeconds: defaultSpeechTimeout,
		},
		Imagery: Imagery{
			TimeoutSeconds: defaultImageryTimeout,
		},
		Sources: Sources{
			TimeoutSeconds: defaultSourceTimeout,
			MaxFetchBytes:  defaultMaxFetchBytes,
		},
	}
}
