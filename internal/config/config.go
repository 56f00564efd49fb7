package config

import (
	"errors"
	"strings"
	"time"

	cenv "github.com/caarlos0/env/v11"
)

// Config is built once at startup and passed by value into the services and
// adapters. Request-handling code never reads the environment.
type Config struct {
	ListenAddr string

	DeepgramBaseURL string
	DeepgramAPIKey  string
	SpeechModel     string
	SpeechLanguage  string

	EnhanceBaseURL string
	EnhanceAPIKey  string
	EnhanceModel   string

	SynthesisModel      string
	SynthesisEncoding   string
	SynthesisSampleRate int

	RequestTimeout   time.Duration
	SpeechTimeout    time.Duration
	EnhanceTimeout   time.Duration
	SynthesisTimeout time.Duration

	MaxUploadBytes    int64
	MaxEnhanceChars   int
	MaxSynthesisChars int

	AllowedOrigins     []string
	RateLimitPerMinute int
	LogLevel           string
}

type envConfig struct {
	ListenAddr string `env:"LISTEN_ADDR" envDefault:":8080"`

	DeepgramBaseURL string `env:"DEEPGRAM_BASE_URL" envDefault:"https://api.deepgram.com"`
	DeepgramAPIKey  string `env:"DEEPGRAM_API_KEY"`
	SpeechModel     string `env:"SPEECH_MODEL" envDefault:"nova-2"`
	SpeechLanguage  string `env:"SPEECH_LANGUAGE" envDefault:"en-US"`

	EnhanceBaseURL string `env:"ENHANCE_BASE_URL" envDefault:"https://api.groq.com/openai/v1"`
	EnhanceAPIKey  string `env:"ENHANCE_API_KEY"`
	EnhanceModel   string `env:"ENHANCE_MODEL" envDefault:"llama-3.3-70b-versatile"`

	SynthesisModel      string `env:"SYNTHESIS_MODEL"`
	SynthesisEncoding   string `env:"SYNTHESIS_ENCODING" envDefault:"linear16"`
	SynthesisSampleRate int    `env:"SYNTHESIS_SAMPLE_RATE" envDefault:"16000"`

	RequestTimeoutSeconds   int `env:"REQUEST_TIMEOUT_SECONDS" envDefault:"25"`
	SpeechTimeoutSeconds    int `env:"SPEECH_TIMEOUT_SECONDS" envDefault:"20"`
	EnhanceTimeoutSeconds   int `env:"ENHANCE_TIMEOUT_SECONDS" envDefault:"20"`
	SynthesisTimeoutSeconds int `env:"SYNTHESIS_TIMEOUT_SECONDS" envDefault:"20"`

	MaxUploadBytes    int64 `env:"MAX_UPLOAD_BYTES" envDefault:"26214400"`
	MaxEnhanceChars   int   `env:"MAX_ENHANCE_CHARS" envDefault:"2000"`
	MaxSynthesisChars int   `env:"MAX_SYNTHESIS_CHARS" envDefault:"2000"`

	AllowedOrigins     []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	RateLimitPerMinute int      `env:"RATE_LIMIT_PER_MINUTE" envDefault:"60"`
	LogLevel           string   `env:"LOG_LEVEL" envDefault:"info"`
}

func Load() (Config, error) {
	var raw envConfig
	if err := cenv.Parse(&raw); err != nil {
		return Config{}, err
	}

	cfg := Config{
		ListenAddr:          strings.TrimSpace(raw.ListenAddr),
		DeepgramBaseURL:     strings.TrimRight(strings.TrimSpace(raw.DeepgramBaseURL), "/"),
		DeepgramAPIKey:      strings.TrimSpace(raw.DeepgramAPIKey),
		SpeechModel:         strings.TrimSpace(raw.SpeechModel),
		SpeechLanguage:      strings.TrimSpace(raw.SpeechLanguage),
		EnhanceBaseURL:      strings.TrimRight(strings.TrimSpace(raw.EnhanceBaseURL), "/"),
		EnhanceAPIKey:       strings.TrimSpace(raw.EnhanceAPIKey),
		EnhanceModel:        strings.TrimSpace(raw.EnhanceModel),
		SynthesisModel:      strings.TrimSpace(raw.SynthesisModel),
		SynthesisEncoding:   strings.TrimSpace(raw.SynthesisEncoding),
		SynthesisSampleRate: raw.SynthesisSampleRate,
		RequestTimeout:      time.Duration(raw.RequestTimeoutSeconds) * time.Second,
		SpeechTimeout:       time.Duration(raw.SpeechTimeoutSeconds) * time.Second,
		EnhanceTimeout:      time.Duration(raw.EnhanceTimeoutSeconds) * time.Second,
		SynthesisTimeout:    time.Duration(raw.SynthesisTimeoutSeconds) * time.Second,
		MaxUploadBytes:      raw.MaxUploadBytes,
		MaxEnhanceChars:     raw.MaxEnhanceChars,
		MaxSynthesisChars:   raw.MaxSynthesisChars,
		AllowedOrigins:      trimAll(raw.AllowedOrigins),
		RateLimitPerMinute:  raw.RateLimitPerMinute,
		LogLevel:            strings.ToLower(strings.TrimSpace(raw.LogLevel)),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// SynthesisEnabled reports whether the optional TTS capability is configured.
func (c Config) SynthesisEnabled() bool {
	return c.SynthesisModel != ""
}

func (c Config) Validate() error {
	if c.ListenAddr == "" {
		return errors.New("LISTEN_ADDR must not be empty")
	}
	if c.DeepgramBaseURL == "" {
		return errors.New("DEEPGRAM_BASE_URL must not be empty")
	}
	if c.DeepgramAPIKey == "" {
		return errors.New("DEEPGRAM_API_KEY is required")
	}
	if c.SpeechModel == "" {
		return errors.New("SPEECH_MODEL must not be empty")
	}
	if c.EnhanceBaseURL == "" {
		return errors.New("ENHANCE_BASE_URL must not be empty")
	}
	if c.EnhanceAPIKey == "" {
		return errors.New("ENHANCE_API_KEY is required")
	}
	if c.EnhanceModel == "" {
		return errors.New("ENHANCE_MODEL must not be empty")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("REQUEST_TIMEOUT_SECONDS must be > 0")
	}
	if c.SpeechTimeout <= 0 {
		return errors.New("SPEECH_TIMEOUT_SECONDS must be > 0")
	}
	if c.EnhanceTimeout <= 0 {
		return errors.New("ENHANCE_TIMEOUT_SECONDS must be > 0")
	}
	if c.SynthesisTimeout <= 0 {
		return errors.New("SYNTHESIS_TIMEOUT_SECONDS must be > 0")
	}
	if c.MaxUploadBytes <= 0 {
		return errors.New("MAX_UPLOAD_BYTES must be > 0")
	}
	if c.MaxEnhanceChars <= 0 {
		return errors.New("MAX_ENHANCE_CHARS must be > 0")
	}
	if c.MaxSynthesisChars <= 0 {
		return errors.New("MAX_SYNTHESIS_CHARS must be > 0")
	}
	if c.RateLimitPerMinute <= 0 {
		return errors.New("RATE_LIMIT_PER_MINUTE must be > 0")
	}
	return nil
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
