package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"voxsearch/internal/domain"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Relay     RelayConfig     `yaml:"relay"`
	Gemini    GeminiConfig    `yaml:"gemini"`
	Anthropic AnthropicConfig `yaml:"anthropic"`
	Breaker   BreakerConfig   `yaml:"breaker"`
	Retry     RetryConfig     `yaml:"retry"`
	Client    ClientConfig    `yaml:"client"`
	Speech    SpeechConfig    `yaml:"speech"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Notify    NotifyConfig    `yaml:"notify"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	RateLimit      int      `yaml:"rate_limit"`
	RateWindow     string   `yaml:"rate_window"`
	RequestTimeout string   `yaml:"request_timeout"`
	TrustedProxies []string `yaml:"trusted_proxies"`
}

type RelayConfig struct {
	Provider   string `yaml:"provider"`
	Prompt     string `yaml:"prompt"`
	PromptFile string `yaml:"prompt_file"`
}

type GeminiConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

type AnthropicConfig struct {
	APIKey    string `yaml:"api_key"`
	Model     string `yaml:"model"`
	BaseURL   string `yaml:"base_url"`
	MaxTokens int    `yaml:"max_tokens"`
}

type BreakerConfig struct {
	MaxRequests  uint32  `yaml:"max_requests"`
	Interval     string  `yaml:"interval"`
	Timeout      string  `yaml:"timeout"`
	MinRequests  uint32  `yaml:"min_requests"`
	FailureRatio float64 `yaml:"failure_ratio"`
}

type RetryConfig struct {
	MaxAttempts  int    `yaml:"max_attempts"`
	InitialDelay string `yaml:"initial_delay"`
	MaxDelay     string `yaml:"max_delay"`
}

type ClientConfig struct {
	Endpoint    string `yaml:"endpoint"`
	Timeout     string `yaml:"timeout"`
	HistoryFile string `yaml:"history_file"`
}

type SpeechConfig struct {
	Source        string   `yaml:"source"`
	FileDir       string   `yaml:"file_dir"`
	SampleRate    int      `yaml:"sample_rate"`
	MaxDuration   string   `yaml:"max_duration"`
	Silence       string   `yaml:"silence"`
	Locales       []string `yaml:"locales"`
	DefaultLocale string   `yaml:"default_locale"`
}

type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

type NotifyConfig struct {
	Desktop  bool           `yaml:"desktop"`
	Title    string         `yaml:"title"`
	Pushover PushoverConfig `yaml:"pushover"`
}

type PushoverConfig struct {
	Token   string `yaml:"token"`
	UserKey string `yaml:"user_key"`
	Enabled bool   `yaml:"enabled"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a YAML file, expanding ${VAR} references from the environment.
// An empty path yields the defaults.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		expanded := os.ExpandEnv(string(data))

		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	cfg.setDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":5000"
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"http://localhost:3000"}
	}
	if c.Server.RateLimit == 0 {
		c.Server.RateLimit = 30
	}
	if c.Server.RateWindow == "" {
		c.Server.RateWindow = "1m"
	}
	if c.Server.RequestTimeout == "" {
		c.Server.RequestTimeout = "60s"
	}
	if c.Relay.Provider == "" {
		c.Relay.Provider = "gemini"
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = "gemini-1.5-flash-latest"
	}
	if c.Anthropic.Model == "" {
		c.Anthropic.Model = "claude-sonnet-4-20250514"
	}
	if c.Breaker.MaxRequests == 0 {
		c.Breaker.MaxRequests = 3
	}
	if c.Breaker.Interval == "" {
		c.Breaker.Interval = "1m"
	}
	if c.Breaker.Timeout == "" {
		c.Breaker.Timeout = "30s"
	}
	if c.Breaker.MinRequests == 0 {
		c.Breaker.MinRequests = 3
	}
	if c.Breaker.FailureRatio == 0 {
		c.Breaker.FailureRatio = 0.6
	}
	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = 3
	}
	if c.Retry.InitialDelay == "" {
		c.Retry.InitialDelay = "100ms"
	}
	if c.Retry.MaxDelay == "" {
		c.Retry.MaxDelay = "5s"
	}
	if c.Client.Endpoint == "" {
		c.Client.Endpoint = "http://localhost:5000/api/search"
	}
	if c.Client.Timeout == "" {
		c.Client.Timeout = "60s"
	}
	if c.Speech.Source == "" {
		c.Speech.Source = "microphone"
	}
	if c.Speech.FileDir == "" {
		c.Speech.FileDir = "./audio"
	}
	if c.Speech.SampleRate == 0 {
		c.Speech.SampleRate = 16000
	}
	if c.Speech.MaxDuration == "" {
		c.Speech.MaxDuration = "10s"
	}
	if c.Speech.Silence == "" {
		c.Speech.Silence = "1s"
	}
	if len(c.Speech.Locales) == 0 {
		c.Speech.Locales = []string{string(domain.LocaleEnglishUS), string(domain.LocaleKannadaIN)}
	}
	if c.Notify.Title == "" {
		c.Notify.Title = "voxsearch"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

func (c *Config) validate() error {
	switch c.Relay.Provider {
	case "gemini", "anthropic":
	default:
		return fmt.Errorf("relay.provider must be gemini or anthropic, got %q", c.Relay.Provider)
	}
	switch c.Speech.Source {
	case "microphone", "file", "none":
	default:
		return fmt.Errorf("speech.source must be microphone, file or none, got %q", c.Speech.Source)
	}
	if _, err := c.LocaleSet(); err != nil {
		return fmt.Errorf("speech.locales: %w", err)
	}
	return nil
}

// LocaleSet returns the supported locales with default_locale first.
func (c *Config) LocaleSet() (domain.LocaleSet, error) {
	values := c.Speech.Locales
	if c.Speech.DefaultLocale != "" {
		values = append([]string{c.Speech.DefaultLocale}, values...)
	}
	return domain.NewLocaleSet(values...)
}

// Prompt returns the relay prompt, reading prompt_file when set.
func (c *Config) Prompt() (string, error) {
	if c.Relay.PromptFile == "" {
		return c.Relay.Prompt, nil
	}
	data, err := os.ReadFile(c.Relay.PromptFile)
	if err != nil {
		return "", fmt.Errorf("reading prompt file: %w", err)
	}
	return strings.TrimRight(string(data), "\n") + "\n", nil
}

// Duration parses value, falling back when it is empty or malformed.
func Duration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
