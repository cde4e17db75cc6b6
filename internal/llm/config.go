package llm

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Provider names accepted in Config.Provider.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
	ProviderMock      = "mock"
)

// Config selects and configures the provider.
type Config struct {
	Provider string

	Anthropic Credentials
	OpenAI    Credentials
	Gemini    Credentials

	Retry RetryPolicy

	// Timeout bounds one Complete call including retries. Zero disables it.
	Timeout time.Duration
}

// Credentials are the per-provider settings.
type Credentials struct {
	APIKey string
	Model  string

	// BaseURL overrides the API endpoint, e.g. for an OpenAI-compatible
	// gateway.
	BaseURL string
}

// DefaultConfig returns the anthropic provider with the small models
// selected for each family.
func DefaultConfig() Config {
	return Config{
		Provider:  ProviderAnthropic,
		Anthropic: Credentials{Model: "claude-haiku"},
		OpenAI:    Credentials{Model: "gpt-4o-mini"},
		Gemini:    Credentials{Model: "gemini-flash"},
		Retry:     DefaultRetryPolicy(),
		Timeout:   60 * time.Second,
	}
}

func (c *Config) credentials(provider string) *Credentials {
	switch provider {
	case ProviderAnthropic:
		return &c.Anthropic
	case ProviderOpenAI:
		return &c.OpenAI
	case ProviderGemini:
		return &c.Gemini
	}
	return nil
}

// ConfigFromEnv reads EXAMCOACH_LLM_PROVIDER and
// EXAMCOACH_<PROVIDER>_{API_KEY,MODEL,BASE_URL} over the defaults.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	if p := os.Getenv("EXAMCOACH_LLM_PROVIDER"); p != "" {
		cfg.Provider = strings.ToLower(p)
	}
	if v := os.Getenv("EXAMCOACH_LLM_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Timeout = d
		}
	}
	for _, name := range []string{ProviderAnthropic, ProviderOpenAI, ProviderGemini} {
		creds := cfg.credentials(name)
		prefix := "EXAMCOACH_" + strings.ToUpper(name) + "_"
		if v := os.Getenv(prefix + "API_KEY"); v != "" {
			creds.APIKey = v
		}
		if v := os.Getenv(prefix + "MODEL"); v != "" {
			creds.Model = v
		}
		if v := os.Getenv(prefix + "BASE_URL"); v != "" {
			creds.BaseURL = v
		}
	}
	return cfg
}

// DiscoverConfig looks for the vendors' own API key variables, trying
// GEMINI_API_KEY, OPENAI_API_KEY and ANTHROPIC_API_KEY in that order. It
// reports false if none is set.
func DiscoverConfig() (Config, bool) {
	cfg := DefaultConfig()
	for _, c := range []struct{ env, provider string }{
		{"GEMINI_API_KEY", ProviderGemini},
		{"OPENAI_API_KEY", ProviderOpenAI},
		{"ANTHROPIC_API_KEY", ProviderAnthropic},
	} {
		if k := os.Getenv(c.env); k != "" {
			cfg.Provider = c.provider
			cfg.credentials(c.provider).APIKey = k
			return cfg, true
		}
	}
	return Config{}, false
}

// ResolveConfig prefers explicit EXAMCOACH_ settings and falls back to
// discovery.
func ResolveConfig() Config {
	cfg := ConfigFromEnv()
	if cfg.Validate() == nil {
		return cfg
	}
	if found, ok := DiscoverConfig(); ok {
		return found
	}
	return cfg
}

// Validate checks that the selected provider is known and has a key.
func (c Config) Validate() error {
	if c.Provider == ProviderMock {
		return nil
	}
	creds := c.credentials(c.Provider)
	if creds == nil {
		return fmt.Errorf("unknown LLM provider %q", c.Provider)
	}
	if creds.APIKey == "" {
		return fmt.Errorf("EXAMCOACH_%s_API_KEY is required for the %s provider", strings.ToUpper(c.Provider), c.Provider)
	}
	return nil
}
