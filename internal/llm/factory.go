package llm

import (
	"context"
	"fmt"

	"github.com/abhisek/examcoach/internal/logging"
	"github.com/abhisek/examcoach/internal/store"
)

// New builds the configured provider. Calls pass through
// timeout, retry, recording and then the vendor SDK, in that order.
// events may be nil.
func New(ctx context.Context, cfg Config, events store.EventRepo, log *logging.Logger) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		base Provider
		err  error
	)
	switch cfg.Provider {
	case ProviderAnthropic:
		base, err = newAnthropic(cfg.Anthropic)
	case ProviderOpenAI:
		base, err = newOpenAI(cfg.OpenAI)
	case ProviderGemini:
		base, err = newGemini(ctx, cfg.Gemini)
	case ProviderMock:
		base = NewMock()
	}
	if err != nil {
		return nil, fmt.Errorf("init %s provider: %w", cfg.Provider, err)
	}

	p := WithRecording(base, events, log)
	p = WithRetry(p, cfg.Retry)
	if cfg.Timeout > 0 {
		p = WithTimeout(p, cfg.Timeout)
	}
	return p, nil
}

// resolveModel maps a short alias to a full model ID. Unknown names pass
// through unchanged.
func resolveModel(name string, aliases map[string]string) string {
	if id, ok := aliases[name]; ok {
		return id
	}
	return name
}
