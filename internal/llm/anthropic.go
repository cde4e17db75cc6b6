package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

var anthropicAliases = map[string]string{
	"claude-haiku":  "claude-haiku-4-5-20251001",
	"claude-sonnet": "claude-sonnet-4-5-20250929",
}

type anthropicProvider struct {
	client anthropic.Client
	model  string
}

func newAnthropic(c Credentials) (*anthropicProvider, error) {
	if c.APIKey == "" {
		return nil, errors.New("anthropic API key is required")
	}
	opts := []option.RequestOption{option.WithAPIKey(c.APIKey)}
	if c.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(c.BaseURL))
	}
	return &anthropicProvider{
		client: anthropic.NewClient(opts...),
		model:  resolveModel(c.Model, anthropicAliases),
	}, nil
}

func (p *anthropicProvider) Name() string  { return ProviderAnthropic }
func (p *anthropicProvider) Model() string { return p.model }

func (p *anthropicProvider) Complete(ctx context.Context, pr Prompt) (*Completion, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: int64(pr.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(pr.User)),
		},
	}
	if pr.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: pr.System}}
	}
	if pr.Temperature > 0 {
		params.Temperature = anthropic.Float(pr.Temperature)
	}
	if pr.Format != nil {
		params.OutputConfig = anthropic.OutputConfigParam{
			Format: anthropic.JSONOutputFormatParam{Schema: pr.Format.Schema},
		}
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, anthropicError(err)
	}

	var text string
	found := false
	for _, block := range msg.Content {
		if block.Type == "text" {
			text, found = block.Text, true
			break
		}
	}
	if !found {
		return nil, invalidResponse(ProviderAnthropic, "", "no text block in message")
	}

	c := &Completion{
		Text:  text,
		Model: string(msg.Model),
		Usage: Usage{
			InputTokens:  int(msg.Usage.InputTokens),
			OutputTokens: int(msg.Usage.OutputTokens),
		},
		Finish: FinishStop,
	}
	if msg.StopReason == anthropic.StopReasonMaxTokens {
		c.Finish = FinishLength
	}
	return finish(ProviderAnthropic, pr, c)
}

func anthropicError(err error) error {
	if ctxErr := contextError(err); ctxErr != nil {
		return ctxErr
	}
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		var header http.Header
		if apiErr.Response != nil {
			header = apiErr.Response.Header
		}
		return statusError(ProviderAnthropic, apiErr.StatusCode, header, err)
	}
	return &CallError{Kind: ErrProviderUnavailable, Provider: ProviderAnthropic, Err: err}
}

// finish applies the checks shared by every SDK provider: truncated
// structured output is an error and structured output must match its
// schema.
func finish(provider string, pr Prompt, c *Completion) (*Completion, error) {
	if pr.Format == nil {
		return c, nil
	}
	if c.Finish == FinishLength {
		return nil, &CallError{Kind: ErrMaxTokensExceeded, Provider: provider, Text: c.Text}
	}
	if err := checkFormat(provider, pr.Format, c.Text); err != nil {
		return nil, err
	}
	return c, nil
}

// contextError returns the context error wrapped in err, if any.
func contextError(err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("llm: %w", context.Canceled)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("llm: %w", context.DeadlineExceeded)
	}
	return nil
}
