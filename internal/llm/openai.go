package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

type openAIProvider struct {
	client *openai.Client
	model  string
}

func newOpenAI(c Credentials) (*openAIProvider, error) {
	if c.APIKey == "" {
		return nil, errors.New("openai API key is required")
	}
	conf := openai.DefaultConfig(c.APIKey)
	if c.BaseURL != "" {
		conf.BaseURL = c.BaseURL
	}
	return &openAIProvider{client: openai.NewClientWithConfig(conf), model: c.Model}, nil
}

func (p *openAIProvider) Name() string  { return ProviderOpenAI }
func (p *openAIProvider) Model() string { return p.model }

func (p *openAIProvider) Complete(ctx context.Context, pr Prompt) (*Completion, error) {
	var msgs []openai.ChatCompletionMessage
	if pr.System != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: pr.System})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: pr.User})

	req := openai.ChatCompletionRequest{
		Model:               p.model,
		Messages:            msgs,
		MaxCompletionTokens: pr.MaxTokens,
		Temperature:         float32(pr.Temperature),
	}
	if pr.Format != nil {
		schema, err := json.Marshal(pr.Format.Schema)
		if err != nil {
			return nil, fmt.Errorf("marshal schema %q: %w", pr.Format.Name, err)
		}
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:        pr.Format.Name,
				Description: pr.Format.Description,
				Schema:      json.RawMessage(schema),
				Strict:      true,
			},
		}
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, openAIError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, invalidResponse(ProviderOpenAI, "", "no choices in response")
	}

	choice := resp.Choices[0]
	c := &Completion{
		Text:  choice.Message.Content,
		Model: resp.Model,
		Usage: Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		},
		Finish: FinishStop,
	}
	if choice.FinishReason == openai.FinishReasonLength {
		c.Finish = FinishLength
	}
	return finish(ProviderOpenAI, pr, c)
}

func openAIError(err error) error {
	if ctxErr := contextError(err); ctxErr != nil {
		return ctxErr
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return statusError(ProviderOpenAI, apiErr.HTTPStatusCode, nil, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return statusError(ProviderOpenAI, reqErr.HTTPStatusCode, nil, err)
	}
	return &CallError{Kind: ErrProviderUnavailable, Provider: ProviderOpenAI, Err: err}
}
