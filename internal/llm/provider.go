// Package llm talks to the hosted language models that analyze exam papers
// and evaluate practice answers.
//
// Every provider is single-turn: one system prompt, one user message, one
// completion back. When a Format is set the completion text must be a JSON
// document matching its schema.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
)

// Provider completes prompts against one model.
type Provider interface {
	Complete(ctx context.Context, p Prompt) (*Completion, error)

	// Name is the provider family, e.g. "anthropic".
	Name() string

	// Model is the configured model ID.
	Model() string
}

// Prompt is a single-turn request.
type Prompt struct {
	System string
	User   string

	// Format asks for structured JSON output. Nil means free text.
	Format *Format

	MaxTokens   int
	Temperature float64
}

// Format describes the JSON document a completion must contain.
type Format struct {
	// Name is a kebab-case identifier, e.g. "answer-evaluation". It keys
	// the compiled schema cache.
	Name        string
	Description string
	Schema      map[string]any
}

// FinishReason says why the model stopped.
type FinishReason string

const (
	FinishStop   FinishReason = "stop"
	FinishLength FinishReason = "length"
)

// Completion is the model's answer.
type Completion struct {
	Text   string
	Usage  Usage
	Model  string
	Finish FinishReason
}

// Decode unmarshals a structured completion into v.
func (c *Completion) Decode(v any) error {
	if err := json.Unmarshal([]byte(c.Text), v); err != nil {
		return &CallError{Kind: ErrInvalidResponse, Err: fmt.Errorf("decode completion: %w", err)}
	}
	return nil
}

// Usage counts tokens for one call.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Total returns input plus output tokens.
func (u Usage) Total() int { return u.InputTokens + u.OutputTokens }
