package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/abhisek/examcoach/internal/logging"
	"github.com/abhisek/examcoach/internal/store"
)

type recorder struct {
	Provider
	events store.EventRepo
	log    *logging.Logger
}

// WithRecording logs every call and stores it as an LLM request event.
// A failure to store the event is logged and otherwise ignored. events may
// be nil.
func WithRecording(p Provider, events store.EventRepo, log *logging.Logger) Provider {
	if log == nil {
		log = logging.Nop()
	}
	return &recorder{Provider: p, events: events, log: log.With("component", "llm")}
}

func (r *recorder) Complete(ctx context.Context, p Prompt) (*Completion, error) {
	start := time.Now()
	purpose := PurposeFrom(ctx)

	c, err := r.Provider.Complete(ctx, p)
	latency := time.Since(start)

	ev := store.LLMRequestEventData{
		Provider:    r.Name(),
		Model:       r.Model(),
		Purpose:     purpose,
		LatencyMs:   latency.Milliseconds(),
		Success:     err == nil,
		RequestBody: renderPrompt(p),
	}
	if c != nil {
		ev.InputTokens = c.Usage.InputTokens
		ev.OutputTokens = c.Usage.OutputTokens
		if c.Model != "" {
			ev.Model = c.Model
		}
		ev.ResponseBody = c.Text
	}
	if err != nil {
		ev.ErrorMessage = err.Error()
		r.log.Warn("llm call failed",
			"provider", ev.Provider, "model", ev.Model, "purpose", purpose,
			"latency_ms", ev.LatencyMs, "error", err)
	} else {
		r.log.Info("llm call",
			"provider", ev.Provider, "model", ev.Model, "purpose", purpose,
			"latency_ms", ev.LatencyMs, "input_tokens", ev.InputTokens, "output_tokens", ev.OutputTokens)
	}

	if r.events != nil {
		// Stored even if the caller already gave up.
		if serr := r.events.AppendLLMRequest(context.WithoutCancel(ctx), ev); serr != nil {
			r.log.Warn("store llm event", "error", serr)
		}
	}
	return c, err
}

// renderPrompt is the request text kept with each event.
func renderPrompt(p Prompt) string {
	var b strings.Builder
	if p.System != "" {
		fmt.Fprintf(&b, "[system]\n%s\n\n", p.System)
	}
	fmt.Fprintf(&b, "[user]\n%s\n", p.User)
	if p.Format != nil {
		if def, err := json.Marshal(p.Format.Schema); err == nil {
			fmt.Fprintf(&b, "\n[format: %s]\n%s\n", p.Format.Name, def)
		}
	}
	return b.String()
}
