package analysis

import (
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/abhisek/examcoach/internal/gamification"
	"github.com/abhisek/examcoach/internal/grading"
	"github.com/abhisek/examcoach/internal/llm"
	"github.com/abhisek/examcoach/internal/logging"
)

// FeedbackFormat is the structured output requested for answer evaluation.
var FeedbackFormat = &llm.Format{
	Name:        "answer-feedback",
	Description: "Examiner feedback on a single practice answer.",
	Schema: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"feedback": map[string]any{
				"type":        "string",
				"minLength":   1,
				"description": "Feedback that opens with Correct, Partially correct or Incorrect.",
			},
		},
		"required":             []any{"feedback"},
		"additionalProperties": false,
	},
}

// AnswerRequest is one practice answer to evaluate.
type AnswerRequest struct {
	Subject        string `validate:"required,max=128"`
	Topic          string `validate:"required,max=255"`
	Question       string `validate:"required"`
	Answer         string `validate:"required"`
	ExpectedAnswer string
}

// Evaluation is the model's feedback and the verdict derived from it.
type Evaluation struct {
	Feedback string
	Correct  bool

	// Rule names the grading rule that decided Correct.
	Rule string
}

// Evaluator grades practice answers through the model.
type Evaluator struct {
	provider llm.Provider
	rules    []grading.Rule
	opts     Options
	log      *logging.Logger
	validate *validator.Validate
}

// NewEvaluator creates an Evaluator with the default grading rules.
func NewEvaluator(provider llm.Provider, log *logging.Logger) *Evaluator {
	if log == nil {
		log = logging.Nop()
	}
	return &Evaluator{
		provider: provider,
		rules:    grading.DefaultRules(),
		opts:     Options{MaxTokens: 400, Temperature: 0},
		log:      log.With("component", "evaluator"),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Evaluate asks the model for feedback and classifies it.
func (e *Evaluator) Evaluate(ctx context.Context, req AnswerRequest) (*Evaluation, error) {
	ctx, span := tracer.Start(ctx, "evaluator.Evaluate")
	defer span.End()

	if err := e.validate.Struct(req); err != nil {
		span.SetStatus(codes.Error, "invalid request")
		return nil, fmt.Errorf("%w: %v", gamification.ErrInvalidInput, err)
	}

	user, err := render(answerTemplate, req)
	if err != nil {
		return nil, fmt.Errorf("build answer prompt: %w", err)
	}

	c, err := e.provider.Complete(llm.WithPurpose(ctx, PurposeAnswerEvaluation), llm.Prompt{
		System:      answerSystemPrompt,
		User:        user,
		Format:      FeedbackFormat,
		MaxTokens:   e.opts.MaxTokens,
		Temperature: e.opts.Temperature,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("evaluate answer: %w", err)
	}

	var out struct {
		Feedback string `json:"feedback"`
	}
	if err := c.Decode(&out); err != nil {
		return nil, fmt.Errorf("evaluate answer: %w", err)
	}

	ev := &Evaluation{Feedback: strings.TrimSpace(out.Feedback)}
	ev.Correct, ev.Rule = grading.RunRules(e.rules, ev.Feedback)
	span.SetAttributes(attribute.Bool("correct", ev.Correct), attribute.String("rule", ev.Rule))
	e.log.Debug("answer evaluated", "subject", req.Subject, "topic", req.Topic, "correct", ev.Correct, "rule", ev.Rule)
	return ev, nil
}

const answerSystemPrompt = `You are a patient examiner marking one practice answer.
Start the feedback with exactly one of: "Correct", "Partially correct" or "Incorrect".
Then explain in at most three sentences what was right and what to fix.`

var answerTemplate = template.Must(template.New("answer").Parse(`Subject: {{.Subject}}
Topic: {{.Topic}}
Question: {{.Question}}
{{- with .ExpectedAnswer}}
Expected answer: {{.}}{{end}}
Student's answer: {{.Answer}}`))
