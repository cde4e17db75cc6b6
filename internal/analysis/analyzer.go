// Package analysis produces the free-text feedback the rest of the core
// works from: exam-paper analyses and practice-answer evaluations.
package analysis

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/abhisek/examcoach/internal/gamification"
	"github.com/abhisek/examcoach/internal/llm"
	"github.com/abhisek/examcoach/internal/logging"
	"github.com/abhisek/examcoach/internal/store"
	"github.com/abhisek/examcoach/internal/weakareas"
)

// Purposes recorded with each model call.
const (
	PurposePaperAnalysis    = "paper-analysis"
	PurposeAnswerEvaluation = "answer-evaluation"
)

var tracer = otel.Tracer("github.com/abhisek/examcoach/internal/analysis")

// Options tune a model call.
type Options struct {
	MaxTokens   int
	Temperature float64
}

// PaperRequest is an exam paper to analyze. PaperText is the already
// extracted text of the marked paper.
type PaperRequest struct {
	StudentID  string `validate:"required,max=64"`
	Subject    string `validate:"required,max=128"`
	GradeLevel string `validate:"max=64"`
	PaperText  string `validate:"required"`
}

// PaperAnalysis is a completed, not yet stored, analysis.
type PaperAnalysis struct {
	Analysis   store.Analysis
	WeakTopics []string
}

// Analyzer asks the model for a structured written analysis of a paper.
type Analyzer struct {
	provider llm.Provider
	opts     Options
	now      func() time.Time
	log      *logging.Logger
	validate *validator.Validate
}

// NewAnalyzer creates an Analyzer. clock may be nil.
func NewAnalyzer(provider llm.Provider, clock gamification.Clock, log *logging.Logger) *Analyzer {
	if log == nil {
		log = logging.Nop()
	}
	now := time.Now
	if clock != nil {
		now = clock.Now
	}
	return &Analyzer{
		provider: provider,
		opts:     Options{MaxTokens: 2048, Temperature: 0.2},
		now:      now,
		log:      log.With("component", "analyzer"),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// WithOptions overrides the model call options.
func (a *Analyzer) WithOptions(o Options) *Analyzer {
	a.opts = o
	return a
}

// AnalyzePaper returns the model's analysis of the paper along with the
// weak topics parsed from it. An analysis without an AREAS FOR
// IMPROVEMENT section is still returned; WeakTopics is then empty.
func (a *Analyzer) AnalyzePaper(ctx context.Context, req PaperRequest) (*PaperAnalysis, error) {
	ctx, span := tracer.Start(ctx, "analyzer.AnalyzePaper")
	defer span.End()

	if err := a.validate.Struct(req); err != nil {
		span.SetStatus(codes.Error, "invalid request")
		return nil, fmt.Errorf("%w: %v", gamification.ErrInvalidInput, err)
	}

	user, err := render(paperTemplate, req)
	if err != nil {
		return nil, fmt.Errorf("build paper prompt: %w", err)
	}

	c, err := a.provider.Complete(llm.WithPurpose(ctx, PurposePaperAnalysis), llm.Prompt{
		System:      paperSystemPrompt,
		User:        user,
		MaxTokens:   a.opts.MaxTokens,
		Temperature: a.opts.Temperature,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("analyze paper: %w", err)
	}

	text := strings.TrimSpace(c.Text)
	if text == "" {
		return nil, fmt.Errorf("analyze paper: %w", llm.ErrInvalidResponse)
	}

	out := &PaperAnalysis{
		Analysis: store.Analysis{
			ID:        uuid.NewString(),
			StudentID: req.StudentID,
			Subject:   req.Subject,
			Text:      text,
			CreatedAt: a.now(),
		},
		WeakTopics: weakareas.Extract(text),
	}
	if len(out.WeakTopics) == 0 {
		a.log.Warn("analysis has no weak topics", "student_id", req.StudentID, "subject", req.Subject)
	}
	span.SetAttributes(attribute.Int("weak_topics", len(out.WeakTopics)))
	return out, nil
}

const paperSystemPrompt = `You are an experienced examiner reviewing a student's marked exam paper.
Write a concise analysis for the student and their parents using exactly these numbered sections:

1. OVERALL PERFORMANCE
2. STRENGTHS
3. AREAS FOR IMPROVEMENT
4. RECOMMENDATIONS

Under AREAS FOR IMPROVEMENT list one topic per line as a "- " bullet. Each bullet is a short
curriculum topic name (under ten words) with no explanation. Do not put tables or encouragement
inside that section.`

var paperTemplate = template.Must(template.New("paper").Parse(`Subject: {{.Subject}}
{{- with .GradeLevel}}
Grade level: {{.}}{{end}}

Marked paper:
"""
{{.PaperText}}
"""`))

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
