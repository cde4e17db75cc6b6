package coach

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/abhisek/examcoach/internal/analysis"
	"github.com/abhisek/examcoach/internal/gamification"
	"github.com/abhisek/examcoach/internal/store"
	"github.com/abhisek/examcoach/internal/weakareas"
)

// PaperOutcome is the result of a paper analysis event.
type PaperOutcome struct {
	Analysis   store.Analysis
	WeakTopics []string
	Award      *gamification.Result
}

// AnalyzePaper sends the paper to the model, stores the analysis and
// awards the paper-analyzed points. The analysis is stored only if the
// award succeeds.
func (c *Coach) AnalyzePaper(ctx context.Context, req analysis.PaperRequest) (*PaperOutcome, error) {
	if c.analyzer == nil {
		return nil, ErrNoModel
	}
	pa, err := c.analyzer.AnalyzePaper(ctx, req)
	if err != nil {
		return nil, err
	}
	return c.storeAnalysis(ctx, pa.Analysis, pa.WeakTopics)
}

// PaperAnalyzed records an analysis produced elsewhere and awards the
// paper-analyzed points.
func (c *Coach) PaperAnalyzed(ctx context.Context, studentID, subject, text string) (*PaperOutcome, error) {
	text = strings.TrimSpace(text)
	if subject == "" || text == "" {
		return nil, fmt.Errorf("%w: subject and analysis text are required", gamification.ErrInvalidInput)
	}
	a := store.Analysis{
		ID:        uuid.NewString(),
		StudentID: studentID,
		Subject:   subject,
		Text:      text,
		CreatedAt: c.ledger.Clock().Now(),
	}
	return c.storeAnalysis(ctx, a, weakareas.Extract(text))
}

func (c *Coach) storeAnalysis(ctx context.Context, a store.Analysis, topics []string) (*PaperOutcome, error) {
	award, err := c.ledger.AddPointsWith(ctx, gamification.Award{
		StudentID: a.StudentID,
		Points:    c.points.PaperAnalyzed,
		Reason:    ReasonPaperAnalyzed,
	}, func(tx store.Repository) error {
		return tx.SaveAnalysis(ctx, &a)
	})
	if err != nil {
		return nil, err
	}
	c.log.Info("paper analyzed",
		"student_id", a.StudentID,
		"subject", a.Subject,
		"analysis_id", a.ID,
		"weak_topics", len(topics),
	)
	return &PaperOutcome{Analysis: a, WeakTopics: topics, Award: award}, nil
}
