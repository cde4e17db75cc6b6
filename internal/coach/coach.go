// Package coach is the entry point for student activity: each method
// handles one event (a paper analyzed, a practice answer, a quiz) and
// applies its effects on progress, points, badges and notifications.
//
// All per-request state travels in the request structs. A Coach holds no
// session state and is safe for concurrent use.
package coach

import (
	"errors"

	"github.com/go-playground/validator/v10"

	"github.com/abhisek/examcoach/internal/analysis"
	"github.com/abhisek/examcoach/internal/config"
	"github.com/abhisek/examcoach/internal/gamification"
	"github.com/abhisek/examcoach/internal/llm"
	"github.com/abhisek/examcoach/internal/logging"
	"github.com/abhisek/examcoach/internal/progress"
	"github.com/abhisek/examcoach/internal/store"
)

// Point-history reasons.
const (
	ReasonPaperAnalyzed = "paper_analyzed"
	ReasonPractice      = progress.ReasonPractice
	ReasonQuizSubmitted = "quiz_submitted"
	ReasonQuizGraded    = "quiz_graded"
)

// NotificationTypeQuiz tags quiz result notifications.
const NotificationTypeQuiz = "quiz"

// ErrNoModel is returned by operations that need a language model when
// none was configured.
var ErrNoModel = errors.New("no language model configured")

// Options wires a Coach.
type Options struct {
	Repo   store.Repository
	Clock  gamification.Clock
	Points config.PointsConfig

	// Provider may be nil; AnalyzePaper and AnswerPractice then fail
	// with ErrNoModel.
	Provider llm.Provider

	Metrics *gamification.Metrics
	Log     *logging.Logger
}

// Coach handles student events.
type Coach struct {
	repo      store.Repository
	points    config.PointsConfig
	ledger    *gamification.Ledger
	tracker   *progress.Tracker
	dashboard *progress.Dashboard
	analyzer  *analysis.Analyzer
	evaluator *analysis.Evaluator
	log       *logging.Logger
	validate  *validator.Validate
}

// New creates a Coach.
func New(o Options) *Coach {
	log := o.Log
	if log == nil {
		log = logging.Nop()
	}
	clock := o.Clock
	if clock == nil {
		clock = gamification.SystemClock{}
	}

	ledger := gamification.NewLedger(o.Repo, clock, log).WithMetrics(o.Metrics)
	c := &Coach{
		repo:   o.Repo,
		points: o.Points,
		ledger: ledger,
		tracker: progress.NewTracker(o.Repo, ledger, progress.PointsPolicy{
			Correct:   o.Points.PracticeCorrect,
			Incorrect: o.Points.PracticeIncorrect,
		}, log),
		dashboard: progress.NewDashboard(o.Repo, o.Repo, log),
		log:       log.With("component", "coach"),
		validate:  validator.New(validator.WithRequiredStructEnabled()),
	}
	if o.Provider != nil {
		c.analyzer = analysis.NewAnalyzer(o.Provider, clock, log)
		c.evaluator = analysis.NewEvaluator(o.Provider, log)
	}
	return c
}

// Ledger exposes the points ledger for read-only views.
func (c *Coach) Ledger() *gamification.Ledger {
	return c.ledger
}
