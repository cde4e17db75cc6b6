// Package progress records practice attempts per topic and builds the
// weak-topic dashboard from stored analyses.
package progress

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/abhisek/examcoach/internal/gamification"
	"github.com/abhisek/examcoach/internal/logging"
	"github.com/abhisek/examcoach/internal/store"
)

// ReasonPractice is the point-history reason for practice answers.
const ReasonPractice = "practice"

// PointsPolicy sets the points awarded per practice attempt.
type PointsPolicy struct {
	Correct   int
	Incorrect int
}

// DefaultPointsPolicy awards 5 points for a correct answer and 2 otherwise.
func DefaultPointsPolicy() PointsPolicy {
	return PointsPolicy{Correct: 5, Incorrect: 2}
}

func (p PointsPolicy) pointsFor(correct bool) int {
	if correct {
		return p.Correct
	}
	return p.Incorrect
}

// Attempt is one answered practice question.
type Attempt struct {
	StudentID string `validate:"required,max=64"`
	Subject   string `validate:"required,max=128"`
	Topic     string `validate:"required,max=255"`
	IsCorrect bool
	Feedback  string
}

// AttemptResult is the state after an attempt was recorded.
type AttemptResult struct {
	Record store.ProgressRecord

	// Award is nil when the policy grants no points for the outcome.
	Award *gamification.Result
}

// Tracker records practice attempts and the points they earn.
type Tracker struct {
	repo     store.Repository
	ledger   *gamification.Ledger
	policy   PointsPolicy
	log      *logging.Logger
	validate *validator.Validate
	tracer   trace.Tracer
}

// NewTracker creates a Tracker. ledger must share repo.
func NewTracker(repo store.Repository, ledger *gamification.Ledger, policy PointsPolicy, log *logging.Logger) *Tracker {
	if log == nil {
		log = logging.Nop()
	}
	return &Tracker{
		repo:     repo,
		ledger:   ledger,
		policy:   policy,
		log:      log.With("component", "tracker"),
		validate: validator.New(validator.WithRequiredStructEnabled()),
		tracer:   otel.Tracer("github.com/abhisek/examcoach/internal/progress"),
	}
}

// RecordAttempt upserts the (student, subject, topic) record and awards
// practice points in one transaction.
func (t *Tracker) RecordAttempt(ctx context.Context, a Attempt) (*AttemptResult, error) {
	ctx, span := t.tracer.Start(ctx, "tracker.RecordAttempt", trace.WithAttributes(
		attribute.String("subject", a.Subject),
		attribute.Bool("correct", a.IsCorrect),
	))
	defer span.End()

	if err := t.validate.Struct(a); err != nil {
		span.SetStatus(codes.Error, "invalid attempt")
		return nil, fmt.Errorf("%w: %v", gamification.ErrInvalidInput, err)
	}

	var rec store.ProgressRecord
	upsert := func(tx store.Repository) error {
		r, err := t.upsert(ctx, tx, a)
		if err != nil {
			return fmt.Errorf("upsert progress: %w", err)
		}
		rec = *r
		return nil
	}

	res := &AttemptResult{}
	points := t.policy.pointsFor(a.IsCorrect)
	if points > 0 {
		award, err := t.ledger.AddPointsWith(ctx, gamification.Award{
			StudentID: a.StudentID,
			Points:    points,
			Reason:    ReasonPractice,
		}, upsert)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		res.Award = award
	} else if err := t.repo.Atomically(ctx, a.StudentID, upsert); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	res.Record = rec

	t.log.Debug("attempt recorded",
		"student_id", a.StudentID,
		"subject", a.Subject,
		"topic", a.Topic,
		"correct", a.IsCorrect,
		"attempts", rec.Attempts,
		"accuracy", Accuracy(&rec),
	)
	return res, nil
}

func (t *Tracker) upsert(ctx context.Context, tx store.Repository, a Attempt) (*store.ProgressRecord, error) {
	r, err := tx.GetProgressRecord(ctx, a.StudentID, a.Subject, a.Topic)
	if err != nil {
		return nil, err
	}
	if r == nil {
		r = &store.ProgressRecord{StudentID: a.StudentID, Subject: a.Subject, Topic: a.Topic}
	}
	r.Attempts++
	if a.IsCorrect {
		r.CorrectAttempts++
	}
	r.LastFeedback = a.Feedback
	r.UpdatedAt = t.ledger.Clock().Now()
	if err := tx.SaveProgress(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Records lists the student's progress, optionally for one subject.
func (t *Tracker) Records(ctx context.Context, studentID, subject string) ([]store.ProgressRecord, error) {
	return t.repo.GetProgress(ctx, studentID, subject)
}
