package coach

import (
	"context"

	"github.com/abhisek/examcoach/internal/analysis"
	"github.com/abhisek/examcoach/internal/grading"
	"github.com/abhisek/examcoach/internal/progress"
)

// PracticeAnswer is one answered practice question.
type PracticeAnswer struct {
	StudentID      string
	Subject        string
	Topic          string
	Question       string
	Answer         string
	ExpectedAnswer string
}

// PracticeOutcome is the result of a practice event.
type PracticeOutcome struct {
	Feedback string
	Correct  bool
	Attempt  *progress.AttemptResult
}

// AnswerPractice has the model evaluate the answer, then records the
// attempt and awards practice points.
func (c *Coach) AnswerPractice(ctx context.Context, a PracticeAnswer) (*PracticeOutcome, error) {
	if c.evaluator == nil {
		return nil, ErrNoModel
	}
	ev, err := c.evaluator.Evaluate(ctx, analysis.AnswerRequest{
		Subject:        a.Subject,
		Topic:          a.Topic,
		Question:       a.Question,
		Answer:         a.Answer,
		ExpectedAnswer: a.ExpectedAnswer,
	})
	if err != nil {
		return nil, err
	}
	return c.record(ctx, a.StudentID, a.Subject, a.Topic, ev.Feedback, ev.Correct)
}

// PracticeAnswered records an attempt whose feedback was produced
// elsewhere. Correctness is read from the feedback text.
func (c *Coach) PracticeAnswered(ctx context.Context, studentID, subject, topic, feedback string) (*PracticeOutcome, error) {
	return c.record(ctx, studentID, subject, topic, feedback, grading.Classify(feedback))
}

func (c *Coach) record(ctx context.Context, studentID, subject, topic, feedback string, correct bool) (*PracticeOutcome, error) {
	res, err := c.tracker.RecordAttempt(ctx, progress.Attempt{
		StudentID: studentID,
		Subject:   subject,
		Topic:     topic,
		IsCorrect: correct,
		Feedback:  feedback,
	})
	if err != nil {
		return nil, err
	}
	return &PracticeOutcome{Feedback: feedback, Correct: correct, Attempt: res}, nil
}
