package coach

import (
	"context"
	"fmt"
	"math"

	"github.com/abhisek/examcoach/internal/gamification"
	"github.com/abhisek/examcoach/internal/store"
)

// QuizSubmission is a completed quiz handed in for marking.
type QuizSubmission struct {
	StudentID string `validate:"required,max=64"`
	Subject   string `validate:"required,max=128"`
	Title     string `validate:"max=255"`
	Questions int    `validate:"gte=0"`
}

// SubmitQuiz awards the quiz-submitted points.
func (c *Coach) SubmitQuiz(ctx context.Context, q QuizSubmission) (*gamification.Result, error) {
	if err := c.validate.Struct(q); err != nil {
		return nil, fmt.Errorf("%w: %v", gamification.ErrInvalidInput, err)
	}
	return c.ledger.AddPoints(ctx, gamification.Award{
		StudentID: q.StudentID,
		Points:    c.points.QuizSubmitted,
		Reason:    ReasonQuizSubmitted,
	})
}

// QuizGrade is the marked result of a quiz.
type QuizGrade struct {
	StudentID    string  `validate:"required,max=64"`
	Subject      string  `validate:"required,max=128"`
	Title        string  `validate:"max=255"`
	ScorePercent float64 `validate:"gte=0,lte=100"`
}

// QuizGradeOutcome is the result of grading a quiz.
type QuizGradeOutcome struct {
	BonusPoints  int
	Notification store.Notification

	// Award is nil when the score earned no bonus.
	Award *gamification.Result
}

// BonusFor returns the score bonus: the configured maximum scaled by the
// score percentage and rounded to the nearest point.
func BonusFor(scorePercent float64, maxBonus int) int {
	return int(math.Round(scorePercent * float64(maxBonus) / 100))
}

// GradeQuiz notifies the student of the result and awards the score
// bonus, together.
func (c *Coach) GradeQuiz(ctx context.Context, g QuizGrade) (*QuizGradeOutcome, error) {
	if err := c.validate.Struct(g); err != nil {
		return nil, fmt.Errorf("%w: %v", gamification.ErrInvalidInput, err)
	}

	out := &QuizGradeOutcome{BonusPoints: BonusFor(g.ScorePercent, c.points.QuizScoreBonus)}
	out.Notification = store.Notification{
		UserID:    g.StudentID,
		Title:     "Quiz graded",
		Message:   quizMessage(g, out.BonusPoints),
		Type:      NotificationTypeQuiz,
		CreatedAt: c.ledger.Clock().Now(),
	}
	notify := func(tx store.Repository) error {
		return tx.SaveNotification(ctx, &out.Notification)
	}

	if out.BonusPoints <= 0 {
		if err := c.repo.Atomically(ctx, g.StudentID, notify); err != nil {
			return nil, err
		}
		return out, nil
	}

	award, err := c.ledger.AddPointsWith(ctx, gamification.Award{
		StudentID: g.StudentID,
		Points:    out.BonusPoints,
		Reason:    ReasonQuizGraded,
	}, notify)
	if err != nil {
		return nil, err
	}
	out.Award = award
	return out, nil
}

func quizMessage(g QuizGrade, bonus int) string {
	name := g.Subject + " quiz"
	if g.Title != "" {
		name = fmt.Sprintf("%s quiz %q", g.Subject, g.Title)
	}
	msg := fmt.Sprintf("Your %s scored %.0f%%.", name, g.ScorePercent)
	if bonus > 0 {
		msg += fmt.Sprintf(" +%d bonus points.", bonus)
	}
	return msg
}
