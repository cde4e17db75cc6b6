package progress

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/examcoach/internal/gamification"
	"github.com/abhisek/examcoach/internal/logging"
	"github.com/abhisek/examcoach/internal/store"
)

func newTracker(t *testing.T, policy PointsPolicy) (*Tracker, *store.MemoryRepo) {
	t.Helper()
	repo := store.NewMemoryRepo()
	clock := gamification.NewFixedClock(time.Date(2026, 5, 4, 16, 0, 0, 0, time.UTC))
	ledger := gamification.NewLedger(repo, clock, logging.Nop())
	return NewTracker(repo, ledger, policy, logging.Nop()), repo
}

func attempt(topic string, correct bool) Attempt {
	return Attempt{StudentID: "stu-9", Subject: "Maths", Topic: topic, IsCorrect: correct, Feedback: "fb"}
}

func TestRecordAttemptCreatesAndUpdates(t *testing.T) {
	tr, repo := newTracker(t, DefaultPointsPolicy())
	ctx := context.Background()

	res, err := tr.RecordAttempt(ctx, attempt("Fractions", true))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Record.Attempts)
	assert.Equal(t, 1, res.Record.CorrectAttempts)
	require.NotNil(t, res.Award)
	assert.Equal(t, 5, res.Award.Points)

	a := attempt("Fractions", false)
	a.Feedback = "Incorrect, check the denominator."
	res, err = tr.RecordAttempt(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Record.Attempts)
	assert.Equal(t, 1, res.Record.CorrectAttempts)
	assert.Equal(t, "Incorrect, check the denominator.", res.Record.LastFeedback)
	assert.Equal(t, 2, res.Award.Points)

	p, err := repo.GetProfile(ctx, "stu-9")
	require.NoError(t, err)
	assert.Equal(t, 7, p.TotalPoints)

	history, err := repo.ListPoints(ctx, "stu-9", 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, ReasonPractice, history[0].Reason)
}

func TestRecordAttemptKeepsCorrectAtMostAttempts(t *testing.T) {
	tr, _ := newTracker(t, DefaultPointsPolicy())
	ctx := context.Background()

	outcomes := []bool{true, false, true, true, false, false, true}
	for i, ok := range outcomes {
		res, err := tr.RecordAttempt(ctx, attempt("Decimals", ok))
		require.NoError(t, err)
		assert.Equal(t, i+1, res.Record.Attempts)
		assert.LessOrEqual(t, res.Record.CorrectAttempts, res.Record.Attempts)
	}

	recs, err := tr.Records(ctx, "stu-9", "Maths")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 4, recs[0].CorrectAttempts)
	assert.Equal(t, 57.1, Accuracy(&recs[0]))
}

func TestRecordAttemptSeparatesTopics(t *testing.T) {
	tr, _ := newTracker(t, DefaultPointsPolicy())
	ctx := context.Background()

	_, err := tr.RecordAttempt(ctx, attempt("Fractions", true))
	require.NoError(t, err)
	_, err = tr.RecordAttempt(ctx, attempt("Geometry", false))
	require.NoError(t, err)
	other := attempt("Fractions", true)
	other.Subject = "Science"
	_, err = tr.RecordAttempt(ctx, other)
	require.NoError(t, err)

	all, err := tr.Records(ctx, "stu-9", "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	maths, err := tr.Records(ctx, "stu-9", "Maths")
	require.NoError(t, err)
	assert.Len(t, maths, 2)
}

func TestRecordAttemptRejectsInvalid(t *testing.T) {
	tr, repo := newTracker(t, DefaultPointsPolicy())
	ctx := context.Background()

	for _, a := range []Attempt{
		{Subject: "Maths", Topic: "Fractions"},
		{StudentID: "stu-9", Topic: "Fractions"},
		{StudentID: "stu-9", Subject: "Maths"},
	} {
		_, err := tr.RecordAttempt(ctx, a)
		assert.ErrorIs(t, err, gamification.ErrInvalidInput)
	}

	recs, err := repo.GetProgress(ctx, "stu-9", "")
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestRecordAttemptWithoutPoints(t *testing.T) {
	tr, repo := newTracker(t, PointsPolicy{Correct: 5, Incorrect: 0})
	ctx := context.Background()

	res, err := tr.RecordAttempt(ctx, attempt("Ratios", false))
	require.NoError(t, err)
	assert.Nil(t, res.Award)
	assert.Equal(t, 1, res.Record.Attempts)

	p, err := repo.GetProfile(ctx, "stu-9")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, 0, p.TotalPoints)
	assert.Nil(t, p.LastActivityDate)
}

type brokenLedgerRepo struct {
	*store.MemoryRepo
}

var errPointsDown = errors.New("points table unavailable")

func (b brokenLedgerRepo) Atomically(ctx context.Context, studentID string, fn func(tx store.Repository) error) error {
	return b.MemoryRepo.Atomically(ctx, studentID, func(tx store.Repository) error {
		return fn(brokenPointsTx{tx})
	})
}

type brokenPointsTx struct {
	store.Repository
}

func (brokenPointsTx) AppendPoints(context.Context, *store.PointEntry) error {
	return errPointsDown
}

func TestRecordAttemptRollsBackWithAward(t *testing.T) {
	mem := store.NewMemoryRepo()
	repo := brokenLedgerRepo{mem}
	clock := gamification.NewFixedClock(time.Date(2026, 5, 4, 16, 0, 0, 0, time.UTC))
	tr := NewTracker(repo, gamification.NewLedger(repo, clock, logging.Nop()), DefaultPointsPolicy(), logging.Nop())

	_, err := tr.RecordAttempt(context.Background(), attempt("Fractions", true))
	require.ErrorIs(t, err, errPointsDown)

	recs, err := mem.GetProgress(context.Background(), "stu-9", "")
	require.NoError(t, err)
	assert.Empty(t, recs, "progress must not be kept when the award fails")
}

func TestRecordAttemptConcurrent(t *testing.T) {
	tr, _ := newTracker(t, DefaultPointsPolicy())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := tr.RecordAttempt(ctx, attempt("Fractions", i%2 == 0))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	recs, err := tr.Records(ctx, "stu-9", "Maths")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 20, recs[0].Attempts)
	assert.Equal(t, 10, recs[0].CorrectAttempts)
}
