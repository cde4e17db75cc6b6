package progress

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/examcoach/internal/logging"
	"github.com/abhisek/examcoach/internal/store"
)

const (
	firstPaper = `1. SCORE SUMMARY
Scored 31/50.

2. AREAS FOR IMPROVEMENT:
- Adding fractions
- Long division

You're doing great!`

	secondPaper = `AREAS FOR IMPROVEMENT
* long division
* Word problems
3. Next Steps
Practice daily.`
)

func seedAnalyses(t *testing.T, repo *store.MemoryRepo) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.SaveAnalysis(ctx, &store.Analysis{
		ID: "a-1", StudentID: "stu-9", Subject: "Maths", Text: firstPaper, CreatedAt: base,
	}))
	require.NoError(t, repo.SaveAnalysis(ctx, &store.Analysis{
		ID: "a-2", StudentID: "stu-9", Subject: "Maths", Text: secondPaper, CreatedAt: base.Add(48 * time.Hour),
	}))
	require.NoError(t, repo.SaveAnalysis(ctx, &store.Analysis{
		ID: "a-3", StudentID: "stu-9", Subject: "English", Text: "AREAS FOR IMPROVEMENT:\n- Commas\n", CreatedAt: base.Add(time.Hour),
	}))
}

func TestWeakTopicsKeepsDuplicates(t *testing.T) {
	entries := WeakTopics([]store.Analysis{
		{ID: "a-1", Subject: "Maths", Text: firstPaper},
		{ID: "a-2", Subject: "Maths", Text: secondPaper},
	})
	require.Len(t, entries, 4)
	assert.Equal(t, "Adding fractions", entries[0].TopicLabel)
	assert.Equal(t, "a-1", entries[0].SourceAnalysisID)
	assert.Equal(t, "long division", entries[2].TopicLabel)
	assert.Equal(t, "a-2", entries[2].SourceAnalysisID)
}

func TestDedupeKeepsFirstAppearance(t *testing.T) {
	in := []WeakTopicEntry{
		{Subject: "Maths", TopicLabel: "Long division", SourceAnalysisID: "a-1"},
		{Subject: "Maths", TopicLabel: "long division ", SourceAnalysisID: "a-2"},
		{Subject: "Science", TopicLabel: "Long division", SourceAnalysisID: "a-3"},
	}
	out := Dedupe(in)
	require.Len(t, out, 2)
	assert.Equal(t, "a-1", out[0].SourceAnalysisID)
	assert.Equal(t, "Science", out[1].Subject)
}

func TestDashboardJoinsProgress(t *testing.T) {
	tr, repo := newTracker(t, DefaultPointsPolicy())
	seedAnalyses(t, repo)
	ctx := context.Background()

	for _, ok := range []bool{true, true, true, false} {
		_, err := tr.RecordAttempt(ctx, attempt("Adding fractions", ok))
		require.NoError(t, err)
	}
	for _, ok := range []bool{false, true} {
		_, err := tr.RecordAttempt(ctx, attempt("Long division", ok))
		require.NoError(t, err)
	}

	d := NewDashboard(repo, repo, logging.Nop())
	rows, err := d.WeakTopics(ctx, "stu-9", "Maths")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "Adding fractions", rows[0].TopicLabel)
	assert.Equal(t, 4, rows[0].Attempts)
	assert.Equal(t, 75.0, rows[0].Accuracy)
	assert.Equal(t, StatusImproving, rows[0].Status)

	assert.Equal(t, "Long division", rows[1].TopicLabel)
	assert.Equal(t, 50.0, rows[1].Accuracy)
	assert.Equal(t, StatusNeedsPractice, rows[1].Status)

	assert.Equal(t, "Word problems", rows[2].TopicLabel)
	assert.Equal(t, "a-2", rows[2].SourceAnalysisID)
	assert.Equal(t, StatusNotStarted, rows[2].Status)
	assert.Zero(t, rows[2].Attempts)
}

func TestDashboardAllSubjects(t *testing.T) {
	repo := store.NewMemoryRepo()
	seedAnalyses(t, repo)

	d := NewDashboard(repo, repo, nil)
	rows, err := d.WeakTopics(context.Background(), "stu-9", "")
	require.NoError(t, err)

	var labels []string
	for _, r := range rows {
		labels = append(labels, r.Subject+"/"+r.TopicLabel)
	}
	assert.Equal(t, []string{
		"Maths/Adding fractions",
		"Maths/Long division",
		"English/Commas",
		"Maths/Word problems",
	}, labels)
}

type failingSource struct{}

var errSourceDown = errors.New("analysis store down")

func (failingSource) ListAnalyses(context.Context, string, string) ([]store.Analysis, error) {
	return nil, errSourceDown
}

func TestDashboardPropagatesErrors(t *testing.T) {
	d := NewDashboard(failingSource{}, store.NewMemoryRepo(), nil)
	_, err := d.WeakTopics(context.Background(), "stu-9", "")
	assert.ErrorIs(t, err, errSourceDown)
}

func TestSummarize(t *testing.T) {
	out := Summarize([]store.ProgressRecord{
		{Subject: "Science", Topic: "Forces", Attempts: 2, CorrectAttempts: 1},
		{Subject: "Maths", Topic: "Fractions", Attempts: 4, CorrectAttempts: 3},
		{Subject: "Maths", Topic: "Decimals", Attempts: 2, CorrectAttempts: 2},
	})
	require.Len(t, out, 2)
	assert.Equal(t, SubjectSummary{Subject: "Maths", Topics: 2, Attempts: 6, Correct: 5, Accuracy: 83.3}, out[0])
	assert.Equal(t, "Science", out[1].Subject)
	assert.Equal(t, 50.0, out[1].Accuracy)
}
