package analysis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/examcoach/internal/gamification"
	"github.com/abhisek/examcoach/internal/llm"
	"github.com/abhisek/examcoach/internal/logging"
)

const sampleAnalysis = `1. OVERALL PERFORMANCE
Scored 34/50 with steady working.

2. STRENGTHS
- Mental arithmetic

3. AREAS FOR IMPROVEMENT:
- Adding fractions
- Long division

You're doing great!

4. RECOMMENDATIONS
1. Practise fractions daily.`

func TestAnalyzePaper(t *testing.T) {
	mock := llm.NewMock(llm.Reply{Text: "  " + sampleAnalysis + "\n"})
	clock := gamification.NewFixedClock(time.Date(2026, 6, 1, 8, 30, 0, 0, time.UTC))
	a := NewAnalyzer(mock, clock, logging.Nop())

	out, err := a.AnalyzePaper(context.Background(), PaperRequest{
		StudentID:  "stu-3",
		Subject:    "Maths",
		GradeLevel: "Year 5",
		PaperText:  "Q1 3/4 + 1/8 = 4/12 (x)",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Adding fractions", "Long division"}, out.WeakTopics)
	assert.Equal(t, sampleAnalysis, out.Analysis.Text)
	assert.Equal(t, "stu-3", out.Analysis.StudentID)
	assert.Equal(t, "Maths", out.Analysis.Subject)
	assert.NotEmpty(t, out.Analysis.ID)
	assert.True(t, out.Analysis.CreatedAt.Equal(clock.Now()))

	prompts := mock.Prompts()
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0].System, "AREAS FOR IMPROVEMENT")
	assert.Contains(t, prompts[0].User, "Subject: Maths\nGrade level: Year 5")
	assert.Contains(t, prompts[0].User, "3/4 + 1/8")
	assert.Nil(t, prompts[0].Format)
}

func TestAnalyzePaperWithoutGrade(t *testing.T) {
	mock := llm.NewMock(llm.Reply{Text: "No issues found."})
	a := NewAnalyzer(mock, nil, nil)

	out, err := a.AnalyzePaper(context.Background(), PaperRequest{StudentID: "s", Subject: "English", PaperText: "essay"})
	require.NoError(t, err)
	assert.Empty(t, out.WeakTopics)
	assert.NotContains(t, mock.Prompts()[0].User, "Grade level")
}

func TestAnalyzePaperInvalid(t *testing.T) {
	mock := llm.NewMock()
	a := NewAnalyzer(mock, nil, nil)

	_, err := a.AnalyzePaper(context.Background(), PaperRequest{StudentID: "s", Subject: "Maths"})
	assert.ErrorIs(t, err, gamification.ErrInvalidInput)
	assert.Empty(t, mock.Prompts(), "no model call for invalid input")
}

func TestAnalyzePaperEmptyCompletion(t *testing.T) {
	a := NewAnalyzer(llm.NewMock(llm.Reply{Text: "   "}), nil, nil)
	_, err := a.AnalyzePaper(context.Background(), PaperRequest{StudentID: "s", Subject: "Maths", PaperText: "p"})
	assert.ErrorIs(t, err, llm.ErrInvalidResponse)
}

func TestAnalyzePaperProviderError(t *testing.T) {
	a := NewAnalyzer(llm.NewMock(), nil, nil)
	_, err := a.AnalyzePaper(context.Background(), PaperRequest{StudentID: "s", Subject: "Maths", PaperText: "p"})
	assert.ErrorIs(t, err, llm.ErrProviderUnavailable)
}
