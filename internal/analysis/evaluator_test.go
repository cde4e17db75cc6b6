package analysis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/examcoach/internal/gamification"
	"github.com/abhisek/examcoach/internal/llm"
	"github.com/abhisek/examcoach/internal/logging"
)

func answer() AnswerRequest {
	return AnswerRequest{
		Subject:        "Maths",
		Topic:          "Adding fractions",
		Question:       "What is 1/2 + 1/4?",
		Answer:         "3/4",
		ExpectedAnswer: "3/4",
	}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		feedback string
		correct  bool
		rule     string
	}{
		{"Correct! Well done.", true, "leading-correct"},
		{"Partially correct: the method is right but 2/6 is not simplified.", false, "leading-partial"},
		{"Incorrect. Find a common denominator first.", false, "leading-incorrect"},
		{"Excellent reasoning.", true, "positive-words"},
	}
	for _, tt := range tests {
		t.Run(tt.rule, func(t *testing.T) {
			mock := llm.NewMock(llm.JSONReply(map[string]string{"feedback": tt.feedback}))
			e := NewEvaluator(mock, logging.Nop())

			ev, err := e.Evaluate(context.Background(), answer())
			require.NoError(t, err)
			assert.Equal(t, tt.feedback, ev.Feedback)
			assert.Equal(t, tt.correct, ev.Correct)
			assert.Equal(t, tt.rule, ev.Rule)
		})
	}
}

func TestEvaluatePrompt(t *testing.T) {
	mock := llm.NewMock(llm.JSONReply(map[string]string{"feedback": "Correct."}))
	_, err := NewEvaluator(mock, nil).Evaluate(context.Background(), answer())
	require.NoError(t, err)

	p := mock.Prompts()[0]
	assert.Same(t, FeedbackFormat, p.Format)
	assert.Contains(t, p.User, "Topic: Adding fractions")
	assert.Contains(t, p.User, "Expected answer: 3/4")
	assert.Contains(t, p.User, "Student's answer: 3/4")
}

func TestEvaluateRejectsMalformedFeedback(t *testing.T) {
	mock := llm.NewMock(llm.Reply{Text: `{"feedback":""}`})
	_, err := NewEvaluator(mock, nil).Evaluate(context.Background(), answer())
	assert.ErrorIs(t, err, llm.ErrInvalidResponse)
}

func TestEvaluateInvalidRequest(t *testing.T) {
	mock := llm.NewMock()
	req := answer()
	req.Answer = ""
	_, err := NewEvaluator(mock, nil).Evaluate(context.Background(), req)
	assert.ErrorIs(t, err, gamification.ErrInvalidInput)
	assert.Empty(t, mock.Prompts())
}
