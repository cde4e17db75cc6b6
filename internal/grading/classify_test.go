package grading

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		feedback string
		want     bool
	}{
		{"CORRECT! Great job.", true},
		{"Incorrect, the answer is 5.", false},
		{"Partially right, missing a step.", false},
		{"  correct, nicely explained", true},
		{"Wrong: 7 x 8 is 56.", false},
		{"Well done, that is right.", true},
		{"Excellent work on the second step.", true},
		{"Perfect.", true},
		{"That answer is wrong.", false},
		{"This is not correct.", false},
		{"Not right, check the units.", false},
		{"not entirely correct but well done", false},
		{"not quite right, try again", false},
		{"Your answer is incorrect but well explained, great job trying", false},
		{"Brightly presented", false},
		{"The method is fine.", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.feedback, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.feedback))
		})
	}
}

func TestRunRulesReportsMatchingRule(t *testing.T) {
	tests := []struct {
		feedback string
		want     string
	}{
		{"Correct!", "leading-correct"},
		{"Partially correct", "leading-partial"},
		{"wrong answer", "leading-incorrect"},
		{"Almost, but not right", "negative-words"},
		{"Great job!", "positive-words"},
		{"Hmm.", ""},
	}

	for _, tt := range tests {
		t.Run(tt.feedback, func(t *testing.T) {
			_, name := RunRules(DefaultRules(), tt.feedback)
			assert.Equal(t, tt.want, name)
		})
	}
}

func TestRunRulesEmptyRuleSet(t *testing.T) {
	correct, name := RunRules(nil, "Correct!")
	assert.False(t, correct)
	assert.Empty(t, name)
}
