// Package grading turns free-text evaluator feedback into a correct or
// incorrect verdict.
package grading

import (
	"regexp"
	"strings"
)

// Rule inspects normalized feedback text. It returns the verdict and true
// when it applies, or false to defer to the next rule.
type Rule interface {
	Name() string
	Apply(text string) (correct bool, ok bool)
}

// DefaultRules returns the rules in priority order. Negative wording is
// checked before positive wording, so mixed feedback grades as incorrect.
func DefaultRules() []Rule {
	return []Rule{
		prefixRule{name: "leading-correct", prefixes: []string{"correct"}, verdict: true},
		prefixRule{name: "leading-partial", prefixes: []string{"partially"}, verdict: false},
		prefixRule{name: "leading-incorrect", prefixes: []string{"incorrect", "wrong"}, verdict: false},
		patternRule{name: "negative-words", re: negativeWords, verdict: false},
		patternRule{name: "positive-words", re: positiveWords, verdict: true},
	}
}

var (
	// "not correct" also matches with one word in between ("not entirely correct").
	negativeWords = regexp.MustCompile(`\b(?:incorrect|wrong|not\s+(?:\w+\s+)?(?:correct|right))\b`)
	positiveWords = regexp.MustCompile(`\b(?:right|well done|excellent|perfect|great job)\b|^correct\b`)
)

var defaultRules = DefaultRules()

// Classify reports whether feedback says the answer was correct. Text no
// rule recognizes grades as incorrect.
func Classify(feedback string) bool {
	correct, _ := RunRules(defaultRules, feedback)
	return correct
}

// RunRules applies rules in order to the trimmed, lower-cased feedback and
// returns the first verdict with the name of the rule that produced it.
// It returns (false, "") when no rule applies.
func RunRules(rules []Rule, feedback string) (bool, string) {
	text := strings.ToLower(strings.TrimSpace(feedback))
	for _, r := range rules {
		if correct, ok := r.Apply(text); ok {
			return correct, r.Name()
		}
	}
	return false, ""
}

type prefixRule struct {
	name     string
	prefixes []string
	verdict  bool
}

func (r prefixRule) Name() string { return r.name }

func (r prefixRule) Apply(text string) (bool, bool) {
	for _, p := range r.prefixes {
		if strings.HasPrefix(text, p) {
			return r.verdict, true
		}
	}
	return false, false
}

type patternRule struct {
	name    string
	re      *regexp.Regexp
	verdict bool
}

func (r patternRule) Name() string { return r.name }

func (r patternRule) Apply(text string) (bool, bool) {
	if r.re.MatchString(text) {
		return r.verdict, true
	}
	return false, false
}
