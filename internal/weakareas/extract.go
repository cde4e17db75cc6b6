// Package weakareas pulls the "areas for improvement" topic list out of
// free-text assessment feedback.
//
// The parse is structural and best effort. Input that does not have the
// expected shape yields fewer topics or none at all, never an error.
package weakareas

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxTopicLen is the exclusive upper bound, in characters, for a line to
// count as a topic.
const MaxTopicLen = 100

var (
	header = regexp.MustCompile(`(?i)areas[ \t]+for[ \t]+improvement[ \t]*[:\-–—]?`)

	// Right bound of the section: the next numbered header, e.g. "4. Next Steps"
	// or "4. next steps".
	nextSection = regexp.MustCompile(`(?mi)^[ \t]*\d+\.\s+[a-z]`)

	numberedLine = regexp.MustCompile(`(?i)^\d+[.)]\s+[a-z]`)

	// A capitalised word anywhere before a closing "!": "- Excellent progress!",
	// "Good effort. Keep Going!".
	exclaimed = regexp.MustCompile(`[A-Z][a-z]+.*!$`)
	bullet       = regexp.MustCompile(`^(?:[-*•·+◦▪►]+[ \t]*)+`)
	glyphsOnly   = regexp.MustCompile(`^[-*•·+◦▪►_#=\s]+$`)
)

// Extract returns the topics listed under the first AREAS FOR IMPROVEMENT
// header in text, in order of appearance. Duplicates are kept.
func Extract(text string) []string {
	span, ok := section(text)
	if !ok {
		return nil
	}

	var topics []string
	for _, raw := range strings.Split(span, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || glyphsOnly.MatchString(line) {
			continue
		}
		if stopsList(line) {
			break
		}
		topic := cleanTopic(line)
		if topic == "" || utf8.RuneCountInString(topic) >= MaxTopicLen {
			continue
		}
		topics = append(topics, topic)
	}
	return topics
}

// section returns the text between the header and the next numbered
// section header or the end of input.
func section(text string) (string, bool) {
	loc := header.FindStringIndex(text)
	if loc == nil {
		return "", false
	}
	rest := text[loc[1]:]
	if end := nextSection.FindStringIndex(rest); end != nil {
		rest = rest[:end[0]]
	}
	return rest, true
}

// stopsList reports whether line marks the end of the topic list:
// encouragement prose, a table row or a numbered recommendation.
func stopsList(line string) bool {
	switch {
	case strings.HasPrefix(line, "You're"), strings.HasPrefix(line, "You’re"):
		return true
	case strings.HasPrefix(line, "|"):
		return true
	case numberedLine.MatchString(line):
		return true
	case exclaimed.MatchString(line):
		return true
	}
	return false
}

func cleanTopic(line string) string {
	t := bullet.ReplaceAllString(line, "")
	t = strings.ReplaceAll(t, "**", "")
	return strings.TrimSpace(t)
}
