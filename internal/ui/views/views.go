// Package views renders coach results for the terminal.
package views

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/examcoach/internal/coach"
	"github.com/abhisek/examcoach/internal/gamification"
	"github.com/abhisek/examcoach/internal/progress"
	"github.com/abhisek/examcoach/internal/store"
	"github.com/abhisek/examcoach/internal/ui/components"
	"github.com/abhisek/examcoach/internal/ui/theme"
)

const (
	barWidth   = 40
	timeLayout = "2006-01-02 15:04"
	dateLayout = "2006-01-02"
)

func field(label, value string) string {
	return theme.Label.Render(fmt.Sprintf("%-14s", label)) + theme.Value.Render(value)
}

// Award renders the outcome of one point award: the points, the new
// totals and any badges unlocked along the way.
func Award(r *gamification.Result) string {
	if r == nil {
		return theme.Hint.Render("No points awarded.")
	}
	lines := []string{
		theme.Highlight.Render(fmt.Sprintf("+%d points", r.Points)) + theme.Label.Render(" ("+r.Reason+")"),
		field("Total", strconv.Itoa(r.Profile.TotalPoints)),
		field("Level", strconv.Itoa(r.Profile.Level)),
		field("Streak", streak(r.Profile.CurrentStreak)),
	}
	if r.StreakReset {
		lines = append(lines, theme.Warn.Render("Streak restarted. Keep going!"))
	}
	for _, b := range r.NewBadges {
		lines = append(lines, theme.Good.Render(fmt.Sprintf("%s Badge unlocked: %s", b.Icon, b.Name)))
	}
	return strings.Join(lines, "\n")
}

func streak(days int) string {
	if days == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", days)
}

// LevelBar renders progress through the current level.
func LevelBar(lp gamification.LevelProgress) string {
	label := fmt.Sprintf("Level %d", lp.Level)
	bar := components.NewProgressBar(label, float64(lp.PercentDone)/100, true, barWidth)
	return bar.View() + "\n" + theme.Hint.Render(fmt.Sprintf("%d points to level %d", lp.ToNextLevel, lp.Level+1))
}

// Summary renders the student overview card.
func Summary(s *coach.StudentSummary) string {
	p := s.Profile
	var b strings.Builder
	b.WriteString(theme.Title.Render(p.StudentID))
	b.WriteString("\n\n")
	b.WriteString(field("Points", strconv.Itoa(p.TotalPoints)) + "\n")
	b.WriteString(field("Streak", streak(p.CurrentStreak)) + "\n")
	b.WriteString(field("Best streak", streak(p.LongestStreak)) + "\n")
	if d, ok := p.LastActivity(); ok {
		b.WriteString(field("Last studied", d.Format(dateLayout)) + "\n")
	}
	b.WriteString(field("Unread", strconv.Itoa(s.Unread)) + "\n\n")
	b.WriteString(LevelBar(s.Level))

	if len(s.Badges) > 0 {
		b.WriteString("\n\n" + theme.Heading.Render("Badges") + "\n")
		b.WriteString(badgeLine(s.Badges))
	}
	if len(s.Goals) > 0 {
		b.WriteString("\n\n" + theme.Heading.Render("Next goals") + "\n")
		for _, g := range s.Goals {
			b.WriteString(fmt.Sprintf("%s %s  %s\n", g.Badge.Icon(), g.Badge,
				theme.Hint.Render(goalHint(g))))
		}
	}
	if len(s.Subjects) > 0 {
		b.WriteString("\n" + Subjects(s.Subjects))
	}
	return theme.Card.Render(strings.TrimRight(b.String(), "\n"))
}

func badgeLine(badges []store.Badge) string {
	parts := make([]string, len(badges))
	for i, b := range badges {
		parts[i] = b.Icon + " " + b.Name
	}
	return strings.Join(parts, "   ")
}

func goalHint(g gamification.Goal) string {
	switch g.Metric {
	case gamification.MetricStreak:
		return fmt.Sprintf("%d more days in a row", g.Remaining())
	case gamification.MetricLevel:
		return fmt.Sprintf("%d more levels", g.Remaining())
	default:
		return fmt.Sprintf("%d more points", g.Remaining())
	}
}

// Badges renders the full catalog, marking the earned ones.
func Badges(earned []store.Badge) string {
	got := make(map[string]store.Badge, len(earned))
	for _, b := range earned {
		got[b.Name] = b
	}
	var rows [][]string
	for _, name := range gamification.AllBadges() {
		row := []string{name.Icon(), string(name), name.Description(), ""}
		if b, ok := got[string(name)]; ok {
			row[3] = b.EarnedAt.Format(dateLayout)
		}
		rows = append(rows, row)
	}
	return components.Table([]string{"", "Badge", "How", "Earned"}, rows, func(row, col int) (lipgloss.Style, bool) {
		if col != 1 || row < 0 || row >= len(rows) {
			return lipgloss.Style{}, false
		}
		if rows[row][3] != "" {
			return theme.Good, true
		}
		return theme.Label, true
	})
}

// History renders point entries.
func History(entries []store.PointEntry) string {
	if len(entries) == 0 {
		return theme.Hint.Render("No points yet.")
	}
	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = []string{e.CreatedAt.Format(timeLayout), fmt.Sprintf("+%d", e.Points), e.Reason}
	}
	return components.Table([]string{"When", "Points", "Reason"}, rows, nil)
}

// Progress renders per-topic practice records.
func Progress(records []store.ProgressRecord) string {
	if len(records) == 0 {
		return theme.Hint.Render("No practice recorded.")
	}
	rows := make([][]string, len(records))
	statuses := make([]progress.Status, len(records))
	for i := range records {
		r := &records[i]
		statuses[i] = progress.StatusOf(r)
		rows[i] = []string{
			r.Subject, r.Topic,
			fmt.Sprintf("%d/%d", r.CorrectAttempts, r.Attempts),
			percent(progress.Accuracy(r)),
			string(statuses[i]),
		}
	}
	return components.Table([]string{"Subject", "Topic", "Correct", "Accuracy", "Status"}, rows, statusColumn(4, statuses))
}

// Subjects renders per-subject totals.
func Subjects(subjects []progress.SubjectSummary) string {
	rows := make([][]string, len(subjects))
	for i, s := range subjects {
		rows[i] = []string{s.Subject, strconv.Itoa(s.Topics), fmt.Sprintf("%d/%d", s.Correct, s.Attempts), percent(s.Accuracy)}
	}
	return components.Table([]string{"Subject", "Topics", "Correct", "Accuracy"}, rows, nil)
}

// WeakTopics renders the weak-topic dashboard.
func WeakTopics(topics []progress.TopicStatus) string {
	if len(topics) == 0 {
		return theme.Hint.Render("No weak topics found. Analyze a paper first.")
	}
	rows := make([][]string, len(topics))
	statuses := make([]progress.Status, len(topics))
	for i, t := range topics {
		statuses[i] = t.Status
		acc := "-"
		if t.Attempts > 0 {
			acc = percent(t.Accuracy)
		}
		rows[i] = []string{t.Subject, t.TopicLabel, strconv.Itoa(t.Attempts), acc, string(t.Status), t.CreatedAt.Format(dateLayout)}
	}
	return components.Table([]string{"Subject", "Topic", "Attempts", "Accuracy", "Status", "Found"}, rows, statusColumn(4, statuses))
}

func statusColumn(col int, statuses []progress.Status) components.CellStyle {
	return func(row, c int) (lipgloss.Style, bool) {
		if c != col || row < 0 || row >= len(statuses) {
			return lipgloss.Style{}, false
		}
		switch statuses[row] {
		case progress.StatusImproving:
			return theme.Good, true
		case progress.StatusNeedsPractice:
			return theme.Warn, true
		default:
			return theme.Label, true
		}
	}
}

func percent(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64) + "%"
}

// Notifications renders a notification list.
func Notifications(ns []store.Notification) string {
	if len(ns) == 0 {
		return theme.Hint.Render("No notifications.")
	}
	rows := make([][]string, len(ns))
	for i, n := range ns {
		mark := "•"
		if n.IsRead {
			mark = ""
		}
		rows[i] = []string{mark, n.ID, n.CreatedAt.Format(timeLayout), n.Title, n.Message}
	}
	return components.Table([]string{"", "ID", "When", "Title", "Message"}, rows, func(row, col int) (lipgloss.Style, bool) {
		if col == 0 {
			return theme.Highlight, true
		}
		return lipgloss.Style{}, false
	})
}

// Practice renders a recorded practice attempt.
func Practice(o *coach.PracticeOutcome) string {
	verdict := theme.Bad.Render("✗ Not quite")
	if o.Correct {
		verdict = theme.Good.Render("✓ Correct")
	}
	lines := []string{verdict}
	if o.Feedback != "" {
		lines = append(lines, theme.Hint.Render(o.Feedback))
	}
	if o.Attempt != nil {
		r := o.Attempt.Record
		lines = append(lines, field(r.Topic, fmt.Sprintf("%d/%d correct, %s", r.CorrectAttempts, r.Attempts, progress.StatusOf(&r))))
		if o.Attempt.Award != nil {
			lines = append(lines, "", Award(o.Attempt.Award))
		}
	}
	return strings.Join(lines, "\n")
}

// Paper renders a stored analysis and its weak topics.
func Paper(o *coach.PaperOutcome) string {
	var b strings.Builder
	b.WriteString(theme.Label.Render("Analysis " + o.Analysis.ID))
	b.WriteString("\n")
	if len(o.WeakTopics) == 0 {
		b.WriteString(theme.Hint.Render("No areas for improvement found."))
	} else {
		b.WriteString(theme.Heading.Render("Areas for improvement") + "\n")
		for _, t := range o.WeakTopics {
			b.WriteString("  • " + t + "\n")
		}
	}
	if o.Award != nil {
		b.WriteString("\n" + Award(o.Award))
	}
	return strings.TrimRight(b.String(), "\n")
}

// QuizGrade renders a graded quiz.
func QuizGrade(o *coach.QuizGradeOutcome) string {
	out := theme.Heading.Render(o.Notification.Title) + "\n" + o.Notification.Message
	if o.Award != nil {
		out += "\n\n" + Award(o.Award)
	}
	return out
}

// LLMEvents renders recorded model calls.
func LLMEvents(events []store.LLMRequestEvent) string {
	if len(events) == 0 {
		return theme.Hint.Render("No LLM events recorded.")
	}
	rows := make([][]string, len(events))
	for i, e := range events {
		status := "ok"
		if !e.Success {
			status = "error"
		}
		rows[i] = []string{
			strconv.Itoa(e.ID), e.Timestamp.Local().Format(timeLayout), e.Purpose, e.Model,
			strconv.Itoa(e.InputTokens), strconv.Itoa(e.OutputTokens),
			(time.Duration(e.LatencyMs) * time.Millisecond).String(), status,
		}
	}
	return components.Table([]string{"ID", "Time", "Purpose", "Model", "In", "Out", "Latency", "Status"}, rows,
		func(row, col int) (lipgloss.Style, bool) {
			if col == 7 && row >= 0 && row < len(rows) && rows[row][7] == "error" {
				return theme.Bad, true
			}
			return lipgloss.Style{}, false
		})
}
