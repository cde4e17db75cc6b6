package progress

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/abhisek/examcoach/internal/logging"
	"github.com/abhisek/examcoach/internal/store"
	"github.com/abhisek/examcoach/internal/weakareas"
)

// AnalysisSource supplies stored analysis text.
type AnalysisSource interface {
	ListAnalyses(ctx context.Context, studentID, subject string) ([]store.Analysis, error)
}

// WeakTopicEntry is a topic extracted from one stored analysis.
type WeakTopicEntry struct {
	Subject          string
	TopicLabel       string
	SourceAnalysisID string
	CreatedAt        time.Time
}

// WeakTopics re-parses each analysis, in the given order, and returns
// every extracted topic. Duplicates are kept.
func WeakTopics(analyses []store.Analysis) []WeakTopicEntry {
	var out []WeakTopicEntry
	for _, a := range analyses {
		for _, topic := range weakareas.Extract(a.Text) {
			out = append(out, WeakTopicEntry{
				Subject:          a.Subject,
				TopicLabel:       topic,
				SourceAnalysisID: a.ID,
				CreatedAt:        a.CreatedAt,
			})
		}
	}
	return out
}

// Dedupe keeps the first entry per (subject, topic). Labels are compared
// case-insensitively.
func Dedupe(entries []WeakTopicEntry) []WeakTopicEntry {
	seen := make(map[string]bool, len(entries))
	out := make([]WeakTopicEntry, 0, len(entries))
	for _, e := range entries {
		k := topicKey(e.Subject, e.TopicLabel)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, e)
	}
	return out
}

func topicKey(subject, topic string) string {
	return strings.ToLower(strings.TrimSpace(subject)) + "\x00" + strings.ToLower(strings.TrimSpace(topic))
}

// TopicStatus is one row of the weak-topic dashboard.
type TopicStatus struct {
	WeakTopicEntry
	Attempts int
	Correct  int
	Accuracy float64
	Status   Status
}

// Dashboard joins weak topics from stored analyses with practice progress.
type Dashboard struct {
	analyses AnalysisSource
	progress store.ProgressRepo
	log      *logging.Logger
}

// NewDashboard creates a Dashboard.
func NewDashboard(analyses AnalysisSource, progress store.ProgressRepo, log *logging.Logger) *Dashboard {
	if log == nil {
		log = logging.Nop()
	}
	return &Dashboard{analyses: analyses, progress: progress, log: log.With("component", "dashboard")}
}

// WeakTopics returns the student's de-duplicated weak topics with their
// practice status, in order of first appearance. An empty subject covers
// all subjects.
func (d *Dashboard) WeakTopics(ctx context.Context, studentID, subject string) ([]TopicStatus, error) {
	ctx, span := otel.Tracer("github.com/abhisek/examcoach/internal/progress").Start(ctx, "dashboard.WeakTopics")
	defer span.End()

	var (
		analyses []store.Analysis
		records  []store.ProgressRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		analyses, err = d.analyses.ListAnalyses(gctx, studentID, subject)
		return err
	})
	g.Go(func() error {
		var err error
		records, err = d.progress.GetProgress(gctx, studentID, subject)
		return err
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	// Oldest analysis first so the earliest mention wins.
	sort.SliceStable(analyses, func(i, j int) bool {
		return analyses[i].CreatedAt.Before(analyses[j].CreatedAt)
	})

	byKey := make(map[string]*store.ProgressRecord, len(records))
	for i := range records {
		byKey[topicKey(records[i].Subject, records[i].Topic)] = &records[i]
	}

	entries := Dedupe(WeakTopics(analyses))
	out := make([]TopicStatus, 0, len(entries))
	for _, e := range entries {
		ts := TopicStatus{WeakTopicEntry: e}
		rec := byKey[topicKey(e.Subject, e.TopicLabel)]
		if rec != nil {
			ts.Attempts = rec.Attempts
			ts.Correct = rec.CorrectAttempts
		}
		ts.Accuracy = Accuracy(rec)
		ts.Status = StatusOf(rec)
		out = append(out, ts)
	}

	span.SetAttributes(
		attribute.Int("analyses", len(analyses)),
		attribute.Int("topics", len(out)),
	)
	d.log.Debug("weak topics loaded", "student_id", studentID, "subject", subject, "topics", len(out))
	return out, nil
}

// SubjectSummary aggregates progress records for one subject.
type SubjectSummary struct {
	Subject  string
	Topics   int
	Attempts int
	Correct  int
	Accuracy float64
}

// Summarize groups records by subject, sorted by subject name.
func Summarize(records []store.ProgressRecord) []SubjectSummary {
	bySubject := make(map[string]*SubjectSummary)
	var order []string
	for _, r := range records {
		s, ok := bySubject[r.Subject]
		if !ok {
			s = &SubjectSummary{Subject: r.Subject}
			bySubject[r.Subject] = s
			order = append(order, r.Subject)
		}
		s.Topics++
		s.Attempts += r.Attempts
		s.Correct += r.CorrectAttempts
	}
	sort.Strings(order)

	out := make([]SubjectSummary, 0, len(order))
	for _, name := range order {
		s := bySubject[name]
		s.Accuracy = Accuracy(&store.ProgressRecord{Attempts: s.Attempts, CorrectAttempts: s.Correct})
		out = append(out, *s)
	}
	return out
}
