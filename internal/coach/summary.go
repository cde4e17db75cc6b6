package coach

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/abhisek/examcoach/internal/gamification"
	"github.com/abhisek/examcoach/internal/progress"
	"github.com/abhisek/examcoach/internal/store"
)

// Notifications lists a user's notifications, newest first.
func (c *Coach) Notifications(ctx context.Context, userID string, unreadOnly bool) ([]store.Notification, error) {
	return c.repo.ListNotifications(ctx, userID, unreadOnly)
}

// MarkRead marks one notification read. It returns store.ErrNotFound if
// the user has no notification with that ID.
func (c *Coach) MarkRead(ctx context.Context, userID, id string) error {
	return c.repo.MarkNotificationRead(ctx, userID, id)
}

// WeakTopics is the weak-topic dashboard for a student. An empty subject
// covers all subjects.
func (c *Coach) WeakTopics(ctx context.Context, studentID, subject string) ([]progress.TopicStatus, error) {
	return c.dashboard.WeakTopics(ctx, studentID, subject)
}

// Progress lists the student's per-topic records.
func (c *Coach) Progress(ctx context.Context, studentID, subject string) ([]store.ProgressRecord, error) {
	return c.tracker.Records(ctx, studentID, subject)
}

// StudentSummary is the overview shown to a student, parent or teacher.
type StudentSummary struct {
	Profile  store.Profile
	Level    gamification.LevelProgress
	Badges   []store.Badge
	Goals    []gamification.Goal
	Subjects []progress.SubjectSummary
	Unread   int
}

// Summary gathers the student's profile, badges, goals, per-subject
// progress and unread notification count.
func (c *Coach) Summary(ctx context.Context, studentID string) (*StudentSummary, error) {
	var (
		s       StudentSummary
		records []store.ProgressRecord
		unread  []store.Notification
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := c.ledger.Profile(gctx, studentID)
		if err != nil {
			return err
		}
		s.Profile = *p
		return nil
	})
	g.Go(func() error {
		var err error
		s.Badges, err = c.ledger.Badges(gctx, studentID)
		return err
	})
	g.Go(func() error {
		var err error
		s.Goals, err = c.ledger.Goals(gctx, studentID)
		return err
	})
	g.Go(func() error {
		var err error
		records, err = c.tracker.Records(gctx, studentID, "")
		return err
	})
	g.Go(func() error {
		var err error
		unread, err = c.repo.ListNotifications(gctx, studentID, true)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.Level = gamification.ProgressFor(s.Profile.TotalPoints)
	s.Subjects = progress.Summarize(records)
	s.Unread = len(unread)
	return &s, nil
}
