package gamification

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/abhisek/examcoach/internal/logging"
	"github.com/abhisek/examcoach/internal/store"
)

// NotificationTypeBadge tags notifications created for badge unlocks.
const NotificationTypeBadge = "badge"

// Award is a single point-earning event.
type Award struct {
	StudentID string `validate:"required,max=64"`
	Points    int    `validate:"gt=0"`
	Reason    string `validate:"max=255"`

	// On is the activity date. Zero means the clock's today.
	On time.Time
}

// Result is the ledger state after an award was committed.
type Result struct {
	Profile       store.Profile
	Points        int
	Reason        string
	NewBadges     []store.Badge
	Notifications []store.Notification

	// StreakReset is set when an existing streak went back to 1.
	StreakReset bool
}

// Ledger owns point totals, levels and streaks, and awards badges.
type Ledger struct {
	repo      store.Repository
	clock     Clock
	evaluator *Evaluator
	log       *logging.Logger
	metrics   *Metrics
	validate  *validator.Validate
	tracer    trace.Tracer
}

// NewLedger creates a Ledger with the default badge rules.
func NewLedger(repo store.Repository, clock Clock, log *logging.Logger) *Ledger {
	if clock == nil {
		clock = SystemClock{}
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Ledger{
		repo:      repo,
		clock:     clock,
		evaluator: NewEvaluator(nil),
		log:       log.With("component", "ledger"),
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		tracer:    otel.Tracer("github.com/abhisek/examcoach/internal/gamification"),
	}
}

// WithMetrics attaches Prometheus collectors.
func (l *Ledger) WithMetrics(m *Metrics) *Ledger {
	l.metrics = m
	return l
}

// Evaluator returns the badge evaluator in use.
func (l *Ledger) Evaluator() *Evaluator {
	return l.evaluator
}

// Clock returns the ledger's clock.
func (l *Ledger) Clock() Clock {
	return l.clock
}

// AddPoints applies an award atomically: profile totals, streak, point
// history, badges and badge notifications are committed together or not
// at all.
func (l *Ledger) AddPoints(ctx context.Context, a Award) (*Result, error) {
	return l.AddPointsWith(ctx, a, nil)
}

// AddPointsWith is AddPoints with an extra step run first in the same
// transaction. If also fails, the award is not applied.
func (l *Ledger) AddPointsWith(ctx context.Context, a Award, also func(tx store.Repository) error) (*Result, error) {
	ctx, span := l.tracer.Start(ctx, "ledger.AddPoints", trace.WithAttributes(
		attribute.Int("points", a.Points),
		attribute.String("reason", a.Reason),
	))
	defer span.End()

	if err := l.validate.Struct(a); err != nil {
		l.metrics.failed("invalid")
		span.SetStatus(codes.Error, "invalid award")
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	var res *Result
	err := l.repo.Atomically(ctx, a.StudentID, func(tx store.Repository) error {
		if also != nil {
			if err := also(tx); err != nil {
				return err
			}
		}
		var err error
		res, err = l.apply(ctx, tx, a)
		return err
	})
	if err != nil {
		l.metrics.failed("error")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		l.log.Error("award failed", "student_id", a.StudentID, "points", a.Points, "reason", a.Reason, "error", err)
		return nil, err
	}

	l.metrics.observe(res)
	span.SetAttributes(
		attribute.Int("total_points", res.Profile.TotalPoints),
		attribute.Int("level", res.Profile.Level),
		attribute.Int("badges", len(res.NewBadges)),
	)
	l.log.Info("points awarded",
		"student_id", a.StudentID,
		"points", a.Points,
		"reason", a.Reason,
		"total", res.Profile.TotalPoints,
		"level", res.Profile.Level,
		"streak", res.Profile.CurrentStreak,
	)
	for _, b := range res.NewBadges {
		l.log.Info("badge unlocked", "student_id", a.StudentID, "badge", b.Name)
	}
	return res, nil
}

func (l *Ledger) apply(ctx context.Context, tx store.Repository, a Award) (*Result, error) {
	prof, err := tx.GetProfile(ctx, a.StudentID)
	if err != nil {
		return nil, err
	}
	if prof == nil {
		prof = &store.Profile{StudentID: a.StudentID, Level: 1}
	}

	today := l.clock.Today()
	if !a.On.IsZero() {
		today = DateOf(a.On)
	}

	var last *time.Time
	if d, ok := prof.LastActivity(); ok {
		last = &d
	}
	streak := ComputeStreak(last, today, prof.CurrentStreak, prof.LongestStreak)

	prof.TotalPoints += a.Points
	prof.Level = LevelFor(prof.TotalPoints)
	prof.CurrentStreak = streak.Current
	prof.LongestStreak = streak.Longest
	prof.SetLastActivity(today)

	if err := tx.SaveProfile(ctx, prof); err != nil {
		return nil, err
	}

	now := l.clock.Now()
	if err := tx.AppendPoints(ctx, &store.PointEntry{
		StudentID: a.StudentID,
		Points:    a.Points,
		Reason:    a.Reason,
		CreatedAt: now,
	}); err != nil {
		return nil, err
	}

	res := &Result{Points: a.Points, Reason: a.Reason}
	if last != nil {
		gap := DaysBetween(*last, today)
		res.StreakReset = gap != 0 && gap != 1
	}

	held, err := tx.GetBadges(ctx, a.StudentID)
	if err != nil {
		return nil, err
	}
	heldSet := make(map[BadgeName]bool, len(held))
	for _, b := range held {
		heldSet[BadgeName(b.Name)] = true
	}

	snap := Snapshot{TotalPoints: prof.TotalPoints, Level: prof.Level, CurrentStreak: prof.CurrentStreak}
	for _, name := range l.evaluator.Evaluate(snap, heldSet) {
		badge := store.Badge{
			StudentID:   a.StudentID,
			Name:        string(name),
			Description: name.Description(),
			Icon:        name.Icon(),
			EarnedAt:    now,
		}
		created, err := tx.SaveBadge(ctx, &badge)
		if err != nil {
			return nil, err
		}
		if !created {
			continue
		}
		n := store.Notification{
			UserID:    a.StudentID,
			Title:     "New Badge Earned!",
			Message:   fmt.Sprintf("%s You earned the %s badge: %s", name.Icon(), name, name.Description()),
			Type:      NotificationTypeBadge,
			CreatedAt: now,
		}
		if err := tx.SaveNotification(ctx, &n); err != nil {
			return nil, err
		}
		res.NewBadges = append(res.NewBadges, badge)
		res.Notifications = append(res.Notifications, n)
	}

	res.Profile = *prof
	return res, nil
}

// Profile returns the student's profile, or a zero-valued level 1 profile
// if they have not earned points yet.
func (l *Ledger) Profile(ctx context.Context, studentID string) (*store.Profile, error) {
	p, err := l.repo.GetProfile(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		p = &store.Profile{StudentID: studentID, Level: 1}
	}
	return p, nil
}

// Badges returns the badges the student holds.
func (l *Ledger) Badges(ctx context.Context, studentID string) ([]store.Badge, error) {
	return l.repo.GetBadges(ctx, studentID)
}

// History returns the most recent point entries, newest first.
func (l *Ledger) History(ctx context.Context, studentID string, limit int) ([]store.PointEntry, error) {
	return l.repo.ListPoints(ctx, studentID, limit)
}

// Goals lists the nearest unearned badge per metric for the student.
func (l *Ledger) Goals(ctx context.Context, studentID string) ([]Goal, error) {
	p, err := l.Profile(ctx, studentID)
	if err != nil {
		return nil, err
	}
	held, err := l.repo.GetBadges(ctx, studentID)
	if err != nil {
		return nil, err
	}
	heldSet := make(map[BadgeName]bool, len(held))
	for _, b := range held {
		heldSet[BadgeName(b.Name)] = true
	}
	snap := Snapshot{TotalPoints: p.TotalPoints, Level: p.Level, CurrentStreak: p.CurrentStreak}
	return l.evaluator.Upcoming(snap, heldSet), nil
}
