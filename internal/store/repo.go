package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a looked-up row does not exist.
var ErrNotFound = errors.New("not found")

// ProfileRepo stores gamification profiles.
type ProfileRepo interface {
	// GetProfile returns the student's profile, or nil if none exists.
	GetProfile(ctx context.Context, studentID string) (*Profile, error)

	// SaveProfile inserts or updates the profile.
	SaveProfile(ctx context.Context, p *Profile) error
}

// BadgeRepo stores earned badges.
type BadgeRepo interface {
	// GetBadges returns every badge the student holds, oldest first.
	GetBadges(ctx context.Context, studentID string) ([]Badge, error)

	// SaveBadge records a badge. It reports false without error when the
	// student already holds a badge with the same name.
	SaveBadge(ctx context.Context, b *Badge) (bool, error)
}

// ProgressRepo stores per-topic practice counters.
type ProgressRepo interface {
	// GetProgress lists the student's records, optionally narrowed to one
	// subject (empty subject means all).
	GetProgress(ctx context.Context, studentID, subject string) ([]ProgressRecord, error)

	// GetProgressRecord returns one record, or nil if none exists.
	GetProgressRecord(ctx context.Context, studentID, subject, topic string) (*ProgressRecord, error)

	// SaveProgress inserts or updates a record.
	SaveProgress(ctx context.Context, r *ProgressRecord) error
}

// NotificationRepo stores user notifications.
type NotificationRepo interface {
	SaveNotification(ctx context.Context, n *Notification) error

	// ListNotifications returns newest first.
	ListNotifications(ctx context.Context, userID string, unreadOnly bool) ([]Notification, error)

	// MarkNotificationRead returns ErrNotFound if userID has no such notification.
	MarkNotificationRead(ctx context.Context, userID, id string) error
}

// PointRepo stores the point history.
type PointRepo interface {
	AppendPoints(ctx context.Context, e *PointEntry) error

	// ListPoints returns newest first. limit <= 0 means unlimited.
	ListPoints(ctx context.Context, studentID string, limit int) ([]PointEntry, error)
}

// AnalysisRepo stores exam-paper analyses.
type AnalysisRepo interface {
	SaveAnalysis(ctx context.Context, a *Analysis) error

	// ListAnalyses returns oldest first, optionally narrowed to one subject.
	ListAnalyses(ctx context.Context, studentID, subject string) ([]Analysis, error)
}

// Repository is the full record store used by the core.
type Repository interface {
	ProfileRepo
	BadgeRepo
	ProgressRepo
	NotificationRepo
	PointRepo
	AnalysisRepo

	// Atomically runs fn with a Repository scoped to a single transaction
	// that holds the student's profile lock. Concurrent calls for the same
	// student are serialized. If fn returns an error nothing it wrote is
	// kept. Calling Atomically on the scoped Repository joins the open
	// transaction.
	Atomically(ctx context.Context, studentID string, fn func(tx Repository) error) error
}

// QueryOpts configures event queries.
type QueryOpts struct {
	Limit   int       // max results (0 = unlimited)
	Purpose string    // exact match when non-empty
	From    time.Time // timestamp >= From
	To      time.Time // timestamp <= To
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMUsageStats aggregates token usage for one purpose.
type LLMUsageStats struct {
	Purpose      string
	Calls        int
	InputTokens  int
	OutputTokens int
}

// EventRepo records and queries LLM request events.
type EventRepo interface {
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEvent, error)

	// GetLLMEvent returns nil if no event has the id.
	GetLLMEvent(ctx context.Context, id int) (*LLMRequestEvent, error)
	LLMUsageByPurpose(ctx context.Context) ([]LLMUsageStats, error)
}
