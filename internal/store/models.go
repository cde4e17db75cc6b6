package store

import (
	"time"

	"gorm.io/datatypes"
)

// Profile is a student's gamification state. One row per student.
type Profile struct {
	StudentID        string          `gorm:"primaryKey;size:64"`
	TotalPoints      int             `gorm:"not null;default:0"`
	Level            int             `gorm:"not null"`
	CurrentStreak    int             `gorm:"not null;default:0"`
	LongestStreak    int             `gorm:"not null;default:0"`
	LastActivityDate *datatypes.Date // nil until the first point-earning event
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (Profile) TableName() string { return "gamification_profiles" }

// LastActivity returns the last activity date, if any.
func (p *Profile) LastActivity() (time.Time, bool) {
	if p.LastActivityDate == nil {
		return time.Time{}, false
	}
	return time.Time(*p.LastActivityDate), true
}

// SetLastActivity stores d as a calendar date.
func (p *Profile) SetLastActivity(d time.Time) {
	date := datatypes.Date(d)
	p.LastActivityDate = &date
}

// Badge is an earned achievement. (StudentID, Name) is unique.
type Badge struct {
	ID          uint      `gorm:"primaryKey"`
	StudentID   string    `gorm:"size:64;not null;uniqueIndex:idx_badges_student_name,priority:1"`
	Name        string    `gorm:"size:64;not null;uniqueIndex:idx_badges_student_name,priority:2"`
	Description string    `gorm:"size:255"`
	Icon        string    `gorm:"size:16"`
	EarnedAt    time.Time `gorm:"not null"`
}

// ProgressRecord counts practice attempts for one (student, subject, topic).
type ProgressRecord struct {
	ID              uint   `gorm:"primaryKey"`
	StudentID       string `gorm:"size:64;not null;uniqueIndex:idx_progress_key,priority:1"`
	Subject         string `gorm:"size:128;not null;uniqueIndex:idx_progress_key,priority:2"`
	Topic           string `gorm:"size:255;not null;uniqueIndex:idx_progress_key,priority:3"`
	Attempts        int    `gorm:"not null;default:0"`
	CorrectAttempts int    `gorm:"not null;default:0"`
	LastFeedback    string `gorm:"type:text"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Notification is a message shown to a user.
type Notification struct {
	ID        string    `gorm:"primaryKey;size:36"`
	UserID    string    `gorm:"size:64;not null;index"`
	Title     string    `gorm:"size:255;not null"`
	Message   string    `gorm:"type:text"`
	Type      string    `gorm:"size:32;not null"`
	IsRead    bool      `gorm:"not null;default:false"`
	CreatedAt time.Time `gorm:"not null"`
}

// PointEntry is one line of a student's point history.
type PointEntry struct {
	ID        uint      `gorm:"primaryKey"`
	StudentID string    `gorm:"size:64;not null;index"`
	Points    int       `gorm:"not null"`
	Reason    string    `gorm:"size:255"`
	CreatedAt time.Time `gorm:"not null"`
}

// Analysis is stored model feedback on an uploaded exam paper.
type Analysis struct {
	ID        string    `gorm:"primaryKey;size:36"`
	StudentID string    `gorm:"size:64;not null;index:idx_analyses_student_subject,priority:1"`
	Subject   string    `gorm:"size:128;not null;index:idx_analyses_student_subject,priority:2"`
	Text      string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"not null"`
}

// LLMRequestEvent records one language-model call.
type LLMRequestEvent struct {
	ID           int       `gorm:"primaryKey"`
	Timestamp    time.Time `gorm:"not null;index"`
	Provider     string    `gorm:"size:64"`
	Model        string    `gorm:"size:128"`
	Purpose      string    `gorm:"size:64;index"`
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string `gorm:"type:text"`
	RequestBody  string `gorm:"type:text"`
	ResponseBody string `gorm:"type:text"`
}

func models() []any {
	return []any{
		&Profile{},
		&Badge{},
		&ProgressRecord{},
		&Notification{},
		&PointEntry{},
		&Analysis{},
		&LLMRequestEvent{},
	}
}
