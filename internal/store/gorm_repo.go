package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// gormRepo implements Repository on gorm. When inTx is set, db is an open
// transaction owned by an enclosing Atomically call.
type gormRepo struct {
	db   *gorm.DB
	inTx bool
}

func (r *gormRepo) Atomically(ctx context.Context, studentID string, fn func(tx Repository) error) error {
	if r.inTx {
		if err := lockProfile(r.db.WithContext(ctx), studentID); err != nil {
			return err
		}
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockProfile(tx, studentID); err != nil {
			return err
		}
		return fn(&gormRepo{db: tx, inTx: true})
	})
}

// lockProfile makes sure the student's profile row exists, then takes a row
// lock on it for the rest of the transaction. Dialects without row locks
// (SQLite) drop the FOR UPDATE clause; there the single connection already
// serializes transactions.
func lockProfile(tx *gorm.DB, studentID string) error {
	seed := Profile{StudentID: studentID, Level: 1}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
		return fmt.Errorf("seed profile: %w", err)
	}
	var p Profile
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("student_id = ?", studentID).
		Take(&p).Error
	if err != nil {
		return fmt.Errorf("lock profile: %w", err)
	}
	return nil
}

func (r *gormRepo) GetProfile(ctx context.Context, studentID string) (*Profile, error) {
	var p Profile
	err := r.db.WithContext(ctx).Where("student_id = ?", studentID).Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &p, nil
}

func (r *gormRepo) SaveProfile(ctx context.Context, p *Profile) error {
	if err := r.db.WithContext(ctx).Save(p).Error; err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

func (r *gormRepo) GetBadges(ctx context.Context, studentID string) ([]Badge, error) {
	var out []Badge
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("earned_at ASC, id ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("get badges: %w", err)
	}
	return out, nil
}

func (r *gormRepo) SaveBadge(ctx context.Context, b *Badge) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(b)
	if res.Error != nil {
		return false, fmt.Errorf("save badge: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *gormRepo) GetProgress(ctx context.Context, studentID, subject string) ([]ProgressRecord, error) {
	q := r.db.WithContext(ctx).Where("student_id = ?", studentID)
	if subject != "" {
		q = q.Where("subject = ?", subject)
	}
	var out []ProgressRecord
	if err := q.Order("subject ASC, topic ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("get progress: %w", err)
	}
	return out, nil
}

func (r *gormRepo) GetProgressRecord(ctx context.Context, studentID, subject, topic string) (*ProgressRecord, error) {
	var rec ProgressRecord
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND subject = ? AND topic = ?", studentID, subject, topic).
		Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get progress record: %w", err)
	}
	return &rec, nil
}

func (r *gormRepo) SaveProgress(ctx context.Context, rec *ProgressRecord) error {
	if err := r.db.WithContext(ctx).Save(rec).Error; err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}

func (r *gormRepo) SaveNotification(ctx context.Context, n *Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Create(n).Error; err != nil {
		return fmt.Errorf("save notification: %w", err)
	}
	return nil
}

func (r *gormRepo) ListNotifications(ctx context.Context, userID string, unreadOnly bool) ([]Notification, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	var out []Notification
	if err := q.Order("created_at DESC, id ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return out, nil
}

func (r *gormRepo) MarkNotificationRead(ctx context.Context, userID, id string) error {
	res := r.db.WithContext(ctx).
		Model(&Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	if res.Error != nil {
		return fmt.Errorf("mark notification read: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *gormRepo) AppendPoints(ctx context.Context, e *PointEntry) error {
	if err := r.db.WithContext(ctx).Create(e).Error; err != nil {
		return fmt.Errorf("append points: %w", err)
	}
	return nil
}

func (r *gormRepo) ListPoints(ctx context.Context, studentID string, limit int) ([]PointEntry, error) {
	q := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []PointEntry
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list points: %w", err)
	}
	return out, nil
}

func (r *gormRepo) SaveAnalysis(ctx context.Context, a *Analysis) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Create(a).Error; err != nil {
		return fmt.Errorf("save analysis: %w", err)
	}
	return nil
}

func (r *gormRepo) ListAnalyses(ctx context.Context, studentID, subject string) ([]Analysis, error) {
	q := r.db.WithContext(ctx).Where("student_id = ?", studentID)
	if subject != "" {
		q = q.Where("subject = ?", subject)
	}
	var out []Analysis
	if err := q.Order("created_at ASC, id ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	return out, nil
}
