package store

import (
	"context"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepo is an in-process Repository. Atomically holds a single
// mutex for the whole call and works on a staged copy of the data, so a
// failing fn leaves nothing behind.
type MemoryRepo struct {
	mu    *sync.Mutex // nil inside Atomically; the enclosing call holds it
	state *memState
}

// NewMemoryRepo returns an empty in-memory repository.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{mu: &sync.Mutex{}, state: newMemState()}
}

type progressKey struct {
	studentID, subject, topic string
}

type memState struct {
	profiles      map[string]Profile
	badges        map[string][]Badge
	progress      map[progressKey]ProgressRecord
	notifications []Notification
	points        []PointEntry
	analyses      []Analysis
	nextID        uint
}

func newMemState() *memState {
	return &memState{
		profiles: make(map[string]Profile),
		badges:   make(map[string][]Badge),
		progress: make(map[progressKey]ProgressRecord),
	}
}

func (s *memState) clone() *memState {
	c := &memState{
		profiles:      maps.Clone(s.profiles),
		badges:        make(map[string][]Badge, len(s.badges)),
		progress:      maps.Clone(s.progress),
		notifications: slices.Clone(s.notifications),
		points:        slices.Clone(s.points),
		analyses:      slices.Clone(s.analyses),
		nextID:        s.nextID,
	}
	for k, v := range s.badges {
		c.badges[k] = slices.Clone(v)
	}
	return c
}

func (s *memState) id() uint {
	s.nextID++
	return s.nextID
}

// seedProfile adds an empty level 1 profile for studentID if none exists,
// matching the row the gorm repository creates before locking it.
func (s *memState) seedProfile(studentID string) {
	if _, ok := s.profiles[studentID]; ok {
		return
	}
	now := time.Now().UTC()
	s.profiles[studentID] = Profile{StudentID: studentID, Level: 1, CreatedAt: now, UpdatedAt: now}
}

func (r *MemoryRepo) lock() func() {
	if r.mu == nil {
		return func() {}
	}
	r.mu.Lock()
	return r.mu.Unlock
}

func (r *MemoryRepo) Atomically(_ context.Context, studentID string, fn func(tx Repository) error) error {
	if r.mu == nil {
		r.state.seedProfile(studentID)
		return fn(r)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	staged := r.state.clone()
	staged.seedProfile(studentID)
	if err := fn(&MemoryRepo{state: staged}); err != nil {
		return err
	}
	*r.state = *staged
	return nil
}

func (r *MemoryRepo) GetProfile(_ context.Context, studentID string) (*Profile, error) {
	defer r.lock()()
	p, ok := r.state.profiles[studentID]
	if !ok {
		return nil, nil
	}
	if p.LastActivityDate != nil {
		d := *p.LastActivityDate
		p.LastActivityDate = &d
	}
	return &p, nil
}

func (r *MemoryRepo) SaveProfile(_ context.Context, p *Profile) error {
	defer r.lock()()
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	cp := *p
	if p.LastActivityDate != nil {
		d := *p.LastActivityDate
		cp.LastActivityDate = &d
	}
	r.state.profiles[p.StudentID] = cp
	return nil
}

func (r *MemoryRepo) GetBadges(_ context.Context, studentID string) ([]Badge, error) {
	defer r.lock()()
	return slices.Clone(r.state.badges[studentID]), nil
}

func (r *MemoryRepo) SaveBadge(_ context.Context, b *Badge) (bool, error) {
	defer r.lock()()
	for _, held := range r.state.badges[b.StudentID] {
		if held.Name == b.Name {
			return false, nil
		}
	}
	b.ID = r.state.id()
	r.state.badges[b.StudentID] = append(r.state.badges[b.StudentID], *b)
	return true, nil
}

func (r *MemoryRepo) GetProgress(_ context.Context, studentID, subject string) ([]ProgressRecord, error) {
	defer r.lock()()
	var out []ProgressRecord
	for k, rec := range r.state.progress {
		if k.studentID != studentID || (subject != "" && k.subject != subject) {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Subject != out[j].Subject {
			return out[i].Subject < out[j].Subject
		}
		return out[i].Topic < out[j].Topic
	})
	return out, nil
}

func (r *MemoryRepo) GetProgressRecord(_ context.Context, studentID, subject, topic string) (*ProgressRecord, error) {
	defer r.lock()()
	rec, ok := r.state.progress[progressKey{studentID, subject, topic}]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (r *MemoryRepo) SaveProgress(_ context.Context, rec *ProgressRecord) error {
	defer r.lock()()
	now := time.Now().UTC()
	if rec.ID == 0 {
		rec.ID = r.state.id()
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	r.state.progress[progressKey{rec.StudentID, rec.Subject, rec.Topic}] = *rec
	return nil
}

func (r *MemoryRepo) SaveNotification(_ context.Context, n *Notification) error {
	defer r.lock()()
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	r.state.notifications = append(r.state.notifications, *n)
	return nil
}

func (r *MemoryRepo) ListNotifications(_ context.Context, userID string, unreadOnly bool) ([]Notification, error) {
	defer r.lock()()
	var out []Notification
	for _, n := range r.state.notifications {
		if n.UserID != userID || (unreadOnly && n.IsRead) {
			continue
		}
		out = append(out, n)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryRepo) MarkNotificationRead(_ context.Context, userID, id string) error {
	defer r.lock()()
	for i, n := range r.state.notifications {
		if n.ID == id && n.UserID == userID {
			r.state.notifications[i].IsRead = true
			return nil
		}
	}
	return ErrNotFound
}

func (r *MemoryRepo) AppendPoints(_ context.Context, e *PointEntry) error {
	defer r.lock()()
	e.ID = r.state.id()
	r.state.points = append(r.state.points, *e)
	return nil
}

func (r *MemoryRepo) ListPoints(_ context.Context, studentID string, limit int) ([]PointEntry, error) {
	defer r.lock()()
	var out []PointEntry
	for i := len(r.state.points) - 1; i >= 0; i-- {
		if r.state.points[i].StudentID != studentID {
			continue
		}
		out = append(out, r.state.points[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *MemoryRepo) SaveAnalysis(_ context.Context, a *Analysis) error {
	defer r.lock()()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	r.state.analyses = append(r.state.analyses, *a)
	return nil
}

func (r *MemoryRepo) ListAnalyses(_ context.Context, studentID, subject string) ([]Analysis, error) {
	defer r.lock()()
	var out []Analysis
	for _, a := range r.state.analyses {
		if a.StudentID != studentID || (subject != "" && a.Subject != subject) {
			continue
		}
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
