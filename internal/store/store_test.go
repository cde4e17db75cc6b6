package store

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err, "open test store")
	t.Cleanup(func() { s.Close() })
	return s
}

// repoFactories lets the same behaviour tests run against every Repository.
func repoFactories() map[string]func(t *testing.T) Repository {
	return map[string]func(t *testing.T) Repository{
		"sqlite": func(t *testing.T) Repository { return openTestStore(t).Repository() },
		"memory": func(t *testing.T) Repository { return NewMemoryRepo() },
	}
}

func eachRepo(t *testing.T, fn func(t *testing.T, repo Repository)) {
	for name, factory := range repoFactories() {
		t.Run(name, func(t *testing.T) {
			fn(t, factory(t))
		})
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open("oracle", "x")
	require.Error(t, err)
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	sqlDB, err := s.DB().DB()
	require.NoError(t, err)

	tests := []struct {
		pragma string
		want   string
	}{
		{"journal_mode", "wal"},
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}
	for _, tt := range tests {
		var got string
		require.NoError(t, sqlDB.QueryRow("PRAGMA "+tt.pragma).Scan(&got), tt.pragma)
		assert.Equal(t, tt.want, got, "PRAGMA %s", tt.pragma)
	}
}

func TestProfileRoundTrip(t *testing.T) {
	eachRepo(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()

		p, err := repo.GetProfile(ctx, "stu-1")
		require.NoError(t, err)
		assert.Nil(t, p, "no profile before first save")

		day := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
		p = &Profile{StudentID: "stu-1", TotalPoints: 120, Level: 2, CurrentStreak: 3, LongestStreak: 5}
		p.SetLastActivity(day)
		require.NoError(t, repo.SaveProfile(ctx, p))

		p.TotalPoints = 130
		require.NoError(t, repo.SaveProfile(ctx, p))

		got, err := repo.GetProfile(ctx, "stu-1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, 130, got.TotalPoints)
		assert.Equal(t, 5, got.LongestStreak)

		last, ok := got.LastActivity()
		require.True(t, ok)
		y, m, d := last.Date()
		assert.Equal(t, []int{2026, 3, 14}, []int{y, int(m), d})
	})
}

func TestSaveBadgeIsIdempotent(t *testing.T) {
	eachRepo(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()
		now := time.Now().UTC()

		created, err := repo.SaveBadge(ctx, &Badge{StudentID: "stu-1", Name: "Century", EarnedAt: now})
		require.NoError(t, err)
		assert.True(t, created)

		created, err = repo.SaveBadge(ctx, &Badge{StudentID: "stu-1", Name: "Century", EarnedAt: now})
		require.NoError(t, err)
		assert.False(t, created, "second Century must be a no-op")

		created, err = repo.SaveBadge(ctx, &Badge{StudentID: "stu-2", Name: "Century", EarnedAt: now})
		require.NoError(t, err)
		assert.True(t, created, "other students can hold the same badge")

		badges, err := repo.GetBadges(ctx, "stu-1")
		require.NoError(t, err)
		assert.Len(t, badges, 1)
	})
}

func TestProgressUpsertAndFilter(t *testing.T) {
	eachRepo(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()

		rec := &ProgressRecord{StudentID: "stu-1", Subject: "Math", Topic: "Fractions", Attempts: 1}
		require.NoError(t, repo.SaveProgress(ctx, rec))
		require.NotZero(t, rec.ID)

		rec.Attempts = 2
		rec.CorrectAttempts = 1
		require.NoError(t, repo.SaveProgress(ctx, rec))

		require.NoError(t, repo.SaveProgress(ctx, &ProgressRecord{StudentID: "stu-1", Subject: "Science", Topic: "Cells", Attempts: 1}))

		got, err := repo.GetProgressRecord(ctx, "stu-1", "Math", "Fractions")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, 2, got.Attempts)
		assert.Equal(t, 1, got.CorrectAttempts)

		missing, err := repo.GetProgressRecord(ctx, "stu-1", "Math", "Decimals")
		require.NoError(t, err)
		assert.Nil(t, missing)

		all, err := repo.GetProgress(ctx, "stu-1", "")
		require.NoError(t, err)
		assert.Len(t, all, 2)

		math, err := repo.GetProgress(ctx, "stu-1", "Math")
		require.NoError(t, err)
		require.Len(t, math, 1)
		assert.Equal(t, "Fractions", math[0].Topic)
	})
}

func TestNotifications(t *testing.T) {
	eachRepo(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()
		base := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

		first := &Notification{UserID: "u1", Title: "a", Type: "badge", CreatedAt: base}
		second := &Notification{UserID: "u1", Title: "b", Type: "badge", CreatedAt: base.Add(time.Minute)}
		require.NoError(t, repo.SaveNotification(ctx, first))
		require.NoError(t, repo.SaveNotification(ctx, second))
		require.NotEmpty(t, first.ID)

		list, err := repo.ListNotifications(ctx, "u1", false)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "b", list[0].Title, "newest first")

		require.NoError(t, repo.MarkNotificationRead(ctx, "u1", first.ID))

		unread, err := repo.ListNotifications(ctx, "u1", true)
		require.NoError(t, err)
		require.Len(t, unread, 1)
		assert.Equal(t, second.ID, unread[0].ID)

		err = repo.MarkNotificationRead(ctx, "someone-else", first.ID)
		assert.True(t, errors.Is(err, ErrNotFound))
	})
}

func TestPointsAndAnalyses(t *testing.T) {
	eachRepo(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()
		base := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

		for i, pts := range []int{5, 2, 10} {
			require.NoError(t, repo.AppendPoints(ctx, &PointEntry{
				StudentID: "stu-1", Points: pts, Reason: "practice", CreatedAt: base.Add(time.Duration(i) * time.Minute),
			}))
		}
		latest, err := repo.ListPoints(ctx, "stu-1", 2)
		require.NoError(t, err)
		require.Len(t, latest, 2)
		assert.Equal(t, 10, latest[0].Points)
		assert.Equal(t, 2, latest[1].Points)

		require.NoError(t, repo.SaveAnalysis(ctx, &Analysis{StudentID: "stu-1", Subject: "Math", Text: "one", CreatedAt: base}))
		require.NoError(t, repo.SaveAnalysis(ctx, &Analysis{StudentID: "stu-1", Subject: "Math", Text: "two", CreatedAt: base.Add(time.Hour)}))
		require.NoError(t, repo.SaveAnalysis(ctx, &Analysis{StudentID: "stu-1", Subject: "English", Text: "three", CreatedAt: base}))

		math, err := repo.ListAnalyses(ctx, "stu-1", "Math")
		require.NoError(t, err)
		require.Len(t, math, 2)
		assert.Equal(t, "one", math[0].Text)
		assert.NotEmpty(t, math[0].ID)

		all, err := repo.ListAnalyses(ctx, "stu-1", "")
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})
}

func TestAtomicallyRollsBack(t *testing.T) {
	eachRepo(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()
		boom := errors.New("boom")

		err := repo.Atomically(ctx, "stu-1", func(tx Repository) error {
			p, err := tx.GetProfile(ctx, "stu-1")
			if err != nil {
				return err
			}
			if p == nil {
				p = &Profile{StudentID: "stu-1", Level: 1}
			}
			p.TotalPoints = 50
			if err := tx.SaveProfile(ctx, p); err != nil {
				return err
			}
			if _, err := tx.SaveBadge(ctx, &Badge{StudentID: "stu-1", Name: "Century", EarnedAt: time.Now()}); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)

		p, err := repo.GetProfile(ctx, "stu-1")
		require.NoError(t, err)
		assert.Nil(t, p, "profile write must be rolled back")

		badges, err := repo.GetBadges(ctx, "stu-1")
		require.NoError(t, err)
		assert.Empty(t, badges, "badge write must be rolled back")
	})
}

func TestAtomicallySerializesPerStudent(t *testing.T) {
	eachRepo(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()
		const workers = 20

		var wg sync.WaitGroup
		errs := make(chan error, workers)
		for range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs <- repo.Atomically(ctx, "stu-1", func(tx Repository) error {
					p, err := tx.GetProfile(ctx, "stu-1")
					if err != nil {
						return err
					}
					if p == nil {
						p = &Profile{StudentID: "stu-1", Level: 1}
					}
					p.TotalPoints++
					return tx.SaveProfile(ctx, p)
				})
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		p, err := repo.GetProfile(ctx, "stu-1")
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, workers, p.TotalPoints, "no increment may be lost")
	})
}

func TestAtomicallySeedsProfile(t *testing.T) {
	eachRepo(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()
		err := repo.Atomically(ctx, "stu-7", func(tx Repository) error {
			p, err := tx.GetProfile(ctx, "stu-7")
			if err != nil {
				return err
			}
			assert.NotNil(t, p, "profile row exists inside the transaction")
			return nil
		})
		require.NoError(t, err)

		p, err := repo.GetProfile(ctx, "stu-7")
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, 1, p.Level)
		assert.Equal(t, 0, p.TotalPoints)
		assert.Nil(t, p.LastActivityDate)

		// An existing profile is left alone.
		p.TotalPoints = 40
		require.NoError(t, repo.SaveProfile(ctx, p))
		require.NoError(t, repo.Atomically(ctx, "stu-7", func(Repository) error { return nil }))
		got, err := repo.GetProfile(ctx, "stu-7")
		require.NoError(t, err)
		assert.Equal(t, 40, got.TotalPoints)
	})
}

func TestAtomicallyNested(t *testing.T) {
	eachRepo(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()
		err := repo.Atomically(ctx, "stu-1", func(tx Repository) error {
			return tx.Atomically(ctx, "stu-1", func(inner Repository) error {
				return inner.AppendPoints(ctx, &PointEntry{StudentID: "stu-1", Points: 1, CreatedAt: time.Now()})
			})
		})
		require.NoError(t, err)

		entries, err := repo.ListPoints(ctx, "stu-1", 0)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})
}

func TestEventRepo(t *testing.T) {
	s := openTestStore(t)
	events := s.EventRepo()
	ctx := context.Background()

	require.NoError(t, events.AppendLLMRequest(ctx, LLMRequestEventData{
		Provider: "mock", Model: "mock", Purpose: "paper-analysis", InputTokens: 100, OutputTokens: 40, Success: true,
	}))
	require.NoError(t, events.AppendLLMRequest(ctx, LLMRequestEventData{
		Provider: "mock", Model: "mock", Purpose: "answer-evaluation", InputTokens: 10, OutputTokens: 5, Success: true,
	}))
	require.NoError(t, events.AppendLLMRequest(ctx, LLMRequestEventData{
		Provider: "mock", Model: "mock", Purpose: "paper-analysis", InputTokens: 50, OutputTokens: 10, ErrorMessage: "down",
	}))

	list, err := events.QueryLLMEvents(ctx, QueryOpts{Purpose: "paper-analysis"})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "down", list[0].ErrorMessage, "newest first")

	got, err := events.GetLLMEvent(ctx, list[1].ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 100, got.InputTokens)

	missing, err := events.GetLLMEvent(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	usage, err := events.LLMUsageByPurpose(ctx)
	require.NoError(t, err)
	require.Len(t, usage, 2)
	assert.Equal(t, "answer-evaluation", usage[0].Purpose)
	assert.Equal(t, 2, usage[1].Calls)
	assert.Equal(t, 150, usage[1].InputTokens)
}
