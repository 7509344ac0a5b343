package services_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-habits/internal/adapters/repository"
	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habits/internal/core/services"
)

func newCheckinService(store *repository.MemoryStore, uow domain.UnitOfWork) *services.CheckinService {
	if uow == nil {
		uow = store.UnitOfWork()
	}
	return services.NewCheckinService(uow, store.Habits(), store.Checkins(), services.NewStreakEngine(nil), nil)
}

func submit(t *testing.T, svc *services.CheckinService, habit *domain.Habit, date, status string) *services.CheckinResult {
	t.Helper()

	res, err := svc.SubmitCheckin(context.Background(), services.SubmitCheckinInput{
		HabitID: habit.ID,
		UserID:  habit.UserID,
		Date:    date,
		Status:  status,
	})
	require.NoError(t, err)
	return res
}

func TestCheckinService_SubmitCheckin(t *testing.T) {
	ctx := context.Background()

	t.Run("Success: consecutive completions build the streak", func(t *testing.T) {
		store := repository.NewMemoryStore()
		svc := newCheckinService(store, nil)
		h := createHabit(t, store, "user-1", "daily")

		submit(t, svc, h, "2024-01-01", "completed")
		submit(t, svc, h, "2024-01-02", "completed")
		res := submit(t, svc, h, "2024-01-03", "completed")

		assert.Equal(t, 3, res.Current)
		assert.Equal(t, 3, res.Longest)
		assert.Equal(t, "2024-01-03", res.Checkin.Date.String())
		assert.NotEmpty(t, res.Checkin.ID)

		stored, err := store.Habits().GetByID(ctx, h.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, stored.CurrentStreak)
		assert.Equal(t, 3, stored.LongestStreak)
	})

	t.Run("Success: a miss breaks current but longest survives", func(t *testing.T) {
		store := repository.NewMemoryStore()
		svc := newCheckinService(store, nil)
		h := createHabit(t, store, "user-1", "daily")

		for _, day := range []string{"01", "02", "03"} {
			submit(t, svc, h, "2024-01-"+day, "completed")
		}
		submit(t, svc, h, "2024-01-04", "missed")
		submit(t, svc, h, "2024-01-05", "completed")
		res := submit(t, svc, h, "2024-01-06", "completed")

		assert.Equal(t, 2, res.Current)
		assert.Equal(t, 3, res.Longest)
	})

	t.Run("Success: weekends are skipped for weekday habits", func(t *testing.T) {
		store := repository.NewMemoryStore()
		svc := newCheckinService(store, nil)
		h := createHabit(t, store, "user-1", "weekdays")

		submit(t, svc, h, "2024-01-05", "completed")
		submit(t, svc, h, "2024-01-06", "missed")
		res := submit(t, svc, h, "2024-01-08", "completed")

		assert.Equal(t, 2, res.Current)
	})

	t.Run("Success: resubmitting a date overwrites it", func(t *testing.T) {
		store := repository.NewMemoryStore()
		svc := newCheckinService(store, nil)
		h := createHabit(t, store, "user-1", "daily")

		first := submit(t, svc, h, "2024-01-01", "completed")
		second := submit(t, svc, h, "2024-01-01", "missed")

		assert.Equal(t, first.Checkin.ID, second.Checkin.ID)
		assert.Equal(t, 0, second.Current)
		assert.Equal(t, 1, second.Longest)

		history, err := store.Checkins().ListByHabitID(ctx, h.ID)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, domain.StatusMissed, history[0].Status)
	})

	t.Run("Success: timestamps keep their literal date", func(t *testing.T) {
		store := repository.NewMemoryStore()
		svc := newCheckinService(store, nil)
		h := createHabit(t, store, "user-1", "daily")

		res := submit(t, svc, h, "2024-01-05T23:30:00-05:00", "completed")
		assert.Equal(t, "2024-01-05", res.Checkin.Date.String())
	})

	t.Run("Security: foreign habit is rejected without writing", func(t *testing.T) {
		store := repository.NewMemoryStore()
		svc := newCheckinService(store, nil)
		h := createHabit(t, store, "victim", "daily")

		res, err := svc.SubmitCheckin(ctx, services.SubmitCheckinInput{
			HabitID: h.ID, UserID: "attacker", Date: "2024-01-01", Status: "completed",
		})
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
		assert.Nil(t, res)

		history, err := store.Checkins().ListByHabitID(ctx, h.ID)
		require.NoError(t, err)
		assert.Empty(t, history)
	})

	t.Run("Fail: validation errors", func(t *testing.T) {
		store := repository.NewMemoryStore()
		svc := newCheckinService(store, nil)
		h := createHabit(t, store, "user-1", "daily")

		tests := []struct {
			name  string
			input services.SubmitCheckinInput
			want  error
		}{
			{"missing habit", services.SubmitCheckinInput{HabitID: "ghost", UserID: "user-1", Date: "2024-01-01", Status: "completed"}, domain.ErrHabitNotFound},
			{"empty habit id", services.SubmitCheckinInput{UserID: "user-1", Date: "2024-01-01", Status: "completed"}, domain.ErrInvalidCheckin},
			{"bad date", services.SubmitCheckinInput{HabitID: h.ID, UserID: "user-1", Date: "01/02/2024", Status: "completed"}, domain.ErrInvalidDate},
			{"bad status", services.SubmitCheckinInput{HabitID: h.ID, UserID: "user-1", Date: "2024-01-01", Status: "skipped"}, domain.ErrInvalidStatus},
			{"zero date", services.SubmitCheckinInput{HabitID: h.ID, UserID: "user-1", Date: "0001-01-01", Status: "completed"}, domain.ErrInvalidDate},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := svc.SubmitCheckin(ctx, tt.input)
				assert.ErrorIs(t, err, tt.want)
			})
		}

		history, err := store.Checkins().ListByHabitID(ctx, h.ID)
		require.NoError(t, err)
		assert.Empty(t, history)
	})

	t.Run("Side effects run after commit", func(t *testing.T) {
		store := repository.NewMemoryStore()
		svc := newCheckinService(store, nil)
		h := createHabit(t, store, "user-1", "daily")

		cache := new(MockInvalidator)
		events := new(MockPublisher)
		svc.SetCacheInvalidator(cache)
		svc.SetEventPublisher(events)

		cache.On("InvalidateUser", mock.Anything, "user-1").Return()
		events.On("PublishCheckinRecorded", mock.Anything, mock.MatchedBy(func(e domain.CheckinRecordedEvent) bool {
			return e.HabitID == h.ID && e.UserID == "user-1" && e.CurrentStreak == 1 && e.Status == domain.StatusCompleted
		})).Return(errBoom)

		res := submit(t, svc, h, "2024-01-01", "completed")
		assert.Equal(t, 1, res.Current, "publisher failure must not fail a committed check-in")

		cache.AssertExpectations(t)
		events.AssertExpectations(t)
	})

	t.Run("Fail: rolled back unit skips side effects", func(t *testing.T) {
		store := repository.NewMemoryStore()
		h := createHabit(t, store, "user-1", "daily")
		svc := newCheckinService(store, failingUnitOfWork{inner: store.UnitOfWork(), failFor: h.ID})

		cache := new(MockInvalidator)
		svc.SetCacheInvalidator(cache)

		_, err := svc.SubmitCheckin(ctx, services.SubmitCheckinInput{HabitID: h.ID, UserID: "user-1", Date: "2024-01-01", Status: "completed"})
		assert.ErrorIs(t, err, errBoom)

		cache.AssertNotCalled(t, "InvalidateUser", mock.Anything, mock.Anything)

		stored, err := store.Habits().GetByID(ctx, h.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, stored.CurrentStreak)
	})
}

func TestCheckinService_SubmitBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("Success: foreign and missing habits are skipped", func(t *testing.T) {
		store := repository.NewMemoryStore()
		svc := newCheckinService(store, nil)

		a := createHabit(t, store, "user-1", "daily")
		b := createHabit(t, store, "user-1", "daily")
		foreign := createHabit(t, store, "user-2", "daily")

		submit(t, svc, b, "2024-01-01", "completed")

		res, err := svc.SubmitBatch(ctx, services.BatchInput{
			UserID: "user-1",
			Date:   "2024-01-02",
			Updates: []services.BatchUpdate{
				{HabitID: b.ID, Status: "completed"},
				{HabitID: foreign.ID, Status: "completed"},
				{HabitID: "ghost", Status: "completed"},
				{HabitID: a.ID, Status: "missed"},
			},
		})
		require.NoError(t, err)

		assert.Equal(t, []string{b.ID, a.ID}, res.UpdatedHabitIDs)
		assert.Equal(t, map[string]int{a.ID: 0, b.ID: 2}, res.Streaks)

		history, err := store.Checkins().ListByHabitID(ctx, foreign.ID)
		require.NoError(t, err)
		assert.Empty(t, history)
	})

	t.Run("Success: repeated habit applies in order", func(t *testing.T) {
		store := repository.NewMemoryStore()
		svc := newCheckinService(store, nil)
		h := createHabit(t, store, "user-1", "daily")

		res, err := svc.SubmitBatch(ctx, services.BatchInput{
			UserID: "user-1",
			Date:   "2024-01-01",
			Updates: []services.BatchUpdate{
				{HabitID: h.ID, Status: "missed"},
				{HabitID: h.ID, Status: "completed"},
			},
		})
		require.NoError(t, err)

		assert.Equal(t, []string{h.ID}, res.UpdatedHabitIDs)
		assert.Equal(t, 1, res.Streaks[h.ID])
	})

	t.Run("Success: nothing eligible is a no-op", func(t *testing.T) {
		store := repository.NewMemoryStore()
		svc := newCheckinService(store, nil)
		foreign := createHabit(t, store, "user-2", "daily")

		res, err := svc.SubmitBatch(ctx, services.BatchInput{
			UserID:  "user-1",
			Date:    "2024-01-01",
			Updates: []services.BatchUpdate{{HabitID: foreign.ID, Status: "completed"}},
		})
		require.NoError(t, err)
		assert.Empty(t, res.UpdatedHabitIDs)
		assert.Empty(t, res.Streaks)
	})

	t.Run("Fail: one invalid status rejects the whole batch", func(t *testing.T) {
		store := repository.NewMemoryStore()
		svc := newCheckinService(store, nil)
		h := createHabit(t, store, "user-1", "daily")

		_, err := svc.SubmitBatch(ctx, services.BatchInput{
			UserID: "user-1",
			Date:   "2024-01-01",
			Updates: []services.BatchUpdate{
				{HabitID: h.ID, Status: "completed"},
				{HabitID: h.ID, Status: "maybe"},
			},
		})
		assert.ErrorIs(t, err, domain.ErrInvalidStatus)

		history, err := store.Checkins().ListByHabitID(ctx, h.ID)
		require.NoError(t, err)
		assert.Empty(t, history)
	})

	t.Run("Fail: bad date", func(t *testing.T) {
		store := repository.NewMemoryStore()
		svc := newCheckinService(store, nil)

		_, err := svc.SubmitBatch(ctx, services.BatchInput{UserID: "user-1", Date: "yesterday"})
		assert.ErrorIs(t, err, domain.ErrInvalidDate)
	})

	t.Run("Fail: a failing entry rolls back the others", func(t *testing.T) {
		store := repository.NewMemoryStore()
		a := createHabit(t, store, "user-1", "daily")
		b := createHabit(t, store, "user-1", "daily")
		svc := newCheckinService(store, failingUnitOfWork{inner: store.UnitOfWork(), failFor: b.ID})

		_, err := svc.SubmitBatch(ctx, services.BatchInput{
			UserID: "user-1",
			Date:   "2024-01-01",
			Updates: []services.BatchUpdate{
				{HabitID: a.ID, Status: "completed"},
				{HabitID: b.ID, Status: "completed"},
			},
		})
		assert.ErrorIs(t, err, errBoom)

		history, err := store.Checkins().ListByHabitID(ctx, a.ID)
		require.NoError(t, err)
		assert.Empty(t, history, "write for the first habit must be rolled back")

		stored, err := store.Habits().GetByID(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, stored.CurrentStreak)
	})
}

func TestCheckinService_ConcurrentSubmissions(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := newCheckinService(store, nil)
	h := createHabit(t, store, "user-1", "daily")

	const days = 14
	var wg sync.WaitGroup

	for i := 1; i <= days; i++ {
		wg.Add(1)
		go func(day int) {
			defer wg.Done()
			_, err := svc.SubmitCheckin(context.Background(), services.SubmitCheckinInput{
				HabitID: h.ID,
				UserID:  h.UserID,
				Date:    fmt.Sprintf("2024-01-%02d", day),
				Status:  "completed",
			})
			assert.NoError(t, err)
		}(i)
	}

	// Batches touching the same habit race with the single submissions.
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.SubmitBatch(context.Background(), services.BatchInput{
				UserID:  h.UserID,
				Date:    "2024-01-07",
				Updates: []services.BatchUpdate{{HabitID: h.ID, Status: "completed"}},
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stored, err := store.Habits().GetByID(context.Background(), h.ID)
	require.NoError(t, err)
	assert.Equal(t, days, stored.CurrentStreak)
	assert.Equal(t, days, stored.LongestStreak)

	history, err := store.Checkins().ListByHabitID(context.Background(), h.ID)
	require.NoError(t, err)
	assert.Len(t, history, days)
}

func TestCheckinService_ListCheckins(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	svc := newCheckinService(store, nil)
	h := createHabit(t, store, "user-1", "daily")

	for _, day := range []string{"2024-01-01", "2024-01-03", "2024-01-10"} {
		submit(t, svc, h, day, "completed")
	}

	t.Run("Success: inclusive range, oldest first", func(t *testing.T) {
		list, err := svc.ListCheckins(ctx, h.ID, "user-1", d("2024-01-01"), d("2024-01-03"))
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "2024-01-01", list[0].Date.String())
		assert.Equal(t, "2024-01-03", list[1].Date.String())
	})

	t.Run("Fail: inverted range", func(t *testing.T) {
		_, err := svc.ListCheckins(ctx, h.ID, "user-1", d("2024-01-05"), d("2024-01-01"))
		assert.ErrorIs(t, err, domain.ErrInvalidDateRange)
	})

	t.Run("Security: foreign habit", func(t *testing.T) {
		_, err := svc.ListCheckins(ctx, h.ID, "attacker", d("2024-01-01"), d("2024-01-31"))
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})
}
