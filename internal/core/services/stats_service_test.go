package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-habits/internal/adapters/repository"
	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habits/internal/core/services"
)

func TestStatsService_GetSummary(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	checkins := newCheckinService(store, nil)
	svc := services.NewStatsService(store.Habits(), store.Checkins())

	// Week of 2024-01-01 (Mon) .. 2024-01-07 (Sun).
	daily := createHabit(t, store, "user-1", "daily")
	weekdays := createHabit(t, store, "user-1", "weekdays")
	createHabit(t, store, "user-2", "daily")

	for _, day := range []string{"01", "02", "03"} {
		submit(t, checkins, daily, "2024-01-"+day, "completed")
	}
	submit(t, checkins, daily, "2024-01-04", "missed")

	submit(t, checkins, weekdays, "2024-01-01", "completed")
	submit(t, checkins, weekdays, "2024-01-06", "completed") // Saturday: counted, not on target

	summary, err := svc.GetSummary(ctx, domain.StatsInput{UserID: "user-1", StartDate: d("2024-01-01"), EndDate: d("2024-01-07")})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.TotalHabits)
	assert.Equal(t, 5, summary.CompletedCheckins)
	assert.Equal(t, 1, summary.MissedCheckins)
	assert.Equal(t, 7+5, summary.ScheduledDays)
	assert.InDelta(t, float64(4)/12*100, summary.CompletionRate, 0.001)
	assert.Equal(t, 3, summary.BestLongestStreak)

	require.Len(t, summary.Habits, 2)
	byID := map[string]domain.HabitSummary{}
	for _, hs := range summary.Habits {
		byID[hs.HabitID] = hs
	}

	assert.Equal(t, 3, byID[daily.ID].Completed)
	assert.Equal(t, 1, byID[daily.ID].Missed)
	assert.Equal(t, 7, byID[daily.ID].ScheduledDays)
	assert.InDelta(t, float64(3)/7*100, byID[daily.ID].CompletionRate, 0.001)

	assert.Equal(t, 2, byID[weekdays.ID].Completed)
	assert.Equal(t, 5, byID[weekdays.ID].ScheduledDays)
	assert.InDelta(t, 20.0, byID[weekdays.ID].CompletionRate, 0.001)
}

func TestStatsService_GetSummary_StartDateClipsSchedule(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	svc := services.NewStatsService(store.Habits(), store.Checkins())

	h, err := domain.NewHabit("user-1", "Late starter", "", "daily", nil, d("2024-01-05"))
	require.NoError(t, err)
	require.NoError(t, store.Habits().Create(ctx, h))

	summary, err := svc.GetSummary(ctx, domain.StatsInput{UserID: "user-1", StartDate: d("2024-01-01"), EndDate: d("2024-01-07")})
	require.NoError(t, err)
	assert.Equal(t, 3, summary.ScheduledDays)
}

func TestStatsService_Validation(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	svc := services.NewStatsService(store.Habits(), store.Checkins())
	createHabit(t, store, "user-1", "daily")

	tests := []struct {
		name  string
		input domain.StatsInput
		want  error
	}{
		{"inverted", domain.StatsInput{UserID: "user-1", StartDate: d("2024-02-01"), EndDate: d("2024-01-01")}, domain.ErrInvalidDateRange},
		{"too long", domain.StatsInput{UserID: "user-1", StartDate: d("2022-01-01"), EndDate: d("2024-01-01")}, domain.ErrInvalidDateRange},
		{"367 days", domain.StatsInput{UserID: "user-1", StartDate: d("2024-01-01"), EndDate: d("2025-01-01")}, domain.ErrInvalidDateRange},
		{"missing", domain.StatsInput{UserID: "user-1"}, domain.ErrInvalidDateRange},
		{"foreign habit", domain.StatsInput{UserID: "user-1", HabitID: "ghost", StartDate: d("2024-01-01"), EndDate: d("2024-01-02")}, domain.ErrHabitNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.GetSummary(ctx, tt.input)
			assert.ErrorIs(t, err, tt.want)

			_, err = svc.GetHeatmap(ctx, tt.input)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestStatsService_GetHeatmap_FullLeapYear(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := services.NewStatsService(store.Habits(), store.Checkins())
	createHabit(t, store, "user-1", "daily")

	hm, err := svc.GetHeatmap(context.Background(), domain.StatsInput{UserID: "user-1", StartDate: d("2024-01-01"), EndDate: d("2024-12-31")})
	require.NoError(t, err)
	assert.Len(t, hm.Cells, domain.MaxStatsRangeDays)
}

func TestStatsService_GetHeatmap(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	checkins := newCheckinService(store, nil)
	svc := services.NewStatsService(store.Habits(), store.Checkins())

	a := createHabit(t, store, "user-1", "daily")
	b := createHabit(t, store, "user-1", "custom", "tue")

	submit(t, checkins, a, "2024-01-01", "completed")
	submit(t, checkins, a, "2024-01-02", "completed")
	submit(t, checkins, b, "2024-01-02", "completed")
	submit(t, checkins, a, "2024-01-03", "missed")

	t.Run("All habits", func(t *testing.T) {
		hm, err := svc.GetHeatmap(ctx, domain.StatsInput{UserID: "user-1", StartDate: d("2024-01-01"), EndDate: d("2024-01-04")})
		require.NoError(t, err)
		require.Len(t, hm.Cells, 4)

		mon, tue, wed, thu := hm.Cells[0], hm.Cells[1], hm.Cells[2], hm.Cells[3]

		assert.Equal(t, "2024-01-01", mon.Date.String())
		assert.Equal(t, 1, mon.Completed)
		assert.Equal(t, 1, mon.Scheduled)
		assert.Equal(t, 4, mon.Level)

		assert.Equal(t, 2, tue.Completed)
		assert.Equal(t, 2, tue.Scheduled)
		assert.Equal(t, 4, tue.Level)

		assert.Equal(t, 1, wed.Missed)
		assert.Equal(t, 0, wed.Level)

		assert.Equal(t, 1, thu.Scheduled)
		assert.Equal(t, 0, thu.Completed)
	})

	t.Run("Single habit", func(t *testing.T) {
		hm, err := svc.GetHeatmap(ctx, domain.StatsInput{UserID: "user-1", HabitID: b.ID, StartDate: d("2024-01-01"), EndDate: d("2024-01-07")})
		require.NoError(t, err)
		assert.Equal(t, b.ID, hm.HabitID)

		scheduled := 0
		for _, c := range hm.Cells {
			scheduled += c.Scheduled
		}
		assert.Equal(t, 1, scheduled)
		assert.Equal(t, 1, hm.Cells[1].Completed)
	})
}
