package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habits/internal/metrics"
)

// StreakEngine is the only writer of a habit's streak fields.
// It must be called with a Store bound to a unit of work that already holds
// the habit's lock, so the history it reads cannot change underneath it.
type StreakEngine struct {
	logger *zap.Logger
}

func NewStreakEngine(logger *zap.Logger) *StreakEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StreakEngine{logger: logger}
}

// Recompute reloads the full history of habit, derives both streaks and
// persists them when they differ from the stored pair. habit is updated in place.
func (e *StreakEngine) Recompute(ctx context.Context, tx domain.Store, habit *domain.Habit) (domain.Streaks, error) {
	history, err := tx.Checkins().ListByHabitID(ctx, habit.ID)
	if err != nil {
		return domain.Streaks{}, fmt.Errorf("streak engine: load history for %s: %w", habit.ID, err)
	}

	streaks := domain.CalculateStreaks(habit, history)
	metrics.StreakRecomputes.Inc()

	if streaks.Current == habit.CurrentStreak && streaks.Longest == habit.LongestStreak {
		return streaks, nil
	}

	if err := tx.Habits().UpdateStreaks(ctx, habit.ID, streaks.Current, streaks.Longest); err != nil {
		return domain.Streaks{}, fmt.Errorf("streak engine: persist streaks for %s: %w", habit.ID, err)
	}

	e.logger.Debug("streak updated",
		zap.String("habit_id", habit.ID),
		zap.Int("history", len(history)),
		zap.Int("current", streaks.Current),
		zap.Int("longest", streaks.Longest),
	)

	habit.CurrentStreak = streaks.Current
	habit.LongestStreak = streaks.Longest

	return streaks, nil
}
