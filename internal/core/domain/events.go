package domain

import (
	"time"

	"github.com/google/uuid"
)

type CheckinRecordedEvent struct {
	EventID       string        `json:"event_id"`
	UserID        string        `json:"user_id"`
	HabitID       string        `json:"habit_id"`
	Date          Date          `json:"date"`
	Status        CheckinStatus `json:"status"`
	CurrentStreak int           `json:"current_streak"`
	LongestStreak int           `json:"longest_streak"`
	OccurredAt    time.Time     `json:"occurred_at"`
}

func NewCheckinRecordedEvent(userID string, c *Checkin, s Streaks) CheckinRecordedEvent {
	return CheckinRecordedEvent{
		EventID:       uuid.NewString(),
		UserID:        userID,
		HabitID:       c.HabitID,
		Date:          c.Date,
		Status:        c.Status,
		CurrentStreak: s.Current,
		LongestStreak: s.Longest,
		OccurredAt:    time.Now().UTC(),
	}
}
