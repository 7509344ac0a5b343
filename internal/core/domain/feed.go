package domain

import "time"

type FeedItemType string

const (
	FeedCheckinCompleted FeedItemType = "checkin_completed"
	FeedCheckinMissed    FeedItemType = "checkin_missed"
	FeedStreakMilestone  FeedItemType = "streak_milestone"
)

var StreakMilestones = []int{7, 30, 100, 365}

type FeedItem struct {
	Type      FeedItemType `json:"type"`
	HabitID   string       `json:"habit_id"`
	HabitName string       `json:"habit_name"`
	Date      Date         `json:"date"`
	Streak    int          `json:"streak,omitempty"`
	At        time.Time    `json:"at"`
}

func IsStreakMilestone(streak int) bool {
	for _, m := range StreakMilestones {
		if streak == m {
			return true
		}
	}
	return false
}
