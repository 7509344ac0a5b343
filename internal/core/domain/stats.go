package domain

import "errors"

var ErrInvalidDateRange = errors.New("invalid date range")

// MaxStatsRangeDays caps a stats range, both ends included, at one leap year.
const MaxStatsRangeDays = 366

type StatsInput struct {
	UserID    string
	HabitID   string
	StartDate Date
	EndDate   Date
}

func (in StatsInput) Validate() error {
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return ErrInvalidDateRange
	}
	if in.StartDate.After(in.EndDate) {
		return ErrInvalidDateRange
	}
	if in.StartDate.DaysUntil(in.EndDate) >= MaxStatsRangeDays {
		return ErrInvalidDateRange
	}
	return nil
}

type Summary struct {
	StartDate         Date           `json:"start_date"`
	EndDate           Date           `json:"end_date"`
	TotalHabits       int            `json:"total_habits"`
	CompletedCheckins int            `json:"completed_checkins"`
	MissedCheckins    int            `json:"missed_checkins"`
	ScheduledDays     int            `json:"scheduled_days"`
	CompletionRate    float64        `json:"completion_rate"`
	BestCurrentStreak int            `json:"best_current_streak"`
	BestLongestStreak int            `json:"best_longest_streak"`
	Habits            []HabitSummary `json:"habits"`
}

type HabitSummary struct {
	HabitID        string     `json:"habit_id"`
	Name           string     `json:"name"`
	TargetType     TargetType `json:"target_type"`
	CurrentStreak  int        `json:"current_streak"`
	LongestStreak  int        `json:"longest_streak"`
	Completed      int        `json:"completed"`
	Missed         int        `json:"missed"`
	ScheduledDays  int        `json:"scheduled_days"`
	CompletionRate float64    `json:"completion_rate"`
}

type HeatmapCell struct {
	Date      Date `json:"date"`
	Completed int  `json:"completed"`
	Missed    int  `json:"missed"`
	Scheduled int  `json:"scheduled"`
	Level     int  `json:"level"`
}

type Heatmap struct {
	StartDate Date          `json:"start_date"`
	EndDate   Date          `json:"end_date"`
	HabitID   string        `json:"habit_id,omitempty"`
	Cells     []HeatmapCell `json:"cells"`
}

// HeatLevel buckets a completion ratio into 0..4 for rendering.
func HeatLevel(completed, scheduled int) int {
	if completed <= 0 {
		return 0
	}
	if scheduled <= 0 {
		return 4
	}
	ratio := float64(completed) / float64(scheduled)
	switch {
	case ratio >= 1:
		return 4
	case ratio >= 0.75:
		return 3
	case ratio >= 0.5:
		return 2
	default:
		return 1
	}
}
