package domain

import "sort"

type Streaks struct {
	Current int `json:"current_streak"`
	Longest int `json:"longest_streak"`
}

// CalculateStreaks derives the streak pair for h from its complete check-in history.
// The history may arrive in any order. The habit's stored longest streak is a floor:
// the returned Longest never drops below it.
func CalculateStreaks(h *Habit, history []*Checkin) Streaks {
	sorted := make([]*Checkin, len(history))
	copy(sorted, history)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.After(sorted[j].Date)
	})

	current := currentStreak(h, sorted)
	longest := max(h.LongestStreak, current, longestCompletedRun(sorted))

	return Streaks{Current: current, Longest: longest}
}

// currentStreak walks newest first. Only a miss on a scheduled day ends the walk;
// records on unscheduled days neither count nor break.
func currentStreak(h *Habit, newestFirst []*Checkin) int {
	streak := 0
	for _, c := range newestFirst {
		if !IsTargetDay(h, c.Date) {
			continue
		}
		if c.Status != StatusCompleted {
			break
		}
		streak++
	}
	return streak
}

// longestCompletedRun is the longest run of completed check-ins on consecutive
// calendar days. It ignores the schedule.
func longestCompletedRun(newestFirst []*Checkin) int {
	longest := 0
	run := 0
	var prev Date

	for _, c := range newestFirst {
		if c.Status != StatusCompleted {
			run = 0
			continue
		}

		switch {
		case run > 0 && c.Date.DaysUntil(prev) == 1:
			run++
		case run > 0 && c.Date.Equal(prev):
			// same day seen twice; ledger should prevent this
		default:
			run = 1
		}
		prev = c.Date

		if run > longest {
			longest = run
		}
	}

	return longest
}
