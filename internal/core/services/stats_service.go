package services

import (
	"context"

	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
)

type StatsService struct {
	habitRepo   domain.HabitRepository
	checkinRepo domain.CheckinRepository
}

func NewStatsService(habitRepo domain.HabitRepository, checkinRepo domain.CheckinRepository) *StatsService {
	return &StatsService{
		habitRepo:   habitRepo,
		checkinRepo: checkinRepo,
	}
}

// GetSummary aggregates the ledger of every habit (or of input.HabitID only) over
// the requested range. Completion rate counts only completions on scheduled days.
func (s *StatsService) GetSummary(ctx context.Context, input domain.StatsInput) (*domain.Summary, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	habits, byHabit, err := s.load(ctx, input)
	if err != nil {
		return nil, err
	}

	summary := &domain.Summary{
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		TotalHabits: len(habits),
		Habits:      make([]domain.HabitSummary, 0, len(habits)),
	}

	totalOnTarget := 0

	for _, h := range habits {
		hs := domain.HabitSummary{
			HabitID:       h.ID,
			Name:          h.Name,
			TargetType:    h.TargetType,
			CurrentStreak: h.CurrentStreak,
			LongestStreak: h.LongestStreak,
		}

		if from, ok := activeFrom(h, input.StartDate, input.EndDate); ok {
			hs.ScheduledDays = domain.CountTargetDays(h, from, input.EndDate)
		}

		onTarget := 0
		for _, c := range byHabit[h.ID] {
			switch c.Status {
			case domain.StatusCompleted:
				hs.Completed++
				if domain.IsTargetDay(h, c.Date) {
					onTarget++
				}
			case domain.StatusMissed:
				hs.Missed++
			}
		}
		hs.CompletionRate = completionRate(onTarget, hs.ScheduledDays)

		summary.CompletedCheckins += hs.Completed
		summary.MissedCheckins += hs.Missed
		summary.ScheduledDays += hs.ScheduledDays
		totalOnTarget += onTarget

		if h.CurrentStreak > summary.BestCurrentStreak {
			summary.BestCurrentStreak = h.CurrentStreak
		}
		if h.LongestStreak > summary.BestLongestStreak {
			summary.BestLongestStreak = h.LongestStreak
		}

		summary.Habits = append(summary.Habits, hs)
	}

	summary.CompletionRate = completionRate(totalOnTarget, summary.ScheduledDays)

	return summary, nil
}

// GetHeatmap returns one cell per calendar day of the range.
func (s *StatsService) GetHeatmap(ctx context.Context, input domain.StatsInput) (*domain.Heatmap, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	habits, byHabit, err := s.load(ctx, input)
	if err != nil {
		return nil, err
	}

	days := input.StartDate.DaysUntil(input.EndDate) + 1
	cells := make([]domain.HeatmapCell, days)
	for i := range cells {
		cells[i].Date = input.StartDate.AddDays(i)
	}

	for _, h := range habits {
		if from, ok := activeFrom(h, input.StartDate, input.EndDate); ok {
			for d := from; !d.After(input.EndDate); d = d.AddDays(1) {
				if domain.IsTargetDay(h, d) {
					cells[input.StartDate.DaysUntil(d)].Scheduled++
				}
			}
		}

		for _, c := range byHabit[h.ID] {
			idx := input.StartDate.DaysUntil(c.Date)
			if idx < 0 || idx >= days {
				continue
			}
			if c.IsCompleted() {
				cells[idx].Completed++
			} else {
				cells[idx].Missed++
			}
		}
	}

	for i := range cells {
		cells[i].Level = domain.HeatLevel(cells[i].Completed, cells[i].Scheduled)
	}

	return &domain.Heatmap{
		StartDate: input.StartDate,
		EndDate:   input.EndDate,
		HabitID:   input.HabitID,
		Cells:     cells,
	}, nil
}

func (s *StatsService) load(ctx context.Context, input domain.StatsInput) ([]*domain.Habit, map[string][]*domain.Checkin, error) {
	habits, err := s.habitRepo.ListByUserID(ctx, input.UserID)
	if err != nil {
		return nil, nil, err
	}

	if input.HabitID != "" {
		var selected []*domain.Habit
		for _, h := range habits {
			if h.ID == input.HabitID {
				selected = append(selected, h)
			}
		}
		if len(selected) == 0 {
			return nil, nil, domain.ErrHabitNotFound
		}
		habits = selected
	}

	checkins, err := s.checkinRepo.ListByUserIDAndDateRange(ctx, input.UserID, input.StartDate, input.EndDate)
	if err != nil {
		return nil, nil, err
	}

	byHabit := make(map[string][]*domain.Checkin)
	for _, c := range checkins {
		byHabit[c.HabitID] = append(byHabit[c.HabitID], c)
	}

	return habits, byHabit, nil
}

// activeFrom clips the range start to the habit's start date.
func activeFrom(h *domain.Habit, from, to domain.Date) (domain.Date, bool) {
	if h.StartDate.After(from) {
		from = h.StartDate
	}
	return from, !from.After(to)
}

func completionRate(done, scheduled int) float64 {
	if scheduled <= 0 {
		return 0
	}
	if done > scheduled {
		done = scheduled
	}
	return float64(done) / float64(scheduled) * 100
}
