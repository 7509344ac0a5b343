package services

import (
	"context"

	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
)

const (
	DefaultFeedLimit = 20
	MaxFeedLimit     = 100
)

type FeedService struct {
	habitRepo   domain.HabitRepository
	checkinRepo domain.CheckinRepository
}

func NewFeedService(habitRepo domain.HabitRepository, checkinRepo domain.CheckinRepository) *FeedService {
	return &FeedService{
		habitRepo:   habitRepo,
		checkinRepo: checkinRepo,
	}
}

// GetFeed lists the user's latest check-ins, most recent first. A milestone item
// precedes the newest completion of a habit whose current streak sits on one of
// the milestone values.
func (s *FeedService) GetFeed(ctx context.Context, userID string, limit int) ([]domain.FeedItem, error) {
	if limit <= 0 {
		limit = DefaultFeedLimit
	}
	if limit > MaxFeedLimit {
		limit = MaxFeedLimit
	}

	habits, err := s.habitRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*domain.Habit, len(habits))
	for _, h := range habits {
		byID[h.ID] = h
	}

	checkins, err := s.checkinRepo.ListRecentByUserID(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	items := make([]domain.FeedItem, 0, len(checkins))
	seenCompletion := make(map[string]bool)

	for _, c := range checkins {
		h, ok := byID[c.HabitID]
		if !ok {
			continue
		}

		item := domain.FeedItem{
			Type:      domain.FeedCheckinMissed,
			HabitID:   h.ID,
			HabitName: h.Name,
			Date:      c.Date,
			At:        c.UpdatedAt,
		}

		if c.IsCompleted() {
			item.Type = domain.FeedCheckinCompleted
			if !seenCompletion[h.ID] {
				seenCompletion[h.ID] = true
				if domain.IsStreakMilestone(h.CurrentStreak) {
					items = append(items, domain.FeedItem{
						Type:      domain.FeedStreakMilestone,
						HabitID:   h.ID,
						HabitName: h.Name,
						Date:      c.Date,
						Streak:    h.CurrentStreak,
						At:        c.UpdatedAt,
					})
				}
			}
		}

		items = append(items, item)
	}

	return items, nil
}
