package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habits/internal/metrics"
)

// CheckinService owns every write to the check-in ledger. Each submission runs
// as one unit of work: the habit row is locked, the ledger is upserted and the
// streaks are recomputed before anything commits.
type CheckinService struct {
	uow      domain.UnitOfWork
	habits   domain.HabitRepository
	checkins domain.CheckinRepository
	engine   *StreakEngine
	cache    domain.HabitCacheInvalidator
	events   domain.CheckinEventPublisher
	logger   *zap.Logger
}

func NewCheckinService(uow domain.UnitOfWork, habits domain.HabitRepository, checkins domain.CheckinRepository, engine *StreakEngine, logger *zap.Logger) *CheckinService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CheckinService{
		uow:      uow,
		habits:   habits,
		checkins: checkins,
		engine:   engine,
		logger:   logger,
	}
}

func (s *CheckinService) SetCacheInvalidator(c domain.HabitCacheInvalidator) {
	s.cache = c
}

func (s *CheckinService) SetEventPublisher(p domain.CheckinEventPublisher) {
	s.events = p
}

type SubmitCheckinInput struct {
	HabitID string
	UserID  string
	Date    string
	Status  string
}

type CheckinResult struct {
	Checkin *domain.Checkin `json:"checkin"`
	domain.Streaks
}

type BatchUpdate struct {
	HabitID string
	Status  string
}

type BatchInput struct {
	UserID  string
	Date    string
	Updates []BatchUpdate
}

type BatchResult struct {
	UpdatedHabitIDs []string       `json:"updated_habit_ids"`
	Streaks         map[string]int `json:"streaks"`
}

type committedCheckin struct {
	checkin *domain.Checkin
	streaks domain.Streaks
}

func (s *CheckinService) SubmitCheckin(ctx context.Context, input SubmitCheckinInput) (*CheckinResult, error) {
	if strings.TrimSpace(input.HabitID) == "" {
		return nil, fmt.Errorf("%w: habit_id is required", domain.ErrInvalidCheckin)
	}
	date, err := domain.ParseDate(input.Date)
	if err != nil {
		return nil, err
	}
	status, err := domain.ParseStatus(input.Status)
	if err != nil {
		return nil, err
	}

	habit, err := s.habits.GetByID(ctx, input.HabitID)
	if err != nil {
		return nil, err
	}
	if habit.UserID != input.UserID {
		return nil, domain.ErrUnauthorized
	}

	var result *CheckinResult
	err = s.uow.Do(ctx, func(ctx context.Context, tx domain.Store) error {
		locked, err := tx.Habits().GetForUpdate(ctx, habit.ID)
		if err != nil {
			return err
		}

		checkin := domain.NewCheckin(locked.ID, date, status)
		if err := tx.Checkins().Upsert(ctx, checkin); err != nil {
			return fmt.Errorf("checkin service: upsert %s@%s: %w", locked.ID, date, err)
		}

		streaks, err := s.engine.Recompute(ctx, tx, locked)
		if err != nil {
			return err
		}

		result = &CheckinResult{Checkin: checkin, Streaks: streaks}
		return nil
	})
	if err != nil {
		metrics.UnitOfWorkFailures.WithLabelValues("submit_checkin").Inc()
		s.logger.Warn("check-in rolled back",
			zap.String("habit_id", input.HabitID),
			zap.String("date", date.String()),
			zap.Error(err),
		)
		return nil, err
	}

	s.afterCommit(ctx, habit.UserID, []committedCheckin{{checkin: result.Checkin, streaks: result.Streaks}})

	return result, nil
}

// SubmitBatch writes one status per entry for a single date. Entries naming a
// habit that is missing or owned by someone else are skipped; everything else
// commits together or not at all.
func (s *CheckinService) SubmitBatch(ctx context.Context, input BatchInput) (*BatchResult, error) {
	date, err := domain.ParseDate(input.Date)
	if err != nil {
		return nil, err
	}

	type entry struct {
		habitID string
		status  domain.CheckinStatus
	}

	entries := make([]entry, 0, len(input.Updates))
	for i, u := range input.Updates {
		status, err := domain.ParseStatus(u.Status)
		if err != nil {
			return nil, fmt.Errorf("update %d: %w", i, err)
		}
		entries = append(entries, entry{habitID: u.HabitID, status: status})
	}

	owned := make(map[string]bool, len(entries))
	eligible := make([]entry, 0, len(entries))
	skipped := 0
	for _, e := range entries {
		ok, checked := owned[e.habitID]
		if !checked {
			ok, err = s.ownsHabit(ctx, e.habitID, input.UserID)
			if err != nil {
				return nil, err
			}
			owned[e.habitID] = ok
		}
		if !ok {
			skipped++
			continue
		}
		eligible = append(eligible, e)
	}

	if skipped > 0 {
		metrics.BatchEntriesSkipped.Add(float64(skipped))
		s.logger.Info("batch entries skipped",
			zap.String("user_id", input.UserID),
			zap.Int("skipped", skipped),
		)
	}

	result := &BatchResult{UpdatedHabitIDs: []string{}, Streaks: map[string]int{}}
	if len(eligible) == 0 {
		return result, nil
	}

	// Locks are taken in id order so two batches touching the same habits
	// cannot deadlock; entries are still applied in input order.
	lockOrder := make([]string, 0, len(owned))
	for id, ok := range owned {
		if ok {
			lockOrder = append(lockOrder, id)
		}
	}
	sort.Strings(lockOrder)

	var (
		updated   []string
		streaks   map[string]int
		committed []committedCheckin
	)

	err = s.uow.Do(ctx, func(ctx context.Context, tx domain.Store) error {
		updated = make([]string, 0, len(lockOrder))
		streaks = make(map[string]int, len(lockOrder))
		committed = make([]committedCheckin, 0, len(eligible))

		locked := make(map[string]*domain.Habit, len(lockOrder))
		for _, id := range lockOrder {
			h, err := tx.Habits().GetForUpdate(ctx, id)
			if errors.Is(err, domain.ErrHabitNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			locked[id] = h
		}

		for _, e := range eligible {
			h, ok := locked[e.habitID]
			if !ok {
				continue
			}

			checkin := domain.NewCheckin(h.ID, date, e.status)
			if err := tx.Checkins().Upsert(ctx, checkin); err != nil {
				return fmt.Errorf("checkin service: batch upsert %s@%s: %w", h.ID, date, err)
			}

			st, err := s.engine.Recompute(ctx, tx, h)
			if err != nil {
				return err
			}

			if _, seen := streaks[h.ID]; !seen {
				updated = append(updated, h.ID)
			}
			streaks[h.ID] = st.Current
			committed = append(committed, committedCheckin{checkin: checkin, streaks: st})
		}

		return nil
	})
	if err != nil {
		metrics.UnitOfWorkFailures.WithLabelValues("submit_batch").Inc()
		s.logger.Warn("batch check-in rolled back",
			zap.String("user_id", input.UserID),
			zap.String("date", date.String()),
			zap.Int("entries", len(eligible)),
			zap.Error(err),
		)
		return nil, err
	}

	s.afterCommit(ctx, input.UserID, committed)

	result.UpdatedHabitIDs = updated
	result.Streaks = streaks
	return result, nil
}

// ListCheckins returns the ledger for a habit in [from, to], oldest first.
func (s *CheckinService) ListCheckins(ctx context.Context, habitID, userID string, from, to domain.Date) ([]*domain.Checkin, error) {
	if from.IsZero() || to.IsZero() || from.After(to) {
		return nil, domain.ErrInvalidDateRange
	}

	habit, err := s.habits.GetByID(ctx, habitID)
	if err != nil {
		return nil, err
	}
	if habit.UserID != userID {
		return nil, domain.ErrUnauthorized
	}

	return s.checkins.ListByDateRange(ctx, habitID, from, to)
}

func (s *CheckinService) ownsHabit(ctx context.Context, habitID, userID string) (bool, error) {
	if strings.TrimSpace(habitID) == "" {
		return false, nil
	}
	h, err := s.habits.GetByID(ctx, habitID)
	if errors.Is(err, domain.ErrHabitNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return h.UserID == userID, nil
}

// afterCommit runs side effects that must never influence the outcome of a
// committed unit of work.
func (s *CheckinService) afterCommit(ctx context.Context, userID string, items []committedCheckin) {
	if len(items) == 0 {
		return
	}

	for _, item := range items {
		metrics.CheckinsSubmitted.WithLabelValues(string(item.checkin.Status)).Inc()
	}

	if s.cache != nil {
		s.cache.InvalidateUser(ctx, userID)
	}

	if s.events == nil {
		return
	}
	for _, item := range items {
		event := domain.NewCheckinRecordedEvent(userID, item.checkin, item.streaks)
		if err := s.events.PublishCheckinRecorded(ctx, event); err != nil {
			s.logger.Warn("failed to publish check-in event",
				zap.String("habit_id", item.checkin.HabitID),
				zap.Error(err),
			)
		}
	}
}
