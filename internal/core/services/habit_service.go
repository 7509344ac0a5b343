package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habits/internal/metrics"
)

type HabitService struct {
	repo       domain.HabitRepository
	categories domain.CategoryRepository
	uow        domain.UnitOfWork
	engine     *StreakEngine
	cache      domain.HabitCacheInvalidator
	logger     *zap.Logger
}

func NewHabitService(repo domain.HabitRepository, categories domain.CategoryRepository, uow domain.UnitOfWork, engine *StreakEngine, logger *zap.Logger) *HabitService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HabitService{
		repo:       repo,
		categories: categories,
		uow:        uow,
		engine:     engine,
		logger:     logger,
	}
}

func (s *HabitService) SetCacheInvalidator(c domain.HabitCacheInvalidator) {
	s.cache = c
}

type CreateHabitInput struct {
	UserID      string
	Name        string
	Description string
	TargetType  string
	TargetDays  []string
	StartDate   string
	CategoryID  string
}

// UpdateHabitInput carries a partial update: empty strings and nil slices keep
// the stored value. CategoryID set to "" detaches the category.
type UpdateHabitInput struct {
	ID          string
	UserID      string
	Name        string
	Description string
	TargetType  string
	TargetDays  []string
	CategoryID  *string
}

func mergeString(newVal, oldVal string) string {
	if newVal == "" {
		return oldVal
	}
	return newVal
}

func (s *HabitService) Create(ctx context.Context, input CreateHabitInput) (*domain.Habit, error) {
	var start domain.Date
	if input.StartDate != "" {
		d, err := domain.ParseDate(input.StartDate)
		if err != nil {
			return nil, err
		}
		start = d
	}

	habit, err := domain.NewHabit(input.UserID, input.Name, input.Description, input.TargetType, input.TargetDays, start)
	if err != nil {
		return nil, err
	}

	if input.CategoryID != "" {
		if err := s.checkCategory(ctx, input.CategoryID, input.UserID); err != nil {
			return nil, err
		}
		categoryID := input.CategoryID
		habit.CategoryID = &categoryID
	}

	if err := s.repo.Create(ctx, habit); err != nil {
		return nil, err
	}

	return habit, nil
}

func (s *HabitService) Get(ctx context.Context, id, userID string) (*domain.Habit, error) {
	habit, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if habit.UserID != userID {
		return nil, domain.ErrHabitNotFound
	}
	return habit, nil
}

func (s *HabitService) ListByUserID(ctx context.Context, userID string) ([]*domain.Habit, error) {
	return s.repo.ListByUserID(ctx, userID)
}

// Update applies the edit under the habit's lock. When the schedule changes the
// streaks are recomputed in the same unit of work, since they depend on it.
func (s *HabitService) Update(ctx context.Context, input UpdateHabitInput) (*domain.Habit, error) {
	if input.CategoryID != nil && *input.CategoryID != "" {
		if err := s.checkCategory(ctx, *input.CategoryID, input.UserID); err != nil {
			return nil, err
		}
	}

	var updated *domain.Habit
	err := s.uow.Do(ctx, func(ctx context.Context, tx domain.Store) error {
		habit, err := tx.Habits().GetForUpdate(ctx, input.ID)
		if err != nil {
			return err
		}
		if habit.UserID != input.UserID {
			return domain.ErrHabitNotFound
		}

		targetDays := habit.TargetDayStrings()
		if input.TargetDays != nil {
			targetDays = input.TargetDays
		}

		scheduleChanged, err := habit.Update(
			mergeString(input.Name, habit.Name),
			mergeString(input.Description, habit.Description),
			mergeString(input.TargetType, string(habit.TargetType)),
			targetDays,
		)
		if err != nil {
			return err
		}

		if input.CategoryID != nil {
			if *input.CategoryID == "" {
				habit.CategoryID = nil
			} else {
				categoryID := *input.CategoryID
				habit.CategoryID = &categoryID
			}
		}

		if err := tx.Habits().Update(ctx, habit); err != nil {
			return err
		}

		if scheduleChanged {
			if _, err := s.engine.Recompute(ctx, tx, habit); err != nil {
				return err
			}
		}

		updated = habit
		return nil
	})
	if err != nil {
		if !isClientError(err) {
			metrics.UnitOfWorkFailures.WithLabelValues("update_habit").Inc()
			s.logger.Error("habit update failed", zap.String("habit_id", input.ID), zap.Error(err))
		}
		return nil, err
	}

	if s.cache != nil {
		s.cache.InvalidateUser(ctx, input.UserID)
	}

	return updated, nil
}

func (s *HabitService) Delete(ctx context.Context, id string, userID string) error {
	habit, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if habit.UserID != userID {
		return domain.ErrHabitNotFound
	}

	return s.repo.Delete(ctx, id)
}

func (s *HabitService) checkCategory(ctx context.Context, categoryID, userID string) error {
	if s.categories == nil {
		return fmt.Errorf("%w: categories are not available", domain.ErrCategoryNotFound)
	}
	category, err := s.categories.GetByID(ctx, categoryID)
	if err != nil {
		return err
	}
	if category.UserID != userID {
		return domain.ErrCategoryNotFound
	}
	return nil
}

func isClientError(err error) bool {
	for _, target := range []error{
		domain.ErrHabitNotFound,
		domain.ErrHabitNameEmpty,
		domain.ErrHabitNameTooLong,
		domain.ErrHabitDescTooLong,
		domain.ErrInvalidTargetType,
		domain.ErrInvalidWeekday,
		domain.ErrTargetDaysRequired,
		domain.ErrCategoryNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
