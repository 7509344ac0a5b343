package services

import (
	"context"

	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
)

type TemplateService struct {
	repo   domain.TemplateRepository
	habits *HabitService
}

func NewTemplateService(repo domain.TemplateRepository, habits *HabitService) *TemplateService {
	return &TemplateService{
		repo:   repo,
		habits: habits,
	}
}

type CreateFromTemplateInput struct {
	TemplateID string
	UserID     string
	Name       string
	StartDate  string
	CategoryID string
}

func (s *TemplateService) List(ctx context.Context) ([]*domain.HabitTemplate, error) {
	return s.repo.List(ctx)
}

func (s *TemplateService) Get(ctx context.Context, id string) (*domain.HabitTemplate, error) {
	return s.repo.GetByID(ctx, id)
}

// CreateHabit instantiates a template as a new habit for the user.
// A non-empty Name overrides the template's.
func (s *TemplateService) CreateHabit(ctx context.Context, input CreateFromTemplateInput) (*domain.Habit, error) {
	tpl, err := s.repo.GetByID(ctx, input.TemplateID)
	if err != nil {
		return nil, err
	}

	return s.habits.Create(ctx, CreateHabitInput{
		UserID:      input.UserID,
		Name:        mergeString(input.Name, tpl.Name),
		Description: tpl.Description,
		TargetType:  string(tpl.TargetType),
		TargetDays:  tpl.TargetDayStrings(),
		StartDate:   input.StartDate,
		CategoryID:  input.CategoryID,
	})
}
