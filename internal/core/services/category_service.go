package services

import (
	"context"

	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
)

type CategoryService struct {
	repo domain.CategoryRepository
}

func NewCategoryService(repo domain.CategoryRepository) *CategoryService {
	return &CategoryService{repo: repo}
}

type CreateCategoryInput struct {
	UserID string
	Name   string
	Color  string
}

func (s *CategoryService) Create(ctx context.Context, input CreateCategoryInput) (*domain.Category, error) {
	category, err := domain.NewCategory(input.UserID, input.Name, input.Color)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, category); err != nil {
		return nil, err
	}

	return category, nil
}

func (s *CategoryService) ListByUserID(ctx context.Context, userID string) ([]*domain.Category, error) {
	return s.repo.ListByUserID(ctx, userID)
}

// Delete removes a category owned by userID. Habits referencing it are detached
// by the store, not deleted.
func (s *CategoryService) Delete(ctx context.Context, id, userID string) error {
	category, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if category.UserID != userID {
		return domain.ErrCategoryNotFound
	}
	return s.repo.Delete(ctx, id)
}
