package repository

import (
	"context"
	"sort"
	"strings"

	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
)

type InMemoryUserRepository struct {
	s *MemoryStore
}

func (r *InMemoryUserRepository) Create(ctx context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return domain.ErrEmailAlreadyExists
		}
	}
	copied := *user
	r.s.users[user.ID] = &copied
	return nil
}

func (r *InMemoryUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *InMemoryUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

// Delete removes the user and everything the user owns.
func (r *InMemoryUserRepository) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.s.users, id)

	for hid, h := range r.s.habits {
		if h.UserID == id {
			delete(r.s.habits, hid)
			delete(r.s.checkins, hid)
		}
	}
	for cid, c := range r.s.categories {
		if c.UserID == id {
			delete(r.s.categories, cid)
		}
	}
	return nil
}

type InMemoryCategoryRepository struct {
	s *MemoryStore
}

func (r *InMemoryCategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, c := range r.s.categories {
		if c.UserID == category.UserID && strings.EqualFold(c.Name, category.Name) {
			return domain.ErrCategoryExists
		}
	}
	copied := *category
	r.s.categories[category.ID] = &copied
	return nil
}

func (r *InMemoryCategoryRepository) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.categories[id]
	if !ok {
		return nil, domain.ErrCategoryNotFound
	}
	copied := *c
	return &copied, nil
}

func (r *InMemoryCategoryRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*domain.Category, 0)
	for _, c := range r.s.categories {
		if c.UserID == userID {
			copied := *c
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Delete removes the category and detaches the habits that referenced it.
func (r *InMemoryCategoryRepository) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.categories[id]; !ok {
		return domain.ErrCategoryNotFound
	}
	delete(r.s.categories, id)

	for _, h := range r.s.habits {
		if h.CategoryID != nil && *h.CategoryID == id {
			h.CategoryID = nil
		}
	}
	return nil
}

type InMemoryTemplateRepository struct {
	s *MemoryStore
}

func (r *InMemoryTemplateRepository) List(ctx context.Context) ([]*domain.HabitTemplate, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*domain.HabitTemplate, 0, len(r.s.templates))
	for _, t := range r.s.templates {
		copied := *t
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *InMemoryTemplateRepository) GetByID(ctx context.Context, id string) (*domain.HabitTemplate, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.templates[id]
	if !ok {
		return nil, domain.ErrTemplateNotFound
	}
	copied := *t
	return &copied, nil
}

// builtinTemplates mirrors the rows seeded by the habit_templates migration.
func builtinTemplates() []*domain.HabitTemplate {
	return []*domain.HabitTemplate{
		{ID: "drink-water", Name: "Drink water", Description: "Eight glasses over the day.", TargetType: domain.TargetDaily},
		{ID: "read", Name: "Read", Description: "Twenty pages before bed.", TargetType: domain.TargetDaily},
		{ID: "meditate", Name: "Meditate", Description: "Ten quiet minutes.", TargetType: domain.TargetDaily},
		{ID: "deep-work", Name: "Deep work", Description: "Two focused hours without notifications.", TargetType: domain.TargetWeekdays},
		{
			ID:          "strength-training",
			Name:        "Strength training",
			Description: "Full body session.",
			TargetType:  domain.TargetCustom,
			TargetDays:  []domain.Weekday{domain.Monday, domain.Wednesday, domain.Friday},
		},
		{
			ID:          "long-run",
			Name:        "Long run",
			Description: "Easy pace, at least 10km.",
			TargetType:  domain.TargetCustom,
			TargetDays:  []domain.Weekday{domain.Sunday},
		},
	}
}
