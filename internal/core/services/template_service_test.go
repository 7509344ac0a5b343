package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-habits/internal/adapters/repository"
	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habits/internal/core/services"
)

func TestTemplateService(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	svc := services.NewTemplateService(store.Templates(), newHabitService(store))

	t.Run("List", func(t *testing.T) {
		list, err := svc.List(ctx)
		require.NoError(t, err)
		assert.NotEmpty(t, list)
	})

	t.Run("Create habit from template", func(t *testing.T) {
		h, err := svc.CreateHabit(ctx, services.CreateFromTemplateInput{
			TemplateID: "strength-training",
			UserID:     "user-1",
			StartDate:  "2024-01-01",
		})
		require.NoError(t, err)

		assert.Equal(t, "Strength training", h.Name)
		assert.Equal(t, domain.TargetCustom, h.TargetType)
		assert.Equal(t, []domain.Weekday{domain.Monday, domain.Wednesday, domain.Friday}, h.TargetDays)
		assert.Equal(t, "user-1", h.UserID)
	})

	t.Run("Name override", func(t *testing.T) {
		h, err := svc.CreateHabit(ctx, services.CreateFromTemplateInput{TemplateID: "read", UserID: "user-1", Name: "Read fiction"})
		require.NoError(t, err)
		assert.Equal(t, "Read fiction", h.Name)
	})

	t.Run("Unknown template", func(t *testing.T) {
		_, err := svc.CreateHabit(ctx, services.CreateFromTemplateInput{TemplateID: "nope", UserID: "user-1"})
		assert.ErrorIs(t, err, domain.ErrTemplateNotFound)

		_, err = svc.Get(ctx, "nope")
		assert.ErrorIs(t, err, domain.ErrTemplateNotFound)
	})
}
