package domain

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

var (
	ErrCategoryNotFound  = errors.New("category not found")
	ErrCategoryNameEmpty = errors.New("category name cannot be empty")
	ErrCategoryExists    = errors.New("category already exists")
	ErrInvalidColor      = errors.New("invalid color format (must be #RRGGBB)")
)

var colorRegex = regexp.MustCompile(`^#([A-Fa-f0-9]{6}|[A-Fa-f0-9]{3})$`)

const DefaultCategoryColor = "#7C8B9A"

type Category struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Name      string    `json:"name" db:"name"`
	Color     string    `json:"color" db:"color"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

func NewCategory(userID, name, color string) (*Category, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrHabitInvalidUserID
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrCategoryNameEmpty
	}
	if utf8.RuneCountInString(name) > MaxNameLen {
		return nil, ErrHabitNameTooLong
	}

	if color == "" {
		color = DefaultCategoryColor
	} else if !colorRegex.MatchString(color) {
		return nil, ErrInvalidColor
	}

	return &Category{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		Color:     color,
		CreatedAt: time.Now().UTC(),
	}, nil
}

type CategoryRepository interface {
	Create(ctx context.Context, category *Category) error
	GetByID(ctx context.Context, id string) (*Category, error)
	ListByUserID(ctx context.Context, userID string) ([]*Category, error)
	Delete(ctx context.Context, id string) error
}
