package domain

import (
	"context"
	"errors"
)

var ErrTemplateNotFound = errors.New("habit template not found")

// HabitTemplate is read-only reference data used to prefill new habits.
type HabitTemplate struct {
	ID          string     `json:"id" db:"id"`
	Name        string     `json:"name" db:"name"`
	Description string     `json:"description" db:"description"`
	TargetType  TargetType `json:"target_type" db:"target_type"`
	TargetDays  []Weekday  `json:"target_days,omitempty" db:"-"`
}

func (t *HabitTemplate) TargetDayStrings() []string {
	out := make([]string, len(t.TargetDays))
	for i, d := range t.TargetDays {
		out[i] = string(d)
	}
	return out
}

type TemplateRepository interface {
	List(ctx context.Context) ([]*HabitTemplate, error)
	GetByID(ctx context.Context, id string) (*HabitTemplate, error)
}
