package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidStatus  = errors.New("invalid status (must be completed or missed)")
	ErrInvalidCheckin = errors.New("invalid check-in data")
)

type CheckinStatus string

const (
	StatusCompleted CheckinStatus = "completed"
	StatusMissed    CheckinStatus = "missed"
)

func ParseStatus(s string) (CheckinStatus, error) {
	switch st := CheckinStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusCompleted, StatusMissed:
		return st, nil
	default:
		return "", ErrInvalidStatus
	}
}

// Checkin is the single ledger record for a (habit, date) pair.
type Checkin struct {
	ID      string        `json:"id" db:"id"`
	HabitID string        `json:"habit_id" db:"habit_id"`
	Date    Date          `json:"date" db:"date"`
	Status  CheckinStatus `json:"status" db:"status"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

func NewCheckin(habitID string, date Date, status CheckinStatus) *Checkin {
	now := time.Now().UTC()

	return &Checkin{
		HabitID:   habitID,
		Date:      date,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (c *Checkin) Validate() error {
	if strings.TrimSpace(c.HabitID) == "" {
		return fmt.Errorf("%w: habit_id is required", ErrInvalidCheckin)
	}
	if c.Date.IsZero() {
		return ErrInvalidDate
	}
	if _, err := ParseStatus(string(c.Status)); err != nil {
		return err
	}
	return nil
}

func (c *Checkin) IsCompleted() bool {
	return c.Status == StatusCompleted
}
