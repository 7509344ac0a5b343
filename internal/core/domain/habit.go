package domain

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

var (
	ErrHabitNameEmpty     = errors.New("habit name cannot be empty")
	ErrHabitNameTooLong   = errors.New("habit name is too long (max 100 chars)")
	ErrHabitDescTooLong   = errors.New("habit description is too long (max 500 chars)")
	ErrHabitInvalidUserID = errors.New("invalid user id")
)

const (
	MaxNameLen = 100
	MaxDescLen = 500
)

type Habit struct {
	ID            string     `json:"id" db:"id"`
	UserID        string     `json:"user_id" db:"user_id"`
	CategoryID    *string    `json:"category_id,omitempty" db:"category_id"`
	Name          string     `json:"name" db:"name"`
	Description   string     `json:"description,omitempty" db:"description"`
	TargetType    TargetType `json:"target_type" db:"target_type"`
	TargetDays    []Weekday  `json:"target_days,omitempty" db:"-"`
	StartDate     Date       `json:"start_date" db:"start_date"`
	CurrentStreak int        `json:"current_streak" db:"current_streak"`
	LongestStreak int        `json:"longest_streak" db:"longest_streak"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

type schedule struct {
	targetType TargetType
	targetDays []Weekday
}

func validateAndNormalize(name, desc, targetType string, targetDays []string) (string, string, schedule, error) {
	cleanName := strings.TrimSpace(name)
	if cleanName == "" {
		return "", "", schedule{}, ErrHabitNameEmpty
	}
	if utf8.RuneCountInString(cleanName) > MaxNameLen {
		return "", "", schedule{}, ErrHabitNameTooLong
	}

	cleanDesc := strings.TrimSpace(desc)
	if utf8.RuneCountInString(cleanDesc) > MaxDescLen {
		return "", "", schedule{}, ErrHabitDescTooLong
	}

	tt, err := ParseTargetType(targetType)
	if err != nil {
		return "", "", schedule{}, err
	}

	days, err := NormalizeWeekdays(targetDays)
	if err != nil {
		return "", "", schedule{}, err
	}

	if tt == TargetCustom && len(days) == 0 {
		return "", "", schedule{}, ErrTargetDaysRequired
	}
	if tt != TargetCustom {
		days = nil
	}

	return cleanName, cleanDesc, schedule{targetType: tt, targetDays: days}, nil
}

func NewHabit(userID, name, description, targetType string, targetDays []string, startDate Date) (*Habit, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrHabitInvalidUserID
	}

	cleanName, cleanDesc, sched, err := validateAndNormalize(name, description, targetType, targetDays)
	if err != nil {
		return nil, err
	}

	if startDate.IsZero() {
		startDate = Today()
	}

	now := time.Now().UTC()

	return &Habit{
		ID:          uuid.New().String(),
		UserID:      userID,
		Name:        cleanName,
		Description: cleanDesc,
		TargetType:  sched.targetType,
		TargetDays:  sched.targetDays,
		StartDate:   startDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Update replaces the user-editable fields. Streak fields are left untouched;
// it reports whether the schedule changed so the caller can recompute them.
func (h *Habit) Update(name, description, targetType string, targetDays []string) (bool, error) {
	cleanName, cleanDesc, sched, err := validateAndNormalize(name, description, targetType, targetDays)
	if err != nil {
		return false, err
	}

	changed := sched.targetType != h.TargetType || !sameWeekdays(sched.targetDays, h.TargetDays)

	h.Name = cleanName
	h.Description = cleanDesc
	h.TargetType = sched.targetType
	h.TargetDays = sched.targetDays
	h.UpdatedAt = time.Now().UTC()

	return changed, nil
}

func (h *Habit) TargetDayStrings() []string {
	out := make([]string, len(h.TargetDays))
	for i, d := range h.TargetDays {
		out[i] = string(d)
	}
	return out
}

func sameWeekdays(a, b []Weekday) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
