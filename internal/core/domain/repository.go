package domain

import (
	"context"
	"errors"
)

var (
	ErrHabitNotFound = errors.New("habit not found")
	ErrUnauthorized  = errors.New("unauthorized access")
)

type HabitRepository interface {
	// Create persists a new habit together with its target days.
	Create(ctx context.Context, habit *Habit) error

	// GetByID retrieves a habit (with target days) by its unique identifier.
	GetByID(ctx context.Context, id string) (*Habit, error)

	// GetForUpdate retrieves a habit and holds an exclusive lock on it until the
	// surrounding unit of work ends. Outside a unit of work it behaves like GetByID.
	GetForUpdate(ctx context.Context, id string) (*Habit, error)

	// ListByUserID retrieves all habits owned by a user.
	ListByUserID(ctx context.Context, userID string) ([]*Habit, error)

	// Update modifies the user-editable fields and the target days.
	// It never writes the streak fields.
	Update(ctx context.Context, habit *Habit) error

	// Delete removes a habit; target days and check-ins go with it.
	Delete(ctx context.Context, id string) error

	// UpdateStreaks writes the derived streak pair. Only the streak engine calls it.
	UpdateStreaks(ctx context.Context, id string, current, longest int) error
}

type CheckinRepository interface {
	// Upsert writes the status for (HabitID, Date). An existing record keeps its
	// identity and creation time; only status and updated_at change.
	// On return the argument carries the stored ID and timestamps.
	Upsert(ctx context.Context, checkin *Checkin) error

	// ListByHabitID returns the complete history of a habit, newest date first.
	ListByHabitID(ctx context.Context, habitID string) ([]*Checkin, error)

	// ListByDateRange returns check-ins in [from, to], oldest date first.
	ListByDateRange(ctx context.Context, habitID string, from, to Date) ([]*Checkin, error)

	// ListByUserIDAndDateRange returns check-ins of every habit a user owns in [from, to].
	ListByUserIDAndDateRange(ctx context.Context, userID string, from, to Date) ([]*Checkin, error)

	// ListRecentByUserID returns the most recently written check-ins of a user.
	ListRecentByUserID(ctx context.Context, userID string, limit int) ([]*Checkin, error)
}

// Store groups the repositories that take part in a unit of work.
type Store interface {
	Habits() HabitRepository
	Checkins() CheckinRepository
}

// UnitOfWork runs fn atomically. The Store handed to fn is bound to the unit:
// everything written through it commits together when fn returns nil and is
// discarded when fn returns an error (which Do then returns unchanged).
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}

// HabitCacheInvalidator drops cached per-user habit views after a commit.
type HabitCacheInvalidator interface {
	InvalidateUser(ctx context.Context, userID string)
}

// CheckinEventPublisher announces committed check-ins to other systems.
type CheckinEventPublisher interface {
	PublishCheckinRecorded(ctx context.Context, event CheckinRecordedEvent) error
}
