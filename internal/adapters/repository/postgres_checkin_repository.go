package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
)

const checkinColumns = `c.id, c.habit_id, c.date, c.status, c.created_at, c.updated_at`

type PostgresCheckinRepository struct {
	db dbtx
}

func NewPostgresCheckinRepository(db *sqlx.DB) *PostgresCheckinRepository {
	return newPostgresCheckinRepository(db)
}

func newPostgresCheckinRepository(db dbtx) *PostgresCheckinRepository {
	return &PostgresCheckinRepository{db: db}
}

// Upsert relies on UNIQUE (habit_id, date): a conflicting row keeps its id and
// created_at, and RETURNING hands the stored values back to the caller.
func (r *PostgresCheckinRepository) Upsert(ctx context.Context, c *domain.Checkin) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}

	query := `
		INSERT INTO checkins (id, habit_id, date, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (habit_id, date) DO UPDATE
		SET status = EXCLUDED.status, updated_at = EXCLUDED.updated_at
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		c.ID, c.HabitID, c.Date, c.Status, c.CreatedAt, c.UpdatedAt,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if pgErrorCode(err) == pgForeignKeyViolation {
			return domain.ErrHabitNotFound
		}
		return fmt.Errorf("failed to upsert check-in: %w", err)
	}

	return nil
}

func (r *PostgresCheckinRepository) ListByHabitID(ctx context.Context, habitID string) ([]*domain.Checkin, error) {
	query := `SELECT ` + checkinColumns + ` FROM checkins c WHERE c.habit_id = $1 ORDER BY c.date DESC`
	return r.list(ctx, query, habitID)
}

func (r *PostgresCheckinRepository) ListByDateRange(ctx context.Context, habitID string, from, to domain.Date) ([]*domain.Checkin, error) {
	query := `
		SELECT ` + checkinColumns + ` FROM checkins c
		WHERE c.habit_id = $1 AND c.date BETWEEN $2 AND $3
		ORDER BY c.date ASC`
	return r.list(ctx, query, habitID, from, to)
}

func (r *PostgresCheckinRepository) ListByUserIDAndDateRange(ctx context.Context, userID string, from, to domain.Date) ([]*domain.Checkin, error) {
	query := `
		SELECT ` + checkinColumns + ` FROM checkins c
		JOIN habits h ON h.id = c.habit_id
		WHERE h.user_id = $1 AND c.date BETWEEN $2 AND $3
		ORDER BY c.date ASC, c.habit_id ASC`
	return r.list(ctx, query, userID, from, to)
}

func (r *PostgresCheckinRepository) ListRecentByUserID(ctx context.Context, userID string, limit int) ([]*domain.Checkin, error) {
	query := `
		SELECT ` + checkinColumns + ` FROM checkins c
		JOIN habits h ON h.id = c.habit_id
		WHERE h.user_id = $1
		ORDER BY c.updated_at DESC, c.date DESC
		LIMIT $2`
	return r.list(ctx, query, userID, limit)
}

func (r *PostgresCheckinRepository) list(ctx context.Context, query string, args ...interface{}) ([]*domain.Checkin, error) {
	checkins := make([]*domain.Checkin, 0)
	if err := r.db.SelectContext(ctx, &checkins, query, args...); err != nil {
		return nil, fmt.Errorf("check-in query failed: %w", err)
	}
	return checkins, nil
}
