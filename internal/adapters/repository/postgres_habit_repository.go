package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
)

const habitColumns = `id, user_id, category_id, name, description, target_type,
	start_date, current_streak, longest_streak, created_at, updated_at`

type PostgresHabitRepository struct {
	db dbtx
}

func NewPostgresHabitRepository(db *sqlx.DB) *PostgresHabitRepository {
	return newPostgresHabitRepository(db)
}

func newPostgresHabitRepository(db dbtx) *PostgresHabitRepository {
	return &PostgresHabitRepository{db: db}
}

func (r *PostgresHabitRepository) Create(ctx context.Context, h *domain.Habit) error {
	return inTx(ctx, r.db, func(q dbtx) error {
		query := `
			INSERT INTO habits (
				id, user_id, category_id, name, description, target_type,
				start_date, current_streak, longest_streak, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

		_, err := q.ExecContext(ctx, query,
			h.ID, h.UserID, h.CategoryID, h.Name, h.Description, h.TargetType,
			h.StartDate, h.CurrentStreak, h.LongestStreak, h.CreatedAt, h.UpdatedAt,
		)
		if err != nil {
			if pgErrorCode(err) == pgForeignKeyViolation {
				return fmt.Errorf("failed to insert habit: %w", domain.ErrHabitInvalidUserID)
			}
			return fmt.Errorf("failed to insert habit: %w", err)
		}

		return writeTargetDays(ctx, q, h.ID, h.TargetDays)
	})
}

func (r *PostgresHabitRepository) GetByID(ctx context.Context, id string) (*domain.Habit, error) {
	return r.get(ctx, `SELECT `+habitColumns+` FROM habits WHERE id = $1`, id)
}

func (r *PostgresHabitRepository) GetForUpdate(ctx context.Context, id string) (*domain.Habit, error) {
	return r.get(ctx, `SELECT `+habitColumns+` FROM habits WHERE id = $1 FOR UPDATE`, id)
}

func (r *PostgresHabitRepository) get(ctx context.Context, query, id string) (*domain.Habit, error) {
	var h domain.Habit
	if err := r.db.GetContext(ctx, &h, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrHabitNotFound
		}
		return nil, fmt.Errorf("database scan error: %w", err)
	}

	if err := loadTargetDays(ctx, r.db, []*domain.Habit{&h}); err != nil {
		return nil, err
	}
	return &h, nil
}

func (r *PostgresHabitRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Habit, error) {
	query := `SELECT ` + habitColumns + ` FROM habits WHERE user_id = $1 ORDER BY created_at ASC, id ASC`

	habits := make([]*domain.Habit, 0)
	if err := r.db.SelectContext(ctx, &habits, query, userID); err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}

	if err := loadTargetDays(ctx, r.db, habits); err != nil {
		return nil, err
	}
	return habits, nil
}

// ListIDs returns every habit id in ascending order.
func (r *PostgresHabitRepository) ListIDs(ctx context.Context) ([]string, error) {
	ids := make([]string, 0)
	if err := r.db.SelectContext(ctx, &ids, `SELECT id FROM habits ORDER BY id ASC`); err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	return ids, nil
}

func (r *PostgresHabitRepository) Update(ctx context.Context, h *domain.Habit) error {
	return inTx(ctx, r.db, func(q dbtx) error {
		query := `
			UPDATE habits SET
				category_id = $1, name = $2, description = $3, target_type = $4,
				updated_at = NOW()
			WHERE id = $5
			RETURNING updated_at`

		if err := q.QueryRowxContext(ctx, query,
			h.CategoryID, h.Name, h.Description, h.TargetType, h.ID,
		).Scan(&h.UpdatedAt); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.ErrHabitNotFound
			}
			if pgErrorCode(err) == pgForeignKeyViolation {
				return domain.ErrCategoryNotFound
			}
			return fmt.Errorf("update query failed: %w", err)
		}

		if _, err := q.ExecContext(ctx, `DELETE FROM habit_target_days WHERE habit_id = $1`, h.ID); err != nil {
			return fmt.Errorf("failed to clear target days: %w", err)
		}
		return writeTargetDays(ctx, q, h.ID, h.TargetDays)
	})
}

func (r *PostgresHabitRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM habits WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete query failed: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrHabitNotFound
	}

	return nil
}

func (r *PostgresHabitRepository) UpdateStreaks(ctx context.Context, id string, current, longest int) error {
	query := `
		UPDATE habits
		SET current_streak = $2, longest_streak = $3, updated_at = NOW()
		WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id, current, longest)
	if err != nil {
		return fmt.Errorf("failed to update streaks: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrHabitNotFound
	}
	return nil
}

func writeTargetDays(ctx context.Context, q dbtx, habitID string, days []domain.Weekday) error {
	for _, d := range days {
		if _, err := q.ExecContext(ctx,
			`INSERT INTO habit_target_days (habit_id, day) VALUES ($1, $2)`, habitID, string(d),
		); err != nil {
			return fmt.Errorf("failed to insert target day %s: %w", d, err)
		}
	}
	return nil
}

type targetDayRow struct {
	HabitID string `db:"habit_id"`
	Day     string `db:"day"`
}

func loadTargetDays(ctx context.Context, q dbtx, habits []*domain.Habit) error {
	if len(habits) == 0 {
		return nil
	}

	ids := make([]string, len(habits))
	for i, h := range habits {
		ids[i] = h.ID
	}

	query, args, err := sqlx.In(`SELECT habit_id, day FROM habit_target_days WHERE habit_id IN (?)`, ids)
	if err != nil {
		return fmt.Errorf("failed to build target days query: %w", err)
	}

	var rows []targetDayRow
	if err := q.SelectContext(ctx, &rows, q.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to load target days: %w", err)
	}

	grouped := make(map[string][]string, len(habits))
	for _, row := range rows {
		grouped[row.HabitID] = append(grouped[row.HabitID], row.Day)
	}

	for _, h := range habits {
		days, err := domain.NormalizeWeekdays(grouped[h.ID])
		if err != nil {
			return fmt.Errorf("habit %s: %w", h.ID, err)
		}
		h.TargetDays = days
	}
	return nil
}
