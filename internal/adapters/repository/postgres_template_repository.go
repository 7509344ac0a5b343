package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
)

type PostgresTemplateRepository struct {
	db *sqlx.DB
}

func NewPostgresTemplateRepository(db *sqlx.DB) *PostgresTemplateRepository {
	return &PostgresTemplateRepository{db: db}
}

type templateRow struct {
	ID          string `db:"id"`
	Name        string `db:"name"`
	Description string `db:"description"`
	TargetType  string `db:"target_type"`
	TargetDays  string `db:"target_days"`
}

func (row templateRow) toDomain() (*domain.HabitTemplate, error) {
	var raw []string
	if row.TargetDays != "" {
		raw = strings.Split(row.TargetDays, ",")
	}
	days, err := domain.NormalizeWeekdays(raw)
	if err != nil {
		return nil, fmt.Errorf("template %s: %w", row.ID, err)
	}
	return &domain.HabitTemplate{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description,
		TargetType:  domain.TargetType(row.TargetType),
		TargetDays:  days,
	}, nil
}

const templateQuery = `SELECT id, name, description, target_type, target_days FROM habit_templates`

func (r *PostgresTemplateRepository) List(ctx context.Context) ([]*domain.HabitTemplate, error) {
	var rows []templateRow
	if err := r.db.SelectContext(ctx, &rows, templateQuery+` ORDER BY name ASC`); err != nil {
		return nil, fmt.Errorf("template query failed: %w", err)
	}

	out := make([]*domain.HabitTemplate, 0, len(rows))
	for _, row := range rows {
		t, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *PostgresTemplateRepository) GetByID(ctx context.Context, id string) (*domain.HabitTemplate, error) {
	var row templateRow
	if err := r.db.GetContext(ctx, &row, templateQuery+` WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTemplateNotFound
		}
		return nil, fmt.Errorf("template query failed: %w", err)
	}
	return row.toDomain()
}
