package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

var (
	_ domain.Store      = (*PostgresStore)(nil)
	_ domain.UnitOfWork = (*PostgresStore)(nil)
)

// dbtx is satisfied by both *sqlx.DB and *sqlx.Tx.
type dbtx interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

// PostgresStore hands out repositories bound to the connection pool and runs
// units of work as database transactions.
type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Habits() domain.HabitRepository {
	return newPostgresHabitRepository(s.db)
}

func (s *PostgresStore) Checkins() domain.CheckinRepository {
	return newPostgresCheckinRepository(s.db)
}

// Do runs fn inside one transaction. Row locks taken through GetForUpdate are
// released on commit or rollback.
func (s *PostgresStore) Do(ctx context.Context, fn func(ctx context.Context, tx domain.Store) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("unit of work: begin: %w", err)
	}
	defer tx.Rollback()

	if err := fn(ctx, &postgresTxStore{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("unit of work: commit: %w", err)
	}
	return nil
}

type postgresTxStore struct {
	tx *sqlx.Tx
}

func (s *postgresTxStore) Habits() domain.HabitRepository {
	return newPostgresHabitRepository(s.tx)
}

func (s *postgresTxStore) Checkins() domain.CheckinRepository {
	return newPostgresCheckinRepository(s.tx)
}

// inTx runs fn in q's transaction, or opens one when q is the pool.
func inTx(ctx context.Context, q dbtx, fn func(q dbtx) error) error {
	db, ok := q.(*sqlx.DB)
	if !ok {
		return fn(q)
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// pgErrorCode extracts the SQLSTATE from either driver's error type.
func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}
