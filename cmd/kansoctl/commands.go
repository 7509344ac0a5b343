package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/comitanigiacomo/kanso-habits/internal/adapters/migrations"
	"github.com/comitanigiacomo/kanso-habits/internal/adapters/repository"
	"github.com/comitanigiacomo/kanso-habits/internal/config"
	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habits/internal/core/services"
	"github.com/comitanigiacomo/kanso-habits/internal/core/workers"
)

var errMemoryDriver = errors.New("kansoctl needs the postgres driver")

type environment struct {
	cfg    *config.Config
	logger *zap.Logger
	out    io.Writer
}

func (e *environment) stdout() io.Writer {
	if e.out != nil {
		return e.out
	}
	return os.Stdout
}

func (e *environment) openDB(ctx context.Context) (*sqlx.DB, error) {
	if e.cfg.Database.Driver == config.DriverMemory {
		return nil, errMemoryDriver
	}

	db, err := sqlx.ConnectContext(ctx, "pgx", e.cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

type MigrateCmd struct {
	Status bool `help:"Only print the current schema version."`
}

func (c *MigrateCmd) Run(env *environment, ctx context.Context) error {
	db, err := env.openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	runner := migrations.NewRunner(db, migrations.FS(), env.logger)

	if !c.Status {
		applied, err := runner.Up(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(env.stdout(), "applied %d migration(s)\n", applied)
	}

	version, err := runner.CurrentVersion(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(env.stdout(), "schema version %d\n", version)
	return nil
}

type RecomputeCmd struct {
	HabitIDs    []string `name:"habit-id" help:"Habit to recompute. Repeatable; defaults to every habit."`
	Concurrency int      `help:"Parallel units of work." default:"4"`
	QueueSize   int      `help:"Pending job buffer." default:"256"`
}

func (c *RecomputeCmd) Run(env *environment, ctx context.Context) error {
	db, err := env.openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	ids := c.HabitIDs
	if len(ids) == 0 {
		ids, err = repository.NewPostgresHabitRepository(db).ListIDs(ctx)
		if err != nil {
			return err
		}
	}

	report, err := recompute(ctx, repository.NewPostgresStore(db), ids, c.Concurrency, c.QueueSize, env.logger)
	if err != nil {
		return err
	}

	fmt.Fprintf(env.stdout(), "processed %d, changed %d, failed %d\n", report.Processed, report.Changed, report.Failed)
	if report.Failed > 0 {
		return fmt.Errorf("%d habit(s) failed to recompute", report.Failed)
	}
	return nil
}

func recompute(ctx context.Context, uow domain.UnitOfWork, ids []string, concurrency, queueSize int, logger *zap.Logger) (workers.Report, error) {
	worker := workers.NewRecomputeWorker(uow, services.NewStreakEngine(logger), logger, queueSize)
	worker.Start(ctx, concurrency)

	for _, id := range ids {
		if err := worker.Submit(ctx, id); err != nil {
			report, _ := worker.Close()
			return report, err
		}
	}

	return worker.Close()
}
