package workers

import (
	"context"
	"errors"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habits/internal/core/services"
)

var ErrWorkerClosed = errors.New("recompute worker is closed")

// Report summarizes a drained worker.
type Report struct {
	Processed int64 `json:"processed"`
	Changed   int64 `json:"changed"`
	Failed    int64 `json:"failed"`
}

// RecomputeWorker rebuilds streaks for queued habits. Each job runs in its own
// unit of work holding the habit lock, so it is safe alongside live check-ins.
type RecomputeWorker struct {
	uow    domain.UnitOfWork
	engine *services.StreakEngine
	logger *zap.Logger
	jobs   chan string

	group  *errgroup.Group
	closed atomic.Bool

	processed atomic.Int64
	changed   atomic.Int64
	failed    atomic.Int64
}

func NewRecomputeWorker(uow domain.UnitOfWork, engine *services.StreakEngine, logger *zap.Logger, queueSize int) *RecomputeWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if queueSize <= 0 {
		queueSize = 100
	}
	return &RecomputeWorker{
		uow:    uow,
		engine: engine,
		logger: logger,
		jobs:   make(chan string, queueSize),
	}
}

// Start launches concurrency consumers. They stop when the queue is closed
// or ctx is cancelled.
func (w *RecomputeWorker) Start(ctx context.Context, concurrency int) {
	if concurrency <= 0 {
		concurrency = 1
	}

	w.group = new(errgroup.Group)
	w.logger.Info("recompute worker started", zap.Int("concurrency", concurrency))

	for i := 0; i < concurrency; i++ {
		w.group.Go(func() error {
			for {
				select {
				case id, ok := <-w.jobs:
					if !ok {
						return nil
					}
					w.process(ctx, id)
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		})
	}
}

// Submit blocks until the job is queued or ctx ends.
func (w *RecomputeWorker) Submit(ctx context.Context, habitID string) error {
	if w.closed.Load() {
		return ErrWorkerClosed
	}
	select {
	case w.jobs <- habitID:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting jobs, waits for the queue to drain and returns the totals.
// Submit must not race with Close.
func (w *RecomputeWorker) Close() (Report, error) {
	if w.closed.CompareAndSwap(false, true) {
		close(w.jobs)
	}

	var err error
	if w.group != nil {
		err = w.group.Wait()
	}

	report := Report{
		Processed: w.processed.Load(),
		Changed:   w.changed.Load(),
		Failed:    w.failed.Load(),
	}
	w.logger.Info("recompute worker stopped",
		zap.Int64("processed", report.Processed),
		zap.Int64("changed", report.Changed),
		zap.Int64("failed", report.Failed),
	)
	return report, err
}

func (w *RecomputeWorker) process(ctx context.Context, habitID string) {
	changed := false

	err := w.uow.Do(ctx, func(ctx context.Context, tx domain.Store) error {
		habit, err := tx.Habits().GetForUpdate(ctx, habitID)
		if err != nil {
			return err
		}

		before := domain.Streaks{Current: habit.CurrentStreak, Longest: habit.LongestStreak}
		after, err := w.engine.Recompute(ctx, tx, habit)
		if err != nil {
			return err
		}
		changed = after != before
		return nil
	})

	w.processed.Add(1)
	if err != nil {
		w.failed.Add(1)
		w.logger.Error("recompute failed", zap.String("habit_id", habitID), zap.Error(err))
		return
	}
	if changed {
		w.changed.Add(1)
	}
}
