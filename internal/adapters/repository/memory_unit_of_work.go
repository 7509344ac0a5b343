package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
)

// InMemoryUnitOfWork stages writes in a private buffer and applies them to the
// MemoryStore only when the callback succeeds. GetForUpdate takes a per-habit
// mutex that is held until Do returns.
type InMemoryUnitOfWork struct {
	s *MemoryStore
}

func NewInMemoryUnitOfWork(s *MemoryStore) *InMemoryUnitOfWork {
	return &InMemoryUnitOfWork{s: s}
}

func (u *InMemoryUnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, tx domain.Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &memoryTx{
		s:        u.s,
		held:     make(map[string]*sync.Mutex),
		habits:   make(map[string]*domain.Habit),
		created:  make(map[string]bool),
		deleted:  make(map[string]bool),
		checkins: make(map[string]map[string]*domain.Checkin),
	}
	defer tx.release()

	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tx.commit()
	return nil
}

type memoryTx struct {
	s    *MemoryStore
	held map[string]*sync.Mutex

	habits   map[string]*domain.Habit
	created  map[string]bool
	deleted  map[string]bool
	checkins map[string]map[string]*domain.Checkin
}

func (tx *memoryTx) Habits() domain.HabitRepository {
	return &txHabitRepository{tx: tx}
}

func (tx *memoryTx) Checkins() domain.CheckinRepository {
	return &txCheckinRepository{tx: tx}
}

func (tx *memoryTx) lock(id string) {
	if _, ok := tx.held[id]; ok {
		return
	}
	l := tx.s.habitLock(id)
	l.Lock()
	tx.held[id] = l
}

func (tx *memoryTx) release() {
	for id, l := range tx.held {
		l.Unlock()
		delete(tx.held, id)
		tx.s.dropHabitLock(id)
	}
}

// habit returns the habit as this unit of work sees it, or nil.
func (tx *memoryTx) habit(id string) *domain.Habit {
	if tx.deleted[id] {
		return nil
	}
	if h, ok := tx.habits[id]; ok {
		return h
	}

	tx.s.mu.RLock()
	defer tx.s.mu.RUnlock()

	if h, ok := tx.s.habits[id]; ok {
		return cloneHabit(h)
	}
	return nil
}

// ledger merges stored and staged check-ins of one habit, keyed by date.
func (tx *memoryTx) ledger(habitID string) map[string]*domain.Checkin {
	out := make(map[string]*domain.Checkin)
	if tx.deleted[habitID] {
		return out
	}

	tx.s.mu.RLock()
	for k, c := range tx.s.checkins[habitID] {
		out[k] = cloneCheckin(c)
	}
	tx.s.mu.RUnlock()

	for k, c := range tx.checkins[habitID] {
		out[k] = cloneCheckin(c)
	}
	return out
}

func (tx *memoryTx) userHabitIDs(userID string) []string {
	seen := make(map[string]bool)

	tx.s.mu.RLock()
	for id, h := range tx.s.habits {
		if h.UserID == userID {
			seen[id] = true
		}
	}
	tx.s.mu.RUnlock()

	for id, h := range tx.habits {
		if h.UserID == userID {
			seen[id] = true
		}
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		if !tx.deleted[id] {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

func (tx *memoryTx) commit() {
	tx.s.mu.Lock()
	defer tx.s.mu.Unlock()

	for id := range tx.deleted {
		delete(tx.s.habits, id)
		delete(tx.s.checkins, id)
	}

	for id, h := range tx.habits {
		if _, exists := tx.s.habits[id]; !exists && !tx.created[id] {
			continue
		}
		tx.s.habits[id] = cloneHabit(h)
	}

	for habitID, byDate := range tx.checkins {
		if _, ok := tx.s.habits[habitID]; !ok {
			continue
		}
		for _, c := range byDate {
			tx.s.upsertLocked(cloneCheckin(c))
		}
	}
}

type txHabitRepository struct {
	tx *memoryTx
}

func (r *txHabitRepository) Create(ctx context.Context, habit *domain.Habit) error {
	r.tx.habits[habit.ID] = cloneHabit(habit)
	r.tx.created[habit.ID] = true
	delete(r.tx.deleted, habit.ID)
	return nil
}

func (r *txHabitRepository) GetByID(ctx context.Context, id string) (*domain.Habit, error) {
	h := r.tx.habit(id)
	if h == nil {
		return nil, domain.ErrHabitNotFound
	}
	return cloneHabit(h), nil
}

func (r *txHabitRepository) GetForUpdate(ctx context.Context, id string) (*domain.Habit, error) {
	r.tx.lock(id)
	return r.GetByID(ctx, id)
}

func (r *txHabitRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Habit, error) {
	ids := r.tx.userHabitIDs(userID)
	habits := make([]*domain.Habit, 0, len(ids))
	for _, id := range ids {
		if h := r.tx.habit(id); h != nil {
			habits = append(habits, cloneHabit(h))
		}
	}
	return habits, nil
}

func (r *txHabitRepository) Update(ctx context.Context, habit *domain.Habit) error {
	current := r.tx.habit(habit.ID)
	if current == nil {
		return domain.ErrHabitNotFound
	}

	updated := cloneHabit(habit)
	updated.CurrentStreak = current.CurrentStreak
	updated.LongestStreak = current.LongestStreak
	r.tx.habits[habit.ID] = updated
	return nil
}

func (r *txHabitRepository) Delete(ctx context.Context, id string) error {
	if r.tx.habit(id) == nil {
		return domain.ErrHabitNotFound
	}
	r.tx.deleted[id] = true
	delete(r.tx.habits, id)
	delete(r.tx.checkins, id)
	return nil
}

func (r *txHabitRepository) UpdateStreaks(ctx context.Context, id string, current, longest int) error {
	h := r.tx.habit(id)
	if h == nil {
		return domain.ErrHabitNotFound
	}
	h.CurrentStreak = current
	h.LongestStreak = longest
	r.tx.habits[id] = h
	return nil
}

type txCheckinRepository struct {
	tx *memoryTx
}

func (r *txCheckinRepository) Upsert(ctx context.Context, checkin *domain.Checkin) error {
	if err := checkin.Validate(); err != nil {
		return err
	}
	if r.tx.habit(checkin.HabitID) == nil {
		return domain.ErrHabitNotFound
	}

	key := checkin.Date.String()
	if existing, ok := r.tx.ledger(checkin.HabitID)[key]; ok {
		checkin.ID = existing.ID
		checkin.CreatedAt = existing.CreatedAt
	} else if checkin.ID == "" {
		checkin.ID = uuid.NewString()
	}

	staged, ok := r.tx.checkins[checkin.HabitID]
	if !ok {
		staged = make(map[string]*domain.Checkin)
		r.tx.checkins[checkin.HabitID] = staged
	}
	staged[key] = cloneCheckin(checkin)
	return nil
}

func (r *txCheckinRepository) ListByHabitID(ctx context.Context, habitID string) ([]*domain.Checkin, error) {
	return sortedCheckins(r.tx.ledger(habitID), nil, true), nil
}

func (r *txCheckinRepository) ListByDateRange(ctx context.Context, habitID string, from, to domain.Date) ([]*domain.Checkin, error) {
	inRange := func(c *domain.Checkin) bool {
		return !c.Date.Before(from) && !c.Date.After(to)
	}
	return sortedCheckins(r.tx.ledger(habitID), inRange, false), nil
}

func (r *txCheckinRepository) ListByUserIDAndDateRange(ctx context.Context, userID string, from, to domain.Date) ([]*domain.Checkin, error) {
	out := make([]*domain.Checkin, 0)
	for _, id := range r.tx.userHabitIDs(userID) {
		list, _ := r.ListByDateRange(ctx, id, from, to)
		out = append(out, list...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out, nil
}

func (r *txCheckinRepository) ListRecentByUserID(ctx context.Context, userID string, limit int) ([]*domain.Checkin, error) {
	out := make([]*domain.Checkin, 0)
	for _, id := range r.tx.userHabitIDs(userID) {
		out = append(out, sortedCheckins(r.tx.ledger(id), nil, true)...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
