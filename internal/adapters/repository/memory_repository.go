package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
)

// MemoryStore keeps every aggregate in process memory. It backs the "memory"
// database driver and the service tests. Values handed out are copies, so a
// caller mutating a habit never changes stored state without writing it back.
type MemoryStore struct {
	mu         sync.RWMutex
	habits     map[string]*domain.Habit
	checkins   map[string]map[string]*domain.Checkin
	users      map[string]*domain.User
	categories map[string]*domain.Category
	templates  map[string]*domain.HabitTemplate

	lockMu sync.Mutex
	locks  map[string]*sync.Mutex
}

func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		habits:     make(map[string]*domain.Habit),
		checkins:   make(map[string]map[string]*domain.Checkin),
		users:      make(map[string]*domain.User),
		categories: make(map[string]*domain.Category),
		templates:  make(map[string]*domain.HabitTemplate),
		locks:      make(map[string]*sync.Mutex),
	}
	for _, t := range builtinTemplates() {
		s.templates[t.ID] = t
	}
	return s
}

func (s *MemoryStore) Habits() domain.HabitRepository {
	return &InMemoryHabitRepository{s: s}
}

func (s *MemoryStore) Checkins() domain.CheckinRepository {
	return &InMemoryCheckinRepository{s: s}
}

func (s *MemoryStore) Users() *InMemoryUserRepository {
	return &InMemoryUserRepository{s: s}
}

func (s *MemoryStore) Categories() *InMemoryCategoryRepository {
	return &InMemoryCategoryRepository{s: s}
}

func (s *MemoryStore) Templates() *InMemoryTemplateRepository {
	return &InMemoryTemplateRepository{s: s}
}

func (s *MemoryStore) UnitOfWork() *InMemoryUnitOfWork {
	return &InMemoryUnitOfWork{s: s}
}

func (s *MemoryStore) habitLock(id string) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()

	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

// dropHabitLock forgets the mutex of a habit that no longer exists.
// Late waiters on the old mutex only ever find the habit gone.
func (s *MemoryStore) dropHabitLock(id string) {
	s.mu.RLock()
	_, exists := s.habits[id]
	s.mu.RUnlock()
	if exists {
		return
	}

	s.lockMu.Lock()
	delete(s.locks, id)
	s.lockMu.Unlock()
}

func cloneHabit(h *domain.Habit) *domain.Habit {
	c := *h
	if h.TargetDays != nil {
		c.TargetDays = append([]domain.Weekday(nil), h.TargetDays...)
	}
	if h.CategoryID != nil {
		id := *h.CategoryID
		c.CategoryID = &id
	}
	return &c
}

func cloneCheckin(c *domain.Checkin) *domain.Checkin {
	out := *c
	return &out
}

// upsertLocked applies the ledger rule to stored state; s.mu must be held.
func (s *MemoryStore) upsertLocked(checkin *domain.Checkin) {
	byDate, ok := s.checkins[checkin.HabitID]
	if !ok {
		byDate = make(map[string]*domain.Checkin)
		s.checkins[checkin.HabitID] = byDate
	}

	key := checkin.Date.String()
	if existing, ok := byDate[key]; ok {
		existing.Status = checkin.Status
		existing.UpdatedAt = checkin.UpdatedAt
		checkin.ID = existing.ID
		checkin.CreatedAt = existing.CreatedAt
		return
	}

	if checkin.ID == "" {
		checkin.ID = uuid.NewString()
	}
	byDate[key] = cloneCheckin(checkin)
}

type InMemoryHabitRepository struct {
	s *MemoryStore
}

func NewInMemoryHabitRepository(s *MemoryStore) *InMemoryHabitRepository {
	return &InMemoryHabitRepository{s: s}
}

func (r *InMemoryHabitRepository) Create(ctx context.Context, habit *domain.Habit) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.habits[habit.ID] = cloneHabit(habit)
	return nil
}

func (r *InMemoryHabitRepository) GetByID(ctx context.Context, id string) (*domain.Habit, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	habit, ok := r.s.habits[id]
	if !ok {
		return nil, domain.ErrHabitNotFound
	}
	return cloneHabit(habit), nil
}

func (r *InMemoryHabitRepository) GetForUpdate(ctx context.Context, id string) (*domain.Habit, error) {
	return r.GetByID(ctx, id)
}

func (r *InMemoryHabitRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Habit, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	habits := make([]*domain.Habit, 0)
	for _, h := range r.s.habits {
		if h.UserID == userID {
			habits = append(habits, cloneHabit(h))
		}
	}

	sort.Slice(habits, func(i, j int) bool {
		if habits[i].CreatedAt.Equal(habits[j].CreatedAt) {
			return habits[i].ID < habits[j].ID
		}
		return habits[i].CreatedAt.Before(habits[j].CreatedAt)
	})

	return habits, nil
}

// ListIDs returns every habit id in ascending order.
func (r *InMemoryHabitRepository) ListIDs(ctx context.Context) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	ids := make([]string, 0, len(r.s.habits))
	for id := range r.s.habits {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *InMemoryHabitRepository) Update(ctx context.Context, habit *domain.Habit) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.habits[habit.ID]
	if !ok {
		return domain.ErrHabitNotFound
	}

	updated := cloneHabit(habit)
	updated.CurrentStreak = stored.CurrentStreak
	updated.LongestStreak = stored.LongestStreak
	r.s.habits[habit.ID] = updated
	return nil
}

func (r *InMemoryHabitRepository) Delete(ctx context.Context, id string) error {
	lock := r.s.habitLock(id)
	lock.Lock()
	err := r.deleteLocked(id)
	lock.Unlock()

	r.s.dropHabitLock(id)
	return err
}

func (r *InMemoryHabitRepository) deleteLocked(id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.habits[id]; !ok {
		return domain.ErrHabitNotFound
	}

	delete(r.s.habits, id)
	delete(r.s.checkins, id)
	return nil
}

func (r *InMemoryHabitRepository) UpdateStreaks(ctx context.Context, id string, current, longest int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	h, ok := r.s.habits[id]
	if !ok {
		return domain.ErrHabitNotFound
	}
	h.CurrentStreak = current
	h.LongestStreak = longest
	h.UpdatedAt = time.Now().UTC()
	return nil
}

type InMemoryCheckinRepository struct {
	s *MemoryStore
}

func (r *InMemoryCheckinRepository) Upsert(ctx context.Context, checkin *domain.Checkin) error {
	if err := checkin.Validate(); err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.habits[checkin.HabitID]; !ok {
		return domain.ErrHabitNotFound
	}
	r.s.upsertLocked(checkin)
	return nil
}

func (r *InMemoryCheckinRepository) ListByHabitID(ctx context.Context, habitID string) ([]*domain.Checkin, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return sortedCheckins(r.s.checkins[habitID], nil, true), nil
}

func (r *InMemoryCheckinRepository) ListByDateRange(ctx context.Context, habitID string, from, to domain.Date) ([]*domain.Checkin, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	inRange := func(c *domain.Checkin) bool {
		return !c.Date.Before(from) && !c.Date.After(to)
	}
	return sortedCheckins(r.s.checkins[habitID], inRange, false), nil
}

func (r *InMemoryCheckinRepository) ListByUserIDAndDateRange(ctx context.Context, userID string, from, to domain.Date) ([]*domain.Checkin, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*domain.Checkin, 0)
	for habitID, byDate := range r.s.checkins {
		h, ok := r.s.habits[habitID]
		if !ok || h.UserID != userID {
			continue
		}
		for _, c := range byDate {
			if !c.Date.Before(from) && !c.Date.After(to) {
				out = append(out, cloneCheckin(c))
			}
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].HabitID < out[j].HabitID
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out, nil
}

func (r *InMemoryCheckinRepository) ListRecentByUserID(ctx context.Context, userID string, limit int) ([]*domain.Checkin, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*domain.Checkin, 0)
	for habitID, byDate := range r.s.checkins {
		h, ok := r.s.habits[habitID]
		if !ok || h.UserID != userID {
			continue
		}
		for _, c := range byDate {
			out = append(out, cloneCheckin(c))
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].Date.After(out[j].Date)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func sortedCheckins(byDate map[string]*domain.Checkin, keep func(*domain.Checkin) bool, newestFirst bool) []*domain.Checkin {
	out := make([]*domain.Checkin, 0, len(byDate))
	for _, c := range byDate {
		if keep == nil || keep(c) {
			out = append(out, cloneCheckin(c))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if newestFirst {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out
}
