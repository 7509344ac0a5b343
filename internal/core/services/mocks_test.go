package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-habits/internal/adapters/repository"
	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
)

var errBoom = errors.New("boom")

type MockInvalidator struct {
	mock.Mock
}

func (m *MockInvalidator) InvalidateUser(ctx context.Context, userID string) {
	m.Called(ctx, userID)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishCheckinRecorded(ctx context.Context, event domain.CheckinRecordedEvent) error {
	return m.Called(ctx, event).Error(0)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

// failingUnitOfWork fails any check-in upsert for one habit, after the writes
// for other habits in the same unit have been staged.
type failingUnitOfWork struct {
	inner   domain.UnitOfWork
	failFor string
}

func (u failingUnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, tx domain.Store) error) error {
	return u.inner.Do(ctx, func(ctx context.Context, tx domain.Store) error {
		return fn(ctx, failingStore{Store: tx, failFor: u.failFor})
	})
}

type failingStore struct {
	domain.Store
	failFor string
}

func (s failingStore) Checkins() domain.CheckinRepository {
	return failingCheckins{CheckinRepository: s.Store.Checkins(), failFor: s.failFor}
}

type failingCheckins struct {
	domain.CheckinRepository
	failFor string
}

func (c failingCheckins) Upsert(ctx context.Context, checkin *domain.Checkin) error {
	if checkin.HabitID == c.failFor {
		return errBoom
	}
	return c.CheckinRepository.Upsert(ctx, checkin)
}

func d(s string) domain.Date {
	return domain.MustParseDate(s)
}

func createHabit(t *testing.T, store *repository.MemoryStore, userID, targetType string, days ...string) *domain.Habit {
	t.Helper()

	h, err := domain.NewHabit(userID, "Habit "+targetType, "", targetType, days, d("2024-01-01"))
	require.NoError(t, err)
	require.NoError(t, store.Habits().Create(context.Background(), h))
	return h
}
