package mocks

import (
	"context"
	"database/sql"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/pksim-api/internal/domain"
	"github.com/phrazzld/pksim-api/internal/domain/pk"
	"github.com/phrazzld/pksim-api/internal/store"
)

// MockBloodTestStore implements store.BloodTestStore and
// personalize.ObservationSource in memory.
type MockBloodTestStore struct {
	CreateFn       func(ctx context.Context, test *domain.BloodTest) error
	ListFn         func(ctx context.Context, userID uuid.UUID, filter store.BloodTestFilter) ([]*domain.BloodTest, error)
	DeleteFn       func(ctx context.Context, userID, id uuid.UUID) error
	ObservationsFn func(ctx context.Context, userID uuid.UUID, class domain.CompoundClass) ([]pk.Observation, error)

	mu    sync.Mutex
	tests []*domain.BloodTest
}

var _ store.BloodTestStore = (*MockBloodTestStore)(nil)

// NewMockBloodTestStore creates a store preloaded with tests.
func NewMockBloodTestStore(tests ...*domain.BloodTest) *MockBloodTestStore {
	return &MockBloodTestStore{tests: tests}
}

func (m *MockBloodTestStore) Create(ctx context.Context, test *domain.BloodTest) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, test)
	}
	if err := test.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.tests = append(m.tests, test)
	return nil
}

func (m *MockBloodTestStore) List(ctx context.Context, userID uuid.UUID, filter store.BloodTestFilter) ([]*domain.BloodTest, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, userID, filter)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	out := []*domain.BloodTest{}
	for _, t := range m.tests {
		if t.UserID != userID {
			continue
		}
		if filter.Hormone != "" && t.Hormone != filter.Hormone {
			continue
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TestTime.After(out[j].TestTime) })
	return out, nil
}

func (m *MockBloodTestStore) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, userID, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for i, t := range m.tests {
		if t.ID == id && t.UserID == userID {
			m.tests = append(m.tests[:i], m.tests[i+1:]...)
			return nil
		}
	}
	return store.ErrBloodTestNotFound
}

func (m *MockBloodTestStore) DeleteAllForUser(_ context.Context, userID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.tests[:0]
	var n int64
	for _, t := range m.tests {
		if t.UserID == userID {
			n++
			continue
		}
		kept = append(kept, t)
	}
	m.tests = kept
	return n, nil
}

// WithTx returns the receiver.
func (m *MockBloodTestStore) WithTx(*sql.Tx) store.BloodTestStore {
	return m
}

func (m *MockBloodTestStore) Observations(ctx context.Context, userID uuid.UUID, class domain.CompoundClass) ([]pk.Observation, error) {
	if m.ObservationsFn != nil {
		return m.ObservationsFn(ctx, userID, class)
	}
	tests, err := m.List(ctx, userID, store.BloodTestFilter{Hormone: class})
	if err != nil {
		return nil, err
	}
	obs := make([]pk.Observation, len(tests))
	for i, t := range tests {
		obs[i] = pk.ObservationFromBloodTest(t)
	}
	return obs, nil
}
