package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/Harshitk-cp/aptnet/internal/domain"
	"github.com/Harshitk-cp/aptnet/internal/store"
	"github.com/google/uuid"
)

// mockLearnerStore implements domain.LearnerStore for testing.
type mockLearnerStore struct {
	learners map[uuid.UUID]*domain.Learner
}

func newMockLearnerStore() *mockLearnerStore {
	return &mockLearnerStore{learners: make(map[uuid.UUID]*domain.Learner)}
}

func (m *mockLearnerStore) Create(ctx context.Context, l *domain.Learner) error {
	for _, existing := range m.learners {
		if existing.ExternalID == l.ExternalID && existing.TenantID == l.TenantID {
			return store.ErrConflict
		}
	}
	l.ID = uuid.New()
	m.learners[l.ID] = l
	return nil
}

func (m *mockLearnerStore) GetByID(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) (*domain.Learner, error) {
	l, ok := m.learners[id]
	if !ok || l.TenantID != tenantID {
		return nil, store.ErrNotFound
	}
	return l, nil
}

func (m *mockLearnerStore) GetByExternalID(ctx context.Context, externalID string, tenantID uuid.UUID) (*domain.Learner, error) {
	for _, l := range m.learners {
		if l.ExternalID == externalID && l.TenantID == tenantID {
			return l, nil
		}
	}
	return nil, store.ErrNotFound
}

// mockNetworkStore implements domain.NetworkStore for testing.
type mockNetworkStore struct {
	mu       sync.Mutex
	networks map[uuid.UUID]*domain.Network
	gets     int
}

func newMockNetworkStore() *mockNetworkStore {
	return &mockNetworkStore{networks: make(map[uuid.UUID]*domain.Network)}
}

func (m *mockNetworkStore) Create(ctx context.Context, n *domain.Network) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.networks {
		if existing.Name == n.Name && existing.TenantID == n.TenantID {
			return store.ErrConflict
		}
	}
	n.ID = uuid.New()
	n.CreatedAt = time.Now()
	m.networks[n.ID] = n
	return nil
}

func (m *mockNetworkStore) GetByID(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) (*domain.Network, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	n, ok := m.networks[id]
	if !ok || n.TenantID != tenantID {
		return nil, store.ErrNotFound
	}
	return n, nil
}

func (m *mockNetworkStore) GetByName(ctx context.Context, name string, tenantID uuid.UUID) (*domain.Network, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.networks {
		if n.Name == name && n.TenantID == tenantID {
			return n, nil
		}
	}
	return nil, store.ErrNotFound
}

// mockAssessmentStore implements domain.AssessmentStore for testing.
type mockAssessmentStore struct {
	assessments []*domain.Assessment
}

func (m *mockAssessmentStore) Create(ctx context.Context, a *domain.Assessment) error {
	if a.Outcomes == nil {
		return errors.New("null value in column \"outcomes\" violates not-null constraint")
	}
	a.ID = uuid.New()
	a.CreatedAt = time.Now().Add(time.Duration(len(m.assessments)) * time.Second)
	m.assessments = append(m.assessments, a)
	return nil
}

func (m *mockAssessmentStore) GetByID(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) (*domain.Assessment, error) {
	for _, a := range m.assessments {
		if a.ID == id && a.TenantID == tenantID {
			return a, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *mockAssessmentStore) ListByLearner(ctx context.Context, learnerID uuid.UUID, tenantID uuid.UUID, limit int) ([]domain.Assessment, error) {
	var out []domain.Assessment
	for i := len(m.assessments) - 1; i >= 0 && len(out) < limit; i-- {
		a := m.assessments[i]
		if a.LearnerID != nil && *a.LearnerID == learnerID && a.TenantID == tenantID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *mockAssessmentStore) FindSimilar(ctx context.Context, a *domain.Assessment, limit int) ([]domain.AssessmentWithDistance, error) {
	target := a.MasteryVector()
	var out []domain.AssessmentWithDistance
	for _, b := range m.assessments {
		if b.ID == a.ID || b.NetworkID != a.NetworkID || b.TenantID != a.TenantID || len(b.MasteryVector()) == 0 {
			continue
		}
		var d float32
		for i, x := range b.MasteryVector() {
			d += (x - target[i]) * (x - target[i])
		}
		out = append(out, domain.AssessmentWithDistance{Assessment: *b, Distance: d})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
