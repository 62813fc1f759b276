package api

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/Harshitk-cp/aptnet/internal/domain"
	"github.com/Harshitk-cp/aptnet/internal/store"
	"github.com/google/uuid"
)

// memStore backs every store interface with maps for router tests.
type memStore struct {
	mu          sync.Mutex
	tenants     map[uuid.UUID]*domain.Tenant
	learners    map[uuid.UUID]*domain.Learner
	networks    map[uuid.UUID]*domain.Network
	assessments map[uuid.UUID]*domain.Assessment
	pingErr     error
}

func newMemStore() *memStore {
	return &memStore{
		tenants:     make(map[uuid.UUID]*domain.Tenant),
		learners:    make(map[uuid.UUID]*domain.Learner),
		networks:    make(map[uuid.UUID]*domain.Network),
		assessments: make(map[uuid.UUID]*domain.Assessment),
	}
}

func (m *memStore) stores() Stores {
	return Stores{
		Tenants:     memTenants{m},
		Learners:    memLearners{m},
		Networks:    memNetworks{m},
		Assessments: memAssessments{m},
	}
}

func (m *memStore) Ping(ctx context.Context) error {
	return m.pingErr
}

type memTenants struct{ *memStore }

func (m memTenants) Create(ctx context.Context, t *domain.Tenant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.tenants {
		if existing.APIKeyHash == t.APIKeyHash {
			return store.ErrConflict
		}
	}
	t.ID = uuid.New()
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	m.tenants[t.ID] = t
	return nil
}

func (m memTenants) GetByAPIKeyHash(ctx context.Context, hash string) (*domain.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tenants {
		if t.APIKeyHash == hash {
			return t, nil
		}
	}
	return nil, store.ErrNotFound
}

type memLearners struct{ *memStore }

func (m memLearners) Create(ctx context.Context, l *domain.Learner) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.learners {
		if existing.TenantID == l.TenantID && existing.ExternalID == l.ExternalID {
			return store.ErrConflict
		}
	}
	l.ID = uuid.New()
	l.CreatedAt = time.Now()
	l.UpdatedAt = l.CreatedAt
	m.learners[l.ID] = l
	return nil
}

func (m memLearners) GetByID(ctx context.Context, id, tenantID uuid.UUID) (*domain.Learner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.learners[id]
	if !ok || l.TenantID != tenantID {
		return nil, store.ErrNotFound
	}
	return l, nil
}

func (m memLearners) GetByExternalID(ctx context.Context, externalID string, tenantID uuid.UUID) (*domain.Learner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.learners {
		if l.TenantID == tenantID && l.ExternalID == externalID {
			return l, nil
		}
	}
	return nil, store.ErrNotFound
}

type memNetworks struct{ *memStore }

func (m memNetworks) Create(ctx context.Context, n *domain.Network) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.networks {
		if existing.TenantID == n.TenantID && existing.Name == n.Name {
			return store.ErrConflict
		}
	}
	n.ID = uuid.New()
	n.CreatedAt = time.Now()
	n.UpdatedAt = n.CreatedAt
	m.networks[n.ID] = n
	return nil
}

func (m memNetworks) GetByID(ctx context.Context, id, tenantID uuid.UUID) (*domain.Network, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.networks[id]
	if !ok || n.TenantID != tenantID {
		return nil, store.ErrNotFound
	}
	return n, nil
}

func (m memNetworks) GetByName(ctx context.Context, name string, tenantID uuid.UUID) (*domain.Network, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.networks {
		if n.TenantID == tenantID && n.Name == name {
			return n, nil
		}
	}
	return nil, store.ErrNotFound
}

type memAssessments struct{ *memStore }

func (m memAssessments) Create(ctx context.Context, a *domain.Assessment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.LearnerID == nil {
		return errors.New("learner required")
	}
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	m.assessments[a.ID] = a
	return nil
}

func (m memAssessments) GetByID(ctx context.Context, id, tenantID uuid.UUID) (*domain.Assessment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assessments[id]
	if !ok || a.TenantID != tenantID {
		return nil, store.ErrNotFound
	}
	return a, nil
}

func (m memAssessments) ListByLearner(ctx context.Context, learnerID, tenantID uuid.UUID, limit int) ([]domain.Assessment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Assessment
	for _, a := range m.assessments {
		if a.TenantID == tenantID && a.LearnerID != nil && *a.LearnerID == learnerID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m memAssessments) FindSimilar(ctx context.Context, a *domain.Assessment, limit int) ([]domain.AssessmentWithDistance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	target := a.MasteryVector()
	var out []domain.AssessmentWithDistance
	for _, b := range m.assessments {
		if b.ID == a.ID || b.TenantID != a.TenantID || b.NetworkID != a.NetworkID {
			continue
		}
		var sum float64
		for i, x := range b.MasteryVector() {
			d := float64(x - target[i])
			sum += d * d
		}
		out = append(out, domain.AssessmentWithDistance{Assessment: *b, Distance: float32(math.Sqrt(sum))})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
