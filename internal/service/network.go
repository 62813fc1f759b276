package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Harshitk-cp/aptnet/internal/domain"
	"github.com/Harshitk-cp/aptnet/internal/metrics"
	"github.com/Harshitk-cp/aptnet/internal/netfile"
	"github.com/Harshitk-cp/aptnet/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrNetworkNotFound    = errors.New("network not found")
	ErrNetworkConflict    = errors.New("network with this name already exists")
	ErrNetworkNameMissing = errors.New("name is required")
)

// NetworkService stores network definitions and keeps one compiled
// CourseModel per network. Compiled models are shared by every request
// against that network.
type NetworkService struct {
	store  domain.NetworkStore
	logger *zap.Logger

	defaultDef func() *netfile.Definition

	mu       sync.RWMutex
	compiled map[uuid.UUID]*CourseModel
}

func NewNetworkService(s domain.NetworkStore, logger *zap.Logger) *NetworkService {
	return &NetworkService{
		store:      s,
		logger:     logger,
		defaultDef: netfile.Default,
		compiled:   make(map[uuid.UUID]*CourseModel),
	}
}

// SetDefaultDefinition replaces the network InstallDefault installs.
func (s *NetworkService) SetDefaultDefinition(def *netfile.Definition) {
	s.mu.Lock()
	s.defaultDef = func() *netfile.Definition { return def }
	s.mu.Unlock()
}

// Create compiles the definition before storing it so only usable
// networks are persisted. Definition errors wrap
// bayesnet.ErrModelDefinition.
func (s *NetworkService) Create(ctx context.Context, n *domain.Network) error {
	if n.Name == "" && n.Definition != nil {
		n.Name = n.Definition.Name
	}
	if n.Name == "" {
		return ErrNetworkNameMissing
	}
	if n.Definition == nil {
		return fmt.Errorf("%w: definition is required", netfile.ErrInvalidDefinition)
	}

	cm, err := NewCourseModel(n.Definition)
	if err != nil {
		return err
	}
	n.Variables = cm.Compiled.Len()
	n.Cliques = len(cm.Compiled.Cliques())
	n.TotalSize = cm.Compiled.TotalSize()

	if err := s.store.Create(ctx, n); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return ErrNetworkConflict
		}
		return err
	}

	s.mu.Lock()
	s.compiled[n.ID] = cm
	s.mu.Unlock()

	s.logger.Info("network compiled",
		zap.String("network_id", n.ID.String()),
		zap.String("name", n.Name),
		zap.Int("variables", n.Variables),
		zap.Int("cliques", n.Cliques),
		zap.Int("total_size", n.TotalSize))
	return nil
}

// InstallDefault stores the default network (the built-in e-learning
// network unless replaced) for the tenant, or returns the existing one.
func (s *NetworkService) InstallDefault(ctx context.Context, tenantID uuid.UUID) (*domain.Network, error) {
	s.mu.RLock()
	defaultDef := s.defaultDef
	s.mu.RUnlock()

	def := defaultDef()
	existing, err := s.store.GetByName(ctx, def.Name, tenantID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	n := &domain.Network{TenantID: tenantID, Name: def.Name, Definition: def}
	if err := s.Create(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *NetworkService) GetByID(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) (*domain.Network, error) {
	n, err := s.store.GetByID(ctx, id, tenantID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNetworkNotFound
		}
		return nil, err
	}
	return n, nil
}

// Course returns the compiled model for a network, compiling it on first
// use.
func (s *NetworkService) Course(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) (*CourseModel, error) {
	// The cache is keyed by network id only; check tenancy against the
	// store before serving a cached model.
	n, err := s.GetByID(ctx, id, tenantID)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	cm, ok := s.compiled[id]
	s.mu.RUnlock()
	metrics.Default().IncCacheLookup(ok)
	if ok {
		return cm, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check after acquiring write lock
	if cm, ok = s.compiled[id]; ok {
		return cm, nil
	}
	cm, err = NewCourseModel(n.Definition)
	if err != nil {
		s.logger.Error("stored network no longer compiles", zap.String("network_id", id.String()), zap.Error(err))
		return nil, err
	}
	s.compiled[id] = cm
	return cm, nil
}
