package service

import (
	"context"
	"errors"
	"strings"

	"github.com/Harshitk-cp/aptnet/internal/domain"
	"github.com/Harshitk-cp/aptnet/internal/store"
	"github.com/google/uuid"
)

type LearnerService struct {
	store domain.LearnerStore
}

func NewLearnerService(s domain.LearnerStore) *LearnerService {
	return &LearnerService{store: s}
}

var (
	ErrLearnerNotFound          = errors.New("learner not found")
	ErrLearnerConflict          = errors.New("learner with this external_id already exists")
	ErrLearnerExternalIDMissing = errors.New("external_id is required")
)

func (s *LearnerService) Create(ctx context.Context, l *domain.Learner) error {
	l.ExternalID = strings.TrimSpace(l.ExternalID)
	if l.ExternalID == "" {
		return ErrLearnerExternalIDMissing
	}
	if l.Name == "" {
		l.Name = l.ExternalID
	}
	err := s.store.Create(ctx, l)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return ErrLearnerConflict
		}
		return err
	}
	return nil
}

func (s *LearnerService) GetByID(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) (*domain.Learner, error) {
	l, err := s.store.GetByID(ctx, id, tenantID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrLearnerNotFound
		}
		return nil, err
	}
	return l, nil
}

func (s *LearnerService) GetByExternalID(ctx context.Context, externalID string, tenantID uuid.UUID) (*domain.Learner, error) {
	l, err := s.store.GetByExternalID(ctx, externalID, tenantID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrLearnerNotFound
		}
		return nil, err
	}
	return l, nil
}
