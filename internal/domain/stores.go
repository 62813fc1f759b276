package domain

import (
	"context"

	"github.com/google/uuid"
)

type TenantStore interface {
	Create(ctx context.Context, t *Tenant) error
	GetByAPIKeyHash(ctx context.Context, apiKeyHash string) (*Tenant, error)
}

type LearnerStore interface {
	Create(ctx context.Context, l *Learner) error
	GetByID(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) (*Learner, error)
	GetByExternalID(ctx context.Context, externalID string, tenantID uuid.UUID) (*Learner, error)
}

type NetworkStore interface {
	Create(ctx context.Context, n *Network) error
	GetByID(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) (*Network, error)
	GetByName(ctx context.Context, name string, tenantID uuid.UUID) (*Network, error)
}

type AssessmentStore interface {
	Create(ctx context.Context, a *Assessment) error
	GetByID(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) (*Assessment, error)
	ListByLearner(ctx context.Context, learnerID uuid.UUID, tenantID uuid.UUID, limit int) ([]Assessment, error)
	// FindSimilar returns assessments on the same network ordered by
	// distance between mastery vectors, excluding a itself.
	FindSimilar(ctx context.Context, a *Assessment, limit int) ([]AssessmentWithDistance, error)
}
