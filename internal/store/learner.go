package store

import (
	"context"
	"errors"

	"github.com/Harshitk-cp/aptnet/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type LearnerStore struct {
	db *pgxpool.Pool
}

func NewLearnerStore(db *pgxpool.Pool) *LearnerStore {
	return &LearnerStore{db: db}
}

func (s *LearnerStore) Create(ctx context.Context, l *domain.Learner) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO learners (tenant_id, external_id, name, metadata)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`,
		l.TenantID, l.ExternalID, l.Name, l.Metadata,
	).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return err
	}
	return nil
}

const learnerColumns = `id, tenant_id, external_id, name, metadata, created_at, updated_at`

func (s *LearnerStore) GetByID(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) (*domain.Learner, error) {
	return s.getOne(ctx,
		`SELECT `+learnerColumns+` FROM learners WHERE id = $1 AND tenant_id = $2`,
		id, tenantID)
}

func (s *LearnerStore) GetByExternalID(ctx context.Context, externalID string, tenantID uuid.UUID) (*domain.Learner, error) {
	return s.getOne(ctx,
		`SELECT `+learnerColumns+` FROM learners WHERE external_id = $1 AND tenant_id = $2`,
		externalID, tenantID)
}

func (s *LearnerStore) getOne(ctx context.Context, query string, args ...any) (*domain.Learner, error) {
	l := &domain.Learner{}
	err := s.db.QueryRow(ctx, query, args...).
		Scan(&l.ID, &l.TenantID, &l.ExternalID, &l.Name, &l.Metadata, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return l, nil
}
