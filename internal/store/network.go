package store

import (
	"context"
	"errors"

	"github.com/Harshitk-cp/aptnet/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type NetworkStore struct {
	db *pgxpool.Pool
}

func NewNetworkStore(db *pgxpool.Pool) *NetworkStore {
	return &NetworkStore{db: db}
}

// Create stores the definition as jsonb alongside its compile summary.
func (s *NetworkStore) Create(ctx context.Context, n *domain.Network) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO networks (tenant_id, name, definition, variables, cliques, total_size)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at, updated_at`,
		n.TenantID, n.Name, n.Definition, n.Variables, n.Cliques, n.TotalSize,
	).Scan(&n.ID, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return err
	}
	return nil
}

const networkColumns = `id, tenant_id, name, definition, variables, cliques, total_size, created_at, updated_at`

func (s *NetworkStore) GetByID(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) (*domain.Network, error) {
	return s.getOne(ctx,
		`SELECT `+networkColumns+` FROM networks WHERE id = $1 AND tenant_id = $2`,
		id, tenantID)
}

func (s *NetworkStore) GetByName(ctx context.Context, name string, tenantID uuid.UUID) (*domain.Network, error) {
	return s.getOne(ctx,
		`SELECT `+networkColumns+` FROM networks WHERE name = $1 AND tenant_id = $2`,
		name, tenantID)
}

func (s *NetworkStore) getOne(ctx context.Context, query string, args ...any) (*domain.Network, error) {
	n := &domain.Network{}
	err := s.db.QueryRow(ctx, query, args...).
		Scan(&n.ID, &n.TenantID, &n.Name, &n.Definition, &n.Variables, &n.Cliques, &n.TotalSize, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return n, nil
}
