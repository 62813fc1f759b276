package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/Harshitk-cp/aptnet/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
)

type AssessmentStore struct {
	db *pgxpool.Pool
}

func NewAssessmentStore(db *pgxpool.Pool) *AssessmentStore {
	return &AssessmentStore{db: db}
}

// Create stores the assessment. The chapter percentages are also written
// as a pgvector column so similar learners can be found with <->; networks
// without chapters store NULL since pgvector has no empty vectors.
func (s *AssessmentStore) Create(ctx context.Context, a *domain.Assessment) error {
	var mastery *pgvector.Vector
	if v := a.MasteryVector(); len(v) > 0 {
		vec := pgvector.NewVector(v)
		mastery = &vec
	}
	outcomes := a.Outcomes
	if outcomes == nil {
		outcomes = []bool{}
	}
	return s.db.QueryRow(ctx,
		`INSERT INTO assessments (tenant_id, network_id, learner_id, time_step, outcomes, chapters, mastery, percentage, verdict, evidence_probability)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id, created_at`,
		a.TenantID, a.NetworkID, a.LearnerID, a.Time, outcomes, a.Chapters, mastery, a.Percentage, a.Verdict, a.EvidenceProbability,
	).Scan(&a.ID, &a.CreatedAt)
}

const assessmentColumns = `id, tenant_id, network_id, learner_id, time_step, outcomes, chapters, percentage, verdict, evidence_probability, created_at`

func scanAssessment(row pgx.Row, a *domain.Assessment, extra ...any) error {
	dest := []any{&a.ID, &a.TenantID, &a.NetworkID, &a.LearnerID, &a.Time, &a.Outcomes, &a.Chapters, &a.Percentage, &a.Verdict, &a.EvidenceProbability, &a.CreatedAt}
	return row.Scan(append(dest, extra...)...)
}

func (s *AssessmentStore) GetByID(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) (*domain.Assessment, error) {
	a := &domain.Assessment{}
	err := scanAssessment(s.db.QueryRow(ctx,
		`SELECT `+assessmentColumns+` FROM assessments WHERE id = $1 AND tenant_id = $2`,
		id, tenantID,
	), a)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

func (s *AssessmentStore) ListByLearner(ctx context.Context, learnerID uuid.UUID, tenantID uuid.UUID, limit int) ([]domain.Assessment, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+assessmentColumns+`
		 FROM assessments WHERE learner_id = $1 AND tenant_id = $2
		 ORDER BY created_at DESC
		 LIMIT $3`,
		learnerID, tenantID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	defer rows.Close()

	var out []domain.Assessment
	for rows.Next() {
		var a domain.Assessment
		if err := scanAssessment(rows, &a); err != nil {
			return nil, fmt.Errorf("scan assessment row: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// FindSimilar orders assessments of the same network by Euclidean distance
// between mastery vectors.
func (s *AssessmentStore) FindSimilar(ctx context.Context, a *domain.Assessment, limit int) ([]domain.AssessmentWithDistance, error) {
	vec := pgvector.NewVector(a.MasteryVector())
	rows, err := s.db.Query(ctx,
		`SELECT `+assessmentColumns+`, mastery <-> $1 AS distance
		 FROM assessments
		 WHERE tenant_id = $2 AND network_id = $3 AND id <> $4 AND mastery IS NOT NULL
		 ORDER BY mastery <-> $1
		 LIMIT $5`,
		vec, a.TenantID, a.NetworkID, a.ID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("similar assessments query: %w", err)
	}
	defer rows.Close()

	var out []domain.AssessmentWithDistance
	for rows.Next() {
		var r domain.AssessmentWithDistance
		if err := scanAssessment(rows, &r.Assessment, &r.Distance); err != nil {
			return nil, fmt.Errorf("scan similar row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("similar rows: %w", err)
	}
	return out, nil
}
