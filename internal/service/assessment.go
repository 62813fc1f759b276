package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/Harshitk-cp/aptnet/internal/domain"
	"github.com/Harshitk-cp/aptnet/internal/metrics"
	"github.com/Harshitk-cp/aptnet/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrUsage marks malformed case input.
var ErrUsage = errors.New("invalid case input")

var (
	ErrInvalidOutcome  = fmt.Errorf("%w: outcomes must be true or false", ErrUsage)
	ErrMissingTime     = fmt.Errorf("%w: time is required", ErrUsage)
	ErrTimeOutOfRange  = fmt.Errorf("%w: time has no result variable", ErrUsage)
	ErrTooManyOutcomes = fmt.Errorf("%w: more outcomes than exercises", ErrUsage)

	ErrAssessmentNotFound = errors.New("assessment not found")
)

// Case is one learner's evidence: a time step and exercise outcomes in
// exercise order.
type Case struct {
	Time     int    `json:"time"`
	Outcomes []bool `json:"outcomes"`
}

// ParseCase reads "<time> <outcome>..." tokens. Outcomes are the exact,
// case-sensitive words true and false.
func ParseCase(args []string) (Case, error) {
	if len(args) == 0 {
		return Case{}, ErrMissingTime
	}
	t, err := strconv.Atoi(args[0])
	if err != nil {
		return Case{}, fmt.Errorf("%w: time must be an integer, got %q", ErrUsage, args[0])
	}
	c := Case{Time: t, Outcomes: make([]bool, 0, len(args)-1)}
	for i, tok := range args[1:] {
		switch tok {
		case "true":
			c.Outcomes = append(c.Outcomes, true)
		case "false":
			c.Outcomes = append(c.Outcomes, false)
		default:
			return Case{}, fmt.Errorf("%w: outcome %d is %q", ErrInvalidOutcome, i+1, tok)
		}
	}
	return c, nil
}

// Result is the evaluation of one case.
type Result struct {
	Time                int                     `json:"time"`
	Chapters            []domain.ChapterMastery `json:"chapters"`
	Aptitude            Aptitude                `json:"aptitude"`
	EvidenceProbability float64                 `json:"evidence_probability"`
}

// Evaluate runs one case in a fresh session. Outcomes map positionally
// onto the exercise family; exercises without an outcome keep their prior.
func (cm *CourseModel) Evaluate(c Case) (*Result, error) {
	result, ok := cm.Results.Indexed(c.Time)
	if !ok {
		return nil, fmt.Errorf("%w: %d not in [%d, %d)", ErrTimeOutOfRange, c.Time, cm.Results.Start, cm.Results.Start+cm.Results.Len())
	}
	if len(c.Outcomes) > cm.Exercises.Len() {
		return nil, fmt.Errorf("%w: got %d, network has %d", ErrTooManyOutcomes, len(c.Outcomes), cm.Exercises.Len())
	}

	s := cm.Compiled.NewSession()
	for i, o := range c.Outcomes {
		ex, _ := cm.Exercises.At(i)
		if err := s.ObserveLabel(ex, strconv.FormatBool(o)); err != nil {
			return nil, err
		}
	}

	done := metrics.TimePropagation()
	b, err := s.Propagate()
	done(err == nil)
	if err != nil {
		return nil, err
	}

	mastery, err := ChapterMasteryBeliefs(b, cm.Chapters)
	if err != nil {
		return nil, err
	}
	apt, err := AptitudeVerdict(b, result)
	if err != nil {
		return nil, err
	}
	metrics.Default().IncVerdict(string(apt.Verdict))

	r := &Result{
		Time:                c.Time,
		Chapters:            make([]domain.ChapterMastery, len(mastery)),
		Aptitude:            apt,
		EvidenceProbability: b.EvidenceProbability(),
	}
	for i, p := range mastery {
		pct := p * 100
		r.Chapters[i] = domain.ChapterMastery{
			Chapter:    cm.ChapterNames[i],
			Percentage: pct,
			Level:      domain.ComputeLevel(pct),
		}
	}
	return r, nil
}

// AssessmentService evaluates cases against stored networks and keeps
// the results of identified learners.
type AssessmentService struct {
	store    domain.AssessmentStore
	learners domain.LearnerStore
	networks *NetworkService
	logger   *zap.Logger
}

func NewAssessmentService(as domain.AssessmentStore, ls domain.LearnerStore, ns *NetworkService, logger *zap.Logger) *AssessmentService {
	return &AssessmentService{
		store:    as,
		learners: ls,
		networks: ns,
		logger:   logger,
	}
}

// Assess evaluates c on the network. With a learner the assessment is
// stored; without one it is returned with a zero ID.
func (s *AssessmentService) Assess(ctx context.Context, tenantID, networkID uuid.UUID, learnerID *uuid.UUID, c Case) (*domain.Assessment, error) {
	if learnerID != nil {
		if _, err := s.learners.GetByID(ctx, *learnerID, tenantID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, ErrLearnerNotFound
			}
			return nil, err
		}
	}

	if c.Outcomes == nil {
		c.Outcomes = []bool{}
	}

	cm, err := s.networks.Course(ctx, networkID, tenantID)
	if err != nil {
		return nil, err
	}
	r, err := cm.Evaluate(c)
	if err != nil {
		s.logger.Debug("case rejected",
			zap.String("network_id", networkID.String()),
			zap.Int("time", c.Time),
			zap.Error(err))
		return nil, err
	}

	a := &domain.Assessment{
		TenantID:            tenantID,
		NetworkID:           networkID,
		LearnerID:           learnerID,
		Time:                c.Time,
		Outcomes:            c.Outcomes,
		Chapters:            r.Chapters,
		Percentage:          r.Aptitude.Percentage,
		Verdict:             r.Aptitude.Verdict,
		EvidenceProbability: r.EvidenceProbability,
	}
	if learnerID == nil {
		return a, nil
	}
	if err := s.store.Create(ctx, a); err != nil {
		return nil, err
	}
	s.logger.Info("assessment recorded",
		zap.String("assessment_id", a.ID.String()),
		zap.String("learner_id", learnerID.String()),
		zap.String("verdict", string(a.Verdict)),
		zap.Float64("percentage", a.Percentage))
	return a, nil
}

func (s *AssessmentService) GetByID(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) (*domain.Assessment, error) {
	a, err := s.store.GetByID(ctx, id, tenantID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrAssessmentNotFound
		}
		return nil, err
	}
	return a, nil
}

// ListByLearner returns the learner's assessments, newest first.
func (s *AssessmentService) ListByLearner(ctx context.Context, learnerID uuid.UUID, tenantID uuid.UUID, limit int) ([]domain.Assessment, error) {
	if _, err := s.learners.GetByID(ctx, learnerID, tenantID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrLearnerNotFound
		}
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	return s.store.ListByLearner(ctx, learnerID, tenantID, limit)
}

// Similar finds assessments on the same network whose chapter mastery is
// closest to the given one. Networks without chapters have nothing to
// compare.
func (s *AssessmentService) Similar(ctx context.Context, id uuid.UUID, tenantID uuid.UUID, limit int) ([]domain.AssessmentWithDistance, error) {
	a, err := s.GetByID(ctx, id, tenantID)
	if err != nil {
		return nil, err
	}
	if len(a.Chapters) == 0 {
		return []domain.AssessmentWithDistance{}, nil
	}
	if limit <= 0 {
		limit = 5
	}
	return s.store.FindSimilar(ctx, a, limit)
}
