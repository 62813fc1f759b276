package bayesnet

import (
	"errors"
	"fmt"
	"strings"
)

// Error classes. Use errors.Is to check: errors.Is(err, bayesnet.ErrEvidence)
var (
	ErrModelDefinition = errors.New("bayesnet: invalid model definition")
	ErrEvidence        = errors.New("bayesnet: invalid evidence")
	ErrInference       = errors.New("bayesnet: inference failed")
	ErrInternal        = errors.New("bayesnet: internal invariant violated")
)

var (
	ErrModelCompiled  = fmt.Errorf("%w: model already compiled", ErrModelDefinition)
	ErrTableAttached  = fmt.Errorf("%w: table already attached", ErrModelDefinition)
	ErrDuplicateName  = fmt.Errorf("%w: duplicate variable name", ErrModelDefinition)
	ErrInvalidStates  = fmt.Errorf("%w: invalid state list", ErrModelDefinition)
	ErrInvalidEdge    = fmt.Errorf("%w: invalid edge", ErrModelDefinition)
	ErrNotContinuous  = fmt.Errorf("%w: variable is not continuous", ErrModelDefinition)
	ErrNotDiscrete    = fmt.Errorf("%w: variable is not discrete", ErrModelDefinition)
	ErrNoSuchVariable = fmt.Errorf("%w: no such variable", ErrModelDefinition)

	ErrUnknownVariable    = fmt.Errorf("%w: unknown variable", ErrEvidence)
	ErrUnknownState       = fmt.Errorf("%w: unknown state", ErrEvidence)
	ErrContinuousEvidence = fmt.Errorf("%w: evidence on continuous variables is not supported", ErrEvidence)

	ErrContradictoryEvidence = fmt.Errorf("%w: evidence is contradictory (zero probability)", ErrInference)
	ErrStaleBeliefs          = fmt.Errorf("%w: beliefs are stale, propagate first", ErrInference)
)

// Defect is a single problem found by Validate.
type Defect struct {
	Variable string
	Problem  string
}

func (d Defect) String() string {
	if d.Variable == "" {
		return d.Problem
	}
	return d.Variable + ": " + d.Problem
}

// ValidationError carries every defect found in a model.
type ValidationError struct {
	Defects []Defect
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Defects))
	for i, d := range e.Defects {
		parts[i] = d.String()
	}
	return fmt.Sprintf("%s: %s", ErrModelDefinition, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrModelDefinition
}
