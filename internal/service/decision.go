package service

import (
	"fmt"

	"github.com/Harshitk-cp/aptnet/internal/bayesnet"
	"github.com/Harshitk-cp/aptnet/internal/domain"
)

const (
	// PositiveState is the state index read as "mastered" or "apt".
	PositiveState = 1
	// AptThreshold is the lowest aptitude percentage still judged apt.
	AptThreshold = 50.0
)

// Aptitude is the verdict for one result variable.
type Aptitude struct {
	Percentage float64        `json:"percentage"`
	Verdict    domain.Verdict `json:"verdict"`
}

// VerdictFor applies the threshold. Exactly AptThreshold is apt.
func VerdictFor(percentage float64) domain.Verdict {
	if percentage < AptThreshold {
		return domain.VerdictNotApt
	}
	return domain.VerdictApt
}

// BeliefOf returns the posterior distribution of v.
func BeliefOf(b *bayesnet.Beliefs, v bayesnet.VarID) ([]float64, error) {
	return b.Of(v)
}

// ChapterMasteryBeliefs returns P(PositiveState) for each chapter, in the
// order given.
func ChapterMasteryBeliefs(b *bayesnet.Beliefs, chapters []bayesnet.VarID) ([]float64, error) {
	out := make([]float64, len(chapters))
	for i, v := range chapters {
		p, err := positive(b, v)
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

// AptitudeVerdict reads the result variable for one time step.
func AptitudeVerdict(b *bayesnet.Beliefs, result bayesnet.VarID) (Aptitude, error) {
	p, err := positive(b, result)
	if err != nil {
		return Aptitude{}, err
	}
	pct := p * 100
	return Aptitude{Percentage: pct, Verdict: VerdictFor(pct)}, nil
}

func positive(b *bayesnet.Beliefs, v bayesnet.VarID) (float64, error) {
	dist, err := b.Of(v)
	if err != nil {
		return 0, err
	}
	if len(dist) <= PositiveState {
		return 0, fmt.Errorf("%w: variable %d has no positive state", ErrUsage, v)
	}
	return dist[PositiveState], nil
}
