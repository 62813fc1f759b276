package bayesnet

import (
	"fmt"
	"math"
)

// Beliefs is the read-only result of one propagation.
type Beliefs struct {
	c       *Compiled
	dist    [][]float64
	cliques []*factor
	logZ    float64
}

// Of returns the posterior distribution of a discrete variable, indexed
// by state.
func (b *Beliefs) Of(v VarID) ([]float64, error) {
	if !b.c.valid(v) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownVariable, v)
	}
	if b.dist[v] == nil {
		return nil, fmt.Errorf("%w: %q", ErrNotDiscrete, b.c.names[v])
	}
	return append([]float64(nil), b.dist[v]...), nil
}

// State returns the posterior probability that v is in state.
func (b *Beliefs) State(v VarID, state int) (float64, error) {
	d, err := b.Of(v)
	if err != nil {
		return 0, err
	}
	if state < 0 || state >= len(d) {
		return 0, fmt.Errorf("%w: %q has no state %d", ErrUnknownState, b.c.names[v], state)
	}
	return d[state], nil
}

// ByName looks v up by name and returns its posterior.
func (b *Beliefs) ByName(name string) ([]float64, error) {
	v, ok := b.c.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariable, name)
	}
	return b.Of(v)
}

// All returns every discrete posterior keyed by variable name.
func (b *Beliefs) All() map[string][]float64 {
	out := make(map[string][]float64, len(b.dist))
	for v, d := range b.dist {
		if d != nil {
			out[b.c.names[v]] = append([]float64(nil), d...)
		}
	}
	return out
}

// LogEvidence is the natural log of the probability of the evidence.
func (b *Beliefs) LogEvidence() float64 {
	return b.logZ
}

// EvidenceProbability is P(evidence); 1 with no evidence.
func (b *Beliefs) EvidenceProbability() float64 {
	return math.Exp(b.logZ)
}

// Gaussian returns the posterior mean and variance of a continuous
// variable: the mixture of its conditional Gaussians weighted by the
// posterior of its discrete parents.
func (b *Beliefs) Gaussian(v VarID) (mean, variance float64, err error) {
	c := b.c
	if !c.valid(v) {
		return 0, 0, fmt.Errorf("%w: %d", ErrUnknownVariable, v)
	}
	if c.states[v].Kind() != KindContinuous {
		return 0, 0, fmt.Errorf("%w: %q", ErrNotContinuous, c.names[v])
	}
	gs := c.gaussians[v]
	parents := c.parents[v]
	if len(parents) == 0 {
		return gs[0].Mean, gs[0].Variance, nil
	}

	w := b.cliques[c.home[v]].marginal(sortedCopy(parents))
	card := make([]int, len(parents))
	for k, p := range parents {
		card[k] = c.states[p].Len()
	}
	// offsets of each parent inside w, which is laid out in ascending
	// variable order.
	offset := make([]int, len(parents))
	for k, p := range parents {
		stride := 1
		for i := len(w.vars) - 1; i >= 0; i-- {
			if w.vars[i] == p {
				offset[k] = stride
				break
			}
			stride *= w.card[i]
		}
	}

	second := 0.0
	for r, g := range gs {
		j, rest := 0, r
		for k := len(parents) - 1; k >= 0; k-- {
			j += (rest % card[k]) * offset[k]
			rest /= card[k]
		}
		mean += w.values[j] * g.Mean
		second += w.values[j] * (g.Variance + g.Mean*g.Mean)
	}
	variance = math.Max(second-mean*mean, 0)
	return mean, variance, nil
}

func sortedCopy(vs []VarID) []VarID {
	out := append([]VarID(nil), vs...)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j] < out[j-1]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
