package bayesnet

import "math"

// propagate runs Shafer-Shenoy message passing over the junction tree.
// Shared potentials are copied before evidence touches them.
func (c *Compiled) propagate(evidence []int) (*Beliefs, error) {
	nc := len(c.cliques)
	pot := make([]*factor, nc)
	for i, p := range c.potentials {
		pot[i] = p.clone()
	}
	for v, st := range evidence {
		if st >= 0 && c.home[v] >= 0 {
			pot[c.home[v]].reduce(VarID(v), st)
		}
	}

	// msgs[s][0] flows A->B over separator s, msgs[s][1] flows B->A.
	msgs := make([][2]*factor, len(c.seps))
	logZ := 0.0

	// Collect: leaves towards the root. Messages are rescaled to sum to
	// one and the scales folded into logZ.
	for k := len(c.order) - 1; k >= 1; k-- {
		ci := c.order[k]
		m := c.message(pot, msgs, ci, c.upSep[ci])
		z := m.sum()
		if !(z > 0) || math.IsInf(z, 0) {
			return nil, ErrContradictoryEvidence
		}
		m.scale(1 / z)
		logZ += math.Log(z)
		msgs[c.upSep[ci]][c.outDir(ci, c.upSep[ci])] = m
	}

	// Distribute: root outwards, each message excludes the one received
	// over the same separator.
	for _, ci := range c.order {
		for _, e := range c.adj[ci] {
			if c.up[e.clique] != ci || c.upSep[e.clique] != e.sep {
				continue
			}
			m := c.message(pot, msgs, ci, e.sep)
			z := m.sum()
			if !(z > 0) || math.IsInf(z, 0) {
				return nil, ErrContradictoryEvidence
			}
			m.scale(1 / z)
			msgs[e.sep][c.outDir(ci, e.sep)] = m
		}
	}

	b := &Beliefs{
		c:       c,
		dist:    make([][]float64, len(c.names)),
		cliques: make([]*factor, nc),
	}
	for ci := range c.cliques {
		f := c.message(pot, msgs, ci, -1)
		z := f.sum()
		if !(z > 0) || math.IsInf(z, 0) {
			return nil, ErrContradictoryEvidence
		}
		if ci == 0 {
			logZ += math.Log(z)
		}
		f.scale(1 / z)
		b.cliques[ci] = f
	}
	b.logZ = logZ

	for v, st := range c.states {
		if st.Kind() == KindContinuous {
			continue
		}
		m := b.cliques[c.home[v]].marginal([]VarID{VarID(v)})
		m.scale(1 / m.sum())
		b.dist[v] = m.values
	}
	return b, nil
}

// message multiplies clique ci's potential with every message it has
// received except over separator skip, then sums out everything not in
// skip. With skip < 0 the full clique belief is returned.
func (c *Compiled) message(pot []*factor, msgs [][2]*factor, ci, skip int) *factor {
	f := pot[ci].clone()
	for _, e := range c.adj[ci] {
		if e.sep == skip {
			continue
		}
		in := msgs[e.sep][1-c.outDir(ci, e.sep)]
		if in != nil {
			f.multiplyIn(in)
		}
	}
	if skip < 0 {
		return f
	}
	return f.marginal(c.seps[skip].Vars)
}

// outDir is the message slot for traffic leaving ci over separator s.
func (c *Compiled) outDir(ci, s int) int {
	if c.seps[s].A == ci {
		return 0
	}
	return 1
}
