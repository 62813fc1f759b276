package bayesnet

import "fmt"

// Session holds the evidence and the latest beliefs of one case against a
// shared compiled model. A Session is not safe for concurrent use; create
// one per goroutine.
type Session struct {
	c        *Compiled
	evidence []int
	beliefs  *Beliefs
}

// NewSession starts a case with no evidence.
func (c *Compiled) NewSession() *Session {
	s := &Session{c: c, evidence: make([]int, len(c.names))}
	for i := range s.evidence {
		s.evidence[i] = -1
	}
	return s
}

// Compiled returns the model the session runs against.
func (s *Session) Compiled() *Compiled {
	return s.c
}

// Observe enters hard evidence that v is in the given state, replacing any
// earlier observation of v.
func (s *Session) Observe(v VarID, state int) error {
	s.beliefs = nil
	st, err := s.discrete(v)
	if err != nil {
		return err
	}
	if state < 0 || state >= st.Len() {
		return fmt.Errorf("%w: %q has no state %d", ErrUnknownState, s.c.names[v], state)
	}
	s.evidence[v] = state
	return nil
}

// ObserveLabel enters evidence by state label. Labels are case sensitive;
// a label that matches no state is an error.
func (s *Session) ObserveLabel(v VarID, label string) error {
	s.beliefs = nil
	st, err := s.discrete(v)
	if err != nil {
		return err
	}
	i, ok := st.IndexOfLabel(label)
	if !ok {
		return fmt.Errorf("%w: %q has no state %q", ErrUnknownState, s.c.names[v], label)
	}
	s.evidence[v] = i
	return nil
}

// ObserveValue enters evidence by numeric value: an exact state of a
// numbered variable, or the interval containing x.
func (s *Session) ObserveValue(v VarID, x float64) error {
	s.beliefs = nil
	st, err := s.discrete(v)
	if err != nil {
		return err
	}
	i, ok := st.IndexOfValue(x)
	if !ok {
		return fmt.Errorf("%w: %q has no state for value %v", ErrUnknownState, s.c.names[v], x)
	}
	s.evidence[v] = i
	return nil
}

// Retract removes the observation of v, if any.
func (s *Session) Retract(v VarID) error {
	s.beliefs = nil
	if !s.c.valid(v) {
		return fmt.Errorf("%w: %d", ErrUnknownVariable, v)
	}
	s.evidence[v] = -1
	return nil
}

// ResetAll removes every observation.
func (s *Session) ResetAll() {
	s.beliefs = nil
	for i := range s.evidence {
		s.evidence[i] = -1
	}
}

// Observed returns the observed state of v.
func (s *Session) Observed(v VarID) (int, bool) {
	if !s.c.valid(v) || s.evidence[v] < 0 {
		return -1, false
	}
	return s.evidence[v], true
}

// Evidence returns a copy of the current observations.
func (s *Session) Evidence() map[VarID]int {
	out := make(map[VarID]int)
	for v, st := range s.evidence {
		if st >= 0 {
			out[VarID(v)] = st
		}
	}
	return out
}

// Propagate computes the posterior of every variable given the current
// evidence. The result stays valid until the evidence changes.
func (s *Session) Propagate() (*Beliefs, error) {
	s.beliefs = nil
	b, err := s.c.propagate(s.evidence)
	if err != nil {
		return nil, err
	}
	s.beliefs = b
	return b, nil
}

// Beliefs returns the result of the last propagation, or ErrStaleBeliefs
// when evidence changed since.
func (s *Session) Beliefs() (*Beliefs, error) {
	if s.beliefs == nil {
		return nil, ErrStaleBeliefs
	}
	return s.beliefs, nil
}

// Belief is shorthand for Beliefs().Of(v).
func (s *Session) Belief(v VarID) ([]float64, error) {
	b, err := s.Beliefs()
	if err != nil {
		return nil, err
	}
	return b.Of(v)
}

func (s *Session) discrete(v VarID) (States, error) {
	if !s.c.valid(v) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownVariable, v)
	}
	st := s.c.states[v]
	if st.Kind() == KindContinuous {
		return nil, fmt.Errorf("%w: %q", ErrContinuousEvidence, s.c.names[v])
	}
	return st, nil
}
