package bayesnet

import (
	"fmt"
	"strconv"
)

// VarID indexes a variable in its model. IDs are assigned in insertion
// order starting at 0.
type VarID int

// Gaussian is the conditional distribution of a continuous variable for
// one configuration of its discrete parents.
type Gaussian struct {
	Mean     float64
	Variance float64
}

// Variable is a node of the network. Fields are read-only outside the
// package; use the Model methods to change them.
type Variable struct {
	ID      VarID
	Name    string
	States  States
	Parents []VarID

	children  []VarID
	table     [][]float64
	gaussians []Gaussian
}

// Kind is shorthand for v.States.Kind().
func (v *Variable) Kind() Kind {
	return v.States.Kind()
}

// Discrete reports whether the variable has a finite state list.
func (v *Variable) Discrete() bool {
	return v.States.Kind() != KindContinuous
}

// Table returns a copy of the conditional probability table, or nil.
func (v *Variable) Table() [][]float64 {
	return copyRows(v.table)
}

// Gaussians returns a copy of the per-configuration Gaussians, or nil.
func (v *Variable) Gaussians() []Gaussian {
	return append([]Gaussian(nil), v.gaussians...)
}

// Children returns the variables that have v as a parent.
func (v *Variable) Children() []VarID {
	return append([]VarID(nil), v.children...)
}

// Model is the in-memory network: variables, edges and tables. It holds
// no inference state.
type Model struct {
	vars     []*Variable
	byName   map[string]VarID
	compiled bool
}

func NewModel() *Model {
	return &Model{byName: make(map[string]VarID)}
}

// Len returns the number of variables.
func (m *Model) Len() int {
	return len(m.vars)
}

// Compiled reports whether Compile has succeeded on this model. Structure
// is frozen once it has.
func (m *Model) Compiled() bool {
	return m.compiled
}

// AddVariable appends a variable and returns its id.
func (m *Model) AddVariable(name string, states States) (VarID, error) {
	if m.compiled {
		return -1, ErrModelCompiled
	}
	if name == "" {
		return -1, fmt.Errorf("%w: empty variable name", ErrModelDefinition)
	}
	if _, exists := m.byName[name]; exists {
		return -1, fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}
	if err := checkStates(states); err != nil {
		return -1, fmt.Errorf("variable %q: %w", name, err)
	}
	id := VarID(len(m.vars))
	m.vars = append(m.vars, &Variable{ID: id, Name: name, States: states})
	m.byName[name] = id
	return id, nil
}

// AddEdge adds parent as the next parent of child. Parent order defines
// the row order of the child's table.
func (m *Model) AddEdge(parent, child VarID) error {
	if m.compiled {
		return ErrModelCompiled
	}
	if !m.valid(parent) || !m.valid(child) {
		return fmt.Errorf("%w: %d -> %d", ErrNoSuchVariable, parent, child)
	}
	if parent == child {
		return fmt.Errorf("%w: self edge on %q", ErrInvalidEdge, m.vars[child].Name)
	}
	c := m.vars[child]
	if c.table != nil || c.gaussians != nil {
		return fmt.Errorf("%w: %q", ErrTableAttached, c.Name)
	}
	for _, p := range c.Parents {
		if p == parent {
			return fmt.Errorf("%w: duplicate edge %q -> %q", ErrInvalidEdge, m.vars[parent].Name, c.Name)
		}
	}
	c.Parents = append(c.Parents, parent)
	m.vars[parent].children = append(m.vars[parent].children, child)
	return nil
}

// SetTable attaches the conditional probability table of a discrete
// variable. Rows follow the Cartesian order of parent states with the
// first parent most significant. Shape and normalization are checked by
// Validate. Replacing a table after compilation does not affect existing
// compiled models.
func (m *Model) SetTable(v VarID, rows [][]float64) error {
	if !m.valid(v) {
		return fmt.Errorf("%w: %d", ErrNoSuchVariable, v)
	}
	x := m.vars[v]
	if !x.Discrete() {
		return fmt.Errorf("%w: %q", ErrNotDiscrete, x.Name)
	}
	if m.compiled && len(rows) != len(x.table) {
		return fmt.Errorf("%w: table shape of %q is frozen", ErrModelCompiled, x.Name)
	}
	x.table = copyRows(rows)
	return nil
}

// SetGaussian attaches one Gaussian per parent configuration to a
// continuous variable.
func (m *Model) SetGaussian(v VarID, gs []Gaussian) error {
	if !m.valid(v) {
		return fmt.Errorf("%w: %d", ErrNoSuchVariable, v)
	}
	x := m.vars[v]
	if x.Discrete() {
		return fmt.Errorf("%w: %q", ErrNotContinuous, x.Name)
	}
	if m.compiled && len(gs) != len(x.gaussians) {
		return fmt.Errorf("%w: gaussian shape of %q is frozen", ErrModelCompiled, x.Name)
	}
	x.gaussians = append([]Gaussian(nil), gs...)
	return nil
}

// Lookup finds a variable by name.
func (m *Model) Lookup(name string) (VarID, bool) {
	id, ok := m.byName[name]
	return id, ok
}

// Variable returns the variable with the given id, or nil.
func (m *Model) Variable(id VarID) *Variable {
	if !m.valid(id) {
		return nil
	}
	return m.vars[id]
}

// Names returns variable names in insertion order.
func (m *Model) Names() []string {
	out := make([]string, len(m.vars))
	for i, v := range m.vars {
		out[i] = v.Name
	}
	return out
}

// Family scans prefix+start, prefix+start+1, ... and stops at the first
// name that does not resolve.
func (m *Model) Family(prefix string, start int) Family {
	return scanFamily(m.Lookup, prefix, start)
}

func (m *Model) valid(id VarID) bool {
	return id >= 0 && int(id) < len(m.vars)
}

// Family is an ordered run of sequentially named variables such as
// Ex1, Ex2, ... or Result0, Result1, ...
type Family struct {
	Prefix  string
	Start   int
	members []VarID
}

func scanFamily(lookup func(string) (VarID, bool), prefix string, start int) Family {
	f := Family{Prefix: prefix, Start: start}
	for i := start; ; i++ {
		id, ok := lookup(prefix + strconv.Itoa(i))
		if !ok {
			break
		}
		f.members = append(f.members, id)
	}
	return f
}

func (f Family) Len() int {
	return len(f.members)
}

// At returns the i-th member counting from zero, so At(0) is the variable
// named Prefix+Start.
func (f Family) At(i int) (VarID, bool) {
	if i < 0 || i >= len(f.members) {
		return -1, false
	}
	return f.members[i], true
}

// Indexed returns the member whose name carries the given index.
func (f Family) Indexed(index int) (VarID, bool) {
	return f.At(index - f.Start)
}

func (f Family) Members() []VarID {
	return append([]VarID(nil), f.members...)
}

func copyRows(rows [][]float64) [][]float64 {
	if rows == nil {
		return nil
	}
	out := make([][]float64, len(rows))
	for i, r := range rows {
		out[i] = append([]float64(nil), r...)
	}
	return out
}
