package bayesnet

import (
	"fmt"
	"sort"
)

// Clique is a node of the compiled junction tree.
type Clique struct {
	Vars []VarID
	Size int
}

// Separator joins two adjacent cliques.
type Separator struct {
	A, B int
	Vars []VarID
}

type treeEdge struct {
	clique int
	sep    int
}

// Compiled is an immutable junction tree built from a model. It is safe
// for concurrent use; per-case state lives in a Session.
type Compiled struct {
	names     []string
	byName    map[string]VarID
	states    []States
	parents   [][]VarID
	gaussians [][]Gaussian

	cliques    []Clique
	seps       []Separator
	potentials []*factor
	home       []int

	adj   [][]treeEdge
	order []int
	up    []int
	upSep []int
}

// Compile validates the model and builds its junction tree. After a
// successful compile the model's structure is frozen.
func (m *Model) Compile() (*Compiled, error) {
	if err := Validate(m); err != nil {
		return nil, err
	}
	c, err := compile(m)
	if err != nil {
		return nil, err
	}
	m.compiled = true
	return c, nil
}

func compile(m *Model) (*Compiled, error) {
	n := len(m.vars)
	c := &Compiled{
		names:     make([]string, n),
		byName:    make(map[string]VarID, n),
		states:    make([]States, n),
		parents:   make([][]VarID, n),
		gaussians: make([][]Gaussian, n),
		home:      make([]int, n),
	}
	card := make([]int, n)
	for i, v := range m.vars {
		c.names[i] = v.Name
		c.byName[v.Name] = v.ID
		c.states[i] = v.States
		c.parents[i] = append([]VarID(nil), v.Parents...)
		c.gaussians[i] = v.Gaussians()
		card[i] = v.States.Len()
	}

	adj := moralize(m)
	raw := triangulate(m, adj, card)
	c.cliques = maximalCliques(raw, card)
	c.seps = spanningTree(c.cliques)
	c.buildTraversal()

	for i, v := range m.vars {
		family := append([]VarID{v.ID}, v.Parents...)
		if !v.Discrete() {
			family = family[1:]
		}
		c.home[i] = c.smallestContaining(family)
		if v.Discrete() && c.home[i] < 0 {
			return nil, fmt.Errorf("%w: no clique contains the family of %q", ErrInternal, v.Name)
		}
	}

	c.potentials = make([]*factor, len(c.cliques))
	for i, cl := range c.cliques {
		cc := make([]int, len(cl.Vars))
		for k, v := range cl.Vars {
			cc[k] = card[v]
		}
		c.potentials[i] = newFactor(cl.Vars, cc, 1)
	}
	for _, v := range m.vars {
		if !v.Discrete() {
			continue
		}
		order := append(append([]VarID(nil), v.Parents...), v.ID)
		oc := make([]int, len(order))
		for k, w := range order {
			oc[k] = card[w]
		}
		flat := make([]float64, 0, len(v.table)*card[v.ID])
		for _, row := range v.table {
			flat = append(flat, row...)
		}
		c.potentials[c.home[v.ID]].multiplyTable(order, oc, flat)
	}
	return c, nil
}

// moralize returns the adjacency matrix of the moral graph over the
// discrete variables. Parents of a continuous variable are married too so
// that their joint posterior is available from one clique.
func moralize(m *Model) [][]bool {
	n := len(m.vars)
	adj := make([][]bool, n)
	for i := range adj {
		adj[i] = make([]bool, n)
	}
	link := func(a, b VarID) {
		if a != b {
			adj[a][b] = true
			adj[b][a] = true
		}
	}
	for _, v := range m.vars {
		if v.Discrete() {
			for _, p := range v.Parents {
				link(p, v.ID)
			}
		}
		for i, p := range v.Parents {
			for _, q := range v.Parents[i+1:] {
				link(p, q)
			}
		}
	}
	return adj
}

// triangulate eliminates discrete variables by minimum fill-in and
// returns the clique formed at each step, in elimination order. Ties go
// to the smaller clique state space, then to the earlier variable.
func triangulate(m *Model, adj [][]bool, card []int) [][]VarID {
	n := len(m.vars)
	remaining := make([]bool, n)
	left := 0
	for _, v := range m.vars {
		if v.Discrete() {
			remaining[v.ID] = true
			left++
		}
	}

	neighbors := func(v int) []int {
		var out []int
		for u := 0; u < n; u++ {
			if remaining[u] && adj[v][u] {
				out = append(out, u)
			}
		}
		return out
	}

	var cliques [][]VarID
	for ; left > 0; left-- {
		best, bestFill, bestWeight := -1, 0, 0.0
		var bestNbrs []int
		for v := 0; v < n; v++ {
			if !remaining[v] {
				continue
			}
			nbrs := neighbors(v)
			fill := 0
			weight := float64(card[v])
			for i, a := range nbrs {
				weight *= float64(card[a])
				for _, b := range nbrs[i+1:] {
					if !adj[a][b] {
						fill++
					}
				}
			}
			if best < 0 || fill < bestFill || (fill == bestFill && weight < bestWeight) {
				best, bestFill, bestWeight, bestNbrs = v, fill, weight, nbrs
			}
		}

		clique := make([]VarID, 0, len(bestNbrs)+1)
		clique = append(clique, VarID(best))
		for i, a := range bestNbrs {
			clique = append(clique, VarID(a))
			for _, b := range bestNbrs[i+1:] {
				adj[a][b] = true
				adj[b][a] = true
			}
		}
		sort.Slice(clique, func(i, j int) bool { return clique[i] < clique[j] })
		cliques = append(cliques, clique)
		remaining[best] = false
	}
	return cliques
}

// maximalCliques drops every elimination clique contained in another.
func maximalCliques(raw [][]VarID, card []int) []Clique {
	var out []Clique
	for i, a := range raw {
		dominated := false
		for j, b := range raw {
			if i == j || len(b) < len(a) {
				continue
			}
			if len(b) == len(a) && j > i {
				continue
			}
			if subset(a, b) {
				dominated = true
				break
			}
		}
		if dominated {
			continue
		}
		size := 1
		for _, v := range a {
			size *= card[v]
		}
		out = append(out, Clique{Vars: a, Size: size})
	}
	return out
}

// spanningTree joins cliques by a maximum-weight spanning tree over
// separator sizes, which gives the running intersection property for
// cliques of a triangulated graph. Disconnected parts are joined through
// empty separators.
func spanningTree(cliques []Clique) []Separator {
	type candidate struct {
		a, b int
		vars []VarID
	}
	var cands []candidate
	for a := range cliques {
		for b := a + 1; b < len(cliques); b++ {
			cands = append(cands, candidate{a, b, intersect(cliques[a].Vars, cliques[b].Vars)})
		}
	}
	sort.SliceStable(cands, func(i, j int) bool {
		return len(cands[i].vars) > len(cands[j].vars)
	})

	root := make([]int, len(cliques))
	for i := range root {
		root[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		if root[x] != x {
			root[x] = find(root[x])
		}
		return root[x]
	}

	var seps []Separator
	for _, cd := range cands {
		ra, rb := find(cd.a), find(cd.b)
		if ra == rb {
			continue
		}
		root[ra] = rb
		seps = append(seps, Separator{A: cd.a, B: cd.b, Vars: cd.vars})
		if len(seps) == len(cliques)-1 {
			break
		}
	}
	return seps
}

// buildTraversal records a breadth-first order from clique 0 with each
// clique's parent and the separator leading to it.
func (c *Compiled) buildTraversal() {
	nc := len(c.cliques)
	c.adj = make([][]treeEdge, nc)
	for s, sep := range c.seps {
		c.adj[sep.A] = append(c.adj[sep.A], treeEdge{clique: sep.B, sep: s})
		c.adj[sep.B] = append(c.adj[sep.B], treeEdge{clique: sep.A, sep: s})
	}
	c.up = make([]int, nc)
	c.upSep = make([]int, nc)
	if nc == 0 {
		return
	}
	seen := make([]bool, nc)
	c.up[0], c.upSep[0] = -1, -1
	seen[0] = true
	c.order = []int{0}
	for k := 0; k < len(c.order); k++ {
		ci := c.order[k]
		for _, e := range c.adj[ci] {
			if seen[e.clique] {
				continue
			}
			seen[e.clique] = true
			c.up[e.clique] = ci
			c.upSep[e.clique] = e.sep
			c.order = append(c.order, e.clique)
		}
	}
}

func (c *Compiled) smallestContaining(vars []VarID) int {
	sorted := append([]VarID(nil), vars...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	best := -1
	for i, cl := range c.cliques {
		if !subset(sorted, cl.Vars) {
			continue
		}
		if best < 0 || cl.Size < c.cliques[best].Size {
			best = i
		}
	}
	return best
}

// Len returns the number of variables.
func (c *Compiled) Len() int {
	return len(c.names)
}

func (c *Compiled) Lookup(name string) (VarID, bool) {
	id, ok := c.byName[name]
	return id, ok
}

// Family scans sequentially named variables like Model.Family.
func (c *Compiled) Family(prefix string, start int) Family {
	return scanFamily(c.Lookup, prefix, start)
}

// Name returns the name of v, or "" when v is out of range.
func (c *Compiled) Name(v VarID) string {
	if !c.valid(v) {
		return ""
	}
	return c.names[v]
}

// States returns the state space of v, or nil when v is out of range.
func (c *Compiled) States(v VarID) States {
	if !c.valid(v) {
		return nil
	}
	return c.states[v]
}

func (c *Compiled) Parents(v VarID) []VarID {
	if !c.valid(v) {
		return nil
	}
	return append([]VarID(nil), c.parents[v]...)
}

func (c *Compiled) Names() []string {
	return append([]string(nil), c.names...)
}

// Cliques returns a copy of the junction tree's cliques.
func (c *Compiled) Cliques() []Clique {
	out := make([]Clique, len(c.cliques))
	for i, cl := range c.cliques {
		out[i] = Clique{Vars: append([]VarID(nil), cl.Vars...), Size: cl.Size}
	}
	return out
}

// Separators returns a copy of the junction tree's edges.
func (c *Compiled) Separators() []Separator {
	out := make([]Separator, len(c.seps))
	for i, s := range c.seps {
		out[i] = Separator{A: s.A, B: s.B, Vars: append([]VarID(nil), s.Vars...)}
	}
	return out
}

// HomeClique returns the clique that holds v's table, or -1.
func (c *Compiled) HomeClique(v VarID) int {
	if !c.valid(v) {
		return -1
	}
	return c.home[v]
}

// TotalSize is the sum of clique table sizes, which bounds the cost of a
// propagation.
func (c *Compiled) TotalSize() int {
	total := 0
	for _, cl := range c.cliques {
		total += cl.Size
	}
	return total
}

func (c *Compiled) valid(v VarID) bool {
	return v >= 0 && int(v) < len(c.names)
}

// subset reports whether ascending a is contained in ascending b.
func subset(a, b []VarID) bool {
	j := 0
	for _, x := range a {
		for j < len(b) && b[j] < x {
			j++
		}
		if j == len(b) || b[j] != x {
			return false
		}
		j++
	}
	return true
}

func intersect(a, b []VarID) []VarID {
	var out []VarID
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			i++
		case a[i] > b[j]:
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	return out
}
