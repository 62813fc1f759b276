package bayesnet

import (
	"math/rand"
	"strconv"
	"testing"
)

// sprinkler builds the classic Cloudy/Sprinkler/Rain/WetGrass network.
func sprinkler(t *testing.T) (*Model, map[string]VarID) {
	t.Helper()
	m := NewModel()
	ids := map[string]VarID{}
	for _, name := range []string{"Cloudy", "Sprinkler", "Rain", "WetGrass"} {
		id, err := m.AddVariable(name, Boolean())
		if err != nil {
			t.Fatalf("AddVariable(%s): %v", name, err)
		}
		ids[name] = id
	}
	mustEdge(t, m, ids["Cloudy"], ids["Sprinkler"])
	mustEdge(t, m, ids["Cloudy"], ids["Rain"])
	mustEdge(t, m, ids["Sprinkler"], ids["WetGrass"])
	mustEdge(t, m, ids["Rain"], ids["WetGrass"])

	mustTable(t, m, ids["Cloudy"], [][]float64{{0.5, 0.5}})
	mustTable(t, m, ids["Sprinkler"], [][]float64{{0.5, 0.5}, {0.9, 0.1}})
	mustTable(t, m, ids["Rain"], [][]float64{{0.8, 0.2}, {0.2, 0.8}})
	mustTable(t, m, ids["WetGrass"], [][]float64{
		{1.0, 0.0},   // S=F R=F
		{0.1, 0.9},   // S=F R=T
		{0.1, 0.9},   // S=T R=F
		{0.01, 0.99}, // S=T R=T
	})
	return m, ids
}

func mustEdge(t *testing.T, m *Model, parent, child VarID) {
	t.Helper()
	if err := m.AddEdge(parent, child); err != nil {
		t.Fatalf("AddEdge(%d, %d): %v", parent, child, err)
	}
}

func mustTable(t *testing.T, m *Model, v VarID, rows [][]float64) {
	t.Helper()
	if err := m.SetTable(v, rows); err != nil {
		t.Fatalf("SetTable(%d): %v", v, err)
	}
}

func mustCompile(t *testing.T, m *Model) *Compiled {
	t.Helper()
	c, err := m.Compile()
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return c
}

// randomModel builds a random discrete DAG whose variables only take
// parents among earlier ones, so it is acyclic by construction.
func randomModel(t *testing.T, rng *rand.Rand, n, maxParents int) *Model {
	t.Helper()
	m := NewModel()
	for i := 0; i < n; i++ {
		var st States
		switch rng.Intn(3) {
		case 0:
			st = Boolean()
		case 1:
			st = Labelled("low", "mid", "high")
		default:
			st = Numbered(1, 2)
		}
		id, err := m.AddVariable("V"+strconv.Itoa(i), st)
		if err != nil {
			t.Fatal(err)
		}
		if i > 0 {
			k := rng.Intn(maxParents + 1)
			for _, p := range rng.Perm(i)[:min(k, i)] {
				mustEdge(t, m, VarID(p), id)
			}
		}
	}
	for _, v := range m.vars {
		rows, _ := configurations(m, v)
		table := make([][]float64, rows)
		for r := range table {
			row := make([]float64, v.States.Len())
			sum := 0.0
			for i := range row {
				row[i] = 0.05 + rng.Float64()
				sum += row[i]
			}
			for i := range row {
				row[i] /= sum
			}
			table[r] = row
		}
		mustTable(t, m, v.ID, table)
	}
	return m
}

// enumerate computes exact marginals by summing the full joint. It is
// the reference the junction tree is checked against.
func enumerate(m *Model, evidence map[VarID]int) (marginals [][]float64, z float64) {
	n := len(m.vars)
	marginals = make([][]float64, n)
	for i, v := range m.vars {
		marginals[i] = make([]float64, v.States.Len())
	}
	assign := make([]int, n)
	for {
		p := 1.0
		for v, st := range evidence {
			if assign[v] != st {
				p = 0
				break
			}
		}
		if p > 0 {
			for _, v := range m.vars {
				row := 0
				for _, par := range v.Parents {
					row = row*m.vars[par].States.Len() + assign[par]
				}
				p *= v.table[row][assign[v.ID]]
			}
			z += p
			for i := range assign {
				marginals[i][assign[i]] += p
			}
		}

		k := n - 1
		for ; k >= 0; k-- {
			assign[k]++
			if assign[k] < m.vars[k].States.Len() {
				break
			}
			assign[k] = 0
		}
		if k < 0 {
			break
		}
	}
	if z > 0 {
		for i := range marginals {
			for j := range marginals[i] {
				marginals[i][j] /= z
			}
		}
	}
	return marginals, z
}

// runningIntersection reports whether every variable's cliques form a
// connected subtree.
func runningIntersection(c *Compiled) bool {
	for v := range c.names {
		var holding []int
		in := make(map[int]bool)
		for i, cl := range c.cliques {
			for _, w := range cl.Vars {
				if int(w) == v {
					holding = append(holding, i)
					in[i] = true
				}
			}
		}
		if len(holding) == 0 {
			continue
		}
		seen := map[int]bool{holding[0]: true}
		stack := []int{holding[0]}
		for len(stack) > 0 {
			ci := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for _, e := range c.adj[ci] {
				if in[e.clique] && !seen[e.clique] {
					seen[e.clique] = true
					stack = append(stack, e.clique)
				}
			}
		}
		if len(seen) != len(holding) {
			return false
		}
	}
	return true
}
