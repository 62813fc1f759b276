package bayesnet

import (
	"fmt"
	"math"
	"strings"
)

// Tolerance bounds how far a table row may sum away from 1.
const Tolerance = 1e-6

// maxRows caps the configurations of a single table.
const maxRows = 1 << 24

// Validate checks that the model is a DAG whose tables are complete and
// normalized, and that names are unique. It returns nil or a
// *ValidationError listing every defect.
func Validate(m *Model) error {
	var defects []Defect
	add := func(v *Variable, format string, args ...any) {
		name := ""
		if v != nil {
			name = v.Name
		}
		defects = append(defects, Defect{Variable: name, Problem: fmt.Sprintf(format, args...)})
	}

	seen := make(map[string]bool, len(m.vars))
	for _, v := range m.vars {
		if seen[v.Name] {
			add(v, "duplicate name")
		}
		seen[v.Name] = true
	}

	for _, v := range m.vars {
		rows, ok := configurations(m, v)
		if !ok {
			add(v, "too many parent configurations")
			continue
		}
		if v.Discrete() {
			checkDiscrete(m, v, rows, add)
		} else {
			checkContinuous(m, v, rows, add)
		}
	}

	if _, cycle := topoOrder(m); len(cycle) > 0 {
		names := make([]string, len(cycle))
		for i, id := range cycle {
			names[i] = m.vars[id].Name
		}
		add(nil, "cycle: %s", strings.Join(names, " -> "))
	}

	if len(defects) > 0 {
		return &ValidationError{Defects: defects}
	}
	return nil
}

func checkDiscrete(m *Model, v *Variable, rows int, add func(*Variable, string, ...any)) {
	for _, p := range v.Parents {
		if !m.vars[p].Discrete() {
			add(v, "continuous parent %q of a discrete variable", m.vars[p].Name)
			return
		}
	}
	if v.table == nil {
		add(v, "missing table")
		return
	}
	if len(v.table) != rows {
		add(v, "table has %d rows, want %d", len(v.table), rows)
		return
	}
	n := v.States.Len()
	for r, row := range v.table {
		if len(row) != n {
			add(v, "row %d has %d entries, want %d", r, len(row), n)
			continue
		}
		sum := 0.0
		for _, p := range row {
			if p < 0 || math.IsNaN(p) || math.IsInf(p, 0) {
				add(v, "row %d has invalid probability %v", r, p)
				sum = math.NaN()
				break
			}
			sum += p
		}
		if !math.IsNaN(sum) && math.Abs(sum-1) > Tolerance {
			add(v, "row %d sums to %v", r, sum)
		}
	}
}

func checkContinuous(m *Model, v *Variable, rows int, add func(*Variable, string, ...any)) {
	if len(v.children) > 0 {
		add(v, "continuous variables cannot have children")
	}
	for _, p := range v.Parents {
		if !m.vars[p].Discrete() {
			add(v, "continuous parent %q", m.vars[p].Name)
			return
		}
	}
	if len(v.gaussians) != rows {
		add(v, "has %d gaussians, want %d", len(v.gaussians), rows)
		return
	}
	for i, g := range v.gaussians {
		if math.IsNaN(g.Mean) || math.IsInf(g.Mean, 0) || !(g.Variance > 0) || math.IsInf(g.Variance, 0) {
			add(v, "gaussian %d is invalid (mean %v, variance %v)", i, g.Mean, g.Variance)
		}
	}
}

// configurations returns the number of parent configurations of v.
func configurations(m *Model, v *Variable) (int, bool) {
	rows := 1
	for _, p := range v.Parents {
		n := m.vars[p].States.Len()
		if n == 0 {
			continue
		}
		rows *= n
		if rows > maxRows {
			return 0, false
		}
	}
	return rows, true
}

// topoOrder returns the variables parents-first. When the graph has a
// cycle the order is partial and cycle lists one cycle's variables.
func topoOrder(m *Model) (order []VarID, cycle []VarID) {
	indeg := make([]int, len(m.vars))
	for _, v := range m.vars {
		indeg[v.ID] = len(v.Parents)
	}
	queue := make([]VarID, 0, len(m.vars))
	for id, d := range indeg {
		if d == 0 {
			queue = append(queue, VarID(id))
		}
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)
		for _, c := range m.vars[id].children {
			indeg[c]--
			if indeg[c] == 0 {
				queue = append(queue, c)
			}
		}
	}
	if len(order) == len(m.vars) {
		return order, nil
	}

	// Every unprocessed variable has an unprocessed parent; walking
	// parents from any of them must revisit a variable.
	var start VarID = -1
	for id, d := range indeg {
		if d > 0 {
			start = VarID(id)
			break
		}
	}
	pos := make(map[VarID]int)
	var path []VarID
	for id := start; ; {
		if i, ok := pos[id]; ok {
			cycle = append(cycle, path[i:]...)
			break
		}
		pos[id] = len(path)
		path = append(path, id)
		for _, p := range m.vars[id].Parents {
			if indeg[p] > 0 {
				id = p
				break
			}
		}
	}
	// path was walked child -> parent; report it parent -> child.
	for i, j := 0, len(cycle)-1; i < j; i, j = i+1, j-1 {
		cycle[i], cycle[j] = cycle[j], cycle[i]
	}
	return order, append(cycle, cycle[0])
}
