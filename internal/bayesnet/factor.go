package bayesnet

import "sort"

// factor is a table over an ascending list of variables. Values are laid
// out row-major: the last variable varies fastest.
type factor struct {
	vars   []VarID
	card   []int
	values []float64
}

func newFactor(vars []VarID, card []int, fill float64) *factor {
	size := 1
	for _, c := range card {
		size *= c
	}
	values := make([]float64, size)
	if fill != 0 {
		for i := range values {
			values[i] = fill
		}
	}
	return &factor{vars: vars, card: card, values: values}
}

func (f *factor) clone() *factor {
	return &factor{vars: f.vars, card: f.card, values: append([]float64(nil), f.values...)}
}

func (f *factor) pos(v VarID) int {
	i := sort.Search(len(f.vars), func(i int) bool { return f.vars[i] >= v })
	if i < len(f.vars) && f.vars[i] == v {
		return i
	}
	return -1
}

// walk visits every entry i of f together with the offset j obtained by
// summing strideMap[k]*assignment[k] over f's variables.
func (f *factor) walk(strideMap []int, fn func(i, j int)) {
	assign := make([]int, len(f.vars))
	j := 0
	for i := range f.values {
		fn(i, j)
		for k := len(assign) - 1; k >= 0; k-- {
			assign[k]++
			j += strideMap[k]
			if assign[k] < f.card[k] {
				break
			}
			j -= strideMap[k] * f.card[k]
			assign[k] = 0
		}
	}
}

// strideMapFor maps f's variables onto the row-major strides of a table
// over order (in that order). Variables of f missing from order get 0.
func (f *factor) strideMapFor(order []VarID, card []int) []int {
	strides := make([]int, len(order))
	s := 1
	for k := len(order) - 1; k >= 0; k-- {
		strides[k] = s
		s *= card[k]
	}
	m := make([]int, len(f.vars))
	for k, v := range f.vars {
		for o, w := range order {
			if w == v {
				m[k] = strides[o]
				break
			}
		}
	}
	return m
}

// multiplyIn multiplies g into f. g's variables must be a subset of f's.
func (f *factor) multiplyIn(g *factor) {
	f.multiplyTable(g.vars, g.card, g.values)
}

// multiplyTable multiplies in a row-major table over vars (any order).
func (f *factor) multiplyTable(vars []VarID, card []int, values []float64) {
	sm := f.strideMapFor(vars, card)
	f.walk(sm, func(i, j int) {
		f.values[i] *= values[j]
	})
}

// marginal sums f down to keep, which must be an ascending subset of f's
// variables.
func (f *factor) marginal(keep []VarID) *factor {
	card := make([]int, len(keep))
	for i, v := range keep {
		card[i] = f.card[f.pos(v)]
	}
	out := newFactor(keep, card, 0)
	sm := f.strideMapFor(keep, card)
	f.walk(sm, func(i, j int) {
		out.values[j] += f.values[i]
	})
	return out
}

// reduce zeroes every entry where v is not in state.
func (f *factor) reduce(v VarID, state int) {
	k := f.pos(v)
	if k < 0 {
		return
	}
	sm := make([]int, len(f.vars))
	sm[k] = 1
	f.walk(sm, func(i, j int) {
		if j != state {
			f.values[i] = 0
		}
	})
}

func (f *factor) sum() float64 {
	s := 0.0
	for _, x := range f.values {
		s += x
	}
	return s
}

func (f *factor) scale(k float64) {
	for i := range f.values {
		f.values[i] *= k
	}
}
