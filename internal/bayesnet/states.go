package bayesnet

import (
	"fmt"
	"math"
	"strconv"
)

// Kind identifies the variant of a variable's state space.
type Kind int

const (
	KindBoolean Kind = iota
	KindLabelled
	KindNumbered
	KindInterval
	KindContinuous
)

func (k Kind) String() string {
	switch k {
	case KindBoolean:
		return "boolean"
	case KindLabelled:
		return "labelled"
	case KindNumbered:
		return "numbered"
	case KindInterval:
		return "interval"
	case KindContinuous:
		return "continuous"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind maps a kind name back to its Kind.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "boolean", "bool":
		return KindBoolean, true
	case "labelled", "labeled":
		return KindLabelled, true
	case "numbered":
		return KindNumbered, true
	case "interval":
		return KindInterval, true
	case "continuous":
		return KindContinuous, true
	}
	return 0, false
}

// States is the state space of a variable. State order defines the
// positional indices used by tables, evidence and beliefs.
type States interface {
	Kind() Kind
	Len() int
	Label(i int) string
	IndexOfLabel(label string) (int, bool)
	IndexOfValue(x float64) (int, bool)
}

// Boolean returns the fixed two-state space false, true.
func Boolean() States { return booleanStates{} }

type booleanStates struct{}

func (booleanStates) Kind() Kind {
	return KindBoolean
}

func (booleanStates) Len() int {
	return 2
}

func (booleanStates) Label(i int) string {
	if i == 1 {
		return "true"
	}
	return "false"
}

func (booleanStates) IndexOfLabel(label string) (int, bool) {
	switch label {
	case "false":
		return 0, true
	case "true":
		return 1, true
	}
	return -1, false
}

func (booleanStates) IndexOfValue(x float64) (int, bool) {
	switch x {
	case 0:
		return 0, true
	case 1:
		return 1, true
	}
	return -1, false
}

// Labelled returns an ordered set of arbitrary string states. Labels are
// case sensitive.
func Labelled(labels ...string) States {
	return labelledStates(append([]string(nil), labels...))
}

type labelledStates []string

func (labelledStates) Kind() Kind {
	return KindLabelled
}

func (s labelledStates) Len() int {
	return len(s)
}

func (s labelledStates) Label(i int) string {
	return s[i]
}

func (s labelledStates) IndexOfLabel(label string) (int, bool) {
	for i, l := range s {
		if l == label {
			return i, true
		}
	}
	return -1, false
}

func (labelledStates) IndexOfValue(float64) (int, bool) {
	return -1, false
}

// Numbered returns an ordered set of numeric states.
func Numbered(values ...float64) States {
	return numberedStates(append([]float64(nil), values...))
}

type numberedStates []float64

func (numberedStates) Kind() Kind {
	return KindNumbered
}

func (s numberedStates) Len() int {
	return len(s)
}

func (s numberedStates) Label(i int) string {
	return strconv.FormatFloat(s[i], 'g', -1, 64)
}

func (s numberedStates) IndexOfLabel(label string) (int, bool) {
	x, err := strconv.ParseFloat(label, 64)
	if err != nil {
		return -1, false
	}
	return s.IndexOfValue(x)
}

func (s numberedStates) IndexOfValue(x float64) (int, bool) {
	for i, v := range s {
		if v == x {
			return i, true
		}
	}
	return -1, false
}

// Interval is the half-open range [Low, High).
type Interval struct {
	Low, High float64
}

func (iv Interval) Contains(x float64) bool {
	return x >= iv.Low && x < iv.High
}

func (iv Interval) String() string {
	return fmt.Sprintf("[%s, %s)", formatBound(iv.Low), formatBound(iv.High))
}

func formatBound(x float64) string {
	switch {
	case math.IsInf(x, -1):
		return "-inf"
	case math.IsInf(x, 1):
		return "inf"
	}
	return strconv.FormatFloat(x, 'g', -1, 64)
}

// Intervals builds n half-open intervals from n+1 ascending bounds.
// Infinite outer bounds are allowed.
func Intervals(bounds ...float64) States {
	if len(bounds) < 2 {
		return intervalStates(nil)
	}
	s := make(intervalStates, len(bounds)-1)
	for i := range s {
		s[i] = Interval{Low: bounds[i], High: bounds[i+1]}
	}
	return s
}

type intervalStates []Interval

func (intervalStates) Kind() Kind {
	return KindInterval
}

func (s intervalStates) Len() int {
	return len(s)
}

func (s intervalStates) Label(i int) string {
	return s[i].String()
}

func (s intervalStates) IndexOfLabel(label string) (int, bool) {
	for i, iv := range s {
		if iv.String() == label {
			return i, true
		}
	}
	x, err := strconv.ParseFloat(label, 64)
	if err != nil {
		return -1, false
	}
	return s.IndexOfValue(x)
}

func (s intervalStates) IndexOfValue(x float64) (int, bool) {
	for i, iv := range s {
		if iv.Contains(x) {
			return i, true
		}
	}
	return -1, false
}

// IntervalAt returns the i-th interval of an interval state space.
func IntervalAt(s States, i int) (Interval, bool) {
	st, ok := s.(intervalStates)
	if !ok || i < 0 || i >= len(st) {
		return Interval{}, false
	}
	return st[i], true
}

// Continuous returns the state space of a linear-Gaussian variable. It
// has no discrete states.
func Continuous() States { return continuousStates{} }

type continuousStates struct{}

func (continuousStates) Kind() Kind {
	return KindContinuous
}

func (continuousStates) Len() int {
	return 0
}

func (continuousStates) Label(int) string {
	return ""
}

func (continuousStates) IndexOfLabel(string) (int, bool) {
	return -1, false
}

func (continuousStates) IndexOfValue(float64) (int, bool) {
	return -1, false
}

// checkStates reports why a state space cannot be used, or nil.
func checkStates(s States) error {
	if s == nil {
		return fmt.Errorf("%w: nil state space", ErrInvalidStates)
	}
	switch st := s.(type) {
	case continuousStates, booleanStates:
		return nil
	case labelledStates:
		if len(st) == 0 {
			return fmt.Errorf("%w: no labels", ErrInvalidStates)
		}
		seen := make(map[string]bool, len(st))
		for _, l := range st {
			if seen[l] {
				return fmt.Errorf("%w: duplicate label %q", ErrInvalidStates, l)
			}
			seen[l] = true
		}
	case numberedStates:
		if len(st) == 0 {
			return fmt.Errorf("%w: no values", ErrInvalidStates)
		}
		seen := make(map[float64]bool, len(st))
		for _, v := range st {
			if math.IsNaN(v) || seen[v] {
				return fmt.Errorf("%w: duplicate or NaN value %v", ErrInvalidStates, v)
			}
			seen[v] = true
		}
	case intervalStates:
		if len(st) == 0 {
			return fmt.Errorf("%w: need at least two bounds", ErrInvalidStates)
		}
		for _, iv := range st {
			if math.IsNaN(iv.Low) || math.IsNaN(iv.High) || !(iv.Low < iv.High) {
				return fmt.Errorf("%w: bounds must be strictly ascending", ErrInvalidStates)
			}
		}
	default:
		if s.Len() <= 0 {
			return fmt.Errorf("%w: no states", ErrInvalidStates)
		}
	}
	return nil
}
