package netfile

import (
	_ "embed"
	"fmt"
)

// Course binds a network to the assessment layout: which variables hold
// exercise outcomes, which ones are chapter masteries, and which chain of
// variables tracks the learner's result over time.
type Course struct {
	ExercisePrefix string   `yaml:"exercise_prefix,omitempty" json:"exercise_prefix,omitempty"`
	ExerciseStart  *int     `yaml:"exercise_start,omitempty" json:"exercise_start,omitempty"`
	ResultPrefix   string   `yaml:"result_prefix,omitempty" json:"result_prefix,omitempty"`
	ResultStart    *int     `yaml:"result_start,omitempty" json:"result_start,omitempty"`
	Chapters       []string `yaml:"chapters" json:"chapters"`
}

// Layout is a Course with defaults applied.
type Layout struct {
	ExercisePrefix string
	ExerciseStart  int
	ResultPrefix   string
	ResultStart    int
	Chapters       []string
}

const (
	DefaultExercisePrefix = "Ex"
	DefaultExerciseStart  = 1
	DefaultResultPrefix   = "Result"
	DefaultResultStart    = 0
)

// Layout resolves the binding. A nil course has no chapters.
func (c *Course) Layout() Layout {
	l := Layout{
		ExercisePrefix: DefaultExercisePrefix,
		ExerciseStart:  DefaultExerciseStart,
		ResultPrefix:   DefaultResultPrefix,
		ResultStart:    DefaultResultStart,
	}
	if c == nil {
		return l
	}
	if c.ExercisePrefix != "" {
		l.ExercisePrefix = c.ExercisePrefix
	}
	if c.ExerciseStart != nil {
		l.ExerciseStart = *c.ExerciseStart
	}
	if c.ResultPrefix != "" {
		l.ResultPrefix = c.ResultPrefix
	}
	if c.ResultStart != nil {
		l.ResultStart = *c.ResultStart
	}
	l.Chapters = append([]string(nil), c.Chapters...)
	return l
}

//go:embed elearning.yaml
var elearning []byte

// Default returns a fresh copy of the built-in e-learning network: seven
// programming chapters, one exercise per chapter and a result chain
// linking them in teaching order.
func Default() *Definition {
	d, err := Parse(elearning)
	if err != nil {
		panic(fmt.Sprintf("netfile: embedded network is broken: %v", err))
	}
	return d
}
