package service

import (
	"fmt"

	"github.com/Harshitk-cp/aptnet/internal/bayesnet"
	"github.com/Harshitk-cp/aptnet/internal/metrics"
	"github.com/Harshitk-cp/aptnet/internal/netfile"
)

// CourseModel is a compiled network together with its course binding.
// It is immutable and safe to share between goroutines.
type CourseModel struct {
	Name         string
	Compiled     *bayesnet.Compiled
	Exercises    bayesnet.Family
	Results      bayesnet.Family
	Chapters     []bayesnet.VarID
	ChapterNames []string
}

// NewCourseModel builds, validates and compiles def and resolves its
// course binding. Every chapter must name a boolean-like variable.
func NewCourseModel(def *netfile.Definition) (*CourseModel, error) {
	done := metrics.TimeCompile()
	cm, err := newCourseModel(def)
	if err != nil {
		done(false, 0)
		return nil, err
	}
	done(true, len(cm.Compiled.Cliques()))
	return cm, nil
}

func newCourseModel(def *netfile.Definition) (*CourseModel, error) {
	m, err := def.Build()
	if err != nil {
		return nil, err
	}
	c, err := m.Compile()
	if err != nil {
		return nil, err
	}

	l := def.Course.Layout()
	cm := &CourseModel{
		Name:         def.Name,
		Compiled:     c,
		Exercises:    c.Family(l.ExercisePrefix, l.ExerciseStart),
		Results:      c.Family(l.ResultPrefix, l.ResultStart),
		ChapterNames: l.Chapters,
	}
	for _, name := range l.Chapters {
		v, ok := c.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("%w: chapter %q is not a variable", bayesnet.ErrModelDefinition, name)
		}
		cm.Chapters = append(cm.Chapters, v)
	}
	for _, v := range append(append([]bayesnet.VarID(nil), cm.Chapters...), cm.Results.Members()...) {
		if st := c.States(v); st.Kind() == bayesnet.KindContinuous || st.Len() <= PositiveState {
			return nil, fmt.Errorf("%w: %q has no positive state", bayesnet.ErrModelDefinition, c.Name(v))
		}
	}
	for _, v := range cm.Exercises.Members() {
		if c.States(v).Kind() != bayesnet.KindBoolean {
			return nil, fmt.Errorf("%w: exercise %q must be boolean", bayesnet.ErrModelDefinition, c.Name(v))
		}
	}
	return cm, nil
}
