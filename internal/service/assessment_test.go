package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/Harshitk-cp/aptnet/internal/bayesnet"
	"github.com/Harshitk-cp/aptnet/internal/domain"
	"github.com/Harshitk-cp/aptnet/internal/netfile"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var fixtureOutcomes = []bool{true, true, false, true, true, false, true}

// Reference posteriors for fixtureOutcomes at time 3, computed by summing
// the full joint of the default network.
var (
	fixtureChapters = []float64{
		90.82169060250142,  // Ifs
		80.46736939105367,  // Cycles
		31.396052934704365, // Turtle
		92.78993079404458,  // Strings
		84.8625933495043,   // Lists
		27.722563135688453, // Dictionaries
		88.22303033035448,  // Files
	}
	fixtureAptitude = 61.52664145921688
	fixtureEvidence = 0.011620299080249986
)

func defaultCourse(t *testing.T) *CourseModel {
	t.Helper()
	cm, err := NewCourseModel(netfile.Default())
	require.NoError(t, err)
	return cm
}

func percentages(r *Result) []float64 {
	out := make([]float64, len(r.Chapters))
	for i, c := range r.Chapters {
		out[i] = c.Percentage
	}
	return out
}

func TestParseCase(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    Case
		wantErr error
	}{
		{"time and outcomes", []string{"3", "true", "false"}, Case{Time: 3, Outcomes: []bool{true, false}}, nil},
		{"time only", []string{"0"}, Case{Time: 0, Outcomes: []bool{}}, nil},
		{"empty", nil, Case{}, ErrMissingTime},
		{"time not a number", []string{"three", "true"}, Case{}, ErrUsage},
		{"capitalised outcome", []string{"1", "True"}, Case{}, ErrInvalidOutcome},
		{"numeric outcome", []string{"1", "1"}, Case{}, ErrInvalidOutcome},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCase(tt.args)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluate_RegressionFixture(t *testing.T) {
	cm := defaultCourse(t)
	r, err := cm.Evaluate(Case{Time: 3, Outcomes: fixtureOutcomes})
	require.NoError(t, err)

	approx := cmpopts.EquateApprox(0, 1e-9)
	if diff := cmp.Diff(fixtureChapters, percentages(r), approx); diff != "" {
		t.Errorf("chapter percentages (-want +got):\n%s", diff)
	}
	assert.InDelta(t, fixtureAptitude, r.Aptitude.Percentage, 1e-9)
	assert.Equal(t, domain.VerdictApt, r.Aptitude.Verdict)
	assert.InEpsilon(t, fixtureEvidence, r.EvidenceProbability, 1e-9)

	names := make([]string, len(r.Chapters))
	for i, c := range r.Chapters {
		names[i] = c.Chapter
	}
	assert.Equal(t, []string{"Ifs", "Cycles", "Turtle", "Strings", "Lists", "Dictionaries", "Files"}, names)
	assert.Equal(t, domain.LevelMastered, r.Chapters[0].Level)
	assert.Equal(t, domain.LevelNovice, r.Chapters[5].Level)
}

func TestEvaluate_Deterministic(t *testing.T) {
	first, err := defaultCourse(t).Evaluate(Case{Time: 3, Outcomes: fixtureOutcomes})
	require.NoError(t, err)
	cm := defaultCourse(t)
	for i := 0; i < 5; i++ {
		again, err := cm.Evaluate(Case{Time: 3, Outcomes: fixtureOutcomes})
		require.NoError(t, err)
		if diff := cmp.Diff(first, again); diff != "" {
			t.Fatalf("run %d differs (-first +again):\n%s", i, diff)
		}
	}
}

func TestEvaluate_VerdictPerTime(t *testing.T) {
	cm := defaultCourse(t)
	want := map[int]domain.Verdict{
		0: domain.VerdictApt,    // 73.58
		2: domain.VerdictNotApt, // 48.41
		5: domain.VerdictNotApt, // 44.97
		6: domain.VerdictApt,    // 58.16
	}
	for tm, verdict := range want {
		r, err := cm.Evaluate(Case{Time: tm, Outcomes: fixtureOutcomes})
		require.NoError(t, err)
		assert.Equal(t, verdict, r.Aptitude.Verdict, "time %d", tm)
	}
}

func TestEvaluate_FewerOutcomesKeepPriors(t *testing.T) {
	cm := defaultCourse(t)
	r, err := cm.Evaluate(Case{Time: 6, Outcomes: []bool{true, true}})
	require.NoError(t, err)
	assert.InDelta(t, 48.22618935099736, r.Aptitude.Percentage, 1e-9)
	assert.Equal(t, domain.VerdictNotApt, r.Aptitude.Verdict)

	none, err := cm.Evaluate(Case{Time: 0})
	require.NoError(t, err)
	assert.InDelta(t, 45.0, none.Aptitude.Percentage, 1e-9)
	assert.InDelta(t, 1.0, none.EvidenceProbability, 1e-12)
	assert.InDelta(t, 50.0, none.Chapters[0].Percentage, 1e-9)
}

func TestEvaluate_UsageErrors(t *testing.T) {
	cm := defaultCourse(t)

	_, err := cm.Evaluate(Case{Time: 7, Outcomes: fixtureOutcomes})
	assert.ErrorIs(t, err, ErrTimeOutOfRange)

	_, err = cm.Evaluate(Case{Time: -1})
	assert.ErrorIs(t, err, ErrTimeOutOfRange)

	_, err = cm.Evaluate(Case{Time: 1, Outcomes: []bool{true, true, true, true, true, true, true, true}})
	assert.ErrorIs(t, err, ErrTooManyOutcomes)
	assert.ErrorIs(t, err, ErrUsage)
}

func TestEvaluate_ContradictoryEvidence(t *testing.T) {
	def := &netfile.Definition{
		Name:   "strict",
		Course: &netfile.Course{Chapters: []string{"Skill"}},
		Variables: []netfile.Variable{
			{Name: "Skill", Kind: "boolean", Table: [][]float64{{0, 1}}},
			{Name: "Ex1", Kind: "boolean", Parents: []string{"Skill"}, Table: [][]float64{{0.5, 0.5}, {0, 1}}},
			{Name: "Result0", Kind: "boolean", Parents: []string{"Skill"}, Table: [][]float64{{1, 0}, {0, 1}}},
		},
	}
	cm, err := NewCourseModel(def)
	require.NoError(t, err)

	_, err = cm.Evaluate(Case{Time: 0, Outcomes: []bool{false}})
	assert.ErrorIs(t, err, bayesnet.ErrContradictoryEvidence)
	assert.ErrorIs(t, err, bayesnet.ErrInference)

	r, err := cm.Evaluate(Case{Time: 0, Outcomes: []bool{true}})
	require.NoError(t, err, "a failed case leaves the model usable")
	assert.InDelta(t, 100.0, r.Aptitude.Percentage, 1e-9)
}

func TestNewCourseModel_BindingErrors(t *testing.T) {
	def := netfile.Default()
	def.Course.Chapters = append(def.Course.Chapters, "Recursion")
	_, err := NewCourseModel(def)
	assert.ErrorIs(t, err, bayesnet.ErrModelDefinition)

	broken := netfile.Default()
	broken.Variables[0].Table = [][]float64{{0.5, 0.6}}
	_, err = NewCourseModel(broken)
	assert.ErrorIs(t, err, bayesnet.ErrModelDefinition)
}

// jointMarginals sums the full joint of an all-boolean definition and
// returns P(v = true) for every variable.
func jointMarginals(t *testing.T, def *netfile.Definition, evidence map[string]bool) map[string]float64 {
	t.Helper()
	idx := make(map[string]int, len(def.Variables))
	for i, v := range def.Variables {
		idx[v.Name] = i
	}
	n := len(def.Variables)
	marg := make([]float64, n)
	z := 0.0
	assign := make([]int, n)
	for mask := 0; mask < 1<<n; mask++ {
		for i := range assign {
			assign[i] = (mask >> (n - 1 - i)) & 1
		}
		consistent := true
		for name, want := range evidence {
			if (assign[idx[name]] == 1) != want {
				consistent = false
				break
			}
		}
		if !consistent {
			continue
		}
		p := 1.0
		for i, v := range def.Variables {
			row := 0
			for _, par := range v.Parents {
				row = row*2 + assign[idx[par]]
			}
			p *= v.Table[row][assign[i]]
		}
		z += p
		for i := range assign {
			if assign[i] == 1 {
				marg[i] += p
			}
		}
	}
	out := make(map[string]float64, n)
	for i, v := range def.Variables {
		out[v.Name] = marg[i] / z
	}
	return out
}

func TestEvaluate_MatchesJointOnRandomCases(t *testing.T) {
	if testing.Short() {
		t.Skip("sums a 2^21 joint")
	}
	def := netfile.Default()
	cm := defaultCourse(t)

	cases := []Case{
		{Time: 1, Outcomes: []bool{false, false, true}},
		{Time: 4, Outcomes: []bool{true, false, true, false, true, false, false}},
	}
	for _, c := range cases {
		evidence := map[string]bool{}
		for i, o := range c.Outcomes {
			evidence[fmt.Sprintf("Ex%d", i+1)] = o
		}
		want := jointMarginals(t, def, evidence)

		r, err := cm.Evaluate(c)
		require.NoError(t, err)
		for _, ch := range r.Chapters {
			assert.InDelta(t, want[ch.Chapter]*100, ch.Percentage, 1e-9, ch.Chapter)
		}
		assert.InDelta(t, want[fmt.Sprintf("Result%d", c.Time)]*100, r.Aptitude.Percentage, 1e-9)
	}
}

func TestAssessmentService_AssessAndStore(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	learners := newMockLearnerStore()
	assessments := &mockAssessmentStore{}
	networks := NewNetworkService(newMockNetworkStore(), zap.NewNop())
	svc := NewAssessmentService(assessments, learners, networks, zap.NewNop())

	n, err := networks.InstallDefault(ctx, tenantID)
	require.NoError(t, err)

	anon, err := svc.Assess(ctx, tenantID, n.ID, nil, Case{Time: 3, Outcomes: fixtureOutcomes})
	require.NoError(t, err)
	assert.Equal(t, uuid.Nil, anon.ID)
	assert.Empty(t, assessments.assessments, "anonymous assessments are not stored")

	learner := &domain.Learner{TenantID: tenantID, ExternalID: "s-1"}
	require.NoError(t, NewLearnerService(learners).Create(ctx, learner))

	a, err := svc.Assess(ctx, tenantID, n.ID, &learner.ID, Case{Time: 3, Outcomes: fixtureOutcomes})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, a.ID)
	assert.InDelta(t, fixtureAptitude, a.Percentage, 1e-9)

	got, err := svc.GetByID(ctx, a.ID, tenantID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)

	list, err := svc.ListByLearner(ctx, learner.ID, tenantID, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = svc.Assess(ctx, tenantID, n.ID, &learner.ID, Case{Time: 9})
	assert.ErrorIs(t, err, ErrTimeOutOfRange)

	missing := uuid.New()
	_, err = svc.Assess(ctx, tenantID, n.ID, &missing, Case{Time: 0})
	assert.ErrorIs(t, err, ErrLearnerNotFound)

	_, err = svc.Assess(ctx, tenantID, uuid.New(), nil, Case{Time: 0})
	assert.ErrorIs(t, err, ErrNetworkNotFound)

	_, err = svc.GetByID(ctx, uuid.New(), tenantID)
	assert.ErrorIs(t, err, ErrAssessmentNotFound)
}

func TestAssessmentService_Similar(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	learners := newMockLearnerStore()
	networks := NewNetworkService(newMockNetworkStore(), zap.NewNop())
	svc := NewAssessmentService(&mockAssessmentStore{}, learners, networks, zap.NewNop())

	n, err := networks.InstallDefault(ctx, tenantID)
	require.NoError(t, err)
	learner := &domain.Learner{TenantID: tenantID, ExternalID: "s-1"}
	require.NoError(t, NewLearnerService(learners).Create(ctx, learner))

	base, err := svc.Assess(ctx, tenantID, n.ID, &learner.ID, Case{Time: 3, Outcomes: fixtureOutcomes})
	require.NoError(t, err)
	near, err := svc.Assess(ctx, tenantID, n.ID, &learner.ID, Case{Time: 3, Outcomes: []bool{true, true, false, true, true, false, false}})
	require.NoError(t, err)
	far, err := svc.Assess(ctx, tenantID, n.ID, &learner.ID, Case{Time: 3, Outcomes: []bool{false, false, false, false, false, false, false}})
	require.NoError(t, err)

	similar, err := svc.Similar(ctx, base.ID, tenantID, 0)
	require.NoError(t, err)
	require.Len(t, similar, 2)
	assert.Equal(t, near.ID, similar[0].ID)
	assert.Equal(t, far.ID, similar[1].ID)
}

func TestAssessmentService_StoresCaseWithoutOutcomes(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	learners := newMockLearnerStore()
	assessments := &mockAssessmentStore{}
	networks := NewNetworkService(newMockNetworkStore(), zap.NewNop())
	svc := NewAssessmentService(assessments, learners, networks, zap.NewNop())

	n, err := networks.InstallDefault(ctx, tenantID)
	require.NoError(t, err)
	learner := &domain.Learner{TenantID: tenantID, ExternalID: "s-1"}
	require.NoError(t, NewLearnerService(learners).Create(ctx, learner))

	a, err := svc.Assess(ctx, tenantID, n.ID, &learner.ID, Case{Time: 0})
	require.NoError(t, err)
	assert.NotNil(t, a.Outcomes)
	assert.Empty(t, a.Outcomes)
	require.Len(t, assessments.assessments, 1)

	cm, err := networks.Course(ctx, n.ID, tenantID)
	require.NoError(t, err)
	prior, err := cm.Evaluate(Case{Time: 0})
	require.NoError(t, err)
	assert.InDelta(t, prior.Aptitude.Percentage, a.Percentage, 1e-9)
}

func TestAssessmentService_NetworkWithoutChapters(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	learners := newMockLearnerStore()
	assessments := &mockAssessmentStore{}
	networks := NewNetworkService(newMockNetworkStore(), zap.NewNop())
	svc := NewAssessmentService(assessments, learners, networks, zap.NewNop())

	n := &domain.Network{
		TenantID: tenantID,
		Definition: &netfile.Definition{
			Name: "quiz",
			Variables: []netfile.Variable{
				{Name: "Ex1", Kind: "boolean", Table: [][]float64{{0.4, 0.6}}},
				{Name: "Result0", Kind: "boolean", Parents: []string{"Ex1"}, Table: [][]float64{{0.8, 0.2}, {0.3, 0.7}}},
			},
		},
	}
	require.NoError(t, networks.Create(ctx, n))
	learner := &domain.Learner{TenantID: tenantID, ExternalID: "s-1"}
	require.NoError(t, NewLearnerService(learners).Create(ctx, learner))

	first, err := svc.Assess(ctx, tenantID, n.ID, &learner.ID, Case{Time: 0, Outcomes: []bool{true}})
	require.NoError(t, err)
	assert.Empty(t, first.Chapters)
	assert.Empty(t, first.MasteryVector())
	assert.InDelta(t, 70.0, first.Percentage, 1e-9)
	assert.Equal(t, domain.VerdictApt, first.Verdict)

	_, err = svc.Assess(ctx, tenantID, n.ID, &learner.ID, Case{Time: 0, Outcomes: []bool{false}})
	require.NoError(t, err)

	similar, err := svc.Similar(ctx, first.ID, tenantID, 5)
	require.NoError(t, err)
	assert.NotNil(t, similar)
	assert.Empty(t, similar, "assessments without chapters have no mastery to compare")
}
