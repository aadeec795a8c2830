package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/spigell/ats-scorer/internal/ai"
	"github.com/spigell/ats-scorer/internal/competitor"
	"github.com/spigell/ats-scorer/internal/cv"
	"github.com/spigell/ats-scorer/internal/keywords"
	"github.com/spigell/ats-scorer/internal/metrics"
	"github.com/spigell/ats-scorer/internal/recommend"
	"github.com/spigell/ats-scorer/internal/simulation"
	"github.com/spigell/ats-scorer/internal/verify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type panickingSimulator struct{}

func (panickingSimulator) Simulate(simulation.Input) []simulation.Result { panic("profile table corrupted") }

type stubVerifier struct {
	result verify.Result
	err    error
}

func (s stubVerifier) Verify(context.Context, verify.Request) (verify.Result, error) {
	return s.result, s.err
}

type stubKeywords struct {
	reason string
}

func (s stubKeywords) Analyze(_ context.Context, req keywords.Request) (keywords.Analysis, error) {
	a := keywords.LocalAnalysis(req)
	a.Provenance = ai.Local(s.reason)
	return a, nil
}

// barrier releases its callers only once n of them have arrived.
type barrier struct {
	wg  sync.WaitGroup
	all chan struct{}
}

func newBarrier(n int) *barrier {
	b := &barrier{all: make(chan struct{})}
	b.wg.Add(n)
	go func() {
		b.wg.Wait()
		close(b.all)
	}()
	return b
}

func (b *barrier) arrive() error {
	b.wg.Done()
	select {
	case <-b.all:
		return nil
	case <-time.After(2 * time.Second):
		return errors.New("collecting stages ran one after another")
	}
}

type barrierKeywords struct{ b *barrier }

func (s barrierKeywords) Analyze(_ context.Context, req keywords.Request) (keywords.Analysis, error) {
	if err := s.b.arrive(); err != nil {
		return keywords.Analysis{}, err
	}
	return keywords.LocalAnalysis(req), nil
}

type barrierCompetitor struct{ b *barrier }

func (s barrierCompetitor) Analyze(_ context.Context, req competitor.Request) (competitor.Analysis, error) {
	if err := s.b.arrive(); err != nil {
		return competitor.Analysis{}, err
	}
	return competitor.LocalAnalysis(req), nil
}

type barrierSimulator struct {
	b   *barrier
	sim Simulator
}

func (s barrierSimulator) Simulate(in simulation.Input) []simulation.Result {
	if err := s.b.arrive(); err != nil {
		panic(err)
	}
	return s.sim.Simulate(in)
}

func sampleCV() *cv.ParsedCV {
	return &cv.ParsedCV{
		PersonalInfo: cv.PersonalInfo{Name: "Jane Doe", Email: "jane@example.com", Phone: "+1 555 0100", Location: "Berlin"},
		Summary:      "Experienced Python developer who led data platform work.",
		Experience: []cv.Experience{{
			Title:        "Data Engineer",
			Company:      "Acme",
			StartDate:    "2020-01",
			EndDate:      "Present",
			Description:  "Built Python pipelines on AWS processing 2 million events per day for analytics teams.",
			Achievements: []string{"Reduced pipeline cost by 35%"},
			Technologies: []string{"Python", "AWS", "Airflow"},
		}},
		Education: []cv.Education{{Institution: "TU Berlin", Degree: "BSc", EndDate: "2019-06"}},
		Skills:    cv.CategorizedSkills(map[string][]string{"technical": {"Python", "SQL", "AWS"}, "soft": {"Mentoring"}}),
	}
}

func request() Request {
	return Request{
		CV:             sampleCV(),
		TargetRole:     "Data Engineer",
		TargetKeywords: []string{"Python", "AWS", "Kafka"},
		Industry:       "technology",
	}
}

func newEngine(t *testing.T, deps Deps) *Engine {
	t.Helper()
	e, err := New(deps)
	require.NoError(t, err)
	return e
}

func stageNames(reports []StageReport) []string {
	names := make([]string, 0, len(reports))
	for _, r := range reports {
		names = append(names, r.Name)
	}
	return names
}

func TestOfflineAnalysisIsDeterministic(t *testing.T) {
	e := newEngine(t, Deps{Version: "1.2.3"})

	first := e.Analyze(context.Background(), request())
	require.Equal(t, ModeFull, first.Metadata.Mode)
	assert.False(t, first.Metadata.Degraded)
	assert.Equal(t, "1.2.3", first.Metadata.Version)
	assert.Equal(t, []string{"collecting", "scoring", "recommending", "verifying"}, stageNames(first.Metadata.Stages))

	for i := 0; i < 3; i++ {
		again := e.Analyze(context.Background(), request())
		assert.Equal(t, first.Overall, again.Overall)
		assert.Equal(t, first.Breakdown, again.Breakdown)
		assert.Equal(t, first.Recommendations, again.Recommendations)
		assert.NotEqual(t, first.Metadata.AnalysisID, again.Metadata.AnalysisID)
	}
}

func TestFullResult(t *testing.T) {
	e := newEngine(t, Deps{})
	result := e.Analyze(context.Background(), request())

	assert.GreaterOrEqual(t, result.Overall, 0)
	assert.LessOrEqual(t, result.Overall, 100)
	assert.Equal(t, result.Score.Overall, result.Overall)
	assert.Equal(t, []string{"Python", "AWS"}, result.Keywords.Found)
	assert.Equal(t, []string{"Kafka"}, result.Keywords.Missing)
	assert.Len(t, result.Score.SimulationResults, 7)
	assert.LessOrEqual(t, len(result.Recommendations), recommend.MaxRecommendations)

	// no verification service configured
	assert.True(t, result.Verification.Verified)
	assert.Equal(t, 75, result.Verification.Confidence)
	assert.Empty(t, result.Verification.Discrepancies)
	assert.Equal(t, result.Overall, result.AdjustedOverall)
	assert.True(t, result.Metadata.Stages[3].Fallback)
	assert.NotNil(t, result.Metadata.ValidationIssues)
}

func TestStagePanicFallsBackToBasic(t *testing.T) {
	core, observed := observer.New(zapcore.WarnLevel)
	rec := metrics.New()
	e := newEngine(t, Deps{Simulator: panickingSimulator{}, Logger: zap.New(core), Metrics: rec, Version: "1.0.0"})

	req := Request{
		CV:             &cv.ParsedCV{Summary: "Experienced Python developer"},
		TargetKeywords: []string{"Python", "AWS"},
	}
	result := e.Analyze(context.Background(), req)

	assert.Equal(t, ModeBasic, result.Metadata.Mode)
	assert.True(t, result.Metadata.Degraded)
	assert.Equal(t, "1.0.0-basic", result.Metadata.Version)
	assert.Contains(t, result.Metadata.Error, "profile table corrupted")

	// parsing 10 (summary only), keyword coverage 50%
	assert.Equal(t, 26, result.Overall)
	assert.Equal(t, 26, result.AdjustedOverall)
	assert.Equal(t, recommend.Fallback(), result.Recommendations)
	assert.Equal(t, verify.Fallback(), result.Verification)

	require.Len(t, result.Metadata.Stages, 2)
	assert.Equal(t, "collecting", result.Metadata.Stages[0].Name)
	assert.Equal(t, "failed", result.Metadata.Stages[0].State)
	assert.Equal(t, "basic", result.Metadata.Stages[1].Name)
	assert.Equal(t, "done", result.Metadata.Stages[1].State)

	assert.Equal(t, 1, observed.FilterMessage("analysis failed, switching to basic analysis").Len())

	expected := `
# HELP ats_scorer_analyses_total Completed analyses by mode.
# TYPE ats_scorer_analyses_total counter
ats_scorer_analyses_total{mode="basic"} 1
# HELP ats_scorer_fallbacks_total Local fallbacks taken instead of a generated or computed result.
# TYPE ats_scorer_fallbacks_total counter
ats_scorer_fallbacks_total{component="pipeline",reason="basic"} 1
`
	require.NoError(t, testutil.GatherAndCompare(rec.Registry(), strings.NewReader(expected),
		"ats_scorer_analyses_total", "ats_scorer_fallbacks_total"))
}

func TestMissingCVIsBasic(t *testing.T) {
	result := newEngine(t, Deps{}).Analyze(context.Background(), Request{Industry: "finance"})

	assert.Equal(t, ModeBasic, result.Metadata.Mode)
	assert.Zero(t, result.Overall)
	assert.Equal(t, 70, result.Score.IndustryBenchmark)
	assert.Equal(t, 850, result.Score.CompetitorAnalysis.SimilarProfiles)
	require.Len(t, result.Metadata.Stages, 1)
	assert.Equal(t, "basic", result.Metadata.Stages[0].Name)
	assert.Equal(t, "cv is required", result.Metadata.Error)
}

func TestVerifierErrorFallsBackToBasic(t *testing.T) {
	e := newEngine(t, Deps{Verifier: stubVerifier{err: errors.New("verify: context canceled")}})
	result := e.Analyze(context.Background(), request())

	assert.Equal(t, ModeBasic, result.Metadata.Mode)
	assert.Equal(t, []string{"collecting", "scoring", "recommending", "verifying", "basic"}, stageNames(result.Metadata.Stages))
}

func TestAdjustmentAppliedOnlyWhenVerified(t *testing.T) {
	tests := []struct {
		name     string
		verified bool
		delta    int
	}{
		{name: "verified", verified: true, delta: 5},
		{name: "not verified", verified: false, delta: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := stubVerifier{result: verify.Result{
				Verified:   tt.verified,
				Confidence: 80,
				Consensus:  verify.Consensus{ScoreAdjustment: 5},
				LLMComparison: verify.Comparison{
					AssessmentA: "a", AssessmentB: "b", AgreementLevel: 90,
				},
			}}
			result := newEngine(t, Deps{Verifier: v}).Analyze(context.Background(), request())

			require.Equal(t, ModeFull, result.Metadata.Mode)
			assert.Equal(t, result.Overall+tt.delta, result.AdjustedOverall)
			assert.False(t, result.Metadata.Stages[3].Fallback)
		})
	}
}

func TestGeneratorFallbackIsReported(t *testing.T) {
	rec := metrics.New()
	e := newEngine(t, Deps{Keywords: stubKeywords{reason: "503 unavailable"}, Metrics: rec})

	result := e.Analyze(context.Background(), request())
	collecting := result.Metadata.Stages[0]
	assert.True(t, collecting.Fallback)
	assert.Contains(t, collecting.Reason, "503 unavailable")
	expected := `
# HELP ats_scorer_fallbacks_total Local fallbacks taken instead of a generated or computed result.
# TYPE ats_scorer_fallbacks_total counter
ats_scorer_fallbacks_total{component="keywords",reason="local"} 1
ats_scorer_fallbacks_total{component="verify",reason="local"} 1
`
	require.NoError(t, testutil.GatherAndCompare(rec.Registry(), strings.NewReader(expected), "ats_scorer_fallbacks_total"))

	disabled := newEngine(t, Deps{Keywords: stubKeywords{reason: ai.ReasonDisabled}}).Analyze(context.Background(), request())
	assert.False(t, disabled.Metadata.Stages[0].Fallback)
}

func TestTimestampAndConcurrentUse(t *testing.T) {
	fixed := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	e := newEngine(t, Deps{Now: func() time.Time { return fixed }})

	var wg sync.WaitGroup
	results := make([]*Result, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = e.Analyze(context.Background(), request())
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, fixed, r.Metadata.Timestamp)
		assert.Equal(t, results[0].Overall, r.Overall)
	}
}

func TestCollectingStagesRunConcurrently(t *testing.T) {
	sim, err := simulation.NewDefault(zap.NewNop())
	require.NoError(t, err)

	b := newBarrier(3)
	e := newEngine(t, Deps{
		Keywords:   barrierKeywords{b: b},
		Competitor: barrierCompetitor{b: b},
		Simulator:  barrierSimulator{b: b, sim: sim},
	})

	result := e.Analyze(context.Background(), request())

	require.Equal(t, ModeFull, result.Metadata.Mode, result.Metadata.Error)
	assert.Empty(t, result.Metadata.Error)
	assert.Equal(t, "done", result.Metadata.Stages[0].State)
	assert.Equal(t, []string{"Python", "AWS"}, result.Keywords.Found)
}
