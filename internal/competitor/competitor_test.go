package competitor

import (
	"context"
	"errors"
	"testing"

	"github.com/spigell/ats-scorer/internal/ai"
	"github.com/spigell/ats-scorer/internal/cv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type stubGenerator struct {
	response   string
	err        error
	lastPrompt string
}

func (s *stubGenerator) Generate(_ context.Context, req ai.Request) (string, error) {
	s.lastPrompt = req.Prompt
	return s.response, s.err
}

func (s *stubGenerator) Name() string { return "stub/model" }

func engineerCV() *cv.ParsedCV {
	return &cv.ParsedCV{
		Summary: "Backend engineer working with Python, Docker and Kubernetes on AWS.",
		Experience: []cv.Experience{
			{Title: "Senior Engineer", Description: "Built microservices in Python.", Achievements: []string{"Cut costs by 30%", "Served 2 million users"}},
			{Title: "Engineer", Description: "Maintained CI/CD pipelines."},
		},
		Skills: cv.FlatSkills("Python", "Docker", "Kubernetes", "AWS"),
	}
}

func TestLocalAnalysisUsesIndustryTable(t *testing.T) {
	analysis := LocalAnalysis(Request{CV: engineerCV(), Industry: "Software"})

	b := BenchmarkFor("technology")
	assert.Equal(t, b.AverageScore, analysis.BenchmarkScore)
	assert.Equal(t, 1200, analysis.SimilarProfiles)
	assert.Equal(t, b.SimilarRoles, analysis.SimilarRoles)
	assert.LessOrEqual(t, len(analysis.KeywordGaps), maxKeywordGaps)
	assert.Contains(t, analysis.KeywordGaps, "Java")
	assert.NotContains(t, analysis.KeywordGaps, "Python")
	assert.NotContains(t, analysis.KeywordGaps, "Docker")
	assert.NotEmpty(t, analysis.ImprovementOpportunities)
	assert.NotEmpty(t, analysis.MarketPositioning)
	assert.Equal(t, ai.SourceLocal, analysis.Provenance.Source)
}

func TestUnknownIndustryUsesDefault(t *testing.T) {
	assert.Equal(t, BenchmarkFor("default"), BenchmarkFor("aerospace"))
	analysis := LocalAnalysis(Request{CV: &cv.ParsedCV{}, Industry: "aerospace"})
	assert.Equal(t, 65, analysis.BenchmarkScore)
	assert.Equal(t, "Below the average default applicant", analysis.MarketPositioning)
}

func TestPositioning(t *testing.T) {
	tests := []struct {
		strength float64
		want     string
	}{
		{strength: 90, want: "Top performer among sales applicants"},
		{strength: 70, want: "Competitive with typical sales applicants"},
		{strength: 55, want: "Average for the sales market"},
		{strength: 10, want: "Below the average sales applicant"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, positioning(tt.strength, "sales"))
	}
}

func TestAnalyzeWithGeneratedAssessment(t *testing.T) {
	stub := &stubGenerator{response: `Here you go:
{"benchmarkScore": 81, "strengths": ["Cloud depth"], "weaknesses": ["No Java"], "differentiators": ["Cost savings"], "positioning": "Upper quartile"}`}

	analysis, err := NewAnalyzer(stub, 0, nil).Analyze(context.Background(), Request{CV: engineerCV(), Industry: "technology", TargetRole: "SRE"})
	require.NoError(t, err)

	assert.Equal(t, 81, analysis.BenchmarkScore)
	assert.Equal(t, []string{"Cloud depth"}, analysis.StrengthsVsCompetitors)
	assert.Equal(t, []string{"No Java"}, analysis.ImprovementOpportunities)
	assert.Equal(t, []string{"Cost savings"}, analysis.CompetitiveAdvantage)
	assert.Equal(t, "Upper quartile", analysis.MarketPositioning)
	assert.Equal(t, BenchmarkFor("technology").CohortSize, analysis.SimilarProfiles)
	assert.Equal(t, BenchmarkFor("technology").SimilarRoles, analysis.SimilarRoles)
	assert.Equal(t, ai.SourceGenerative, analysis.Provenance.Source)
	assert.Contains(t, stub.lastPrompt, "SRE")
	assert.Contains(t, stub.lastPrompt, "72/100")
}

func TestGeneratedSimilarProfilesCount(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     int
	}{
		{name: "counted by the service", response: `{"benchmarkScore": 75, "similarProfiles": 340}`, want: 340},
		{name: "count as text", response: `{"benchmarkScore": 75, "similarProfiles": "45"}`, want: 45},
		{name: "unusable count", response: `{"benchmarkScore": 75, "similarProfiles": 0}`, want: 1200},
		{name: "no count", response: `{"benchmarkScore": 75}`, want: 1200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubGenerator{response: tt.response}
			analysis, err := NewAnalyzer(stub, 0, nil).Analyze(context.Background(), Request{CV: engineerCV(), Industry: "technology"})
			require.NoError(t, err)
			assert.Equal(t, ai.SourceGenerative, analysis.Provenance.Source)
			assert.Equal(t, tt.want, analysis.SimilarProfiles)
		})
	}
}

func TestEveryBenchmarkHasCohort(t *testing.T) {
	for industry, b := range benchmarks {
		assert.Positive(t, b.CohortSize, industry)
		assert.NotEmpty(t, b.SimilarRoles, industry)
		assert.Equal(t, b.CohortSize, LocalAnalysis(Request{CV: &cv.ParsedCV{}, Industry: industry}).SimilarProfiles, industry)
	}
}

func TestInterpretCompetitorProse(t *testing.T) {
	raw := `**Benchmark score:** 77

STRENGTHS:
- Strong cloud background
- Quantified impact
WEAKNESSES:
1. Few certifications
DIFFERENTIATORS: Payments domain`

	view, err := interpretCompetitor(raw)
	require.NoError(t, err)
	assert.Equal(t, 77, view.score)
	assert.Equal(t, []string{"Strong cloud background", "Quantified impact"}, view.strengths)
	assert.Equal(t, []string{"Few certifications"}, view.weaknesses)
	assert.Equal(t, []string{"Payments domain"}, view.differentiators)
}

func TestAnalyzeFallsBackOnUnusableAnswer(t *testing.T) {
	req := Request{CV: engineerCV(), Industry: "technology"}
	local := LocalAnalysis(req)

	tests := []struct {
		name string
		stub *stubGenerator
	}{
		{name: "service error", stub: &stubGenerator{err: errors.New("timeout")}},
		{name: "score out of range", stub: &stubGenerator{response: `{"benchmarkScore": 12}`}},
		{name: "no score", stub: &stubGenerator{response: "STRENGTHS:\n- Good"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, observed := observer.New(zapcore.WarnLevel)

			analysis, err := NewAnalyzer(tt.stub, 0, zap.New(core)).Analyze(context.Background(), req)
			require.NoError(t, err)

			assert.Equal(t, local.BenchmarkScore, analysis.BenchmarkScore)
			assert.Equal(t, local.KeywordGaps, analysis.KeywordGaps)
			assert.Equal(t, ai.SourceLocal, analysis.Provenance.Source)
			assert.NotEmpty(t, analysis.Provenance.Reason)
			assert.Equal(t, 1, observed.Len())
		})
	}
}

func TestAnalyzeRequiresCV(t *testing.T) {
	_, err := NewAnalyzer(nil, 0, nil).Analyze(context.Background(), Request{})
	assert.Error(t, err)
}
