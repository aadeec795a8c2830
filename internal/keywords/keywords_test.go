package keywords

import (
	"context"
	"errors"
	"strings"
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
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func (s *stubGenerator) Name() string { return "stub/model" }

func summaryCV(summary string) *cv.ParsedCV {
	return &cv.ParsedCV{Summary: summary}
}

func TestPythonAWSScenario(t *testing.T) {
	req := Request{CV: summaryCV("Experienced Python developer"), TargetKeywords: []string{"Python", "AWS"}}

	analysis, err := NewAnalyzer(nil, 0, nil).Analyze(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, []string{"Python"}, analysis.Found)
	assert.Equal(t, []string{"AWS"}, analysis.Missing)
	assert.Equal(t, 3, analysis.TotalWords)
	assert.InDelta(t, 1.0/3.0, analysis.Density, 1e-9)
	assert.Equal(t, ai.SourceLocal, analysis.Provenance.Source)
}

func TestTotalWordsExcludesSectionLabels(t *testing.T) {
	c := &cv.ParsedCV{
		Summary: "Python developer",
		Experience: []cv.Experience{{
			Title:        "Engineer",
			Company:      "Acme",
			Technologies: []string{"Python"},
		}},
	}

	analysis := LocalAnalysis(Request{CV: c, TargetKeywords: []string{"Python"}})
	assert.Equal(t, 5, analysis.TotalWords)
	assert.InDelta(t, 2.0/5.0, analysis.Density, 1e-9)
}

func TestFoundAndMissingPartitionTargets(t *testing.T) {
	c := &cv.ParsedCV{
		Summary: "Go and Kubernetes engineer. Led migrations to AWS.",
		Experience: []cv.Experience{{
			Title:       "Platform Engineer",
			Description: "Managed Docker fleets and developed CI/CD pipelines in Go.",
		}},
		Skills: cv.FlatSkills("Go", "Docker"),
	}

	tests := [][]string{
		{"Go", "AWS", "Terraform"},
		{"go", "GO", "Docker", "Rust"},
		{},
		{"CI/CD", "Kafka", "led"},
	}

	for _, targets := range tests {
		analysis := LocalAnalysis(Request{CV: c, TargetKeywords: targets, Industry: "technology"})
		want := len(targets)
		if want == 0 {
			want = len(analysis.Targets)
		}
		assert.Equal(t, want, len(analysis.Found)+len(analysis.Missing), "targets %v", targets)
		for _, m := range analysis.Matches {
			assert.GreaterOrEqual(t, m.Importance, 0.0)
			assert.LessOrEqual(t, m.Importance, 1.0)
			assert.LessOrEqual(t, len(m.Context), 3)
			assert.LessOrEqual(t, len(m.Variations), 10)
		}
	}
}

func TestRepeatedKeywordsCountAsRequested(t *testing.T) {
	req := Request{
		CV:             summaryCV("Experienced Python developer"),
		TargetKeywords: []string{"Python", "python", "AWS", " "},
	}

	analysis := LocalAnalysis(req)

	assert.Len(t, analysis.Found, 2)
	assert.Len(t, analysis.Missing, 2)
	assert.Equal(t, len(req.TargetKeywords), len(analysis.Found)+len(analysis.Missing))
	assert.Equal(t, []string{"Python", "python"}, analysis.Found)
	assert.Equal(t, []string{"AWS", ""}, analysis.Missing)
	assert.Equal(t, []string{"Python", "AWS"}, analysis.Targets)
	assert.InDelta(t, 0.5, analysis.Coverage(), 1e-9)
	assert.InDelta(t, 1.0/3.0, analysis.Density, 1e-9)
}

func TestExtractImportanceAndContext(t *testing.T) {
	src := Source{
		Text: "Managed a team of five. Management of budgets. " + strings.Repeat("x", 120) + " managed",
		Sections: map[string]string{
			cv.SectionSummary:    "Managed a team",
			cv.SectionExperience: "managed budgets",
		},
		Industry: "sales",
	}

	matches := Extract(src, []string{"Managed", "Negotiation"})
	require.Len(t, matches, 1)

	m := matches[0]
	assert.Equal(t, 2, m.Frequency)
	// base 0.5, two important sections, action verb
	assert.InDelta(t, 0.8, m.Importance, 1e-9)
	require.Len(t, m.Context, 2)
	assert.Equal(t, "Managed a team of five", m.Context[0])
	assert.Len(t, []rune(m.Context[1]), 100)
	assert.Contains(t, m.Variations, "management")
}

func TestIndustryKeywordBoostCapped(t *testing.T) {
	src := Source{
		Text: "CRM everywhere",
		Sections: map[string]string{
			cv.SectionSummary:      "CRM",
			cv.SectionExperience:   "CRM",
			cv.SectionSkills:       "CRM",
			cv.SectionAchievements: "CRM",
		},
		Industry: "marketing",
	}
	matches := Extract(src, []string{"CRM"})
	require.Len(t, matches, 1)
	assert.Equal(t, 1.0, matches[0].Importance)
}

func TestAnalyzeUsesGeneratedEnrichment(t *testing.T) {
	stub := &stubGenerator{response: "```json\n" + `{
		"found": [{"keyword": "python", "importance": 9}],
		"missing": ["AWS", "Airflow"],
		"recommended": ["Pandas", "python"]
	}` + "\n```"}

	req := Request{
		CV:             summaryCV("Experienced Python developer"),
		TargetKeywords: []string{"Python", "AWS"},
		TargetRole:     "Data Engineer",
		Industry:       "tech",
	}

	analysis, err := NewAnalyzer(stub, 0, zap.NewNop()).Analyze(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, ai.SourceGenerative, analysis.Provenance.Source)
	assert.Equal(t, []string{"Python"}, analysis.Found)
	assert.Equal(t, []string{"AWS"}, analysis.Missing)
	assert.InDelta(t, 0.9, analysis.Matches[0].Importance, 1e-9)
	assert.Equal(t, []string{"Pandas", "Airflow"}, analysis.Recommended[:2])
	assert.NotContains(t, analysis.Recommended, "python")

	assert.Contains(t, stub.lastPrompt, "Data Engineer")
	assert.Contains(t, stub.lastPrompt, "Python, AWS")
	assert.Contains(t, stub.lastPrompt, "technology")
}

func TestAnalyzeFallsBackOnFailure(t *testing.T) {
	req := Request{CV: summaryCV("Experienced Python developer"), TargetKeywords: []string{"Python", "AWS"}}
	local := LocalAnalysis(req)

	tests := []struct {
		name string
		stub *stubGenerator
	}{
		{name: "service error", stub: &stubGenerator{err: errors.New("503 unavailable")}},
		{name: "unusable text", stub: &stubGenerator{response: "I cannot help with that."}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, observed := observer.New(zapcore.WarnLevel)

			analysis, err := NewAnalyzer(tt.stub, 0, zap.New(core)).Analyze(context.Background(), req)
			require.NoError(t, err)

			assert.Equal(t, ai.SourceLocal, analysis.Provenance.Source)
			assert.NotEmpty(t, analysis.Provenance.Reason)
			assert.Equal(t, local.Found, analysis.Found)
			assert.Equal(t, local.Missing, analysis.Missing)
			assert.Equal(t, local.Density, analysis.Density)
			assert.Equal(t, 1, observed.Len())
		})
	}
}

func TestInterpretKeywordsProse(t *testing.T) {
	raw := `FOUND:
- Python (0.8)
- SQL | 0.6
MISSING: AWS
RECOMMENDED:
- Spark`

	g, err := interpretKeywords(raw)
	require.NoError(t, err)
	assert.InDelta(t, 0.8, g.importance["python"], 1e-9)
	assert.InDelta(t, 0.6, g.importance["sql"], 1e-9)
	assert.Equal(t, []string{"AWS"}, g.missing)
	assert.Equal(t, []string{"Spark"}, g.recommended)
}

func TestResolveTargetsFromJobDescription(t *testing.T) {
	jd := "We need Kafka experience. Kafka streaming and Terraform. Terraform modules, Kafka Connect. Python."
	targets := ResolveTargets(Request{JobDescription: jd, Industry: "finance"})

	require.GreaterOrEqual(t, len(targets), 2)
	assert.Equal(t, "kafka", targets[0])
	assert.Equal(t, "terraform", targets[1])
	assert.Contains(t, targets, "Financial Analysis")
	assert.NotContains(t, targets, "python")
}

func TestLocalAnalysisIsDeterministic(t *testing.T) {
	req := Request{CV: summaryCV("Go developer with Docker and Kubernetes"), Industry: "technology"}
	first := LocalAnalysis(req)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, LocalAnalysis(req))
	}
}

func TestNormalizeIndustry(t *testing.T) {
	assert.Equal(t, "technology", NormalizeIndustry(" Software "))
	assert.Equal(t, "finance", NormalizeIndustry("FinTech"))
	assert.Equal(t, DefaultIndustry, NormalizeIndustry("aerospace"))
	assert.Equal(t, 0.035, OptimalDensity("sales"))
	assert.Equal(t, DefaultOptimalDensity, OptimalDensity(""))
}
