package scoring

import (
	"testing"

	"github.com/spigell/ats-scorer/internal/competitor"
	"github.com/spigell/ats-scorer/internal/cv"
	"github.com/spigell/ats-scorer/internal/keywords"
	"github.com/spigell/ats-scorer/internal/simulation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseCV() *cv.ParsedCV {
	return &cv.ParsedCV{
		PersonalInfo: cv.PersonalInfo{
			Name:     "Jane Doe",
			Email:    "jane@example.com",
			Phone:    "+1 555 0100",
			Location: "Berlin",
			LinkedIn: "linkedin.com/in/jane",
		},
		Summary: "Experienced engineer who led and delivered results for customers",
		Experience: []cv.Experience{{
			Title:        "Senior Engineer",
			Company:      "Acme",
			StartDate:    "2020-01",
			EndDate:      "Present",
			Description:  "Designed the billing platform and owned its reliability across three regions.",
			Achievements: []string{"Reduced costs by 30%"},
			Technologies: []string{"Go", "PostgreSQL"},
		}},
		Education: []cv.Education{{Institution: "TU Berlin", Degree: "MSc", EndDate: "2019-06"}},
	}
}

func analysisFor(c *cv.ParsedCV, targets ...string) keywords.Analysis {
	return keywords.LocalAnalysis(keywords.Request{CV: c, TargetKeywords: targets, Industry: "technology"})
}

func TestSkillsImproveScore(t *testing.T) {
	without := baseCV()
	with := baseCV()
	with.Skills = cv.CategorizedSkills(map[string][]string{
		"technical": {"Go", "SQL", "Docker"},
		"soft":      {"Mentoring", "Communication"},
	})

	a := Score(Input{CV: without, Keywords: analysisFor(without, "Go")})
	b := Score(Input{CV: with, Keywords: analysisFor(with, "Go")})

	assert.Zero(t, a.Breakdown.Skills)
	assert.Equal(t, 60, b.Breakdown.Skills)
	assert.Equal(t, 10.0, Checklist(with)-Checklist(without))
	assert.Less(t, a.Overall, b.Overall)
}

func TestOverallIsWeightedRounding(t *testing.T) {
	cvs := []*cv.ParsedCV{
		{},
		baseCV(),
		{Summary: "Python developer", Skills: cv.FlatSkills("Python")},
	}

	for _, c := range cvs {
		s := Score(Input{CV: c, Keywords: analysisFor(c, "Python", "AWS")})
		b := s.Breakdown
		want := int(0.25*float64(b.Parsing) + 0.30*float64(b.Keywords) + 0.20*float64(b.Formatting) + 0.25*float64(b.Content) + 0.5)

		assert.Equal(t, want, s.Overall)
		assert.GreaterOrEqual(t, s.Overall, 0)
		assert.LessOrEqual(t, s.Overall, 100)
		for _, v := range []int{b.Parsing, b.Keywords, b.Formatting, b.Content, b.Specificity, b.Experience, b.Education, b.Skills, b.Achievements} {
			assert.GreaterOrEqual(t, v, 0)
			assert.LessOrEqual(t, v, 100)
		}
	}
}

func TestParsingChecklist(t *testing.T) {
	c := baseCV()
	c.Skills = cv.FlatSkills("Go")
	c.Certifications = []cv.Certification{{Name: "CKA"}}
	c.Projects = []cv.Project{{Name: "ats-scorer"}}

	assert.Equal(t, 90.0, Checklist(c))
	assert.Equal(t, 1.0, ExperienceQuality(c))
	assert.Equal(t, 100.0, ParsingScore(c))

	assert.Zero(t, ParsingScore(&cv.ParsedCV{}))
	assert.Zero(t, ParsingScore(nil))
}

func TestKeywordScore(t *testing.T) {
	a := keywords.Analysis{
		Targets:        []string{"Go", "AWS"},
		Found:          []string{"Go"},
		Missing:        []string{"AWS"},
		Density:        0.03,
		OptimalDensity: 0.03,
		Matches: []keywords.Match{{
			Keyword:    "Go",
			Importance: 0.6,
			Variations: []string{"golang", "gopher", "goroutines", "gofmt", "gomod"},
		}},
	}
	assert.InDelta(t, 65.0, KeywordScore(a), 1e-9)

	a.Density = 0.09
	assert.InDelta(t, 40.0, KeywordScore(a), 1e-9)

	assert.Zero(t, KeywordScore(keywords.Analysis{}))
}

func TestFormattingScore(t *testing.T) {
	c := &cv.ParsedCV{
		PersonalInfo: cv.PersonalInfo{Name: "A", Email: "a@x.com", Phone: "123456", Location: "Oslo", LinkedIn: "in/a"},
		Summary:      "Contact b@y.org",
		Experience:   []cv.Experience{{StartDate: "2020-01", EndDate: "2019-01"}},
		Education:    []cv.Education{{EndDate: "2015-06"}},
		Skills:       cv.FlatSkills("Go"),
	}
	// 30 sections + 20 dates + 20 contact + (30 - 10 chronology - 10 emails)
	assert.InDelta(t, 80.0, FormattingScore(c), 1e-9)

	c.PersonalInfo.Email = "not-an-email"
	assert.InDelta(t, 0.8, ContactCompleteness(c), 1e-9)
}

func TestContentPoints(t *testing.T) {
	c := baseCV()
	assert.Equal(t, 20.0, SummaryPoints(c))
	assert.Equal(t, 5.0, QuantifiedPoints(c))
	assert.Zero(t, SkillsPoints(c))

	c.Summary = "Engineer"
	assert.Equal(t, 5.0, SummaryPoints(c))

	c.Achievements = []string{"Saved $1M", "Grew sales 20%", "Hired 5 engineers", "Cut costs by 10%"}
	assert.Equal(t, 15.0, QuantifiedPoints(c))

	c.Skills = cv.FlatSkills("a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l", "m", "n", "o", "p")
	assert.Equal(t, 20.0, SkillsPoints(c))
}

func TestConfidenceAndPassRate(t *testing.T) {
	assert.Equal(t, 21, Confidence(&cv.ParsedCV{}, keywords.Analysis{}))
	assert.Equal(t, 56, EstimatedPassRate([]simulation.Result{{PassRate: 50}, {PassRate: 61}}))
	assert.Zero(t, EstimatedPassRate(nil))
}

func TestSemanticKeywordsAreCapped(t *testing.T) {
	a := keywords.Analysis{
		Matches: []keywords.Match{{Variations: []string{"golang", "Golang"}}},
	}
	for i := 0; i < 20; i++ {
		a.Recommended = append(a.Recommended, string(rune('a'+i)))
	}

	got := SemanticKeywords(a)
	require.Len(t, got, 15)
	assert.Equal(t, "golang", got[0])
	assert.Equal(t, "a", got[1])
}

func TestScoreCarriesCollectedResults(t *testing.T) {
	c := baseCV()
	comp := competitor.LocalAnalysis(competitor.Request{CV: c, Industry: "finance"})
	sims := []simulation.Result{{SystemName: "Workday", PassRate: 70}}

	s := Score(Input{CV: c, Keywords: analysisFor(c, "Go", "Kafka"), Simulations: sims, Competitor: comp})

	assert.Equal(t, comp.BenchmarkScore, s.IndustryBenchmark)
	assert.Equal(t, 70, s.EstimatedPassRate)
	assert.Equal(t, sims, s.SimulationResults)
	assert.Contains(t, s.Recommendations, "Add missing keywords: Kafka")
	assert.LessOrEqual(t, len(s.Recommendations), 10)
	assert.Equal(t, s, Score(Input{CV: c, Keywords: analysisFor(c, "Go", "Kafka"), Simulations: sims, Competitor: comp}))
}

func TestScoreNilCV(t *testing.T) {
	s := Score(Input{})
	assert.NotNil(t, s.SimulationResults)
	assert.GreaterOrEqual(t, s.Overall, 0)
}
