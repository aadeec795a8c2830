// Package competitor benchmarks a CV against typical applicants of its
// industry.
package competitor

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/spigell/ats-scorer/internal/ai"
	"github.com/spigell/ats-scorer/internal/cv"
	"github.com/spigell/ats-scorer/internal/utils"
	"go.uber.org/zap"
)

//go:embed prompt.md
var promptTemplate string

const (
	maxKeywordGaps   = 8
	maxListItems     = 6
	maxPromptCVChars = 4000

	minBenchmarkScore = 30
	maxBenchmarkScore = 100
)

// Analysis is the competitive position of a CV.
type Analysis struct {
	SimilarProfiles          int           `json:"similarProfiles"`
	SimilarRoles             []string      `json:"similarRoles"`
	KeywordGaps              []string      `json:"keywordGaps"`
	StrengthsVsCompetitors   []string      `json:"strengthsVsCompetitors"`
	ImprovementOpportunities []string      `json:"improvementOpportunities"`
	MarketPositioning        string        `json:"marketPositioning"`
	CompetitiveAdvantage     []string      `json:"competitiveAdvantage"`
	BenchmarkScore           int           `json:"benchmarkScore"`
	Provenance               ai.Provenance `json:"provenance"`
}

type Request struct {
	CV         *cv.ParsedCV
	Industry   string
	TargetRole string
}

// Analyzer compares CVs against industry benchmarks, optionally asking a
// text generation service for a recruiter's view.
type Analyzer struct {
	generator ai.Generator
	timeout   time.Duration
	logger    *zap.Logger
}

// NewAnalyzer creates an Analyzer. A nil generator means local analysis only.
func NewAnalyzer(generator ai.Generator, timeout time.Duration, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{generator: generator, timeout: timeout, logger: logger}
}

// Analyze returns the competitive analysis. Generation failures are logged
// and answered with the local analysis.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (Analysis, error) {
	if req.CV == nil {
		return Analysis{}, errors.New("cv is required")
	}

	local := LocalAnalysis(req)
	if a.generator == nil {
		local.Provenance = ai.Local(ai.ReasonDisabled)
		return local, nil
	}

	raw, err := ai.Call(ctx, a.generator, a.timeout, ai.Request{
		Prompt:      buildPrompt(req),
		MaxTokens:   1024,
		Temperature: 0.3,
	})
	if err == nil {
		var view assessment
		view, err = interpretCompetitor(raw)
		if err == nil {
			return merge(local, view, a.generator), nil
		}
	}

	a.logger.Warn("competitor assessment unavailable, using benchmarks", zap.Error(err))
	local.Provenance = ai.Local(err.Error())
	return local, nil
}

// features are the CV measurements compared against a benchmark.
type features struct {
	experience     float64
	skills         float64
	certifications float64
	quantified     float64
	keywordShare   float64
}

func measure(c *cv.ParsedCV, b Benchmark, text string) features {
	f := features{
		experience:     float64(len(c.Experience)),
		skills:         float64(len(c.Skills.Normalize().All)),
		certifications: float64(len(c.Certifications)),
		quantified:     float64(len(cv.QuantifiedLines(c))),
	}
	if len(b.CommonKeywords) > 0 {
		present := 0
		for _, kw := range b.CommonKeywords {
			if utils.ContainsTerm(text, kw) {
				present++
			}
		}
		f.keywordShare = float64(present) / float64(len(b.CommonKeywords))
	}
	return f
}

func ratio(value, average float64) float64 {
	if average <= 0 {
		return 1
	}
	return math.Min(1, value/average)
}

// strength estimates the CV's standing on a 0-100 scale.
func (f features) strength(b Benchmark) float64 {
	return 30*ratio(f.experience, b.AvgExperience) +
		25*ratio(f.skills, b.AvgSkills) +
		10*ratio(f.certifications, b.AvgCertifications) +
		20*ratio(f.quantified, b.AvgQuantified) +
		15*f.keywordShare
}

// LocalAnalysis builds the analysis from the benchmark table alone.
func LocalAnalysis(req Request) Analysis {
	b := BenchmarkFor(req.Industry)
	c := req.CV
	if c == nil {
		c = &cv.ParsedCV{}
	}
	text := cv.Text(c)
	f := measure(c, b, text)

	var gaps []string
	for _, kw := range b.CommonKeywords {
		if !utils.ContainsTerm(text, kw) {
			gaps = append(gaps, kw)
		}
	}

	var strengths, opportunities, advantages []string
	compare := func(value, average float64, strong, weak string) {
		switch {
		case average > 0 && value >= 1.5*average:
			advantages = append(advantages, strong)
			strengths = append(strengths, strong)
		case value >= average:
			strengths = append(strengths, strong)
		default:
			opportunities = append(opportunities, weak)
		}
	}

	compare(f.experience, b.AvgExperience,
		fmt.Sprintf("Work history (%s positions) matches or exceeds typical %s applicants", formatCount(f.experience), b.Industry),
		fmt.Sprintf("Typical %s applicants list about %s positions; add relevant roles or projects", b.Industry, formatCount(b.AvgExperience)))
	compare(f.skills, b.AvgSkills,
		fmt.Sprintf("Skill coverage (%s skills) is on par with the market", formatCount(f.skills)),
		fmt.Sprintf("Competing CVs list around %s skills; broaden the skills section", formatCount(b.AvgSkills)))
	compare(f.certifications, b.AvgCertifications,
		"Certifications meet the industry norm",
		"Add a certification relevant to the role; competitors commonly hold one")
	compare(f.quantified, b.AvgQuantified,
		fmt.Sprintf("%s quantified achievements stand out to reviewers", formatCount(f.quantified)),
		fmt.Sprintf("Top applicants quantify about %s achievements; add measurable results", formatCount(b.AvgQuantified)))

	if f.keywordShare >= 0.7 {
		strengths = append(strengths, fmt.Sprintf("Covers most %s keywords recruiters search for", b.Industry))
	}

	return Analysis{
		SimilarProfiles:          b.CohortSize,
		SimilarRoles:             append([]string(nil), b.SimilarRoles...),
		KeywordGaps:              capList(gaps, maxKeywordGaps),
		StrengthsVsCompetitors:   capList(strengths, maxListItems),
		ImprovementOpportunities: capList(opportunities, maxListItems),
		MarketPositioning:        positioning(f.strength(b), b.Industry),
		CompetitiveAdvantage:     capList(advantages, maxListItems),
		BenchmarkScore:           b.AverageScore,
		Provenance:               ai.Local(""),
	}
}

func positioning(strength float64, industry string) string {
	switch {
	case strength >= 85:
		return fmt.Sprintf("Top performer among %s applicants", industry)
	case strength >= 70:
		return fmt.Sprintf("Competitive with typical %s applicants", industry)
	case strength >= 50:
		return fmt.Sprintf("Average for the %s market", industry)
	default:
		return fmt.Sprintf("Below the average %s applicant", industry)
	}
}

type assessment struct {
	score           int
	similar         int
	strengths       []string
	weaknesses      []string
	differentiators []string
	positioning     string
}

// interpretCompetitor reads the recruiter answer, either the requested JSON
// object or prose with a BENCHMARK SCORE line and STRENGTHS, WEAKNESSES and
// DIFFERENTIATORS sections. A missing score makes the answer unusable.
func interpretCompetitor(raw string) (assessment, error) {
	var out assessment
	score := math.NaN()

	if obj, ok := ai.ParseObject(raw); ok {
		if v, ok := ai.Lookup(obj, "benchmarkScore", "score"); ok {
			score = ai.CoerceFloat(v)
		}
		if v, ok := ai.Lookup(obj, "similarProfiles", "similar"); ok {
			if n := ai.CoerceFloat(v); n >= 1 {
				out.similar = int(math.Round(n))
			}
		}
		if v, ok := ai.Lookup(obj, "strengths"); ok {
			out.strengths = ai.CoerceStrings(v)
		}
		if v, ok := ai.Lookup(obj, "weaknesses", "improvements"); ok {
			out.weaknesses = ai.CoerceStrings(v)
		}
		if v, ok := ai.Lookup(obj, "differentiators", "advantages"); ok {
			out.differentiators = ai.CoerceStrings(v)
		}
		if v, ok := ai.Lookup(obj, "positioning", "marketPositioning"); ok {
			out.positioning = ai.CoerceString(v)
		}
	} else {
		if v, ok := ai.LabeledNumber(raw, minBenchmarkScore, maxBenchmarkScore, "benchmark score", "benchmark", "score"); ok {
			score = v
		}
		out.strengths = ai.SectionItems(raw, "strength")
		out.weaknesses = ai.SectionItems(raw, "weakness")
		out.differentiators = ai.SectionItems(raw, "differentiator")
		if items := ai.SectionItems(raw, "positioning"); len(items) > 0 {
			out.positioning = items[0]
		}
	}

	if math.IsNaN(score) || score < minBenchmarkScore || score > maxBenchmarkScore {
		return assessment{}, fmt.Errorf("competitor benchmark score: %w", ai.ErrUnparseable)
	}
	out.score = int(math.Round(score))
	return out, nil
}

func merge(local Analysis, view assessment, generator ai.Generator) Analysis {
	merged := local
	merged.BenchmarkScore = view.score
	if view.similar > 0 {
		merged.SimilarProfiles = view.similar
	}
	if len(view.strengths) > 0 {
		merged.StrengthsVsCompetitors = capList(utils.Unique(view.strengths), maxListItems)
	}
	if len(view.weaknesses) > 0 {
		merged.ImprovementOpportunities = capList(utils.Unique(view.weaknesses), maxListItems)
	}
	if len(view.differentiators) > 0 {
		merged.CompetitiveAdvantage = capList(utils.Unique(view.differentiators), maxListItems)
	}
	if view.positioning != "" {
		merged.MarketPositioning = view.positioning
	}
	merged.Provenance = ai.Generative(generator)
	return merged
}

func buildPrompt(req Request) string {
	b := BenchmarkFor(req.Industry)
	role := strings.TrimSpace(req.TargetRole)
	if role == "" {
		role = "not specified"
	}
	text := []rune(cv.Text(req.CV))
	if len(text) > maxPromptCVChars {
		text = text[:maxPromptCVChars]
	}

	return strings.NewReplacer(
		"{{INDUSTRY}}", b.Industry,
		"{{ROLE}}", role,
		"{{PROFILES}}", strings.Join(b.SimilarRoles, ", "),
		"{{AVERAGE}}", strconv.Itoa(b.AverageScore),
		"{{CV}}", string(text),
	).Replace(promptTemplate)
}

func formatCount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func capList(list []string, limit int) []string {
	if list == nil {
		return []string{}
	}
	if len(list) > limit {
		return list[:limit]
	}
	return list
}
