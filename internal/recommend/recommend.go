// Package recommend builds the ranked list of changes that would raise a
// CV's ATS score.
package recommend

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hbollon/go-edlib"
	"github.com/spigell/ats-scorer/internal/cv"
	"github.com/spigell/ats-scorer/internal/keywords"
	"github.com/spigell/ats-scorer/internal/scoring"
	"go.uber.org/zap"
)

// MaxRecommendations caps the ranked list.
const MaxRecommendations = 15

// titleSimilarity is the Levenshtein similarity above which two titles of the
// same category are treated as one recommendation. Tunable.
const titleSimilarity = 0.9

type Category string

const (
	CategoryKeywords    Category = "keywords"
	CategoryStructure   Category = "structure"
	CategoryContent     Category = "content"
	CategorySystems     Category = "ats_systems"
	CategoryCompetitive Category = "competitive"
)

type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

type Effort string

const (
	EffortLow    Effort = "low"
	EffortMedium Effort = "medium"
	EffortHigh   Effort = "high"
)

type Action string

const (
	ActionAdd    Action = "add"
	ActionModify Action = "modify"
	ActionRemove Action = "remove"
)

// Recommendation is one prioritized change.
type Recommendation struct {
	ID                        string   `json:"id"`
	Category                  Category `json:"category"`
	Priority                  Priority `json:"priority"`
	Title                     string   `json:"title"`
	Description               string   `json:"description"`
	Impact                    int      `json:"impact"`
	Effort                    Effort   `json:"effort"`
	EstimatedScoreImprovement int      `json:"estimatedScoreImprovement"`
	ActionRequired            Action   `json:"actionRequired"`
	Section                   string   `json:"section"`
	ATSSystemsAffected        []string `json:"atsSystemsAffected"`
}

// Input is everything the generators look at.
type Input struct {
	CV       *cv.ParsedCV
	Score    scoring.AdvancedATSScore
	Keywords keywords.Analysis
}

type generator struct {
	name string
	run  func(Input) ([]Recommendation, error)
}

// Service runs the generators and ranks their output.
type Service struct {
	generators []generator
	logger     *zap.Logger
}

// New creates a Service with the keyword, structure, content, systems and
// competitive generators.
func New(logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		logger: logger,
		generators: []generator{
			{name: "keywords", run: keywordRecommendations},
			{name: "structure", run: structureRecommendations},
			{name: "content", run: contentRecommendations},
			{name: "systems", run: systemRecommendations},
			{name: "competitive", run: competitiveRecommendations},
		},
	}
}

// Recommend returns at most MaxRecommendations entries sorted by descending
// rank. A failing generator contributes nothing; when all of them fail the
// generic fallback list is returned.
func (s *Service) Recommend(in Input) []Recommendation {
	if in.CV == nil {
		in.CV = &cv.ParsedCV{}
	}

	var (
		all    []Recommendation
		failed int
	)
	for _, g := range s.generators {
		recs, err := s.runGenerator(g, in)
		if err != nil {
			failed++
			s.logger.Warn("recommendation generator failed", zap.String("generator", g.name), zap.Error(err))
			continue
		}
		all = append(all, recs...)
	}

	if len(s.generators) > 0 && failed == len(s.generators) {
		return Fallback()
	}
	return Rank(all)
}

func (s *Service) runGenerator(g generator, in Input) (recs []Recommendation, err error) {
	defer func() {
		if r := recover(); r != nil {
			recs, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	return g.run(in)
}

// Rank deduplicates, sorts and caps a recommendation list.
func Rank(recs []Recommendation) []Recommendation {
	ranked := dedupe(recs)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if RankOf(a) != RankOf(b) {
			return RankOf(a) > RankOf(b)
		}
		if a.Impact != b.Impact {
			return a.Impact > b.Impact
		}
		return a.ID < b.ID
	})
	if len(ranked) > MaxRecommendations {
		ranked = ranked[:MaxRecommendations]
	}
	return ranked
}

// RankOf is priority weight plus impact bucket plus the estimated score
// improvement.
func RankOf(r Recommendation) int {
	return priorityWeight(r.Priority) + impactWeight(r.Impact) + r.EstimatedScoreImprovement
}

func priorityWeight(p Priority) int {
	switch p {
	case PriorityCritical:
		return 40
	case PriorityHigh:
		return 30
	case PriorityMedium:
		return 20
	default:
		return 10
	}
}

func impactWeight(impact int) int {
	switch {
	case impact >= 80:
		return 30
	case impact >= 60:
		return 20
	case impact >= 40:
		return 10
	default:
		return 5
	}
}

// dedupe merges entries with the same ID and entries of the same category
// with near-identical titles, unioning their affected systems.
func dedupe(recs []Recommendation) []Recommendation {
	out := make([]Recommendation, 0, len(recs))
	byID := map[string]int{}

	for _, r := range recs {
		r.ATSSystemsAffected = unionSystems(nil, r.ATSSystemsAffected)
		if i, ok := byID[r.ID]; ok {
			out[i].ATSSystemsAffected = unionSystems(out[i].ATSSystemsAffected, r.ATSSystemsAffected)
			continue
		}
		if i := similarTitle(out, r); i >= 0 {
			out[i].ATSSystemsAffected = unionSystems(out[i].ATSSystemsAffected, r.ATSSystemsAffected)
			byID[r.ID] = i
			continue
		}
		byID[r.ID] = len(out)
		out = append(out, r)
	}
	return out
}

func similarTitle(existing []Recommendation, r Recommendation) int {
	title := strings.ToLower(strings.TrimSpace(r.Title))
	for i, e := range existing {
		if e.Category != r.Category {
			continue
		}
		similarity, err := edlib.StringsSimilarity(strings.ToLower(strings.TrimSpace(e.Title)), title, edlib.Levenshtein)
		if err == nil && similarity >= titleSimilarity {
			return i
		}
	}
	return -1
}

func unionSystems(a, b []string) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, list := range [][]string{a, b} {
		for _, s := range list {
			if s = strings.TrimSpace(s); s == "" {
				continue
			}
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

// Fallback is the generic advice returned when no generator produced output.
func Fallback() []Recommendation {
	return []Recommendation{
		{
			ID:                        "generic-keywords",
			Category:                  CategoryKeywords,
			Priority:                  PriorityHigh,
			Title:                     "Match the job posting's keywords",
			Description:               "Mirror the exact skills and tools named in the job posting in your summary, skills and experience.",
			Impact:                    80,
			Effort:                    EffortLow,
			EstimatedScoreImprovement: 10,
			ActionRequired:            ActionAdd,
			Section:                   cv.SectionSkills,
			ATSSystemsAffected:        []string{},
		},
		{
			ID:                        "generic-quantify",
			Category:                  CategoryContent,
			Priority:                  PriorityHigh,
			Title:                     "Quantify your achievements",
			Description:               "Add numbers to your results: percentages, amounts, team sizes and time saved.",
			Impact:                    70,
			Effort:                    EffortMedium,
			EstimatedScoreImprovement: 8,
			ActionRequired:            ActionModify,
			Section:                   cv.SectionExperience,
			ATSSystemsAffected:        []string{},
		},
		{
			ID:                        "generic-structure",
			Category:                  CategoryStructure,
			Priority:                  PriorityMedium,
			Title:                     "Use standard section headings",
			Description:               "Use Summary, Experience, Education and Skills headings in a single-column layout.",
			Impact:                    60,
			Effort:                    EffortLow,
			EstimatedScoreImprovement: 5,
			ActionRequired:            ActionModify,
			Section:                   "layout",
			ATSSystemsAffected:        []string{},
		},
	}
}
