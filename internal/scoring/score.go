// Package scoring turns the collected analyses into the composite ATS score.
// Every function here is pure.
package scoring

import (
	"fmt"
	"math"
	"strings"

	"github.com/spigell/ats-scorer/internal/competitor"
	"github.com/spigell/ats-scorer/internal/cv"
	"github.com/spigell/ats-scorer/internal/keywords"
	"github.com/spigell/ats-scorer/internal/simulation"
	"github.com/spigell/ats-scorer/internal/utils"
)

const (
	maxSemanticKeywords = 15
	maxFindings         = 10
)

// Breakdown holds every sub-score on a 0-100 scale. Only the first four
// contribute to the overall score.
type Breakdown struct {
	Parsing      int `json:"parsing"`
	Keywords     int `json:"keywords"`
	Formatting   int `json:"formatting"`
	Content      int `json:"content"`
	Specificity  int `json:"specificity"`
	Experience   int `json:"experience"`
	Education    int `json:"education"`
	Skills       int `json:"skills"`
	Achievements int `json:"achievements"`
}

// AdvancedATSScore is the composite score with everything it was derived from.
type AdvancedATSScore struct {
	Overall            int                 `json:"overall"`
	Breakdown          Breakdown           `json:"breakdown"`
	Recommendations    []string            `json:"recommendations"`
	CompetitorAnalysis competitor.Analysis `json:"competitorAnalysis"`
	SemanticKeywords   []string            `json:"semanticKeywords"`
	IndustryBenchmark  int                 `json:"industryBenchmark"`
	EstimatedPassRate  int                 `json:"estimatedPassRate"`
	SimulationResults  []simulation.Result `json:"simulationResults"`
	Confidence         int                 `json:"confidence"`
}

// Input is the output of the collecting stage.
type Input struct {
	CV          *cv.ParsedCV
	Keywords    keywords.Analysis
	Simulations []simulation.Result
	Competitor  competitor.Analysis
}

// Score computes the composite score.
func Score(in Input) AdvancedATSScore {
	c := in.CV
	if c == nil {
		c = &cv.ParsedCV{}
	}

	b := Breakdown{
		Parsing:      utils.Percent(ParsingScore(c)),
		Keywords:     utils.Percent(KeywordScore(in.Keywords)),
		Formatting:   utils.Percent(FormattingScore(c)),
		Content:      utils.Percent(ContentScore(c)),
		Specificity:  utils.Percent(SpecificityScore(c, in.Keywords)),
		Experience:   utils.Percent(100 * ContentExperienceQuality(c)),
		Education:    utils.Percent(EducationScore(c)),
		Skills:       utils.Percent(4 * SkillsPoints(c)),
		Achievements: utils.Percent(100 * QuantifiedPoints(c) / 15),
	}

	simulations := in.Simulations
	if simulations == nil {
		simulations = []simulation.Result{}
	}

	return AdvancedATSScore{
		Overall:            Overall(b),
		Breakdown:          b,
		Recommendations:    Findings(c, in, b),
		CompetitorAnalysis: in.Competitor,
		SemanticKeywords:   SemanticKeywords(in.Keywords),
		IndustryBenchmark:  in.Competitor.BenchmarkScore,
		EstimatedPassRate:  EstimatedPassRate(simulations),
		SimulationResults:  simulations,
		Confidence:         Confidence(c, in.Keywords),
	}
}

// Overall is the weighted rounding of the four main sub-scores.
func Overall(b Breakdown) int {
	return utils.Percent(WeightParsing*float64(b.Parsing) +
		WeightKeywords*float64(b.Keywords) +
		WeightFormatting*float64(b.Formatting) +
		WeightContent*float64(b.Content))
}

// Confidence estimates how much the score can be trusted given how complete
// the CV is, how many target keywords were found and how consistent the
// dates are.
func Confidence(c *cv.ParsedCV, a keywords.Analysis) int {
	completeness := Checklist(c) / maxChecklist
	return utils.Percent(100 *
		(0.5 + 0.5*completeness) *
		(0.6 + 0.4*a.Coverage()) *
		(0.7 + 0.3*cv.DateConsistency(c)))
}

// EstimatedPassRate averages the simulated pass rates.
func EstimatedPassRate(results []simulation.Result) int {
	if len(results) == 0 {
		return 0
	}
	sum := 0
	for _, r := range results {
		sum += r.PassRate
	}
	return int(math.Round(float64(sum) / float64(len(results))))
}

// SemanticKeywords lists keyword variations found in the CV followed by the
// recommended related keywords.
func SemanticKeywords(a keywords.Analysis) []string {
	var all []string
	for _, m := range a.Matches {
		all = append(all, m.Variations...)
	}
	all = append(all, a.Recommended...)

	unique := utils.Unique(all)
	if len(unique) > maxSemanticKeywords {
		unique = unique[:maxSemanticKeywords]
	}
	return unique
}

// Findings are short textual observations about the weakest areas.
func Findings(c *cv.ParsedCV, in Input, b Breakdown) []string {
	var out []string

	if missing := utils.Unique(in.Keywords.Missing); len(missing) > 0 {
		out = append(out, fmt.Sprintf("Add missing keywords: %s", strings.Join(head(missing, 5), ", ")))
	}
	if d, opt := in.Keywords.Density, in.Keywords.OptimalDensity; opt > 0 && d < 0.5*opt {
		out = append(out, fmt.Sprintf("Keyword density %.1f%% is well below the %.1f%% target", d*100, opt*100))
	}
	if missing := missingSections(c); len(missing) > 0 {
		out = append(out, "Complete missing sections: "+strings.Join(missing, ", "))
	}
	if cv.DateConsistency(c) < 0.8 && len(c.Experience) > 0 {
		out = append(out, "Use one date format throughout the CV")
	}
	if cv.ChronologyViolations(c) > 0 {
		out = append(out, "Fix positions whose end date precedes the start date")
	}
	if b.Achievements == 0 {
		out = append(out, "Quantify achievements with numbers, percentages or amounts")
	}
	if b.Skills < 60 {
		out = append(out, "Expand and group the skills section")
	}
	if ContactCompleteness(c) < 0.6 {
		out = append(out, "Complete contact details: name, email, phone, location and LinkedIn")
	}
	out = append(out, head(in.Competitor.ImprovementOpportunities, 2)...)

	out = utils.Unique(out)
	return head(out, maxFindings)
}

func missingSections(c *cv.ParsedCV) []string {
	var missing []string
	if !filled(c.Summary) {
		missing = append(missing, "summary")
	}
	if len(c.Experience) == 0 {
		missing = append(missing, "experience")
	}
	if len(c.Education) == 0 {
		missing = append(missing, "education")
	}
	if len(c.Skills.Normalize().All) == 0 {
		missing = append(missing, "skills")
	}
	return missing
}

func head(list []string, n int) []string {
	if len(list) > n {
		return list[:n]
	}
	return list
}
