package scoring

import (
	"math"
	"strings"

	"github.com/spigell/ats-scorer/internal/cv"
	"github.com/spigell/ats-scorer/internal/keywords"
	"github.com/spigell/ats-scorer/internal/utils"
)

// Sub-score weights of the overall score. Tunable.
const (
	WeightParsing    = 0.25
	WeightKeywords   = 0.30
	WeightFormatting = 0.20
	WeightContent    = 0.25
)

// Parsing checklist points; they add up to maxChecklist.
const (
	pointsName           = 10
	pointsEmail          = 10
	pointsPhone          = 5
	pointsExperience     = 10
	pointsEducation      = 10
	pointsSkills         = 10
	pointsSummary        = 10
	pointsCertifications = 5
	pointsProjects       = 5
	pointsLocation       = 5
	pointsLinkedIn       = 5
	pointsAchievements   = 5

	maxChecklist = 90
)

// Checklist returns the parsing checklist points the CV earns, out of 90.
func Checklist(c *cv.ParsedCV) float64 {
	if c == nil {
		return 0
	}
	p := c.PersonalInfo
	items := []struct {
		ok     bool
		points float64
	}{
		{filled(p.Name), pointsName},
		{filled(p.Email), pointsEmail},
		{filled(p.Phone), pointsPhone},
		{len(c.Experience) > 0, pointsExperience},
		{len(c.Education) > 0, pointsEducation},
		{len(c.Skills.Normalize().All) > 0, pointsSkills},
		{filled(c.Summary), pointsSummary},
		{len(c.Certifications) > 0, pointsCertifications},
		{len(c.Projects) > 0, pointsProjects},
		{filled(p.Location), pointsLocation},
		{filled(p.LinkedIn), pointsLinkedIn},
		{hasAchievements(c), pointsAchievements},
	}

	total := 0.0
	for _, item := range items {
		if item.ok {
			total += item.points
		}
	}
	return total
}

// ExperienceQuality averages, per position, the presence of a role, a
// company, a description of at least 50 characters and a start date.
func ExperienceQuality(c *cv.ParsedCV) float64 {
	if c == nil || len(c.Experience) == 0 {
		return 0
	}
	sum := 0.0
	for _, e := range c.Experience {
		indicators := 0
		for _, ok := range []bool{
			filled(e.Title),
			filled(e.Company),
			len([]rune(strings.TrimSpace(e.Description))) >= 50,
			filled(e.StartDate),
		} {
			if ok {
				indicators++
			}
		}
		sum += float64(indicators) / 4
	}
	return sum / float64(len(c.Experience))
}

// ParsingScore is the checklist boosted by up to 15% for well described
// experience, capped at 100.
func ParsingScore(c *cv.ParsedCV) float64 {
	return math.Min(100, Checklist(c)*(1+0.15*ExperienceQuality(c)))
}

// KeywordScore combines target coverage, density, importance and variation
// richness of a keyword analysis.
func KeywordScore(a keywords.Analysis) float64 {
	importance := 0.0
	variationCount := 0
	for _, m := range a.Matches {
		importance += m.Importance
		variationCount += len(m.Variations)
	}
	if len(a.Matches) > 0 {
		importance /= float64(len(a.Matches))
	}

	return 40*a.Coverage() +
		25*densityCloseness(a.Density, a.OptimalDensity) +
		25*importance +
		10*math.Min(1, float64(variationCount)/10)
}

func densityCloseness(density, optimal float64) float64 {
	if optimal <= 0 {
		return 0
	}
	return math.Max(0, 1-math.Abs(density-optimal)/optimal)
}

// FormattingScore rewards standard sections, consistent dates, complete
// contact details and an internally consistent document.
func FormattingScore(c *cv.ParsedCV) float64 {
	if c == nil {
		return 0
	}
	return 30*cv.StandardSectionRatio(c) +
		20*cv.DateConsistency(c) +
		20*ContactCompleteness(c) +
		consistencyPoints(c)
}

// ContactCompleteness is the share of name, valid email, phone, location and
// LinkedIn that the CV provides.
func ContactCompleteness(c *cv.ParsedCV) float64 {
	if c == nil {
		return 0
	}
	p := c.PersonalInfo
	present := 0
	for _, ok := range []bool{
		filled(p.Name),
		cv.ValidEmail(p.Email),
		filled(p.Phone),
		filled(p.Location),
		filled(p.LinkedIn),
	} {
		if ok {
			present++
		}
	}
	return float64(present) / 5
}

// consistencyPoints starts at 30 and loses 10 per position ending before it
// starts (at most 20) and 10 when the CV mentions several email addresses.
func consistencyPoints(c *cv.ParsedCV) float64 {
	points := 30.0
	points -= math.Min(20, 10*float64(cv.ChronologyViolations(c)))
	if len(cv.DistinctEmails(c)) > 1 {
		points -= 10
	}
	return points
}

// ContentScore rewards well described positions, a broad and organized skill
// set, a substantive summary and quantified achievements.
func ContentScore(c *cv.ParsedCV) float64 {
	if c == nil {
		return 0
	}
	return 40*ContentExperienceQuality(c) +
		SkillsPoints(c) +
		SummaryPoints(c) +
		QuantifiedPoints(c)
}

// ContentExperienceQuality weighs role and company (0.2 each), description
// depth up to 100 characters (0.3), achievements and technologies (0.15 each).
func ContentExperienceQuality(c *cv.ParsedCV) float64 {
	if c == nil || len(c.Experience) == 0 {
		return 0
	}
	sum := 0.0
	for _, e := range c.Experience {
		q := 0.0
		if filled(e.Title) {
			q += 0.2
		}
		if filled(e.Company) {
			q += 0.2
		}
		q += 0.3 * math.Min(1, float64(len([]rune(strings.TrimSpace(e.Description))))/100)
		if len(e.Achievements) > 0 {
			q += 0.15
		}
		if len(e.Technologies) > 0 {
			q += 0.15
		}
		sum += q
	}
	return sum / float64(len(c.Experience))
}

// SkillsPoints gives up to 15 points for breadth (15 skills) and 10 for a
// categorized list, 5 for a flat one. Out of 25.
func SkillsPoints(c *cv.ParsedCV) float64 {
	if c == nil {
		return 0
	}
	skills := c.Skills.Normalize()
	if len(skills.All) == 0 {
		return 0
	}
	points := 15 * math.Min(1, float64(len(skills.All))/15)
	if skills.Categorized {
		return points + 10
	}
	return points + 5
}

var professionalWords = map[string]struct{}{
	"experienced": {}, "professional": {}, "expert": {}, "expertise": {}, "skilled": {},
	"proven": {}, "results": {}, "senior": {}, "certified": {}, "specialist": {},
	"leader": {}, "leadership": {}, "strategic": {}, "accomplished": {},
}

// SummaryPoints gives 10 points for a 50-500 character summary (5 otherwise)
// and 2.5 per professional or action word, up to 10. Out of 20.
func SummaryPoints(c *cv.ParsedCV) float64 {
	if c == nil {
		return 0
	}
	summary := strings.TrimSpace(c.Summary)
	if summary == "" {
		return 0
	}

	points := 5.0
	if n := len([]rune(summary)); n >= 50 && n <= 500 {
		points = 10
	}

	hits := 0
	for _, token := range utils.Tokens(summary) {
		if _, ok := professionalWords[token]; ok || keywords.IsActionVerb(token) {
			hits++
		}
	}
	return points + math.Min(10, 2.5*float64(hits))
}

// QuantifiedPoints gives 5, 10 or 15 points for one, two or three and more
// quantified achievements.
func QuantifiedPoints(c *cv.ParsedCV) float64 {
	return 5 * math.Min(3, float64(len(cv.QuantifiedLines(c))))
}

// EducationScore rates the best education entry: institution and degree 40
// each, field or graduation date 20.
func EducationScore(c *cv.ParsedCV) float64 {
	if c == nil {
		return 0
	}
	best := 0.0
	for _, e := range c.Education {
		s := 0.0
		if filled(e.Institution) {
			s += 40
		}
		if filled(e.Degree) {
			s += 40
		}
		if filled(e.Field) || filled(e.EndDate) {
			s += 20
		}
		best = math.Max(best, s)
	}
	return best
}

// SpecificityScore measures how concrete the CV is: the share of quantified
// result lines (50%), named technologies (30%) and target keyword coverage (20%).
func SpecificityScore(c *cv.ParsedCV, a keywords.Analysis) float64 {
	if c == nil {
		return 0
	}
	quantified := 0.0
	if lines := utils.Unique(cv.ResultLines(c)); len(lines) > 0 {
		quantified = float64(len(cv.QuantifiedLines(c))) / float64(len(lines))
	}
	technologies := math.Min(1, float64(cv.TechnologyCount(c))/10)
	return 100 * (0.5*quantified + 0.3*technologies + 0.2*a.Coverage())
}

func hasAchievements(c *cv.ParsedCV) bool {
	if len(utils.Unique(c.Achievements)) > 0 {
		return true
	}
	for _, e := range c.Experience {
		if len(utils.Unique(e.Achievements)) > 0 {
			return true
		}
	}
	return false
}

func filled(s string) bool {
	return strings.TrimSpace(s) != ""
}
