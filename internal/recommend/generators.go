package recommend

import (
	"fmt"
	"strings"

	"github.com/spigell/ats-scorer/internal/cv"
	"github.com/spigell/ats-scorer/internal/utils"
)

const (
	maxKeywordRecs     = 5
	maxRelatedKeywords = 3
	maxCompetitiveRecs = 3
	// systems passing at or above this rate produce no recommendations
	systemsPassThreshold = 80
)

func keywordRecommendations(in Input) ([]Recommendation, error) {
	var out []Recommendation
	a := in.Keywords

	for i, kw := range head(utils.Unique(a.Missing), maxKeywordRecs) {
		priority, impact, gain := PriorityHigh, 75, 4
		if i >= 3 {
			priority, impact, gain = PriorityMedium, 60, 3
		}
		out = append(out, Recommendation{
			ID:                        "keywords-add-" + utils.Slug(kw),
			Category:                  CategoryKeywords,
			Priority:                  priority,
			Title:                     fmt.Sprintf("Add missing keyword %q", kw),
			Description:               fmt.Sprintf("%q is a target keyword that does not appear in the CV. Mention it in the skills section and in the experience where you used it.", kw),
			Impact:                    impact,
			Effort:                    EffortLow,
			EstimatedScoreImprovement: gain,
			ActionRequired:            ActionAdd,
			Section:                   cv.SectionSkills,
		})
	}

	if opt := a.OptimalDensity; opt > 0 && a.TotalWords > 0 {
		switch {
		case a.Density < 0.5*opt:
			out = append(out, Recommendation{
				ID:                        "keywords-density-low",
				Category:                  CategoryKeywords,
				Priority:                  PriorityMedium,
				Title:                     "Increase keyword density",
				Description:               fmt.Sprintf("Target keywords make up %.1f%% of the text; aim for about %.1f%% by using them in experience bullet points.", a.Density*100, opt*100),
				Impact:                    60,
				Effort:                    EffortMedium,
				EstimatedScoreImprovement: 4,
				ActionRequired:            ActionModify,
				Section:                   cv.SectionExperience,
			})
		case a.Density > 2*opt:
			out = append(out, Recommendation{
				ID:                        "keywords-density-high",
				Category:                  CategoryKeywords,
				Priority:                  PriorityMedium,
				Title:                     "Reduce keyword repetition",
				Description:               fmt.Sprintf("Target keywords make up %.1f%% of the text, which ATS filters may flag as keyword stuffing.", a.Density*100),
				Impact:                    50,
				Effort:                    EffortLow,
				EstimatedScoreImprovement: 3,
				ActionRequired:            ActionRemove,
				Section:                   cv.SectionExperience,
			})
		}
	}

	for _, kw := range head(a.Recommended, maxRelatedKeywords) {
		out = append(out, Recommendation{
			ID:                        "keywords-related-" + utils.Slug(kw),
			Category:                  CategoryKeywords,
			Priority:                  PriorityLow,
			Title:                     fmt.Sprintf("Consider adding %q", kw),
			Description:               fmt.Sprintf("%q is commonly expected for this role and industry. Add it if it reflects your experience.", kw),
			Impact:                    40,
			Effort:                    EffortLow,
			EstimatedScoreImprovement: 2,
			ActionRequired:            ActionAdd,
			Section:                   cv.SectionSkills,
		})
	}
	return out, nil
}

func structureRecommendations(in Input) ([]Recommendation, error) {
	c := in.CV
	var out []Recommendation

	if strings.TrimSpace(c.PersonalInfo.Email) == "" && strings.TrimSpace(c.PersonalInfo.Phone) == "" {
		out = append(out, Recommendation{
			ID:                        "structure-contact",
			Category:                  CategoryStructure,
			Priority:                  PriorityCritical,
			Title:                     "Add contact details",
			Description:               "Recruiters and ATS filters need an email address and a phone number at the top of the CV.",
			Impact:                    90,
			Effort:                    EffortLow,
			EstimatedScoreImprovement: 6,
			ActionRequired:            ActionAdd,
			Section:                   "contact",
		})
	} else if !cv.ValidEmail(c.PersonalInfo.Email) {
		out = append(out, Recommendation{
			ID:                        "structure-email",
			Category:                  CategoryStructure,
			Priority:                  PriorityHigh,
			Title:                     "Add a valid email address",
			Description:               "The contact email is missing or malformed, so parsers cannot extract it.",
			Impact:                    70,
			Effort:                    EffortLow,
			EstimatedScoreImprovement: 3,
			ActionRequired:            ActionModify,
			Section:                   "contact",
		})
	}

	sections := []struct {
		name     string
		missing  bool
		priority Priority
		impact   int
		gain     int
	}{
		{cv.SectionExperience, len(c.Experience) == 0, PriorityCritical, 90, 8},
		{cv.SectionSkills, len(c.Skills.Normalize().All) == 0, PriorityHigh, 80, 6},
		{cv.SectionEducation, len(c.Education) == 0, PriorityHigh, 70, 4},
		{cv.SectionSummary, strings.TrimSpace(c.Summary) == "", PriorityMedium, 60, 4},
	}
	for _, s := range sections {
		if !s.missing {
			continue
		}
		out = append(out, Recommendation{
			ID:                        "structure-section-" + s.name,
			Category:                  CategoryStructure,
			Priority:                  s.priority,
			Title:                     fmt.Sprintf("Add a %s section", s.name),
			Description:               fmt.Sprintf("ATS parsers look for a %s section under a standard heading.", s.name),
			Impact:                    s.impact,
			Effort:                    EffortMedium,
			EstimatedScoreImprovement: s.gain,
			ActionRequired:            ActionAdd,
			Section:                   s.name,
		})
	}

	if len(c.Experience) > 0 && cv.DateConsistency(c) < 0.8 {
		out = append(out, Recommendation{
			ID:                        "structure-date-format",
			Category:                  CategoryStructure,
			Priority:                  PriorityMedium,
			Title:                     "Use one date format",
			Description:               "Dates are missing or mixed. Write every date the same way, for example MM/YYYY.",
			Impact:                    55,
			Effort:                    EffortLow,
			EstimatedScoreImprovement: 3,
			ActionRequired:            ActionModify,
			Section:                   cv.SectionExperience,
		})
	}
	if n := cv.ChronologyViolations(c); n > 0 {
		out = append(out, Recommendation{
			ID:                        "structure-chronology",
			Category:                  CategoryStructure,
			Priority:                  PriorityHigh,
			Title:                     "Fix position dates",
			Description:               fmt.Sprintf("%d position(s) end before they start.", n),
			Impact:                    65,
			Effort:                    EffortLow,
			EstimatedScoreImprovement: 2 * min(n, 2),
			ActionRequired:            ActionModify,
			Section:                   cv.SectionExperience,
		})
	}
	if !cv.ReverseChronological(c) {
		out = append(out, Recommendation{
			ID:                        "structure-order",
			Category:                  CategoryStructure,
			Priority:                  PriorityMedium,
			Title:                     "List positions newest first",
			Description:               "Most ATS treat the first listed position as the current one.",
			Impact:                    50,
			Effort:                    EffortLow,
			EstimatedScoreImprovement: 2,
			ActionRequired:            ActionModify,
			Section:                   cv.SectionExperience,
		})
	}
	return out, nil
}

func contentRecommendations(in Input) ([]Recommendation, error) {
	c := in.CV
	b := in.Score.Breakdown
	var out []Recommendation

	if len(c.Experience) > 0 && b.Achievements < 100 {
		priority := PriorityMedium
		if b.Achievements == 0 {
			priority = PriorityHigh
		}
		out = append(out, Recommendation{
			ID:                        "content-quantify",
			Category:                  CategoryContent,
			Priority:                  priority,
			Title:                     "Quantify achievements",
			Description:               "State results with numbers: percentages, revenue, users, time saved. Aim for at least three.",
			Impact:                    75,
			Effort:                    EffortMedium,
			EstimatedScoreImprovement: 5,
			ActionRequired:            ActionModify,
			Section:                   cv.SectionExperience,
		})
	}

	short := 0
	for _, e := range c.Experience {
		if len([]rune(strings.TrimSpace(e.Description))) < 100 {
			short++
		}
	}
	if short > 0 {
		out = append(out, Recommendation{
			ID:                        "content-descriptions",
			Category:                  CategoryContent,
			Priority:                  PriorityMedium,
			Title:                     "Expand position descriptions",
			Description:               fmt.Sprintf("%d position(s) have short descriptions. Describe scope, responsibilities and the technologies used.", short),
			Impact:                    60,
			Effort:                    EffortMedium,
			EstimatedScoreImprovement: 4,
			ActionRequired:            ActionModify,
			Section:                   cv.SectionExperience,
		})
	}

	summaryLen := len([]rune(strings.TrimSpace(c.Summary)))
	if summaryLen > 0 && (summaryLen < 50 || summaryLen > 500) {
		out = append(out, Recommendation{
			ID:                        "content-summary-length",
			Category:                  CategoryContent,
			Priority:                  PriorityLow,
			Title:                     "Adjust summary length",
			Description:               "Keep the summary between two and four sentences (50 to 500 characters).",
			Impact:                    40,
			Effort:                    EffortLow,
			EstimatedScoreImprovement: 2,
			ActionRequired:            ActionModify,
			Section:                   cv.SectionSummary,
		})
	}

	skills := c.Skills.Normalize()
	if n := len(skills.All); n > 0 && n < 10 {
		out = append(out, Recommendation{
			ID:                        "content-skills-breadth",
			Category:                  CategoryContent,
			Priority:                  PriorityMedium,
			Title:                     "List more relevant skills",
			Description:               fmt.Sprintf("The CV lists %d skills; competitive CVs list 10 to 15.", n),
			Impact:                    50,
			Effort:                    EffortLow,
			EstimatedScoreImprovement: 3,
			ActionRequired:            ActionAdd,
			Section:                   cv.SectionSkills,
		})
	}
	if len(skills.All) > 0 && !skills.Categorized {
		out = append(out, Recommendation{
			ID:                        "content-skills-groups",
			Category:                  CategoryContent,
			Priority:                  PriorityLow,
			Title:                     "Group skills by category",
			Description:               "Split skills into groups such as technical, tools and languages.",
			Impact:                    35,
			Effort:                    EffortLow,
			EstimatedScoreImprovement: 1,
			ActionRequired:            ActionModify,
			Section:                   cv.SectionSkills,
		})
	}
	return out, nil
}

// systemRecommendations turns the fixes suggested by struggling ATS profiles
// into recommendations; the same fix from several systems shares one ID.
func systemRecommendations(in Input) ([]Recommendation, error) {
	var out []Recommendation
	for _, sim := range in.Score.SimulationResults {
		if sim.PassRate >= systemsPassThreshold {
			continue
		}
		priority := PriorityLow
		switch {
		case sim.PassRate < 50:
			priority = PriorityHigh
		case sim.PassRate < 70:
			priority = PriorityMedium
		}
		for _, fix := range sim.Suggestions {
			out = append(out, Recommendation{
				ID:                        "systems-" + utils.Slug(fix),
				Category:                  CategorySystems,
				Priority:                  priority,
				Title:                     fix,
				Description:               fmt.Sprintf("%s estimates a %d%% pass rate for this CV.", sim.SystemName, sim.PassRate),
				Impact:                    100 - sim.PassRate,
				Effort:                    EffortLow,
				EstimatedScoreImprovement: (100 - sim.PassRate) / 10,
				ActionRequired:            ActionModify,
				Section:                   "layout",
				ATSSystemsAffected:        []string{sim.SystemName},
			})
		}
	}
	return out, nil
}

func competitiveRecommendations(in Input) ([]Recommendation, error) {
	s := in.Score
	comp := s.CompetitorAnalysis
	var out []Recommendation

	if gap := comp.BenchmarkScore - s.Overall; comp.BenchmarkScore > 0 && gap > 0 {
		out = append(out, Recommendation{
			ID:                        "competitive-benchmark",
			Category:                  CategoryCompetitive,
			Priority:                  PriorityHigh,
			Title:                     "Close the gap to the industry benchmark",
			Description:               fmt.Sprintf("The CV scores %d against a typical shortlist score of %d.", s.Overall, comp.BenchmarkScore),
			Impact:                    70,
			Effort:                    EffortHigh,
			EstimatedScoreImprovement: min(15, gap),
			ActionRequired:            ActionModify,
			Section:                   cv.SectionExperience,
		})
	}

	for _, kw := range head(comp.KeywordGaps, maxCompetitiveRecs) {
		out = append(out, Recommendation{
			ID:                        "competitive-keyword-" + utils.Slug(kw),
			Category:                  CategoryCompetitive,
			Priority:                  PriorityLow,
			Title:                     fmt.Sprintf("Competing CVs mention %q", kw),
			Description:               fmt.Sprintf("%q appears in most competing CVs for this industry.", kw),
			Impact:                    45,
			Effort:                    EffortLow,
			EstimatedScoreImprovement: 2,
			ActionRequired:            ActionAdd,
			Section:                   cv.SectionSkills,
		})
	}

	for _, item := range head(comp.ImprovementOpportunities, maxCompetitiveRecs) {
		out = append(out, Recommendation{
			ID:                        "competitive-" + utils.Slug(item),
			Category:                  CategoryCompetitive,
			Priority:                  PriorityMedium,
			Title:                     item,
			Description:               "Typical shortlisted applicants are stronger here.",
			Impact:                    50,
			Effort:                    EffortMedium,
			EstimatedScoreImprovement: 3,
			ActionRequired:            ActionModify,
			Section:                   cv.SectionExperience,
		})
	}
	return out, nil
}

func head(list []string, n int) []string {
	if len(list) > n {
		return list[:n]
	}
	return list
}
