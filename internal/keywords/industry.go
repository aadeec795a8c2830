package keywords

import (
	"sort"
	"strings"
)

const DefaultIndustry = "default"

// DefaultOptimalDensity is the keyword density target for unknown industries.
// Tunable.
const DefaultOptimalDensity = 0.03

var industryKeywords = map[string][]string{
	"technology": {
		"Python", "Java", "JavaScript", "Go", "AWS", "Docker", "Kubernetes", "SQL",
		"CI/CD", "Microservices", "REST", "Agile", "Cloud", "Git", "Linux",
		"Terraform", "React", "Machine Learning",
	},
	"finance": {
		"Financial Analysis", "Risk Management", "Excel", "Forecasting", "Budgeting",
		"Compliance", "Accounting", "Audit", "Valuation", "GAAP", "Financial Modeling",
		"SQL", "Bloomberg", "Reporting",
	},
	"healthcare": {
		"Patient Care", "HIPAA", "EHR", "Clinical", "Compliance", "Epic",
		"Medical Terminology", "Quality Improvement", "Care Coordination",
		"Healthcare Administration",
	},
	"marketing": {
		"SEO", "SEM", "Content Marketing", "Google Analytics", "Social Media",
		"Campaign Management", "Brand Strategy", "CRM", "Email Marketing",
		"Marketing Automation", "A/B Testing", "Copywriting",
	},
	"sales": {
		"Business Development", "Lead Generation", "CRM", "Salesforce", "Negotiation",
		"Account Management", "Pipeline Management", "Quota", "B2B", "Cold Calling",
		"Closing", "Forecasting",
	},
	DefaultIndustry: {
		"Communication", "Leadership", "Project Management", "Problem Solving",
		"Teamwork", "Time Management", "Analytical Skills", "Microsoft Office",
		"Collaboration", "Customer Service",
	},
}

var optimalDensity = map[string]float64{
	"technology": 0.03,
	"finance":    0.025,
	"healthcare": 0.025,
	"marketing":  0.035,
	"sales":      0.035,
}

var industryAliases = map[string]string{
	"tech":        "technology",
	"software":    "technology",
	"it":          "technology",
	"engineering": "technology",
	"banking":     "finance",
	"fintech":     "finance",
	"accounting":  "finance",
	"medical":     "healthcare",
	"health":      "healthcare",
	"pharma":      "healthcare",
	"advertising": "marketing",
}

var actionVerbs = map[string]struct{}{}

func init() {
	for _, verb := range []string{
		"achieved", "architected", "automated", "built", "coordinated", "created",
		"delivered", "designed", "developed", "drove", "established", "implemented",
		"improved", "increased", "launched", "led", "managed", "mentored",
		"negotiated", "optimized", "reduced", "spearheaded", "streamlined",
	} {
		actionVerbs[verb] = struct{}{}
	}
}

// NormalizeIndustry maps free-form industry names onto a known table key.
func NormalizeIndustry(industry string) string {
	key := strings.ToLower(strings.TrimSpace(industry))
	if alias, ok := industryAliases[key]; ok {
		key = alias
	}
	if _, ok := industryKeywords[key]; ok {
		return key
	}
	return DefaultIndustry
}

// IndustryKeywords returns the canonical keyword list for an industry.
func IndustryKeywords(industry string) []string {
	return append([]string(nil), industryKeywords[NormalizeIndustry(industry)]...)
}

// OptimalDensity returns the target keyword density for an industry.
func OptimalDensity(industry string) float64 {
	if d, ok := optimalDensity[NormalizeIndustry(industry)]; ok {
		return d
	}
	return DefaultOptimalDensity
}

// IsActionVerb reports whether word is a recognized résumé action verb.
func IsActionVerb(word string) bool {
	_, ok := actionVerbs[strings.ToLower(strings.TrimSpace(word))]
	return ok
}

// ActionVerbs lists the recognized action verbs.
func ActionVerbs() []string {
	out := make([]string, 0, len(actionVerbs))
	for verb := range actionVerbs {
		out = append(out, verb)
	}
	sort.Strings(out)
	return out
}

func isIndustryKeyword(industry, keyword string) bool {
	for _, kw := range industryKeywords[NormalizeIndustry(industry)] {
		if strings.EqualFold(kw, keyword) {
			return true
		}
	}
	return false
}
