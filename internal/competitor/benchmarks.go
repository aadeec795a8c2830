package competitor

import "github.com/spigell/ats-scorer/internal/keywords"

// Benchmark describes a typical competitive CV in one industry.
type Benchmark struct {
	Industry       string
	AverageScore   int
	CohortSize     int
	SimilarRoles   []string
	CommonKeywords []string

	AvgExperience     float64
	AvgSkills         float64
	AvgCertifications float64
	AvgQuantified     float64
}

// Averages are tunable; they approximate shortlisted applicants, not all applicants.
// CohortSize is how many comparable profiles the averages stand for.
var benchmarks = map[string]Benchmark{
	"technology": {
		Industry:          "technology",
		AverageScore:      72,
		CohortSize:        1200,
		SimilarRoles:      []string{"Software Engineer", "Backend Developer", "DevOps Engineer", "Data Engineer"},
		CommonKeywords:    []string{"Python", "Java", "Cloud", "AWS", "Docker", "Kubernetes", "CI/CD", "SQL", "Microservices", "Agile", "Git", "REST"},
		AvgExperience:     3,
		AvgSkills:         14,
		AvgCertifications: 1,
		AvgQuantified:     4,
	},
	"finance": {
		Industry:          "finance",
		AverageScore:      70,
		CohortSize:        850,
		SimilarRoles:      []string{"Financial Analyst", "Investment Associate", "Risk Analyst", "Controller"},
		CommonKeywords:    []string{"Financial Modeling", "Excel", "Forecasting", "Budgeting", "Risk Management", "Compliance", "Valuation", "Reporting", "GAAP", "SQL"},
		AvgExperience:     3,
		AvgSkills:         12,
		AvgCertifications: 1.5,
		AvgQuantified:     5,
	},
	"healthcare": {
		Industry:          "healthcare",
		AverageScore:      68,
		CohortSize:        900,
		SimilarRoles:      []string{"Registered Nurse", "Clinical Coordinator", "Healthcare Administrator", "Medical Assistant"},
		CommonKeywords:    []string{"Patient Care", "EHR", "HIPAA", "Clinical", "Compliance", "Care Coordination", "Triage", "Medication Administration", "Quality Improvement", "CPR"},
		AvgExperience:     3,
		AvgSkills:         10,
		AvgCertifications: 2,
		AvgQuantified:     3,
	},
	"marketing": {
		Industry:          "marketing",
		AverageScore:      69,
		CohortSize:        750,
		SimilarRoles:      []string{"Digital Marketing Manager", "Content Strategist", "Growth Marketer", "Brand Manager"},
		CommonKeywords:    []string{"SEO", "Content Strategy", "Google Analytics", "Campaign Management", "Social Media", "Brand", "CRM", "A/B Testing", "Email Marketing", "ROI"},
		AvgExperience:     3,
		AvgSkills:         12,
		AvgCertifications: 1,
		AvgQuantified:     5,
	},
	"sales": {
		Industry:          "sales",
		AverageScore:      67,
		CohortSize:        1000,
		SimilarRoles:      []string{"Account Executive", "Sales Manager", "Business Development Representative", "Account Manager"},
		CommonKeywords:    []string{"Quota", "Pipeline", "CRM", "Salesforce", "Negotiation", "Lead Generation", "Closing", "Account Management", "Forecasting", "Prospecting"},
		AvgExperience:     3,
		AvgSkills:         10,
		AvgCertifications: 0.5,
		AvgQuantified:     6,
	},
	keywords.DefaultIndustry: {
		Industry:          keywords.DefaultIndustry,
		AverageScore:      65,
		CohortSize:        500,
		SimilarRoles:      []string{"Professional", "Specialist", "Coordinator", "Manager"},
		CommonKeywords:    []string{"Communication", "Leadership", "Project Management", "Problem Solving", "Teamwork", "Microsoft Office", "Analysis", "Organization"},
		AvgExperience:     3,
		AvgSkills:         10,
		AvgCertifications: 0.5,
		AvgQuantified:     3,
	},
}

// BenchmarkFor returns the benchmark of an industry, falling back to the
// default table entry for unknown industries.
func BenchmarkFor(industry string) Benchmark {
	if b, ok := benchmarks[keywords.NormalizeIndustry(industry)]; ok {
		return b
	}
	return benchmarks[keywords.DefaultIndustry]
}
