package simulation

import (
	"fmt"
	"math"
	"strings"

	"github.com/spigell/ats-scorer/internal/cv"
	"github.com/spigell/ats-scorer/internal/utils"
	"go.uber.org/zap"
)

// Input is what every profile evaluates.
type Input struct {
	CV *cv.ParsedCV
	// Density is the target keyword density from keyword analysis.
	Density float64
}

// Result is one ATS's view of the CV.
type Result struct {
	SystemName  string    `json:"systemName"`
	PassRate    int       `json:"passRate"`
	Issues      []string  `json:"issues"`
	Suggestions []string  `json:"suggestions"`
	Confidence  int       `json:"confidence"`
	Scores      SubScores `json:"scores"`
}

type SubScores struct {
	Parsing int `json:"parsing"`
	Keyword int `json:"keyword"`
	Format  int `json:"format"`
	Content int `json:"content"`
}

// Simulator evaluates a fixed list of profiles.
type Simulator struct {
	profiles []Profile
	logger   *zap.Logger
	evaluate func(Profile, Input) (Result, error)
}

// New creates a Simulator over the given profiles.
func New(profiles []Profile, logger *zap.Logger) *Simulator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Simulator{profiles: profiles, logger: logger, evaluate: evaluateProfile}
}

// NewDefault creates a Simulator over the built-in profiles.
func NewDefault(logger *zap.Logger) (*Simulator, error) {
	profiles, err := DefaultProfiles()
	if err != nil {
		return nil, err
	}
	return New(profiles, logger), nil
}

// Profiles returns the names of the configured systems.
func (s *Simulator) Profiles() []string {
	names := make([]string, 0, len(s.profiles))
	for _, p := range s.profiles {
		names = append(names, p.Name)
	}
	return names
}

// Simulate returns exactly one result per profile, in profile order. A
// profile that fails or panics yields a zero pass rate with the reason as
// its only issue.
func (s *Simulator) Simulate(in Input) []Result {
	results := make([]Result, 0, len(s.profiles))
	for _, p := range s.profiles {
		results = append(results, s.simulateOne(p, in))
	}
	return results
}

func (s *Simulator) simulateOne(p Profile, in Input) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("ats simulation panicked", zap.String("system", p.Name), zap.Any("panic", r))
			result = unavailable(p.Name, fmt.Errorf("panic: %v", r))
		}
	}()

	result, err := s.evaluate(p, in)
	if err != nil {
		s.logger.Warn("ats simulation failed", zap.String("system", p.Name), zap.Error(err))
		return unavailable(p.Name, err)
	}
	return result
}

func unavailable(name string, err error) Result {
	if strings.TrimSpace(name) == "" {
		name = "unknown"
	}
	return Result{
		SystemName:  name,
		Issues:      []string{"Simulation unavailable: " + err.Error()},
		Suggestions: []string{},
	}
}

func evaluateProfile(p Profile, in Input) (Result, error) {
	if err := p.Validate(); err != nil {
		return Result{}, err
	}
	if in.CV == nil {
		return Result{}, fmt.Errorf("cv is required")
	}

	text := cv.Text(in.CV)
	e := evaluation{profile: p, cv: in.CV, text: text}

	scores := SubScores{
		Parsing: utils.Percent(e.parsing()),
		Keyword: utils.Percent(e.keywords(in.Density)),
		Format:  utils.Percent(e.format()),
		Content: utils.Percent(e.content()),
	}

	w := p.Weights
	passRate := (w.Parsing*float64(scores.Parsing) +
		w.Keyword*float64(scores.Keyword) +
		w.Format*float64(scores.Format) +
		w.Content*float64(scores.Content)) / w.sum()

	return Result{
		SystemName:  p.Name,
		PassRate:    utils.Percent(passRate),
		Issues:      utils.Unique(e.issues),
		Suggestions: utils.Unique(append(e.fixes, p.Tips...)),
		Confidence:  utils.Percent(40 + 0.6*float64(scores.Parsing)),
		Scores:      scores,
	}, nil
}

type evaluation struct {
	profile Profile
	cv      *cv.ParsedCV
	text    string
	issues  []string
	fixes   []string
}

func (e *evaluation) fieldPresent(field string) bool {
	c := e.cv
	switch field {
	case "name":
		return strings.TrimSpace(c.PersonalInfo.Name) != ""
	case "email":
		return strings.TrimSpace(c.PersonalInfo.Email) != ""
	case "phone":
		return strings.TrimSpace(c.PersonalInfo.Phone) != ""
	case "summary":
		return strings.TrimSpace(c.Summary) != ""
	case "experience":
		return len(c.Experience) > 0
	case "education":
		return len(c.Education) > 0
	case "skills":
		return len(c.Skills.Normalize().All) > 0
	}
	return false
}

var parsedFields = []string{"name", "email", "phone", "summary", "experience", "education", "skills"}

// parsing is weighted field completeness; priority fields weigh double.
func (e *evaluation) parsing() float64 {
	var got, total float64
	for _, field := range parsedFields {
		weight := 1.0
		if e.profile.isPriority(field) {
			weight = 2
		}
		total += weight
		if e.fieldPresent(field) {
			got += weight
			continue
		}
		if e.profile.isPriority(field) {
			e.issues = append(e.issues, fmt.Sprintf("Missing %s, which %s treats as a priority field", field, e.profile.Name))
			e.fixes = append(e.fixes, fmt.Sprintf("Add a clearly labelled %s section", field))
		}
	}
	return 100 * got / total
}

func (e *evaluation) keywords(density float64) float64 {
	overlap := 1.0
	if n := len(e.profile.PreferredKeywords); n > 0 {
		matched := 0
		for _, kw := range e.profile.PreferredKeywords {
			if utils.ContainsTerm(e.text, kw) {
				matched++
			}
		}
		// Matching half of the list already counts as full coverage.
		overlap = math.Min(1, float64(matched)/(0.5*float64(n)))
	}

	r := e.profile.KeywordDensity
	fit := 1.0
	switch {
	case r.Min > 0 && density < r.Min:
		fit = density / r.Min
		e.issues = append(e.issues, fmt.Sprintf("Keyword density %.1f%% is below the %s target of %.1f%%", density*100, e.profile.Name, r.Min*100))
		e.fixes = append(e.fixes, "Work more of the posting's keywords into experience bullet points")
	case r.Max > 0 && density > r.Max:
		fit = math.Max(0, 1-(density-r.Max)/r.Max)
		e.issues = append(e.issues, fmt.Sprintf("Keyword density %.1f%% exceeds the %s limit of %.1f%% and may read as keyword stuffing", density*100, e.profile.Name, r.Max*100))
		e.fixes = append(e.fixes, "Replace repeated keywords with concrete accomplishments")
	}

	return 70*overlap + 30*fit
}

func (e *evaluation) format() float64 {
	score := 60 * cv.StandardSectionRatio(e.cv)

	if len(e.profile.Checks) == 0 {
		return score + 40
	}

	passed := 0
	for _, name := range e.profile.Checks {
		check := checks[name]
		if check.pass(e.cv, e.text) {
			passed++
			continue
		}
		issue := check.issue
		if specific, ok := e.profile.Issues[name]; ok {
			issue = specific
		}
		e.issues = append(e.issues, issue)
		e.fixes = append(e.fixes, check.fix)
	}
	return score + 40*float64(passed)/float64(len(e.profile.Checks))
}

// content rewards measurable results and descriptive positions.
func (e *evaluation) content() float64 {
	if len(e.cv.Experience) == 0 {
		return 0
	}
	quantified := 0
	depth := 0.0
	for _, exp := range e.cv.Experience {
		if exp.HasQuantifiedResult() {
			quantified++
		}
		depth += math.Min(1, float64(len([]rune(exp.Description)))/200)
	}
	n := float64(len(e.cv.Experience))
	return 100 * (0.5*float64(quantified)/n + 0.5*depth/n)
}
