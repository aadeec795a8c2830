package keywords

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"math"
	"sort"
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
	maxRecommended   = 10
	maxDerivedTerms  = 10
	maxPromptCVChars = 4000
	maxPromptJDChars = 2000
)

// Analysis is the keyword view of a CV. Both the generative and the local
// path produce it. Targets is the deduplicated match set; Found and Missing
// partition the requested keywords one entry per request entry, so repeated
// or blank keywords are counted as given.
type Analysis struct {
	Targets        []string      `json:"targets"`
	Matches        []Match       `json:"matches"`
	Found          []string      `json:"found"`
	Missing        []string      `json:"missing"`
	Recommended    []string      `json:"recommended"`
	Density        float64       `json:"density"`
	OptimalDensity float64       `json:"optimalDensity"`
	TotalWords     int           `json:"totalWords"`
	Provenance     ai.Provenance `json:"provenance"`
}

// Request carries the inputs of one keyword analysis.
type Request struct {
	CV             *cv.ParsedCV
	TargetKeywords []string
	TargetRole     string
	JobDescription string
	Industry       string
}

// Analyzer runs keyword analysis with an optional text generation service.
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

// Analyze returns the keyword analysis. Generation failures are logged and
// answered with the local analysis.
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
		Prompt:      buildPrompt(req, local.Targets),
		MaxTokens:   1024,
		Temperature: 0.2,
	})
	if err == nil {
		var enrichment generated
		enrichment, err = interpretKeywords(raw)
		if err == nil {
			return merge(local, enrichment, a.generator), nil
		}
	}

	a.logger.Warn("keyword enrichment unavailable, using local analysis", zap.Error(err))
	local.Provenance = ai.Local(err.Error())
	return local, nil
}

// LocalAnalysis computes the analysis from the CV text alone. It is
// deterministic for a given request.
func LocalAnalysis(req Request) Analysis {
	industry := NormalizeIndustry(req.Industry)
	src := SourceFromCV(req.CV, industry)
	targets := ResolveTargets(req)
	matches := Extract(src, targets)

	analysis := Analysis{
		Targets:        targets,
		Matches:        matches,
		OptimalDensity: OptimalDensity(industry),
		TotalWords:     cv.WordCount(req.CV),
		Provenance:     ai.Local(""),
	}

	found := make(map[string]struct{}, len(matches))
	frequency := 0
	for _, m := range matches {
		found[strings.ToLower(m.Keyword)] = struct{}{}
		frequency += m.Frequency
	}

	requested := requestedTargets(req, targets)
	analysis.Found = make([]string, 0, len(requested))
	analysis.Missing = make([]string, 0, len(requested))
	for _, target := range requested {
		if _, ok := found[strings.ToLower(target)]; ok {
			analysis.Found = append(analysis.Found, target)
		} else {
			analysis.Missing = append(analysis.Missing, target)
		}
	}

	if analysis.TotalWords > 0 {
		analysis.Density = float64(frequency) / float64(analysis.TotalWords)
	}

	var recommended []string
	for _, kw := range IndustryKeywords(industry) {
		if !containsFold(targets, kw) && !utils.ContainsTerm(src.Text, kw) {
			recommended = append(recommended, kw)
		}
	}
	analysis.Recommended = capList(recommended, maxRecommended)

	return analysis
}

// Coverage is the share of requested keywords found in the CV.
func (a Analysis) Coverage() float64 {
	total := len(a.Found) + len(a.Missing)
	if total == 0 {
		return 0
	}
	return float64(len(a.Found)) / float64(total)
}

// requestedTargets is the caller's keyword list, trimmed but otherwise as
// given, or the resolved targets when the caller gave none.
func requestedTargets(req Request, resolved []string) []string {
	if len(utils.Unique(req.TargetKeywords)) == 0 {
		return resolved
	}
	requested := make([]string, 0, len(req.TargetKeywords))
	for _, kw := range req.TargetKeywords {
		requested = append(requested, strings.TrimSpace(kw))
	}
	return requested
}

// ResolveTargets returns the explicit target keywords, or derives them from
// the job description and the industry list when none were given.
func ResolveTargets(req Request) []string {
	if targets := utils.Unique(req.TargetKeywords); len(targets) > 0 {
		return targets
	}
	derived := append(JobDescriptionTerms(req.JobDescription, maxDerivedTerms), IndustryKeywords(req.Industry)...)
	return utils.Unique(derived)
}

// JobDescriptionTerms returns up to limit terms that a job description repeats,
// most frequent first.
func JobDescriptionTerms(jd string, limit int) []string {
	counts := map[string]int{}
	first := map[string]int{}
	for i, token := range utils.Tokens(jd) {
		if len(token) < 3 || isStopword(token) {
			continue
		}
		if _, ok := first[token]; !ok {
			first[token] = i
		}
		counts[token]++
	}

	terms := make([]string, 0, len(counts))
	for token, n := range counts {
		if n >= 2 {
			terms = append(terms, token)
		}
	}
	sort.Slice(terms, func(i, j int) bool {
		if counts[terms[i]] != counts[terms[j]] {
			return counts[terms[i]] > counts[terms[j]]
		}
		return first[terms[i]] < first[terms[j]]
	})

	return capList(terms, limit)
}

type generated struct {
	importance  map[string]float64
	missing     []string
	recommended []string
}

// interpretKeywords reads the enrichment answer, either the requested JSON
// object or FOUND/MISSING/RECOMMENDED sections in prose.
func interpretKeywords(raw string) (generated, error) {
	out := generated{importance: map[string]float64{}}

	if obj, ok := ai.ParseObject(raw); ok {
		if found, ok := ai.Lookup(obj, "found", "matches"); ok {
			if items, ok := found.([]any); ok {
				for _, item := range items {
					entry, ok := item.(map[string]any)
					if !ok {
						continue
					}
					keyword := ai.CoerceString(entry["keyword"])
					value, _ := ai.Lookup(entry, "importance", "relevance")
					if keyword != "" {
						out.importance[strings.ToLower(keyword)] = ai.CoerceFloat(value)
					}
				}
			}
		}
		if v, ok := ai.Lookup(obj, "missing"); ok {
			out.missing = ai.CoerceStrings(v)
		}
		if v, ok := ai.Lookup(obj, "recommended", "suggested"); ok {
			out.recommended = ai.CoerceStrings(v)
		}
	} else {
		for _, item := range ai.SectionItems(raw, "found") {
			keyword, value := splitImportance(item)
			out.importance[strings.ToLower(keyword)] = value
		}
		out.missing = ai.SectionItems(raw, "missing")
		out.recommended = ai.SectionItems(raw, "recommend")
	}

	if len(out.importance) == 0 && len(out.missing) == 0 && len(out.recommended) == 0 {
		return generated{}, fmt.Errorf("keyword enrichment: %w", ai.ErrUnparseable)
	}
	return out, nil
}

// splitImportance parses "Python (0.9)" or "Python | 0.9" style items.
func splitImportance(item string) (string, float64) {
	cut := strings.IndexAny(item, "(|:-")
	if cut <= 0 {
		return strings.TrimSpace(item), math.NaN()
	}
	value, ok := ai.FirstNumberInRange(item[cut:], 0, 100)
	if !ok {
		value = math.NaN()
	}
	return strings.TrimSpace(item[:cut]), value
}

func merge(local Analysis, g generated, generator ai.Generator) Analysis {
	merged := local
	merged.Matches = make([]Match, len(local.Matches))
	for i, m := range local.Matches {
		if v, ok := g.importance[strings.ToLower(m.Keyword)]; ok && !math.IsNaN(v) {
			m.Importance = normalizeImportance(v)
		}
		merged.Matches[i] = m
	}

	var recommended []string
	recommended = append(recommended, g.recommended...)
	for _, kw := range g.missing {
		if !containsFold(local.Targets, kw) {
			recommended = append(recommended, kw)
		}
	}
	recommended = append(recommended, local.Recommended...)

	filtered := recommended[:0]
	for _, kw := range utils.Unique(recommended) {
		if !containsFold(local.Targets, kw) {
			filtered = append(filtered, kw)
		}
	}
	merged.Recommended = capList(filtered, maxRecommended)
	merged.Provenance = ai.Generative(generator)
	return merged
}

func normalizeImportance(v float64) float64 {
	switch {
	case v > 10:
		v /= 100
	case v > 1:
		v /= 10
	}
	return utils.Clamp(v, 0, 1)
}

func buildPrompt(req Request, targets []string) string {
	role := strings.TrimSpace(req.TargetRole)
	if role == "" {
		role = "not specified"
	}
	jd := strings.TrimSpace(req.JobDescription)
	if jd == "" {
		jd = "not provided"
	}

	replacer := strings.NewReplacer(
		"{{INDUSTRY}}", NormalizeIndustry(req.Industry),
		"{{ROLE}}", role,
		"{{TARGETS}}", strings.Join(targets, ", "),
		"{{JOB_DESCRIPTION}}", truncate(jd, maxPromptJDChars),
		"{{CV}}", truncate(cv.Text(req.CV), maxPromptCVChars),
	)
	return replacer.Replace(promptTemplate)
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

func containsFold(list []string, value string) bool {
	for _, item := range list {
		if strings.EqualFold(strings.TrimSpace(item), strings.TrimSpace(value)) {
			return true
		}
	}
	return false
}

func capList(list []string, limit int) []string {
	if len(list) > limit {
		return list[:limit]
	}
	if list == nil {
		return []string{}
	}
	return list
}

var stopwords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`the and for with you our are will your that this from have has who
		all can about into their they them but not was were been being its per any able etc
		work working team teams role job position candidate candidates experience years year
		skills skill strong ability knowledge required requirements preferred plus must should
		well using use including include within across other such also more new help join`) {
		stopwords[w] = struct{}{}
	}
}

func isStopword(token string) bool {
	_, ok := stopwords[token]
	return ok
}
