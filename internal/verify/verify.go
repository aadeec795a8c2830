// Package verify cross-checks a score report with two independent text
// generation services and derives a consensus adjustment.
package verify

import (
	"context"
	_ "embed"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/hbollon/go-edlib"
	"github.com/spigell/ats-scorer/internal/ai"
	"github.com/spigell/ats-scorer/internal/recommend"
	"github.com/spigell/ats-scorer/internal/scoring"
	"github.com/spigell/ats-scorer/internal/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

//go:embed prompt.md
var promptTemplate string

// Tunable thresholds.
const (
	agreementThreshold  = 0.7
	confidenceThreshold = 6
	maxAdjustment       = 15
	scoreGapThreshold   = 10
	critiqueMatch       = 0.5
	neutralCritique     = 0.5

	maxPromptRecommendations = 5
	maxRecommendationChanges = 5
	fallbackConfidence       = 75
)

// Unavailable stands in for the assessment of a service that did not answer.
const Unavailable = "unavailable"

// Result is the outcome of the cross-check.
type Result struct {
	Verified      bool       `json:"verified"`
	Confidence    int        `json:"confidence"`
	Discrepancies []string   `json:"discrepancies"`
	Consensus     Consensus  `json:"consensus"`
	LLMComparison Comparison `json:"llmComparison"`
}

type Consensus struct {
	ScoreAdjustment       int      `json:"scoreAdjustment"`
	RecommendationChanges []string `json:"recommendationChanges"`
}

type Comparison struct {
	AssessmentA    string `json:"assessmentA"`
	AssessmentB    string `json:"assessmentB"`
	AgreementLevel int    `json:"agreementLevel"`
}

// Request is the report to verify.
type Request struct {
	Score           scoring.AdvancedATSScore
	Recommendations []recommend.Recommendation
	Industry        string
	TargetRole      string
}

// Assessment is one service's view of the report.
type Assessment struct {
	Generator string
	// Confidence is on a 1-10 scale.
	Confidence     float64
	SuggestedScore int
	Critique       []string
	// Disputed is set when the service explicitly called the score unfair.
	Disputed bool
}

func (a Assessment) summary() string {
	text := fmt.Sprintf("%s: suggested score %d, confidence %s/10", a.Generator, a.SuggestedScore, formatFloat(a.Confidence))
	if len(a.Critique) > 0 {
		text += ". " + a.Critique[0]
	}
	return text
}

// Verifier asks two services for an assessment in parallel.
type Verifier struct {
	primary   ai.Generator
	secondary ai.Generator
	timeout   time.Duration
	logger    *zap.Logger
}

// New creates a Verifier. Either generator may be nil; it is then reported
// as unavailable.
func New(primary, secondary ai.Generator, timeout time.Duration, logger *zap.Logger) *Verifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Verifier{primary: primary, secondary: secondary, timeout: timeout, logger: logger}
}

// Verify returns the consensus of both services. With one service down the
// other is compared against the engine's own score; with both down the
// neutral fallback is returned. An error is returned only when ctx is done.
func (v *Verifier) Verify(ctx context.Context, req Request) (Result, error) {
	prompt := buildPrompt(req)

	var (
		a, b       Assessment
		errA, errB error
	)
	var g errgroup.Group
	g.Go(func() error {
		a, errA = v.assess(ctx, v.primary, prompt)
		return nil
	})
	g.Go(func() error {
		b, errB = v.assess(ctx, v.secondary, prompt)
		return nil
	})
	_ = g.Wait()

	overall := req.Score.Overall
	switch {
	case errA == nil && errB == nil:
		return Compare(a, b, overall), nil
	case errA == nil:
		v.logger.Warn("verification continues with one service", zap.Error(errB))
		return Single(a, overall, errB), nil
	case errB == nil:
		v.logger.Warn("verification continues with one service", zap.Error(errA))
		return Single(b, overall, errA), nil
	}

	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("verify: %w", err)
	}
	v.logger.Warn("verification services unavailable",
		zap.NamedError("primary", errA),
		zap.NamedError("secondary", errB),
	)
	return Fallback(), nil
}

func (v *Verifier) assess(ctx context.Context, g ai.Generator, prompt string) (Assessment, error) {
	raw, err := ai.Call(ctx, g, v.timeout, ai.Request{
		Prompt:      prompt,
		MaxTokens:   1024,
		Temperature: 0.2,
	})
	if err != nil {
		return Assessment{}, err
	}
	assessment, err := interpretAssessment(raw)
	if err != nil {
		return Assessment{}, fmt.Errorf("%s: %w", g.Name(), err)
	}
	assessment.Generator = g.Name()
	return assessment, nil
}

// Compare derives the consensus of two assessments of a report scored overall.
func Compare(a, b Assessment, overall int) Result {
	agreement := (scoreAgreement(a.SuggestedScore, b.SuggestedScore) + critiqueAgreement(a.Critique, b.Critique)) / 2

	var discrepancies []string
	if gap := abs(a.SuggestedScore - b.SuggestedScore); gap > scoreGapThreshold {
		discrepancies = append(discrepancies, fmt.Sprintf("Suggested scores differ by %d points (%d vs %d)", gap, a.SuggestedScore, b.SuggestedScore))
	}
	discrepancies = append(discrepancies, lowConfidence(a)...)
	discrepancies = append(discrepancies, lowConfidence(b)...)
	discrepancies = append(discrepancies, disputed(a)...)
	discrepancies = append(discrepancies, disputed(b)...)

	mean := float64(a.SuggestedScore+b.SuggestedScore) / 2
	adjustment, note := boundedAdjustment(mean, overall)
	if note != "" {
		discrepancies = append(discrepancies, note)
	}

	return Result{
		Verified:      agreement > agreementThreshold && trusted(a) && trusted(b),
		Confidence:    utils.Percent(50*agreement + 2.5*a.Confidence + 2.5*b.Confidence),
		Discrepancies: nonNil(discrepancies),
		Consensus: Consensus{
			ScoreAdjustment:       adjustment,
			RecommendationChanges: sharedCritique(a.Critique, b.Critique),
		},
		LLMComparison: Comparison{
			AssessmentA:    a.summary(),
			AssessmentB:    b.summary(),
			AgreementLevel: utils.Percent(100 * agreement),
		},
	}
}

// Single compares the only available assessment with the engine's score.
func Single(a Assessment, overall int, missing error) Result {
	agreement := scoreAgreement(a.SuggestedScore, overall)

	discrepancies := []string{fmt.Sprintf("Second verification service unavailable: %v", missing)}
	discrepancies = append(discrepancies, lowConfidence(a)...)
	discrepancies = append(discrepancies, disputed(a)...)
	adjustment, note := boundedAdjustment(float64(a.SuggestedScore), overall)
	if note != "" {
		discrepancies = append(discrepancies, note)
	}

	return Result{
		Verified:      agreement > agreementThreshold && trusted(a),
		Confidence:    utils.Percent(50*agreement + 5*a.Confidence),
		Discrepancies: discrepancies,
		Consensus: Consensus{
			ScoreAdjustment:       adjustment,
			RecommendationChanges: []string{},
		},
		LLMComparison: Comparison{
			AssessmentA:    a.summary(),
			AssessmentB:    Unavailable,
			AgreementLevel: utils.Percent(100 * agreement),
		},
	}
}

// Fallback is the neutral result used when no verification service answered.
func Fallback() Result {
	return Result{
		Verified:      true,
		Confidence:    fallbackConfidence,
		Discrepancies: []string{},
		Consensus:     Consensus{RecommendationChanges: []string{}},
		LLMComparison: Comparison{AssessmentA: Unavailable, AssessmentB: Unavailable},
	}
}

func scoreAgreement(a, b int) float64 {
	return utils.Clamp(1-math.Abs(float64(a-b))/100, 0, 1)
}

// critiqueAgreement is the word-level Jaccard similarity of both critiques.
// Two empty critiques say nothing either way and count as neutral.
func critiqueAgreement(a, b []string) float64 {
	ta, tb := normalizeText(strings.Join(a, " ")), normalizeText(strings.Join(b, " "))
	switch {
	case ta == "" && tb == "":
		return neutralCritique
	case ta == "" || tb == "":
		return 0
	}
	return float64(edlib.JaccardSimilarity(ta, tb, 0))
}

// sharedCritique returns remarks of the first assessment that the second one
// also makes.
func sharedCritique(a, b []string) []string {
	out := []string{}
	for _, line := range a {
		na := normalizeText(line)
		if na == "" {
			continue
		}
		for _, other := range b {
			nb := normalizeText(other)
			if nb != "" && float64(edlib.JaccardSimilarity(na, nb, 0)) >= critiqueMatch {
				out = append(out, line)
				break
			}
		}
		if len(out) == maxRecommendationChanges {
			break
		}
	}
	return out
}

func boundedAdjustment(suggested float64, overall int) (int, string) {
	adjustment := int(math.Round(suggested - float64(overall)))
	if abs(adjustment) > maxAdjustment {
		return 0, fmt.Sprintf("Suggested adjustment of %+d points exceeds the %d point limit and was ignored", adjustment, maxAdjustment)
	}
	return adjustment, ""
}

func trusted(a Assessment) bool {
	return a.Confidence > confidenceThreshold && !a.Disputed
}

func disputed(a Assessment) []string {
	if !a.Disputed {
		return nil
	}
	return []string{fmt.Sprintf("%s considers the overall score unfair", a.Generator)}
}

func lowConfidence(a Assessment) []string {
	if a.Confidence > confidenceThreshold {
		return nil
	}
	return []string{fmt.Sprintf("%s reported low confidence (%s/10)", a.Generator, formatFloat(a.Confidence))}
}

func normalizeText(s string) string {
	s = strings.ToLower(s)
	s = strings.Map(func(r rune) rune {
		if strings.ContainsRune(".,;:!?()[]{}\"'`*", r) {
			return ' '
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func formatFloat(v float64) string {
	return strings.TrimSuffix(strings.TrimSuffix(fmt.Sprintf("%.1f", v), "0"), ".")
}
