package verify

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spigell/ats-scorer/internal/ai"
	"github.com/spigell/ats-scorer/internal/recommend"
)

const neutralConfidence = 5

// interpretAssessment reads a reviewer answer, either the requested JSON
// object or prose with "Confidence" and "Suggested score" lines. A missing
// score makes the answer unusable; a missing confidence is read as neutral.
// Only an explicit negative fairness answer marks the assessment disputed.
func interpretAssessment(raw string) (Assessment, error) {
	score, confidence := math.NaN(), math.NaN()
	var (
		critique []string
		unfair   bool
	)

	if obj, ok := ai.ParseObject(raw); ok {
		if v, ok := ai.Lookup(obj, "suggestedScore", "adjustedScore", "score", "overall"); ok {
			score = ai.CoerceFloat(v)
		}
		if v, ok := ai.Lookup(obj, "confidence"); ok {
			confidence = ai.CoerceFloat(v)
		}
		if v, ok := ai.Lookup(obj, "critique", "issues", "comments"); ok {
			critique = ai.CoerceStrings(v)
		}
		if v, ok := ai.Lookup(obj, "scoreIsFair", "fair", "agree"); ok {
			unfair = !ai.CoerceBool(v)
		}
	} else {
		if v, ok := ai.LabeledNumber(raw, 0, 100, "suggested score", "adjusted score", "overall score", "score"); ok {
			score = v
		}
		if v, ok := ai.LabeledNumber(raw, 0, 100, "confidence"); ok {
			confidence = v
		}
		critique = ai.SectionItems(raw, "critique")
		if len(critique) == 0 {
			critique = ai.BulletLines(raw)
		}
	}

	if math.IsNaN(score) || score < 0 || score > 100 {
		return Assessment{}, fmt.Errorf("suggested score: %w", ai.ErrUnparseable)
	}

	return Assessment{
		Confidence:     normalizeConfidence(confidence),
		SuggestedScore: int(math.Round(score)),
		Critique:       critique,
		Disputed:       unfair,
	}, nil
}

// normalizeConfidence maps percentages onto the 1-10 scale.
func normalizeConfidence(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return neutralConfidence
	case v > 10:
		v /= 10
	}
	return math.Max(1, math.Min(10, v))
}

func buildPrompt(req Request) string {
	b := req.Score.Breakdown
	breakdown := strings.Join([]string{
		"- parsing: " + strconv.Itoa(b.Parsing),
		"- keywords: " + strconv.Itoa(b.Keywords),
		"- formatting: " + strconv.Itoa(b.Formatting),
		"- content: " + strconv.Itoa(b.Content),
	}, "\n")

	recs := req.Recommendations
	if len(recs) > maxPromptRecommendations {
		recs = recs[:maxPromptRecommendations]
	}
	lines := make([]string, 0, len(recs))
	for i, r := range recs {
		lines = append(lines, formatRecommendation(i+1, r))
	}
	if len(lines) == 0 {
		lines = append(lines, "none")
	}

	role := strings.TrimSpace(req.TargetRole)
	if role == "" {
		role = "not specified"
	}
	industry := strings.TrimSpace(req.Industry)
	if industry == "" {
		industry = "not specified"
	}

	return strings.NewReplacer(
		"{{INDUSTRY}}", industry,
		"{{ROLE}}", role,
		"{{OVERALL}}", strconv.Itoa(req.Score.Overall),
		"{{BREAKDOWN}}", breakdown,
		"{{RECOMMENDATIONS}}", strings.Join(lines, "\n"),
	).Replace(promptTemplate)
}

func formatRecommendation(n int, r recommend.Recommendation) string {
	return fmt.Sprintf("%d. [%s] %s (impact %d)", n, r.Priority, r.Title, r.Impact)
}
