// Package keywords finds target keywords in CV text and analyzes coverage,
// density and gaps, optionally enriched by a text generation service.
package keywords

import (
	"strings"

	"github.com/spigell/ats-scorer/internal/cv"
	"github.com/spigell/ats-scorer/internal/utils"
)

const (
	maxVariations   = 10
	maxContexts     = 3
	maxContextChars = 100
)

// importantSections raise keyword importance when they mention it.
var importantSections = []string{cv.SectionSummary, cv.SectionExperience, cv.SectionSkills, cv.SectionAchievements}

// Match is one target keyword found in the CV.
type Match struct {
	Keyword    string   `json:"keyword"`
	Variations []string `json:"variations,omitempty"`
	Frequency  int      `json:"frequency"`
	Importance float64  `json:"importance"`
	Context    []string `json:"context,omitempty"`
}

// Source is the text a keyword search runs against.
type Source struct {
	Text     string
	Sections map[string]string
	Industry string
}

// SourceFromCV flattens a CV into a Source.
func SourceFromCV(c *cv.ParsedCV, industry string) Source {
	return Source{Text: cv.Text(c), Sections: cv.Sections(c), Industry: industry}
}

// Extract returns a Match for every keyword that occurs in the text, in the
// order of the keyword list. Keywords that do not occur are omitted.
func Extract(src Source, targets []string) []Match {
	sentences := utils.Sentences(src.Text)
	tokens := utils.Tokens(src.Text)

	matches := make([]Match, 0, len(targets))
	for _, keyword := range utils.Unique(targets) {
		frequency := utils.CountOccurrences(src.Text, keyword)
		if frequency == 0 {
			continue
		}

		matches = append(matches, Match{
			Keyword:    keyword,
			Variations: variations(tokens, keyword),
			Frequency:  frequency,
			Importance: importance(src, keyword),
			Context:    contexts(sentences, keyword),
		})
	}
	return matches
}

func importance(src Source, keyword string) float64 {
	score := 0.5
	for _, name := range importantSections {
		if utils.ContainsTerm(src.Sections[name], keyword) {
			score += 0.1
		}
	}
	if isIndustryKeyword(src.Industry, keyword) {
		score += 0.2
	}
	if IsActionVerb(keyword) {
		score += 0.1
	}
	if score > 1 {
		score = 1
	}
	return score
}

func contexts(sentences []string, keyword string) []string {
	var out []string
	for _, sentence := range sentences {
		if !utils.ContainsTerm(sentence, keyword) {
			continue
		}
		runes := []rune(sentence)
		if len(runes) > maxContextChars {
			sentence = string(runes[:maxContextChars])
		}
		out = append(out, sentence)
		if len(out) == maxContexts {
			break
		}
	}
	return out
}

// variations lists longer CV words built on the keyword stem, e.g. "managed"
// and "management" for "manage". Multi-word and very short keywords have none.
func variations(tokens []string, keyword string) []string {
	lower := strings.ToLower(strings.TrimSpace(keyword))
	if strings.ContainsAny(lower, " \t") {
		return nil
	}
	stem := stemOf(lower)
	if len(stem) < 3 {
		return nil
	}

	var out []string
	seen := map[string]struct{}{lower: {}}
	for _, token := range tokens {
		if len(token) <= len(stem) || !strings.Contains(token, stem) {
			continue
		}
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		out = append(out, token)
		if len(out) == maxVariations {
			break
		}
	}
	return out
}

var suffixes = []string{"ment", "ing", "ed", "er", "es", "s", "e"}

func stemOf(word string) string {
	if len(word) <= 4 {
		return word
	}
	for _, suffix := range suffixes {
		if strings.HasSuffix(word, suffix) && len(word)-len(suffix) >= 4 {
			return strings.TrimSuffix(word, suffix)
		}
	}
	return word
}
