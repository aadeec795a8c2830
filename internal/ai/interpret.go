package ai

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ParseObject extracts the first JSON object from a response, tolerating
// markdown fences and surrounding prose.
func ParseObject(raw string) (map[string]any, bool) {
	cleaned := ExtractJSON(raw)
	if start, end := strings.Index(cleaned, "{"), strings.LastIndex(cleaned, "}"); start >= 0 && end > start {
		cleaned = cleaned[start : end+1]
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, false
	}
	return data, true
}

// ExtractJSON strips markdown code fences around a JSON payload.
func ExtractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

// CoerceBool reads yes/no answers; anything it does not recognise is false.
func CoerceBool(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true", "yes", "y", "fair":
			return true
		}
		return false
	case float64:
		return val != 0
	default:
		return false
	}
}

// CoerceFloat returns NaN for values that are not numbers.
func CoerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case string:
		trimmed := strings.TrimSuffix(strings.TrimSpace(val), "%")
		if trimmed == "" {
			return math.NaN()
		}
		if idx := strings.Index(trimmed, "/"); idx > 0 {
			trimmed = strings.TrimSpace(trimmed[:idx])
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func CoerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	default:
		if v == nil {
			return ""
		}
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}

// CoerceStrings accepts a JSON array or a comma separated string.
func CoerceStrings(v any) []string {
	var out []string
	switch val := v.(type) {
	case []any:
		for _, item := range val {
			if obj, ok := item.(map[string]any); ok {
				item = firstPresent(obj, "keyword", "name", "title", "text")
			}
			if s := CoerceString(item); s != "" {
				out = append(out, s)
			}
		}
	case string:
		for _, part := range strings.Split(val, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Lookup returns the first key present in the object, matching case-insensitively.
func Lookup(obj map[string]any, keys ...string) (any, bool) {
	for _, key := range keys {
		if v, ok := obj[key]; ok {
			return v, true
		}
	}
	for k, v := range obj {
		for _, key := range keys {
			if strings.EqualFold(normalizeKey(k), normalizeKey(key)) {
				return v, true
			}
		}
	}
	return nil, false
}

func firstPresent(obj map[string]any, keys ...string) any {
	v, _ := Lookup(obj, keys...)
	return v
}

func normalizeKey(k string) string {
	return strings.NewReplacer("_", "", "-", "", " ", "").Replace(k)
}

var numberPattern = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

// LabeledNumber finds the first number following one of the labels, e.g.
// "Confidence: 8/10" or "**Suggested score** - 74". Values outside [min, max]
// are skipped.
func LabeledNumber(text string, min, max float64, labels ...string) (float64, bool) {
	for _, label := range labels {
		pattern := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(label) + `[^0-9\n]{0,24}?(-?\d+(?:\.\d+)?)`)
		for _, match := range pattern.FindAllStringSubmatch(text, -1) {
			v, err := strconv.ParseFloat(match[1], 64)
			if err == nil && v >= min && v <= max {
				return v, true
			}
		}
	}
	return 0, false
}

// FirstNumberInRange returns the first number in text within [min, max].
func FirstNumberInRange(text string, min, max float64) (float64, bool) {
	for _, m := range numberPattern.FindAllString(text, -1) {
		v, err := strconv.ParseFloat(m, 64)
		if err == nil && v >= min && v <= max {
			return v, true
		}
	}
	return 0, false
}

var (
	bulletPrefix = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s+`)
	headerLine   = regexp.MustCompile(`^[#*\s]*([A-Za-z][A-Za-z /&'-]{1,48}?)[*\s]*:[*\s]*(.*)$`)
)

// BulletLines returns the text of every list item in the response.
func BulletLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if bulletPrefix.MatchString(line) {
			if item := cleanItem(bulletPrefix.ReplaceAllString(line, "")); item != "" {
				out = append(out, item)
			}
		}
	}
	return out
}

// SectionItems collects the lines under a "HEADER:" line until the next
// header. Inline text after the colon counts as the first item.
func SectionItems(text string, header string) []string {
	header = strings.ToLower(header)

	var (
		out       []string
		capturing bool
	)
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if !bulletPrefix.MatchString(line) {
			if m := headerLine.FindStringSubmatch(line); m != nil {
				capturing = strings.Contains(strings.ToLower(m[1]), header)
				if capturing {
					if item := cleanItem(m[2]); item != "" {
						out = append(out, item)
					}
				}
				continue
			}
		}
		if capturing {
			if item := cleanItem(bulletPrefix.ReplaceAllString(line, "")); item != "" {
				out = append(out, item)
			}
		}
	}
	return out
}

func cleanItem(s string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(s), "*_`\""))
}
