package cv

import (
	"regexp"
	"strings"
	"time"

	"github.com/spigell/ats-scorer/internal/utils"
)

// DateFormat classifies how a date string was written.
type DateFormat string

const (
	FormatISODay     DateFormat = "yyyy-mm-dd"
	FormatISOMonth   DateFormat = "yyyy-mm"
	FormatSlashMonth DateFormat = "mm/yyyy"
	FormatMonthName  DateFormat = "month yyyy"
	FormatYear       DateFormat = "yyyy"
	FormatUnknown    DateFormat = "unknown"
)

var dateLayouts = []struct {
	layout string
	format DateFormat
}{
	{"2006-01-02", FormatISODay},
	{"2006-01", FormatISOMonth},
	{"01/2006", FormatSlashMonth},
	{"1/2006", FormatSlashMonth},
	{"Jan 2006", FormatMonthName},
	{"January 2006", FormatMonthName},
	{"Jan. 2006", FormatMonthName},
	{"2006", FormatYear},
}

// ParseDate parses the date formats résumés commonly use. Unparseable input
// returns the zero time with FormatUnknown; blank input returns an empty format.
func ParseDate(s string) (time.Time, DateFormat) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ""
	}
	for _, l := range dateLayouts {
		if t, err := time.Parse(l.layout, s); err == nil {
			return t, l.format
		}
	}
	return time.Time{}, FormatUnknown
}

func isPresent(s string) bool {
	switch normalizeWord(s) {
	case "present", "current", "now", "ongoing":
		return true
	}
	return false
}

// DateConsistency is the share of written dates that use the most common
// format. It is 0 when the CV has no dates.
func DateConsistency(c *ParsedCV) float64 {
	if c == nil {
		return 0
	}

	var dates []string
	for _, e := range c.Experience {
		dates = append(dates, e.StartDate, e.EndDate)
	}
	for _, e := range c.Education {
		dates = append(dates, e.StartDate, e.EndDate)
	}

	counts := map[DateFormat]int{}
	total := 0
	for _, d := range dates {
		if isPresent(d) {
			continue
		}
		if _, format := ParseDate(d); format != "" {
			counts[format]++
			total++
		}
	}
	if total == 0 {
		return 0
	}

	dominant := 0
	for _, n := range counts {
		if n > dominant {
			dominant = n
		}
	}
	return float64(dominant) / float64(total)
}

// ChronologyViolations counts positions whose end date precedes the start date.
func ChronologyViolations(c *ParsedCV) int {
	if c == nil {
		return 0
	}
	violations := 0
	for _, e := range c.Experience {
		if e.Ongoing() {
			continue
		}
		start, sf := ParseDate(e.StartDate)
		end, ef := ParseDate(e.EndDate)
		if sf == "" || ef == "" || sf == FormatUnknown || ef == FormatUnknown {
			continue
		}
		if end.Before(start) {
			violations++
		}
	}
	return violations
}

// ReverseChronological reports whether positions with parseable start dates
// are listed newest first.
func ReverseChronological(c *ParsedCV) bool {
	if c == nil {
		return true
	}
	var previous time.Time
	seen := false
	for _, e := range c.Experience {
		start, format := ParseDate(e.StartDate)
		if format == "" || format == FormatUnknown {
			continue
		}
		if seen && start.After(previous) {
			return false
		}
		previous, seen = start, true
	}
	return true
}

var (
	metricPattern = regexp.MustCompile(`(?i)(\d+(\.\d+)?\s*(%|percent\b|x\b|k\b|m\b|\+))|([$€£]\s?\d)|(\b\d+(\.\d+)?\s+(users|customers|clients|people|engineers|developers|projects|teams|hours|days|weeks|services|countries|members|requests|transactions|stores|accounts)\b)`)
	changePattern = regexp.MustCompile(`(?i)\b(increased|reduced|decreased|grew|saved|cut|improved|boosted|generated|doubled|tripled)\b[^.]*\d`)
	verbPattern   = regexp.MustCompile(`(?i)\b(accelerated|achieved|architected|automated|boosted|built|closed|completed|coordinated|created|cut|decreased|delivered|designed|developed|doubled|drove|established|expanded|generated|grew|handled|hired|implemented|improved|increased|launched|led|maintained|managed|mentored|migrated|negotiated|onboarded|optimi[sz]ed|owned|processed|processing|raised|recruited|reduced|saved|scaled|secured|served|serving|shipped|sold|spearheaded|streamlined|supported|trained|tripled|won|wrote)\b`)
)

// IsQuantified reports whether a line states a measurable result: a number,
// percentage or amount in a line that also names what was done.
func IsQuantified(line string) bool {
	return changePattern.MatchString(line) || (metricPattern.MatchString(line) && verbPattern.MatchString(line))
}

// QuantifiedLines returns the distinct achievement and description lines
// that state measurable results.
func QuantifiedLines(c *ParsedCV) []string {
	if c == nil {
		return nil
	}
	var out []string
	for _, line := range ResultLines(c) {
		if IsQuantified(line) {
			out = append(out, line)
		}
	}
	return utils.Unique(out)
}

// HasQuantifiedResult reports whether one position states a measurable result.
func (e Experience) HasQuantifiedResult() bool {
	for _, line := range append(append([]string(nil), e.Achievements...), utils.Sentences(e.Description)...) {
		if IsQuantified(line) {
			return true
		}
	}
	return false
}

// ResultLines returns the lines where a CV can state results: achievements,
// description sentences and project descriptions.
func ResultLines(c *ParsedCV) []string {
	if c == nil {
		return nil
	}
	lines := append([]string(nil), c.Achievements...)
	for _, e := range c.Experience {
		lines = append(lines, e.Achievements...)
		lines = append(lines, utils.Sentences(e.Description)...)
	}
	for _, p := range c.Projects {
		lines = append(lines, utils.Sentences(p.Description)...)
	}
	return lines
}

var emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)

// DistinctEmails returns the distinct email addresses mentioned anywhere in the CV.
func DistinctEmails(c *ParsedCV) []string {
	if c == nil {
		return nil
	}
	text := strings.Join([]string{c.PersonalInfo.Email, Text(c)}, "\n")
	return utils.Unique(emailPattern.FindAllString(text, -1))
}
