package simulation

import (
	"strings"

	"github.com/spigell/ats-scorer/internal/cv"
)

type check struct {
	pass  func(c *cv.ParsedCV, text string) bool
	issue string
	fix   string
}

var checks = map[string]check{
	CheckConsistentDates: {
		pass:  func(c *cv.ParsedCV, _ string) bool { return cv.DateConsistency(c) >= 0.8 },
		issue: "Dates are missing or written in mixed formats",
		fix:   "Write every date in one format, for example MM/YYYY",
	},
	CheckReverseChronological: {
		pass:  func(c *cv.ParsedCV, _ string) bool { return cv.ReverseChronological(c) },
		issue: "Positions are not listed newest first",
		fix:   "Order positions from most recent to oldest",
	},
	CheckQuantifiedAchievements: {
		pass:  func(c *cv.ParsedCV, _ string) bool { return len(cv.QuantifiedLines(c)) > 0 },
		issue: "No measurable achievements found",
		fix:   "Add numbers to achievements: percentages, amounts, team sizes",
	},
	CheckContactHeader: {
		pass: func(c *cv.ParsedCV, _ string) bool {
			return strings.TrimSpace(c.PersonalInfo.Email) != "" && strings.TrimSpace(c.PersonalInfo.Phone) != ""
		},
		issue: "Email or phone number is missing from the contact header",
		fix:   "Put email and phone number at the top of the CV",
	},
	CheckStandardSections: {
		pass:  func(c *cv.ParsedCV, _ string) bool { return cv.StandardSectionRatio(c) >= 0.8 },
		issue: "Standard sections are missing",
		fix:   "Include Summary, Experience, Education and Skills sections",
	},
	CheckNoTables: {
		pass:  func(_ *cv.ParsedCV, text string) bool { return !strings.ContainsAny(text, "|\t│┃┆═─") },
		issue: "Table or column characters detected",
		fix:   "Replace tables and columns with a single-column layout",
	},
	CheckPDFFormat: {
		pass: func(c *cv.ParsedCV, _ string) bool {
			if c.Document == nil {
				return true
			}
			switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(c.Document.Format), ".")) {
			case "", "pdf", "docx":
				return true
			}
			return false
		},
		issue: "File format may not parse cleanly",
		fix:   "Submit a text-based PDF or DOCX file",
	},
}
