package cv

import (
	"strings"

	"github.com/spigell/ats-scorer/internal/utils"
)

// Section names used by text extraction and by the analysis stages.
const (
	SectionSummary        = "summary"
	SectionExperience     = "experience"
	SectionEducation      = "education"
	SectionSkills         = "skills"
	SectionAchievements   = "achievements"
	SectionProjects       = "projects"
	SectionCertifications = "certifications"
)

// Sections renders every non-empty CV section as plain text.
func Sections(c *ParsedCV) map[string]string {
	sections := map[string]string{}
	if c == nil {
		return sections
	}

	put := func(name string, lines []string) {
		text := strings.TrimSpace(strings.Join(nonEmpty(lines), "\n"))
		if text != "" {
			sections[name] = text
		}
	}

	put(SectionSummary, []string{c.Summary})

	var experience []string
	for _, e := range c.Experience {
		experience = append(experience, joinNonEmpty(" at ", e.Title, e.Company), e.Description)
		experience = append(experience, e.Achievements...)
		if len(e.Technologies) > 0 {
			experience = append(experience, "Technologies: "+strings.Join(e.Technologies, ", "))
		}
	}
	put(SectionExperience, experience)

	var education []string
	for _, e := range c.Education {
		education = append(education, joinNonEmpty(", ", e.Degree, e.Field, e.Institution))
	}
	put(SectionEducation, education)

	skills := c.Skills.Normalize()
	if len(skills.All) > 0 {
		put(SectionSkills, []string{strings.Join(skills.All, ", ")})
	}

	var achievements []string
	achievements = append(achievements, c.Achievements...)
	for _, e := range c.Experience {
		achievements = append(achievements, e.Achievements...)
	}
	put(SectionAchievements, achievements)

	var projects []string
	for _, p := range c.Projects {
		projects = append(projects, joinNonEmpty(": ", p.Name, p.Description))
		if len(p.Technologies) > 0 {
			projects = append(projects, "Technologies: "+strings.Join(p.Technologies, ", "))
		}
	}
	put(SectionProjects, projects)

	var certifications []string
	for _, cert := range c.Certifications {
		certifications = append(certifications, joinNonEmpty(", ", cert.Name, cert.Issuer))
	}
	put(SectionCertifications, certifications)

	return sections
}

var sectionOrder = []string{
	SectionSummary,
	SectionExperience,
	SectionEducation,
	SectionSkills,
	SectionProjects,
	SectionCertifications,
}

// Text flattens the CV into one document. Standalone achievements are appended
// last because experience achievements already appear in the experience block.
func Text(c *ParsedCV) string {
	if c == nil {
		return ""
	}

	sections := Sections(c)
	parts := []string{joinNonEmpty(", ", c.PersonalInfo.Name, c.PersonalInfo.Location)}
	for _, name := range sectionOrder {
		parts = append(parts, sections[name])
	}
	parts = append(parts, c.Achievements...)

	return strings.Join(nonEmpty(parts), "\n")
}

// WordCount counts the words the candidate wrote. Labels and separators that
// Sections inserts are not counted.
func WordCount(c *ParsedCV) int {
	if c == nil {
		return 0
	}

	fields := []string{c.PersonalInfo.Name, c.PersonalInfo.Location, c.Summary}
	for _, e := range c.Experience {
		fields = append(fields, e.Title, e.Company, e.Description)
		fields = append(fields, e.Achievements...)
		fields = append(fields, e.Technologies...)
	}
	for _, e := range c.Education {
		fields = append(fields, e.Degree, e.Field, e.Institution)
	}
	fields = append(fields, c.Skills.Normalize().All...)
	for _, p := range c.Projects {
		fields = append(fields, p.Name, p.Description)
		fields = append(fields, p.Technologies...)
	}
	for _, cert := range c.Certifications {
		fields = append(fields, cert.Name, cert.Issuer)
	}
	fields = append(fields, c.Achievements...)

	total := 0
	for _, f := range fields {
		total += utils.WordCount(f)
	}
	return total
}

// TechnologyCount counts distinct technologies named across experience and projects.
func TechnologyCount(c *ParsedCV) int {
	if c == nil {
		return 0
	}
	seen := map[string]struct{}{}
	for _, e := range c.Experience {
		for _, t := range e.Technologies {
			seen[normalizeWord(t)] = struct{}{}
		}
	}
	for _, p := range c.Projects {
		for _, t := range p.Technologies {
			seen[normalizeWord(t)] = struct{}{}
		}
	}
	delete(seen, "")
	return len(seen)
}

func joinNonEmpty(sep string, values ...string) string {
	return strings.Join(nonEmpty(values), sep)
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// StandardSectionRatio is the share of the five sections every ATS looks for
// (summary, experience, education, skills, contact) that the CV fills.
func StandardSectionRatio(c *ParsedCV) float64 {
	if c == nil {
		return 0
	}
	present := 0
	for _, ok := range []bool{
		strings.TrimSpace(c.Summary) != "",
		len(c.Experience) > 0,
		len(c.Education) > 0,
		len(c.Skills.Normalize().All) > 0,
		strings.TrimSpace(c.PersonalInfo.Email) != "" || strings.TrimSpace(c.PersonalInfo.Phone) != "",
	} {
		if ok {
			present++
		}
	}
	return float64(present) / 5
}
