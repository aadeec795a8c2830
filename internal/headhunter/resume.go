package headhunter

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spigell/ats-scorer/internal/cv"
)

type Resumes struct {
	Items []*Resume
}

type Resume struct {
	Title string
	ID    string `json:"id,omitempty"`
}

func (c *Client) GetMineResumes(ctx context.Context) (*Resumes, error) {
	items, err := c.GetItems(ctx, fmt.Sprintf("%s/resumes/%s", c.APIURL, mineResumeID), nil)
	if err != nil {
		return nil, err
	}

	var resumes []*Resume
	if err = mapstructure.Decode(items, &resumes); err != nil {
		return nil, err
	}

	return &Resumes{
		Items: resumes,
	}, nil
}

func (r *Resumes) Len() int {
	return len(r.Items)
}

func (r *Resumes) Titles() []string {
	titles := make([]string, 0, len(r.Items))
	for _, v := range r.Items {
		titles = append(titles, v.Title)
	}
	return titles
}

func (r *Resumes) FindByTitle(title string) *Resume {
	for _, resume := range r.Items {
		if resume.Title == title {
			return resume
		}
	}
	return nil
}

// GetResumeCV fetches the full résumé and converts it to a ParsedCV.
func (c *Client) GetResumeCV(ctx context.Context, id string) (*cv.ParsedCV, error) {
	if id == "" {
		return nil, fmt.Errorf("resume id is required")
	}

	var raw map[string]any
	if err := c.getJSON(ctx, fmt.Sprintf("%s/resumes/%s", c.APIURL, id), nil, &raw); err != nil {
		return nil, err
	}
	return ResumeToCV(raw)
}

type named struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type hhResume struct {
	Title       string          `json:"title"`
	FirstName   string          `json:"first_name"`
	MiddleName  string          `json:"middle_name"`
	LastName    string          `json:"last_name"`
	Area        named           `json:"area"`
	About       string          `json:"skills"`
	SkillSet    []string        `json:"skill_set"`
	Contact     []hhContact     `json:"contact"`
	Site        []hhSite        `json:"site"`
	Experience  []hhExperience  `json:"experience"`
	Education   hhEducation     `json:"education"`
	Certificate []hhCertificate `json:"certificate"`
}

type hhContact struct {
	Type  named `json:"type"`
	Value any   `json:"value"`
}

type hhSite struct {
	Type named  `json:"type"`
	URL  string `json:"url"`
}

type hhExperience struct {
	Company     string `json:"company"`
	Position    string `json:"position"`
	Start       string `json:"start"`
	End         string `json:"end"`
	Description string `json:"description"`
	Area        named  `json:"area"`
}

type hhEducation struct {
	Level   named `json:"level"`
	Primary []struct {
		Name         string `json:"name"`
		Organization string `json:"organization"`
		Result       string `json:"result"`
		Year         int    `json:"year"`
	} `json:"primary"`
}

type hhCertificate struct {
	Title      string `json:"title"`
	AchievedAt string `json:"achieved_at"`
	Owner      string `json:"owner"`
}

// ResumeToCV maps an hh.ru résumé document onto a ParsedCV. Experience dates
// are reduced to months; an open end marks the position as current.
func ResumeToCV(raw map[string]any) (*cv.ParsedCV, error) {
	var r hhResume
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &r,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("decode resume: %w", err)
	}

	summary, err := StripHTML(r.About)
	if err != nil {
		return nil, fmt.Errorf("resume about: %w", err)
	}

	c := &cv.ParsedCV{
		PersonalInfo: cv.PersonalInfo{
			Name:     strings.Join(strings.Fields(r.FirstName+" "+r.MiddleName+" "+r.LastName), " "),
			Location: r.Area.Name,
		},
		Summary: summary,
		Skills:  cv.FlatSkills(r.SkillSet...),
	}

	for _, contact := range r.Contact {
		switch contact.Type.ID {
		case "email":
			c.PersonalInfo.Email = contactValue(contact.Value)
		case "cell", "home", "work":
			if c.PersonalInfo.Phone == "" {
				c.PersonalInfo.Phone = contactValue(contact.Value)
			}
		}
	}

	for _, site := range r.Site {
		switch {
		case site.Type.ID == "linkedin":
			c.PersonalInfo.LinkedIn = site.URL
		case c.PersonalInfo.Website == "":
			c.PersonalInfo.Website = site.URL
		}
	}

	for _, e := range r.Experience {
		description, err := StripHTML(e.Description)
		if err != nil {
			return nil, fmt.Errorf("experience at %s: %w", e.Company, err)
		}
		c.Experience = append(c.Experience, cv.Experience{
			Title:       e.Position,
			Company:     e.Company,
			Location:    e.Area.Name,
			StartDate:   month(e.Start),
			EndDate:     month(e.End),
			Current:     strings.TrimSpace(e.End) == "",
			Description: description,
		})
	}

	for _, p := range r.Education.Primary {
		edu := cv.Education{
			Institution: p.Name,
			Degree:      r.Education.Level.Name,
			Field:       p.Result,
		}
		if p.Organization != "" && edu.Field == "" {
			edu.Field = p.Organization
		}
		if p.Year > 0 {
			edu.EndDate = strconv.Itoa(p.Year)
		}
		c.Education = append(c.Education, edu)
	}

	for _, cert := range r.Certificate {
		c.Certifications = append(c.Certifications, cv.Certification{
			Name:   cert.Title,
			Issuer: cert.Owner,
			Date:   month(cert.AchievedAt),
		})
	}

	return c, nil
}

// contactValue handles both plain values and phone objects.
func contactValue(v any) string {
	switch typed := v.(type) {
	case string:
		return typed
	case map[string]any:
		for _, key := range []string{"formatted", "number"} {
			if s, ok := typed[key].(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

func month(date string) string {
	date = strings.TrimSpace(date)
	if len(date) >= 7 {
		return date[:7]
	}
	return date
}
