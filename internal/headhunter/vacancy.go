package headhunter

import (
	"context"
	"fmt"
	"strings"
)

const vacancyPath = "/vacancies"

type Vacancy struct {
	ID           string `json:"id,omitempty"`
	Name         string `json:"name,omitempty"`
	Area         named  `json:"area,omitempty"`
	AlternateURL string `json:"alternate_url,omitempty"`
	Experience   named  `json:"experience,omitempty"`
	Employer     struct {
		ID   string `json:"id,omitempty"`
		Name string `json:"name,omitempty"`
	} `json:"employer,omitempty"`
	Description string `json:"description,omitempty"`
	KeySkills   []struct {
		Name string `json:"name,omitempty"`
	} `json:"key_skills,omitempty"`
	ProfessionalRoles []named `json:"professional_roles,omitempty"`
}

// Posting is a vacancy reduced to what an analysis request needs.
type Posting struct {
	Role           string
	Employer       string
	URL            string
	Keywords       []string
	JobDescription string
}

func (c *Client) GetVacancy(ctx context.Context, id string) (*Vacancy, error) {
	if id == "" {
		return nil, fmt.Errorf("vacancy id is required")
	}

	var v Vacancy
	if err := c.getJSON(ctx, fmt.Sprintf("%s%s/%s", c.APIURL, vacancyPath, id), nil, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// Posting converts the vacancy: its name becomes the target role, key skills
// the target keywords and the description plain text.
func (v *Vacancy) Posting() (Posting, error) {
	description, err := StripHTML(v.Description)
	if err != nil {
		return Posting{}, fmt.Errorf("vacancy %s description: %w", v.ID, err)
	}

	keywords := make([]string, 0, len(v.KeySkills))
	for _, skill := range v.KeySkills {
		if name := strings.TrimSpace(skill.Name); name != "" {
			keywords = append(keywords, name)
		}
	}

	return Posting{
		Role:           strings.TrimSpace(v.Name),
		Employer:       v.Employer.Name,
		URL:            v.AlternateURL,
		Keywords:       keywords,
		JobDescription: description,
	}, nil
}
