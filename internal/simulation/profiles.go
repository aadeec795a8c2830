// Package simulation runs a CV through a fixed set of ATS profiles, each with
// its own weighting, and estimates how every system would rank it.
package simulation

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed profiles.yaml
var profilesYAML []byte

// ErrInvalidProfile is returned for profiles that cannot be evaluated.
var ErrInvalidProfile = errors.New("invalid ats profile")

// Check names understood by the simulator.
const (
	CheckConsistentDates        = "consistent_dates"
	CheckReverseChronological   = "reverse_chronological"
	CheckQuantifiedAchievements = "quantified_achievements"
	CheckContactHeader          = "contact_header"
	CheckStandardSections       = "standard_sections"
	CheckNoTables               = "no_tables"
	CheckPDFFormat              = "pdf_format"
)

// Profile is the static configuration of one ATS.
type Profile struct {
	Name              string            `yaml:"name"`
	Vendor            string            `yaml:"vendor"`
	Weights           Weights           `yaml:"weights"`
	KeywordDensity    DensityRange      `yaml:"keywordDensity"`
	PriorityFields    []string          `yaml:"priorityFields"`
	Preferences       []string          `yaml:"preferences"`
	PreferredKeywords []string          `yaml:"preferredKeywords"`
	Checks            []string          `yaml:"checks"`
	Issues            map[string]string `yaml:"issues"`
	Tips              []string          `yaml:"tips"`
}

type Weights struct {
	Parsing float64 `yaml:"parsing"`
	Keyword float64 `yaml:"keyword"`
	Format  float64 `yaml:"format"`
	Content float64 `yaml:"content"`
}

func (w Weights) sum() float64 {
	return w.Parsing + w.Keyword + w.Format + w.Content
}

type DensityRange struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// Validate reports configuration errors that would make scores meaningless.
func (p Profile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidProfile)
	}
	w := p.Weights
	if w.Parsing < 0 || w.Keyword < 0 || w.Format < 0 || w.Content < 0 {
		return fmt.Errorf("%w: %s has negative weights", ErrInvalidProfile, p.Name)
	}
	if w.sum() <= 0 {
		return fmt.Errorf("%w: %s has no weights", ErrInvalidProfile, p.Name)
	}
	if p.KeywordDensity.Max < p.KeywordDensity.Min {
		return fmt.Errorf("%w: %s density range is inverted", ErrInvalidProfile, p.Name)
	}
	for _, check := range p.Checks {
		if _, ok := checks[check]; !ok {
			return fmt.Errorf("%w: %s has unknown check %q", ErrInvalidProfile, p.Name, check)
		}
	}
	return nil
}

func (p Profile) isPriority(field string) bool {
	for _, f := range p.PriorityFields {
		if strings.EqualFold(f, field) {
			return true
		}
	}
	return false
}

var loadProfiles = sync.OnceValues(func() ([]Profile, error) {
	return ParseProfiles(profilesYAML)
})

// ParseProfiles decodes a YAML list of profiles.
func ParseProfiles(data []byte) ([]Profile, error) {
	var profiles []Profile
	if err := yaml.Unmarshal(data, &profiles); err != nil {
		return nil, fmt.Errorf("parse ats profiles: %w", err)
	}
	return profiles, nil
}

// DefaultProfiles returns a copy of the built-in profile table.
func DefaultProfiles() ([]Profile, error) {
	profiles, err := loadProfiles()
	if err != nil {
		return nil, err
	}
	return append([]Profile(nil), profiles...), nil
}
