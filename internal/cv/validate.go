package cv

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Issue is a problem found in CV contact data. Issues never block analysis.
type Issue struct {
	Field   string `json:"field"`
	Problem string `json:"problem"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks contact fields and returns one Issue per failed rule.
func Validate(c *ParsedCV) []Issue {
	if c == nil {
		return nil
	}

	var issues []Issue
	err := validatorInstance().Struct(c.PersonalInfo)

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		for _, fe := range validationErrs {
			issues = append(issues, Issue{
				Field:   "personalInfo." + lowerFirst(fe.Field()),
				Problem: fmt.Sprintf("failed %s check", fe.Tag()),
			})
		}
	}

	if linkedin := strings.TrimSpace(c.PersonalInfo.LinkedIn); linkedin != "" && !ValidURL(linkedin) {
		issues = append(issues, Issue{Field: "personalInfo.linkedin", Problem: "failed url check"})
	}

	return issues
}

// ValidEmail reports whether the address is a syntactically valid email.
func ValidEmail(email string) bool {
	email = strings.TrimSpace(email)
	return email != "" && validatorInstance().Var(email, "email") == nil
}

// ValidURL accepts absolute URLs and bare hosts such as linkedin.com/in/name.
func ValidURL(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	return validatorInstance().Var(raw, "url") == nil
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
