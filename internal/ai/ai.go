// Package ai defines the text generation collaborator used by the analysis
// stages and the helpers that turn its free-form answers into values.
package ai

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrEmptyResponse is returned when a provider answers with no text.
	ErrEmptyResponse = errors.New("empty response")
	// ErrUnparseable is returned by interpreters that find nothing usable in a response.
	ErrUnparseable = errors.New("response could not be interpreted")
)

// Request is a single prompt for a text generation service.
type Request struct {
	Prompt string
	// System is an optional system instruction.
	System string
	// Model overrides the provider default when set.
	Model       string
	MaxTokens   int
	Temperature float64
}

// Generator produces text for a prompt. Responses are untrusted free text.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
	// Name identifies the provider and model, e.g. "gemini/gemini-2.5-pro".
	Name() string
}

const (
	SourceGenerative = "generative"
	SourceLocal      = "local"
)

// ReasonDisabled marks local results produced because no generator was configured.
const ReasonDisabled = "text generation disabled"

// Provenance records whether a stage result came from a text generation
// service or from local heuristics. It is informational only.
type Provenance struct {
	Source    string `json:"source"`
	Generator string `json:"generator,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// Generative marks a result produced with the named generator.
func Generative(g Generator) Provenance {
	return Provenance{Source: SourceGenerative, Generator: g.Name()}
}

// Local marks a result built from local heuristics, with the reason the
// generative path was not used.
func Local(reason string) Provenance {
	return Provenance{Source: SourceLocal, Reason: reason}
}

// FellBack reports whether a generator was configured but its answer could
// not be used.
func (p Provenance) FellBack() bool {
	return p.Source == SourceLocal && p.Reason != "" && p.Reason != ReasonDisabled
}

// Call runs one generation with its own timeout. A nil generator is reported
// as unavailable without panicking.
func Call(ctx context.Context, g Generator, timeout time.Duration, req Request) (string, error) {
	if g == nil {
		return "", errors.New("text generation is not configured")
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return g.Generate(ctx, req)
}
