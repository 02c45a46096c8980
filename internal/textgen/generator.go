// Package textgen talks to the collaborators that draft narrative text for the
// situation-description step.
package textgen

import (
	"context"
	"errors"

	"assistance-wizard/internal/models"
)

var (
	ErrUnknownProvider = errors.New("unknown text generation provider")
	ErrMissingBaseURL  = errors.New("text generation base url is required")
	ErrMissingAPIKey   = errors.New("text generation api key is required")
)

// Request is one generation call for a single narrative field.
type Request struct {
	Field  models.NarrativeField
	Prompt string
	Draft  models.ApplicationDraft
	Locale string
}

// Generator produces suggested text for a narrative field. Failures are
// returned as *errors.AppError.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
	Name() string
}
