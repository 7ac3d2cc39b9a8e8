package validation

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/spounge-ai/ghost-mcp/internal/errors"
	pkgvalidator "github.com/spounge-ai/ghost-mcp/pkg/validator"
)

// Validator checks tool parameters before they are forwarded to Ghost.
// Every failure is a Validation-category error, which is never retried.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() (*Validator, error) {
	v := validator.New()

	if err := pkgvalidator.RegisterCustomValidators(v); err != nil {
		return nil, fmt.Errorf("failed to register custom validators: %w", err)
	}

	return &Validator{validate: v}, nil
}

func invalid(message, context string) error {
	return apperrors.NewValidationError(message, context, "")
}
