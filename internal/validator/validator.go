package validator

import (
	"fmt"

	"codefusion/pkg/types"
)

// Validator checks submitted code before it is sent for conversion.
type Validator interface {
	Validate(code, language string) error
}

// PresenceValidator accepts any non-empty code for any language. It stands in
// until a per-language syntax check exists.
type PresenceValidator struct{}

func NewPresenceValidator() *PresenceValidator {
	return &PresenceValidator{}
}

func (PresenceValidator) Validate(code, language string) error {
	if code == "" {
		return fmt.Errorf("empty %s source: %w", language, types.ErrValidation)
	}
	return nil
}

// Func adapts a plain function to the Validator interface.
type Func func(code, language string) error

func (f Func) Validate(code, language string) error { return f(code, language) }
