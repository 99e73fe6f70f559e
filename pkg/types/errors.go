package types

import "errors"

// Error kinds surfaced to the HTTP layer. Callers wrap them with %w and the
// handler classifies with errors.Is.
var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrValidation       = errors.New("validation failed")
	ErrUpstream         = errors.New("upstream model failure")
	ErrConversionFailed = errors.New("conversion failed")
)
