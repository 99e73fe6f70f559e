package services

import (
	"codefusion/internal/code_converter"
	"codefusion/internal/code_reviewer"
	"codefusion/internal/validator"
)

// Services holds all application services
type Services struct {
	CodeConverterService *code_converter.CodeConverterService
	CodeReviewerService  *code_reviewer.CodeReviewerService
	Validator            validator.Validator
}

// NewServices creates and initializes all services. A nil validator falls
// back to the presence check.
func NewServices(converterService *code_converter.CodeConverterService, reviewerService *code_reviewer.CodeReviewerService, v validator.Validator) *Services {
	if v == nil {
		v = validator.NewPresenceValidator()
	}
	return &Services{
		CodeConverterService: converterService,
		CodeReviewerService:  reviewerService,
		Validator:            v,
	}
}
