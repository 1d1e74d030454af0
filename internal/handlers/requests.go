package handlers

import (
	"github.com/go-playground/validator/v10"
)

// MaxSearchLength bounds the search term accepted from operators.
const MaxSearchLength = 200

// CustomValidator wraps the go-playground/validator library to implement Echo's Validator interface.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new CustomValidator.
func NewValidator() *CustomValidator {
	return &CustomValidator{validator: validator.New()}
}

// Validate implements the echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// SearchRequest is the query of the investments page and API. Search is
// matched as given; whitespace is part of the term.
type SearchRequest struct {
	Search string `query:"search" json:"search" validate:"max=200"`
}
