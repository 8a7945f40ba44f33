package errors

import (
	"math"
	"strings"
	"unicode"
)

// ValidateProbability checks that p is a finite value in [0, 1].
// name identifies the parameter in the error message.
func ValidateProbability(name string, p float64) error {
	if math.IsNaN(p) || p < 0 || p > 1 {
		return New(ErrCodeInvalidGenerator, "%s must be in [0, 1], got %v", name, p)
	}
	return nil
}

// ValidateCount checks that n is not negative.
func ValidateCount(name string, n int) error {
	if n < 0 {
		return New(ErrCodeInvalidGenerator, "%s must not be negative, got %d", name, n)
	}
	return nil
}

// ValidateFinite checks that v is neither NaN nor infinite.
func ValidateFinite(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return New(ErrCodeInvalidConfig, "%s must be finite, got %v", name, v)
	}
	return nil
}

// ValidateRunID validates an identifier supplied by API clients before it
// reaches a storage backend.
//
// Validation rules:
//   - Cannot be empty
//   - Maximum length of 64 characters
//   - Letters, digits and '-' only
func ValidateRunID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "run id cannot be empty")
	}
	if len(id) > 64 {
		return New(ErrCodeInvalidInput, "run id too long (max 64 characters)")
	}
	if strings.IndexFunc(id, func(r rune) bool {
		return r != '-' && !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) >= 0 {
		return New(ErrCodeInvalidInput, "run id contains invalid characters: %q", id)
	}
	return nil
}
