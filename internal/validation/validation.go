// Package validation holds field-level checks shared by the analysis gate
// and the HTTP surface. Each check returns nil or a single ValidationError.
package validation

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"
)

// ValidationError describes one rejected field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Collector gathers every failing check instead of stopping at the first.
type Collector struct {
	errors []ValidationError
}

// Add records err; nil is ignored.
func (c *Collector) Add(err *ValidationError) {
	if err != nil {
		c.errors = append(c.errors, *err)
	}
}

// Errors returns the recorded failures in the order they were added.
func (c *Collector) Errors() []ValidationError {
	return c.errors
}

func ValidateUTF8(field, value string) *ValidationError {
	if utf8.ValidString(value) {
		return nil
	}
	return invalid(field, "must be valid UTF-8")
}

func ValidateNoNullBytes(field, value string) *ValidationError {
	if strings.IndexByte(value, 0) < 0 {
		return nil
	}
	return invalid(field, "must not contain null bytes")
}

// ValidateMaxLength counts runes, not bytes.
func ValidateMaxLength(field, value string, max int) *ValidationError {
	if utf8.RuneCountInString(value) <= max {
		return nil
	}
	return invalid(field, "exceeds maximum length of %d characters", max)
}

// ValidateULID accepts the 26-character Crockford form, any case.
func ValidateULID(field, value string) *ValidationError {
	if _, err := ulid.ParseStrict(value); err != nil {
		return invalid(field, "must be a valid ULID")
	}
	return nil
}

// ValidateRequired rejects empty and whitespace-only values.
func ValidateRequired(field, value string) *ValidationError {
	if strings.TrimSpace(value) != "" {
		return nil
	}
	return invalid(field, "is required")
}

// ValidateEnum requires an exact match against allowed.
func ValidateEnum(field, value string, allowed []string) *ValidationError {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return invalid(field, "must be one of: %s", strings.Join(allowed, ", "))
}

// ValidateNonNegative rejects negatives, NaN and infinities.
func ValidateNonNegative(field string, value float64) *ValidationError {
	if value >= 0 && !math.IsInf(value, 1) {
		return nil
	}
	return invalid(field, "must be a non-negative number")
}

// Summary joins errors as "field: message; field: message".
func Summary(errs []ValidationError) string {
	parts := make([]string, len(errs))
	for i, e := range errs {
		parts[i] = e.Field + ": " + e.Message
	}
	return strings.Join(parts, "; ")
}
