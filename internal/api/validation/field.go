// Package validation checks request payloads before they reach a service.
// Every validator returns all problems at once; an empty slice means valid.
package validation

import (
	"strings"

	"github.com/google/uuid"
)

// FieldError represents a validation error on a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

const maxNameLen = 255

func requireName(errs []FieldError, field, value string) []FieldError {
	v := strings.TrimSpace(value)
	if v == "" {
		return append(errs, FieldError{Field: field, Message: field + " is required"})
	}
	if len(v) > maxNameLen {
		return append(errs, FieldError{Field: field, Message: field + " must be at most 255 characters"})
	}
	return errs
}

// ValidateID checks that value is a UUID.
func ValidateID(field, value string) []FieldError {
	if _, err := uuid.Parse(value); err != nil {
		return []FieldError{{Field: field, Message: field + " must be a valid UUID"}}
	}
	return nil
}
