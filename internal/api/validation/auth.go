package validation

import (
	"net/mail"
	"strings"
)

// MinPasswordLen is the shortest password accepted at registration.
const MinPasswordLen = 6

// RegisterRequest mirrors the fields needed for registration validation.
type RegisterRequest struct {
	Email    string
	Username string
	Password string
}

// ValidateRegisterRequest validates a registration.
func ValidateRegisterRequest(req RegisterRequest) []FieldError {
	var errs []FieldError

	errs = validateEmail(errs, req.Email)

	username := strings.TrimSpace(req.Username)
	if username == "" {
		errs = append(errs, FieldError{Field: "username", Message: "username is required"})
	} else if len(username) > 50 {
		errs = append(errs, FieldError{Field: "username", Message: "username must be at most 50 characters"})
	}

	if len(req.Password) < MinPasswordLen {
		errs = append(errs, FieldError{Field: "password", Message: "password must be at least 6 characters"})
	} else if len(req.Password) > 72 {
		errs = append(errs, FieldError{Field: "password", Message: "password must be at most 72 bytes"})
	}

	return errs
}

// LoginRequest mirrors the fields needed for login validation.
type LoginRequest struct {
	Email    string
	Password string
}

// ValidateLoginRequest validates a login. Only presence is checked; wrong
// values are reported as invalid credentials by the service.
func ValidateLoginRequest(req LoginRequest) []FieldError {
	var errs []FieldError
	if strings.TrimSpace(req.Email) == "" {
		errs = append(errs, FieldError{Field: "email", Message: "email is required"})
	}
	if req.Password == "" {
		errs = append(errs, FieldError{Field: "password", Message: "password is required"})
	}
	return errs
}

func validateEmail(errs []FieldError, email string) []FieldError {
	email = strings.TrimSpace(email)
	if email == "" {
		return append(errs, FieldError{Field: "email", Message: "email is required"})
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return append(errs, FieldError{Field: "email", Message: "email must be a valid address"})
	}
	return errs
}
