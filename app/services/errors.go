package services

import (
	"errors"
	"strings"

	"github.com/shashiranjanraj/souq/app/repositories"
)

var (
	// ErrNotFound is shared with the repositories so errors.Is works across
	// both layers.
	ErrNotFound = repositories.ErrNotFound

	ErrConflict             = errors.New("already exists")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrSessionNotFound      = errors.New("session not found")
	ErrPaymentNotSuccessful = errors.New("payment not successful")
)

// ValidationError carries per-field messages for a 400 response.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	parts := make([]string, 0, len(e.Fields))
	for k, v := range e.Fields {
		parts = append(parts, k+": "+v)
	}
	return e.Message + " (" + strings.Join(parts, "; ") + ")"
}

func invalid(message string, fields map[string]string) error {
	return &ValidationError{Message: message, Fields: fields}
}
