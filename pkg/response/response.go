// Package response writes JSON bodies and the error envelope used across the
// API: {"status": 404, "message": "Order not found"}.
package response

import (
	"encoding/json"
	"net/http"
)

// Envelope is the error body shape.
type Envelope struct {
	Status  int               `json:"status"`
	Message string            `json:"message,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
	Detail  string            `json:"error,omitempty"`
}

// JSON writes v with status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func OK(w http.ResponseWriter, v any) { JSON(w, http.StatusOK, v) }

func Created(w http.ResponseWriter, v any) { JSON(w, http.StatusCreated, v) }

// Error writes the envelope with message.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, Envelope{Status: status, Message: message})
}

// ErrorDetail writes the envelope with the underlying error text attached.
func ErrorDetail(w http.ResponseWriter, status int, message string, err error) {
	env := Envelope{Status: status, Message: message}
	if err != nil {
		env.Detail = err.Error()
	}
	JSON(w, status, env)
}

// ValidationError writes a 400 with per-field messages.
func ValidationError(w http.ResponseWriter, message string, errs map[string]string) {
	if message == "" {
		message = "Validation failed"
	}
	JSON(w, http.StatusBadRequest, Envelope{
		Status:  http.StatusBadRequest,
		Message: message,
		Errors:  errs,
	})
}

func NotFound(w http.ResponseWriter, message string) {
	Error(w, http.StatusNotFound, message)
}
