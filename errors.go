package signon

import (
	"encoding/json"
	"errors"
	"net/http"
)

// ErrNotFound is returned by stores when a user, account or session does not
// exist (or a session has expired). Callers check it with errors.Is so a miss
// can be told apart from a broken store.
var ErrNotFound = errors.New("not found")

// ErrEmailTaken is returned by UserStore.CreateUser when the email is
// already registered.
var ErrEmailTaken = errors.New("email already registered")

// Request parsing failures surfaced to handlers.
var (
	errInvalidBody      = errors.New("invalid request body")
	errProviderRequired = errors.New("provider required")
)

// Stable machine-readable error codes returned in API bodies.
const (
	ErrCodeProviderNotFound = "provider_not_found"
	ErrCodeInvalidRequest   = "invalid_request"
	ErrCodeSignInDisabled   = "signin_disabled"
	ErrCodeSignUpDisabled   = "signup_disabled"
	ErrCodeInvalidCreds     = "invalid_credentials"
	ErrCodeNotAuthenticated = "not_authenticated"
	ErrCodeEmailExists      = "email_exists"
	ErrCodeInvalidEmail     = "invalid_email"
	ErrCodeWeakPassword     = "weak_password"
	ErrCodeMissingField     = "missing_field"
	ErrCodeInternal         = "internal_error"
)

// AuthError is the error shape written at the HTTP boundary. Field names the
// request field the error relates to, when there is one.
type AuthError struct {
	Code    string `json:"code"`
	Message string `json:"error"`
	Field   string `json:"field,omitempty"`
}

func (e *AuthError) Error() string {
	return e.Message
}

// NewAuthError creates an AuthError with the given code, message and field.
func NewAuthError(code, message, field string) *AuthError {
	return &AuthError{Code: code, Message: message, Field: field}
}

// statusForCode maps error codes onto HTTP statuses. Codes not listed here
// are client errors.
var statusForCode = map[string]int{
	ErrCodeProviderNotFound: http.StatusNotFound,
	ErrCodeInvalidCreds:     http.StatusUnauthorized,
	ErrCodeNotAuthenticated: http.StatusUnauthorized,
	ErrCodeInternal:         http.StatusInternalServerError,
}

// StatusCode returns the HTTP status this error is written with.
func (e *AuthError) StatusCode() int {
	if status, ok := statusForCode[e.Code]; ok {
		return status
	}
	return http.StatusBadRequest
}

// writeAuthError writes the error as JSON with its mapped status.
func writeAuthError(w http.ResponseWriter, err *AuthError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.StatusCode())
	json.NewEncoder(w).Encode(err)
}

// writeJSON writes a success payload. Handlers call this exactly once per
// request, after all cookies have been set.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
