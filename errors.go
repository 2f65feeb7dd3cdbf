package blogauth

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies an AuthError for status mapping and logging
type ErrorKind string

const (
	KindValidation     ErrorKind = "validation"
	KindAuthentication ErrorKind = "authentication"
	KindConflict       ErrorKind = "conflict"
	KindInfrastructure ErrorKind = "infrastructure"
)

// Error codes returned by the identity workflows
const (
	ErrCodeFullnameTooShort  = "fullname_too_short"
	ErrCodeEmailRequired     = "email_required"
	ErrCodeInvalidEmail      = "invalid_email"
	ErrCodeWeakPassword      = "weak_password"
	ErrCodeEmailNotFound     = "email_not_found"
	ErrCodeIncorrectPassword = "incorrect_password"
	ErrCodeGoogleAccount     = "google_account"
	ErrCodePasswordAccount   = "password_account"
	ErrCodeGoogleAuthFailed  = "google_auth_failed"
	ErrCodeEmailExists       = "email_exists"
	ErrCodeUsernameTaken     = "username_taken"
	ErrCodeLoginFailed       = "login_failed"
	ErrCodeInvalidBody       = "invalid_body"
	ErrCodeUnauthorized      = "unauthorized"
	ErrCodeInternal          = "internal"
)

// AuthError is the error type returned by every workflow step.
// Message is safe to show to the caller; the cause is not.
type AuthError struct {
	Kind    ErrorKind
	Code    string
	Message string
	Field   string
	cause   error
}

// NewAuthError creates an AuthError without a cause
func NewAuthError(kind ErrorKind, code, message, field string) *AuthError {
	return &AuthError{Kind: kind, Code: code, Message: message, Field: field}
}

// WithCause attaches an underlying error and returns the same AuthError
func (e *AuthError) WithCause(cause error) *AuthError {
	e.cause = cause
	return e
}

func (e *AuthError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AuthError) Unwrap() error { return e.cause }

// HTTPStatus maps the error kind to a response status
func (e *AuthError) HTTPStatus() int {
	switch e.Code {
	case ErrCodeInvalidBody:
		return http.StatusBadRequest
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	}
	switch e.Kind {
	case KindValidation, KindAuthentication:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// AsAuthError returns err as an *AuthError, wrapping anything else as an
// infrastructure error with a generic message.
func AsAuthError(err error) *AuthError {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr
	}
	return internalError("Internal server error", err)
}

// IsCode reports whether err is an AuthError with the given code
func IsCode(err error, code string) bool {
	var authErr *AuthError
	return errors.As(err, &authErr) && authErr.Code == code
}

// IsKind reports whether err is an AuthError of the given kind
func IsKind(err error, kind ErrorKind) bool {
	var authErr *AuthError
	return errors.As(err, &authErr) && authErr.Kind == kind
}

func validationError(code, message, field string) *AuthError {
	return NewAuthError(KindValidation, code, message, field)
}

func authenticationError(code, message, field string) *AuthError {
	return NewAuthError(KindAuthentication, code, message, field)
}

func internalError(message string, cause error) *AuthError {
	return NewAuthError(KindInfrastructure, ErrCodeInternal, message, "").WithCause(cause)
}

// ErrUserNotFound is returned by UserStore lookups that match nothing
var ErrUserNotFound = errors.New("user not found")

// DuplicateKeyError is returned by UserStore.Insert when a unique field
// (email or username) is already taken.
type DuplicateKeyError struct {
	Field string
	Value string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate %s: %q already exists", e.Field, e.Value)
}

// IsDuplicateKey reports whether err is a DuplicateKeyError and returns the
// offending field.
func IsDuplicateKey(err error) (field string, ok bool) {
	var dupErr *DuplicateKeyError
	if errors.As(err, &dupErr) {
		return dupErr.Field, true
	}
	return "", false
}
