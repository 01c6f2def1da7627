// Package apperror defines the typed error taxonomy shared by the service
// and handler layers. Handlers translate kinds into HTTP statuses; nothing
// below the handler layer knows about HTTP.
package apperror

import (
	"errors"
	"fmt"
)

// Sentinel kinds. Wrap them with Error so errors.Is works across layers.
var (
	ErrBadRequest         = errors.New("bad request")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrInternal           = errors.New("internal error")
)

// Error carries a kind plus a caller-facing message. Message is safe to
// return to API clients; Err classifies it.
type Error struct {
	Err     error
	Message string
	Field   string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// BadRequest reports an invalid or missing input field.
func BadRequest(message string) *Error {
	return &Error{Err: ErrBadRequest, Message: message}
}

// ValidationFailed is BadRequest with the offending field attached.
func ValidationFailed(field, message string) *Error {
	return &Error{Err: ErrBadRequest, Message: message, Field: field}
}

// Unauthenticated reports a missing, malformed, or expired access token.
func Unauthenticated(message string) *Error {
	return &Error{Err: ErrUnauthenticated, Message: message}
}

// InvalidCredentials reports a failed login attempt.
func InvalidCredentials() *Error {
	return &Error{Err: ErrInvalidCredentials, Message: "invalid user credentials"}
}

// InvalidToken reports a refresh token that is missing, malformed, expired,
// or superseded by a newer one.
func InvalidToken(message string) *Error {
	return &Error{Err: ErrInvalidToken, Message: message}
}

// NotFound reports that the referenced entity does not exist.
func NotFound(resource string) *Error {
	return &Error{Err: ErrNotFound, Message: fmt.Sprintf("%s not found", resource)}
}

// Conflict reports a uniqueness violation on create.
func Conflict(message string) *Error {
	return &Error{Err: ErrConflict, Message: message}
}

// Internal wraps a dependency failure behind a generic message. The cause
// stays in the chain for logging but never reaches the client verbatim.
func Internal(cause error) *Error {
	return &Error{Err: fmt.Errorf("%w: %w", ErrInternal, cause), Message: "something went wrong, please try again"}
}
