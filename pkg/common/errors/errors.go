package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Common sentinel errors
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrInternal     = errors.New("internal error")
	ErrUnauthorized = errors.New("unauthorized")

	// Structural failures. These abort a decompile call.
	ErrMalformedDocument = errors.New("malformed document")
	ErrMissingEventKey   = errors.New("missing event spec key")
	ErrMalformedTemplate = errors.New("malformed data structure template")
)

// MalformedDocumentError reports an event or template document that cannot be
// decompiled at all. Err is one of the structural sentinels above, or the
// underlying XML decoder error.
type MalformedDocumentError struct {
	Document string
	Reason   string
	Err      error
}

func (e *MalformedDocumentError) Error() string {
	msg := "malformed document"
	if e.Document != "" {
		msg = fmt.Sprintf("malformed document %q", e.Document)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedDocumentError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrMalformedDocument) match every MalformedDocumentError.
func (e *MalformedDocumentError) Is(target error) bool {
	return target == ErrMalformedDocument
}

// NewMalformed creates a MalformedDocumentError.
func NewMalformed(document, reason string, err error) *MalformedDocumentError {
	return &MalformedDocumentError{Document: document, Reason: reason, Err: err}
}

// AppError represents an application-specific error with an HTTP status code.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// MapError maps a common error to an AppError with an appropriate HTTP status code.
func MapError(err error) *AppError {
	if err == nil {
		return nil
	}

	// Check for existing AppError
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	// Map sentinel errors
	if errors.Is(err, ErrMalformedDocument) {
		return NewAppError(http.StatusUnprocessableEntity, "Malformed event rule document", err)
	}
	if errors.Is(err, ErrInvalidInput) {
		return NewAppError(http.StatusBadRequest, "Invalid request", err)
	}
	if errors.Is(err, ErrNotFound) {
		return NewAppError(http.StatusNotFound, "Resource not found", err)
	}
	if errors.Is(err, ErrUnauthorized) {
		return NewAppError(http.StatusUnauthorized, "Unauthorized", err)
	}

	// Default to internal server error
	return NewAppError(http.StatusInternalServerError, "Internal server error", err)
}
