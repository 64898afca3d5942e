package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// Error is a planner failure carrying its HTTP status and, for validation
// failures, the offending fields keyed by namespace.
type Error struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Status  int               `json:"status"`
	Fields  map[string]string `json:"fields,omitempty"`
	Err     error             `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// As wraps err with the code and status of kind, keeping kind's message.
func As(err error, kind *Error) *Error {
	return Wrap(err, kind.Code, kind.Status, kind.Message)
}

// Invalid wraps err as a validation failure. Rule violations reported by
// validator are listed in Fields as namespace -> tag.
func Invalid(err error, message string) *Error {
	appErr := Wrap(err, ErrValidation.Code, ErrValidation.Status, message)
	var violations validator.ValidationErrors
	if errors.As(err, &violations) {
		appErr.Fields = make(map[string]string, len(violations))
		for _, fe := range violations {
			appErr.Fields[fe.Namespace()] = fe.Tag()
		}
	}
	return appErr
}

// HasCode reports whether err normalises to the given code.
func HasCode(err error, code string) bool {
	if err == nil {
		return false
	}
	return FromError(err).Code == code
}

// Predefined errors for common scenarios.
var (
	ErrNotFound                 = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrValidation               = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal                 = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrConfigurationUnavailable = New("CONFIGURATION_UNAVAILABLE", http.StatusPreconditionFailed, "schedule configuration unavailable")
	ErrMalformedImport          = New("MALFORMED_IMPORT", http.StatusBadRequest, "backup payload is not valid JSON")
	ErrUnsupportedFormat        = New("UNSUPPORTED_FORMAT", http.StatusBadRequest, "unsupported export format")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	clone.Fields = nil
	if message != "" {
		clone.Message = message
	}
	return &clone
}
