package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Kind classifies a failed backend call.
type Kind int

const (
	// Unknown is any failure that fits no other kind
	Unknown Kind = iota
	// Transport is a network or connection failure, or an unreadable response
	Transport
	// NotFound means the backend has no resource with the requested id
	NotFound
	// Validation means the backend rejected the payload
	Validation
)

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case Transport:
		return "transport"
	case NotFound:
		return "not_found"
	case Validation:
		return "validation"
	default:
		return "unknown"
	}
}

// Sentinel failures for errors.Is checks.
var (
	ErrTransport  = &Failure{Kind: Transport}
	ErrNotFound   = &Failure{Kind: NotFound}
	ErrValidation = &Failure{Kind: Validation}
	ErrUnknown    = &Failure{Kind: Unknown}
)

// Failure is the single failure value produced by the resource client.
type Failure struct {
	Kind    Kind   // Kind classifies the failure
	Status  int    // Status is the HTTP status code, zero when no response was received
	Message string // Message is the backend-provided human readable text, if any
	Err     error  // Err is the underlying cause
}

// NewFailure creates a failure of the given kind.
func NewFailure(kind Kind, status int, message string, err error) *Failure {
	return &Failure{
		Kind:    kind,
		Status:  status,
		Message: message,
		Err:     err,
	}
}

// Error implements the error interface
func (f *Failure) Error() string {
	switch {
	case f.Message != "":
		return fmt.Sprintf("%s failure: %s", f.Kind, f.Message)
	case f.Err != nil:
		return fmt.Sprintf("%s failure: %v", f.Kind, f.Err)
	case f.Status != 0:
		return fmt.Sprintf("%s failure: status %d", f.Kind, f.Status)
	default:
		return fmt.Sprintf("%s failure", f.Kind)
	}
}

// Unwrap returns the wrapped error
func (f *Failure) Unwrap() error {
	return f.Err
}

// Is matches another failure of the same kind.
func (f *Failure) Is(target error) bool {
	t, ok := target.(*Failure)
	if !ok {
		return false
	}
	return t.Kind == f.Kind
}

// KindOf returns the kind of err, or Unknown when err is not a Failure.
func KindOf(err error) Kind {
	var f *Failure
	if stderrors.As(err, &f) {
		return f.Kind
	}
	return Unknown
}

// MessageOr returns the backend message carried by err, or fallback when there is none.
func MessageOr(err error, fallback string) string {
	var f *Failure
	if stderrors.As(err, &f) && f.Message != "" {
		return f.Message
	}
	return fallback
}

// KindFromStatus maps a backend HTTP status code to a failure kind.
func KindFromStatus(status int) Kind {
	switch status {
	case http.StatusNotFound:
		return NotFound
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		return Validation
	default:
		return Unknown
	}
}

// ValidationError represents a validation failure with field-level details
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// HTTPStatus returns the status code the REST layer answers with.
func (e *ValidationError) HTTPStatus() int {
	return http.StatusBadRequest
}

// NotFoundError represents a resource not found error
type NotFoundError struct {
	Resource string
	Message  string
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(resource, message string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		Message:  message,
	}
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// HTTPStatus returns the status code the REST layer answers with.
func (e *NotFoundError) HTTPStatus() int {
	return http.StatusNotFound
}

// AlreadyExistsError represents a resource already exists error
type AlreadyExistsError struct {
	Resource string
	Message  string
}

// NewAlreadyExistsError creates a new already exists error
func NewAlreadyExistsError(resource, message string) *AlreadyExistsError {
	return &AlreadyExistsError{
		Resource: resource,
		Message:  message,
	}
}

// Error implements the error interface
func (e *AlreadyExistsError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s already exists", e.Resource)
}

// HTTPStatus returns the status code the REST layer answers with.
func (e *AlreadyExistsError) HTTPStatus() int {
	return http.StatusConflict
}

// InternalError represents an internal server error with context
type InternalError struct {
	Message string
	Err     error
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *InternalError {
	return &InternalError{
		Message: message,
		Err:     err,
	}
}

// Error implements the error interface
func (e *InternalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *InternalError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the status code the REST layer answers with.
func (e *InternalError) HTTPStatus() int {
	return http.StatusInternalServerError
}

// HTTPStatuser is implemented by errors that know their REST status code.
type HTTPStatuser interface {
	HTTPStatus() int
}

// StatusOf returns the HTTP status for err, defaulting to 500.
func StatusOf(err error) int {
	var s HTTPStatuser
	if stderrors.As(err, &s) {
		return s.HTTPStatus()
	}
	return http.StatusInternalServerError
}
