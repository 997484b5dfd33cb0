package utils

import (
	"errors"
	"net/http"
)

var ErrorRecordNotFound = errors.New("record not found")

// ErrorKind classifies failures so handlers can map them to HTTP statuses
// without inspecting message strings.
type ErrorKind string

const (
	ErrorKindValidation      ErrorKind = "validation"
	ErrorKindNotFound        ErrorKind = "not_found"
	ErrorKindAuthorization   ErrorKind = "authorization"
	ErrorKindConflict        ErrorKind = "conflict"
	ErrorKindUpstreamGateway ErrorKind = "upstream_gateway"
	ErrorKindPersistence     ErrorKind = "persistence"
)

type APIError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

func NewValidationError(message string) *APIError {
	return &APIError{Kind: ErrorKindValidation, Message: message}
}

func NewNotFoundError(message string) *APIError {
	return &APIError{Kind: ErrorKindNotFound, Message: message}
}

func NewAuthorizationError(message string) *APIError {
	return &APIError{Kind: ErrorKindAuthorization, Message: message}
}

func NewConflictError(message string) *APIError {
	return &APIError{Kind: ErrorKindConflict, Message: message}
}

func NewUpstreamGatewayError(message string, err error) *APIError {
	return &APIError{Kind: ErrorKindUpstreamGateway, Message: message, Err: err}
}

// KindOf returns the error kind, defaulting to persistence for untyped
// errors so unexpected failures surface as 500s.
func KindOf(err error) ErrorKind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	if errors.Is(err, ErrorRecordNotFound) {
		return ErrorKindNotFound
	}
	return ErrorKindPersistence
}

func HTTPStatus(err error) int {
	switch KindOf(err) {
	case ErrorKindValidation, ErrorKindConflict:
		return http.StatusBadRequest
	case ErrorKindAuthorization:
		return http.StatusForbidden
	case ErrorKindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage hides internal detail for unexpected failures; typed errors
// carry user-facing messages already.
func PublicMessage(err error) string {
	switch KindOf(err) {
	case ErrorKindPersistence:
		return "an unexpected error occurred"
	case ErrorKindUpstreamGateway:
		return "payment gateway request failed"
	default:
		return err.Error()
	}
}
