package core

import (
	"errors"
	"net/http"
)

// RequestSegment names the part of a request a ValidationError refers to.
type RequestSegment string

const (
	SegmentBody           RequestSegment = "BODY"
	SegmentParams         RequestSegment = "PARAM"
	SegmentQuery          RequestSegment = "QUERY"
	SegmentHeaders        RequestSegment = "HEADER"
	SegmentMultipartFile  RequestSegment = "MULTIPART_FILE"
	SegmentMultipartField RequestSegment = "MULTIPART_FIELD"
	SegmentUnknown        RequestSegment = "UNKNOWN"
)

// ValidationError rejects a request because of one or more issues.
type ValidationError struct {
	Segment RequestSegment
	Issues  []ValidationIssue
}

func (e *ValidationError) Error() string {
	return "Validation error"
}

// Status returns the HTTP status for the error.
func (e *ValidationError) Status() int {
	return http.StatusBadRequest
}

func newValidationError(segment RequestSegment, issues ...ValidationIssue) *ValidationError {
	return &ValidationError{Segment: segment, Issues: issues}
}

// ServiceErrorType classifies failures of the service or its dependencies.
type ServiceErrorType string

const (
	ServiceUnavailable    ServiceErrorType = "UNAVAILABLE"
	ServiceNotImplemented ServiceErrorType = "NOT_IMPLEMENTED"
	ServiceInternal       ServiceErrorType = "INTERNAL_ERROR"
)

// Status maps the type to an HTTP status.
func (t ServiceErrorType) Status() int {
	switch t {
	case ServiceUnavailable:
		return http.StatusServiceUnavailable
	case ServiceNotImplemented:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// ServiceError reports a failure the client cannot fix by changing the request.
// Err holds the underlying cause for logging and is never shown to clients.
type ServiceError struct {
	Type ServiceErrorType
	Err  error
}

func (e *ServiceError) Error() string {
	return "Service error"
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Status returns the HTTP status for the error.
func (e *ServiceError) Status() int {
	return e.Type.Status()
}

var (
	// ErrProductNotFound is returned by stores when no product has the id.
	ErrProductNotFound = errors.New("product not found")

	// ErrNoRate is returned by rate sources that could not produce a rate.
	ErrNoRate = errors.New("exchange rate unavailable")
)
