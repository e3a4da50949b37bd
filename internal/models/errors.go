package models

import (
	"fmt"
	"net/http"
)

// APIError is the single error envelope returned by the gateway. Code is a
// stable machine-readable identifier, Message a human-readable explanation.
type APIError struct {
	// Code is the error identifier (e.g., "unauthorized", "upstream_error").
	Code string `json:"error"`
	// Message describes the failure for display in the UI.
	Message string `json:"message"`
	// StatusCode is the HTTP status code to return (excluded from JSON).
	StatusCode int `json:"-"`
}

// Error codes used in APIError.Code.
const (
	CodeInvalidRequest   = "invalid_request"
	CodeUnauthorized     = "unauthorized"
	CodeForbiddenOrigin  = "forbidden_origin"
	CodeNotFound         = "not_found"
	CodeMethodNotAllowed = "method_not_allowed"
	CodeUnsupportedMedia = "unsupported_media_type"
	CodeUpstreamRejected = "upstream_rejected"
	CodeUpstreamError    = "upstream_error"
	CodeGatewayTimeout   = "gateway_timeout"
	CodeServerError      = "server_error"
)

// Error returns a string representation of the API error.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Code
}

// WithMessage replaces the message and returns the same instance for chaining.
func (e *APIError) WithMessage(message string) *APIError {
	e.Message = message
	return e
}

// NewInvalidRequest reports a missing or malformed request field. Returns 400.
func NewInvalidRequest(message string) *APIError {
	return &APIError{Code: CodeInvalidRequest, Message: message, StatusCode: http.StatusBadRequest}
}

// NewUnauthorized reports missing credentials or a token rejected upstream.
// Returns 401.
func NewUnauthorized(message string) *APIError {
	return &APIError{Code: CodeUnauthorized, Message: message, StatusCode: http.StatusUnauthorized}
}

// NewForbiddenOrigin reports a cross-origin request from an origin other than
// the configured UI. Returns 403.
func NewForbiddenOrigin(origin string) *APIError {
	return &APIError{
		Code:       CodeForbiddenOrigin,
		Message:    fmt.Sprintf("origin %q is not allowed", origin),
		StatusCode: http.StatusForbidden,
	}
}

// NewUpstreamRejected wraps a 4xx answer from the school API, keeping its
// status code.
func NewUpstreamRejected(statusCode int, message string) *APIError {
	return &APIError{Code: CodeUpstreamRejected, Message: message, StatusCode: statusCode}
}

// NewUpstreamError reports a 5xx or network failure talking to the school API.
// Details are logged, never returned. Returns 500.
func NewUpstreamError(message string) *APIError {
	return &APIError{Code: CodeUpstreamError, Message: message, StatusCode: http.StatusInternalServerError}
}

// NewGatewayTimeout reports an upstream call that exceeded its deadline.
// Returns 504.
func NewGatewayTimeout(message string) *APIError {
	return &APIError{Code: CodeGatewayTimeout, Message: message, StatusCode: http.StatusGatewayTimeout}
}

// NewServerError reports an unexpected condition inside the gateway. Returns 500.
func NewServerError(message string) *APIError {
	return &APIError{Code: CodeServerError, Message: message, StatusCode: http.StatusInternalServerError}
}

// NewUnsupportedMediaType reports a POST body that is not JSON. Returns 415.
func NewUnsupportedMediaType(message string) *APIError {
	return &APIError{Code: CodeUnsupportedMedia, Message: message, StatusCode: http.StatusUnsupportedMediaType}
}

// NewNotFound reports an unknown route. Returns 404.
func NewNotFound() *APIError {
	return &APIError{Code: CodeNotFound, Message: "resource not found", StatusCode: http.StatusNotFound}
}

// NewMethodNotAllowed reports a known route called with the wrong method.
// Returns 405.
func NewMethodNotAllowed(method string) *APIError {
	return &APIError{
		Code:       CodeMethodNotAllowed,
		Message:    fmt.Sprintf("method %s is not allowed", method),
		StatusCode: http.StatusMethodNotAllowed,
	}
}
