package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode classifies provider and pipeline failures.
type ErrorCode string

const (
	CodeMissingAPIKey         ErrorCode = "MISSING_API_KEY"
	CodeInvalidAPIKey         ErrorCode = "INVALID_API_KEY"
	CodeRateLimited           ErrorCode = "RATE_LIMITED"
	CodeSafetyFilter          ErrorCode = "SAFETY_FILTER"
	CodeRequestTimeout        ErrorCode = "REQUEST_TIMEOUT"
	CodeNetworkError          ErrorCode = "NETWORK_ERROR"
	CodeServerError           ErrorCode = "SERVER_ERROR"
	CodeEmptyResponse         ErrorCode = "EMPTY_RESPONSE"
	CodeBadRequest            ErrorCode = "BAD_REQUEST"
	CodePreservationViolation ErrorCode = "PRESERVATION_VIOLATION"
	CodeIncompleteOutput      ErrorCode = "INCOMPLETE_OUTPUT"
	CodeParseError            ErrorCode = "PARSE_ERROR"
	CodeValidationError       ErrorCode = "VALIDATION_ERROR"
)

// ProviderError is the typed failure surfaced at the AI boundary. Steps
// carries the processing-step log accumulated before the failure, for
// diagnostics.
type ProviderError struct {
	Provider string
	Code     ErrorCode
	Message  string
	Steps    []string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s: %s", e.Provider, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Code)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// CodeOf extracts the ErrorCode from err, or NETWORK_ERROR when err is not a
// ProviderError.
func CodeOf(err error) ErrorCode {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Code
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return CodeRequestTimeout
	}
	return CodeNetworkError
}

// classifyStatus maps an HTTP status from a provider API to an error code.
func classifyStatus(status int) ErrorCode {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return CodeInvalidAPIKey
	case status == http.StatusTooManyRequests:
		return CodeRateLimited
	case status == http.StatusBadRequest:
		return CodeBadRequest
	case status >= 500:
		return CodeServerError
	default:
		return CodeNetworkError
	}
}

// classifyTransport maps a transport-level error, honoring context timeouts.
func classifyTransport(err error) ErrorCode {
	if errors.Is(err, context.DeadlineExceeded) {
		return CodeRequestTimeout
	}
	if errors.Is(err, context.Canceled) {
		return CodeRequestTimeout
	}
	return CodeNetworkError
}
