package t212

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Kind tags an *Error with its failure class. The set is closed; consumers
// switch on it when shaping tool results and never see any other class.
type Kind string

const (
	// KindAuthentication marks a rejected or missing API credential.
	KindAuthentication Kind = "AUTHENTICATION"
	// KindRateLimit marks downstream throttling (HTTP 429).
	KindRateLimit Kind = "RATE_LIMIT"
	// KindValidation marks caller-supplied input that failed schema checks.
	KindValidation Kind = "VALIDATION"
	// KindAPI marks any other non-success downstream outcome, including a
	// 2xx body that no longer matches the expected shape.
	KindAPI Kind = "API_ERROR"
	// KindUnknown marks anything that could not be classified.
	KindUnknown Kind = "UNKNOWN"
)

// Stable machine-readable codes carried alongside the kind.
const (
	CodeUnauthorized    = "unauthorized"
	CodeRateLimited     = "rate_limited"
	CodeInvalidArgs     = "invalid_arguments"
	CodeUnknownTool     = "unknown_tool"
	CodeAPIError        = "api_error"
	CodeTransport       = "transport_failure"
	CodeInvalidResponse = "invalid_response"
	CodeInternal        = "internal_error"
)

// FieldIssue pinpoints one invalid argument field.
type FieldIssue struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// RateLimitDetail carries the throttling facts reported by a 429 response.
type RateLimitDetail struct {
	Limit int       `json:"limit"`
	Reset time.Time `json:"reset"`
}

// Error is the one failure type the gateway produces. Kind is always set;
// the remaining fields depend on it: Issues accompanies Validation errors,
// RateLimit accompanies RateLimit errors, and StatusCode is set whenever a
// downstream response was actually received.
type Error struct {
	Kind       Kind             `json:"kind"`
	Code       string           `json:"code"`
	Message    string           `json:"message"`
	StatusCode int              `json:"-"`
	Issues     []FieldIssue     `json:"issues,omitempty"`
	RateLimit  *RateLimitDetail `json:"rateLimit,omitempty"`

	cause error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("t212: %s (%d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("t212: %s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying cause, when one exists.
func (e *Error) Unwrap() error { return e.cause }

// NewAuthenticationError classifies a credential the API rejected.
func NewAuthenticationError(message string) *Error {
	if message == "" {
		message = "Trading212 rejected the API key"
	}
	return &Error{
		Kind:       KindAuthentication,
		Code:       CodeUnauthorized,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

// NewRateLimitError builds the throttling error for a 429, carrying
// whatever reset and limit facts the response headers provided.
func NewRateLimitError(limit int, reset time.Time) *Error {
	msg := "Trading212 rate limit exceeded"
	if !reset.IsZero() {
		msg = fmt.Sprintf("Trading212 rate limit exceeded, window resets at %s", reset.Format(time.RFC3339))
	}
	return &Error{
		Kind:       KindRateLimit,
		Code:       CodeRateLimited,
		Message:    msg,
		StatusCode: http.StatusTooManyRequests,
		RateLimit:  &RateLimitDetail{Limit: limit, Reset: reset},
	}
}

// NewValidationError aggregates every field issue found in one pass over
// the arguments. The message lists all of them, not just the first.
func NewValidationError(issues []FieldIssue) *Error {
	parts := make([]string, len(issues))
	for i, issue := range issues {
		parts[i] = issue.Path + ": " + issue.Reason
	}
	return &Error{
		Kind:    KindValidation,
		Code:    CodeInvalidArgs,
		Message: "invalid arguments: " + strings.Join(parts, "; "),
		Issues:  issues,
	}
}

// NewUnknownToolError reports a tool name with no catalog entry.
func NewUnknownToolError(name string) *Error {
	return &Error{
		Kind:    KindValidation,
		Code:    CodeUnknownTool,
		Message: fmt.Sprintf("unknown tool %q", name),
	}
}

// NewAPIError classifies a non-2xx response that is neither 401 nor 429.
func NewAPIError(statusCode int, message string) *Error {
	if message == "" {
		message = http.StatusText(statusCode)
	}
	return &Error{
		Kind:       KindAPI,
		Code:       CodeAPIError,
		Message:    message,
		StatusCode: statusCode,
	}
}

// NewUnknownError stringifies an unclassifiable failure, typically a
// recovered panic value.
func NewUnknownError(v any) *Error {
	if err, ok := v.(error); ok {
		return &Error{Kind: KindUnknown, Code: CodeInternal, Message: err.Error(), cause: err}
	}
	return &Error{Kind: KindUnknown, Code: CodeInternal, Message: fmt.Sprint(v)}
}

// newTransportError wraps a failure to reach the API at all.
func newTransportError(method, path string, cause error) *Error {
	return &Error{
		Kind:    KindAPI,
		Code:    CodeTransport,
		Message: fmt.Sprintf("%s %s: %v", method, path, cause),
		cause:   cause,
	}
}

// newInvalidResponseError flags a 2xx body that failed shape validation.
// The remote contract changed, so this is an API failure, not the caller's.
func newInvalidResponseError(statusCode int, path string, cause error) *Error {
	return &Error{
		Kind:       KindAPI,
		Code:       CodeInvalidResponse,
		Message:    fmt.Sprintf("%s returned an unexpected response shape: %v", path, cause),
		StatusCode: statusCode,
		cause:      cause,
	}
}

// AsError extracts the typed error from err's chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Classify returns the typed error for err, wrapping anything
// unclassified as Unknown.
func Classify(err error) *Error {
	if e, ok := AsError(err); ok {
		return e
	}
	return &Error{Kind: KindUnknown, Code: CodeInternal, Message: err.Error(), cause: err}
}

// IsAuthentication reports whether err is an Authentication-kind error.
func IsAuthentication(err error) bool {
	e, ok := AsError(err)
	return ok && e.Kind == KindAuthentication
}

// IsRateLimited reports whether err is a RateLimit-kind error.
func IsRateLimited(err error) bool {
	e, ok := AsError(err)
	return ok && e.Kind == KindRateLimit
}

// IsValidation reports whether err is a Validation-kind error.
func IsValidation(err error) bool {
	e, ok := AsError(err)
	return ok && e.Kind == KindValidation
}

// IsAPIError reports whether err is an API-kind error.
func IsAPIError(err error) bool {
	e, ok := AsError(err)
	return ok && e.Kind == KindAPI
}
