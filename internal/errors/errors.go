// Package errors provides the error handling framework for the agentchat
// gateway. It defines common error kinds, wrapping functions, and
// classification helpers so every component reports failures the same way.
package errors

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Standard error kinds for the gateway
var (
	ErrAuthentication = errors.New("authentication error")
	ErrValidation     = errors.New("validation error")
	ErrRateLimit      = errors.New("rate limit error")
	ErrPublish        = errors.New("publish error")
	ErrConnection     = errors.New("connection error")
	ErrNotFound       = errors.New("not found error")
	ErrInternal       = errors.New("internal error")
)

// errorKind is a classified error with optional cause and details
type errorKind struct {
	base      error
	msg       string
	cause     error
	details   map[string]interface{}
	retryable bool
}

// ErrorWithDetails is implemented by errors carrying structured detail.
type ErrorWithDetails interface {
	Error() string
	Details() map[string]interface{}
}

// Error implements the error interface
func (e *errorKind) Error() string {
	if e == nil {
		return ""
	}

	out := fmt.Sprintf("%s: %s", e.base.Error(), e.msg)

	if len(e.details) > 0 {
		if detailsJSON, err := json.Marshal(e.details); err == nil {
			out += fmt.Sprintf(" - details: %s", detailsJSON)
		}
	}

	if e.cause != nil {
		out += fmt.Sprintf(" - caused by: %v", e.cause)
	}

	return out
}

// Unwrap returns the underlying cause of the error
func (e *errorKind) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Is reports whether the error is of the specified kind
func (e *errorKind) Is(target error) bool {
	if e == nil {
		return target == nil
	}
	return errors.Is(e.base, target)
}

// Details returns the structured detail attached to the error
func (e *errorKind) Details() map[string]interface{} {
	if e == nil {
		return nil
	}
	return e.details
}

// NewAuthError creates a new authentication error
func NewAuthError(msg string) error {
	return &errorKind{base: ErrAuthentication, msg: msg}
}

// NewValidationError creates a new validation error
func NewValidationError(msg string) error {
	return &errorKind{base: ErrValidation, msg: msg}
}

// NewRateLimitError creates a new rate limit error
func NewRateLimitError(msg string) error {
	return &errorKind{base: ErrRateLimit, msg: msg, retryable: true}
}

// NewPublishError creates a new publish error
func NewPublishError(msg string, cause error) error {
	return &errorKind{base: ErrPublish, msg: msg, cause: cause, retryable: true}
}

// NewConnectionError creates a new connection error
func NewConnectionError(msg string) error {
	return &errorKind{base: ErrConnection, msg: msg, retryable: true}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(msg string) error {
	return &errorKind{base: ErrNotFound, msg: msg}
}

// NewInternalError creates a new internal error
func NewInternalError(msg string) error {
	return &errorKind{base: ErrInternal, msg: msg}
}

// Wrap wraps an error with additional context, preserving its kind,
// details, and retryability. A plain error is wrapped as internal.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}

	if kind, ok := err.(*errorKind); ok {
		return &errorKind{
			base:      kind.base,
			msg:       msg + ": " + kind.msg,
			cause:     kind.cause,
			details:   kind.details,
			retryable: kind.retryable,
		}
	}

	return &errorKind{base: ErrInternal, msg: msg, cause: err}
}

// Unwrap follows the Go 1.13 error unwrapping convention
func Unwrap(err error) error {
	return errors.Unwrap(err)
}

// WithDetails attaches structured detail to an error
func WithDetails(err error, details map[string]interface{}) error {
	if err == nil {
		return nil
	}

	if kind, ok := err.(*errorKind); ok {
		return &errorKind{
			base:      kind.base,
			msg:       kind.msg,
			cause:     kind.cause,
			details:   details,
			retryable: kind.retryable,
		}
	}

	return &errorKind{base: ErrInternal, msg: err.Error(), details: details}
}

// MakeRetryable marks an error as retryable
func MakeRetryable(err error) error {
	if err == nil {
		return nil
	}

	if kind, ok := err.(*errorKind); ok {
		return &errorKind{
			base:      kind.base,
			msg:       kind.msg,
			cause:     kind.cause,
			details:   kind.details,
			retryable: true,
		}
	}

	return &errorKind{base: ErrInternal, msg: err.Error(), retryable: true}
}

// IsAuthError checks if the error is an authentication error
func IsAuthError(err error) bool {
	return err != nil && errors.Is(err, ErrAuthentication)
}

// IsValidationError checks if the error is a validation error
func IsValidationError(err error) bool {
	return err != nil && errors.Is(err, ErrValidation)
}

// IsRateLimitError checks if the error is a rate limit error
func IsRateLimitError(err error) bool {
	return err != nil && errors.Is(err, ErrRateLimit)
}

// IsPublishError checks if the error is a publish error
func IsPublishError(err error) bool {
	return err != nil && errors.Is(err, ErrPublish)
}

// IsConnectionError checks if the error is a connection error
func IsConnectionError(err error) bool {
	return err != nil && errors.Is(err, ErrConnection)
}

// IsNotFoundError checks if the error is a not found error
func IsNotFoundError(err error) bool {
	return err != nil && errors.Is(err, ErrNotFound)
}

// IsInternalError checks if the error is an internal error
func IsInternalError(err error) bool {
	return err != nil && errors.Is(err, ErrInternal)
}

// IsRetryable checks if the error is retryable
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	kind, ok := err.(*errorKind)
	return ok && kind.retryable
}

// Format returns a properly formatted error string
func Format(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// GetDetails returns error details if available, nil otherwise
func GetDetails(err error) map[string]interface{} {
	if err == nil {
		return nil
	}
	if detailed, ok := err.(ErrorWithDetails); ok {
		return detailed.Details()
	}
	return nil
}

// WithRetryOption adds a retry duration suggestion to an error
func WithRetryOption(err error, retrySeconds int) error {
	if err == nil {
		return nil
	}

	if kind, ok := err.(*errorKind); ok {
		details := kind.details
		if details == nil {
			details = make(map[string]interface{})
		}
		details["retry_after"] = retrySeconds

		return &errorKind{
			base:      kind.base,
			msg:       kind.msg,
			cause:     kind.cause,
			details:   details,
			retryable: true,
		}
	}

	return WithDetails(
		MakeRetryable(Wrap(err, "temporary failure")),
		map[string]interface{}{"retry_after": retrySeconds},
	)
}

// GetRetryOption extracts the retry duration from an error if available
func GetRetryOption(err error) (int, bool) {
	details := GetDetails(err)
	if details == nil {
		return 0, false
	}
	if retry, ok := details["retry_after"]; ok {
		if retryInt, ok := retry.(int); ok {
			return retryInt, true
		}
	}
	return 0, false
}

// ErrorResponse provides a consistent structure for error responses
type ErrorResponse struct {
	Status     string                 `json:"status"`
	Message    string                 `json:"message"`
	ErrorType  string                 `json:"error_type"`
	RetryAfter int                    `json:"retry_after,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
}

// ToErrorResponse converts an error to a standardized ErrorResponse
func ToErrorResponse(err error) ErrorResponse {
	if err == nil {
		return ErrorResponse{
			Status:  "error",
			Message: "Unknown error",
		}
	}

	response := ErrorResponse{
		Status:  "error",
		Message: Format(err),
		Details: GetDetails(err),
	}

	switch {
	case IsAuthError(err):
		response.ErrorType = "auth"
	case IsValidationError(err):
		response.ErrorType = "validation"
	case IsRateLimitError(err):
		response.ErrorType = "rate_limit"
	case IsConnectionError(err):
		response.ErrorType = "connection"
	case IsPublishError(err):
		response.ErrorType = "publish"
	case IsNotFoundError(err):
		response.ErrorType = "not_found"
	default:
		response.ErrorType = "internal"
	}

	if retry, ok := GetRetryOption(err); ok {
		response.RetryAfter = retry
	} else if IsRetryable(err) {
		response.RetryAfter = 30
	}

	return response
}
