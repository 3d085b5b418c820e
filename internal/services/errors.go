// Package services provides the business logic layer between transports and
// the analytics packages. Services validate raw input, run the computation and
// translate failures into ServiceErrors.
package services

import (
	"errors"
	"fmt"
)

// Error codes
const (
	CodeInvalidInput      = "INVALID_INPUT"
	CodeComputationFailed = "COMPUTATION_FAILED"
)

// ServiceError represents a service layer error
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Err     error                  `json:"-"`
}

func (e *ServiceError) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause, if any
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError
func NewServiceError(code, message string) *ServiceError {
	return &ServiceError{
		Code:    code,
		Message: message,
	}
}

// NewServiceErrorWithDetails creates a new ServiceError with details
func NewServiceErrorWithDetails(code, message string, details map[string]interface{}) *ServiceError {
	return &ServiceError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// NewInputError reports malformed caller input
func NewInputError(format string, args ...interface{}) *ServiceError {
	return NewServiceError(CodeInvalidInput, fmt.Sprintf(format, args...))
}

// NewComputationError reports an unexpected numeric failure. The cause is kept
// for logging but never exposed in the message.
func NewComputationError(message string, cause error) *ServiceError {
	return &ServiceError{
		Code:    CodeComputationFailed,
		Message: message,
		Err:     cause,
	}
}

// IsInputError reports whether err is, or wraps, an input ServiceError
func IsInputError(err error) bool {
	var svcErr *ServiceError
	return errors.As(err, &svcErr) && svcErr.Code == CodeInvalidInput
}

// IsComputationError reports whether err is, or wraps, a computation ServiceError
func IsComputationError(err error) bool {
	var svcErr *ServiceError
	return errors.As(err, &svcErr) && svcErr.Code == CodeComputationFailed
}
