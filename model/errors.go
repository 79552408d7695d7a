package model

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	ValidationError          ErrorCode = "ValidationError"
	UnsupportedChainError    ErrorCode = "UnsupportedChainError"
	PersistenceError         ErrorCode = "PersistenceError"
	TaskFailedError          ErrorCode = "TaskFailedError"
	InsufficientGasError     ErrorCode = "InsufficientGasError"
	NetworkCongestionError   ErrorCode = "NetworkCongestionError"
	InsufficientBalanceError ErrorCode = "InsufficientBalanceError"
	InsufficientWalletsError ErrorCode = "InsufficientWalletsError"
	NoWalletsError           ErrorCode = "NoWalletsError"
	NoNetworksError          ErrorCode = "NoNetworksError"
)

// Error carries a code from the taxonomy above so callers can branch on the kind
// of failure without string matching
type Error struct {
	Code    ErrorCode
	Message string
	Details map[string]any

	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// NewError creates a coded error, the optional details map is kept as is
func NewError(code ErrorCode, message string, details ...map[string]any) *Error {
	var detailsMap map[string]any
	if len(details) > 0 {
		detailsMap = details[0]
	}

	return &Error{
		Code:    code,
		Message: message,
		Details: detailsMap,
	}
}

// WrapError creates a coded error around an underlying cause
func WrapError(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

func NewValidationError(format string, args ...any) *Error {
	return NewError(ValidationError, fmt.Sprintf(format, args...))
}

func NewTaskFailedError(kind TaskKind, network string) *Error {
	return NewError(
		TaskFailedError,
		fmt.Sprintf("task %s failed on %s", kind, network),
		map[string]any{"kind": kind, "network": network},
	)
}

// AsError returns the coded error in the chain, if any
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsCode checks whether err carries the given code anywhere in its chain
func IsCode(err error, code ErrorCode) bool {
	if e, ok := AsError(err); ok {
		return e.Code == code
	}
	return false
}

// GetErrorCode extracts the code, or an empty code for uncoded errors
func GetErrorCode(err error) ErrorCode {
	if e, ok := AsError(err); ok {
		return e.Code
	}
	return ""
}
