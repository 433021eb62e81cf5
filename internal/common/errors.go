package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrDatabase     = errors.New("database error")

	// Job-level: aborts before any work is dispatched.
	ErrSourceNotFound = errors.New("source not found")
	// Recovered per item; logged only.
	ErrPerFileExtraction = errors.New("file extraction failed")
	ErrPerRowParse       = errors.New("row parse failed")
	ErrStoreWrite        = errors.New("store write failed")
	ErrNotifier          = errors.New("progress notification failed")
	// Raised to the caller of the date window parser.
	ErrDateFormatUnrecognized = errors.New("unrecognized date format")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
