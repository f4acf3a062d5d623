// Package errors provides structured error handling with typed error codes.
//
// Error codes are organized into categories:
//   - General errors (1-99): Unknown and general errors
//   - Validation errors (100-199): Invalid parameters, strategies and periods
//   - Data/Resource errors (200-299): Missing bars, storage and query failures
//   - Indicator errors (300-399): Technical indicator calculation errors
//   - Rule errors (400-499): Rule text parsing and evaluation errors
//   - Execution errors (500-599): Order rejection and position errors
//   - Backtest errors (600-699): Backtest engine and run errors
//   - Config errors (700-799): Configuration lookup and load errors
//
// Usage:
//
//	// Create a new error
//	err := errors.New(errors.ErrCodeNoData, "no bars for symbol")
//
//	// Wrap an existing error
//	err := errors.Wrap(errors.ErrCodeQueryFailed, "failed to execute query", originalErr)
//
//	// Check error code
//	if errors.HasCode(err, errors.ErrCodeNoData) { ... }
package errors

import (
	"errors"
	"fmt"
)

// Error represents a structured error with an error code and message.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// New creates a new Error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   nil,
	}
}

// Newf creates a new Error with the given code and formatted message.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   nil,
	}
}

// Wrap wraps an existing error with a new Error containing the given code and message.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Wrapf wraps an existing error with a new Error containing the given code and formatted message.
func Wrapf(code ErrorCode, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
	}

	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether any error in err's chain matches target.
// This is a convenience wrapper around the standard errors.Is function.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
// This is a convenience wrapper around the standard errors.As function.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// GetCode extracts the ErrorCode from an error if it's an *Error type.
// Returns ErrCodeUnknown if the error is not an *Error type.
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return ErrCodeUnknown
}

// HasCode checks if an error has a specific ErrorCode.
func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// ParseError represents a rule-text parse failure. It carries the byte
// offset of the offending input so callers can render a caret line.
type ParseError struct {
	Offset  int    // Byte offset into the input where parsing failed
	Message string // Human-readable expectation, e.g. `expected "("`
	Input   string // The full input being parsed
}

// NewParseError creates a new ParseError at the given offset.
func NewParseError(input string, offset int, message string) *ParseError {
	return &ParseError{
		Offset:  offset,
		Message: message,
		Input:   input,
	}
}

// NewParseErrorf creates a new ParseError with a formatted message.
func NewParseErrorf(input string, offset int, format string, args ...any) *ParseError {
	return &ParseError{
		Offset:  offset,
		Message: fmt.Sprintf(format, args...),
		Input:   input,
	}
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at offset %d: %s", e.Offset, e.Message)
}

// Caret renders the input with a caret line pointing at the failure offset:
//
//	CROSS_ABOVE(SMA(20), SMA(50)
//	                            ^ expected ")"
func (e *ParseError) Caret() string {
	offset := e.Offset
	if offset > len(e.Input) {
		offset = len(e.Input)
	}

	pad := make([]byte, offset)
	for i := range pad {
		pad[i] = ' '
	}

	return fmt.Sprintf("%s\n%s^ %s", e.Input, string(pad), e.Message)
}

// IsParseError checks if an error is a ParseError anywhere in its chain.
func IsParseError(err error) bool {
	var parseErr *ParseError

	return errors.As(err, &parseErr)
}

// InsufficientDataError represents an error when an instrument does not have
// enough history to be admitted into a backtest run.
type InsufficientDataError struct {
	Required int    // Minimum bars required
	Actual   int    // Actual bars available
	Symbol   string // Optional: symbol context
	Message  string // Human-readable message
}

// NewInsufficientDataErrorf creates a new InsufficientDataError with a formatted message.
func NewInsufficientDataErrorf(required, actual int, symbol, format string, args ...any) *InsufficientDataError {
	return &InsufficientDataError{
		Required: required,
		Actual:   actual,
		Symbol:   symbol,
		Message:  fmt.Sprintf(format, args...),
	}
}

// Error implements the error interface.
func (e *InsufficientDataError) Error() string {
	return e.Message
}

// IsInsufficientDataError checks if an error is an InsufficientDataError.
// It uses errors.As to check the error chain.
func IsInsufficientDataError(err error) bool {
	var insufficientErr *InsufficientDataError

	return errors.As(err, &insufficientErr)
}
