// Package errors defines the categorized application error type used across
// the service.
//
// Only dataset loading and output writing can fail; the core transforms
// degrade to documented defaults instead of erroring. Errors carry a
// category, a code, an optional suggestion for the operator and a stack
// trace captured at construction.
package errors

import (
	"fmt"

	"github.com/pkg/errors"
)

// Category groups errors by subsystem.
type Category string

const (
	CategoryFile          Category = "file"
	CategoryParse         Category = "parse"
	CategoryConfiguration Category = "configuration"
	CategoryProcessing    Category = "processing"
	CategoryInternal      Category = "internal"
)

// Code identifies a specific failure within a category.
type Code string

const (
	// File errors
	CodeFileNotFound   Code = "file_not_found"
	CodeFilePermission Code = "file_permission"
	CodeFileCorrupted  Code = "file_corrupted"
	CodeWriteFailed    Code = "write_failed"

	// Parse errors
	CodeInvalidFormat Code = "invalid_format"
	CodeEmptySheet    Code = "empty_sheet"
	CodeEncodingError Code = "encoding_error"

	// Configuration errors
	CodeInvalidConfig Code = "invalid_config"

	// Processing errors
	CodeProcessingError Code = "processing_error"

	// Internal errors
	CodeUnexpectedError Code = "unexpected_error"
)

// Error is the application error type.
type Error struct {
	Category   Category          `json:"category"`
	Code       Code              `json:"code"`
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Context    Context           `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

// Context carries additional key/value detail about the failure.
type Context map[string]interface{}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// ExitCode maps the category to a process exit code.
func (e *Error) ExitCode() int {
	switch e.Category {
	case CategoryFile:
		return 2
	case CategoryParse:
		return 3
	case CategoryConfiguration:
		return 4
	case CategoryProcessing, CategoryInternal:
		return 5
	default:
		return 1
	}
}

// WithContext attaches a key/value pair to the error.
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion attaches an operator-facing hint.
func (e *Error) WithSuggestion(suggestion string) *Error {
	e.Suggestion = suggestion
	return e
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// New creates an Error with a fresh stack trace.
func New(category Category, code Code, message string) *Error {
	return &Error{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap annotates an existing error. Returns nil when err is nil.
func Wrap(err error, category Category, code Code, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

// FileError creates a file-related error for the given path.
func FileError(code Code, path string, err error) *Error {
	var message, suggestion string
	switch code {
	case CodeFileNotFound:
		message = fmt.Sprintf("file not found: %s", path)
		suggestion = "check that the file path is correct and the file exists"
	case CodeFilePermission:
		message = fmt.Sprintf("permission denied accessing file: %s", path)
		suggestion = "check file permissions and ensure you have read access"
	case CodeFileCorrupted:
		message = fmt.Sprintf("file appears to be corrupted: %s", path)
		suggestion = "verify the file opens in a spreadsheet application"
	case CodeWriteFailed:
		message = fmt.Sprintf("failed to write file: %s", path)
		suggestion = "check that the output directory exists and is writable"
	default:
		message = fmt.Sprintf("file error: %s", path)
	}

	result := Wrap(err, CategoryFile, code, message)
	if result == nil {
		result = New(CategoryFile, code, message)
	}
	return result.WithSuggestion(suggestion).WithContext("path", path)
}

// ParseError creates a parse error for the given source file.
func ParseError(code Code, path string, err error) *Error {
	var message, suggestion string
	switch code {
	case CodeInvalidFormat:
		message = fmt.Sprintf("unsupported or malformed tabular format: %s", path)
		suggestion = "supply a .csv or .xlsx file with a header row"
	case CodeEmptySheet:
		message = fmt.Sprintf("no rows found in: %s", path)
		suggestion = "check that the first sheet contains a header row and data"
	case CodeEncodingError:
		message = fmt.Sprintf("file is not valid UTF-8: %s", path)
		suggestion = "re-export the file with UTF-8 encoding"
	default:
		message = fmt.Sprintf("parse error: %s", path)
	}

	result := Wrap(err, CategoryParse, code, message)
	if result == nil {
		result = New(CategoryParse, code, message)
	}
	return result.WithSuggestion(suggestion).WithContext("path", path)
}

// ConfigError creates a configuration error.
func ConfigError(message string, err error) *Error {
	result := Wrap(err, CategoryConfiguration, CodeInvalidConfig, message)
	if result == nil {
		result = New(CategoryConfiguration, CodeInvalidConfig, message)
	}
	return result
}

// ProcessingError creates a processing error.
func ProcessingError(message string, err error) *Error {
	result := Wrap(err, CategoryProcessing, CodeProcessingError, message)
	if result == nil {
		result = New(CategoryProcessing, CodeProcessingError, message)
	}
	return result
}

// AsError extracts an *Error from err or its chain. The second return is
// false when no application error is present.
func AsError(err error) (*Error, bool) {
	for err != nil {
		if appErr, ok := err.(*Error); ok {
			return appErr, true
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = unwrapper.Unwrap()
	}
	return nil, false
}
