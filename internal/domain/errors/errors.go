// Package errors defines the error types of the page-serving domain.
// Using typed errors (instead of strings) lets the HTTP layer map each
// failure kind to its own status code.
//
// Pattern: Sentinel Errors + Custom Error Types
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for page loading.
var (
	// ErrPageNotFound - запрошенная HTML страница отсутствует в корне.
	ErrPageNotFound = errors.New("page not found")
	// ErrPageRead - любая другая ошибка чтения или декодирования страницы.
	ErrPageRead = errors.New("page read failed")
	// ErrInvalidPath - путь не может быть отображён на файл внутри корня.
	ErrInvalidPath = errors.New("invalid page path")
)

// PageError wraps a page failure with the request path and the kind of
// failure (one of the sentinels above).
//
// Pattern: Error Wrapping with Context
type PageError struct {
	Path string // Request path, e.g. "/login.html"
	Kind error  // ErrPageNotFound, ErrPageRead or ErrInvalidPath
	Err  error  // Underlying error (os / fs / decode)
}

// Error implements the error interface.
func (e *PageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %v", e.Kind, e.Path, e.Err)
	}
	return fmt.Sprintf("%s %s", e.Kind, e.Path)
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *PageError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// NewPageNotFound creates a not-found page error.
func NewPageNotFound(path string, err error) *PageError {
	return &PageError{Path: path, Kind: ErrPageNotFound, Err: err}
}

// NewPageReadError creates a page error for any non-NotFound failure.
func NewPageReadError(path string, err error) *PageError {
	return &PageError{Path: path, Kind: ErrPageRead, Err: err}
}

// NewInvalidPathError creates a page error for a path outside the root.
func NewInvalidPathError(path string) *PageError {
	return &PageError{Path: path, Kind: ErrInvalidPath}
}

// Helper functions for common error checking

// IsNotFound checks if an error is a "page not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPageNotFound)
}

// IsInvalidPath checks if an error was caused by a path escaping the root.
func IsInvalidPath(err error) bool {
	return errors.Is(err, ErrInvalidPath)
}

// IsPageError checks if an error carries page context.
func IsPageError(err error) bool {
	var pe *PageError
	return errors.As(err, &pe)
}
