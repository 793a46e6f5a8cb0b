package errors

import (
	stderrors "errors"
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	CategoryReactive  Category = "reactive"
	CategoryRender    Category = "render"
	CategoryHydration Category = "hydration"
	CategoryServer    Category = "server"
	CategoryCache     Category = "cache"
	CategoryConfig    Category = "config"
	CategoryCLI       Category = "cli"
)

// ShadowError is a structured error with a code, a suggestion and a
// documentation link.
type ShadowError struct {
	// Code is a unique error identifier (e.g., "E001").
	Code string

	// Category is the error type.
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Example is code showing the correct approach.
	Example string

	// DocURL is a link to documentation about this error.
	DocURL string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *ShadowError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = e.Code + ": " + msg
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *ShadowError) Unwrap() error {
	return e.Wrapped
}

// WithSuggestion adds a fix suggestion to the error.
func (e *ShadowError) WithSuggestion(s string) *ShadowError {
	e.Suggestion = s
	return e
}

// WithExample adds a code example to the error.
func (e *ShadowError) WithExample(ex string) *ShadowError {
	e.Example = ex
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *ShadowError) WithDetail(d string) *ShadowError {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *ShadowError) Wrap(err error) *ShadowError {
	e.Wrapped = err
	return e
}

// New creates a ShadowError from a registered error code.
func New(code string) *ShadowError {
	template, ok := registry[code]
	if !ok {
		return &ShadowError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &ShadowError{
		Code:       code,
		Category:   template.Category,
		Message:    template.Message,
		Detail:     template.Detail,
		Suggestion: template.Suggestion,
		DocURL:     template.DocURL,
	}
}

// Newf creates a new ShadowError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *ShadowError {
	return &ShadowError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a ShadowError. An error that already
// is (or wraps) a ShadowError is returned as that ShadowError. Otherwise
// the first registered sentinel err matches decides the code, and code is
// the fallback.
func FromError(err error, code string) *ShadowError {
	if err == nil {
		return nil
	}
	var se *ShadowError
	if stderrors.As(err, &se) {
		return se
	}
	if c, ok := Classify(err); ok {
		code = c
	}
	return New(code).Wrap(err)
}

// Classify returns the code registered for the first sentinel err matches.
func Classify(err error) (string, bool) {
	for _, s := range sentinels {
		if stderrors.Is(err, s.err) {
			return s.code, true
		}
	}
	return "", false
}
