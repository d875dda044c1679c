package errors

import (
	stderrors "errors"
	"fmt"
)

// NoteError is the structured error type for NoteSearch.
type NoteError struct {
	// Code is the unique error code (e.g., "ERR_404_QUERY_EMPTY").
	Code string

	// Message is the human-readable error message. For query markers it is
	// exactly the text shown to end users.
	Message string

	Category Category
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Query markers. They are returned as ordinary error values and rendered
// verbatim by every front end.
var (
	ErrEmptyQuery       = New(ErrCodeQueryEmpty, "Search query can't be null", nil)
	ErrInvalidDirectory = New(ErrCodeInvalidDirectory, "Invalid directory", nil)
)

// Error implements the error interface.
func (e *NoteError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *NoteError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a NoteError with the same code.
func (e *NoteError) Is(target error) bool {
	if t, ok := target.(*NoteError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
func (e *NoteError) WithDetail(key, value string) *NoteError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
func (e *NoteError) WithSuggestion(suggestion string) *NoteError {
	e.Suggestion = suggestion
	return e
}

// New creates a NoteError. Category and severity are derived from the code.
func New(code string, message string, cause error) *NoteError {
	return &NoteError{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Severity: severityFromCode(code),
		Cause:    cause,
	}
}

// Wrap creates a NoteError from an existing error.
func Wrap(code string, err error) *NoteError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *NoteError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// StoreError creates a storage error.
func StoreError(message string, cause error) *NoteError {
	return New(ErrCodeStoreFailed, message, cause)
}

// IndexError creates an index build error.
func IndexError(message string, cause error) *NoteError {
	return New(ErrCodeIndexFailed, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *NoteError {
	return New(ErrCodeInternal, message, cause)
}

// IsFatal checks if an error has fatal severity.
func IsFatal(err error) bool {
	var ne *NoteError
	if stderrors.As(err, &ne) {
		return ne.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from the first NoteError in the chain.
// Returns empty string if there is none.
func GetCode(err error) string {
	var ne *NoteError
	if stderrors.As(err, &ne) {
		return ne.Code
	}
	return ""
}

// Marker returns the end-user marker text for the query markers and
// false for any other error.
func Marker(err error) (string, bool) {
	switch {
	case err == nil:
		return "", false
	case stderrors.Is(err, ErrEmptyQuery):
		return ErrEmptyQuery.Message, true
	case stderrors.Is(err, ErrInvalidDirectory):
		return ErrInvalidDirectory.Message, true
	}
	return "", false
}
