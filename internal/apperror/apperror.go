// Package apperror defines the error taxonomy shared by every layer.
//
// Three kinds of failure exist in this app:
//   - ErrUnauthenticated: no valid session. The auth gate turns it into a
//     redirect, it never reaches the client as JSON.
//   - ErrStore: any persistence failure. Fatal to the in-flight request.
//   - ErrNotFound: a record the caller asked for does not exist.
//
// A missing global counter row is NOT an error: the repositories create it
// on demand (find-or-create), so there is no sentinel for it.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrStore           = errors.New("store failure")
)

type AppError struct {
	Err     error  // sentinel, matched with errors.Is
	Message string // Human-readable error message
	Cause   error  // Optional: the lower-level error that triggered this one
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap exposes both the sentinel and the cause, so errors.Is works for
// apperror.ErrStore AND for driver errors such as sql.ErrNoRows.
func (e *AppError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Err, e.Cause}
	}
	return []error{e.Err}
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

// Unauthenticated returns an AppError for a request without a usable session.
// The auth gate maps this to a redirect to the login page.
func Unauthenticated(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthenticated,
		Message: message,
	}
}

// StoreFailure wraps a persistence error. op names the operation that failed,
// e.g. "increment global counter".
func StoreFailure(op string, cause error) *AppError {
	return &AppError{
		Err:     ErrStore,
		Message: op,
		Cause:   cause,
	}
}
