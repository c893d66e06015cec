package client

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrTransport  = errors.New("transport error")
)

// ValidationError is raised before any request is sent.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

type NotFoundError struct {
	ID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("item %d not found", e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// TransportError covers both network failures (StatusCode == 0, Err set) and
// non-2xx responses (StatusCode set).
type TransportError struct {
	Method     string
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// Network reports whether the request never produced an HTTP response.
func (e *TransportError) Network() bool { return e.StatusCode == 0 }

// BatchError reports the entries of a batch update that failed. The other
// entries were applied.
type BatchError struct {
	Failed map[int64]error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("batch update: %d of the entries failed", len(e.Failed))
}

// Unwrap exposes the per-item causes to errors.Is / errors.As.
func (e *BatchError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failed))
	for _, err := range e.Failed {
		errs = append(errs, err)
	}
	return errs
}
