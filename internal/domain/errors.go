package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateCode indicates a write violated the unique product code.
	ErrDuplicateCode = errors.New("duplicate product code")
	// ErrNothingToRemove indicates an image removal on a record without one.
	ErrNothingToRemove = errors.New("no image to remove")
	// ErrUploadFailed indicates an asset store call failed.
	ErrUploadFailed = errors.New("asset upload failed")
	// ErrStoreUnavailable indicates a catalog connectivity failure; the
	// current unit of work is aborted with nothing committed.
	ErrStoreUnavailable = errors.New("catalog store unavailable")
)

// ValidationError reports a missing or malformed required field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// CompensationFailedError records a cleanup action that itself failed after
// a partial failure. It is logged as a warning and never changes the primary
// outcome reported to the caller.
type CompensationFailedError struct {
	Ref   string
	Cause error
}

func (e *CompensationFailedError) Error() string {
	return fmt.Sprintf("compensation failed for asset %s: %v", e.Ref, e.Cause)
}

func (e *CompensationFailedError) Unwrap() error { return e.Cause }
