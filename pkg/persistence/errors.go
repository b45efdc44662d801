// Package persistence provides standardized error types for storage operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrWorkItemNotFound indicates a work item was not found by the given identifier.
	ErrWorkItemNotFound = errors.New("work item not found")

	// ErrWorkItemAlreadyExists indicates a work item with the same identifier already exists.
	ErrWorkItemAlreadyExists = errors.New("work item already exists")

	// ErrVersionConflict indicates a compare-and-swap write lost the race:
	// the stored version no longer matches the version the caller read.
	ErrVersionConflict = errors.New("work item version conflict")

	// ErrStoreUnavailable indicates a transient infrastructure failure during
	// a read or write. Safe to retry with backoff.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrInvalidSortField indicates an unsupported sort field was requested.
	ErrInvalidSortField = errors.New("invalid sort field")
)

// WorkItemError wraps work-item-related errors with additional context.
type WorkItemError struct {
	Op         string // Operation being performed (e.g., "GetByID", "Update")
	WorkItemID string // Work item ID if applicable
	Err        error  // Underlying error
	Message    string // Additional context message
}

func (e *WorkItemError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s operation failed for work item %s: %s (%v)", e.Op, e.WorkItemID, e.Message, e.Err)
	}

	return fmt.Sprintf("%s operation failed for work item %s: %v", e.Op, e.WorkItemID, e.Err)
}

func (e *WorkItemError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for work item errors.
func (e *WorkItemError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewWorkItemError creates a new work item error with context.
func NewWorkItemError(op, workItemID string, err error) *WorkItemError {
	return &WorkItemError{
		Op:         op,
		WorkItemID: workItemID,
		Err:        err,
	}
}

// IsWorkItemNotFound checks if an error indicates a work item was not found.
func IsWorkItemNotFound(err error) bool {
	return errors.Is(err, ErrWorkItemNotFound)
}

// IsVersionConflict checks if an error indicates a lost optimistic-concurrency race.
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrVersionConflict)
}

// IsStoreUnavailable checks if an error indicates a transient store failure.
func IsStoreUnavailable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}
