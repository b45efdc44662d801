// Package services provides standardized error types for service layer operations.
package services

import (
	"errors"
	"fmt"

	"github.com/handofflabs/handoff/pkg/authz"
)

// Business logic errors. These indicate client errors (4xx responses).
var (
	// Validation errors (400 Bad Request).
	ErrNoArtifacts     = errors.New("delivery requires at least one artifact")
	ErrInvalidDecision = errors.New("decision must be accepted or rejected")
	ErrInvalidStatus   = errors.New("invalid lifecycle status")
	ErrWorkItemNil     = errors.New("work item cannot be nil")

	// Concurrency conflicts (409 Conflict). The caller should re-fetch the
	// item and re-decide; the engine never retries on its own.
	ErrDeliveryConflict = errors.New("delivery state changed concurrently")
)

// ForbiddenError is an authorization denial surfaced to the caller with the
// policy's reason intact so the UI can explain why the action is
// unavailable.
type ForbiddenError struct {
	Action authz.Action
	Reason authz.DenyReason
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("%s forbidden: %s", e.Action, e.Reason)
}

// NewForbiddenError creates a forbidden error from a policy denial.
func NewForbiddenError(action authz.Action, reason authz.DenyReason) *ForbiddenError {
	return &ForbiddenError{Action: action, Reason: reason}
}

// ForbiddenReason extracts the denial reason, if err is a ForbiddenError.
func ForbiddenReason(err error) (authz.DenyReason, bool) {
	var target *ForbiddenError
	if errors.As(err, &target) {
		return target.Reason, true
	}

	return "", false
}

// IsForbidden checks if an error is an authorization denial (403).
func IsForbidden(err error) bool {
	var target *ForbiddenError

	return errors.As(err, &target)
}

// IsValidationError checks if an error is a validation error that should return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrNoArtifacts) ||
		errors.Is(err, ErrInvalidDecision) ||
		errors.Is(err, ErrInvalidStatus) ||
		errors.Is(err, ErrWorkItemNil)
}

// IsConflictError checks if an error is a concurrency conflict that should return HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrDeliveryConflict)
}
