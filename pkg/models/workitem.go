// Package models defines the core domain models for work-item delivery and approval.
package models

import "time"

// DeliveryStatus represents the delivery review state of a work item.
type DeliveryStatus string

const (
	DeliveryStatusNone     DeliveryStatus = "none"     // No delivery ever submitted
	DeliveryStatusPending  DeliveryStatus = "pending"  // Delivered, awaiting review
	DeliveryStatusAccepted DeliveryStatus = "accepted" // Review passed, terminal
	DeliveryStatusRejected DeliveryStatus = "rejected" // Review failed, resubmittable
)

// Valid reports whether the status is one of the closed delivery status set.
func (s DeliveryStatus) Valid() bool {
	switch s {
	case DeliveryStatusNone, DeliveryStatusPending, DeliveryStatusAccepted, DeliveryStatusRejected:
		return true
	default:
		return false
	}
}

// Terminal reports whether no further submission is legal from this status.
func (s DeliveryStatus) Terminal() bool {
	return s == DeliveryStatusAccepted
}

// LifecycleStatus represents the broader production state of a work item.
type LifecycleStatus string

const (
	LifecycleBacklog    LifecycleStatus = "backlog"
	LifecyclePlanning   LifecycleStatus = "planning"
	LifecycleInProgress LifecycleStatus = "in-progress"
	LifecycleTesting    LifecycleStatus = "testing"
	LifecycleCompleted  LifecycleStatus = "completed"
	LifecycleAccepted   LifecycleStatus = "accepted"
	LifecycleRejected   LifecycleStatus = "rejected"
	LifecycleCancelled  LifecycleStatus = "cancelled"
)

// ItemKind distinguishes the shapes of work that share the delivery workflow.
type ItemKind string

const (
	ItemKindModule ItemKind = "module"
	ItemKindStory  ItemKind = "story"
	ItemKindTask   ItemKind = "task"
)

// AcceptedLifecycle returns the lifecycle status an item of this kind
// advances to when its delivery is accepted. The delivery engine only
// guarantees delivery status correctness; the kind owns this mapping.
func (k ItemKind) AcceptedLifecycle() LifecycleStatus {
	if k == ItemKindStory {
		return LifecycleAccepted
	}

	return LifecycleCompleted
}

// Artifact is an opaque reference to a delivered file or bundle. The engine
// never interprets the reference; storage is an external concern.
type Artifact struct {
	Ref       string `json:"ref"   validate:"required"`
	Label     string `json:"label,omitempty"`
	CommitRef string `json:"commit_ref,omitempty"`
}

// WorkItem is the entity under workflow control. Modules, user stories and
// tasks share this shape for delivery purposes.
type WorkItem struct {
	ID                  string          `json:"id"`
	ProjectID           string          `json:"project_id"            validate:"required"`
	Kind                ItemKind        `json:"kind"                  validate:"required,oneof=module story task"`
	Title               string          `json:"title"                 validate:"required,min=3"`
	LifecycleStatus     LifecycleStatus `json:"lifecycle_status"`
	DeliveryStatus      DeliveryStatus  `json:"delivery_status"`
	AssigneeID          string          `json:"assignee_id"           validate:"required"`
	OperationsContactID string          `json:"operations_contact_id,omitempty"`
	ReviewerID          string          `json:"reviewer_id"`
	QAID                string          `json:"qa_id"`
	DeliveredBy         string          `json:"delivered_by,omitempty"`
	DeliveryArtifacts   []Artifact      `json:"delivery_artifacts"`
	ApprovalNote        string          `json:"approval_note,omitempty"`
	History             []HistoryEntry  `json:"history"`
	Version             int64           `json:"version"` // Optimistic concurrency token
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// IsReviewer reports whether the given principal id sits on the reviewing
// side of this item.
func (w *WorkItem) IsReviewer(principalID string) bool {
	if principalID == "" {
		return false
	}

	return principalID == w.ReviewerID || principalID == w.QAID
}

// IsProducer reports whether the given principal id is permitted to submit
// a delivery: the assignee, or the operations contact standing in for it.
func (w *WorkItem) IsProducer(principalID string) bool {
	if principalID == "" {
		return false
	}

	return principalID == w.AssigneeID || (w.OperationsContactID != "" && principalID == w.OperationsContactID)
}
