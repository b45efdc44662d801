// Package events defines event types and structures for delivery workflow notifications.
package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/handofflabs/handoff/pkg/models"
)

type EventType string

// Topic carries all delivery workflow notification events.
const Topic = "handoff.deliveries"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	DeliverySubmittedEvent EventType = "delivery.submitted"
	DeliveryAcceptedEvent  EventType = "delivery.accepted"
	DeliveryRejectedEvent  EventType = "delivery.rejected"
)

type BaseEvent struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	WorkItemID string         `json:"work_item_id"`
	ActorID    string         `json:"actor_id"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// DeliverySubmitted fires when a producer submits artifacts for review.
type DeliverySubmitted struct {
	BaseEvent

	ProjectID     string          `json:"project_id"`
	Kind          models.ItemKind `json:"kind"`
	ArtifactCount int             `json:"artifact_count"`
	CommitRef     string          `json:"commit_ref,omitempty"`
	ReviewerIDs   []string        `json:"reviewer_ids"`
}

func (e DeliverySubmitted) GetType() EventType {
	return DeliverySubmittedEvent
}

// DeliveryAccepted fires when a reviewer accepts a pending delivery.
type DeliveryAccepted struct {
	BaseEvent

	ProjectID   string          `json:"project_id"`
	Kind        models.ItemKind `json:"kind"`
	Note        string          `json:"note,omitempty"`
	DeliveredBy string          `json:"delivered_by"`
}

func (e DeliveryAccepted) GetType() EventType {
	return DeliveryAcceptedEvent
}

// DeliveryRejected fires when a reviewer rejects a pending delivery,
// re-opening the submission cycle.
type DeliveryRejected struct {
	BaseEvent

	ProjectID   string          `json:"project_id"`
	Kind        models.ItemKind `json:"kind"`
	Note        string          `json:"note,omitempty"`
	DeliveredBy string          `json:"delivered_by"`
}

func (e DeliveryRejected) GetType() EventType {
	return DeliveryRejectedEvent
}

func NewBaseEvent(eventType EventType, workItemID, actorID string) BaseEvent {
	return BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		WorkItemID: workItemID,
		ActorID:    actorID,
		Metadata:   make(map[string]any),
	}
}
