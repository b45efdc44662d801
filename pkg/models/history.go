package models

import "time"

// HistoryAction identifies the kind of transition an audit entry records.
type HistoryAction string

const (
	HistoryActionDelivered     HistoryAction = "delivered"
	HistoryActionApproved      HistoryAction = "approved"
	HistoryActionRejected      HistoryAction = "rejected"
	HistoryActionStatusChanged HistoryAction = "status-changed"
)

// HistoryEntry is an immutable audit record of one state transition. Entries
// are appended in commit order and never mutated, removed or deduplicated.
type HistoryEntry struct {
	ID         string         `json:"id"`
	Timestamp  time.Time      `json:"timestamp"`
	ActorID    string         `json:"actor_id"`
	Action     HistoryAction  `json:"action"`
	Note       string         `json:"note,omitempty"`
	FromStatus DeliveryStatus `json:"from_status"`
	ToStatus   DeliveryStatus `json:"to_status"`
}
