// Package history builds and appends the immutable audit trail of delivery
// transitions. The recorder trusts its callers: authorization happened
// before the transition was applied.
package history

import (
	"time"

	"github.com/google/uuid"
	"github.com/handofflabs/handoff/pkg/models"
)

// NewEntry builds an audit entry for one state transition, stamped with the
// current UTC time.
func NewEntry(actorID string, action models.HistoryAction, from, to models.DeliveryStatus, note string) models.HistoryEntry {
	return models.HistoryEntry{
		ID:         uuid.New().String(),
		Timestamp:  time.Now().UTC(),
		ActorID:    actorID,
		Action:     action,
		Note:       note,
		FromStatus: from,
		ToStatus:   to,
	}
}

// Recorder appends entries to a work item's history log in commit order.
// Entries are never reordered, mutated or deduplicated.
type Recorder struct{}

// NewRecorder creates a recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Record appends the entry, keeping the log total-ordered by timestamp.
// Clock granularity can stamp two consecutive transitions identically; the
// later entry is nudged forward so ascending order stays strict.
func (r *Recorder) Record(item *models.WorkItem, entry models.HistoryEntry) {
	if n := len(item.History); n > 0 {
		last := item.History[n-1].Timestamp
		if !entry.Timestamp.After(last) {
			entry.Timestamp = last.Add(time.Nanosecond)
		}
	}

	item.History = append(item.History, entry)
}
