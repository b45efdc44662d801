package history_test

import (
	"testing"
	"time"

	"github.com/handofflabs/handoff/pkg/history"
	"github.com/handofflabs/handoff/pkg/models"
	"github.com/handofflabs/handoff/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEntry(t *testing.T) {
	before := time.Now().UTC()
	entry := history.NewEntry("dev-1", models.HistoryActionDelivered,
		models.DeliveryStatusNone, models.DeliveryStatusPending, "first drop")
	after := time.Now().UTC()

	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, "dev-1", entry.ActorID)
	assert.Equal(t, models.HistoryActionDelivered, entry.Action)
	assert.Equal(t, models.DeliveryStatusNone, entry.FromStatus)
	assert.Equal(t, models.DeliveryStatusPending, entry.ToStatus)
	assert.Equal(t, "first drop", entry.Note)
	assert.False(t, entry.Timestamp.Before(before))
	assert.False(t, entry.Timestamp.After(after))
}

func TestRecorder_AppendsInOrder(t *testing.T) {
	recorder := history.NewRecorder()
	item := testutil.NewWorkItem()

	recorder.Record(item, history.NewEntry("dev-1", models.HistoryActionDelivered,
		models.DeliveryStatusNone, models.DeliveryStatusPending, ""))
	recorder.Record(item, history.NewEntry("reviewer-1", models.HistoryActionRejected,
		models.DeliveryStatusPending, models.DeliveryStatusRejected, "missing tests"))
	recorder.Record(item, history.NewEntry("dev-1", models.HistoryActionDelivered,
		models.DeliveryStatusRejected, models.DeliveryStatusPending, ""))

	require.Len(t, item.History, 3)
	assert.Equal(t, models.HistoryActionDelivered, item.History[0].Action)
	assert.Equal(t, models.HistoryActionRejected, item.History[1].Action)
	assert.Equal(t, models.HistoryActionDelivered, item.History[2].Action)
}

// Consecutive transitions can land on the same clock tick; the log must stay
// strictly ascending anyway.
func TestRecorder_NudgesEqualTimestamps(t *testing.T) {
	recorder := history.NewRecorder()
	item := testutil.NewWorkItem()

	stamp := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	first := history.NewEntry("dev-1", models.HistoryActionDelivered,
		models.DeliveryStatusNone, models.DeliveryStatusPending, "")
	first.Timestamp = stamp

	second := history.NewEntry("reviewer-1", models.HistoryActionApproved,
		models.DeliveryStatusPending, models.DeliveryStatusAccepted, "")
	second.Timestamp = stamp

	recorder.Record(item, first)
	recorder.Record(item, second)

	require.Len(t, item.History, 2)
	assert.True(t, item.History[1].Timestamp.After(item.History[0].Timestamp))
}

func TestRecorder_NudgesBackwardsClock(t *testing.T) {
	recorder := history.NewRecorder()
	item := testutil.NewWorkItem()

	first := history.NewEntry("dev-1", models.HistoryActionDelivered,
		models.DeliveryStatusNone, models.DeliveryStatusPending, "")

	second := history.NewEntry("reviewer-1", models.HistoryActionApproved,
		models.DeliveryStatusPending, models.DeliveryStatusAccepted, "")
	second.Timestamp = first.Timestamp.Add(-time.Second)

	recorder.Record(item, first)
	recorder.Record(item, second)

	require.Len(t, item.History, 2)
	assert.True(t, item.History[1].Timestamp.After(item.History[0].Timestamp))
}
