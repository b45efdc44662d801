package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/handofflabs/handoff/pkg/authz"
	"github.com/handofflabs/handoff/pkg/events"
	"github.com/handofflabs/handoff/pkg/eventbus"
	"github.com/handofflabs/handoff/pkg/history"
	"github.com/handofflabs/handoff/pkg/models"
	"github.com/handofflabs/handoff/pkg/persistence"
)

// ErrWorkItemNotFound is returned when a work item is not found.
var ErrWorkItemNotFound = persistence.ErrWorkItemNotFound

// SubmitRequest carries the producer's delivery submission.
type SubmitRequest struct {
	Artifacts []models.Artifact
	Note      string
	CommitRef string
}

// ApproveRequest carries the reviewer's decision on a pending delivery.
type ApproveRequest struct {
	Decision models.DeliveryStatus // accepted or rejected
	Note     string
}

// Delivery applies the delivery/approval state machine:
//
//	none → pending → accepted (terminal)
//	               → rejected → pending (resubmission loop)
//
// Every transition is authorized by the policy, validated against the
// current state, committed with a compare-and-swap write together with its
// audit entry, and announced on the event bus best-effort.
type Delivery struct {
	persistence persistence.Persistence
	recorder    *history.Recorder
	publisher   eventbus.EventPublisher
	logger      *slog.Logger
}

// NewDelivery creates the delivery service.
func NewDelivery(p persistence.Persistence, publisher eventbus.EventPublisher, logger *slog.Logger) *Delivery {
	return &Delivery{
		persistence: p,
		recorder:    history.NewRecorder(),
		publisher:   publisher,
		logger:      logger,
	}
}

// Submit transitions a work item to a pending delivery. Preconditions are
// checked in order: the item exists, the principal may submit, the
// submission has content. On success the item, its artifacts, its audit
// trail and the delivered-by marker are committed atomically.
func (d *Delivery) Submit(ctx context.Context, principal models.Principal, workItemID string, req SubmitRequest) (*models.WorkItem, error) {
	item, err := d.persistence.WorkItemRepository().GetByID(ctx, workItemID)
	if err != nil {
		return nil, err
	}

	decision := authz.Decide(principal, item, authz.ActionSubmitDelivery)
	if !decision.Allowed {
		return nil, NewForbiddenError(authz.ActionSubmitDelivery, decision.Reason)
	}

	if len(req.Artifacts) == 0 {
		return nil, ErrNoArtifacts
	}

	artifacts := make([]models.Artifact, len(req.Artifacts))
	copy(artifacts, req.Artifacts)

	if req.CommitRef != "" {
		artifacts = append(artifacts, models.Artifact{Ref: req.CommitRef, Label: "commit", CommitRef: req.CommitRef})
	}

	previous := item.DeliveryStatus
	item.DeliveryStatus = models.DeliveryStatusPending
	item.DeliveryArtifacts = artifacts
	item.DeliveredBy = principal.ID

	d.recorder.Record(item, history.NewEntry(
		principal.ID, models.HistoryActionDelivered, previous, models.DeliveryStatusPending, req.Note,
	))

	err = d.commit(ctx, item)
	if err != nil {
		return nil, err
	}

	event := events.DeliverySubmitted{
		BaseEvent:     events.NewBaseEvent(events.DeliverySubmittedEvent, item.ID, principal.ID),
		ProjectID:     item.ProjectID,
		Kind:          item.Kind,
		ArtifactCount: len(artifacts),
		CommitRef:     req.CommitRef,
		ReviewerIDs:   reviewerIDs(item),
	}
	d.notify(ctx, item.ID, event)

	return item, nil
}

// Approve resolves a pending delivery with the reviewer's decision. On
// acceptance the item's broader lifecycle advances per its kind; on
// rejection the submission cycle re-opens for the original producer.
func (d *Delivery) Approve(ctx context.Context, principal models.Principal, workItemID string, req ApproveRequest) (*models.WorkItem, error) {
	action, historyAction, err := approvalAction(req.Decision)
	if err != nil {
		return nil, err
	}

	item, err := d.persistence.WorkItemRepository().GetByID(ctx, workItemID)
	if err != nil {
		return nil, err
	}

	decision := authz.Decide(principal, item, action)
	if !decision.Allowed {
		return nil, NewForbiddenError(action, decision.Reason)
	}

	item.DeliveryStatus = req.Decision
	item.ApprovalNote = req.Note

	if req.Decision == models.DeliveryStatusAccepted {
		item.LifecycleStatus = item.Kind.AcceptedLifecycle()
	}

	d.recorder.Record(item, history.NewEntry(
		principal.ID, historyAction, models.DeliveryStatusPending, req.Decision, req.Note,
	))

	err = d.commit(ctx, item)
	if err != nil {
		return nil, err
	}

	d.notify(ctx, item.ID, approvalEvent(item, principal, req))

	return item, nil
}

// CanSubmit reports whether the principal may submit a delivery for the
// item. Read-only; delegates to the authorization policy.
func (d *Delivery) CanSubmit(ctx context.Context, principal models.Principal, workItemID string) (bool, error) {
	item, err := d.persistence.WorkItemRepository().GetByID(ctx, workItemID)
	if err != nil {
		return false, err
	}

	return authz.Decide(principal, item, authz.ActionSubmitDelivery).Allowed, nil
}

// CanApprove reports whether the principal may approve or reject the item's
// pending delivery.
func (d *Delivery) CanApprove(ctx context.Context, principal models.Principal, workItemID string) (bool, error) {
	item, err := d.persistence.WorkItemRepository().GetByID(ctx, workItemID)
	if err != nil {
		return false, err
	}

	return authz.Decide(principal, item, authz.ActionApprove).Allowed, nil
}

// commit writes the mutated item through the repository's compare-and-swap
// update, translating storage failures into service errors.
func (d *Delivery) commit(ctx context.Context, item *models.WorkItem) error {
	err := d.persistence.WorkItemRepository().Update(ctx, item)
	if err != nil {
		if persistence.IsVersionConflict(err) {
			return fmt.Errorf("%w: %w", ErrDeliveryConflict, err)
		}

		return err
	}

	return nil
}

// notify publishes the event best-effort on a context detached from the
// request: caller cancellation after commit must not suppress the
// notification, and a failed publish never fails the transition.
func (d *Delivery) notify(ctx context.Context, workItemID string, event eventbus.Event) {
	if d.publisher == nil {
		return
	}

	detached := context.WithoutCancel(ctx)

	err := d.publisher.Publish(detached, workItemID, event)
	if err != nil {
		d.logger.ErrorContext(detached, "Failed to publish delivery event",
			"event_type", event.GetType(), "work_item_id", workItemID, "error", err)
	}
}

func approvalAction(decision models.DeliveryStatus) (authz.Action, models.HistoryAction, error) {
	switch decision {
	case models.DeliveryStatusAccepted:
		return authz.ActionApprove, models.HistoryActionApproved, nil
	case models.DeliveryStatusRejected:
		return authz.ActionReject, models.HistoryActionRejected, nil
	default:
		return "", "", fmt.Errorf("%w: %q", ErrInvalidDecision, decision)
	}
}

func approvalEvent(item *models.WorkItem, principal models.Principal, req ApproveRequest) eventbus.Event {
	if req.Decision == models.DeliveryStatusAccepted {
		return events.DeliveryAccepted{
			BaseEvent:   events.NewBaseEvent(events.DeliveryAcceptedEvent, item.ID, principal.ID),
			ProjectID:   item.ProjectID,
			Kind:        item.Kind,
			Note:        req.Note,
			DeliveredBy: item.DeliveredBy,
		}
	}

	return events.DeliveryRejected{
		BaseEvent:   events.NewBaseEvent(events.DeliveryRejectedEvent, item.ID, principal.ID),
		ProjectID:   item.ProjectID,
		Kind:        item.Kind,
		Note:        req.Note,
		DeliveredBy: item.DeliveredBy,
	}
}

func reviewerIDs(item *models.WorkItem) []string {
	ids := make([]string, 0, 2)

	if item.ReviewerID != "" {
		ids = append(ids, item.ReviewerID)
	}

	if item.QAID != "" && item.QAID != item.ReviewerID {
		ids = append(ids, item.QAID)
	}

	return ids
}
