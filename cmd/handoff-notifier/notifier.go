// Package main provides the Handoff notification daemon: it consumes
// delivery workflow events and maintains the unread badge counters the UI
// polls.
package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/handofflabs/handoff/pkg/badges"
	"github.com/handofflabs/handoff/pkg/eventbus"
	"github.com/handofflabs/handoff/pkg/events"
	"github.com/handofflabs/handoff/pkg/otelhelper"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type Notifier struct {
	eventBus eventbus.EventBus
	badges   *badges.Store
	tracer   trace.Tracer
	logger   *slog.Logger
}

func NewNotifier(eventBus eventbus.EventBus, store *badges.Store, tracer trace.Tracer, logger *slog.Logger) *Notifier {
	return &Notifier{
		eventBus: eventBus,
		badges:   store,
		tracer:   tracer,
		logger:   logger,
	}
}

// Start registers the event handlers and begins consuming. A submission
// notifies the reviewing side; a decision notifies the producer who
// delivered.
func (n *Notifier) Start(ctx context.Context) error {
	err := n.eventBus.Handle(events.DeliverySubmittedEvent, n.handleSubmitted)
	if err != nil {
		return fmt.Errorf("failed to register submitted handler: %w", err)
	}

	err = n.eventBus.Handle(events.DeliveryAcceptedEvent, n.handleAccepted)
	if err != nil {
		return fmt.Errorf("failed to register accepted handler: %w", err)
	}

	err = n.eventBus.Handle(events.DeliveryRejectedEvent, n.handleRejected)
	if err != nil {
		return fmt.Errorf("failed to register rejected handler: %w", err)
	}

	return n.eventBus.Subscribe(ctx)
}

func (n *Notifier) handleSubmitted(ctx context.Context, event any) error {
	submitted, ok := event.(*events.DeliverySubmitted)
	if !ok {
		return fmt.Errorf("unexpected event payload %T", event)
	}

	ctx, span := otelhelper.StartSpan(ctx, n.tracer, "notifier.delivery_submitted",
		attribute.String(otelhelper.WorkItemIDKey, submitted.WorkItemID),
		attribute.String(otelhelper.PrincipalIDKey, submitted.ActorID),
		attribute.String(otelhelper.EventIDKey, submitted.ID),
	)
	defer span.End()

	n.logger.InfoContext(ctx, "Delivery submitted",
		"work_item_id", submitted.WorkItemID, "actor_id", submitted.ActorID)

	err := n.badges.Increment(ctx, submitted.ReviewerIDs...)
	if err != nil {
		otelhelper.SetError(span, err)

		return err
	}

	return nil
}

func (n *Notifier) handleAccepted(ctx context.Context, event any) error {
	accepted, ok := event.(*events.DeliveryAccepted)
	if !ok {
		return fmt.Errorf("unexpected event payload %T", event)
	}

	ctx, span := otelhelper.StartSpan(ctx, n.tracer, "notifier.delivery_accepted",
		attribute.String(otelhelper.WorkItemIDKey, accepted.WorkItemID),
		attribute.String(otelhelper.PrincipalIDKey, accepted.ActorID),
		attribute.String(otelhelper.EventIDKey, accepted.ID),
	)
	defer span.End()

	n.logger.InfoContext(ctx, "Delivery accepted",
		"work_item_id", accepted.WorkItemID, "actor_id", accepted.ActorID)

	err := n.badges.Increment(ctx, accepted.DeliveredBy)
	if err != nil {
		otelhelper.SetError(span, err)

		return err
	}

	return nil
}

func (n *Notifier) handleRejected(ctx context.Context, event any) error {
	rejected, ok := event.(*events.DeliveryRejected)
	if !ok {
		return fmt.Errorf("unexpected event payload %T", event)
	}

	ctx, span := otelhelper.StartSpan(ctx, n.tracer, "notifier.delivery_rejected",
		attribute.String(otelhelper.WorkItemIDKey, rejected.WorkItemID),
		attribute.String(otelhelper.PrincipalIDKey, rejected.ActorID),
		attribute.String(otelhelper.EventIDKey, rejected.ID),
	)
	defer span.End()

	n.logger.InfoContext(ctx, "Delivery rejected",
		"work_item_id", rejected.WorkItemID, "actor_id", rejected.ActorID)

	err := n.badges.Increment(ctx, rejected.DeliveredBy)
	if err != nil {
		otelhelper.SetError(span, err)

		return err
	}

	return nil
}
