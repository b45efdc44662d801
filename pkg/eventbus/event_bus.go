// Package eventbus provides the notification transport for delivery
// workflow events. Publishing is fire-and-forget from the engine's point of
// view: a failed publish is logged by the caller and never fails the
// mutation that triggered it.
package eventbus

import (
	"context"

	"github.com/handofflabs/handoff/pkg/events"
)

type Event interface {
	GetType() events.EventType
}

type EventPublisher interface {
	Publish(ctx context.Context, key string, event Event) error
}

type EventSubscriber interface {
	Handle(eventType events.EventType, handler EventHandler) error
	Subscribe(ctx context.Context) error
}

type EventHandler func(ctx context.Context, event any) error

type EventBus interface {
	EventPublisher
	EventSubscriber
	Close() error
	GenerateID() string
}
