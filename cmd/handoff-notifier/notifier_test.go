package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/handofflabs/handoff/pkg/events"
	"github.com/handofflabs/handoff/pkg/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testTracer() trace.Tracer {
	return noop.NewTracerProvider().Tracer("test")
}

func TestNotifier_StartRegistersHandlers(t *testing.T) {
	bus := &mocks.MockEventBus{}
	bus.On("Handle", events.DeliverySubmittedEvent, mock.AnythingOfType("eventbus.EventHandler")).Return(nil)
	bus.On("Handle", events.DeliveryAcceptedEvent, mock.AnythingOfType("eventbus.EventHandler")).Return(nil)
	bus.On("Handle", events.DeliveryRejectedEvent, mock.AnythingOfType("eventbus.EventHandler")).Return(nil)
	bus.On("Subscribe", mock.Anything).Return(nil)

	notifier := NewNotifier(bus, nil, testTracer(), testLogger())

	err := notifier.Start(context.Background())
	require.NoError(t, err)

	bus.AssertExpectations(t)
}

func TestNotifier_StartFailsWhenRegistrationFails(t *testing.T) {
	bus := &mocks.MockEventBus{}
	bus.On("Handle", events.DeliverySubmittedEvent, mock.Anything).Return(errors.New("bus closed"))

	notifier := NewNotifier(bus, nil, testTracer(), testLogger())

	err := notifier.Start(context.Background())
	require.Error(t, err)

	bus.AssertNotCalled(t, "Subscribe", mock.Anything)
}

func TestNotifier_HandlersRejectUnexpectedPayloads(t *testing.T) {
	notifier := NewNotifier(nil, nil, testTracer(), testLogger())

	err := notifier.handleSubmitted(context.Background(), "not an event")
	assert.Error(t, err)

	err = notifier.handleAccepted(context.Background(), &events.DeliverySubmitted{})
	assert.Error(t, err)

	err = notifier.handleRejected(context.Background(), 42)
	assert.Error(t, err)
}
