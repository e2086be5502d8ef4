package usecase

import (
	"context"

	"pulse/internal/domain/entity"
)

// ConnectionUsecase owns the persistent bidirectional channel to the server:
// connect, authenticate, automatic reconnect with backoff, and teardown.
type ConnectionUsecase interface {
	// Connect starts the channel lifecycle. Non-blocking: the dial runs in
	// the background and completion is observable on States.
	Connect(ctx context.Context) error

	// Disconnect tears the channel down from any state and terminates in
	// Disconnected. Safe to call repeatedly; a stale dial that completes
	// after Disconnect is discarded.
	Disconnect()

	// State returns the current connection state.
	State() entity.ConnectionState

	// States streams connection state transitions, each broadcast once.
	States() <-chan entity.ConnectionState

	// Events streams typed inbound push events.
	Events() <-chan entity.InboundEvent

	// Resumed signals a transition into Connected after Reconnecting, so
	// dependents can re-issue subscriptions that did not survive.
	Resumed() <-chan struct{}

	// Send writes an envelope to the server. Returns an error when not
	// connected; callers treat that as a deferral, not a failure.
	Send(env entity.Envelope) error
}
