package service

import (
	"context"

	"pulse/internal/domain/entity"
)

// Conn is a single established bidirectional channel to the server.
// ReadEnvelope and WriteEnvelope may be called from different goroutines, but
// each from at most one at a time.
type Conn interface {
	// ReadEnvelope blocks until the next inbound envelope arrives or the
	// connection fails.
	ReadEnvelope(ctx context.Context) (entity.Envelope, error)

	// WriteEnvelope sends an envelope to the server.
	WriteEnvelope(ctx context.Context, env entity.Envelope) error

	// Close tears down the connection. Safe to call more than once.
	Close() error
}

// Transport dials the server and performs the authenticated handshake.
// A rejected token surfaces as domainerrors.ErrAuthRejected; every other dial
// failure is transient.
type Transport interface {
	Dial(ctx context.Context, serverURL, authToken string) (Conn, error)
}
