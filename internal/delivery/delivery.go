// Package delivery defines the lifecycle contract shared by every server the
// process exposes.
package delivery

import "context"

// Delivery is a long-running server started by the application container.
type Delivery interface {
	// Serve blocks until the server stops.
	Serve(ctx context.Context) error
}
