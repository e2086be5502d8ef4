package usecase

import (
	"context"

	"pulse/internal/domain/entity"
)

// RoomUsecase maintains the invariant "at most one active location room
// membership, matching the most recent valid coordinate, while connected".
type RoomUsecase interface {
	// Run consumes positions, connection states and resume signals until the
	// context is cancelled.
	Run(ctx context.Context) error

	// ActiveRoom returns the room the server currently believes this client
	// is in, if any.
	ActiveRoom() (entity.LocationRoom, bool)
}
