package usecase

import (
	"context"

	"pulse/internal/domain/entity"
)

// TrackerUsecase samples device position and emits significant moves.
type TrackerUsecase interface {
	// Start begins sampling. Non-blocking; the initial fix is obtained in the
	// background. Provider failures degrade silently: no emission, no panic.
	Start(ctx context.Context) error

	// Stop ends sampling. Safe to call from any state.
	Stop()

	// Positions streams fixes that passed the significance filter.
	Positions() <-chan entity.Coordinate

	// LastPosition returns the most recently emitted fix, if any.
	LastPosition() (entity.Coordinate, bool)
}
