package service

import (
	"context"

	"pulse/internal/domain/entity"
)

// PositionProvider abstracts the host platform's geolocation capability so the
// core stays platform-agnostic and unit-testable with fakes.
type PositionProvider interface {
	// Next blocks until the provider produces a fix, then returns it. It
	// returns domainerrors.ErrPermissionDenied when the user refused access
	// and domainerrors.ErrFixTimeout when no fix arrived in time.
	Next(ctx context.Context) (entity.Coordinate, error)
}
