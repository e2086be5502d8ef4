package usecase

import (
	"context"

	"pulse/internal/domain/entity"
	"pulse/internal/domain/service"
)

// PresenterUsecase translates event severity into presentation side effects
// under the user's notification preference. Presentation is fire-and-forget:
// no failure propagates back into event delivery.
type PresenterUsecase interface {
	// Present applies the preference decision table to one event.
	Present(event entity.InboundEvent)

	// RequestPermission prompts the host for notification permission. Only
	// called from an explicit user action, never silently.
	RequestPermission(ctx context.Context) (service.PermissionState, error)
}
