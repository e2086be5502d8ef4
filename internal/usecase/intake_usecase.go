package usecase

import (
	"context"

	"pulse/internal/domain/entity"
)

// IntakeUsecase ingests inbound push events, deduplicates them by identifier
// and maintains bounded, newest-first buffers per event kind.
type IntakeUsecase interface {
	// Run consumes inbound events until the context is cancelled.
	Run(ctx context.Context) error

	// Alerts returns a newest-first snapshot of the alert buffer.
	Alerts() []entity.AlertEvent

	// Incidents returns a newest-first snapshot of the incident buffer.
	Incidents() []entity.IncidentEvent

	// System returns a newest-first snapshot of the system buffer.
	System() []entity.SystemNotification

	// UnreadCount returns the number of buffered events not yet marked read.
	UnreadCount() int

	// MarkRead flags a single buffered event read by its dedup key.
	MarkRead(id string)

	// Clear empties every buffer and resets the unread count.
	Clear()
}
