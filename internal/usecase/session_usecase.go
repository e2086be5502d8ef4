package usecase

import (
	"context"

	"pulse/internal/domain/entity"
	"pulse/internal/domain/service"
)

// SessionStatus is a read-only projection of a running session.
type SessionStatus struct {
	SessionID       string                 `json:"sessionId"`
	ConnectionState entity.ConnectionState `json:"connectionState"`
	ActiveRoom      *entity.LocationRoom   `json:"activeRoom,omitempty"`
	UnreadCount     int                    `json:"unreadCount"`
	Uptime          string                 `json:"uptime,omitempty"`
}

// SessionUsecase is the explicit per-client session object tying the realtime
// components together. Sessions are independent: no global state is shared
// between two sessions.
type SessionUsecase interface {
	// Run starts the session's components and blocks until the context is
	// cancelled or Close is called.
	Run(ctx context.Context) error

	// Close tears the session down. Safe to call once from any state.
	Close() error

	// Status returns the current session projection.
	Status() SessionStatus

	// Alerts, Incidents and System expose newest-first buffer snapshots.
	Alerts() []entity.AlertEvent
	Incidents() []entity.IncidentEvent
	System() []entity.SystemNotification

	// MarkRead flags one buffered event read.
	MarkRead(id string)

	// RequestNotificationPermission forwards an explicit user action to the
	// presenter.
	RequestNotificationPermission(ctx context.Context) (service.PermissionState, error)

	// UpdatePreference mutates the user's notification preference.
	UpdatePreference(mutate func(*entity.NotificationPreference))

	// Preference returns the current notification preference.
	Preference() entity.NotificationPreference
}
