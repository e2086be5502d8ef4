package service

import (
	"context"

	"pulse/internal/domain/entity"
)

// PermissionState describes the host's notification permission.
type PermissionState string

const (
	PermissionDefault PermissionState = "default" // Never asked.
	PermissionGranted PermissionState = "granted"
	PermissionDenied  PermissionState = "denied"
)

// NotificationSink abstracts the host platform's notification channel
// (browser notification, desktop toast). Permission is requested only from an
// explicit user action, and its absence never suppresses in-app presentation.
type NotificationSink interface {
	// Permission returns the current permission state without prompting.
	Permission() PermissionState

	// RequestPermission prompts the user and returns the resulting state.
	RequestPermission(ctx context.Context) (PermissionState, error)

	// Show displays a notification. Implementations must not block on user
	// interaction.
	Show(ctx context.Context, title, message string) error
}

// SoundPlayer abstracts audio playback for alert sounds. Play must return
// promptly; actual playback may continue in the background.
type SoundPlayer interface {
	Play(ctx context.Context, severity entity.Severity, volume float64) error
}

// PreferenceStore holds the user's notification preference. The preference is
// writable at any time by the user and read by the presenter on every event.
type PreferenceStore interface {
	// Preferences returns a copy of the current preference.
	Preferences() entity.NotificationPreference

	// Update applies a mutation atomically.
	Update(mutate func(*entity.NotificationPreference))
}
