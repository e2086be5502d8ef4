package entity

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// Severity classifies how urgent an alert or incident is.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// ParseSeverity converts a wire severity string into a Severity.
func ParseSeverity(s string) (Severity, error) {
	switch Severity(s) {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return Severity(s), nil
	default:
		return "", errors.Errorf("unknown severity: %s", s)
	}
}

// AlertEvent represents an alert pushed by the server. Immutable once
// received; a redelivery with the same ID replaces the prior entry.
type AlertEvent struct {
	ID        string     `json:"id"`        // Unique server-assigned identifier.
	Severity  Severity   `json:"severity"`  // Urgency classification.
	Title     string     `json:"title"`     // Short alert headline.
	Message   string     `json:"message"`   // Full alert text.
	Location  Coordinate `json:"location"`  // The coordinate the alert applies to.
	CreatedAt time.Time  `json:"createdAt"` // Server-side creation timestamp.
}

// IncidentEvent represents a community-reported incident pushed by the server.
// Shares the alert shape but lives in its own buffer.
type IncidentEvent struct {
	ID        string     `json:"id"`        // Unique server-assigned identifier.
	Severity  Severity   `json:"severity"`  // Urgency classification.
	Title     string     `json:"title"`     // Short incident headline.
	Message   string     `json:"message"`   // Full incident description.
	Location  Coordinate `json:"location"`  // The coordinate the incident was reported at.
	CreatedAt time.Time  `json:"createdAt"` // Server-side creation timestamp.
}

// SystemNotification is a platform-wide message delivered to all connected
// clients regardless of location. It carries no server-assigned id; the
// (timestamp, title) pair serves as its dedup key.
type SystemNotification struct {
	Title     string    `json:"title"`     // Notification headline.
	Message   string    `json:"message"`   // Notification text.
	Timestamp time.Time `json:"timestamp"` // Server-side emission timestamp.
}

// DedupKey returns the key used to collapse redelivered system notifications.
func (n SystemNotification) DedupKey() string {
	return fmt.Sprintf("%d|%s", n.Timestamp.UnixNano(), n.Title)
}

// EventKind distinguishes the three kinds of inbound push events.
type EventKind string

const (
	EventKindAlert    EventKind = "alert"
	EventKindIncident EventKind = "incident"
	EventKindSystem   EventKind = "system"
)

// InboundEvent is a typed push event decoded from the wire. Exactly one of the
// payload fields matching Kind is set.
type InboundEvent struct {
	Kind     EventKind
	Alert    *AlertEvent
	Incident *IncidentEvent
	System   *SystemNotification
}

// Severity returns the event's severity; system notifications rank as low.
func (e InboundEvent) EventSeverity() Severity {
	switch e.Kind {
	case EventKindAlert:
		return e.Alert.Severity
	case EventKindIncident:
		return e.Incident.Severity
	default:
		return SeverityLow
	}
}

// Headline returns the title and message used for presentation.
func (e InboundEvent) Headline() (title, message string) {
	switch e.Kind {
	case EventKindAlert:
		return e.Alert.Title, e.Alert.Message
	case EventKindIncident:
		return e.Incident.Title, e.Incident.Message
	default:
		return e.System.Title, e.System.Message
	}
}
