package impl

import (
	"context"
	"fmt"
	"testing"
	"time"

	"pulse/internal/domain/entity"
	"pulse/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startIntake(t *testing.T) (*fakeConnection, *fakePresenter, usecase.IntakeUsecase) {
	t.Helper()

	conn := newFakeConnection()
	presenter := newFakePresenter()
	intake := NewEventIntake(EventIntakeParams{
		Config:     testConfig(),
		Logger:     testLogger(),
		Connection: conn,
		Presenter:  presenter,
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = intake.Run(ctx) }()

	return conn, presenter, intake
}

func alertEvent(id string, severity entity.Severity) entity.InboundEvent {
	return entity.InboundEvent{Kind: entity.EventKindAlert, Alert: &entity.AlertEvent{
		ID:       id,
		Severity: severity,
		Title:    "Alert " + id,
		Location: entity.Coordinate{Latitude: 25.033, Longitude: 121.5654},
	}}
}

func incidentEvent(id string, severity entity.Severity) entity.InboundEvent {
	return entity.InboundEvent{Kind: entity.EventKindIncident, Incident: &entity.IncidentEvent{
		ID:       id,
		Severity: severity,
		Title:    "Incident " + id,
		Location: entity.Coordinate{Latitude: 25.033, Longitude: 121.5654},
	}}
}

func TestEventIntake_RedeliveryReplacesEntry(t *testing.T) {
	conn, _, intake := startIntake(t)

	conn.pushEvent(alertEvent("a1", entity.SeverityCritical))
	require.Eventually(t, func() bool {
		return len(intake.Alerts()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	// An update for the same id must replace, never duplicate.
	conn.pushEvent(alertEvent("a1", entity.SeverityHigh))
	require.Eventually(t, func() bool {
		alerts := intake.Alerts()

		return len(alerts) == 1 && alerts[0].Severity == entity.SeverityHigh
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, 1, intake.UnreadCount())
}

func TestEventIntake_BufferStaysBounded(t *testing.T) {
	conn, _, intake := startIntake(t)

	for i := 0; i < 200; i++ {
		conn.pushEvent(alertEvent(fmt.Sprintf("alert-%d", i), entity.SeverityLow))
	}

	require.Eventually(t, func() bool {
		alerts := intake.Alerts()

		return len(alerts) == 50 && alerts[0].ID == "alert-199"
	}, 2*time.Second, 10*time.Millisecond)

	alerts := intake.Alerts()
	assert.Equal(t, "alert-150", alerts[49].ID)
	// Evicted events take their unread marks with them.
	assert.Equal(t, 50, intake.UnreadCount())
}

func TestEventIntake_DropsMalformedEvents(t *testing.T) {
	conn, presenter, intake := startIntake(t)

	// Missing id.
	conn.pushEvent(entity.InboundEvent{Kind: entity.EventKindAlert, Alert: &entity.AlertEvent{
		Severity: entity.SeverityHigh,
		Location: entity.Coordinate{Latitude: 25.033, Longitude: 121.5654},
	}})
	// Coordinate out of range.
	conn.pushEvent(entity.InboundEvent{Kind: entity.EventKindIncident, Incident: &entity.IncidentEvent{
		ID:       "i1",
		Severity: entity.SeverityHigh,
		Location: entity.Coordinate{Latitude: 95, Longitude: 0},
	}})
	// System notification without title.
	conn.pushEvent(entity.InboundEvent{Kind: entity.EventKindSystem, System: &entity.SystemNotification{
		Message: "no title",
	}})
	// One valid event behind the malformed ones so the test can observe that
	// the pipeline processed everything.
	conn.pushEvent(alertEvent("ok", entity.SeverityLow))

	require.Eventually(t, func() bool {
		return len(intake.Alerts()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	assert.Empty(t, intake.Incidents())
	assert.Empty(t, intake.System())
	assert.Equal(t, 1, intake.UnreadCount())
	// Only the valid event reaches presentation.
	require.Eventually(t, func() bool {
		return presenter.presentedCount() == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestEventIntake_UnreadLifecycle(t *testing.T) {
	conn, _, intake := startIntake(t)

	conn.pushEvent(alertEvent("a1", entity.SeverityHigh))
	conn.pushEvent(incidentEvent("i1", entity.SeverityMedium))
	require.Eventually(t, func() bool {
		return intake.UnreadCount() == 2
	}, 2*time.Second, 10*time.Millisecond)

	intake.MarkRead("a1")
	assert.Equal(t, 1, intake.UnreadCount())

	// A redelivery of a read event keeps its read state.
	conn.pushEvent(alertEvent("a1", entity.SeverityCritical))
	require.Eventually(t, func() bool {
		alerts := intake.Alerts()

		return len(alerts) == 1 && alerts[0].Severity == entity.SeverityCritical
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, intake.UnreadCount())

	intake.Clear()
	assert.Empty(t, intake.Alerts())
	assert.Empty(t, intake.Incidents())
	assert.Zero(t, intake.UnreadCount())
}

func TestEventIntake_SystemNotificationDedup(t *testing.T) {
	conn, _, intake := startIntake(t)

	at := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	push := func(title string, timestamp time.Time) {
		conn.pushEvent(entity.InboundEvent{Kind: entity.EventKindSystem, System: &entity.SystemNotification{
			Title:     title,
			Message:   "details",
			Timestamp: timestamp,
		}})
	}

	push("Maintenance", at)
	push("Maintenance", at) // Redelivery collapses.
	push("Maintenance", at.Add(time.Hour))

	require.Eventually(t, func() bool {
		return len(intake.System()) == 2
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, 2, intake.UnreadCount())
}

func TestEventIntake_PresentsIngestedEvents(t *testing.T) {
	conn, presenter, intake := startIntake(t)

	conn.pushEvent(alertEvent("a1", entity.SeverityCritical))
	conn.pushEvent(incidentEvent("i1", entity.SeverityLow))

	require.Eventually(t, func() bool {
		return presenter.presentedCount() == 2
	}, 2*time.Second, 10*time.Millisecond)

	assert.Len(t, intake.Alerts(), 1)
	assert.Len(t, intake.Incidents(), 1)
}
