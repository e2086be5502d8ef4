package entity

import "encoding/json"

// Wire event names exchanged with the server.
const (
	WireJoinLocation       = "join-location"
	WireLeaveLocation      = "leave-location"
	WireNewIncident        = "new-incident"
	WireIncidentUpdated    = "incident_updated"
	WireNewAlert           = "new-alert"
	WireAlertUpdated       = "alert_updated"
	WireEmergencyBroadcast = "emergency_broadcast"
	WireSystemNotification = "system_notification"
)

// Envelope is the framing shared by every message on the channel: a wire
// event name plus an opaque JSON payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope marshals the payload into an envelope for the given event name.
func NewEnvelope(event string, payload any) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}

	return Envelope{Event: event, Data: data}, nil
}

// JoinLocationEnvelope builds the idempotent join message for a room.
func JoinLocationEnvelope(room LocationRoom) (Envelope, error) {
	return NewEnvelope(WireJoinLocation, room.Anchor())
}

// LeaveLocationEnvelope builds the idempotent leave message for a room.
func LeaveLocationEnvelope(room LocationRoom) (Envelope, error) {
	return NewEnvelope(WireLeaveLocation, room.Anchor())
}
