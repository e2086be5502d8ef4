package entity

// ConnectionState describes the lifecycle of the persistent server channel.
// Exactly one instance exists per client session, owned by the connection
// manager; all other components observe it read-only.
type ConnectionState string

const (
	// ConnectionDisconnected means no channel exists and none is being opened.
	ConnectionDisconnected ConnectionState = "disconnected"

	// ConnectionConnecting means a dial/handshake is in flight.
	ConnectionConnecting ConnectionState = "connecting"

	// ConnectionConnected means the channel is established and events flow.
	ConnectionConnected ConnectionState = "connected"

	// ConnectionReconnecting means the channel dropped and a backoff-timed
	// retry is pending.
	ConnectionReconnecting ConnectionState = "reconnecting"
)

// String implements fmt.Stringer.
func (s ConnectionState) String() string {
	return string(s)
}
