package impl

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"pulse/config"
	"pulse/internal/domain/entity"
	domainerrors "pulse/internal/domain/errors"
	"pulse/internal/domain/service"
	"pulse/internal/usecase"

	"github.com/cenkalti/backoff/v4"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

var (
	// ErrConnectionActive is returned when Connect is called on a manager
	// whose lifecycle is already running.
	ErrConnectionActive = errors.New("connection lifecycle already active")
	// ErrNotConnected is returned by Send while no channel is established.
	// Callers treat it as a deferral, not a failure.
	ErrNotConnected = errors.New("not connected")
)

const stateChannelCapacity = 16

type connectionManager struct {
	cfg       *config.Config
	logger    *slog.Logger
	transport service.Transport
	clock     clockwork.Clock

	states  chan entity.ConnectionState
	events  chan entity.InboundEvent
	resumed chan struct{}

	mu         sync.Mutex
	state      entity.ConnectionState
	conn       service.Conn
	generation uint64
	cancelRun  context.CancelFunc
	running    bool
}

// ConnectionManagerParams holds dependencies for the connection manager, injected by Fx.
type ConnectionManagerParams struct {
	fx.In

	Config    *config.Config
	Logger    *slog.Logger
	Transport service.Transport
	Clock     clockwork.Clock
}

// NewConnectionManager creates the connection manager for one client session.
func NewConnectionManager(params ConnectionManagerParams) usecase.ConnectionUsecase {
	return &connectionManager{
		cfg:       params.Config,
		logger:    params.Logger.With(slog.String("component", "connection")),
		transport: params.Transport,
		clock:     params.Clock,
		states:    make(chan entity.ConnectionState, stateChannelCapacity),
		events:    make(chan entity.InboundEvent, params.Config.Realtime.EventBufferSize),
		resumed:   make(chan struct{}, 1),
		state:     entity.ConnectionDisconnected,
	}
}

// Connect starts the channel lifecycle in the background.
func (m *connectionManager) Connect(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()

		return ErrConnectionActive
	}
	m.running = true
	generation := m.generation
	runCtx, cancel := context.WithCancel(ctx)
	m.cancelRun = cancel
	m.setStateLocked(entity.ConnectionConnecting)
	m.mu.Unlock()

	go m.run(runCtx, generation)

	return nil
}

// Disconnect tears the channel down from any state. A stale dial or read that
// completes afterwards belongs to an older generation and is discarded.
func (m *connectionManager) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.generation++
	m.running = false
	if m.cancelRun != nil {
		m.cancelRun()
		m.cancelRun = nil
	}
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}
	m.setStateLocked(entity.ConnectionDisconnected)
}

func (m *connectionManager) State() entity.ConnectionState {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state
}

func (m *connectionManager) States() <-chan entity.ConnectionState {
	return m.states
}

func (m *connectionManager) Events() <-chan entity.InboundEvent {
	return m.events
}

func (m *connectionManager) Resumed() <-chan struct{} {
	return m.resumed
}

// Send writes an envelope on the established channel.
func (m *connectionManager) Send(env entity.Envelope) error {
	m.mu.Lock()
	conn := m.conn
	state := m.state
	m.mu.Unlock()

	if conn == nil || state != entity.ConnectionConnected {
		return ErrNotConnected
	}

	writeCtx, cancel := context.WithTimeout(context.Background(), m.cfg.Realtime.WriteTimeout)
	defer cancel()

	return errors.Wrapf(conn.WriteEnvelope(writeCtx, env), "send %s", env.Event)
}

// run drives the state machine: Connecting -> Connected -> Reconnecting ->
// Connecting, until the context is cancelled or the token is rejected.
func (m *connectionManager) run(ctx context.Context, generation uint64) {
	wasReconnecting := false
	schedule := m.newBackoff()

	for {
		conn, err := m.dial(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			if domainerrors.IsAuthRejection(err) {
				m.logger.Error("server rejected auth token; giving up", slog.Any("error", err))
				m.terminate(generation)

				return
			}

			m.logger.Warn("dial failed", slog.Any("error", err))
			wasReconnecting = true
			if !m.retry(ctx, generation, schedule) {
				return
			}

			continue
		}

		if !m.adopt(generation, conn) {
			_ = conn.Close()

			return
		}
		m.transition(generation, entity.ConnectionConnected)
		if wasReconnecting {
			m.signalResume()
		}
		schedule.Reset()

		err = m.readLoop(ctx, conn)
		m.release(generation)
		if ctx.Err() != nil {
			return
		}
		if domainerrors.IsAuthRejection(err) {
			m.logger.Error("server revoked auth mid-session; giving up", slog.Any("error", err))
			m.terminate(generation)

			return
		}

		m.logger.Warn("transport dropped", slog.Any("error", err))
		wasReconnecting = true
		if !m.retry(ctx, generation, schedule) {
			return
		}
	}
}

func (m *connectionManager) dial(ctx context.Context) (service.Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, m.cfg.Realtime.DialTimeout)
	defer cancel()

	return m.transport.Dial(dialCtx, m.cfg.Realtime.ServerURL, m.cfg.Realtime.AuthToken)
}

// retry transitions to Reconnecting, waits out the backoff interval, then
// transitions back to Connecting. Returns false when the session ended.
func (m *connectionManager) retry(ctx context.Context, generation uint64, schedule backoff.BackOff) bool {
	m.transition(generation, entity.ConnectionReconnecting)

	interval := schedule.NextBackOff()
	select {
	case <-ctx.Done():
		return false
	case <-m.clock.After(interval):
	}

	return m.transition(generation, entity.ConnectionConnecting)
}

func (m *connectionManager) readLoop(ctx context.Context, conn service.Conn) error {
	for {
		env, err := conn.ReadEnvelope(ctx)
		if err != nil {
			return err
		}

		event, ok := m.decodeInbound(env)
		if !ok {
			continue
		}

		select {
		case m.events <- event:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// adopt installs the connection unless the generation moved on (Disconnect
// raced the dial).
func (m *connectionManager) adopt(generation uint64, conn service.Conn) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.generation != generation {
		return false
	}
	m.conn = conn

	return true
}

func (m *connectionManager) release(generation uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.generation != generation {
		return
	}
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}
}

// terminate ends the lifecycle in Disconnected without retrying.
func (m *connectionManager) terminate(generation uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.generation != generation {
		return
	}
	m.running = false
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}
	m.setStateLocked(entity.ConnectionDisconnected)
}

// transition broadcasts a state change once. Returns false when the
// generation moved on and the caller should stop.
func (m *connectionManager) transition(generation uint64, state entity.ConnectionState) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.generation != generation {
		return false
	}
	m.setStateLocked(state)

	return true
}

func (m *connectionManager) setStateLocked(state entity.ConnectionState) {
	if m.state == state {
		return
	}
	m.state = state
	m.logger.Debug("connection state", slog.String("state", state.String()))

	select {
	case m.states <- state:
	default:
		m.logger.Warn("state channel full, dropping transition", slog.String("state", state.String()))
	}
}

func (m *connectionManager) signalResume() {
	select {
	case m.resumed <- struct{}{}:
	default:
	}
}

func (m *connectionManager) newBackoff() backoff.BackOff {
	schedule := backoff.NewExponentialBackOff()
	schedule.InitialInterval = m.cfg.Realtime.Backoff.InitialInterval
	schedule.Multiplier = m.cfg.Realtime.Backoff.Multiplier
	schedule.MaxInterval = m.cfg.Realtime.Backoff.MaxInterval
	schedule.RandomizationFactor = 0.2
	// Unlimited retries while the session is active.
	schedule.MaxElapsedTime = 0
	schedule.Reset()

	return schedule
}

// decodeInbound turns a wire envelope into a typed inbound event. Unknown
// event names and undecodable payloads are dropped, never propagated.
func (m *connectionManager) decodeInbound(env entity.Envelope) (entity.InboundEvent, bool) {
	switch env.Event {
	case entity.WireNewAlert, entity.WireAlertUpdated:
		alert, err := decodeAlert(env.Data)
		if err != nil {
			m.logger.Debug("dropping malformed alert", slog.Any("error", err))

			return entity.InboundEvent{}, false
		}

		return entity.InboundEvent{Kind: entity.EventKindAlert, Alert: &alert}, true

	case entity.WireEmergencyBroadcast:
		alert, err := decodeAlert(env.Data)
		if err != nil {
			m.logger.Debug("dropping malformed broadcast", slog.Any("error", err))

			return entity.InboundEvent{}, false
		}
		// Broadcasts are delivered to every client regardless of room and
		// always rank critical.
		alert.Severity = entity.SeverityCritical

		return entity.InboundEvent{Kind: entity.EventKindAlert, Alert: &alert}, true

	case entity.WireNewIncident, entity.WireIncidentUpdated:
		var incident entity.IncidentEvent
		if err := json.Unmarshal(env.Data, &incident); err != nil {
			m.logger.Debug("dropping malformed incident", slog.Any("error", err))

			return entity.InboundEvent{}, false
		}
		if _, err := entity.ParseSeverity(string(incident.Severity)); err != nil {
			m.logger.Debug("dropping incident with unknown severity", slog.String("severity", string(incident.Severity)))

			return entity.InboundEvent{}, false
		}

		return entity.InboundEvent{Kind: entity.EventKindIncident, Incident: &incident}, true

	case entity.WireSystemNotification:
		var system entity.SystemNotification
		if err := json.Unmarshal(env.Data, &system); err != nil {
			m.logger.Debug("dropping malformed system notification", slog.Any("error", err))

			return entity.InboundEvent{}, false
		}

		return entity.InboundEvent{Kind: entity.EventKindSystem, System: &system}, true

	default:
		m.logger.Debug("ignoring unknown wire event", slog.String("event", env.Event))

		return entity.InboundEvent{}, false
	}
}

func decodeAlert(data []byte) (entity.AlertEvent, error) {
	var alert entity.AlertEvent
	if err := json.Unmarshal(data, &alert); err != nil {
		return entity.AlertEvent{}, errors.WithStack(err)
	}
	if alert.Severity != "" {
		if _, err := entity.ParseSeverity(string(alert.Severity)); err != nil {
			return entity.AlertEvent{}, err
		}
	} else {
		alert.Severity = entity.SeverityCritical
	}

	return alert, nil
}
