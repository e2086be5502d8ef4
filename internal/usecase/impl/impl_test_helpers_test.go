package impl

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"pulse/config"
	"pulse/internal/domain/entity"
	"pulse/internal/domain/service"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Realtime.ServerURL = "ws://localhost:8080/ws"
	cfg.ApplyDefaults()

	return cfg
}

// fakeConnection is a scriptable ConnectionUsecase: tests push states, resume
// signals and inbound events through the same channels the real manager uses,
// and inspect the envelopes sent through it.
type fakeConnection struct {
	events  chan entity.InboundEvent
	states  chan entity.ConnectionState
	resumed chan struct{}

	mu      sync.Mutex
	sent    []entity.Envelope
	sendErr error
}

func newFakeConnection() *fakeConnection {
	return &fakeConnection{
		events:  make(chan entity.InboundEvent, 64),
		states:  make(chan entity.ConnectionState, 16),
		resumed: make(chan struct{}, 1),
	}
}

func (f *fakeConnection) Connect(context.Context) error { return nil }
func (f *fakeConnection) Disconnect() {}
func (f *fakeConnection) State() entity.ConnectionState { return entity.ConnectionConnected }
func (f *fakeConnection) States() <-chan entity.ConnectionState { return f.states }
func (f *fakeConnection) Events() <-chan entity.InboundEvent { return f.events }
func (f *fakeConnection) Resumed() <-chan struct{} { return f.resumed }

func (f *fakeConnection) Send(env entity.Envelope) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, env)

	return nil
}

func (f *fakeConnection) setSendErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.sendErr = err
}

func (f *fakeConnection) sentEnvelopes() []entity.Envelope {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]entity.Envelope, len(f.sent))
	copy(out, f.sent)

	return out
}

func (f *fakeConnection) pushState(state entity.ConnectionState) {
	f.states <- state
}

func (f *fakeConnection) pushResume() {
	f.resumed <- struct{}{}
}

func (f *fakeConnection) pushEvent(event entity.InboundEvent) {
	f.events <- event
}

// fakeTracker feeds positions to a room subscriber under test.
type fakeTracker struct {
	positions chan entity.Coordinate

	mu   sync.Mutex
	last *entity.Coordinate
}

func newFakeTracker() *fakeTracker {
	return &fakeTracker{positions: make(chan entity.Coordinate, 8)}
}

func (f *fakeTracker) Start(context.Context) error { return nil }
func (f *fakeTracker) Stop() {}
func (f *fakeTracker) Positions() <-chan entity.Coordinate { return f.positions }

func (f *fakeTracker) LastPosition() (entity.Coordinate, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.last == nil {
		return entity.Coordinate{}, false
	}

	return *f.last, true
}

func (f *fakeTracker) pushPosition(position entity.Coordinate) {
	f.mu.Lock()
	f.last = &position
	f.mu.Unlock()

	f.positions <- position
}

// fakePresenter records presented events without side effects.
type fakePresenter struct {
	mu        sync.Mutex
	presented []entity.InboundEvent
}

func newFakePresenter() *fakePresenter {
	return &fakePresenter{}
}

func (f *fakePresenter) Present(event entity.InboundEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.presented = append(f.presented, event)
}

func (f *fakePresenter) RequestPermission(context.Context) (service.PermissionState, error) {
	return service.PermissionGranted, nil
}

func (f *fakePresenter) presentedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.presented)
}

// fakeTransport scripts dial outcomes for the connection manager.
type fakeTransport struct {
	mu     sync.Mutex
	dials  int
	dialFn func(dial int) (service.Conn, error)
}

func newFakeTransport(dialFn func(dial int) (service.Conn, error)) *fakeTransport {
	return &fakeTransport{dialFn: dialFn}
}

func (f *fakeTransport) Dial(_ context.Context, _, _ string) (service.Conn, error) {
	f.mu.Lock()
	f.dials++
	dial := f.dials
	f.mu.Unlock()

	return f.dialFn(dial)
}

func (f *fakeTransport) dialCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.dials
}

// scriptConn is a service.Conn whose inbound traffic the test controls.
type scriptConn struct {
	reads   chan entity.Envelope
	readErr chan error

	mu     sync.Mutex
	writes []entity.Envelope
	closed bool
}

func newScriptConn() *scriptConn {
	return &scriptConn{
		reads:   make(chan entity.Envelope, 16),
		readErr: make(chan error, 1),
	}
}

func (c *scriptConn) ReadEnvelope(ctx context.Context) (entity.Envelope, error) {
	select {
	case env := <-c.reads:
		return env, nil
	case err := <-c.readErr:
		return entity.Envelope{}, err
	case <-ctx.Done():
		return entity.Envelope{}, ctx.Err()
	}
}

func (c *scriptConn) WriteEnvelope(_ context.Context, env entity.Envelope) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.writes = append(c.writes, env)

	return nil
}

func (c *scriptConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true

	return nil
}

func (c *scriptConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.closed
}

func (c *scriptConn) pushRead(env entity.Envelope) {
	c.reads <- env
}

func (c *scriptConn) failRead(err error) {
	c.readErr <- err
}
