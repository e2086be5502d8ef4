// Package transport implements the persistent server channel over a
// websocket. Auth happens during the upgrade: the bearer token rides in the
// Authorization header, and a 401/403 upgrade response or a 4401/4403 close
// code maps to the terminal auth failure class.
package transport

import (
	"context"
	"net/http"
	"sync"
	"time"

	"pulse/config"
	"pulse/internal/domain/entity"
	domainerrors "pulse/internal/domain/errors"
	"pulse/internal/domain/service"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// Close codes the server uses to signal token rejection.
const (
	closeCodeAuthRequired = 4401
	closeCodeAuthDenied   = 4403
)

type wsTransport struct {
	dialer       *websocket.Dialer
	writeTimeout time.Duration
}

// Params holds dependencies for the websocket transport, injected by Fx.
type Params struct {
	fx.In

	Config *config.Config
}

// New creates the websocket transport.
func New(params Params) service.Transport {
	return &wsTransport{
		dialer: &websocket.Dialer{
			HandshakeTimeout: params.Config.Realtime.DialTimeout,
		},
		writeTimeout: params.Config.Realtime.WriteTimeout,
	}
}

// Dial opens and authenticates the channel. The returned connection is ready
// for envelope traffic; a rejected token surfaces as ErrAuthRejected.
func (t *wsTransport) Dial(ctx context.Context, serverURL, authToken string) (service.Conn, error) {
	header := http.Header{}
	if authToken != "" {
		header.Set("Authorization", "Bearer "+authToken)
	}

	conn, resp, err := t.dialer.DialContext(ctx, serverURL, header)
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return nil, errors.Wrapf(domainerrors.ErrAuthRejected, "handshake status %d", resp.StatusCode)
		}

		return nil, errors.Wrap(err, "dial websocket")
	}

	return &wsConn{conn: conn, writeTimeout: t.writeTimeout}, nil
}

// wsConn adapts a gorilla connection to the service.Conn contract. Gorilla
// permits one concurrent reader and one concurrent writer; the write mutex
// serializes writers, reads are owned by the connection manager's read loop.
type wsConn struct {
	conn         *websocket.Conn
	writeTimeout time.Duration

	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

func (c *wsConn) ReadEnvelope(ctx context.Context) (entity.Envelope, error) {
	if deadline, ok := ctx.Deadline(); ok {
		_ = c.conn.SetReadDeadline(deadline)
	} else {
		_ = c.conn.SetReadDeadline(time.Time{})
	}

	var env entity.Envelope
	if err := c.conn.ReadJSON(&env); err != nil {
		if isAuthClose(err) {
			return entity.Envelope{}, errors.Wrap(domainerrors.ErrAuthRejected, "server closed channel")
		}

		return entity.Envelope{}, errors.Wrap(err, "read envelope")
	}

	return env, nil
}

func (c *wsConn) WriteEnvelope(ctx context.Context, env entity.Envelope) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	deadline := time.Now().Add(c.writeTimeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	_ = c.conn.SetWriteDeadline(deadline)

	return errors.Wrap(c.conn.WriteJSON(env), "write envelope")
}

func (c *wsConn) Close() error {
	c.closeOnce.Do(func() {
		message := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.conn.WriteControl(websocket.CloseMessage, message, time.Now().Add(time.Second))
		c.closeErr = c.conn.Close()
	})

	return c.closeErr
}

func isAuthClose(err error) bool {
	return websocket.IsCloseError(err, closeCodeAuthRequired, closeCodeAuthDenied)
}
