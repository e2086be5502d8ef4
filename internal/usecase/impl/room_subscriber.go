package impl

import (
	"context"
	"log/slog"
	"sync"

	"pulse/internal/domain/entity"
	"pulse/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// roomSubscriber keeps the client's location room membership aligned with the
// most recent valid coordinate. It is the only writer of the membership; the
// connection manager and tracker feed it through one-directional channels, so
// the select loop below is the single place membership changes.
type roomSubscriber struct {
	logger     *slog.Logger
	connection usecase.ConnectionUsecase
	tracker    usecase.TrackerUsecase

	mu        sync.Mutex
	connected bool
	active    *entity.LocationRoom // Membership the server currently holds.
	desired   *entity.LocationRoom // Room matching the latest coordinate.
}

// RoomSubscriberParams holds dependencies for the room subscriber, injected by Fx.
type RoomSubscriberParams struct {
	fx.In

	Logger     *slog.Logger
	Connection usecase.ConnectionUsecase
	Tracker    usecase.TrackerUsecase
}

// NewRoomSubscriber creates the location subscription manager for one session.
func NewRoomSubscriber(params RoomSubscriberParams) usecase.RoomUsecase {
	return &roomSubscriber{
		logger:     params.Logger.With(slog.String("component", "rooms")),
		connection: params.Connection,
		tracker:    params.Tracker,
	}
}

// Run consumes positions, connection states and resume signals until the
// context is cancelled.
func (r *roomSubscriber) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return errors.WithStack(ctx.Err())

		case position, ok := <-r.tracker.Positions():
			if !ok {
				return nil
			}
			r.onPosition(position)

		case state, ok := <-r.connection.States():
			if !ok {
				return nil
			}
			r.onState(state)

		case <-r.connection.Resumed():
			r.onResume()
		}
	}
}

func (r *roomSubscriber) ActiveRoom() (entity.LocationRoom, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active == nil {
		return entity.LocationRoom{}, false
	}

	return *r.active, true
}

// onPosition recomputes the desired room. A fix inside the current cell is a
// no-op; a new cell triggers leave-then-join while connected, or is deferred
// until resume while disconnected.
func (r *roomSubscriber) onPosition(position entity.Coordinate) {
	room := entity.RoomForCoordinate(position)

	r.mu.Lock()
	if r.desired != nil && r.desired.ID == room.ID {
		r.mu.Unlock()

		return
	}
	r.desired = &room
	r.mu.Unlock()

	r.reconcile()
}

// onState tracks connectivity. Membership does not survive a dropped
// transport: the server forgets the room, so the client forgets it too.
func (r *roomSubscriber) onState(state entity.ConnectionState) {
	r.mu.Lock()
	switch state {
	case entity.ConnectionConnected:
		r.connected = true
	case entity.ConnectionDisconnected, entity.ConnectionReconnecting:
		r.connected = false
		r.active = nil
	case entity.ConnectionConnecting:
		r.connected = false
	}
	r.mu.Unlock()

	if state == entity.ConnectionConnected {
		r.reconcile()
	}
}

// onResume replays a deferred join after a reconnect. Membership was already
// forgotten when Reconnecting was observed; if the Connected transition's
// reconcile re-issued the join first, this one is a no-op, keeping the replay
// at exactly one join per resume.
func (r *roomSubscriber) onResume() {
	r.reconcile()
}

// reconcile drives the server's membership toward the desired room: leave the
// old room (if the server still holds one), then join the new one. Both wire
// messages are idempotent at the server boundary, so a duplicate caused by a
// retry race is harmless.
func (r *roomSubscriber) reconcile() {
	r.mu.Lock()
	if !r.connected || r.desired == nil {
		r.mu.Unlock()

		return
	}
	if r.active != nil && r.active.ID == r.desired.ID {
		r.mu.Unlock()

		return
	}
	leave := r.active
	join := *r.desired
	r.mu.Unlock()

	if leave != nil {
		if err := r.sendLeave(*leave); err != nil {
			r.logger.Warn("leave-location failed", slog.String("room", leave.ID), slog.Any("error", err))
		}
	}

	if err := r.sendJoin(join); err != nil {
		r.logger.Warn("join-location failed", slog.String("room", join.ID), slog.Any("error", err))
		// The join will be replayed by the next resume signal.
		r.mu.Lock()
		r.active = nil
		r.mu.Unlock()

		return
	}

	r.mu.Lock()
	r.active = &join
	r.mu.Unlock()

	r.logger.Info("joined location room", slog.String("room", join.ID))
}

func (r *roomSubscriber) sendJoin(room entity.LocationRoom) error {
	env, err := entity.JoinLocationEnvelope(room)
	if err != nil {
		return errors.WithStack(err)
	}

	return r.connection.Send(env)
}

func (r *roomSubscriber) sendLeave(room entity.LocationRoom) error {
	env, err := entity.LeaveLocationEnvelope(room)
	if err != nil {
		return errors.WithStack(err)
	}

	return r.connection.Send(env)
}
