package impl

import (
	"context"
	"log/slog"
	"sync"

	"time"

	"pulse/internal/domain/entity"
	"pulse/internal/domain/service"
	"pulse/internal/usecase"
	"pulse/internal/util"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// ErrSessionClosed is returned when Run is called on a closed session.
var ErrSessionClosed = errors.New("session closed")

// session is the explicit per-client session object. All collaborators are
// injected, so independent sessions (and tests) never share state.
type session struct {
	id         uuid.UUID
	logger     *slog.Logger
	connection usecase.ConnectionUsecase
	tracker    usecase.TrackerUsecase
	rooms      usecase.RoomUsecase
	intake     usecase.IntakeUsecase
	presenter  usecase.PresenterUsecase
	store      service.PreferenceStore
	clock      clockwork.Clock

	mu        sync.Mutex
	cancel    context.CancelFunc
	closed    bool
	startedAt time.Time
	stopped   chan struct{}
}

// SessionParams holds dependencies for the session, injected by Fx.
type SessionParams struct {
	fx.In

	Logger     *slog.Logger
	Connection usecase.ConnectionUsecase
	Tracker    usecase.TrackerUsecase
	Rooms      usecase.RoomUsecase
	Intake     usecase.IntakeUsecase
	Presenter  usecase.PresenterUsecase
	Store      service.PreferenceStore
	Clock      clockwork.Clock
}

// NewSession creates one client session.
func NewSession(params SessionParams) usecase.SessionUsecase {
	id := uuid.New()

	return &session{
		id:         id,
		logger:     params.Logger.With(slog.String("session_id", id.String())),
		connection: params.Connection,
		tracker:    params.Tracker,
		rooms:      params.Rooms,
		intake:     params.Intake,
		presenter:  params.Presenter,
		store:      params.Store,
		clock:      params.Clock,
		stopped:    make(chan struct{}),
	}
}

// Run starts the connection, tracking and consumer loops, then blocks until
// the context is cancelled or Close is called.
func (s *session) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()

		return ErrSessionClosed
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.startedAt = s.clock.Now()
	s.mu.Unlock()

	s.logger.Info("session starting")

	if err := s.connection.Connect(runCtx); err != nil {
		return errors.Wrap(err, "connect")
	}
	if err := s.tracker.Start(runCtx); err != nil {
		return errors.Wrap(err, "start tracker")
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := s.rooms.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("room subscriber stopped", slog.Any("error", err))
		}
	}()
	go func() {
		defer wg.Done()
		if err := s.intake.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("event intake stopped", slog.Any("error", err))
		}
	}()

	<-runCtx.Done()

	s.tracker.Stop()
	s.connection.Disconnect()
	wg.Wait()
	close(s.stopped)

	s.logger.Info("session stopped")

	return nil
}

// Close tears the session down. Safe to call once from any state; a session
// that never ran just flips to closed.
func (s *session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()

		return nil
	}
	s.closed = true
	cancel := s.cancel
	s.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	<-s.stopped

	return nil
}

func (s *session) Status() usecase.SessionStatus {
	status := usecase.SessionStatus{
		SessionID:       s.id.String(),
		ConnectionState: s.connection.State(),
		UnreadCount:     s.intake.UnreadCount(),
	}
	if room, ok := s.rooms.ActiveRoom(); ok {
		status.ActiveRoom = &room
	}

	s.mu.Lock()
	startedAt := s.startedAt
	s.mu.Unlock()
	if !startedAt.IsZero() {
		status.Uptime = util.FormatDuration(s.clock.Since(startedAt))
	}

	return status
}

func (s *session) Alerts() []entity.AlertEvent {
	return s.intake.Alerts()
}

func (s *session) Incidents() []entity.IncidentEvent {
	return s.intake.Incidents()
}

func (s *session) System() []entity.SystemNotification {
	return s.intake.System()
}

func (s *session) MarkRead(id string) {
	s.intake.MarkRead(id)
}

func (s *session) RequestNotificationPermission(ctx context.Context) (service.PermissionState, error) {
	return s.presenter.RequestPermission(ctx)
}

func (s *session) UpdatePreference(mutate func(*entity.NotificationPreference)) {
	s.store.Update(mutate)
}

func (s *session) Preference() entity.NotificationPreference {
	return s.store.Preferences()
}
