package impl

import (
	"context"
	"log/slog"
	"sync"

	"pulse/config"
	"pulse/internal/domain/entity"
	"pulse/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// bufferCapacity bounds each per-kind buffer to the most recent entries.
// Eviction beyond capacity is a bounded-memory policy, not a cache.
const bufferCapacity = 50

// eventIntake consumes inbound push events, validates and deduplicates them,
// and maintains the three bounded buffers plus the derived unread count. It
// is the only writer of the buffers; the status server and session read
// snapshots under the same lock.
type eventIntake struct {
	cfg        *config.Config
	logger     *slog.Logger
	connection usecase.ConnectionUsecase
	presenter  usecase.PresenterUsecase

	mu        sync.RWMutex
	alerts    *dedupBuffer[entity.AlertEvent]
	incidents *dedupBuffer[entity.IncidentEvent]
	system    *dedupBuffer[entity.SystemNotification]
	unread    map[string]struct{}
}

// EventIntakeParams holds dependencies for the event intake, injected by Fx.
type EventIntakeParams struct {
	fx.In

	Config     *config.Config
	Logger     *slog.Logger
	Connection usecase.ConnectionUsecase
	Presenter  usecase.PresenterUsecase
}

// NewEventIntake creates the event intake for one client session. Buffers
// start empty and die with the session; nothing is refetched across restarts.
func NewEventIntake(params EventIntakeParams) usecase.IntakeUsecase {
	return &eventIntake{
		cfg:        params.Config,
		logger:     params.Logger.With(slog.String("component", "intake")),
		connection: params.Connection,
		presenter:  params.Presenter,
		alerts:     newDedupBuffer[entity.AlertEvent](bufferCapacity),
		incidents:  newDedupBuffer[entity.IncidentEvent](bufferCapacity),
		system:     newDedupBuffer[entity.SystemNotification](bufferCapacity),
		unread:     make(map[string]struct{}),
	}
}

// Run consumes inbound events until the context is cancelled.
func (in *eventIntake) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return errors.WithStack(ctx.Err())

		case event, ok := <-in.connection.Events():
			if !ok {
				return nil
			}
			if !in.ingest(event) {
				continue
			}
			// Presentation is fire-and-forget: a slow or failing sink must
			// never block event delivery.
			go in.presenter.Present(event)
		}
	}
}

// ingest validates and buffers one event. Malformed events are dropped before
// touching any buffer or the dedup index.
func (in *eventIntake) ingest(event entity.InboundEvent) bool {
	in.mu.Lock()
	defer in.mu.Unlock()

	switch event.Kind {
	case entity.EventKindAlert:
		if err := validateGeoEvent(event.Alert.ID, event.Alert.Location); err != nil {
			in.logger.Debug("dropping alert", slog.Any("error", err))

			return false
		}
		in.upsertUnread(splitUpsert(in.alerts.Upsert(event.Alert.ID, *event.Alert)), event.Alert.ID)

	case entity.EventKindIncident:
		if err := validateGeoEvent(event.Incident.ID, event.Incident.Location); err != nil {
			in.logger.Debug("dropping incident", slog.Any("error", err))

			return false
		}
		in.upsertUnread(splitUpsert(in.incidents.Upsert(event.Incident.ID, *event.Incident)), event.Incident.ID)

	case entity.EventKindSystem:
		if event.System.Title == "" {
			in.logger.Debug("dropping system notification without title")

			return false
		}
		key := event.System.DedupKey()
		in.upsertUnread(splitUpsert(in.system.Upsert(key, *event.System)), key)

	default:
		in.logger.Debug("dropping event of unknown kind", slog.String("kind", string(event.Kind)))

		return false
	}

	return true
}

// upsertUnread keeps the unread set aligned with buffer mutations: a fresh
// entry becomes unread, a replacement keeps its read state, an eviction takes
// its unread mark with it.
func (in *eventIntake) upsertUnread(result upsertResult, key string) {
	if result.inserted {
		in.unread[key] = struct{}{}
	}
	if result.hadEviction {
		delete(in.unread, result.evicted)
	}
}

func (in *eventIntake) Alerts() []entity.AlertEvent {
	in.mu.RLock()
	defer in.mu.RUnlock()

	return in.alerts.Snapshot()
}

func (in *eventIntake) Incidents() []entity.IncidentEvent {
	in.mu.RLock()
	defer in.mu.RUnlock()

	return in.incidents.Snapshot()
}

func (in *eventIntake) System() []entity.SystemNotification {
	in.mu.RLock()
	defer in.mu.RUnlock()

	return in.system.Snapshot()
}

func (in *eventIntake) UnreadCount() int {
	in.mu.RLock()
	defer in.mu.RUnlock()

	return len(in.unread)
}

// MarkRead flags a single buffered event read. Targeted by id so a concurrent
// redelivery of the same id cannot resurrect a bulk-cleared flag.
func (in *eventIntake) MarkRead(id string) {
	in.mu.Lock()
	defer in.mu.Unlock()

	delete(in.unread, id)
}

// Clear empties every buffer, e.g. on explicit user action or session end.
func (in *eventIntake) Clear() {
	in.mu.Lock()
	defer in.mu.Unlock()

	in.alerts.Clear()
	in.incidents.Clear()
	in.system.Clear()
	in.unread = make(map[string]struct{})
}

// upsertResult carries a dedupBuffer.Upsert outcome through the unread
// bookkeeping.
type upsertResult struct {
	inserted    bool
	evicted     string
	hadEviction bool
}

func splitUpsert(inserted bool, evicted string, hadEviction bool) upsertResult {
	return upsertResult{inserted: inserted, evicted: evicted, hadEviction: hadEviction}
}

func validateGeoEvent(id string, location entity.Coordinate) error {
	if id == "" {
		return errors.New("missing id")
	}

	return location.Validate()
}
