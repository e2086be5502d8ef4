package impl

import (
	"context"
	"log/slog"
	"sync"

	"pulse/config"
	"pulse/internal/domain/entity"
	domainerrors "pulse/internal/domain/errors"
	"pulse/internal/domain/service"
	"pulse/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// ErrTrackerActive is returned when Start is called on a running tracker.
var ErrTrackerActive = errors.New("geolocation tracker already active")

type geoTracker struct {
	cfg      *config.Config
	logger   *slog.Logger
	provider service.PositionProvider

	positions chan entity.Coordinate

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	last    *entity.Coordinate
}

// GeoTrackerParams holds dependencies for the geolocation tracker, injected by Fx.
type GeoTrackerParams struct {
	fx.In

	Config   *config.Config
	Logger   *slog.Logger
	Provider service.PositionProvider
}

// NewGeoTracker creates the geolocation tracker for one client session.
func NewGeoTracker(params GeoTrackerParams) usecase.TrackerUsecase {
	return &geoTracker{
		cfg:       params.Config,
		logger:    params.Logger.With(slog.String("component", "geotracker")),
		provider:  params.Provider,
		positions: make(chan entity.Coordinate, 8),
	}
}

// Start begins sampling in the background.
func (t *geoTracker) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return ErrTrackerActive
	}
	t.running = true
	runCtx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	go t.sample(runCtx)

	return nil
}

// Stop ends sampling. Safe to call from any state.
func (t *geoTracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	t.running = false
}

func (t *geoTracker) Positions() <-chan entity.Coordinate {
	return t.positions
}

func (t *geoTracker) LastPosition() (entity.Coordinate, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.last == nil {
		return entity.Coordinate{}, false
	}

	return *t.last, true
}

// sample pulls fixes from the provider, discards invalid ones and forwards
// those that pass the significance filter. Provider failure never crashes the
// pipeline: downstream simply receives no further updates.
func (t *geoTracker) sample(ctx context.Context) {
	for {
		fixCtx, cancel := context.WithTimeout(ctx, t.cfg.Geolocation.FixTimeout)
		fix, err := t.provider.Next(fixCtx)
		cancel()

		if ctx.Err() != nil {
			return
		}
		if err != nil {
			switch domainerrors.KindOf(err) {
			case domainerrors.KindGeolocation:
				if errors.Is(err, domainerrors.ErrPermissionDenied) {
					t.logger.Warn("geolocation permission denied, sampling stopped")

					return
				}
				t.logger.Warn("geolocation fix failed", slog.Any("error", err))
			default:
				t.logger.Warn("position provider error", slog.Any("error", err))
			}

			continue
		}

		if !t.accept(fix) {
			continue
		}

		select {
		case t.positions <- fix:
		case <-ctx.Done():
			return
		}
	}
}

// accept validates a fix and applies the significance filter against the last
// emitted fix. The first valid fix is always significant.
func (t *geoTracker) accept(fix entity.Coordinate) bool {
	if err := fix.Validate(); err != nil {
		t.logger.Debug("discarding invalid fix", slog.Any("error", err))

		return false
	}
	if !t.cfg.Geolocation.Bounds.Contains(fix) {
		t.logger.Debug("discarding fix outside supported bounds",
			slog.Float64("lat", fix.Latitude), slog.Float64("lng", fix.Longitude))

		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.last != nil && t.last.DistanceMeters(fix) <= t.cfg.Geolocation.SignificanceMeters {
		return false
	}
	t.last = &fix

	return true
}
