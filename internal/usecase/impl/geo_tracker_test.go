package impl

import (
	"context"
	"testing"
	"time"

	"pulse/config"
	"pulse/internal/domain/entity"
	domainerrors "pulse/internal/domain/errors"
	"pulse/internal/infra/geolocation"
	"pulse/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startTracker(t *testing.T, cfg *config.Config) (*geolocation.ChannelProvider, usecase.TrackerUsecase) {
	t.Helper()

	provider := geolocation.NewChannelProvider()
	tracker := NewGeoTracker(GeoTrackerParams{
		Config:   cfg,
		Logger:   testLogger(),
		Provider: provider,
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, tracker.Start(ctx))
	t.Cleanup(tracker.Stop)

	return provider, tracker
}

func feed(t *testing.T, provider *geolocation.ChannelProvider, fix entity.Coordinate) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, provider.Feed(ctx, fix))
}

func nextPosition(t *testing.T, tracker usecase.TrackerUsecase) entity.Coordinate {
	t.Helper()

	select {
	case position := <-tracker.Positions():
		return position
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a position")

		return entity.Coordinate{}
	}
}

func TestGeoTracker_SignificanceFilter(t *testing.T) {
	provider, tracker := startTracker(t, testConfig())

	// The first valid fix is always significant.
	origin := entity.Coordinate{Latitude: 25.0330, Longitude: 121.5654}
	feed(t, provider, origin)
	assert.Equal(t, origin, nextPosition(t, tracker))

	// Roughly 55m north: below the 100m threshold, suppressed.
	feed(t, provider, entity.Coordinate{Latitude: 25.0335, Longitude: 121.5654})

	// Roughly 220m north of the last emitted fix: forwarded.
	moved := entity.Coordinate{Latitude: 25.0350, Longitude: 121.5654}
	feed(t, provider, moved)
	assert.Equal(t, moved, nextPosition(t, tracker))

	last, ok := tracker.LastPosition()
	require.True(t, ok)
	assert.Equal(t, moved, last)
}

func TestGeoTracker_DiscardsInvalidAndOutOfBoundsFixes(t *testing.T) {
	cfg := testConfig()
	cfg.Geolocation.Bounds = entity.Bounds{MinLatitude: 24.9, MaxLatitude: 25.3, MinLongitude: 121.4, MaxLongitude: 121.7}
	provider, tracker := startTracker(t, cfg)

	// Out of the valid coordinate range.
	feed(t, provider, entity.Coordinate{Latitude: 95, Longitude: 0})
	// Valid but outside the supported bounds.
	feed(t, provider, entity.Coordinate{Latitude: 22.6273, Longitude: 120.3014})
	// In bounds.
	valid := entity.Coordinate{Latitude: 25.0330, Longitude: 121.5654}
	feed(t, provider, valid)

	assert.Equal(t, valid, nextPosition(t, tracker))
}

func TestGeoTracker_PermissionDeniedStopsSampling(t *testing.T) {
	provider, tracker := startTracker(t, testConfig())

	fix := entity.Coordinate{Latitude: 25.0330, Longitude: 121.5654}
	feed(t, provider, fix)
	assert.Equal(t, fix, nextPosition(t, tracker))

	failCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, provider.Fail(failCtx, domainerrors.ErrPermissionDenied))

	// Sampling stopped: nothing consumes further fixes.
	feedCtx, cancelFeed := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancelFeed()
	err := provider.Feed(feedCtx, fix)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// The last emitted position survives the denial.
	last, ok := tracker.LastPosition()
	require.True(t, ok)
	assert.Equal(t, fix, last)
}

func TestGeoTracker_StartTwiceFails(t *testing.T) {
	_, tracker := startTracker(t, testConfig())

	assert.ErrorIs(t, tracker.Start(context.Background()), ErrTrackerActive)
}
