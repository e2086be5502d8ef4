// Package geolocation provides PositionProvider implementations. The host
// platform's geolocation capability stays behind the interface; these
// providers cover the CLI (scripted replay) and programmatic feeds.
package geolocation

import (
	"context"
	"sync"
	"time"

	"pulse/config"
	"pulse/internal/domain/entity"
	domainerrors "pulse/internal/domain/errors"
	"pulse/internal/domain/service"

	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// ReplayProvider walks a scripted route at a fixed interval, looping back to
// the start when the route runs out. With an empty route it reports
// permission denied, mirroring a host without a geolocation capability.
type ReplayProvider struct {
	route []entity.Coordinate
	clock clockwork.Clock
	pace  time.Duration

	mu     sync.Mutex
	next   int
	served int
}

// ReplayParams holds dependencies for the replay provider, injected by Fx.
type ReplayParams struct {
	fx.In

	Config *config.Config
	Clock  clockwork.Clock
}

// NewReplayProvider creates a provider from the configured route.
func NewReplayProvider(params ReplayParams) service.PositionProvider {
	route := make([]entity.Coordinate, 0, len(params.Config.Geolocation.Route))
	for _, point := range params.Config.Geolocation.Route {
		route = append(route, entity.Coordinate{Latitude: point.Lat, Longitude: point.Lng})
	}

	return &ReplayProvider{
		route: route,
		clock: params.Clock,
		pace:  params.Config.Geolocation.SampleInterval,
	}
}

// Next returns the next scripted fix after the sample interval elapses.
func (p *ReplayProvider) Next(ctx context.Context) (entity.Coordinate, error) {
	if len(p.route) == 0 {
		return entity.Coordinate{}, errors.WithStack(domainerrors.ErrPermissionDenied)
	}

	p.mu.Lock()
	index := p.next
	first := p.served == 0
	p.served++
	p.next = (p.next + 1) % len(p.route)
	p.mu.Unlock()

	// The initial fix is immediate; only subsequent samples wait.
	if !first {
		select {
		case <-ctx.Done():
			return entity.Coordinate{}, errors.Wrap(domainerrors.ErrFixTimeout, ctx.Err().Error())
		case <-p.clock.After(p.pace):
		}
	}

	return p.route[index], nil
}

// ChannelProvider delivers fixes fed programmatically, one per Next call.
// Used by hosts that push positions and by tests.
type ChannelProvider struct {
	fixes chan entity.Coordinate
	err   chan error
}

// NewChannelProvider creates an unbuffered programmatic provider.
func NewChannelProvider() *ChannelProvider {
	return &ChannelProvider{
		fixes: make(chan entity.Coordinate),
		err:   make(chan error),
	}
}

// Feed hands one fix to the next pending Next call.
func (p *ChannelProvider) Feed(ctx context.Context, fix entity.Coordinate) error {
	select {
	case p.fixes <- fix:
		return nil
	case <-ctx.Done():
		return errors.WithStack(ctx.Err())
	}
}

// Fail delivers a provider error to the next pending Next call.
func (p *ChannelProvider) Fail(ctx context.Context, err error) error {
	select {
	case p.err <- err:
		return nil
	case <-ctx.Done():
		return errors.WithStack(ctx.Err())
	}
}

// Next blocks until a fix or error is fed.
func (p *ChannelProvider) Next(ctx context.Context) (entity.Coordinate, error) {
	select {
	case fix := <-p.fixes:
		return fix, nil
	case err := <-p.err:
		return entity.Coordinate{}, err
	case <-ctx.Done():
		return entity.Coordinate{}, errors.Wrap(domainerrors.ErrFixTimeout, ctx.Err().Error())
	}
}
