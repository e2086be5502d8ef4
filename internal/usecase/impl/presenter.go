package impl

import (
	"context"
	"log/slog"

	"pulse/internal/domain/entity"
	"pulse/internal/domain/service"
	"pulse/internal/usecase"

	"go.uber.org/fx"
)

// presenter applies the user's notification preference to buffered events and
// triggers presentation side effects. Every failure here is swallowed: a sink
// that cannot show a notification or a player that cannot play a sound must
// never raise an error back into the intake pipeline.
type presenter struct {
	logger *slog.Logger
	store  service.PreferenceStore
	sink   service.NotificationSink
	player service.SoundPlayer
}

// PresenterParams holds dependencies for the presenter, injected by Fx.
type PresenterParams struct {
	fx.In

	Logger *slog.Logger
	Store  service.PreferenceStore
	Sink   service.NotificationSink
	Player service.SoundPlayer
}

// NewPresenter creates the notification presenter for one client session.
func NewPresenter(params PresenterParams) usecase.PresenterUsecase {
	return &presenter{
		logger: params.Logger.With(slog.String("component", "presenter")),
		store:  params.Store,
		sink:   params.Sink,
		player: params.Player,
	}
}

// Present applies the decision table: disabled means nothing at all happens,
// the per-severity flag gates sound, volume scales it, and host notification
// permission only adds a channel, never suppresses the in-app path.
func (p *presenter) Present(event entity.InboundEvent) {
	preference := p.store.Preferences()
	if !preference.Enabled {
		return
	}

	ctx := context.Background()
	severity := event.EventSeverity()

	if preference.SoundEnabled(severity) {
		if err := p.player.Play(ctx, severity, preference.Volume); err != nil {
			p.logger.Warn("sound playback failed", slog.Any("error", err))
		}
	}

	if p.sink.Permission() == service.PermissionGranted {
		title, message := event.Headline()
		if err := p.sink.Show(ctx, title, message); err != nil {
			p.logger.Warn("notification display failed", slog.Any("error", err))
		}
	}
}

// RequestPermission prompts the host. Called only from an explicit user
// action; the presenter never asks on its own.
func (p *presenter) RequestPermission(ctx context.Context) (service.PermissionState, error) {
	return p.sink.RequestPermission(ctx)
}
