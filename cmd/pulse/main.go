package main

import (
	"context"
	"log/slog"
	"os"

	"pulse/config"
	"pulse/internal/delivery"
	"pulse/internal/delivery/http"
	"pulse/internal/delivery/http/handler"
	"pulse/internal/infra/geolocation"
	logs "pulse/internal/infra/log"
	"pulse/internal/infra/presentation"
	"pulse/internal/infra/transport"
	"pulse/internal/usecase"
	"pulse/internal/usecase/impl"

	"github.com/jonboulle/clockwork"
	"go.uber.org/fx"
)

type startParams struct {
	fx.In
	fx.Lifecycle

	Logger     *slog.Logger
	Session    usecase.SessionUsecase
	Deliveries []delivery.Delivery `group:"deliveries"`
}

func main() {
	fx.New(
		injectInfra(),
		injectCapabilities(),
		injectUsecase(),
		injectDelivery(),
		injectHandler(),
		fx.Invoke(
			start,
		),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Provide(
		config.New,
		logs.New,
		context.Background,
		func() clockwork.Clock { return clockwork.NewRealClock() },
	)
}

func injectCapabilities() fx.Option {
	return fx.Options(
		fx.Provide(
			transport.New,
			geolocation.NewReplayProvider,
			presentation.NewConsoleSink,
			presentation.NewBellPlayer,
			presentation.NewMemoryPreferenceStore,
		),
	)
}

func injectUsecase() fx.Option {
	return fx.Options(
		fx.Provide(
			impl.NewConnectionManager,
			impl.NewGeoTracker,
			impl.NewRoomSubscriber,
			impl.NewEventIntake,
			impl.NewPresenter,
			impl.NewSession,
		),
	)
}

func injectHandler() fx.Option {
	return fx.Options(
		fx.Provide(
			handler.NewStatusHandler,
		),
	)
}

func injectDelivery() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				http.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
	)
}

func start(ctx context.Context, params startParams) {
	params.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return params.Session.Close()
		},
	})

	go func() {
		if err := params.Session.Run(ctx); err != nil {
			slog.Error("Session terminated", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	for _, d := range params.Deliveries {
		go func() {
			if err := d.Serve(ctx); err != nil {
				slog.Error("Failed to start server", slog.Any("error", err))
				os.Exit(1)
			}
		}()
	}
}
