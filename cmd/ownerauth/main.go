package main

import (
	"context"
	"log/slog"
	"os"

	"ownerauth/config"
	"ownerauth/internal/delivery"
	"ownerauth/internal/delivery/api"
	apimiddleware "ownerauth/internal/delivery/api/middleware"
	"ownerauth/internal/delivery/api/router/handler"
	"ownerauth/internal/infra/auth"
	"ownerauth/internal/infra/clock"
	logs "ownerauth/internal/infra/log"
	"ownerauth/internal/infra/otp"
	"ownerauth/internal/infra/persistence/jsonfile"
	"ownerauth/internal/infra/ratelimit"
	"ownerauth/internal/usecase/impl"

	"go.uber.org/fx"
)

type startServerParams struct {
	fx.In
	fx.Lifecycle

	Deliveries []delivery.Delivery `group:"deliveries"`
}

func main() {
	fx.New(
		injectInfra(),
		injectRepo(),
		injectService(),
		injectUsecase(),
		injectDelivery(),
		injectMiddleware(),
		injectHandler(),
		fx.Invoke(
			startServer,
		),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Provide(
		config.New,
		logs.New,
		context.Background,
		clock.NewSystemClock,
	)
}

func injectRepo() fx.Option {
	return fx.Options(
		fx.Provide(
			jsonfile.New,
		),
	)
}

func injectService() fx.Option {
	return fx.Options(
		fx.Provide(
			auth.NewScryptHasher,
			auth.NewDeviceTokenIssuer,
			ratelimit.NewAttemptLimiter,
			otp.NewTOTPService,
			otp.NewSender,
		),
	)
}

func injectUsecase() fx.Option {
	return fx.Options(
		fx.Provide(
			impl.NewAuthService,
			impl.NewSessionService,
			impl.NewDeviceService,
			impl.NewAccountService,
			impl.NewOTPService,
		),
	)
}

func injectMiddleware() fx.Option {
	return fx.Options(
		fx.Provide(
			apimiddleware.NewAuthMiddleware,
		),
	)
}

func injectHandler() fx.Option {
	return fx.Options(
		fx.Provide(
			handler.NewAuthHandler,
			handler.NewAccountHandler,
		),
	)
}

func injectDelivery() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				api.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
	)
}

func startServer(ctx context.Context, params startServerParams) {
	for _, delivery := range params.Deliveries {
		go func() {
			if err := delivery.Serve(ctx); err != nil {
				slog.Error("Failed to start server", slog.Any("error", err))
				os.Exit(1)
			}
		}()
	}
}
