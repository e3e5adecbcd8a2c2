package main

import (
	"context"
	"log/slog"
	"os"

	"philbox/config"
	"philbox/internal/delivery"
	"philbox/internal/delivery/api"
	"philbox/internal/delivery/api/middleware"
	"philbox/internal/delivery/api/router/handler"
	"philbox/internal/domain/service"
	"philbox/internal/infra/auth"
	"philbox/internal/infra/auth/google"
	"philbox/internal/infra/email"
	logs "philbox/internal/infra/log"
	"philbox/internal/infra/metrics"
	"philbox/internal/infra/notification"
	"philbox/internal/infra/persistence/postgres"
	"philbox/internal/infra/pubsub"
	"philbox/internal/infra/session"
	"philbox/internal/infra/storage"
	"philbox/internal/usecase/impl"

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
	return fx.Options(
		fx.Provide(
			config.New,
			logs.New,
			context.Background,
			postgres.New,
			session.NewRedisClient,
		),
		metrics.Module,
	)
}

func injectRepo() fx.Option {
	return fx.Options(
		fx.Provide(
			postgres.NewRepositoryFactory,
			postgres.NewTransactionManager,
			postgres.NewActivityLogRepository,
			session.NewStore,
		),
	)
}

func injectService() fx.Option {
	return fx.Options(
		fx.Provide(
			service.NewSystemClock,
			auth.NewBcryptHasher,
			auth.NewTokenService,
			google.NewAuthService,
		),
		email.Module,
		storage.Module,
		pubsub.Module,
		notification.Module,
	)
}

func injectUsecase() fx.Option {
	return fx.Options(
		fx.Provide(
			impl.NewSessionService,
			impl.NewAuthService,
			impl.NewPermissionService,
			impl.NewRoleService,
			impl.NewOnboardingService,
			impl.NewReviewService,
			impl.NewCustomerProfileService,
			impl.NewActivityLogService,
		),
	)
}

func injectMiddleware() fx.Option {
	return fx.Options(
		fx.Provide(
			middleware.NewSessionMiddleware,
			middleware.NewRBACMiddleware,
			middleware.NewRateLimiter,
		),
	)
}

func injectHandler() fx.Option {
	return fx.Options(
		fx.Provide(
			handler.NewAuthHandler,
			handler.NewOnboardingHandler,
			handler.NewReviewHandler,
			handler.NewRBACHandler,
			handler.NewCustomerHandler,
			handler.NewActivityHandler,
			handler.NewHealthHandler,
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
