package session

import (
	"context"
	"log/slog"

	"philbox/config"
	"philbox/internal/domain/lifecycle"
	"philbox/internal/errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

// ClientParams holds dependencies for NewRedisClient, injected by Fx.
type ClientParams struct {
	fx.In

	Lc     fx.Lifecycle
	Config *config.Config
	Logger *slog.Logger
}

// NewRedisClient parses redis.url and pings the server on start.
// It returns a nil client when no URL is configured.
func NewRedisClient(params ClientParams) (*redis.Client, error) {
	if params.Config.Redis == nil || params.Config.Redis.URL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(params.Config.Redis.URL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse redis URL")
	}
	client := redis.NewClient(opts)

	params.Lc.Append(fx.Hook{
		OnStart: func(startCtx context.Context) error {
			ctx, cancel := context.WithTimeout(startCtx, lifecycle.DefaultTimeout)
			defer cancel()

			if err := client.Ping(ctx).Err(); err != nil {
				return errors.Wrap(err, "redis ping failed")
			}
			params.Logger.Info("Redis session store connected", slog.String("addr", opts.Addr), slog.Int("db", opts.DB))

			return nil
		},
		OnStop: func(_ context.Context) error {
			return client.Close()
		},
	})

	return client, nil
}
