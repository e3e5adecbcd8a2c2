package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"philbox/internal/delivery/api/response"
	deliverycontext "philbox/internal/delivery/context"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const healthCheckTimeout = 2 * time.Second

// HealthHandlerParams holds dependencies for HealthHandler, injected by Fx.
type HealthHandlerParams struct {
	fx.In

	DB     *gorm.DB
	Redis  *redis.Client `optional:"true"`
	Logger *slog.Logger
}

// HealthHandler reports whether the service and its backing stores are reachable.
type HealthHandler struct {
	db     *gorm.DB
	redis  *redis.Client
	logger *slog.Logger
}

// NewHealthHandler is the constructor for HealthHandler.
func NewHealthHandler(params HealthHandlerParams) *HealthHandler {
	return &HealthHandler{
		db:     params.DB,
		redis:  params.Redis,
		logger: params.Logger,
	}
}

// HealthView lists the state of each dependency.
type HealthView struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Sessions string `json:"sessions"`
}

// HealthCheck pings the database and the session store in parallel.
func (h *HealthHandler) HealthCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthCheckTimeout)
	defer cancel()

	view := HealthView{Status: "ok", Database: "ok", Sessions: "memory"}

	var g errgroup.Group
	g.Go(func() error {
		if err := h.pingDatabase(ctx); err != nil {
			view.Database = "unavailable"

			return err
		}

		return nil
	})
	if h.redis != nil {
		view.Sessions = "ok"
		g.Go(func() error {
			if err := h.redis.Ping(ctx).Err(); err != nil {
				view.Sessions = "unavailable"

				return err
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		deliverycontext.GetLoggerOrDefault(ctx, h.logger).Warn("Health check failed", slog.Any("error", err))
		view.Status = "degraded"

		return response.Success(c, http.StatusServiceUnavailable, view)
	}

	return response.OK(c, view)
}

func (h *HealthHandler) pingDatabase(ctx context.Context) error {
	sqlDB, err := h.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.PingContext(ctx)
}
