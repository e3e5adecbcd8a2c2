package middleware

import (
	"context"
	"log/slog"
	"math"
	"strconv"
	"sync"
	"time"

	"philbox/config"
	deliverycontext "philbox/internal/delivery/context"
	domainerrors "philbox/internal/domain/errors"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
	"golang.org/x/time/rate"
)

const (
	defaultRequestsPerMin  = 30
	defaultBurst           = 10
	defaultCleanupInterval = 5 * time.Minute
)

// clientLimiter is the token bucket of one client address.
type clientLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter throttles authentication routes per client IP.
type RateLimiter struct {
	enabled bool
	limit   rate.Limit
	burst   int
	idleTTL time.Duration

	mu      sync.Mutex
	clients map[string]*clientLimiter
	now     func() time.Time

	stopCh   chan struct{}
	stopOnce sync.Once
	logger   *slog.Logger
}

// RateLimiterParams holds dependencies for RateLimiter, injected by Fx.
type RateLimiterParams struct {
	fx.In

	Lc     fx.Lifecycle
	Config *config.Config
	Logger *slog.Logger
}

// NewRateLimiter builds the limiter and ties its cleanup loop to the application lifecycle.
func NewRateLimiter(params RateLimiterParams) *RateLimiter {
	rl := newRateLimiter(params.Config.RateLimit, params.Logger)
	if !rl.enabled {
		return rl
	}

	interval := defaultCleanupInterval
	if cfg := params.Config.RateLimit; cfg.CleanupInterval > 0 {
		interval = cfg.CleanupInterval
	}
	params.Lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go rl.cleanupLoop(interval)

			return nil
		},
		OnStop: func(context.Context) error {
			rl.Stop()

			return nil
		},
	})

	return rl
}

func newRateLimiter(cfg *config.RateLimitConfig, logger *slog.Logger) *RateLimiter {
	rl := &RateLimiter{
		limit:   rate.Limit(float64(defaultRequestsPerMin) / 60),
		burst:   defaultBurst,
		idleTTL: 2 * defaultCleanupInterval,
		clients: make(map[string]*clientLimiter),
		now:     time.Now,
		stopCh:  make(chan struct{}),
		logger:  logger,
	}
	if cfg == nil {
		return rl
	}

	rl.enabled = cfg.Enabled
	if cfg.RequestsPerMin > 0 {
		rl.limit = rate.Limit(float64(cfg.RequestsPerMin) / 60)
	}
	if cfg.Burst > 0 {
		rl.burst = cfg.Burst
	}
	switch {
	case cfg.IdleTTL > 0:
		rl.idleTTL = cfg.IdleTTL
	case cfg.CleanupInterval > 0:
		rl.idleTTL = 2 * cfg.CleanupInterval
	}

	return rl
}

// Stop ends the background cleanup loop.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// Handle rejects a request with 429 once its client has spent the bucket.
func (rl *RateLimiter) Handle(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !rl.enabled {
			return next(c)
		}

		ip := c.RealIP()
		if !rl.limiterFor(ip).AllowN(rl.now(), 1) {
			c.Response().Header().Set("Retry-After", strconv.Itoa(rl.retryAfterSeconds()))
			deliverycontext.GetLoggerOrDefault(c.Request().Context(), rl.logger).Warn("Rate limit exceeded",
				slog.String("remote_ip", ip),
				slog.String("route", c.Path()))

			return domainerrors.ErrTooManyRequests
		}

		return next(c)
	}
}

// ClientCount reports how many client buckets are tracked.
func (rl *RateLimiter) ClientCount() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	return len(rl.clients)
}

func (rl *RateLimiter) limiterFor(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if cl, ok := rl.clients[ip]; ok {
		cl.lastAccess = now

		return cl.limiter
	}

	cl := &clientLimiter{
		limiter:    rate.NewLimiter(rl.limit, rl.burst),
		lastAccess: now,
	}
	rl.clients[ip] = cl

	return cl.limiter
}

func (rl *RateLimiter) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCh:
			return
		}
	}
}

// cleanup drops buckets idle for longer than idleTTL.
func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for ip, cl := range rl.clients {
		if now.Sub(cl.lastAccess) > rl.idleTTL {
			delete(rl.clients, ip)
		}
	}
}

// retryAfterSeconds estimates the wait until one token is refilled.
func (rl *RateLimiter) retryAfterSeconds() int {
	secs := int(math.Ceil(1.0 / float64(rl.limit)))
	if secs < 1 {
		secs = 1
	}

	return secs
}
