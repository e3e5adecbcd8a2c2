// Package session provides the server-side session stores: Redis for deployments
// and an in-process map for local runs and tests.
package session

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"

	"philbox/config"
	"philbox/internal/domain/repository"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

// storeKey derives the storage key from the cookie token, so a leaked key dump
// cannot be replayed as a cookie.
func storeKey(prefix, token string) string {
	sum := sha256.Sum256([]byte(token))

	return prefix + hex.EncodeToString(sum[:])
}

// StoreParams holds dependencies for NewStore, injected by Fx.
type StoreParams struct {
	fx.In

	Config *config.Config
	Client *redis.Client `optional:"true"`
	Logger *slog.Logger
}

// NewStore selects the Redis store when a client is configured and falls back to memory.
func NewStore(params StoreParams) repository.SessionStore {
	prefix := "philbox:sess:"
	if params.Config.Redis != nil && params.Config.Redis.KeyPrefix != "" {
		prefix = params.Config.Redis.KeyPrefix
	}

	if params.Client == nil {
		params.Logger.Warn("Redis is not configured, sessions are kept in memory and lost on restart")

		return NewMemoryStore()
	}

	return NewRedisStore(params.Client, prefix)
}
