package session

import (
	"context"
	"encoding/json"
	"time"

	"philbox/internal/domain/entity"
	"philbox/internal/domain/repository"
	"philbox/internal/errors"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps sessions as JSON values with a rolling TTL.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore constructs a Redis-backed session store.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

// Get loads a live session. Redis expiry removes stale keys, so a miss means not found.
func (s *RedisStore) Get(ctx context.Context, token string) (*entity.Session, error) {
	if token == "" {
		return nil, repository.ErrSessionNotFound
	}

	raw, err := s.client.Get(ctx, storeKey(s.prefix, token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, repository.ErrSessionNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read session")
	}

	sess := entity.NewSession()
	if err := json.Unmarshal(raw, sess); err != nil {
		return nil, errors.Wrap(err, "failed to decode session")
	}
	if sess.Slots == nil {
		sess.Slots = make(map[entity.ActorKind]*entity.SessionSlot)
	}
	sess.Token = token

	return sess, nil
}

// Save writes the session and renews its TTL.
func (s *RedisStore) Save(ctx context.Context, sess *entity.Session, ttl time.Duration) error {
	if sess.Token == "" {
		return errors.New("session has no token")
	}

	raw, err := json.Marshal(sess)
	if err != nil {
		return errors.Wrap(err, "failed to encode session")
	}
	if err := s.client.Set(ctx, storeKey(s.prefix, sess.Token), raw, ttl).Err(); err != nil {
		return errors.Wrap(err, "failed to write session")
	}

	return nil
}

// Touch renews the expiry of a live session. A write racing with the touch already
// renewed the session, so a failed watch is not an error.
func (s *RedisStore) Touch(ctx context.Context, token string, expiresAt time.Time, ttl time.Duration) error {
	if token == "" {
		return repository.ErrSessionNotFound
	}
	key := storeKey(s.prefix, token)

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return repository.ErrSessionNotFound
		}
		if err != nil {
			return errors.Wrap(err, "failed to read session")
		}

		sess := entity.NewSession()
		if err := json.Unmarshal(raw, sess); err != nil {
			return errors.Wrap(err, "failed to decode session")
		}
		sess.ExpiresAt = expiresAt
		renewed, err := json.Marshal(sess)
		if err != nil {
			return errors.Wrap(err, "failed to encode session")
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, renewed, ttl)

			return nil
		})

		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	if errors.Is(err, repository.ErrSessionNotFound) {
		return repository.ErrSessionNotFound
	}
	if err != nil {
		return errors.Wrap(err, "failed to touch session")
	}

	return nil
}

// Delete removes the session. Unknown tokens are ignored.
func (s *RedisStore) Delete(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.client.Del(ctx, storeKey(s.prefix, token)).Err(); err != nil {
		return errors.Wrap(err, "failed to delete session")
	}

	return nil
}
