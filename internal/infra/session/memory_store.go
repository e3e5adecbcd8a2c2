package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"philbox/internal/domain/entity"
	"philbox/internal/domain/repository"
	"philbox/internal/errors"
)

type memoryEntry struct {
	payload   []byte
	expiresAt time.Time
}

// MemoryStore is a process-local SessionStore. Entries are copied on the way in and out
// so callers never share a *entity.Session.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get loads a live session; expired entries are evicted on read.
func (s *MemoryStore) Get(_ context.Context, token string) (*entity.Session, error) {
	key := storeKey("", token)

	s.mu.Lock()
	entry, ok := s.entries[key]
	if ok && !s.now().Before(entry.expiresAt) {
		delete(s.entries, key)
		ok = false
	}
	s.mu.Unlock()

	if !ok || token == "" {
		return nil, repository.ErrSessionNotFound
	}

	sess := entity.NewSession()
	if err := json.Unmarshal(entry.payload, sess); err != nil {
		return nil, errors.Wrap(err, "failed to decode session")
	}
	if sess.Slots == nil {
		sess.Slots = make(map[entity.ActorKind]*entity.SessionSlot)
	}
	sess.Token = token

	return sess, nil
}

// Save stores a copy of the session with a fresh TTL.
func (s *MemoryStore) Save(_ context.Context, sess *entity.Session, ttl time.Duration) error {
	if sess.Token == "" {
		return errors.New("session has no token")
	}
	payload, err := json.Marshal(sess)
	if err != nil {
		return errors.Wrap(err, "failed to encode session")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[storeKey("", sess.Token)] = memoryEntry{payload: payload, expiresAt: s.now().Add(ttl)}

	return nil
}

// Touch renews the expiry of a live session.
func (s *MemoryStore) Touch(_ context.Context, token string, expiresAt time.Time, ttl time.Duration) error {
	key := storeKey("", token)

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok || token == "" || !s.now().Before(entry.expiresAt) {
		delete(s.entries, key)

		return repository.ErrSessionNotFound
	}

	sess := entity.NewSession()
	if err := json.Unmarshal(entry.payload, sess); err != nil {
		return errors.Wrap(err, "failed to decode session")
	}
	sess.ExpiresAt = expiresAt
	payload, err := json.Marshal(sess)
	if err != nil {
		return errors.Wrap(err, "failed to encode session")
	}
	s.entries[key] = memoryEntry{payload: payload, expiresAt: s.now().Add(ttl)}

	return nil
}

// Delete removes the session.
func (s *MemoryStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, storeKey("", token))

	return nil
}

// Len reports the number of stored entries, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.entries)
}
