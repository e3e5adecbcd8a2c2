package entity

import (
	"time"

	"github.com/google/uuid"
)

// SessionState is the per-kind authentication stage of a session.
type SessionState string

const (
	SessionStateNone          SessionState = "none"
	SessionStatePending2FA    SessionState = "pending_2fa"
	SessionStateAuthenticated SessionState = "authenticated"
)

// SessionSlot is the state one actor kind holds inside a session.
type SessionSlot struct {
	ActorID        uuid.UUID `json:"actorId,omitempty"`
	PendingActorID uuid.UUID `json:"pendingActorId,omitempty"`
	Authenticated  bool      `json:"authenticated"`
}

// Session is server-side state keyed by an opaque cookie token.
// Each actor kind owns a disjoint slot, so an admin login never touches a customer login.
type Session struct {
	Token     string                     `json:"-"`
	Slots     map[ActorKind]*SessionSlot `json:"slots"`
	CreatedAt time.Time                  `json:"createdAt"`
	ExpiresAt time.Time                  `json:"expiresAt"`

	// Destroyed marks a session whose record was removed during this request.
	Destroyed bool `json:"-"`
}

// NewSession returns an empty, unsaved session.
func NewSession() *Session {
	return &Session{Slots: make(map[ActorKind]*SessionSlot)}
}

// IsNew reports whether the session has never been persisted.
func (s *Session) IsNew() bool {
	return s.Token == ""
}

// Slot returns the slot for kind, or nil.
func (s *Session) Slot(kind ActorKind) *SessionSlot {
	if s == nil || s.Slots == nil {
		return nil
	}

	return s.Slots[kind]
}

// State reports the authentication stage for kind.
func (s *Session) State(kind ActorKind) SessionState {
	slot := s.Slot(kind)
	switch {
	case slot == nil:
		return SessionStateNone
	case slot.Authenticated && slot.ActorID != uuid.Nil:
		return SessionStateAuthenticated
	case slot.PendingActorID != uuid.Nil:
		return SessionStatePending2FA
	default:
		return SessionStateNone
	}
}

// SetPending records that actorID passed the password check but not the second factor.
func (s *Session) SetPending(kind ActorKind, actorID uuid.UUID) {
	if s.Slots == nil {
		s.Slots = make(map[ActorKind]*SessionSlot)
	}
	s.Slots[kind] = &SessionSlot{PendingActorID: actorID}
}

// SetAuthenticated grants kind full access as actorID and clears any pending marker.
func (s *Session) SetAuthenticated(kind ActorKind, actorID uuid.UUID) {
	if s.Slots == nil {
		s.Slots = make(map[ActorKind]*SessionSlot)
	}
	s.Slots[kind] = &SessionSlot{ActorID: actorID, Authenticated: true}
}

// Clear removes the slot for kind and reports whether one existed.
func (s *Session) Clear(kind ActorKind) bool {
	if s.Slot(kind) == nil {
		return false
	}
	delete(s.Slots, kind)

	return true
}

// Empty reports whether no kind holds any state.
func (s *Session) Empty() bool {
	return s == nil || len(s.Slots) == 0
}
