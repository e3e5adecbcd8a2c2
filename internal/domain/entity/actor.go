// Package entity contains the core business objects of the platform.
package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ActorKind identifies which population an authenticating identity belongs to.
// Each kind lives in its own table and its own session namespace.
type ActorKind string

const (
	ActorKindAdmin       ActorKind = "admin"
	ActorKindDoctor      ActorKind = "doctor"
	ActorKindCustomer    ActorKind = "customer"
	ActorKindSalesperson ActorKind = "salesperson"
)

// ActorKinds lists every supported kind in a stable order.
func ActorKinds() []ActorKind {
	return []ActorKind{ActorKindAdmin, ActorKindDoctor, ActorKindCustomer, ActorKindSalesperson}
}

// Valid reports whether k is one of the known kinds.
func (k ActorKind) Valid() bool {
	switch k {
	case ActorKindAdmin, ActorKindDoctor, ActorKindCustomer, ActorKindSalesperson:
		return true
	}

	return false
}

func (k ActorKind) String() string {
	return string(k)
}

// AccountStatus is the tri-state account standing shared by all actor kinds.
type AccountStatus string

const (
	AccountStatusActive    AccountStatus = "active"
	AccountStatusSuspended AccountStatus = "suspended"
	AccountStatusBlocked   AccountStatus = "blocked"
)

// OAuthProviderGoogle marks actors created or linked through Google sign-in.
const OAuthProviderGoogle = "google"

// Actor is any authenticating identity: admin, doctor, customer or salesperson.
type Actor struct {
	ID       uuid.UUID
	Kind     ActorKind
	Email    string
	FullName string

	// PasswordHash is nil for actors that only sign in through an external provider.
	PasswordHash  *string
	OAuthProvider string
	OAuthSubject  string

	ContactNumber string
	Gender        string
	DateOfBirth   *time.Time

	IsVerified            bool
	VerificationTokenHash string
	VerificationExpiresAt *time.Time

	ResetTokenHash      string
	ResetTokenExpiresAt *time.Time

	TwoFactorEnabled bool
	OTPCode          string
	OTPExpiresAt     *time.Time

	Status      AccountStatus
	RoleID      *uuid.UUID
	LastLoginAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NormalizeEmail lower-cases and trims an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// HasPassword reports whether the actor can authenticate with a password.
func (a *Actor) HasPassword() bool {
	return a.PasswordHash != nil && *a.PasswordHash != ""
}

// HasCredential checks that at least one authentication path exists.
func (a *Actor) HasCredential() bool {
	return a.HasPassword() || a.OAuthSubject != ""
}

// HasPendingOTP reports whether a second-factor code is outstanding.
func (a *Actor) HasPendingOTP() bool {
	return a.OTPCode != "" && a.OTPExpiresAt != nil
}

// OTPMatches compares a presented code against the stored one at the given instant.
func (a *Actor) OTPMatches(code string, now time.Time) bool {
	if !a.HasPendingOTP() {
		return false
	}

	return a.OTPCode == code && now.Before(*a.OTPExpiresAt)
}

// ClearOTP drops any outstanding second-factor code.
func (a *Actor) ClearOTP() {
	a.OTPCode = ""
	a.OTPExpiresAt = nil
}

// MarkVerified sets the verified flag and drops the verification token, keeping
// exactly one of the two states.
func (a *Actor) MarkVerified() {
	a.IsVerified = true
	a.VerificationTokenHash = ""
	a.VerificationExpiresAt = nil
}

// ClearResetToken drops any outstanding password reset token.
func (a *Actor) ClearResetToken() {
	a.ResetTokenHash = ""
	a.ResetTokenExpiresAt = nil
}
