package impl

import (
	"slices"
	"time"

	"philbox/config"
	"philbox/internal/domain/entity"
	domainerrors "philbox/internal/domain/errors"
)

// actorPolicy captures the per-kind differences of the authentication state machine.
type actorPolicy struct {
	kind entity.ActorKind

	// notFoundErr is returned by login when the email is unknown.
	notFoundErr error
	// resetNotFoundErr is returned by forget-password when the email is unknown.
	resetNotFoundErr error

	// statusBeforePassword rejects blocked accounts before the password is compared.
	statusBeforePassword bool
	blockedStatuses      []entity.AccountStatus

	requireVerifiedEmail bool
	twoFactorCapable     bool

	selfRegistration bool
	registerStatus   entity.AccountStatus

	resetTTL time.Duration
	// route is the frontend path segment used in email links.
	route string
}

// isBlocked reports whether status denies login and session use for this kind.
func (p actorPolicy) isBlocked(status entity.AccountStatus) bool {
	return slices.Contains(p.blockedStatuses, status)
}

// actorPolicies indexes the policy of every known kind.
type actorPolicies map[entity.ActorKind]actorPolicy

func newActorPolicies(cfg *config.Config) actorPolicies {
	adminResetTTL := 12 * time.Minute
	resetTTL := 10 * time.Minute
	if cfg != nil && cfg.Auth != nil {
		if cfg.Auth.AdminResetTTL > 0 {
			adminResetTTL = cfg.Auth.AdminResetTTL
		}
		if cfg.Auth.ResetTTL > 0 {
			resetTTL = cfg.Auth.ResetTTL
		}
	}

	inactive := []entity.AccountStatus{entity.AccountStatusSuspended, entity.AccountStatusBlocked}

	return actorPolicies{
		entity.ActorKindAdmin: {
			kind:                 entity.ActorKindAdmin,
			notFoundErr:          domainerrors.ErrInvalidEmail,
			resetNotFoundErr:     domainerrors.ErrAdminNotFound,
			statusBeforePassword: true,
			blockedStatuses:      inactive,
			twoFactorCapable:     true,
			resetTTL:             adminResetTTL,
			route:                "admin",
		},
		entity.ActorKindSalesperson: {
			kind:                 entity.ActorKindSalesperson,
			notFoundErr:          domainerrors.ErrInvalidCredentials,
			resetNotFoundErr:     domainerrors.ErrUserNotFound,
			statusBeforePassword: true,
			blockedStatuses:      inactive,
			twoFactorCapable:     true,
			resetTTL:             resetTTL,
			route:                "salesperson",
		},
		entity.ActorKindDoctor: {
			kind:             entity.ActorKindDoctor,
			notFoundErr:      domainerrors.ErrInvalidCredentials,
			resetNotFoundErr: domainerrors.ErrUserNotFound,
			// Suspended doctors still sign in to finish onboarding.
			blockedStatuses:      []entity.AccountStatus{entity.AccountStatusBlocked},
			requireVerifiedEmail: true,
			selfRegistration:     true,
			registerStatus:       entity.AccountStatusSuspended,
			resetTTL:             resetTTL,
			route:                "doctor",
		},
		entity.ActorKindCustomer: {
			kind:                 entity.ActorKindCustomer,
			notFoundErr:          domainerrors.ErrInvalidCredentials,
			resetNotFoundErr:     domainerrors.ErrUserNotFound,
			blockedStatuses:      inactive,
			requireVerifiedEmail: true,
			selfRegistration:     true,
			registerStatus:       entity.AccountStatusActive,
			resetTTL:             resetTTL,
			route:                "customer",
		},
	}
}

// forKind returns the policy for kind or a validation error for unknown kinds.
func (p actorPolicies) forKind(kind entity.ActorKind) (actorPolicy, error) {
	policy, ok := p[kind]
	if !ok {
		return actorPolicy{}, domainerrors.ErrValidationFailed.WithDetails("unknown actor kind: " + string(kind))
	}

	return policy, nil
}
