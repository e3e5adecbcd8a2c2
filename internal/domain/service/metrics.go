package service

import "philbox/internal/domain/entity"

// Outcome labels shared by metrics recorders.
const (
	OutcomeSuccess    = "success"
	OutcomeFailure    = "failure"
	OutcomeBlocked    = "blocked"
	OutcomePending2FA = "pending_2fa"
)

// Collaborator labels for CollaboratorFailure.
const (
	CollaboratorEmail    = "email"
	CollaboratorUpload   = "upload"
	CollaboratorAudit    = "audit"
	CollaboratorRealtime = "realtime"
)

// MetricsRecorder counts domain events. Implementations must be safe for concurrent use.
type MetricsRecorder interface {
	LoginAttempt(kind entity.ActorKind, outcome string)
	OTPVerification(kind entity.ActorKind, outcome string)
	PasswordReset(kind entity.ActorKind, stage string)
	OnboardingTransition(status entity.ApplicationStatus)
	SessionResolution(kind entity.ActorKind, outcome string)
	CollaboratorFailure(collaborator string)
}

// NopMetrics discards every observation.
type NopMetrics struct{}

func (NopMetrics) LoginAttempt(entity.ActorKind, string)         {}
func (NopMetrics) OTPVerification(entity.ActorKind, string)      {}
func (NopMetrics) PasswordReset(entity.ActorKind, string)        {}
func (NopMetrics) OnboardingTransition(entity.ApplicationStatus) {}
func (NopMetrics) SessionResolution(entity.ActorKind, string)    {}
func (NopMetrics) CollaboratorFailure(string)                    {}
