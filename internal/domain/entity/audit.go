package entity

import (
	"time"

	"github.com/google/uuid"
)

// Audit action names emitted after successful transitions.
const (
	AuditLogin                    = "login"
	AuditVerifyOTP                = "verify_otp"
	AuditLogout                   = "logout"
	AuditForgetPassword           = "forget_password"
	AuditResetPassword            = "reset_password"
	AuditRegister                 = "register"
	AuditVerifyEmail              = "verify_email"
	AuditGoogleLogin              = "google_login"
	AuditUpdate2FA                = "update_2fa_settings"
	AuditApplicationSubmit        = "application_submit"
	AuditApplicationResubmit      = "application_resubmit"
	AuditCompleteProfile          = "complete_profile"
	AuditApproveDoctorApplication = "approve_doctor_application"
	AuditRejectDoctorApplication  = "reject_doctor_application"
	AuditUpdateRolePermissions    = "update_role_permissions"
	AuditUpdateAddress            = "update_address"
)

// AuditRecord is one append-only activity entry.
type AuditRecord struct {
	ID                 uuid.UUID      `json:"id"`
	ActorKind          ActorKind      `json:"actorKind"`
	ActorID            uuid.UUID      `json:"actorId"`
	Action             string         `json:"action"`
	Description        string         `json:"description"`
	ResourceCollection string         `json:"resourceCollection"`
	ResourceID         string         `json:"resourceId,omitempty"`
	Changes            map[string]any `json:"changes,omitempty"`
	IPAddress          string         `json:"ipAddress,omitempty"`
	UserAgent          string         `json:"userAgent,omitempty"`
	RequestID          string         `json:"requestId,omitempty"`
	OccurredAt         time.Time      `json:"occurredAt"`
}
