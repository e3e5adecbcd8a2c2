package service

import (
	"context"

	"philbox/internal/domain/entity"
)

// ApplicationDecisionMail carries what a doctor is told after review.
type ApplicationDecisionMail struct {
	Approved bool
	Comment  string
	LinkURL  string // login link on approval, support link on rejection
}

// EmailSender delivers transactional mail. Callers treat failures as non-fatal.
type EmailSender interface {
	SendVerification(ctx context.Context, to *entity.Actor, link string) error
	SendPasswordReset(ctx context.Context, to *entity.Actor, link string) error
	SendOTP(ctx context.Context, to *entity.Actor, code string) error
	SendWelcome(ctx context.Context, to *entity.Actor) error
	SendApplicationDecision(ctx context.Context, to *entity.Actor, decision ApplicationDecisionMail) error
}
