// Package email delivers transactional mail over SMTP, or to the log when SMTP is not configured.
package email

import (
	"context"
	"log/slog"

	"philbox/config"
	"philbox/internal/domain/entity"
	"philbox/internal/domain/service"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// deliverFunc hands a rendered message to a transport.
type deliverFunc func(ctx context.Context, to string, msg *rendered) error

// sender renders templates and delegates delivery. Both SMTP and log senders share it.
type sender struct {
	templates templateSet
	deliver   deliverFunc
}

func newSender(deliver deliverFunc) (*sender, error) {
	templates, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	return &sender{templates: templates, deliver: deliver}, nil
}

func (s *sender) send(ctx context.Context, to *entity.Actor, name templateName, data mailData) error {
	if to == nil || to.Email == "" {
		return errors.New("email recipient is missing")
	}
	data.Name = to.FullName
	data.Role = roleTitle(string(to.Kind))

	msg, err := s.templates.render(name, data)
	if err != nil {
		return err
	}

	return s.deliver(ctx, to.Email, msg)
}

func (s *sender) SendVerification(ctx context.Context, to *entity.Actor, link string) error {
	return s.send(ctx, to, tmplVerification, mailData{Link: link})
}

func (s *sender) SendPasswordReset(ctx context.Context, to *entity.Actor, link string) error {
	return s.send(ctx, to, tmplPasswordReset, mailData{Link: link})
}

func (s *sender) SendOTP(ctx context.Context, to *entity.Actor, code string) error {
	return s.send(ctx, to, tmplOTP, mailData{Code: code})
}

func (s *sender) SendWelcome(ctx context.Context, to *entity.Actor) error {
	return s.send(ctx, to, tmplWelcome, mailData{})
}

func (s *sender) SendApplicationDecision(ctx context.Context, to *entity.Actor, decision service.ApplicationDecisionMail) error {
	name := tmplRejected
	if decision.Approved {
		name = tmplApproved
	}

	return s.send(ctx, to, name, mailData{Link: decision.LinkURL, Comment: decision.Comment})
}

// SenderParams holds dependencies for NewEmailSender, injected by Fx
type SenderParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

// NewEmailSender sends over SMTP when a host is configured and logs messages otherwise.
func NewEmailSender(params SenderParams) (service.EmailSender, error) {
	cfg := params.Config.SMTP
	if cfg == nil || cfg.Host == "" {
		params.Logger.Info("SMTP not configured, emails will be logged")

		return NewLogSender(params.Logger)
	}

	params.Logger.Info("Using SMTP email sender",
		slog.String("host", cfg.Host),
		slog.Int("port", cfg.Port),
	)

	return NewSMTPSender(cfg, params.Logger)
}

// Module provides the email FX module
//
//nolint:gochecknoglobals
var Module = fx.Options(
	fx.Provide(NewEmailSender),
)
