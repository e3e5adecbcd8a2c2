package email

import (
	"context"
	"crypto/tls"
	"log/slog"

	"philbox/config"
	deliverycontext "philbox/internal/delivery/context"
	"philbox/internal/domain/service"

	"github.com/pkg/errors"
	"gopkg.in/gomail.v2"
)

// mailDialer is the part of *gomail.Dialer the sender needs.
type mailDialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type smtpTransport struct {
	dialer mailDialer
	from   string
	logger *slog.Logger
}

// NewSMTPSender creates an EmailSender that dials the configured SMTP server per message.
func NewSMTPSender(cfg *config.SMTPConfig, logger *slog.Logger) (service.EmailSender, error) {
	if cfg.From == "" {
		return nil, errors.New("smtp from address is required")
	}

	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.UserName, cfg.Password)
	dialer.TLSConfig = &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12}

	return newSMTPSender(dialer, cfg.From, logger)
}

func newSMTPSender(dialer mailDialer, from string, logger *slog.Logger) (*sender, error) {
	transport := &smtpTransport{dialer: dialer, from: from, logger: logger}

	return newSender(transport.deliver)
}

func (t *smtpTransport) deliver(ctx context.Context, to string, msg *rendered) error {
	// gomail has no context support, so a cancelled request skips the dial.
	if err := ctx.Err(); err != nil {
		return errors.WithStack(err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", t.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Text)
	m.AddAlternative("text/html", msg.HTML)
	if requestID := deliverycontext.GetRequestIDFromContext(ctx); requestID != "" {
		m.SetHeader("X-Request-Id", requestID)
	}

	if err := t.dialer.DialAndSend(m); err != nil {
		return errors.Wrap(err, "failed to send email")
	}

	deliverycontext.GetLoggerOrDefault(ctx, t.logger).Debug("Email sent",
		slog.String("subject", msg.Subject),
	)

	return nil
}
