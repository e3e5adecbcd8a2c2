package email

import (
	"context"
	"log/slog"

	deliverycontext "philbox/internal/delivery/context"
	"philbox/internal/domain/service"
)

// NewLogSender creates an EmailSender for local runs. Messages are written to the
// log instead of being delivered, links and codes included.
func NewLogSender(logger *slog.Logger) (service.EmailSender, error) {
	return newSender(func(ctx context.Context, to string, msg *rendered) error {
		deliverycontext.GetLoggerOrDefault(ctx, logger).Info("[LogEmail] Message not delivered",
			slog.String("to", to),
			slog.String("subject", msg.Subject),
			slog.String("body", msg.Text),
		)

		return nil
	})
}
