package notification

import (
	"context"
	"log/slog"
	"maps"

	deliverycontext "philbox/internal/delivery/context"
	"philbox/internal/domain/entity"
	"philbox/internal/domain/service"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/pkg/errors"
	"google.golang.org/api/option"
)

// messageSender is the part of *messaging.Client the notifier needs.
type messageSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// firebaseNotifier pushes realtime events as FCM topic messages. Clients subscribe
// to their own topic and to the topic of their kind.
type firebaseNotifier struct {
	client messageSender
	logger *slog.Logger
}

// NewFirebaseNotifier creates a notifier backed by Firebase Cloud Messaging
func NewFirebaseNotifier(ctx context.Context, projectID, credentialsPath string, logger *slog.Logger) (service.RealtimeNotifier, error) {
	var opts []option.ClientOption
	if credentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsPath))
	}

	var appCfg *firebase.Config
	if projectID != "" {
		appCfg = &firebase.Config{ProjectID: projectID}
	}

	app, err := firebase.NewApp(ctx, appCfg, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize Firebase app")
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get messaging client")
	}

	return newFirebaseNotifier(client, logger), nil
}

func newFirebaseNotifier(client messageSender, logger *slog.Logger) *firebaseNotifier {
	return &firebaseNotifier{client: client, logger: logger}
}

// ActorTopic is the topic a single actor listens on, e.g. "doctor_<id>".
func ActorTopic(kind entity.ActorKind, actorID string) string {
	return string(kind) + "_" + actorID
}

// KindTopic is the topic every actor of a kind listens on, e.g. "admins".
func KindTopic(kind entity.ActorKind) string {
	return string(kind) + "s"
}

func (n *firebaseNotifier) EmitToActor(ctx context.Context, kind entity.ActorKind, actorID string, event string, payload map[string]string) error {
	return n.send(ctx, ActorTopic(kind, actorID), event, payload)
}

func (n *firebaseNotifier) EmitToKind(ctx context.Context, kind entity.ActorKind, event string, payload map[string]string) error {
	return n.send(ctx, KindTopic(kind), event, payload)
}

func (n *firebaseNotifier) send(ctx context.Context, topic, event string, payload map[string]string) error {
	data := make(map[string]string, len(payload)+1)
	maps.Copy(data, payload)
	data["event"] = event

	id, err := n.client.Send(ctx, &messaging.Message{
		Topic: topic,
		Data:  data,
	})
	if err != nil {
		return errors.Wrapf(err, "failed to emit %s to %s", event, topic)
	}

	deliverycontext.GetLoggerOrDefault(ctx, n.logger).Debug("Realtime event sent",
		slog.String("topic", topic),
		slog.String("event", event),
		slog.String("message_id", id),
	)

	return nil
}
