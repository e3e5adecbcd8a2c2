// Package notification delivers realtime events to connected clients.
package notification

import (
	"context"
	"log/slog"

	"philbox/config"
	deliverycontext "philbox/internal/delivery/context"
	"philbox/internal/domain/entity"
	"philbox/internal/domain/service"

	"go.uber.org/fx"
)

// noopNotifier drops events when no realtime transport is configured
type noopNotifier struct {
	logger *slog.Logger
}

func (n *noopNotifier) EmitToActor(ctx context.Context, kind entity.ActorKind, actorID string, event string, _ map[string]string) error {
	deliverycontext.GetLoggerOrDefault(ctx, n.logger).Debug("[NoopRealtime] Event dropped",
		slog.String("topic", ActorTopic(kind, actorID)),
		slog.String("event", event),
	)

	return nil
}

func (n *noopNotifier) EmitToKind(ctx context.Context, kind entity.ActorKind, event string, _ map[string]string) error {
	deliverycontext.GetLoggerOrDefault(ctx, n.logger).Debug("[NoopRealtime] Event dropped",
		slog.String("topic", KindTopic(kind)),
		slog.String("event", event),
	)

	return nil
}

// NotifierParams holds dependencies for NewRealtimeNotifier, injected by Fx
type NotifierParams struct {
	fx.In

	Ctx    context.Context
	Config *config.Config
	Logger *slog.Logger
}

// NewRealtimeNotifier uses Firebase when a project or credentials file is configured.
func NewRealtimeNotifier(params NotifierParams) (service.RealtimeNotifier, error) {
	cfg := params.Config.Firebase
	if cfg == nil || (cfg.ProjectID == "" && cfg.CredentialsPath == "") {
		params.Logger.Info("Firebase not configured, realtime events are dropped")

		return &noopNotifier{logger: params.Logger}, nil
	}

	notifier, err := NewFirebaseNotifier(params.Ctx, cfg.ProjectID, cfg.CredentialsPath, params.Logger)
	if err != nil {
		return nil, err
	}
	params.Logger.Info("Firebase realtime notifier initialized", slog.String("project_id", cfg.ProjectID))

	return notifier, nil
}

// Module provides the notification FX module
//
//nolint:gochecknoglobals
var Module = fx.Options(
	fx.Provide(NewRealtimeNotifier),
)
