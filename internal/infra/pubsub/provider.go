// Package pubsub publishes audit records to a message bus. The provider is chosen
// by configuration: Google Pub/Sub, Kafka, a local HTTP endpoint, or the log.
package pubsub

import (
	"context"
	"log/slog"

	"philbox/config"
	deliverycontext "philbox/internal/delivery/context"
	"philbox/internal/domain/constants"
	"philbox/internal/domain/entity"
	"philbox/internal/domain/service"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// Publisher is an AuditSink that holds transport resources.
type Publisher interface {
	service.AuditSink
	Close() error
}

// logPublisher writes audit records to the log when no bus is configured
type logPublisher struct {
	logger *slog.Logger
}

func (p *logPublisher) Record(ctx context.Context, record entity.AuditRecord) error {
	deliverycontext.GetLoggerOrDefault(ctx, p.logger).Info("[Audit]",
		slog.String("action", record.Action),
		slog.String("actor_kind", string(record.ActorKind)),
		slog.String("actor_id", record.ActorID.String()),
		slog.String("collection", record.ResourceCollection),
		slog.String("resource_id", record.ResourceID),
		slog.String("description", record.Description),
	)

	return nil
}

func (p *logPublisher) Close() error {
	return nil
}

// PublisherParams holds dependencies for the audit publisher, injected by Fx
type PublisherParams struct {
	fx.In

	Lc     fx.Lifecycle
	Ctx    context.Context
	Config *config.Config
	Logger *slog.Logger
}

// NewAuditPublisher creates the audit sink selected by configuration
func NewAuditPublisher(params PublisherParams) (service.AuditSink, error) {
	cfg := params.Config.PubSub
	logger := params.Logger

	if cfg == nil || cfg.Provider == "" {
		logger.Info("PubSub not configured, audit records go to the log")

		return &logPublisher{logger: logger}, nil
	}

	var publisher Publisher
	var err error

	switch cfg.Provider {
	case constants.PubSubProviderLocal:
		if cfg.LocalEndpoint == "" {
			return nil, errors.New("local endpoint is required for local provider")
		}
		logger.Info("Using local HTTP audit publisher",
			slog.String("endpoint", cfg.LocalEndpoint),
		)

		publisher = NewLocalHTTPPublisher(cfg.LocalEndpoint, logger)

	case constants.PubSubProviderGoogle:
		if cfg.ProjectID == "" {
			return nil, errors.New("project ID is required for google provider")
		}
		if cfg.TopicID == "" {
			return nil, errors.New("topic ID is required for google provider")
		}

		publisher, err = NewGooglePubSubPublisher(params.Ctx, cfg.ProjectID, cfg.TopicID, logger)
		if err != nil {
			return nil, err
		}

	case constants.PubSubProviderKafka:
		if len(cfg.Brokers) == 0 {
			return nil, errors.New("brokers are required for kafka provider")
		}
		if cfg.TopicID == "" {
			return nil, errors.New("topic ID is required for kafka provider")
		}

		publisher, err = NewKafkaPublisher(cfg.Brokers, cfg.TopicID, logger)
		if err != nil {
			return nil, err
		}

	default:
		return nil, errors.Errorf("unknown pubsub provider: %s", cfg.Provider)
	}

	params.Lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			logger.Info("Closing audit publisher")

			return publisher.Close()
		},
	})

	return publisher, nil
}

// Module provides the Pub/Sub FX module
//
//nolint:gochecknoglobals
var Module = fx.Options(
	fx.Provide(NewAuditPublisher),
)
