package pubsub

import (
	"context"
	"log/slog"

	deliverycontext "philbox/internal/delivery/context"
	"philbox/internal/domain/entity"

	"github.com/pkg/errors"
	"github.com/twmb/franz-go/pkg/kgo"
)

// kafkaProducer is the part of *kgo.Client the publisher needs.
type kafkaProducer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

// kafkaPublisher implements Publisher on a Kafka topic. Records are keyed by actor
// so one actor's trail stays ordered within a partition.
type kafkaPublisher struct {
	producer kafkaProducer
	topic    string
	logger   *slog.Logger
}

// NewKafkaPublisher creates a franz-go client for the given seed brokers.
func NewKafkaPublisher(brokers []string, topic string, logger *slog.Logger) (Publisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create kafka client")
	}

	logger.Info("Kafka audit publisher initialized",
		slog.Any("brokers", brokers),
		slog.String("topic", topic),
	)

	return newKafkaPublisher(client, topic, logger), nil
}

func newKafkaPublisher(producer kafkaProducer, topic string, logger *slog.Logger) *kafkaPublisher {
	return &kafkaPublisher{producer: producer, topic: topic, logger: logger}
}

// Record produces the audit record synchronously.
func (p *kafkaPublisher) Record(ctx context.Context, record entity.AuditRecord) error {
	data, attributes, err := encodeRecord(&record)
	if err != nil {
		return err
	}

	headers := make([]kgo.RecordHeader, 0, len(attributes))
	for k, v := range attributes {
		headers = append(headers, kgo.RecordHeader{Key: k, Value: []byte(v)})
	}

	rec := &kgo.Record{
		Topic:   p.topic,
		Key:     []byte(record.ActorID.String()),
		Value:   data,
		Headers: headers,
	}
	if err := p.producer.ProduceSync(ctx, rec).FirstErr(); err != nil {
		return errors.Wrapf(err, "failed to produce audit %s", record.Action)
	}

	deliverycontext.GetLoggerOrDefault(ctx, p.logger).Debug("[Kafka] Audit published",
		slog.String("action", record.Action),
		slog.Int("partition", int(rec.Partition)),
		slog.Int64("offset", rec.Offset),
	)

	return nil
}

// Close flushes buffered records and closes the client
func (p *kafkaPublisher) Close() error {
	p.producer.Close()

	return nil
}
