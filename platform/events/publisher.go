package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dhima/change-monitor/internal/models"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// ChangeRecordedType is the message type for newly recorded change events.
const ChangeRecordedType = "change.recorded"

// ChangeMessage is the envelope published for every recorded change.
type ChangeMessage struct {
	MessageID   string             `json:"message_id"`
	Type        string             `json:"type"`
	PublishedAt time.Time          `json:"published_at"`
	Change      models.ChangeEvent `json:"change"`
}

// Publisher emits recorded change events to Kafka. Messages are keyed by the
// resource URL so changes of one resource stay ordered within a partition.
type Publisher struct {
	writer *kafka.Writer
	logger *zap.Logger
	now    func() time.Time
}

// NewPublisher creates a Kafka-backed publisher for topic.
func NewPublisher(brokers []string, topic string, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			MaxAttempts:  3,
			WriteTimeout: 10 * time.Second,
			BatchTimeout: 50 * time.Millisecond,
		},
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Publish writes one message for event and waits for the brokers to acknowledge it.
func (p *Publisher) Publish(ctx context.Context, event models.ChangeEvent) error {
	msg, err := p.buildMessage(event)
	if err != nil {
		return err
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("failed to publish change event",
			zap.String("topic", p.writer.Topic),
			zap.String("url", event.ResourceURL),
			zap.Error(err))
		return fmt.Errorf("failed to publish change event: %w", err)
	}

	p.logger.Debug("published change event",
		zap.String("topic", p.writer.Topic),
		zap.String("url", event.ResourceURL))
	return nil
}

func (p *Publisher) buildMessage(event models.ChangeEvent) (kafka.Message, error) {
	envelope := ChangeMessage{
		MessageID:   uuid.NewString(),
		Type:        ChangeRecordedType,
		PublishedAt: p.now(),
		Change:      event,
	}
	value, err := json.Marshal(envelope)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal change message: %w", err)
	}

	return kafka.Message{
		Key:   []byte(event.ResourceURL),
		Value: value,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(ChangeRecordedType)},
			{Key: "message_id", Value: []byte(envelope.MessageID)},
		},
		Time: envelope.PublishedAt,
	}, nil
}

// Close flushes pending messages and releases the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

// NoopPublisher discards events. Used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, models.ChangeEvent) error { return nil }
func (NoopPublisher) Close() error                                    { return nil }
