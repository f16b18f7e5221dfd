package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/dhima/change-monitor/internal/models"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func sampleChange() models.ChangeEvent {
	return models.ChangeEvent{
		Timestamp:      time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC),
		ResourceURL:    "https://example.com/robots.txt",
		NotifyTarget:   "ops@example.com",
		LinesAdded:     2,
		DeliveryStatus: models.DeliveryStatusSent,
		CheckKind:      "scheduled",
	}
}

func TestNewPublisher_CreatedReturnsPublisherWithWriter(t *testing.T) {
	// Arrange
	brokers := []string{"localhost:9092"}
	topic := "change-events"
	logger, _ := zap.NewDevelopment()

	// Act
	publisher := NewPublisher(brokers, topic, logger)

	// Assert
	require.NotNil(t, publisher)
	require.NotNil(t, publisher.writer)
	assert.NotNil(t, publisher.logger)
	assert.Equal(t, topic, publisher.writer.Topic)
}

func TestNewPublisher_CreatedWithMultipleBrokersConfiguresCorrectly(t *testing.T) {
	// Act
	publisher := NewPublisher([]string{"broker1:9092", "broker2:9092", "broker3:9092"}, "change-events", zap.NewNop())

	// Assert
	assert.Equal(t, "broker1:9092,broker2:9092,broker3:9092", publisher.writer.Addr.String())
}

func TestNewPublisher_CreatedHasProductionSettings(t *testing.T) {
	// Act
	publisher := NewPublisher([]string{"localhost:9092"}, "change-events", nil)

	// Assert
	assert.Equal(t, kafka.RequireAll, publisher.writer.RequiredAcks)
	assert.Equal(t, 3, publisher.writer.MaxAttempts)
	assert.Equal(t, 10*time.Second, publisher.writer.WriteTimeout)
	assert.IsType(t, &kafka.Hash{}, publisher.writer.Balancer)
	assert.NotNil(t, publisher.logger)
}

func TestBuildMessage_ChangeEventKeysByResourceURL(t *testing.T) {
	// Arrange
	publisher := NewPublisher([]string{"localhost:9092"}, "change-events", zap.NewNop())
	published := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	publisher.now = func() time.Time { return published }
	change := sampleChange()

	// Act
	msg, err := publisher.buildMessage(change)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []byte(change.ResourceURL), msg.Key)
	assert.Equal(t, published, msg.Time)

	var envelope ChangeMessage
	require.NoError(t, json.Unmarshal(msg.Value, &envelope))
	assert.Equal(t, ChangeRecordedType, envelope.Type)
	assert.NotEmpty(t, envelope.MessageID)
	assert.Equal(t, published, envelope.PublishedAt)
	assert.Equal(t, change, envelope.Change)

	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "type", msg.Headers[0].Key)
	assert.Equal(t, []byte(ChangeRecordedType), msg.Headers[0].Value)
	assert.Equal(t, []byte(envelope.MessageID), msg.Headers[1].Value)
}

func TestPublish_ContextCanceledReturnsError(t *testing.T) {
	// Arrange
	publisher := NewPublisher([]string{"127.0.0.1:1"}, "change-events", zap.NewNop())
	defer publisher.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Act
	err := publisher.Publish(ctx, sampleChange())

	// Assert
	assert.Error(t, err)
}

func TestClose_CalledMultipleTimesDoesNotPanic(t *testing.T) {
	// Arrange
	publisher := NewPublisher([]string{"localhost:9092"}, "change-events", zap.NewNop())

	// Act & Assert
	assert.NotPanics(t, func() {
		_ = publisher.Close()
		_ = publisher.Close()
	})
}

func TestNoopPublisher_PublishingDiscards(t *testing.T) {
	var p NoopPublisher
	assert.NoError(t, p.Publish(context.Background(), sampleChange()))
	assert.NoError(t, p.Close())
}
