package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"

	"tourly/pkg/logger"
)

// EventProducer publishes booking lifecycle events for downstream consumers
// (email dispatch, analytics, partner feeds).
type EventProducer interface {
	PublishBookingEvent(ctx context.Context, event *BookingEvent) error
	Close() error
	HealthCheck(ctx context.Context) error
}

// KafkaProducerConfig contains configuration for the Kafka event producer
type KafkaProducerConfig struct {
	Brokers          []string
	BookingTopic     string
	RetryMax         int
	TimeoutMs        int
	RequiredAcks     sarama.RequiredAcks
	CompressionType  sarama.CompressionCodec
	IdempotentWrites bool
	MaxMessageBytes  int
}

// DefaultKafkaProducerConfig returns a default producer configuration
func DefaultKafkaProducerConfig() *KafkaProducerConfig {
	return &KafkaProducerConfig{
		Brokers:          []string{"localhost:9092"},
		BookingTopic:     "booking-events",
		RetryMax:         3,
		TimeoutMs:        10000,             // 10 seconds
		RequiredAcks:     sarama.WaitForAll, // Wait for all in-sync replicas
		CompressionType:  sarama.CompressionSnappy,
		IdempotentWrites: true,
		MaxMessageBytes:  1000000, // 1MB
	}
}

// KafkaEventProducer publishes booking events through a sarama sync producer
type KafkaEventProducer struct {
	producer sarama.SyncProducer
	config   *KafkaProducerConfig
	log      *logger.Logger
}

// NewKafkaEventProducer creates a new Kafka event producer
func NewKafkaEventProducer(config *KafkaProducerConfig) (EventProducer, error) {
	saramaConfig := sarama.NewConfig()

	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true
	saramaConfig.Producer.RequiredAcks = config.RequiredAcks
	saramaConfig.Producer.Compression = config.CompressionType
	saramaConfig.Producer.Retry.Max = config.RetryMax
	saramaConfig.Producer.Timeout = time.Duration(config.TimeoutMs) * time.Millisecond
	saramaConfig.Producer.Idempotent = config.IdempotentWrites
	saramaConfig.Producer.MaxMessageBytes = config.MaxMessageBytes

	if config.IdempotentWrites {
		saramaConfig.Net.MaxOpenRequests = 1
	}

	// Hash partitioner keeps all events of one booking on one partition,
	// so consumers see them in order.
	saramaConfig.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(config.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	return &KafkaEventProducer{
		producer: producer,
		config:   config,
		log:      logger.GetDefault(),
	}, nil
}

// PublishBookingEvent publishes a single booking event to Kafka
func (p *KafkaEventProducer) PublishBookingEvent(ctx context.Context, event *BookingEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	messageBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal booking event: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic:     p.config.BookingTopic,
		Key:       sarama.StringEncoder(event.BookingID.String()),
		Value:     sarama.ByteEncoder(messageBytes),
		Timestamp: event.OccurredAt,
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(event.Type)},
		},
	}

	partition, offset, err := p.producer.SendMessage(message)
	if err != nil {
		return fmt.Errorf("failed to publish booking event: %w", err)
	}

	p.log.InfoWithContext(ctx, "Booking Event Published", map[string]interface{}{
		"event_id":  event.ID,
		"type":      event.Type,
		"partition": partition,
		"offset":    offset,
	})
	return nil
}

// Close shuts down the underlying producer
func (p *KafkaEventProducer) Close() error {
	return p.producer.Close()
}

// HealthCheck verifies the producer can still reach the cluster
func (p *KafkaEventProducer) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.producer == nil {
		return fmt.Errorf("kafka producer is not initialized")
	}
	return nil
}

// noopProducer drops events; used when Kafka is disabled by configuration.
type noopProducer struct{}

// NewNoopProducer returns a producer that discards all events.
func NewNoopProducer() EventProducer {
	return &noopProducer{}
}

func (noopProducer) PublishBookingEvent(ctx context.Context, event *BookingEvent) error { return nil }
func (noopProducer) Close() error                                                       { return nil }
func (noopProducer) HealthCheck(ctx context.Context) error                              { return nil }
