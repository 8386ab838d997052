package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Event types
const (
	SignalGenerated       = "signal.generated"
	TelegramLoginVerified = "auth.telegram.verified"
	EmailVerified         = "auth.email.verified"
	VerificationRequested = "auth.email.verification_requested"
)

// Envelope is the JSON value written for every event
type Envelope struct {
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

// Publisher publishes domain events
type Publisher interface {
	Publish(ctx context.Context, topic, key, eventType string, payload interface{}) error
}

// messageWriter is the subset of *kafka.Writer the producer needs
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer handles producing messages to Kafka topics
type Producer struct {
	mu        sync.Mutex
	writers   map[string]messageWriter
	newWriter func(topic string) messageWriter
	logger    *zap.Logger
}

// NewProducer creates a new Kafka producer
func NewProducer(brokers []string, clientID string, logger *zap.Logger) *Producer {
	return &Producer{
		writers: make(map[string]messageWriter),
		newWriter: func(topic string) messageWriter {
			return &kafka.Writer{
				Addr:         kafka.TCP(brokers...),
				Topic:        topic,
				Balancer:     &kafka.LeastBytes{},
				BatchSize:    100,
				BatchTimeout: 10 * time.Millisecond,
				RequiredAcks: kafka.RequireOne,
				Async:        false,
				Transport: &kafka.Transport{
					ClientID: clientID,
				},
			}
		},
		logger: logger,
	}
}

// getWriter returns a Kafka writer for the specified topic
func (p *Producer) getWriter(topic string) messageWriter {
	p.mu.Lock()
	defer p.mu.Unlock()

	if writer, exists := p.writers[topic]; exists {
		return writer
	}

	writer := p.newWriter(topic)
	p.writers[topic] = writer
	return writer
}

// Publish sends an event to a Kafka topic
func (p *Producer) Publish(ctx context.Context, topic, key, eventType string, payload interface{}) error {
	writer := p.getWriter(topic)

	value, err := json.Marshal(Envelope{
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	})
	if err != nil {
		p.logger.Error("Failed to marshal event",
			zap.String("topic", topic),
			zap.Error(err))
		return err
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(eventType)},
		},
		Time: time.Now(),
	}

	if err := writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish event",
			zap.String("topic", topic),
			zap.String("key", key),
			zap.Error(err))
		return err
	}

	p.logger.Debug("Event published",
		zap.String("topic", topic),
		zap.String("type", eventType),
		zap.String("key", key))

	return nil
}

// Close closes all Kafka writers
func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for topic, writer := range p.writers {
		if err := writer.Close(); err != nil {
			p.logger.Error("Failed to close Kafka writer",
				zap.String("topic", topic),
				zap.Error(err))
		}
	}
	return nil
}

// Nop discards every event; used when Kafka is disabled
type Nop struct{}

// Publish does nothing
func (Nop) Publish(context.Context, string, string, string, interface{}) error {
	return nil
}
