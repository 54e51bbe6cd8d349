// Package events publishes domain events to Kafka. Publishing is fire and
// forget: events are queued on a buffered channel and dropped with a warning
// when the queue is full, so a slow broker never blocks a request.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventType labels a domain event.
type EventType string

// Domain event types.
const (
	ProfileUpdated   EventType = "profile_updated"
	AdGenerated      EventType = "ad_generated"
	PaymentCompleted EventType = "payment_completed"
	JobSubmitted     EventType = "job_submitted"
)

// Event is the published payload. TenantKey doubles as the partition key so
// one tenant's events stay ordered.
type Event struct {
	Type      EventType `json:"type"`
	TenantKey string    `json:"tenant_key"`
	JobID     int       `json:"job_id,omitempty"`
	Service   string    `json:"service,omitempty"`
	Amount    int       `json:"amount,omitempty"`
	At        time.Time `json:"at"`
}

// KafkaWriter is the subset of kafka.Writer the producer needs.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer asynchronously publishes events. A nil *Producer is valid and
// drops everything, so callers need no enabled/disabled branches.
type Producer struct {
	writer    KafkaWriter
	events    chan Event
	logger    *zap.Logger
	closeChan chan struct{}
}

// NewProducer creates a producer writing to the given brokers and topic.
func NewProducer(brokers []string, topic string, logger *zap.Logger) *Producer {
	p := &Producer{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
		events:    make(chan Event, 1000),
		logger:    logger.Named("events"),
		closeChan: make(chan struct{}),
	}
	go p.eventLoop()
	return p
}

// Produce queues an event without blocking.
func (p *Producer) Produce(ev Event) {
	if p == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	select {
	case p.events <- ev:
	default:
		p.logger.Warn("event queue full, dropping event",
			zap.String("event_type", string(ev.Type)),
			zap.String("tenant", ev.TenantKey),
		)
	}
}

func (p *Producer) eventLoop() {
	for {
		select {
		case ev := <-p.events:
			p.send(context.Background(), ev)
		case <-p.closeChan:
			return
		}
	}
}

func (p *Producer) send(ctx context.Context, ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		p.logger.Error("failed to marshal event", zap.Error(err))
		return
	}
	msg := kafka.Message{
		Key:   []byte(ev.TenantKey),
		Value: payload,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("failed to publish event",
			zap.String("event_type", string(ev.Type)), zap.Error(err))
	}
}

// Close stops the event loop and closes the writer.
func (p *Producer) Close() error {
	if p == nil {
		return nil
	}
	close(p.closeChan)
	return p.writer.Close()
}
