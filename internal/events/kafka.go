package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Envelope wraps every event written to Kafka.
type Envelope struct {
	EventID    string              `json:"event_id"`
	EventType  string              `json:"event_type"`
	Version    int                 `json:"event_version"`
	OccurredAt time.Time           `json:"occurred_at"`
	Producer   string              `json:"producer"`
	Payload    jsoniter.RawMessage `json:"payload"`
}

// MessageWriter is the subset of *kafka.Writer used by the publisher.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher forwards bus events to a Kafka topic keyed by order id.
type KafkaPublisher struct {
	w        MessageWriter
	producer string
	timeout  time.Duration
}

func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}
}

func NewKafkaPublisher(w MessageWriter, producer string) *KafkaPublisher {
	return &KafkaPublisher{w: w, producer: producer, timeout: 10 * time.Second}
}

// Attach subscribes the publisher to the order topics of bus.
func (p *KafkaPublisher) Attach(bus *Bus) error {
	if err := bus.Subscribe(TopicOrderPlaced, func(ev OrderPlaced) {
		p.publish(TopicOrderPlaced, ev.OrderID, ev)
	}); err != nil {
		return err
	}
	return bus.Subscribe(TopicOrderStatusChanged, func(ev OrderStatusChanged) {
		p.publish(TopicOrderStatusChanged, ev.OrderID, ev)
	})
}

func (p *KafkaPublisher) publish(eventType, key string, payload interface{}) {
	if err := p.Publish(context.Background(), eventType, key, payload); err != nil {
		zap.L().Error("kafka publish failed",
			zap.String("namespace", "events"),
			zap.String("event_type", eventType),
			zap.String("key", key),
			zap.Error(err))
	}
}

// Publish writes one enveloped event.
func (p *KafkaPublisher) Publish(ctx context.Context, eventType, key string, payload interface{}) error {
	raw, err := jsoniter.Marshal(payload)
	if err != nil {
		return err
	}
	value, err := jsoniter.Marshal(Envelope{
		EventID:    uuid.NewString(),
		EventType:  eventType,
		Version:    1,
		OccurredAt: time.Now().UTC(),
		Producer:   p.producer,
		Payload:    raw,
	})
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: value,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventType)},
		},
	})
}

func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}
