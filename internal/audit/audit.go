package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	log "github.com/sirupsen/logrus"
)

// Event is one admin mutation recorded on the audit topic.
type Event struct {
	Service    string         `json:"service"`
	EventType  string         `json:"event_type"`
	EntityID   string         `json:"entity_id"`
	Actor      string         `json:"actor,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
	Payload    map[string]any `json:"payload,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Recorder is the nil-safe front the services call. Publishing happens on a
// goroutine; failures are logged and never surfaced to the request.
type Recorder struct {
	publisher Publisher
}

func NewRecorder(publisher Publisher) *Recorder {
	return &Recorder{publisher: publisher}
}

func (r *Recorder) Record(eventType, entityID, actor string, payload map[string]any) {
	if r == nil || r.publisher == nil {
		return
	}
	event := Event{
		Service:    "dress-shop-backend",
		EventType:  eventType,
		EntityID:   entityID,
		Actor:      actor,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := r.publisher.Publish(ctx, event); err != nil {
			log.WithError(err).WithField("event_type", eventType).Warn("audit publish failed")
		}
	}()
}

// KafkaPublisher delivers events to a Kafka topic and waits for the broker
// acknowledgement per message.
type KafkaPublisher struct {
	producer *kafka.Producer
	topic    string
}

func NewKafkaPublisher(bootstrapServers, topic string) (*KafkaPublisher, error) {
	p, err := kafka.NewProducer(&kafka.ConfigMap{"bootstrap.servers": bootstrapServers})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	log.Info("audit Kafka producer created")
	return &KafkaPublisher{producer: p, topic: topic}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal audit event: %w", err)
	}

	// The channel is deliberately never closed: on timeout the poller still
	// delivers the pending report, which must land in the buffer rather than
	// panic on a closed channel.
	deliveryChan := make(chan kafka.Event, 1)

	if err := p.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &p.topic, Partition: kafka.PartitionAny},
		Key:            []byte(event.EntityID),
		Value:          payload,
	}, deliveryChan); err != nil {
		return fmt.Errorf("failed to produce message: %w", err)
	}

	return awaitDelivery(ctx, deliveryChan)
}

// awaitDelivery blocks until the broker acknowledges the message or the
// context expires.
func awaitDelivery(ctx context.Context, deliveryChan chan kafka.Event) error {
	select {
	case e := <-deliveryChan:
		msg, ok := e.(*kafka.Message)
		if !ok {
			return fmt.Errorf("unexpected event type: %T", e)
		}
		if msg.TopicPartition.Error != nil {
			return fmt.Errorf("delivery failed: %w", msg.TopicPartition.Error)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *KafkaPublisher) Close() {
	p.producer.Flush(15 * 1000)
	p.producer.Close()
}
