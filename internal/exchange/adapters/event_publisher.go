package adapters

import (
	"context"
	"encoding/json"
	"fmt"

	"vpexchange/internal/exchange/models"
	"vpexchange/internal/platform/kafka/producer"
)

// EventTypeTransactionUpdated is the event_type header of published transaction events.
const EventTypeTransactionUpdated = "transaction.updated"

// MessageProducer is the subset of the Kafka producer used for events.
type MessageProducer interface {
	Produce(ctx context.Context, msg *producer.Message) error
}

// KafkaEventPublisher publishes transaction events keyed by transaction id,
// so all events of one transaction land on the same partition.
type KafkaEventPublisher struct {
	producer MessageProducer
	topic    string
}

func NewKafkaEventPublisher(p MessageProducer, topic string) *KafkaEventPublisher {
	return &KafkaEventPublisher{producer: p, topic: topic}
}

// Publish implements ports.EventPublisher.
func (p *KafkaEventPublisher) Publish(ctx context.Context, event *models.TransactionEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode transaction event: %w", err)
	}
	return p.producer.Produce(ctx, &producer.Message{
		Topic: p.topic,
		Key:   []byte(event.TransactionID),
		Value: value,
		Headers: map[string]string{
			"event_type":  EventTypeTransactionUpdated,
			"exchange_id": event.ExchangeID,
		},
	})
}
