package enrichment

import (
	"context"
	"encoding/json"
	"fmt"
)

// Producer is the subset of the Kafka producer the publisher needs.
type Producer interface {
	Publish(ctx context.Context, key string, value []byte) error
}

// KafkaPublisher serialises tasks onto the enrichment topic, keyed by user id
// so tasks for one user stay ordered.
type KafkaPublisher struct {
	producer Producer
}

func NewKafkaPublisher(p Producer) *KafkaPublisher {
	return &KafkaPublisher{producer: p}
}

func (p *KafkaPublisher) Publish(ctx context.Context, t Task) error {
	b, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode enrichment task: %w", err)
	}
	return p.producer.Publish(ctx, t.UserID, b)
}

// DecodeTask parses a task published by KafkaPublisher.
func DecodeTask(b []byte) (Task, error) {
	var t Task
	if err := json.Unmarshal(b, &t); err != nil {
		return Task{}, err
	}
	if t.ID == "" || t.UserID == "" || t.CustomerID == "" {
		return Task{}, fmt.Errorf("enrichment task missing ids")
	}
	return t, nil
}
