package invalidation

import (
	"context"
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/pkg/kafka"
)

// EventPublisher is satisfied by *kafka.Producer.
type EventPublisher interface {
	Publish(ctx context.Context, events ...kafka.Event) error
}

// Publisher validates events and writes them to the content-invalidate topic.
type Publisher struct {
	producer EventPublisher
}

func NewPublisher(producer EventPublisher) *Publisher {
	return &Publisher{producer: producer}
}

// Publish rejects the whole batch if any event is invalid.
func (p *Publisher) Publish(ctx context.Context, events ...Event) error {
	if len(events) == 0 {
		return nil
	}
	batch := make([]kafka.Event, 0, len(events))
	for _, ev := range events {
		if err := ev.Validate(); err != nil {
			return err
		}
		batch = append(batch, kafka.Event{Key: ev.Key(), Value: ev})
	}
	if err := p.producer.Publish(ctx, batch...); err != nil {
		return fmt.Errorf("publishing %d invalidation events: %w", len(batch), err)
	}
	return nil
}
