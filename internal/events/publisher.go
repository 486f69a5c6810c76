package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/andreasstove999/orders-ms/internal/order"
)

// Publisher emits enveloped order events. It satisfies
// order.EventPublisher.
type Publisher struct {
	ch  *amqp.Channel
	seq SequenceStore
}

func NewPublisher(conn *amqp.Connection, seq SequenceStore) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	// Declare the queue so publish never fails due to missing infra
	_, err = ch.QueueDeclare(OrderCreatedQueue, true, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("declare %s: %w", OrderCreatedQueue, err)
	}

	return &Publisher{ch: ch, seq: seq}, nil
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}

func (p *Publisher) PublishOrderCreated(ctx context.Context, o *order.Order) error {
	seq, err := p.seq.NextSequence(ctx, o.ID)
	if err != nil {
		return fmt.Errorf("sequence for order %s: %w", o.ID, err)
	}

	env := BuildOrderCreatedEnvelope(o, seq, "")
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal OrderCreated: %w", err)
	}

	return p.publishJSON(ctx, OrderCreatedQueue, body)
}

func (p *Publisher) publishJSON(ctx context.Context, routingKey string, body []byte) error {
	pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return p.ch.PublishWithContext(
		pubCtx,
		"",         // default exchange
		routingKey, // queue name as routing key
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}
