package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// ValidateProductsQueue is the catalog service's request queue.
const ValidateProductsQueue = "catalog.validate-products"

// DefaultTimeout bounds one catalog round-trip.
const DefaultTimeout = 5 * time.Second

type validateRequest struct {
	ProductIDs []int64 `json:"productIds"`
}

// AMQPClient performs the validate-products call as an RPC over
// RabbitMQ: one request on the catalog queue, one reply on a private
// reply queue matched by correlation id.
type AMQPClient struct {
	ch      *amqp.Channel
	timeout time.Duration
}

func NewAMQPClient(conn *amqp.Connection, timeout time.Duration) (*AMQPClient, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	// Declare the request queue so publish never fails due to missing infra
	_, err = ch.QueueDeclare(ValidateProductsQueue, true, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("declare %s: %w", ValidateProductsQueue, err)
	}

	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &AMQPClient{ch: ch, timeout: timeout}, nil
}

func (c *AMQPClient) Close() error {
	return c.ch.Close()
}

func (c *AMQPClient) ValidateProducts(ctx context.Context, ids []int64) ([]Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(validateRequest{ProductIDs: ids})
	if err != nil {
		return nil, fmt.Errorf("marshal validate request: %w", err)
	}

	replyQ, err := c.ch.QueueDeclare(
		"",    // broker-named
		false, // durable
		true,  // autoDelete
		true,  // exclusive
		false, // noWait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("declare reply queue: %w", ErrUnavailable)
	}

	consumerTag := uuid.NewString()
	msgs, err := c.ch.Consume(replyQ.Name, consumerTag, true, true, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consume reply queue: %w", ErrUnavailable)
	}
	defer c.ch.Cancel(consumerTag, false)

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	corrID := uuid.NewString()
	err = c.ch.PublishWithContext(
		callCtx,
		"", // default exchange
		ValidateProductsQueue,
		false,
		false,
		amqp.Publishing{
			ContentType:   "application/json",
			CorrelationId: corrID,
			ReplyTo:       replyQ.Name,
			Body:          body,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("publish validate request: %w", ErrUnavailable)
	}

	for {
		select {
		case <-callCtx.Done():
			return nil, fmt.Errorf("await catalog reply: %w", ErrUnavailable)
		case msg, ok := <-msgs:
			if !ok {
				return nil, fmt.Errorf("reply consumer closed: %w", ErrUnavailable)
			}
			if msg.CorrelationId != corrID {
				continue
			}

			var products []Product
			if err := json.Unmarshal(msg.Body, &products); err != nil {
				return nil, fmt.Errorf("malformed catalog reply: %w", ErrUnavailable)
			}
			return products, nil
		}
	}
}
