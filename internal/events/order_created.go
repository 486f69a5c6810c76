package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/andreasstove999/orders-ms/internal/order"
)

const (
	orderCreatedEventName    = "OrderCreated"
	orderCreatedEventVersion = 1
	producerName             = "orders-ms"
)

// OrderItem is the event-contract shape of one order line.
type OrderItem struct {
	ProductID int64   `json:"productId"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

// OrderCreatedPayload is the v1 payload schema.
type OrderCreatedPayload struct {
	OrderID     string      `json:"orderId"`
	Status      string      `json:"status"`
	Items       []OrderItem `json:"items"`
	TotalAmount float64     `json:"totalAmount"`
	TotalItems  int         `json:"totalItems"`
	CreatedAt   time.Time   `json:"createdAt"`
}

type OrderCreatedEnvelope = EventEnvelope[OrderCreatedPayload]

// BuildOrderCreatedEnvelope builds an enveloped OrderCreated event,
// partitioned by order id.
func BuildOrderCreatedEnvelope(o *order.Order, seq int64, correlationID string) OrderCreatedEnvelope {
	if correlationID == "" {
		correlationID = uuid.NewString()
	}

	items := make([]OrderItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.Price,
		})
	}

	return OrderCreatedEnvelope{
		EventName:     orderCreatedEventName,
		EventVersion:  orderCreatedEventVersion,
		EventID:       uuid.NewString(),
		CorrelationID: correlationID,
		Producer:      producerName,
		PartitionKey:  o.ID,
		Sequence:      seq,
		OccurredAt:    time.Now().UTC(),
		Payload: OrderCreatedPayload{
			OrderID:     o.ID,
			Status:      string(o.Status),
			Items:       items,
			TotalAmount: o.TotalAmount,
			TotalItems:  o.TotalItems,
			CreatedAt:   o.CreatedAt,
		},
	}
}
