package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreasstove999/orders-ms/internal/order"
)

func TestBuildOrderCreatedEnvelope(t *testing.T) {
	o := &order.Order{
		ID:          uuid.NewString(),
		TotalAmount: 25.0,
		TotalItems:  3,
		Status:      order.StatusPending,
		CreatedAt:   time.Now().UTC(),
		Items: []order.Item{
			{ProductID: 1, Quantity: 2, Price: 10.0, Name: "keyboard"},
			{ProductID: 2, Quantity: 1, Price: 5.0, Name: "mouse"},
		},
	}

	env := BuildOrderCreatedEnvelope(o, 4, "corr-1")

	require.NoError(t, env.Validate(orderCreatedEventName, orderCreatedEventVersion))
	assert.Equal(t, o.ID, env.PartitionKey)
	assert.Equal(t, int64(4), env.Sequence)
	assert.Equal(t, "corr-1", env.CorrelationID)
	assert.Equal(t, "orders-ms", env.Producer)
	assert.Equal(t, o.ID, env.Payload.OrderID)
	assert.Equal(t, "PENDING", env.Payload.Status)
	assert.Equal(t, 25.0, env.Payload.TotalAmount)
	assert.Equal(t, 3, env.Payload.TotalItems)
	require.Len(t, env.Payload.Items, 2)
	assert.Equal(t, int64(1), env.Payload.Items[0].ProductID)
}

func TestBuildOrderCreatedEnvelope_GeneratesCorrelationID(t *testing.T) {
	o := &order.Order{ID: uuid.NewString(), Status: order.StatusPending}

	env := BuildOrderCreatedEnvelope(o, 1, "")
	assert.NotEmpty(t, env.CorrelationID)
	assert.NotEmpty(t, env.EventID)
}

func TestOrderCreatedEnvelope_JSONContract(t *testing.T) {
	o := &order.Order{
		ID:        uuid.NewString(),
		Status:    order.StatusPending,
		CreatedAt: time.Now().UTC(),
		Items:     []order.Item{{ProductID: 7, Quantity: 1, Price: 3.0, Name: "cable"}},
	}

	body, err := json.Marshal(BuildOrderCreatedEnvelope(o, 1, ""))
	require.NoError(t, err)

	var asMap map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &asMap))

	for _, field := range []string{"eventName", "eventVersion", "eventId", "producer", "partitionKey", "sequence", "occurredAt", "payload"} {
		assert.Contains(t, asMap, field)
	}

	payload, ok := asMap["payload"].(map[string]interface{})
	require.True(t, ok)
	// item names are read-time enrichment, they must not leak into the contract
	items, ok := payload["items"].([]interface{})
	require.True(t, ok)
	require.Len(t, items, 1)
	assert.NotContains(t, items[0], "name")
}

func TestEnvelopeValidate(t *testing.T) {
	env := BuildOrderCreatedEnvelope(&order.Order{ID: uuid.NewString()}, 1, "")

	require.NoError(t, env.Validate(orderCreatedEventName, orderCreatedEventVersion))
	require.Error(t, env.Validate("WrongEvent", orderCreatedEventVersion))
	require.Error(t, env.Validate(orderCreatedEventName, 2))

	env.PartitionKey = ""
	require.Error(t, env.Validate(orderCreatedEventName, orderCreatedEventVersion))
}
