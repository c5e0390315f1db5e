package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaleCompletedMessage(t *testing.T) {
	now := time.Date(2026, 10, 18, 14, 30, 0, 0, time.FixedZone("BRT", -3*3600))
	due := time.Date(2026, 11, 17, 0, 0, 0, 0, time.UTC)

	msg, err := saleCompletedMessage(SaleCompleted{
		SaleID:        42,
		CustomerID:    7,
		SellerID:      3,
		PaymentMethod: "deferred",
		TotalAmount:   decimal.RequireFromString("23.50"),
		DueDate:       &due,
		Items: []SaleCompletedItem{
			{ProductID: 1, Quantity: decimal.RequireFromString("1.250"), UnitPrice: decimal.RequireFromString("10.00")},
		},
	}, now)
	require.NoError(t, err)

	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.True(t, msg.Timestamp.Equal(now))
	assert.Equal(t, time.UTC, msg.Timestamp.Location())

	var body map[string]any
	require.NoError(t, json.Unmarshal(msg.Body, &body))
	assert.Equal(t, "SaleCompleted", body["event_type"])
	assert.EqualValues(t, 42, body["sale_id"])
	assert.EqualValues(t, 7, body["customer_id"])
	assert.Equal(t, "23.5", body["total_amount"])
	assert.Equal(t, "2026-11-17T00:00:00Z", body["due_date"])
	items, ok := body["items"].([]any)
	require.True(t, ok)
	require.Len(t, items, 1)
	assert.Equal(t, "1.25", items[0].(map[string]any)["quantity"])
}

func TestSaleCompletedMessageKeepsGivenFields(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	msg, err := saleCompletedMessage(SaleCompleted{EventType: "SaleCompletedV2", SaleID: 1, Timestamp: at}, time.Now())
	require.NoError(t, err)
	assert.True(t, msg.Timestamp.Equal(at))

	var ev SaleCompleted
	require.NoError(t, json.Unmarshal(msg.Body, &ev))
	assert.Equal(t, "SaleCompletedV2", ev.EventType)
	assert.Nil(t, ev.DueDate, "cash sales carry no due date")
	assert.NotContains(t, string(msg.Body), "due_date")
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	assert.NoError(t, p.PublishSaleCompleted(context.Background(), SaleCompleted{SaleID: 1}))
}
