package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
)

const SaleCompletedQueue = "sale.completed"

type SaleCompletedItem struct {
	ProductID uint            `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type SaleCompleted struct {
	EventType     string              `json:"event_type"`
	SaleID        uint                `json:"sale_id"`
	CustomerID    uint                `json:"customer_id"`
	SellerID      uint                `json:"seller_id"`
	PaymentMethod string              `json:"payment_method"`
	TotalAmount   decimal.Decimal     `json:"total_amount"`
	DueDate       *time.Time          `json:"due_date,omitempty"`
	Items         []SaleCompletedItem `json:"items"`
	Timestamp     time.Time           `json:"timestamp"`
}

type Publisher interface {
	PublishSaleCompleted(ctx context.Context, ev SaleCompleted) error
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishSaleCompleted(context.Context, SaleCompleted) error { return nil }

type RabbitPublisher struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewRabbitPublisher(url string) (*RabbitPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	// Declare the queue so publish never fails due to missing infra
	if _, err := ch.QueueDeclare(SaleCompletedQueue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare %s: %w", SaleCompletedQueue, err)
	}
	return &RabbitPublisher{conn: conn, ch: ch}, nil
}

func (p *RabbitPublisher) Close() error {
	if err := p.ch.Close(); err != nil {
		p.conn.Close()
		return err
	}
	return p.conn.Close()
}

func (p *RabbitPublisher) PublishSaleCompleted(ctx context.Context, ev SaleCompleted) error {
	msg, err := saleCompletedMessage(ev, time.Now())
	if err != nil {
		return err
	}
	return p.ch.PublishWithContext(ctx, "", SaleCompletedQueue, false, false, msg)
}

// saleCompletedMessage fills the event defaults and wraps it in a persistent
// JSON message.
func saleCompletedMessage(ev SaleCompleted, now time.Time) (amqp.Publishing, error) {
	if ev.EventType == "" {
		ev.EventType = "SaleCompleted"
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = now.UTC()
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal SaleCompleted: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    ev.Timestamp,
		Body:         body,
	}, nil
}
