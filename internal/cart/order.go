package cart

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Order is the checkout payload handed to the submission service.
type Order struct {
	CustomerID    uint            `json:"customer_id"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Items         []OrderItem     `json:"items"`
	// DueDate is only set for deferred payment when the operator picked one.
	// The submission service applies its own default otherwise.
	DueDate *time.Time `json:"due_date,omitempty"`
}

type OrderItem struct {
	ProductID  uint            `json:"product_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// Receipt confirms a created sale.
type Receipt struct {
	SaleID    uint            `json:"sale_id"`
	Total     decimal.Decimal `json:"total"`
	CreatedAt time.Time       `json:"created_at"`
}

// Submitter accepts a finalized order.
type Submitter interface {
	Submit(ctx context.Context, order Order) (*Receipt, error)
}

// SubmitFunc adapts a function to Submitter.
type SubmitFunc func(ctx context.Context, order Order) (*Receipt, error)

func (f SubmitFunc) Submit(ctx context.Context, order Order) (*Receipt, error) {
	return f(ctx, order)
}

// Confirmer asks the operator a yes/no question before a destructive change.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool {
	return f(ctx, prompt)
}

// Always is a Confirmer that answers with a fixed value.
type Always bool

func (a Always) Confirm(context.Context, string) bool { return bool(a) }
