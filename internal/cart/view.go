package cart

import (
	"time"

	"github.com/shopspring/decimal"
)

// View is a point-in-time copy of the cart for rendering.
type View struct {
	State         State           `json:"state"`
	Customer      *Customer       `json:"customer"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	DueDate       *time.Time      `json:"due_date,omitempty"`
	Items         []LineView      `json:"items"`
	Total         decimal.Decimal `json:"total"`
}

type LineView struct {
	ProductID uint            `json:"product_id"`
	Name      string          `json:"name"`
	Unit      string          `json:"unit"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Stock     decimal.Decimal `json:"stock_quantity"`
	Quantity  decimal.Decimal `json:"quantity"`
	Total     decimal.Decimal `json:"total"`
	// AtStock tells the screen to disable the "+" button.
	AtStock bool `json:"at_stock"`
}

// Snapshot returns the cart as one consistent View. Money is rounded to
// cents here, for display only.
func (c *Cart) Snapshot() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := View{
		State:         c.state(),
		PaymentMethod: c.method,
		Items:         make([]LineView, 0, len(c.lines)),
		Total:         c.total().Round(2),
	}
	if c.customer != nil {
		cu := *c.customer
		v.Customer = &cu
	}
	if c.dueDate != nil {
		d := *c.dueDate
		v.DueDate = &d
	}
	for _, l := range c.lines {
		v.Items = append(v.Items, LineView{
			ProductID: l.Product.ID,
			Name:      l.Product.Name,
			Unit:      l.Product.Unit,
			UnitPrice: l.Product.UnitPrice,
			Stock:     l.Product.Stock,
			Quantity:  l.Quantity,
			Total:     l.Total().Round(2),
			AtStock:   l.Quantity.GreaterThanOrEqual(l.Product.Stock),
		})
	}
	return v
}
