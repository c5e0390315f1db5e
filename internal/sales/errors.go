package sales

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrCustomerNotFound = errors.New("customer not found")
	ErrProductNotFound  = errors.New("product not found")
	ErrSaleNotFound     = errors.New("sale not found")
	ErrInvalidOrder     = errors.New("invalid order")
	ErrInvalidStatus    = errors.New("invalid sale status")
	ErrHasPayments      = errors.New("sale has payments on its account receivable")
)

// InsufficientStockError is the authoritative stock check failing, usually
// because the operator's stock snapshot was stale.
type InsufficientStockError struct {
	ProductID   uint
	ProductName string
	Available   decimal.Decimal
	Requested   decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: %s available, %s requested",
		e.ProductName, e.Available, e.Requested)
}
