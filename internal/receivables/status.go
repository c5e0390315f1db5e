// Package receivables tracks the money customers owe for deferred ("fiado")
// sales and the payments that settle it.
package receivables

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusPending = "pending"
	StatusPartial = "partial"
	StatusPaid    = "paid"
	StatusOverdue = "overdue"
)

var (
	ErrNotFound          = errors.New("account receivable not found")
	ErrSaleNotFound      = errors.New("sale not found")
	ErrCustomerNotFound  = errors.New("customer not found")
	ErrAlreadyExists     = errors.New("sale already has an account receivable")
	ErrInvalidAmount     = errors.New("payment amount must be positive")
	ErrExceedsRemaining  = errors.New("payment amount exceeds remaining balance")
	ErrNothingOwed       = errors.New("customer has no open accounts")
	ErrInvalidMethod     = errors.New("invalid payment method")
	ErrForbidden         = errors.New("only admins can change accounts receivable")
	ErrInvalidAmountEdit = errors.New("paid amount cannot exceed amount")
)

// StatusFor derives the status of an account. Settlement wins over lateness:
// a partially paid account stays partial after its due date. Due dates are
// compared by calendar day, so an account due today is not overdue yet.
func StatusFor(amount, paid decimal.Decimal, due, now time.Time) string {
	switch {
	case paid.GreaterThanOrEqual(amount):
		return StatusPaid
	case paid.IsPositive():
		return StatusPartial
	case startOfDay(due).Before(startOfDay(now.In(due.Location()))):
		return StatusOverdue
	default:
		return StatusPending
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
