package receivables

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hortifruti-pdv/internal/models"
	"hortifruti-pdv/internal/session"
)

type CustomerRef struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	CPF  string `json:"cpf"`
}

type SaleRef struct {
	ID            uint            `json:"id"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PaymentMethod string          `json:"payment_method"`
	CreatedAt     time.Time       `json:"created_at"`
}

type AccountView struct {
	ID         uint            `json:"id"`
	SaleID     uint            `json:"sale_id"`
	Amount     decimal.Decimal `json:"amount"`
	PaidAmount decimal.Decimal `json:"paid_amount"`
	Remaining  decimal.Decimal `json:"remaining"`
	Status     string          `json:"status"`
	DueDate    time.Time       `json:"due_date"`
	CreatedAt  time.Time       `json:"created_at"`
	Sale       *SaleRef        `json:"sale,omitempty"`
}

type Totals struct {
	TotalAmount    decimal.Decimal `json:"total_amount"`
	TotalPaid      decimal.Decimal `json:"total_paid"`
	TotalRemaining decimal.Decimal `json:"total_remaining"`
	AccountsCount  int             `json:"accounts_count"`
	StatusCounts   map[string]int  `json:"status_counts"`
}

type CustomerSummary struct {
	Customer CustomerRef   `json:"customer"`
	Summary  Totals        `json:"summary"`
	Accounts []AccountView `json:"accounts"`
}

// CustomerSummary totals what a customer owes across all their accounts.
func (s *Service) CustomerSummary(ctx context.Context, sess session.Session, customerID uint) (*CustomerSummary, error) {
	var c models.Customer
	if err := s.db.WithContext(ctx).First(&c, customerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}

	list, err := s.List(ctx, sess, Filter{CustomerID: customerID, Limit: -1})
	if err != nil {
		return nil, err
	}

	out := &CustomerSummary{
		Customer: CustomerRef{ID: c.ID, Name: c.Name, CPF: c.CPF},
		Summary: Totals{
			TotalAmount:    decimal.Zero,
			TotalPaid:      decimal.Zero,
			TotalRemaining: decimal.Zero,
			StatusCounts:   map[string]int{},
		},
		Accounts: make([]AccountView, 0, len(list)),
	}
	for _, ar := range list {
		out.Summary.TotalAmount = out.Summary.TotalAmount.Add(ar.Amount)
		out.Summary.TotalPaid = out.Summary.TotalPaid.Add(ar.PaidAmount)
		out.Summary.TotalRemaining = out.Summary.TotalRemaining.Add(ar.Remaining())
		out.Summary.AccountsCount++
		out.Summary.StatusCounts[ar.Status]++

		v := AccountView{
			ID:         ar.ID,
			SaleID:     ar.SaleID,
			Amount:     ar.Amount,
			PaidAmount: ar.PaidAmount,
			Remaining:  ar.Remaining(),
			Status:     ar.Status,
			DueDate:    ar.DueDate,
			CreatedAt:  ar.CreatedAt,
		}
		if ar.Sale != nil {
			v.Sale = &SaleRef{
				ID:            ar.Sale.ID,
				TotalAmount:   ar.Sale.TotalAmount,
				PaymentMethod: ar.Sale.PaymentMethod,
				CreatedAt:     ar.Sale.CreatedAt,
			}
		}
		out.Accounts = append(out.Accounts, v)
	}
	return out, nil
}

type CustomerPayment struct {
	CustomerID     uint             `json:"customer_id"`
	TotalPaid      decimal.Decimal  `json:"total_paid"`
	TotalRemaining decimal.Decimal  `json:"total_remaining"`
	Payments       []models.Payment `json:"payments"`
}

// PayCustomer spreads one lump-sum payment over the customer's open accounts,
// oldest due date first. Paying more than the customer owes is refused.
func (s *Service) PayCustomer(ctx context.Context, sess session.Session, customerID uint, in PaymentInput) (*CustomerPayment, error) {
	in, err := in.normalize()
	if err != nil {
		return nil, err
	}

	out := &CustomerPayment{CustomerID: customerID, TotalPaid: decimal.Zero, TotalRemaining: decimal.Zero}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Customer{}).Where("id = ?", customerID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return ErrCustomerNotFound
		}

		var open []models.AccountReceivable
		err := scoped(tx.Model(&models.AccountReceivable{}), sess).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("account_receivables.customer_id = ?", customerID).
			Where("account_receivables.status <> ?", StatusPaid).
			Order("account_receivables.due_date ASC").
			Order("account_receivables.id ASC").
			Find(&open).Error
		if err != nil {
			return err
		}

		owed := decimal.Zero
		for _, ar := range open {
			owed = owed.Add(ar.Remaining())
		}
		if !owed.IsPositive() {
			return ErrNothingOwed
		}
		if in.Amount.GreaterThan(owed) {
			return fmt.Errorf("%w: %s remaining", ErrExceedsRemaining, owed.StringFixed(2))
		}

		left := in.Amount
		for i := range open {
			if !left.IsPositive() {
				break
			}
			ar := &open[i]
			part := decimal.Min(left, ar.Remaining())
			if !part.IsPositive() {
				continue
			}
			p, err := s.apply(tx, sess, ar, part, in)
			if err != nil {
				return err
			}
			out.Payments = append(out.Payments, *p)
			left = left.Sub(part)
		}
		out.TotalPaid = in.Amount.Sub(left)
		out.TotalRemaining = owed.Sub(out.TotalPaid)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("customer payment recorded",
		zap.Uint("customer_id", customerID),
		zap.Uint("user_id", sess.UserID),
		zap.Int("accounts", len(out.Payments)),
		zap.String("amount", out.TotalPaid.String()))
	return out, nil
}
