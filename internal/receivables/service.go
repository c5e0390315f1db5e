package receivables

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hortifruti-pdv/internal/cart"
	"hortifruti-pdv/internal/models"
	"hortifruti-pdv/internal/sales"
	"hortifruti-pdv/internal/session"
)

type Service struct {
	db  *gorm.DB
	log *zap.Logger
	now func() time.Time
}

func NewService(db *gorm.DB, log *zap.Logger) *Service {
	return &Service{db: db, log: log, now: time.Now}
}

// Filter narrows List. A zero Limit means 100 rows; a negative one means no limit.
type Filter struct {
	Status       string
	CustomerName string
	CustomerID   uint
	Offset       int
	Limit        int
}

// scoped restricts q to accounts of sales made by the seller. Admins see all.
func scoped(q *gorm.DB, sess session.Session) *gorm.DB {
	if scope := sess.SellerScope(); scope != 0 {
		q = q.Joins("JOIN sales ON sales.id = account_receivables.sale_id").
			Where("sales.seller_id = ?", scope)
	}
	return q
}

// List returns accounts ordered by due date, the most urgent first.
func (s *Service) List(ctx context.Context, sess session.Session, f Filter) ([]models.AccountReceivable, error) {
	q := scoped(s.db.WithContext(ctx).Model(&models.AccountReceivable{}), sess).
		Preload("Sale").
		Preload("Customer")

	if f.Status != "" {
		q = q.Where("account_receivables.status = ?", f.Status)
	}
	if f.CustomerID != 0 {
		q = q.Where("account_receivables.customer_id = ?", f.CustomerID)
	}
	if name := strings.TrimSpace(f.CustomerName); name != "" {
		q = q.Joins("JOIN customers ON customers.id = account_receivables.customer_id").
			Where("LOWER(customers.name) LIKE ?", "%"+strings.ToLower(name)+"%")
	}
	if f.Limit == 0 {
		f.Limit = 100
	}

	var out []models.AccountReceivable
	err := q.Order("account_receivables.due_date ASC").
		Offset(f.Offset).
		Limit(f.Limit).
		Find(&out).Error
	return out, err
}

func (s *Service) Get(ctx context.Context, sess session.Session, id uint) (*models.AccountReceivable, error) {
	var ar models.AccountReceivable
	if err := s.db.WithContext(ctx).Preload("Sale").Preload("Customer").First(&ar, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !visible(sess, &ar) {
		return nil, ErrNotFound
	}
	return &ar, nil
}

func visible(sess session.Session, ar *models.AccountReceivable) bool {
	scope := sess.SellerScope()
	return scope == 0 || (ar.Sale != nil && ar.Sale.SellerID == scope)
}

type CreateInput struct {
	SaleID  uint             `json:"sale_id" binding:"required"`
	Amount  *decimal.Decimal `json:"amount"`
	DueDate time.Time        `json:"due_date" binding:"required"`
	Notes   string           `json:"notes"`
}

// Create opens an account for a sale recorded without one. The customer and,
// unless given, the amount come from the sale.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.AccountReceivable, error) {
	var ar models.AccountReceivable
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sale models.Sale
		if err := tx.First(&sale, in.SaleID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSaleNotFound
			}
			return err
		}
		if sale.CustomerID == nil {
			return fmt.Errorf("%w: sale %d has no customer", ErrCustomerNotFound, sale.ID)
		}

		var n int64
		if err := tx.Model(&models.AccountReceivable{}).Where("sale_id = ?", sale.ID).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrAlreadyExists
		}

		amount := sale.TotalAmount
		if in.Amount != nil {
			amount = in.Amount.Round(2)
		}
		if !amount.IsPositive() {
			return ErrInvalidAmount
		}
		ar = models.AccountReceivable{
			SaleID:     sale.ID,
			CustomerID: *sale.CustomerID,
			Amount:     amount,
			PaidAmount: decimal.Zero,
			DueDate:    in.DueDate,
			Status:     StatusFor(amount, decimal.Zero, in.DueDate, s.now()),
			Notes:      in.Notes,
		}
		return tx.Create(&ar).Error
	})
	if err != nil {
		return nil, err
	}
	return &ar, nil
}

type UpdateInput struct {
	Amount     *decimal.Decimal `json:"amount"`
	PaidAmount *decimal.Decimal `json:"paid_amount"`
	DueDate    *time.Time       `json:"due_date"`
	Notes      *string          `json:"notes"`
}

// Update edits an account and re-derives its status. Admin only.
func (s *Service) Update(ctx context.Context, sess session.Session, id uint, in UpdateInput) (*models.AccountReceivable, error) {
	if !sess.IsAdmin() {
		return nil, ErrForbidden
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ar models.AccountReceivable
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&ar, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if in.Amount != nil {
			ar.Amount = in.Amount.Round(2)
		}
		if in.PaidAmount != nil {
			ar.PaidAmount = in.PaidAmount.Round(2)
		}
		if in.DueDate != nil {
			ar.DueDate = *in.DueDate
		}
		if in.Notes != nil {
			ar.Notes = *in.Notes
		}
		if !ar.Amount.IsPositive() || ar.PaidAmount.IsNegative() {
			return ErrInvalidAmount
		}
		if ar.PaidAmount.GreaterThan(ar.Amount) {
			return ErrInvalidAmountEdit
		}
		ar.Status = StatusFor(ar.Amount, ar.PaidAmount, ar.DueDate, s.now())

		return tx.Model(&ar).Select("Amount", "PaidAmount", "DueDate", "Notes", "Status").Updates(&ar).Error
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, sess, id)
}

type PaymentInput struct {
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method"`
	Notes         string          `json:"notes"`
}

func (in PaymentInput) normalize() (PaymentInput, error) {
	in.Amount = in.Amount.Round(2)
	if !in.Amount.IsPositive() {
		return in, ErrInvalidAmount
	}
	if strings.TrimSpace(in.PaymentMethod) == "" {
		in.PaymentMethod = string(cart.Cash)
	}
	m, err := cart.ParsePaymentMethod(in.PaymentMethod)
	if err != nil || m == cart.Deferred {
		return in, fmt.Errorf("%w: %q", ErrInvalidMethod, in.PaymentMethod)
	}
	in.PaymentMethod = string(m)
	return in, nil
}

// AddPayment settles part or all of one account. Once fully paid the sale
// behind it is marked completed.
func (s *Service) AddPayment(ctx context.Context, sess session.Session, accountID uint, in PaymentInput) (*models.Payment, error) {
	in, err := in.normalize()
	if err != nil {
		return nil, err
	}

	var payment *models.Payment
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ar models.AccountReceivable
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Preload("Sale").First(&ar, accountID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if !visible(sess, &ar) {
			return ErrNotFound
		}
		if in.Amount.GreaterThan(ar.Remaining()) {
			return fmt.Errorf("%w: %s remaining", ErrExceedsRemaining, ar.Remaining().StringFixed(2))
		}
		payment, err = s.apply(tx, sess, &ar, in.Amount, in)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("payment recorded",
		zap.Uint("account_id", accountID),
		zap.Uint("user_id", sess.UserID),
		zap.String("amount", in.Amount.String()))
	return payment, nil
}

// apply records amount against ar inside tx and updates its status.
func (s *Service) apply(tx *gorm.DB, sess session.Session, ar *models.AccountReceivable, amount decimal.Decimal, in PaymentInput) (*models.Payment, error) {
	now := s.now()
	p := models.Payment{
		AccountReceivableID: ar.ID,
		Amount:              amount,
		PaymentMethod:       in.PaymentMethod,
		Notes:               in.Notes,
		PaymentDate:         now,
		CreatedBy:           sess.UserID,
	}
	if err := tx.Create(&p).Error; err != nil {
		return nil, err
	}

	ar.PaidAmount = ar.PaidAmount.Add(amount)
	ar.Status = StatusFor(ar.Amount, ar.PaidAmount, ar.DueDate, now)
	if err := tx.Model(ar).Updates(map[string]any{
		"paid_amount": ar.PaidAmount,
		"status":      ar.Status,
	}).Error; err != nil {
		return nil, err
	}

	if ar.Status == StatusPaid {
		err := tx.Model(&models.Sale{}).
			Where("id = ? AND status = ?", ar.SaleID, sales.StatusPending).
			Update("status", sales.StatusCompleted).Error
		if err != nil {
			return nil, err
		}
	}
	return &p, nil
}

// Payments lists the payments of an account, newest first.
func (s *Service) Payments(ctx context.Context, sess session.Session, accountID uint) ([]models.Payment, error) {
	if _, err := s.Get(ctx, sess, accountID); err != nil {
		return nil, err
	}
	var out []models.Payment
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("account_receivable_id = ?", accountID).
		Order("payment_date DESC").
		Find(&out).Error
	return out, err
}

type OverdueAccount struct {
	ID           uint            `json:"id"`
	CustomerName string          `json:"customer_name"`
	Amount       decimal.Decimal `json:"amount"`
	PaidAmount   decimal.Decimal `json:"paid_amount"`
	Remaining    decimal.Decimal `json:"remaining"`
	DueDate      time.Time       `json:"due_date"`
}

type OverdueSummary struct {
	TotalOverdueAmount decimal.Decimal  `json:"total_overdue_amount"`
	OverdueCount       int              `json:"overdue_count"`
	Accounts           []OverdueAccount `json:"accounts"`
}

// OverdueSummary reports every unsettled account whose due day has passed,
// whether or not MarkOverdue already flagged it.
func (s *Service) OverdueSummary(ctx context.Context, sess session.Session) (*OverdueSummary, error) {
	today := startOfDay(s.now())
	var list []models.AccountReceivable
	err := scoped(s.db.WithContext(ctx).Model(&models.AccountReceivable{}), sess).
		Preload("Customer").
		Where("account_receivables.status <> ?", StatusPaid).
		Where("account_receivables.due_date < ?", today).
		Order("account_receivables.due_date ASC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}

	out := &OverdueSummary{TotalOverdueAmount: decimal.Zero, Accounts: []OverdueAccount{}}
	for _, ar := range list {
		name := ""
		if ar.Customer != nil {
			name = ar.Customer.Name
		}
		out.TotalOverdueAmount = out.TotalOverdueAmount.Add(ar.Remaining())
		out.OverdueCount++
		out.Accounts = append(out.Accounts, OverdueAccount{
			ID:           ar.ID,
			CustomerName: name,
			Amount:       ar.Amount,
			PaidAmount:   ar.PaidAmount,
			Remaining:    ar.Remaining(),
			DueDate:      ar.DueDate,
		})
	}
	return out, nil
}

// MarkOverdue flags pending accounts whose due day has passed and returns
// how many changed.
func (s *Service) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.AccountReceivable{}).
		Where("status = ? AND due_date < ?", StatusPending, startOfDay(now)).
		Update("status", StatusOverdue)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected > 0 {
		s.log.Info("accounts marked overdue", zap.Int64("count", res.RowsAffected))
	}
	return res.RowsAffected, nil
}
