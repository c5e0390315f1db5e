package sales

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"hortifruti-pdv/internal/cart"
	"hortifruti-pdv/internal/models"
	"hortifruti-pdv/internal/session"
)

type ListFilter struct {
	CustomerName  string
	CustomerID    uint
	SellerID      uint
	Status        string
	PaymentMethod string
	Start         time.Time
	End           time.Time
	Offset        int
	Limit         int
}

func (s *Service) query(ctx context.Context, sess session.Session, f ListFilter) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&models.Sale{})

	if scope := sess.SellerScope(); scope != 0 {
		q = q.Where("sales.seller_id = ?", scope)
	} else if f.SellerID != 0 {
		q = q.Where("sales.seller_id = ?", f.SellerID)
	}
	if f.CustomerID != 0 {
		q = q.Where("sales.customer_id = ?", f.CustomerID)
	}
	if name := strings.TrimSpace(f.CustomerName); name != "" {
		q = q.Joins("JOIN customers ON customers.id = sales.customer_id").
			Where("LOWER(customers.name) LIKE ?", "%"+strings.ToLower(name)+"%")
	}
	if f.Status != "" {
		q = q.Where("sales.status = ?", f.Status)
	}
	if f.PaymentMethod != "" {
		q = q.Where("sales.payment_method = ?", f.PaymentMethod)
	}
	if !f.Start.IsZero() {
		q = q.Where("sales.created_at >= ?", f.Start)
	}
	if !f.End.IsZero() {
		q = q.Where("sales.created_at <= ?", f.End)
	}
	return q
}

// List returns sales newest first. Sellers only ever see their own sales.
func (s *Service) List(ctx context.Context, sess session.Session, f ListFilter) ([]models.Sale, error) {
	q := s.query(ctx, sess, f).
		Preload("Customer").
		Preload("Seller").
		Preload("Items.Product").
		Order("sales.created_at DESC")
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}

	var out []models.Sale
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, sess session.Session, id uint) (*models.Sale, error) {
	var sale models.Sale
	err := s.db.WithContext(ctx).
		Preload("Customer").
		Preload("Seller").
		Preload("Items.Product").
		First(&sale, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSaleNotFound
	}
	if err != nil {
		return nil, err
	}
	if scope := sess.SellerScope(); scope != 0 && sale.SellerID != scope {
		return nil, ErrSaleNotFound
	}
	return &sale, nil
}

type Update struct {
	CustomerID    *uint   `json:"customer_id"`
	PaymentMethod *string `json:"payment_method"`
	Status        *string `json:"status"`
}

// Update changes sale metadata. Cancelling puts the stock back and drops an
// unpaid account receivable; a cancelled sale cannot be reopened.
func (s *Service) Update(ctx context.Context, sess session.Session, id uint, u Update) (*models.Sale, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sale models.Sale
		if err := tx.Preload("Items").First(&sale, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSaleNotFound
			}
			return err
		}

		changes := map[string]any{}
		if u.CustomerID != nil {
			var n int64
			if err := tx.Model(&models.Customer{}).Where("id = ?", *u.CustomerID).Count(&n).Error; err != nil {
				return err
			}
			if n == 0 {
				return ErrCustomerNotFound
			}
			changes["customer_id"] = *u.CustomerID
		}
		if u.PaymentMethod != nil {
			m, err := cart.ParsePaymentMethod(*u.PaymentMethod)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidOrder, err)
			}
			changes["payment_method"] = string(m)
		}
		if u.Status != nil && *u.Status != sale.Status {
			switch *u.Status {
			case StatusCompleted, StatusPending:
				if sale.Status == StatusCancelled {
					return fmt.Errorf("%w: a cancelled sale cannot be reopened", ErrInvalidStatus)
				}
			case StatusCancelled:
				if err := s.cancel(tx, sess, &sale); err != nil {
					return err
				}
			default:
				return fmt.Errorf("%w: %q", ErrInvalidStatus, *u.Status)
			}
			changes["status"] = *u.Status
		}
		if len(changes) == 0 {
			return nil
		}
		return tx.Model(&sale).Updates(changes).Error
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, sess, id)
}

func (s *Service) cancel(tx *gorm.DB, sess session.Session, sale *models.Sale) error {
	var ar models.AccountReceivable
	err := tx.Where("sale_id = ?", sale.ID).First(&ar).Error
	switch {
	case err == nil:
		if ar.PaidAmount.IsPositive() {
			return ErrHasPayments
		}
		if err := tx.Delete(&ar).Error; err != nil {
			return err
		}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return err
	}

	for _, it := range sale.Items {
		err := tx.Model(&models.Product{}).Where("id = ?", it.ProductID).
			Update("stock_quantity", gorm.Expr("stock_quantity + ?", it.Quantity)).Error
		if err != nil {
			return err
		}
		if err := tx.Create(&models.StockMovement{
			ProductID:    it.ProductID,
			UserID:       sess.UserID,
			MovementType: MovementIn,
			Quantity:     it.Quantity,
			Reason:       fmt.Sprintf("cancelamento da venda #%d", sale.ID),
		}).Error; err != nil {
			return err
		}
	}
	return nil
}

type CustomerRef struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	CPF  string `json:"cpf"`
}

type StatusStat struct {
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

type GroupSummary struct {
	SalesCount  int                   `json:"sales_count"`
	TotalAmount decimal.Decimal       `json:"total_amount"`
	AvgAmount   decimal.Decimal       `json:"avg_amount"`
	StatusStats map[string]StatusStat `json:"status_stats"`
}

type CustomerSales struct {
	Customer CustomerRef   `json:"customer"`
	Summary  GroupSummary  `json:"summary"`
	Sales    []models.Sale `json:"sales"`
}

// GroupedByCustomer buckets the filtered sales per customer, biggest
// spenders first.
func (s *Service) GroupedByCustomer(ctx context.Context, sess session.Session, f ListFilter) ([]CustomerSales, error) {
	f.Limit, f.Offset = 0, 0
	list, err := s.List(ctx, sess, f)
	if err != nil {
		return nil, err
	}

	byCustomer := map[uint]*CustomerSales{}
	var order []uint
	for _, sale := range list {
		var key uint
		ref := CustomerRef{Name: "Consumidor final"}
		if sale.CustomerID != nil {
			key = *sale.CustomerID
			ref.ID = key
		}
		if sale.Customer != nil {
			ref.Name, ref.CPF = sale.Customer.Name, sale.Customer.CPF
		}

		g, ok := byCustomer[key]
		if !ok {
			g = &CustomerSales{
				Customer: ref,
				Summary:  GroupSummary{TotalAmount: decimal.Zero, StatusStats: map[string]StatusStat{}},
			}
			byCustomer[key] = g
			order = append(order, key)
		}
		g.Sales = append(g.Sales, sale)
		g.Summary.SalesCount++
		g.Summary.TotalAmount = g.Summary.TotalAmount.Add(sale.TotalAmount)
		st := g.Summary.StatusStats[sale.Status]
		st.Count++
		st.Amount = st.Amount.Add(sale.TotalAmount)
		g.Summary.StatusStats[sale.Status] = st
	}

	out := make([]CustomerSales, 0, len(order))
	for _, key := range order {
		g := byCustomer[key]
		g.Summary.AvgAmount = g.Summary.TotalAmount.Div(decimal.NewFromInt(int64(g.Summary.SalesCount))).Round(2)
		out = append(out, *g)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Summary.TotalAmount.GreaterThan(out[j].Summary.TotalAmount)
	})
	return out, nil
}

type MethodTotal struct {
	Method string          `json:"method"`
	Total  decimal.Decimal `json:"total"`
	Count  int             `json:"count"`
}

type DailySummary struct {
	Date           string          `json:"date"`
	TotalSales     decimal.Decimal `json:"total_sales"`
	TotalCount     int             `json:"total_count"`
	PaymentMethods []MethodTotal   `json:"payment_methods"`
}

// DailySummary totals the non-cancelled sales of the calendar day of day.
func (s *Service) DailySummary(ctx context.Context, sess session.Session, day time.Time) (*DailySummary, error) {
	y, m, d := day.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1).Add(-time.Nanosecond)

	var list []models.Sale
	err := s.query(ctx, sess, ListFilter{Start: start, End: end}).
		Where("sales.status <> ?", StatusCancelled).
		Find(&list).Error
	if err != nil {
		return nil, err
	}

	out := &DailySummary{Date: start.Format(time.DateOnly), TotalSales: decimal.Zero, PaymentMethods: []MethodTotal{}}
	idx := map[string]int{}
	for _, sale := range list {
		out.TotalSales = out.TotalSales.Add(sale.TotalAmount)
		out.TotalCount++
		i, ok := idx[sale.PaymentMethod]
		if !ok {
			i = len(out.PaymentMethods)
			idx[sale.PaymentMethod] = i
			out.PaymentMethods = append(out.PaymentMethods, MethodTotal{Method: sale.PaymentMethod, Total: decimal.Zero})
		}
		out.PaymentMethods[i].Total = out.PaymentMethods[i].Total.Add(sale.TotalAmount)
		out.PaymentMethods[i].Count++
	}
	sort.Slice(out.PaymentMethods, func(i, j int) bool {
		return out.PaymentMethods[i].Method < out.PaymentMethods[j].Method
	})
	return out, nil
}
