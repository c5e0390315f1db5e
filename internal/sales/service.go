// Package sales records sales: it is the submission service behind the PDV
// cart and the read side of the sales screens.
package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hortifruti-pdv/internal/cart"
	"hortifruti-pdv/internal/events"
	"hortifruti-pdv/internal/models"
	"hortifruti-pdv/internal/session"
)

const (
	StatusCompleted = "completed"
	StatusPending   = "pending"
	StatusCancelled = "cancelled"

	MovementIn     = "entrada"
	MovementOut    = "saida"
	MovementAdjust = "ajuste"
)

type Service struct {
	db             *gorm.DB
	publisher      events.Publisher
	log            *zap.Logger
	defaultDueDays int
	now            func() time.Time
}

func NewService(db *gorm.DB, publisher events.Publisher, log *zap.Logger, defaultDueDays int) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{
		db:             db,
		publisher:      publisher,
		log:            log,
		defaultDueDays: defaultDueDays,
		now:            time.Now,
	}
}

// SubmitterFor binds the service to the operator doing the checkout.
func (s *Service) SubmitterFor(sess session.Session) cart.Submitter {
	return cart.SubmitFunc(func(ctx context.Context, order cart.Order) (*cart.Receipt, error) {
		return s.Submit(ctx, sess, order)
	})
}

// Submit records the order in one transaction: product rows are locked, stock
// is checked and decremented, the sale and its items are created and, for a
// deferred payment, an account receivable is opened.
func (s *Service) Submit(ctx context.Context, sess session.Session, order cart.Order) (*cart.Receipt, error) {
	if err := validateOrder(order); err != nil {
		return nil, err
	}

	now := s.now()
	var sale models.Sale
	var dueDate *time.Time

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var customer models.Customer
		if err := tx.Where("is_active = ?", true).First(&customer, order.CustomerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCustomerNotFound
			}
			return err
		}

		total := decimal.Zero
		items := make([]models.SaleItem, 0, len(order.Items))

		for _, item := range order.Items {
			var product models.Product

			// Lock the row so two terminals cannot sell the same stock
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("is_active = ?", true).
				First(&product, item.ProductID).Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: %d", ErrProductNotFound, item.ProductID)
				}
				return err
			}

			if product.StockQuantity.LessThan(item.Quantity) {
				return &InsufficientStockError{
					ProductID:   product.ID,
					ProductName: product.Name,
					Available:   product.StockQuantity,
					Requested:   item.Quantity,
				}
			}

			remaining := product.StockQuantity.Sub(item.Quantity)
			if err := tx.Model(&product).Update("stock_quantity", remaining).Error; err != nil {
				return fmt.Errorf("update stock of product %d: %w", product.ID, err)
			}
			if err := tx.Create(&models.StockMovement{
				ProductID:    product.ID,
				UserID:       sess.UserID,
				MovementType: MovementOut,
				Quantity:     item.Quantity,
				Reason:       "venda",
			}).Error; err != nil {
				return err
			}

			// The price is the one the operator saw when adding the product.
			lineTotal := item.UnitPrice.Mul(item.Quantity)
			total = total.Add(lineTotal)
			items = append(items, models.SaleItem{
				ProductID:  product.ID,
				Quantity:   item.Quantity,
				UnitPrice:  item.UnitPrice,
				TotalPrice: lineTotal.Round(2),
			})
		}

		total = total.Round(2)
		if !total.Equal(order.TotalAmount) {
			s.log.Warn("order total differs from recomputed total",
				zap.Uint("customer_id", order.CustomerID),
				zap.String("client_total", order.TotalAmount.String()),
				zap.String("server_total", total.String()))
		}

		status := StatusCompleted
		if order.PaymentMethod == cart.Deferred {
			status = StatusPending
		}
		customerID := customer.ID
		sale = models.Sale{
			CustomerID:    &customerID,
			SellerID:      sess.UserID,
			TotalAmount:   total,
			PaymentMethod: string(order.PaymentMethod),
			Status:        status,
			CreatedAt:     now,
			Items:         items, // GORM inserts the items with the header
		}
		if err := tx.Create(&sale).Error; err != nil {
			return fmt.Errorf("create sale: %w", err)
		}

		if order.PaymentMethod != cart.Deferred {
			return nil
		}
		due := s.dueDate(order.DueDate, now)
		dueDate = &due
		return tx.Create(&models.AccountReceivable{
			SaleID:     sale.ID,
			CustomerID: customer.ID,
			Amount:     total,
			PaidAmount: decimal.Zero,
			DueDate:    due,
			Status:     StatusPending,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("sale recorded",
		zap.Uint("sale_id", sale.ID),
		zap.Uint("seller_id", sess.UserID),
		zap.String("payment_method", sale.PaymentMethod),
		zap.String("total", sale.TotalAmount.String()))

	s.publish(ctx, sale, order, dueDate)

	return &cart.Receipt{SaleID: sale.ID, Total: sale.TotalAmount, CreatedAt: sale.CreatedAt}, nil
}

// dueDate applies the shop default when the operator left the date blank.
func (s *Service) dueDate(chosen *time.Time, now time.Time) time.Time {
	if chosen != nil {
		return *chosen
	}
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location()).AddDate(0, 0, s.defaultDueDays)
}

func (s *Service) publish(ctx context.Context, sale models.Sale, order cart.Order, due *time.Time) {
	ev := events.SaleCompleted{
		EventType:     "SaleCompleted",
		SaleID:        sale.ID,
		CustomerID:    order.CustomerID,
		SellerID:      sale.SellerID,
		PaymentMethod: sale.PaymentMethod,
		TotalAmount:   sale.TotalAmount,
		DueDate:       due,
		Timestamp:     sale.CreatedAt.UTC(),
	}
	for _, it := range sale.Items {
		ev.Items = append(ev.Items, events.SaleCompletedItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}
	// The sale is committed; a broker outage must not fail the checkout.
	if err := s.publisher.PublishSaleCompleted(ctx, ev); err != nil {
		s.log.Error("publish sale.completed", zap.Uint("sale_id", sale.ID), zap.Error(err))
	}
}

func validateOrder(o cart.Order) error {
	if o.CustomerID == 0 {
		return fmt.Errorf("%w: customer is required", ErrInvalidOrder)
	}
	if len(o.Items) == 0 {
		return fmt.Errorf("%w: no items", ErrInvalidOrder)
	}
	if !o.PaymentMethod.Valid() {
		return fmt.Errorf("%w: unknown payment method %q", ErrInvalidOrder, o.PaymentMethod)
	}
	seen := make(map[uint]bool, len(o.Items))
	for _, it := range o.Items {
		if !it.Quantity.IsPositive() {
			return fmt.Errorf("%w: quantity of product %d must be positive", ErrInvalidOrder, it.ProductID)
		}
		if it.UnitPrice.IsNegative() {
			return fmt.Errorf("%w: negative price for product %d", ErrInvalidOrder, it.ProductID)
		}
		if seen[it.ProductID] {
			return fmt.Errorf("%w: product %d listed twice", ErrInvalidOrder, it.ProductID)
		}
		seen[it.ProductID] = true
	}
	return nil
}
