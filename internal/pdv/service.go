package pdv

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"hortifruti-pdv/internal/cart"
	"hortifruti-pdv/internal/metrics"
	"hortifruti-pdv/internal/session"
)

// ErrConfirmationRequired is returned when switching the customer would
// clear a non-empty cart and the operator has not confirmed it.
var ErrConfirmationRequired = errors.New("changing the customer clears the cart; confirm to continue")

// SubmitterSource hands out a submitter bound to the operator.
type SubmitterSource interface {
	SubmitterFor(sess session.Session) cart.Submitter
}

// Service drives the operator's cart from catalog and directory lookups.
type Service struct {
	carts     *Registry
	catalog   *Catalog
	customers *Directory
	sales     SubmitterSource
	metrics   *metrics.Metrics
	log       *zap.Logger
}

func NewService(carts *Registry, catalog *Catalog, customers *Directory, sales SubmitterSource, m *metrics.Metrics, log *zap.Logger) *Service {
	return &Service{
		carts:     carts,
		catalog:   catalog,
		customers: customers,
		sales:     sales,
		metrics:   m,
		log:       log,
	}
}

func (s *Service) View(sess session.Session) cart.View {
	return s.carts.Get(sess.UserID).Snapshot()
}

// AddItem adds one unit of the product using a fresh stock snapshot.
func (s *Service) AddItem(ctx context.Context, sess session.Session, productID uint) (cart.View, error) {
	p, err := s.catalog.Product(ctx, productID)
	if err != nil {
		return cart.View{}, err
	}
	c := s.carts.Get(sess.UserID)
	return s.result(c, c.AddItem(p))
}

// SetQuantity checks a positive quantity against the current catalog stock,
// the same way AddItem does. Zero or less removes the line without a lookup.
func (s *Service) SetQuantity(ctx context.Context, sess session.Session, productID uint, qty decimal.Decimal) (cart.View, error) {
	c := s.carts.Get(sess.UserID)
	if qty.IsPositive() {
		p, err := s.catalog.Product(ctx, productID)
		if err != nil {
			return cart.View{}, err
		}
		c.RefreshStock([]cart.Product{p})
	}
	return s.result(c, c.SetQuantity(productID, qty))
}

func (s *Service) RemoveItem(_ context.Context, sess session.Session, productID uint) (cart.View, error) {
	c := s.carts.Get(sess.UserID)
	return s.result(c, c.RemoveItem(productID))
}

// SetCustomer selects customerID, or clears the selection when it is nil.
// confirm answers the "clear the cart?" question up front; without it a
// change on a non-empty cart fails with ErrConfirmationRequired.
func (s *Service) SetCustomer(ctx context.Context, sess session.Session, customerID *uint, confirm bool) (cart.View, error) {
	var customer *cart.Customer
	if customerID != nil {
		cu, err := s.customers.Customer(ctx, *customerID)
		if err != nil {
			return cart.View{}, err
		}
		customer = &cu
	}

	c := s.carts.Get(sess.UserID)
	changed, err := c.SetCustomer(ctx, customer, cart.Always(confirm))
	if err != nil {
		return s.result(c, err)
	}
	if !changed {
		return c.Snapshot(), ErrConfirmationRequired
	}
	return c.Snapshot(), nil
}

func (s *Service) SetPaymentMethod(_ context.Context, sess session.Session, method string) (cart.View, error) {
	c := s.carts.Get(sess.UserID)
	m, err := cart.ParsePaymentMethod(method)
	if err != nil {
		return s.result(c, err)
	}
	return s.result(c, c.SetPaymentMethod(m))
}

func (s *Service) SetDueDate(_ context.Context, sess session.Session, due *time.Time) (cart.View, error) {
	c := s.carts.Get(sess.UserID)
	return s.result(c, c.SetDueDate(due))
}

// Discard drops the operator's cart. A checkout already running on it still
// finishes, and the next request starts from an empty cart.
func (s *Service) Discard(userID uint) cart.View {
	s.carts.Reset(userID)
	s.log.Info("cart discarded", zap.Uint("user_id", userID))
	return s.carts.Get(userID).Snapshot()
}

// Refresh reloads the stock snapshot of every line and returns the products
// the cart now holds more of than is in stock.
func (s *Service) Refresh(ctx context.Context, sess session.Session) (cart.View, []uint, error) {
	c := s.carts.Get(sess.UserID)
	lines := c.Lines()
	ids := make([]uint, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.Product.ID)
	}
	products, err := s.catalog.Products(ctx, ids)
	if err != nil {
		return cart.View{}, nil, err
	}
	over := c.RefreshStock(products)
	return c.Snapshot(), over, nil
}

// Checkout submits the operator's cart. The cart is kept on any failure.
func (s *Service) Checkout(ctx context.Context, sess session.Session) (*cart.Receipt, error) {
	c := s.carts.Get(sess.UserID)
	method := c.PaymentMethod().String()

	receipt, err := c.Checkout(ctx, s.sales.SubmitterFor(sess))
	var subErr *cart.SubmissionError
	switch {
	case err == nil:
		s.metrics.Checkout("success", method)
	case errors.As(err, &subErr):
		s.metrics.Checkout("rejected", method)
		s.log.Warn("checkout rejected",
			zap.Uint("user_id", sess.UserID),
			zap.String("reason", subErr.Reason()))
	case errors.Is(err, cart.ErrCheckoutInFlight):
		s.metrics.Checkout("in_flight", method)
	default:
		s.metrics.Checkout("validation", method)
		s.rejected(err)
	}
	return receipt, err
}

func (s *Service) result(c *cart.Cart, err error) (cart.View, error) {
	if err != nil {
		s.rejected(err)
		return c.Snapshot(), err
	}
	return c.Snapshot(), nil
}

func (s *Service) rejected(err error) {
	var v *cart.ValidationError
	switch {
	case errors.As(err, &v):
		s.metrics.Rejection(reason(v.Err))
	case errors.Is(err, cart.ErrCheckoutInFlight):
		s.metrics.Rejection("checkout_in_flight")
	}
}

func reason(err error) string {
	switch {
	case errors.Is(err, cart.ErrNoCustomer):
		return "no_customer"
	case errors.Is(err, cart.ErrEmptyCart):
		return "empty_cart"
	case errors.Is(err, cart.ErrExceedsStock):
		return "exceeds_stock"
	case errors.Is(err, cart.ErrPastDueDate):
		return "past_due_date"
	case errors.Is(err, cart.ErrDueDateNotAllowed):
		return "due_date_not_allowed"
	case errors.Is(err, cart.ErrUnknownPaymentMethod):
		return "unknown_payment_method"
	default:
		return "invalid"
	}
}
