// Package cart holds the point-of-sale shopping cart: line items checked
// against a stock snapshot, the selected customer, the payment method and the
// checkout that turns all of it into an Order.
package cart

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Product is the catalog snapshot the cart validates against.
type Product struct {
	ID        uint            `json:"id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Stock     decimal.Decimal `json:"stock_quantity"`
	Unit      string          `json:"unit"`
}

type Customer struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	TaxID string `json:"tax_id"`
}

// Line is one product in the cart. The price is the one seen when the
// product was first added.
type Line struct {
	Product  Product
	Quantity decimal.Decimal
}

// Total is always derived, never stored.
func (l Line) Total() decimal.Decimal {
	return l.Product.UnitPrice.Mul(l.Quantity)
}

type State string

const (
	StateEmpty      State = "empty"
	StateBuilding   State = "building"
	StateSubmitting State = "submitting"
)

const changeCustomerPrompt = "Changing the customer clears the current cart. Continue?"

// Cart is long-lived: it returns to StateEmpty after a successful checkout
// and is reused for the next sale. It is safe for concurrent use.
type Cart struct {
	mu         sync.Mutex
	lines      []Line
	customer   *Customer
	method     PaymentMethod
	dueDate    *time.Time
	submitting bool
	now        func() time.Time
}

type Option func(*Cart)

// WithClock overrides the clock used to reject past due dates.
func WithClock(now func() time.Time) Option {
	return func(c *Cart) { c.now = now }
}

func New(opts ...Option) *Cart {
	c := &Cart{method: Cash, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AddItem puts one unit of p in the cart, or one more unit when p is already
// there. Exceeding the stock snapshot is refused and leaves the cart as it was.
func (c *Cart) AddItem(p Product) error {
	if p.ID == 0 || p.UnitPrice.IsNegative() || p.Stock.IsNegative() {
		return invalid(ErrInvalidProduct, "invalid product %d", p.ID)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.submitting {
		return ErrCheckoutInFlight
	}

	if i := c.find(p.ID); i >= 0 {
		next := c.lines[i].Quantity.Add(decimal.NewFromInt(1))
		if next.GreaterThan(p.Stock) {
			return invalid(ErrExceedsStock, "only %s %s of %s in stock", p.Stock, p.Unit, p.Name)
		}
		c.lines[i].Quantity = next
		c.lines[i].Product.Stock = p.Stock
		return nil
	}

	one := decimal.NewFromInt(1)
	if one.GreaterThan(p.Stock) {
		return invalid(ErrExceedsStock, "%s is out of stock", p.Name)
	}
	c.lines = append(c.lines, Line{Product: p, Quantity: one})
	return nil
}

// SetQuantity replaces the quantity of a line. Zero or less removes it; more
// than the stock snapshot is refused and the previous quantity stays.
func (c *Cart) SetQuantity(productID uint, qty decimal.Decimal) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.submitting {
		return ErrCheckoutInFlight
	}

	i := c.find(productID)
	if i < 0 {
		return ErrLineNotFound
	}
	if !qty.IsPositive() {
		c.removeAt(i)
		return nil
	}
	p := c.lines[i].Product
	if qty.GreaterThan(p.Stock) {
		return invalid(ErrExceedsStock, "only %s %s of %s in stock", p.Stock, p.Unit, p.Name)
	}
	c.lines[i].Quantity = qty
	return nil
}

// RemoveItem deletes the line for productID. Removing an absent product is a no-op.
func (c *Cart) RemoveItem(productID uint) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.submitting {
		return ErrCheckoutInFlight
	}
	if i := c.find(productID); i >= 0 {
		c.removeAt(i)
	}
	return nil
}

// SetCustomer selects the customer for the sale; nil clears the selection.
// A non-empty cart is only switched to another customer after confirm agrees,
// and then the lines are cleared first. It returns whether the change happened.
func (c *Cart) SetCustomer(ctx context.Context, customer *Customer, confirm Confirmer) (bool, error) {
	c.mu.Lock()
	if c.submitting {
		c.mu.Unlock()
		return false, ErrCheckoutInFlight
	}
	if sameCustomer(c.customer, customer) {
		c.mu.Unlock()
		return true, nil
	}
	needsConfirm := len(c.lines) > 0
	c.mu.Unlock()

	// The confirmation may block on the operator, so it runs unlocked.
	if needsConfirm && (confirm == nil || !confirm.Confirm(ctx, changeCustomerPrompt)) {
		return false, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.submitting {
		return false, ErrCheckoutInFlight
	}
	if len(c.lines) > 0 {
		c.lines = nil
		c.dueDate = nil
	}
	if customer != nil {
		cp := *customer
		customer = &cp
	}
	c.customer = customer
	return true, nil
}

// SetPaymentMethod switches the method; leaving Deferred drops the due date.
func (c *Cart) SetPaymentMethod(m PaymentMethod) error {
	if !m.Valid() {
		return invalid(ErrUnknownPaymentMethod, "unknown payment method %q", string(m))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.submitting {
		return ErrCheckoutInFlight
	}
	c.method = m
	if !m.UsesDueDate() {
		c.dueDate = nil
	}
	return nil
}

// SetDueDate picks the due date of a deferred sale. Only the calendar day is
// kept; today is accepted, earlier days are not. nil clears the date.
func (c *Cart) SetDueDate(d *time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.submitting {
		return ErrCheckoutInFlight
	}
	if d == nil {
		c.dueDate = nil
		return nil
	}
	if !c.method.UsesDueDate() {
		return invalid(ErrDueDateNotAllowed, "due date requires %s payment", Deferred)
	}

	day := truncateDay(*d)
	today := truncateDay(c.now().In(d.Location()))
	if day.Before(today) {
		return invalid(ErrPastDueDate, "due date %s is before %s", day.Format(time.DateOnly), today.Format(time.DateOnly))
	}
	c.dueDate = &day
	return nil
}

// RefreshStock updates the stock snapshot of lines from a freshly fetched
// catalog. Prices are not touched. It returns the products whose cart quantity
// is now above the stock; the submission service will reject those.
func (c *Cart) RefreshStock(products []Product) []uint {
	byID := make(map[uint]Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var over []uint
	for i := range c.lines {
		p, ok := byID[c.lines[i].Product.ID]
		if !ok {
			continue
		}
		c.lines[i].Product.Stock = p.Stock
		c.lines[i].Product.Name = p.Name
		c.lines[i].Product.Unit = p.Unit
		if c.lines[i].Quantity.GreaterThan(p.Stock) {
			over = append(over, p.ID)
		}
	}
	return over
}

// Total is the exact sum of the line totals. Rounding happens once, in BuildOrder.
func (c *Cart) Total() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total()
}

func (c *Cart) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) Customer() *Customer {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.customer == nil {
		return nil
	}
	cp := *c.customer
	return &cp
}

func (c *Cart) PaymentMethod() PaymentMethod {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.method
}

func (c *Cart) DueDate() *time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dueDate == nil {
		return nil
	}
	d := *c.dueDate
	return &d
}

func (c *Cart) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state()
}

// BuildOrder validates the checkout preconditions and returns the payload
// without submitting it.
func (c *Cart) BuildOrder() (Order, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buildOrder()
}

// Checkout submits the cart. Only one checkout may be in flight; mutations are
// refused until it resolves. On success the cart and customer are cleared, on
// failure everything is kept so the operator can fix it and retry.
func (c *Cart) Checkout(ctx context.Context, s Submitter) (*Receipt, error) {
	order, err := c.beginCheckout()
	if err != nil {
		return nil, err
	}

	// The flag is cleared even if the submitter panics, so the cart never
	// stays locked in StateSubmitting.
	done := false
	defer func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.submitting = false
		if done {
			c.lines = nil
			c.customer = nil
			c.dueDate = nil
			c.method = Cash
		}
	}()

	receipt, err := s.Submit(ctx, order)
	if err != nil {
		return nil, &SubmissionError{Err: err}
	}
	done = true
	return receipt, nil
}

func (c *Cart) beginCheckout() (Order, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.submitting {
		return Order{}, ErrCheckoutInFlight
	}
	order, err := c.buildOrder()
	if err != nil {
		return Order{}, err
	}
	c.submitting = true
	return order, nil
}

func (c *Cart) buildOrder() (Order, error) {
	if c.customer == nil {
		return Order{}, &ValidationError{Err: ErrNoCustomer}
	}
	if len(c.lines) == 0 {
		return Order{}, &ValidationError{Err: ErrEmptyCart}
	}

	order := Order{
		CustomerID:    c.customer.ID,
		PaymentMethod: c.method,
		TotalAmount:   c.total().Round(2),
		Items:         make([]OrderItem, 0, len(c.lines)),
	}
	for _, l := range c.lines {
		if l.Product.ID == 0 || !l.Quantity.IsPositive() {
			panic(fmt.Sprintf("cart: corrupted line for product %d with quantity %s", l.Product.ID, l.Quantity))
		}
		order.Items = append(order.Items, OrderItem{
			ProductID:  l.Product.ID,
			Quantity:   l.Quantity,
			UnitPrice:  l.Product.UnitPrice,
			TotalPrice: l.Total(),
		})
	}
	if c.method.UsesDueDate() && c.dueDate != nil {
		d := *c.dueDate
		order.DueDate = &d
	}
	return order, nil
}

func (c *Cart) state() State {
	switch {
	case c.submitting:
		return StateSubmitting
	case len(c.lines) == 0:
		return StateEmpty
	default:
		return StateBuilding
	}
}

func (c *Cart) total() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range c.lines {
		sum = sum.Add(l.Total())
	}
	return sum
}

func (c *Cart) find(productID uint) int {
	for i, l := range c.lines {
		if l.Product.ID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) removeAt(i int) {
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
}

func sameCustomer(a, b *Customer) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.ID == b.ID
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
