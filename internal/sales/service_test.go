package sales_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"hortifruti-pdv/internal/cart"
	"hortifruti-pdv/internal/events"
	"hortifruti-pdv/internal/models"
	"hortifruti-pdv/internal/sales"
	"hortifruti-pdv/internal/session"
	"hortifruti-pdv/internal/testutil"
)

type capturePublisher struct {
	events []events.SaleCompleted
	err    error
}

func (p *capturePublisher) PublishSaleCompleted(_ context.Context, ev events.SaleCompleted) error {
	p.events = append(p.events, ev)
	return p.err
}

type fixture struct {
	db       *gorm.DB
	svc      *sales.Service
	pub      *capturePublisher
	seller   session.Session
	admin    session.Session
	customer models.Customer
	apple    models.Product
	banana   models.Product
}

func setup(t *testing.T) fixture {
	db := testutil.NewDB(t)
	pub := &capturePublisher{}
	f := fixture{
		db:       db,
		svc:      sales.NewService(db, pub, zap.NewNop(), 30),
		pub:      pub,
		seller:   testutil.SellerSession(testutil.CreateUser(t, db, "vendedor1", session.RoleSeller)),
		admin:    testutil.AdminSession(testutil.CreateUser(t, db, "admin", session.RoleAdmin)),
		customer: testutil.CreateCustomer(t, db, "Maria Silva", "111.111.111-11"),
		apple:    testutil.CreateProduct(t, db, "Maçã", "10.00", "5"),
		banana:   testutil.CreateProduct(t, db, "Banana", "3.50", "10"),
	}
	return f
}

func order(f fixture, method cart.PaymentMethod, qtyApple, qtyBanana string) cart.Order {
	o := cart.Order{CustomerID: f.customer.ID, PaymentMethod: method}
	total := decimal.Zero
	add := func(p models.Product, q string) {
		if q == "" {
			return
		}
		qty := testutil.Dec(q)
		line := p.Price.Mul(qty)
		total = total.Add(line)
		o.Items = append(o.Items, cart.OrderItem{ProductID: p.ID, Quantity: qty, UnitPrice: p.Price, TotalPrice: line})
	}
	add(f.apple, qtyApple)
	add(f.banana, qtyBanana)
	o.TotalAmount = total.Round(2)
	return o
}

func stockOf(t *testing.T, db *gorm.DB, id uint) decimal.Decimal {
	t.Helper()
	var p models.Product
	require.NoError(t, db.First(&p, id).Error)
	return p.StockQuantity
}

func TestSubmitRecordsSaleAndDecrementsStock(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	receipt, err := f.svc.Submit(ctx, f.seller, order(f, cart.Pix, "2", "1"))
	require.NoError(t, err)
	assert.True(t, testutil.Dec("23.50").Equal(receipt.Total))

	assert.True(t, testutil.Dec("3").Equal(stockOf(t, f.db, f.apple.ID)))
	assert.True(t, testutil.Dec("9").Equal(stockOf(t, f.db, f.banana.ID)))

	sale, err := f.svc.Get(ctx, f.seller, receipt.SaleID)
	require.NoError(t, err)
	assert.Equal(t, sales.StatusCompleted, sale.Status)
	assert.Equal(t, "pix", sale.PaymentMethod)
	require.Len(t, sale.Items, 2)

	var movements int64
	require.NoError(t, f.db.Model(&models.StockMovement{}).Where("movement_type = ?", sales.MovementOut).Count(&movements).Error)
	assert.EqualValues(t, 2, movements)

	var ars int64
	require.NoError(t, f.db.Model(&models.AccountReceivable{}).Count(&ars).Error)
	assert.Zero(t, ars)

	require.Len(t, f.pub.events, 1)
	assert.Equal(t, receipt.SaleID, f.pub.events[0].SaleID)
}

func TestSubmitInsufficientStockRollsBack(t *testing.T) {
	f := setup(t)

	_, err := f.svc.Submit(context.Background(), f.seller, order(f, cart.Cash, "6", "1"))
	var stockErr *sales.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, f.apple.ID, stockErr.ProductID)

	assert.True(t, testutil.Dec("5").Equal(stockOf(t, f.db, f.apple.ID)))
	assert.True(t, testutil.Dec("10").Equal(stockOf(t, f.db, f.banana.ID)))
	var n int64
	require.NoError(t, f.db.Model(&models.Sale{}).Count(&n).Error)
	assert.Zero(t, n)
	assert.Empty(t, f.pub.events)
}

func TestSubmitUnknownCustomerAndProduct(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	o := order(f, cart.Cash, "1", "")
	o.CustomerID = 999
	_, err := f.svc.Submit(ctx, f.seller, o)
	require.ErrorIs(t, err, sales.ErrCustomerNotFound)

	o = order(f, cart.Cash, "1", "")
	o.Items[0].ProductID = 999
	_, err = f.svc.Submit(ctx, f.seller, o)
	require.ErrorIs(t, err, sales.ErrProductNotFound)
}

func TestSubmitRejectsMalformedOrders(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	o := order(f, cart.Cash, "1", "")
	o.Items = append(o.Items, o.Items[0])
	_, err := f.svc.Submit(ctx, f.seller, o)
	require.ErrorIs(t, err, sales.ErrInvalidOrder)

	o = order(f, "cheque", "1", "")
	_, err = f.svc.Submit(ctx, f.seller, o)
	require.ErrorIs(t, err, sales.ErrInvalidOrder)
}

func TestSubmitDeferredDefaultsDueDate(t *testing.T) {
	f := setup(t)

	receipt, err := f.svc.Submit(context.Background(), f.seller, order(f, cart.Deferred, "1", ""))
	require.NoError(t, err)

	var ar models.AccountReceivable
	require.NoError(t, f.db.Where("sale_id = ?", receipt.SaleID).First(&ar).Error)
	assert.Equal(t, sales.StatusPending, ar.Status)
	assert.True(t, testutil.Dec("10").Equal(ar.Amount))
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 30), ar.DueDate, 48*time.Hour)

	var sale models.Sale
	require.NoError(t, f.db.First(&sale, receipt.SaleID).Error)
	assert.Equal(t, sales.StatusPending, sale.Status)
}

func TestSubmitDeferredKeepsChosenDueDate(t *testing.T) {
	f := setup(t)

	o := order(f, cart.Deferred, "1", "")
	due := time.Date(2030, 1, 15, 0, 0, 0, 0, time.UTC)
	o.DueDate = &due
	receipt, err := f.svc.Submit(context.Background(), f.seller, o)
	require.NoError(t, err)

	var ar models.AccountReceivable
	require.NoError(t, f.db.Where("sale_id = ?", receipt.SaleID).First(&ar).Error)
	assert.Equal(t, "2030-01-15", ar.DueDate.UTC().Format(time.DateOnly))
}

func TestSubmitSucceedsWhenPublishFails(t *testing.T) {
	f := setup(t)
	f.pub.err = errors.New("broker down")

	_, err := f.svc.Submit(context.Background(), f.seller, order(f, cart.Cash, "1", ""))
	require.NoError(t, err)
}

func TestCartCheckoutThroughService(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	c := cart.New()
	_, err := c.SetCustomer(ctx, &cart.Customer{ID: f.customer.ID, Name: f.customer.Name}, nil)
	require.NoError(t, err)

	apple := cart.Product{ID: f.apple.ID, Name: f.apple.Name, UnitPrice: f.apple.Price, Stock: testutil.Dec("50"), Unit: "kg"}
	require.NoError(t, c.AddItem(apple))
	require.NoError(t, c.SetQuantity(apple.ID, testutil.Dec("6")))

	// the snapshot was stale: the service refuses and the cart survives
	_, err = c.Checkout(ctx, f.svc.SubmitterFor(f.seller))
	var subErr *cart.SubmissionError
	require.ErrorAs(t, err, &subErr)
	var stockErr *sales.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, cart.StateBuilding, c.State())

	require.NoError(t, c.SetQuantity(apple.ID, testutil.Dec("2")))
	receipt, err := c.Checkout(ctx, f.svc.SubmitterFor(f.seller))
	require.NoError(t, err)
	assert.NotZero(t, receipt.SaleID)
	assert.Equal(t, cart.StateEmpty, c.State())
}
