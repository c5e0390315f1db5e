package receivables

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"hortifruti-pdv/internal/cart"
	"hortifruti-pdv/internal/models"
	"hortifruti-pdv/internal/sales"
	"hortifruti-pdv/internal/session"
	"hortifruti-pdv/internal/testutil"
)

var d = testutil.Dec

func TestStatusFor(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	today := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	yesterday := today.AddDate(0, 0, -1)

	tests := []struct {
		name   string
		amount string
		paid   string
		due    time.Time
		want   string
	}{
		{"fully paid", "100", "100", yesterday, StatusPaid},
		{"overpaid counts as paid", "100", "120", yesterday, StatusPaid},
		{"partial beats overdue", "100", "30", yesterday, StatusPartial},
		{"late and unpaid", "100", "0", yesterday, StatusOverdue},
		{"due today is not late", "100", "0", today, StatusPending},
		{"future", "100", "0", today.AddDate(0, 0, 30), StatusPending},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(d(tt.amount), d(tt.paid), tt.due, now))
		})
	}
}

type fixture struct {
	db       *gorm.DB
	svc      *Service
	sales    *sales.Service
	admin    session.Session
	seller   session.Session
	customer models.Customer
	product  models.Product
}

func setup(t *testing.T) fixture {
	db := testutil.NewDB(t)
	return fixture{
		db:       db,
		svc:      NewService(db, zap.NewNop()),
		sales:    sales.NewService(db, nil, zap.NewNop(), 30),
		admin:    testutil.AdminSession(testutil.CreateUser(t, db, "admin", session.RoleAdmin)),
		seller:   testutil.SellerSession(testutil.CreateUser(t, db, "vendedor", session.RoleSeller)),
		customer: testutil.CreateCustomer(t, db, "Maria Silva", "111.111.111-11"),
		product:  testutil.CreateProduct(t, db, "Tomate", "10.00", "100"),
	}
}

// deferredSale records a fiado sale of qty units and returns its account.
func (f fixture) deferredSale(t *testing.T, sess session.Session, qty string, due *time.Time) models.AccountReceivable {
	t.Helper()
	q := d(qty)
	total := f.product.Price.Mul(q)
	r, err := f.sales.Submit(context.Background(), sess, cart.Order{
		CustomerID:    f.customer.ID,
		PaymentMethod: cart.Deferred,
		TotalAmount:   total,
		DueDate:       due,
		Items: []cart.OrderItem{{
			ProductID: f.product.ID, Quantity: q, UnitPrice: f.product.Price, TotalPrice: total,
		}},
	})
	require.NoError(t, err)

	var ar models.AccountReceivable
	require.NoError(t, f.db.Where("sale_id = ?", r.SaleID).First(&ar).Error)
	return ar
}

func day(offset int) *time.Time {
	y, m, dd := time.Now().Date()
	t := time.Date(y, m, dd, 0, 0, 0, 0, time.Local).AddDate(0, 0, offset)
	return &t
}

func TestAddPayment(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	ar := f.deferredSale(t, f.seller, "5", nil)

	_, err := f.svc.AddPayment(ctx, f.seller, ar.ID, PaymentInput{Amount: decimal.Zero})
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = f.svc.AddPayment(ctx, f.seller, ar.ID, PaymentInput{Amount: d("50.01")})
	require.ErrorIs(t, err, ErrExceedsRemaining)

	_, err = f.svc.AddPayment(ctx, f.seller, ar.ID, PaymentInput{Amount: d("10"), PaymentMethod: "fiado"})
	require.ErrorIs(t, err, ErrInvalidMethod)

	p, err := f.svc.AddPayment(ctx, f.seller, ar.ID, PaymentInput{Amount: d("20"), PaymentMethod: "dinheiro"})
	require.NoError(t, err)
	assert.Equal(t, "cash", p.PaymentMethod)

	got, err := f.svc.Get(ctx, f.admin, ar.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPartial, got.Status)
	assert.True(t, d("30").Equal(got.Remaining()))

	_, err = f.svc.AddPayment(ctx, f.seller, ar.ID, PaymentInput{Amount: d("30"), PaymentMethod: "pix"})
	require.NoError(t, err)

	got, err = f.svc.Get(ctx, f.admin, ar.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, got.Status)
	require.NotNil(t, got.Sale)
	assert.Equal(t, sales.StatusCompleted, got.Sale.Status)

	payments, err := f.svc.Payments(ctx, f.admin, ar.ID)
	require.NoError(t, err)
	assert.Len(t, payments, 2)
}

func TestSellerScope(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	other := testutil.SellerSession(testutil.CreateUser(t, f.db, "outro", session.RoleSeller))

	mine := f.deferredSale(t, f.seller, "1", nil)
	f.deferredSale(t, other, "2", nil)

	list, err := f.svc.List(ctx, f.seller, Filter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, mine.ID, list[0].ID)

	all, err := f.svc.List(ctx, f.admin, Filter{CustomerName: "MARIA"})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = f.svc.Get(ctx, other, mine.ID)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = f.svc.AddPayment(ctx, other, mine.ID, PaymentInput{Amount: d("1")})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListOrderedByDueDate(t *testing.T) {
	f := setup(t)
	late := f.deferredSale(t, f.seller, "1", day(20))
	soon := f.deferredSale(t, f.seller, "1", day(2))

	list, err := f.svc.List(context.Background(), f.admin, Filter{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, soon.ID, list[0].ID)
	assert.Equal(t, late.ID, list[1].ID)
}

func TestUpdateRecomputesStatus(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	ar := f.deferredSale(t, f.seller, "2", nil)

	_, err := f.svc.Update(ctx, f.seller, ar.ID, UpdateInput{})
	require.ErrorIs(t, err, ErrForbidden)

	past := day(-3)
	got, err := f.svc.Update(ctx, f.admin, ar.ID, UpdateInput{DueDate: past})
	require.NoError(t, err)
	assert.Equal(t, StatusOverdue, got.Status)

	paid := d("20")
	got, err = f.svc.Update(ctx, f.admin, ar.ID, UpdateInput{PaidAmount: &paid})
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, got.Status)

	tooMuch := d("25")
	_, err = f.svc.Update(ctx, f.admin, ar.ID, UpdateInput{PaidAmount: &tooMuch})
	require.ErrorIs(t, err, ErrInvalidAmountEdit)

	_, err = f.svc.Update(ctx, f.admin, 999, UpdateInput{})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCreate(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	ar := f.deferredSale(t, f.seller, "1", nil)

	_, err := f.svc.Create(ctx, CreateInput{SaleID: ar.SaleID, DueDate: *day(5)})
	require.ErrorIs(t, err, ErrAlreadyExists)

	_, err = f.svc.Create(ctx, CreateInput{SaleID: 999, DueDate: *day(5)})
	require.ErrorIs(t, err, ErrSaleNotFound)

	// a cash sale later moved to an account
	total := f.product.Price
	r, err := f.sales.Submit(ctx, f.seller, cart.Order{
		CustomerID: f.customer.ID, PaymentMethod: cart.Cash, TotalAmount: total,
		Items: []cart.OrderItem{{ProductID: f.product.ID, Quantity: d("1"), UnitPrice: total, TotalPrice: total}},
	})
	require.NoError(t, err)
	created, err := f.svc.Create(ctx, CreateInput{SaleID: r.SaleID, DueDate: *day(5), Notes: "acerto"})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, created.Status)
	assert.Equal(t, f.customer.ID, created.CustomerID)
	assert.True(t, d("10").Equal(created.Amount))
}

func TestOverdueSummaryAndMarkOverdue(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	old := f.deferredSale(t, f.seller, "3", nil)
	require.NoError(t, f.db.Model(&old).Update("due_date", *day(-10)).Error)
	f.deferredSale(t, f.seller, "1", day(10))

	sum, err := f.svc.OverdueSummary(ctx, f.admin)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.OverdueCount)
	assert.True(t, d("30").Equal(sum.TotalOverdueAmount))
	require.Len(t, sum.Accounts, 1)
	assert.Equal(t, "Maria Silva", sum.Accounts[0].CustomerName)

	n, err := f.svc.MarkOverdue(ctx, time.Now())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	list, err := f.svc.List(ctx, f.admin, Filter{Status: StatusOverdue})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, old.ID, list[0].ID)
}

func TestPayCustomerSpreadsOldestFirst(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	newer := f.deferredSale(t, f.seller, "4", day(20)) // 40
	older := f.deferredSale(t, f.seller, "3", day(5))  // 30

	_, err := f.svc.PayCustomer(ctx, f.admin, f.customer.ID, PaymentInput{Amount: d("70.01")})
	require.ErrorIs(t, err, ErrExceedsRemaining)

	_, err = f.svc.PayCustomer(ctx, f.admin, 999, PaymentInput{Amount: d("1")})
	require.ErrorIs(t, err, ErrCustomerNotFound)

	res, err := f.svc.PayCustomer(ctx, f.admin, f.customer.ID, PaymentInput{Amount: d("45"), PaymentMethod: "pix"})
	require.NoError(t, err)
	assert.True(t, d("45").Equal(res.TotalPaid))
	assert.True(t, d("25").Equal(res.TotalRemaining))
	require.Len(t, res.Payments, 2)
	assert.Equal(t, older.ID, res.Payments[0].AccountReceivableID)
	assert.True(t, d("30").Equal(res.Payments[0].Amount))
	assert.Equal(t, newer.ID, res.Payments[1].AccountReceivableID)
	assert.True(t, d("15").Equal(res.Payments[1].Amount))

	summary, err := f.svc.CustomerSummary(ctx, f.admin, f.customer.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Summary.AccountsCount)
	assert.True(t, d("70").Equal(summary.Summary.TotalAmount))
	assert.True(t, d("45").Equal(summary.Summary.TotalPaid))
	assert.True(t, d("25").Equal(summary.Summary.TotalRemaining))
	assert.Equal(t, 1, summary.Summary.StatusCounts[StatusPaid])
	assert.Equal(t, 1, summary.Summary.StatusCounts[StatusPartial])

	_, err = f.svc.PayCustomer(ctx, f.admin, f.customer.ID, PaymentInput{Amount: d("25")})
	require.NoError(t, err)
	_, err = f.svc.PayCustomer(ctx, f.admin, f.customer.ID, PaymentInput{Amount: d("1")})
	require.ErrorIs(t, err, ErrNothingOwed)
}
