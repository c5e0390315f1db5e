package sales_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hortifruti-pdv/internal/cart"
	"hortifruti-pdv/internal/models"
	"hortifruti-pdv/internal/sales"
	"hortifruti-pdv/internal/session"
	"hortifruti-pdv/internal/testutil"
)

func TestListScopesSellers(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	other := testutil.SellerSession(testutil.CreateUser(t, f.db, "vendedor2", session.RoleSeller))

	_, err := f.svc.Submit(ctx, f.seller, order(f, cart.Cash, "1", ""))
	require.NoError(t, err)
	r2, err := f.svc.Submit(ctx, other, order(f, cart.Pix, "", "2"))
	require.NoError(t, err)

	mine, err := f.svc.List(ctx, f.seller, sales.ListFilter{})
	require.NoError(t, err)
	require.Len(t, mine, 1)

	all, err := f.svc.List(ctx, f.admin, sales.ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)

	_, err = f.svc.Get(ctx, f.seller, r2.SaleID)
	require.ErrorIs(t, err, sales.ErrSaleNotFound)

	byName, err := f.svc.List(ctx, f.admin, sales.ListFilter{CustomerName: "maria"})
	require.NoError(t, err)
	assert.Len(t, byName, 2)

	none, err := f.svc.List(ctx, f.admin, sales.ListFilter{CustomerName: "joao"})
	require.NoError(t, err)
	assert.Empty(t, none)

	pix, err := f.svc.List(ctx, f.admin, sales.ListFilter{PaymentMethod: "pix"})
	require.NoError(t, err)
	require.Len(t, pix, 1)
	assert.Equal(t, r2.SaleID, pix[0].ID)
}

func TestCancelRestoresStock(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	r, err := f.svc.Submit(ctx, f.seller, order(f, cart.Deferred, "2", ""))
	require.NoError(t, err)
	assert.True(t, testutil.Dec("3").Equal(stockOf(t, f.db, f.apple.ID)))

	cancelled := sales.StatusCancelled
	sale, err := f.svc.Update(ctx, f.admin, r.SaleID, sales.Update{Status: &cancelled})
	require.NoError(t, err)
	assert.Equal(t, sales.StatusCancelled, sale.Status)
	assert.True(t, testutil.Dec("5").Equal(stockOf(t, f.db, f.apple.ID)))

	var ars int64
	require.NoError(t, f.db.Model(&models.AccountReceivable{}).Count(&ars).Error)
	assert.Zero(t, ars)

	completed := sales.StatusCompleted
	_, err = f.svc.Update(ctx, f.admin, r.SaleID, sales.Update{Status: &completed})
	require.ErrorIs(t, err, sales.ErrInvalidStatus)
}

func TestCancelRefusedWithPayments(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	r, err := f.svc.Submit(ctx, f.seller, order(f, cart.Deferred, "1", ""))
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&models.AccountReceivable{}).Where("sale_id = ?", r.SaleID).
		Update("paid_amount", testutil.Dec("2")).Error)

	cancelled := sales.StatusCancelled
	_, err = f.svc.Update(ctx, f.admin, r.SaleID, sales.Update{Status: &cancelled})
	require.ErrorIs(t, err, sales.ErrHasPayments)
}

func TestUpdatePaymentMethodAcceptsLegacyLabel(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	r, err := f.svc.Submit(ctx, f.seller, order(f, cart.Cash, "1", ""))
	require.NoError(t, err)

	label := "cartao_debito"
	sale, err := f.svc.Update(ctx, f.admin, r.SaleID, sales.Update{PaymentMethod: &label})
	require.NoError(t, err)
	assert.Equal(t, "debit_card", sale.PaymentMethod)

	bogus := "sold-out"
	_, err = f.svc.Update(ctx, f.admin, r.SaleID, sales.Update{Status: &bogus})
	require.ErrorIs(t, err, sales.ErrInvalidStatus)

	_, err = f.svc.Update(ctx, f.admin, 999, sales.Update{Status: &bogus})
	require.ErrorIs(t, err, sales.ErrSaleNotFound)
}

func TestGroupedByCustomer(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	joao := testutil.CreateCustomer(t, f.db, "João Souza", "222.222.222-22")

	_, err := f.svc.Submit(ctx, f.seller, order(f, cart.Cash, "1", ""))
	require.NoError(t, err)
	_, err = f.svc.Submit(ctx, f.seller, order(f, cart.Deferred, "1", "2"))
	require.NoError(t, err)
	o := order(f, cart.Pix, "", "1")
	o.CustomerID = joao.ID
	_, err = f.svc.Submit(ctx, f.seller, o)
	require.NoError(t, err)

	groups, err := f.svc.GroupedByCustomer(ctx, f.admin, sales.ListFilter{})
	require.NoError(t, err)
	require.Len(t, groups, 2)

	first := groups[0]
	assert.Equal(t, f.customer.ID, first.Customer.ID)
	assert.Equal(t, 2, first.Summary.SalesCount)
	assert.True(t, testutil.Dec("27").Equal(first.Summary.TotalAmount))
	assert.True(t, testutil.Dec("13.5").Equal(first.Summary.AvgAmount))
	assert.Equal(t, 1, first.Summary.StatusStats[sales.StatusPending].Count)
	assert.Equal(t, 1, first.Summary.StatusStats[sales.StatusCompleted].Count)

	assert.Equal(t, joao.ID, groups[1].Customer.ID)
	assert.Equal(t, 1, groups[1].Summary.SalesCount)
}

func TestDailySummary(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, f.seller, order(f, cart.Cash, "1", ""))
	require.NoError(t, err)
	_, err = f.svc.Submit(ctx, f.seller, order(f, cart.Cash, "", "2"))
	require.NoError(t, err)
	_, err = f.svc.Submit(ctx, f.seller, order(f, cart.Pix, "1", ""))
	require.NoError(t, err)

	sum, err := f.svc.DailySummary(ctx, f.admin, time.Now())
	require.NoError(t, err)
	assert.Equal(t, time.Now().Format(time.DateOnly), sum.Date)
	assert.Equal(t, 3, sum.TotalCount)
	assert.True(t, testutil.Dec("27").Equal(sum.TotalSales))
	require.Len(t, sum.PaymentMethods, 2)
	assert.Equal(t, "cash", sum.PaymentMethods[0].Method)
	assert.Equal(t, 2, sum.PaymentMethods[0].Count)

	yesterday, err := f.svc.DailySummary(ctx, f.admin, time.Now().AddDate(0, 0, -1))
	require.NoError(t, err)
	assert.Zero(t, yesterday.TotalCount)
}
