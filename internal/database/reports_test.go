package database_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"hortifruti-pdv/internal/auth"
	"hortifruti-pdv/internal/database"
	"hortifruti-pdv/internal/models"
	"hortifruti-pdv/internal/session"
	"hortifruti-pdv/internal/testutil"
)

type line struct {
	p   models.Product
	qty string
}

func sell(t *testing.T, db *gorm.DB, seller models.User, status string, lines ...line) models.Sale {
	t.Helper()
	sale := models.Sale{SellerID: seller.ID, PaymentMethod: "cash", Status: status, TotalAmount: testutil.Dec("0")}
	for _, l := range lines {
		p, q := l.p, testutil.Dec(l.qty)
		total := p.Price.Mul(q).Round(2)
		sale.Items = append(sale.Items, models.SaleItem{ProductID: p.ID, Quantity: q, UnitPrice: p.Price, TotalPrice: total})
		sale.TotalAmount = sale.TotalAmount.Add(total)
	}
	require.NoError(t, db.Create(&sale).Error)
	return sale
}

func TestSalesReportSkipsCancelled(t *testing.T) {
	db := testutil.NewDB(t)
	seller := testutil.CreateUser(t, db, "ana", session.RoleSeller)
	apple := testutil.CreateProduct(t, db, "Maçã", "10.00", "50")
	banana := testutil.CreateProduct(t, db, "Banana", "3.50", "50")

	sell(t, db, seller, "completed", line{apple, "2"}, line{banana, "1"})
	sell(t, db, seller, "pending", line{banana, "4"})
	sell(t, db, seller, "cancelled", line{apple, "9"})

	report, err := database.GetSalesReport(db, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.True(t, report.TotalRevenue.Equal(testutil.Dec("37.5")), report.TotalRevenue.String())
	assert.EqualValues(t, 2, report.TotalCount)

	report, err = database.GetSalesReport(db, time.Now().Add(time.Hour), time.Time{})
	require.NoError(t, err)
	assert.True(t, report.TotalRevenue.IsZero())
	assert.Zero(t, report.TotalCount)

	top, err := database.TopSelling(db, 5)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "Banana", top[0].ProductName)
	assert.True(t, top[0].Sold.Equal(testutil.Dec("5")))
	assert.True(t, top[1].Revenue.Equal(testutil.Dec("20")))

	recent, err := database.RecentSales(db, 2)
	require.NoError(t, err)
	assert.Len(t, recent, 2)
}

func TestStockValuationAndLowStock(t *testing.T) {
	db := testutil.NewDB(t)
	apple := testutil.CreateProduct(t, db, "Maçã", "10.00", "4")
	testutil.CreateProduct(t, db, "Banana", "3.00", "10")
	kale := models.Product{Name: "Couve", Category: "Verduras", Unit: "maço", IsActive: true,
		Price: testutil.Dec("4"), CostPrice: testutil.Dec("1.5"), StockQuantity: testutil.Dec("2"), MinStock: testutil.Dec("5")}
	require.NoError(t, db.Create(&kale).Error)
	gone := testutil.CreateProduct(t, db, "Caqui", "9.00", "100")
	require.NoError(t, db.Model(&gone).Update("is_active", false).Error)

	v, err := database.StockValuation(db)
	require.NoError(t, err)
	require.Len(t, v.Categories, 2)
	assert.Equal(t, "Frutas", v.Categories[0].CategoryName)
	// 4 x 5.00 + 10 x 1.50
	assert.True(t, v.Categories[0].Subtotal.Equal(testutil.Dec("35")), v.Categories[0].Subtotal.String())
	assert.True(t, v.GrandTotal.Equal(testutil.Dec("38")), v.GrandTotal.String())

	require.NoError(t, db.Model(&apple).Update("min_stock", "4").Error)
	low, err := database.LowStock(db)
	require.NoError(t, err)
	names := []string{}
	for _, p := range low {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"Couve", "Maçã"}, names)
}

func TestSeedAdmin(t *testing.T) {
	db := testutil.NewDB(t)

	created, err := database.SeedAdmin(db, "")
	require.NoError(t, err)
	assert.False(t, created)

	created, err = database.SeedAdmin(db, "trocar123")
	require.NoError(t, err)
	assert.True(t, created)

	var admin models.User
	require.NoError(t, db.Where("username = ?", "admin").First(&admin).Error)
	assert.Equal(t, session.RoleAdmin, admin.Role)
	assert.True(t, auth.CheckPassword(admin.PasswordHash, "trocar123"))

	created, err = database.SeedAdmin(db, "outra")
	require.NoError(t, err)
	assert.False(t, created)
}
