package inventory_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"hortifruti-pdv/internal/inventory"
	"hortifruti-pdv/internal/models"
	"hortifruti-pdv/internal/testutil"
)

func createLocation(t *testing.T, db *gorm.DB, name, kind string) models.Location {
	t.Helper()
	l := models.Location{Name: name, LocationType: kind, IsActive: true}
	require.NoError(t, db.Create(&l).Error)
	return l
}

func qty(s string) *decimal.Decimal {
	d := testutil.Dec(s)
	return &d
}

func TestLocationStock(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	cold := createLocation(t, db, "Câmara fria", "camara_fria")
	apple := testutil.CreateProduct(t, db, "Maçã", "10.00", "50")

	entry, err := inventory.AddToLocation(ctx, db, cold.ID, inventory.StockInput{
		ProductID: apple.ID, Quantity: qty("12.5"), MinQuantity: qty("5"), MaxQuantity: qty("40"),
	})
	require.NoError(t, err)
	require.NotNil(t, entry.Product)
	assert.Equal(t, "Maçã", entry.Product.Name)
	assert.Equal(t, cold.ID, entry.Location.ID)

	_, err = inventory.AddToLocation(ctx, db, cold.ID, inventory.StockInput{ProductID: apple.ID})
	require.ErrorIs(t, err, inventory.ErrAlreadyStocked)
	_, err = inventory.AddToLocation(ctx, db, 999, inventory.StockInput{ProductID: apple.ID})
	require.ErrorIs(t, err, inventory.ErrLocationNotFound)
	_, err = inventory.AddToLocation(ctx, db, cold.ID, inventory.StockInput{ProductID: 999})
	require.ErrorIs(t, err, inventory.ErrProductNotFound)

	updated, err := inventory.UpdateLocationStock(ctx, db, cold.ID, entry.ID, inventory.StockInput{Quantity: qty("3")})
	require.NoError(t, err)
	assert.True(t, testutil.Dec("3").Equal(updated.Quantity))
	assert.True(t, testutil.Dec("5").Equal(updated.MinQuantity), "untouched fields keep their value")

	_, err = inventory.UpdateLocationStock(ctx, db, cold.ID, entry.ID, inventory.StockInput{MinQuantity: qty("50")})
	require.ErrorIs(t, err, inventory.ErrInvalidQuantity, "min above max")
	_, err = inventory.UpdateLocationStock(ctx, db, cold.ID, entry.ID, inventory.StockInput{Quantity: qty("-1")})
	require.ErrorIs(t, err, inventory.ErrInvalidQuantity)

	other := createLocation(t, db, "Gôndola", "gondola")
	_, err = inventory.UpdateLocationStock(ctx, db, other.ID, entry.ID, inventory.StockInput{Quantity: qty("1")})
	require.ErrorIs(t, err, inventory.ErrStockEntryNotFound, "entries are scoped to their location")

	list, err := inventory.LocationStock(ctx, db, cold.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, testutil.Dec("3").Equal(list[0].Quantity))

	_, err = inventory.LocationStock(ctx, db, 999)
	require.ErrorIs(t, err, inventory.ErrLocationNotFound)

	require.NoError(t, inventory.RemoveFromLocation(ctx, db, cold.ID, entry.ID))
	require.ErrorIs(t, inventory.RemoveFromLocation(ctx, db, cold.ID, entry.ID), inventory.ErrStockEntryNotFound)
}

func TestStockOverviewAndLowStock(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()

	supplier := models.Supplier{Name: "Ceasa Norte", CNPJ: "11.111.111/0001-11", IsActive: true}
	require.NoError(t, db.Create(&supplier).Error)
	apple := testutil.CreateProduct(t, db, "Maçã", "10.00", "50")
	require.NoError(t, db.Model(&apple).Update("supplier_id", supplier.ID).Error)
	kale := testutil.CreateProduct(t, db, "Couve", "4.00", "20")

	shelf := createLocation(t, db, "Gôndola", "gondola")
	cold := createLocation(t, db, "Câmara fria", "camara_fria")
	closed := createLocation(t, db, "Depósito antigo", "deposito")

	add := func(l models.Location, p models.Product, q, min string) {
		_, err := inventory.AddToLocation(ctx, db, l.ID, inventory.StockInput{ProductID: p.ID, Quantity: qty(q), MinQuantity: qty(min)})
		require.NoError(t, err)
	}
	add(shelf, apple, "2", "5")
	add(shelf, kale, "10", "0")
	add(cold, apple, "30", "10")
	add(closed, kale, "0", "3")
	require.NoError(t, db.Model(&closed).Update("is_active", false).Error)

	overview, err := inventory.StockOverview(ctx, db)
	require.NoError(t, err)
	require.Len(t, overview, 2, "inactive locations are left out")
	assert.Equal(t, "Câmara fria", overview[0].Location.Name)
	assert.Equal(t, "camara_fria", overview[0].Location.Type)
	require.Len(t, overview[1].Products, 2)
	assert.Equal(t, "Ceasa Norte", overview[1].Products[0].Supplier)
	assert.Equal(t, "", overview[1].Products[1].Supplier)

	alerts, err := inventory.LowStockAtLocations(ctx, db)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, apple.ID, alerts[0].Product.ID)
	assert.Equal(t, shelf.ID, alerts[0].Location.ID)
	assert.True(t, testutil.Dec("2").Equal(alerts[0].CurrentQuantity))
	assert.Equal(t, "kg", alerts[0].Unit)
}
