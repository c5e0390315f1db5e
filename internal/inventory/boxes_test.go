package inventory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hortifruti-pdv/internal/inventory"
	"hortifruti-pdv/internal/models"
	"hortifruti-pdv/internal/session"
	"hortifruti-pdv/internal/testutil"
)

func str(s string) *string { return &s }

func TestSupplierBoxes(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	supplier := models.Supplier{Name: "Ceasa Norte", CNPJ: "11.111.111/0001-11", IsActive: true}
	require.NoError(t, db.Create(&supplier).Error)

	box, err := inventory.CreateBox(ctx, db, inventory.BoxInput{SupplierID: supplier.ID, BoxNumber: str(" CX-01 "), BoxType: str("plástica"), Capacity: qty("20")})
	require.NoError(t, err)
	assert.Equal(t, "CX-01", box.BoxNumber)
	assert.Equal(t, inventory.BoxAvailable, box.Status)
	require.NotNil(t, box.Supplier)
	assert.Equal(t, "Ceasa Norte", box.Supplier.Name)

	_, err = inventory.CreateBox(ctx, db, inventory.BoxInput{SupplierID: supplier.ID, BoxNumber: str("CX-01")})
	require.ErrorIs(t, err, inventory.ErrDuplicateBox)
	_, err = inventory.CreateBox(ctx, db, inventory.BoxInput{SupplierID: 999, BoxNumber: str("CX-02")})
	require.ErrorIs(t, err, inventory.ErrSupplierNotFound)
	_, err = inventory.CreateBox(ctx, db, inventory.BoxInput{SupplierID: supplier.ID})
	require.ErrorIs(t, err, inventory.ErrBoxRequired)

	second, err := inventory.CreateBox(ctx, db, inventory.BoxInput{SupplierID: supplier.ID, BoxNumber: str("CX-02")})
	require.NoError(t, err)
	_, err = inventory.UpdateBox(ctx, db, second.ID, inventory.BoxInput{BoxNumber: str("CX-01")})
	require.ErrorIs(t, err, inventory.ErrDuplicateBox)
	_, err = inventory.UpdateBox(ctx, db, second.ID, inventory.BoxInput{Status: str("quebrada")})
	require.ErrorIs(t, err, inventory.ErrInvalidBoxStatus)
	second, err = inventory.UpdateBox(ctx, db, second.ID, inventory.BoxInput{Status: str("danificada"), Notes: str("alça quebrada")})
	require.NoError(t, err)
	assert.Equal(t, inventory.BoxDamaged, second.Status)
	assert.Equal(t, "CX-02", second.BoxNumber)

	list, err := inventory.Boxes(ctx, db, inventory.BoxFilter{Status: inventory.BoxDamaged})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, second.ID, list[0].ID)

	require.NoError(t, inventory.DeactivateBox(ctx, db, second.ID))
	list, err = inventory.Boxes(ctx, db, inventory.BoxFilter{SupplierID: supplier.ID})
	require.NoError(t, err)
	assert.Len(t, list, 1)
	require.ErrorIs(t, inventory.DeactivateBox(ctx, db, 999), inventory.ErrBoxNotFound)

	_, err = inventory.Box(ctx, db, 999)
	require.ErrorIs(t, err, inventory.ErrBoxNotFound)
}

func TestMoveBox(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	seller := testutil.SellerSession(testutil.CreateUser(t, db, "ana", session.RoleSeller))
	supplier := models.Supplier{Name: "Ceasa Norte", CNPJ: "11.111.111/0001-11", IsActive: true}
	require.NoError(t, db.Create(&supplier).Error)
	box, err := inventory.CreateBox(ctx, db, inventory.BoxInput{SupplierID: supplier.ID, BoxNumber: str("CX-01")})
	require.NoError(t, err)

	_, got, err := inventory.MoveBox(ctx, db, seller, box.ID, inventory.BoxMove{MovementType: "entrada", Weight: testutil.Dec("12.5")})
	require.NoError(t, err)
	assert.True(t, testutil.Dec("12.5").Equal(got.CurrentWeight))
	assert.Equal(t, inventory.BoxInUse, got.Status)

	_, _, err = inventory.MoveBox(ctx, db, seller, box.ID, inventory.BoxMove{MovementType: "saida", Weight: testutil.Dec("13")})
	require.ErrorIs(t, err, inventory.ErrInsufficientWeight)

	_, got, err = inventory.MoveBox(ctx, db, seller, box.ID, inventory.BoxMove{MovementType: "saída", Weight: testutil.Dec("12.5")})
	require.NoError(t, err)
	assert.True(t, got.CurrentWeight.IsZero())
	assert.Equal(t, inventory.BoxAvailable, got.Status)

	_, _, err = inventory.MoveBox(ctx, db, seller, box.ID, inventory.BoxMove{MovementType: "ajuste", Weight: testutil.Dec("1")})
	require.ErrorIs(t, err, inventory.ErrInvalidBoxMovement)
	_, _, err = inventory.MoveBox(ctx, db, seller, box.ID, inventory.BoxMove{MovementType: "entrada", Weight: testutil.Dec("0")})
	require.ErrorIs(t, err, inventory.ErrInvalidQuantity)
	_, _, err = inventory.MoveBox(ctx, db, seller, 999, inventory.BoxMove{MovementType: "entrada", Weight: testutil.Dec("1")})
	require.ErrorIs(t, err, inventory.ErrBoxNotFound)

	// a damaged box keeps its status while it is emptied
	_, err = inventory.UpdateBox(ctx, db, box.ID, inventory.BoxInput{Status: str(inventory.BoxDamaged)})
	require.NoError(t, err)
	_, got, err = inventory.MoveBox(ctx, db, seller, box.ID, inventory.BoxMove{MovementType: "entrada", Weight: testutil.Dec("2")})
	require.NoError(t, err)
	assert.Equal(t, inventory.BoxDamaged, got.Status)

	history, err := inventory.BoxMovements(ctx, db, box.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "entrada", history[0].MovementType)
	assert.Equal(t, "saida", history[1].MovementType)
	assert.Equal(t, seller.UserID, history[0].UserID)

	_, err = inventory.CreateBox(ctx, db, inventory.BoxInput{SupplierID: supplier.ID, BoxNumber: str("CX-02")})
	require.NoError(t, err)
	summary, err := inventory.BoxStatusSummary(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, []inventory.BoxStatusCount{
		{Status: inventory.BoxDamaged, Count: 1},
		{Status: inventory.BoxAvailable, Count: 1},
	}, summary)
}
