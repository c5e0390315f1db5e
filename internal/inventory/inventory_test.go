package inventory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hortifruti-pdv/internal/inventory"
	"hortifruti-pdv/internal/session"
	"hortifruti-pdv/internal/testutil"
)

func TestMove(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	admin := testutil.AdminSession(testutil.CreateUser(t, db, "admin", session.RoleAdmin))
	p := testutil.CreateProduct(t, db, "Cenoura", "4.00", "10")

	_, got, err := inventory.Move(ctx, db, admin, p.ID, inventory.Movement{MovementType: "entrada", Quantity: testutil.Dec("2.5"), Reason: "fornecedor"})
	require.NoError(t, err)
	assert.True(t, testutil.Dec("12.5").Equal(got.StockQuantity))

	_, got, err = inventory.Move(ctx, db, admin, p.ID, inventory.Movement{MovementType: "saída", Quantity: testutil.Dec("0.5"), Reason: "perda"})
	require.NoError(t, err)
	assert.True(t, testutil.Dec("12").Equal(got.StockQuantity))

	_, _, err = inventory.Move(ctx, db, admin, p.ID, inventory.Movement{MovementType: "saida", Quantity: testutil.Dec("13")})
	require.ErrorIs(t, err, inventory.ErrInsufficientStock)

	_, got, err = inventory.Move(ctx, db, admin, p.ID, inventory.Movement{MovementType: "ajuste", Quantity: testutil.Dec("7")})
	require.NoError(t, err)
	assert.True(t, testutil.Dec("7").Equal(got.StockQuantity))

	_, _, err = inventory.Move(ctx, db, admin, p.ID, inventory.Movement{MovementType: "roubo", Quantity: testutil.Dec("1")})
	require.ErrorIs(t, err, inventory.ErrInvalidMovement)

	_, _, err = inventory.Move(ctx, db, admin, p.ID, inventory.Movement{MovementType: "entrada", Quantity: testutil.Dec("0")})
	require.ErrorIs(t, err, inventory.ErrInvalidQuantity)

	_, _, err = inventory.Move(ctx, db, admin, 999, inventory.Movement{MovementType: "entrada", Quantity: testutil.Dec("1")})
	require.ErrorIs(t, err, inventory.ErrProductNotFound)

	history, err := inventory.Movements(ctx, db, p.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "ajuste", history[0].MovementType)
	assert.Equal(t, "saida", history[1].MovementType)
}
