// Package testutil builds throwaway databases and fixtures for package tests.
package testutil

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"hortifruti-pdv/internal/database"
	"hortifruti-pdv/internal/models"
	"hortifruti-pdv/internal/session"
)

// NewDB returns a migrated in-memory SQLite database private to the test.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to ":memory:" is a new database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func Dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func CreateUser(t *testing.T, db *gorm.DB, username, role string) models.User {
	t.Helper()
	u := models.User{Username: username, Email: username + "@example.com", Role: role, IsActive: true}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func CreateCustomer(t *testing.T, db *gorm.DB, name, cpf string) models.Customer {
	t.Helper()
	c := models.Customer{Name: name, CPF: cpf, IsActive: true}
	require.NoError(t, db.Create(&c).Error)
	return c
}

func CreateProduct(t *testing.T, db *gorm.DB, name, price, stock string) models.Product {
	t.Helper()
	p := models.Product{
		Name:          name,
		Price:         Dec(price),
		CostPrice:     Dec(price).Div(decimal.NewFromInt(2)),
		StockQuantity: Dec(stock),
		Unit:          "kg",
		Category:      "Frutas",
		IsActive:      true,
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func AdminSession(u models.User) session.Session {
	return session.Session{UserID: u.ID, Username: u.Username, Role: session.RoleAdmin}
}

func SellerSession(u models.User) session.Session {
	return session.Session{UserID: u.ID, Username: u.Username, Role: session.RoleSeller}
}
