// Package inventory applies manual stock movements recorded from the product
// screen. Sales and cancellations move stock through the sales package.
package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hortifruti-pdv/internal/models"
	"hortifruti-pdv/internal/sales"
	"hortifruti-pdv/internal/session"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInvalidMovement   = errors.New("movement type must be entrada, saida or ajuste")
	ErrInvalidQuantity   = errors.New("invalid quantity")
	ErrInsufficientStock = errors.New("insufficient stock")
)

type Movement struct {
	MovementType string          `json:"movement_type" binding:"required"`
	Quantity     decimal.Decimal `json:"quantity"`
	Reason       string          `json:"reason"`
}

// Move records m against the product and applies it: entrada adds, saida
// subtracts and ajuste sets the counted stock.
func Move(ctx context.Context, db *gorm.DB, sess session.Session, productID uint, m Movement) (*models.StockMovement, *models.Product, error) {
	switch m.MovementType {
	case sales.MovementIn, sales.MovementOut, sales.MovementAdjust:
	case "saída":
		m.MovementType = sales.MovementOut
	default:
		return nil, nil, ErrInvalidMovement
	}
	if m.Quantity.IsNegative() || (m.MovementType != sales.MovementAdjust && m.Quantity.IsZero()) {
		return nil, nil, ErrInvalidQuantity
	}

	var (
		product  models.Product
		movement models.StockMovement
	)
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&product, productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return err
		}

		next := product.StockQuantity
		switch m.MovementType {
		case sales.MovementIn:
			next = next.Add(m.Quantity)
		case sales.MovementOut:
			if product.StockQuantity.LessThan(m.Quantity) {
				return fmt.Errorf("%w: %s %s available", ErrInsufficientStock, product.StockQuantity, product.Unit)
			}
			next = next.Sub(m.Quantity)
		case sales.MovementAdjust:
			next = m.Quantity
		}

		movement = models.StockMovement{
			ProductID:    product.ID,
			UserID:       sess.UserID,
			MovementType: m.MovementType,
			Quantity:     m.Quantity,
			Reason:       m.Reason,
		}
		if err := tx.Create(&movement).Error; err != nil {
			return err
		}
		product.StockQuantity = next
		return tx.Model(&product).Update("stock_quantity", next).Error
	})
	if err != nil {
		return nil, nil, err
	}
	return &movement, &product, nil
}

// Movements lists the stock history of a product, newest first.
func Movements(ctx context.Context, db *gorm.DB, productID uint) ([]models.StockMovement, error) {
	var out []models.StockMovement
	err := db.WithContext(ctx).
		Preload("User").
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&out).Error
	return out, err
}
