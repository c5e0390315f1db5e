package pdv

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"hortifruti-pdv/internal/cart"
	"hortifruti-pdv/internal/models"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrCustomerNotFound = errors.New("customer not found")
)

// Catalog reads sellable products as cart snapshots.
type Catalog struct {
	db *gorm.DB
}

func NewCatalog(db *gorm.DB) *Catalog {
	return &Catalog{db: db}
}

func toCartProduct(p models.Product) cart.Product {
	return cart.Product{
		ID:        p.ID,
		Name:      p.Name,
		UnitPrice: p.Price,
		Stock:     p.StockQuantity,
		Unit:      p.Unit,
	}
}

// Product returns the current snapshot of one active product.
func (c *Catalog) Product(ctx context.Context, id uint) (cart.Product, error) {
	var p models.Product
	err := c.db.WithContext(ctx).Where("is_active = ?", true).First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return cart.Product{}, ErrProductNotFound
	}
	if err != nil {
		return cart.Product{}, err
	}
	return toCartProduct(p), nil
}

// Products returns snapshots for ids. Inactive or unknown ids are skipped.
func (c *Catalog) Products(ctx context.Context, ids []uint) ([]cart.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var list []models.Product
	err := c.db.WithContext(ctx).
		Where("is_active = ? AND id IN ?", true, ids).
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	out := make([]cart.Product, 0, len(list))
	for _, p := range list {
		out = append(out, toCartProduct(p))
	}
	return out, nil
}

// Search lists active products whose name contains q, in name order.
func (c *Catalog) Search(ctx context.Context, q string, limit int) ([]cart.Product, error) {
	query := c.db.WithContext(ctx).Where("is_active = ?", true).Order("name")
	if q = strings.TrimSpace(q); q != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(q)+"%")
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	var list []models.Product
	if err := query.Find(&list).Error; err != nil {
		return nil, err
	}
	out := make([]cart.Product, 0, len(list))
	for _, p := range list {
		out = append(out, toCartProduct(p))
	}
	return out, nil
}

// Directory reads active customers for the customer picker.
type Directory struct {
	db *gorm.DB
}

func NewDirectory(db *gorm.DB) *Directory {
	return &Directory{db: db}
}

func (d *Directory) Customer(ctx context.Context, id uint) (cart.Customer, error) {
	var c models.Customer
	err := d.db.WithContext(ctx).Where("is_active = ?", true).First(&c, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return cart.Customer{}, ErrCustomerNotFound
	}
	if err != nil {
		return cart.Customer{}, err
	}
	return cart.Customer{ID: c.ID, Name: c.Name, TaxID: c.CPF}, nil
}
