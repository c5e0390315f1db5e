package database

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"hortifruti-pdv/internal/models"
)

// SalesReportResult holds revenue and sale count for a period
type SalesReportResult struct {
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	TotalCount   int64           `json:"total_count"`
}

// GetSalesReport calculates completed and pending sales within a date range.
// A zero start or end leaves that side open.
func GetSalesReport(db *gorm.DB, start, end time.Time) (*SalesReportResult, error) {
	var result SalesReportResult

	scope := func(q *gorm.DB) *gorm.DB {
		q = q.Where("status <> ?", "cancelled")
		if !start.IsZero() {
			q = q.Where("created_at >= ?", start)
		}
		if !end.IsZero() {
			q = q.Where("created_at <= ?", end)
		}
		return q
	}

	// COALESCE ensures we get 0 instead of NULL if no sales exist
	var sum struct{ Total decimal.Decimal }
	err := db.Model(&models.Sale{}).Scopes(scope).
		Select("COALESCE(SUM(total_amount), 0) AS total").
		Scan(&sum).Error
	if err != nil {
		return nil, err
	}
	result.TotalRevenue = sum.Total

	err = db.Model(&models.Sale{}).Scopes(scope).Count(&result.TotalCount).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}

type TopSeller struct {
	ProductName string          `json:"product_name"`
	Sold        decimal.Decimal `json:"sold"`
	Revenue     decimal.Decimal `json:"revenue"`
}

// TopSelling ranks products by quantity sold.
func TopSelling(db *gorm.DB, limit int) ([]TopSeller, error) {
	var rows []TopSeller
	err := db.Table("sale_items").
		Select("products.name AS product_name, SUM(sale_items.quantity) AS sold, SUM(sale_items.total_price) AS revenue").
		Joins("JOIN products ON sale_items.product_id = products.id").
		Joins("JOIN sales ON sale_items.sale_id = sales.id").
		Where("sales.status <> ?", "cancelled").
		Group("products.name").
		Order("sold DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

// RecentSales returns the newest sales with their customer.
func RecentSales(db *gorm.DB, limit int) ([]models.Sale, error) {
	var sales []models.Sale
	err := db.Preload("Customer").Order("created_at DESC").Limit(limit).Find(&sales).Error
	return sales, err
}

// ValuationItem represents a single product row of the valuation
type ValuationItem struct {
	Name      string          `json:"name"`
	Unit      string          `json:"unit"`
	Quantity  decimal.Decimal `json:"quantity"`
	CostPrice decimal.Decimal `json:"cost_price"`
	TotalCost decimal.Decimal `json:"total_cost"`
}

// CategoryGroup is one category with its products
type CategoryGroup struct {
	CategoryName string          `json:"category_name"`
	Items        []ValuationItem `json:"items"`
	Subtotal     decimal.Decimal `json:"subtotal"`
}

type Valuation struct {
	Categories []CategoryGroup `json:"categories"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

// StockValuation values the active inventory at cost price, grouped by category.
func StockValuation(db *gorm.DB) (*Valuation, error) {
	var products []models.Product
	if err := db.Where("is_active = ?", true).Order("name").Find(&products).Error; err != nil {
		return nil, err
	}

	grouped := make(map[string]*CategoryGroup)
	out := &Valuation{GrandTotal: decimal.Zero}

	for _, p := range products {
		name := p.Category
		if name == "" {
			name = "Uncategorized"
		}
		g, ok := grouped[name]
		if !ok {
			g = &CategoryGroup{CategoryName: name, Items: []ValuationItem{}, Subtotal: decimal.Zero}
			grouped[name] = g
		}

		itemTotal := p.StockQuantity.Mul(p.CostPrice).Round(2)
		g.Items = append(g.Items, ValuationItem{
			Name:      p.Name,
			Unit:      p.Unit,
			Quantity:  p.StockQuantity,
			CostPrice: p.CostPrice,
			TotalCost: itemTotal,
		})
		g.Subtotal = g.Subtotal.Add(itemTotal)
		out.GrandTotal = out.GrandTotal.Add(itemTotal)
	}

	for _, g := range grouped {
		out.Categories = append(out.Categories, *g)
	}
	sort.Slice(out.Categories, func(i, j int) bool {
		return out.Categories[i].CategoryName < out.Categories[j].CategoryName
	})
	return out, nil
}

// LowStock lists active products at or below their minimum stock.
func LowStock(db *gorm.DB) ([]models.Product, error) {
	var products []models.Product
	err := db.Where("is_active = ? AND stock_quantity <= min_stock", true).Order("name").Find(&products).Error
	return products, err
}
