package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"hortifruti-pdv/internal/database"
	"hortifruti-pdv/internal/models"
	"hortifruti-pdv/internal/receivables"
	"hortifruti-pdv/internal/session"
)

var ErrUnknownTool = errors.New("unknown tool")

// Toolbox runs the functions the model may call. It is independent of the
// model client so it can be exercised directly.
type Toolbox struct {
	db          *gorm.DB
	receivables *receivables.Service
	log         *zap.Logger
}

func NewToolbox(db *gorm.DB, rec *receivables.Service, log *zap.Logger) *Toolbox {
	return &Toolbox{db: db, receivables: rec, log: log}
}

// Declarations describes the toolbox to the model.
func Declarations() []*genai.Tool {
	return []*genai.Tool{
		{
			FunctionDeclarations: []*genai.FunctionDeclaration{
				{
					Name:        "check_inventory",
					Description: "Get the full inventory list. Use this to find ANY product details like ID, Name, Unit, Price, Cost, or Stock.",
				},
				{
					Name:        "update_product_price",
					Description: "Update the sale price of a specific product using its ID",
					Parameters: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"product_id": {Type: genai.TypeInteger, Description: "ID of the product"},
							"new_price":  {Type: genai.TypeNumber, Description: "New price in BRL"},
						},
						Required: []string{"product_id", "new_price"},
					},
				},
				{
					Name:        "create_product",
					Description: "Add a new product to the inventory",
					Parameters: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"name":           {Type: genai.TypeString, Description: "Name of the product"},
							"price":          {Type: genai.TypeNumber, Description: "Price of the product"},
							"category":       {Type: genai.TypeString, Description: "Category (Frutas, Verduras, Legumes...)"},
							"unit":           {Type: genai.TypeString, Description: "Unit of sale (kg, un, maço)"},
							"stock_quantity": {Type: genai.TypeNumber, Description: "Initial stock"},
						},
						Required: []string{"name", "price", "category", "stock_quantity"},
					},
				},
				{
					Name:        "get_sales_report",
					Description: "Get total sales revenue and count for a date range.",
					Parameters: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"start_date": {Type: genai.TypeString, Description: "Start date (YYYY-MM-DD)"},
							"end_date":   {Type: genai.TypeString, Description: "End date (YYYY-MM-DD)"},
						},
						Required: []string{"start_date", "end_date"},
					},
				},
				{
					Name:        "get_overdue_summary",
					Description: "List accounts receivable (fiado) that are past their due date, with the amount still owed.",
				},
			},
		},
	}
}

// Call runs one tool and returns the payload handed back to the model.
// Bad arguments are reported to the model instead of failing the request.
func (t *Toolbox) Call(ctx context.Context, sess session.Session, name string, args map[string]any) (map[string]any, error) {
	t.log.Info("assistant tool call", zap.String("tool", name), zap.Uint("user_id", sess.UserID))

	switch name {
	case "check_inventory":
		return t.checkInventory(ctx)
	case "update_product_price":
		return t.updatePrice(ctx, args)
	case "create_product":
		return t.createProduct(ctx, args)
	case "get_sales_report":
		return t.salesReport(ctx, args)
	case "get_overdue_summary":
		sum, err := t.receivables.OverdueSummary(ctx, sess)
		if err != nil {
			return nil, err
		}
		return map[string]any{"summary": sum}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
}

type inventoryItem struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Unit     string `json:"unit"`
	Category string `json:"category"`
	Stock    string `json:"stock"`
	Price    string `json:"price"`
	Cost     string `json:"cost"`
}

func (t *Toolbox) checkInventory(ctx context.Context) (map[string]any, error) {
	var products []models.Product
	if err := t.db.WithContext(ctx).Where("is_active = ?", true).Order("name").Find(&products).Error; err != nil {
		return nil, err
	}
	list := make([]inventoryItem, 0, len(products))
	for _, p := range products {
		list = append(list, inventoryItem{
			ID:       p.ID,
			Name:     p.Name,
			Unit:     p.Unit,
			Category: p.Category,
			Stock:    p.StockQuantity.String(),
			Price:    p.Price.StringFixed(2),
			Cost:     p.CostPrice.StringFixed(2),
		})
	}
	return map[string]any{"inventory": list}, nil
}

func (t *Toolbox) updatePrice(ctx context.Context, args map[string]any) (map[string]any, error) {
	id, ok := number(args["product_id"])
	if !ok || id <= 0 {
		return map[string]any{"status": "error", "message": "product_id is required"}, nil
	}
	price, ok := number(args["new_price"])
	if !ok || price <= 0 {
		return map[string]any{"status": "error", "message": "new_price must be positive"}, nil
	}
	newPrice := decimal.NewFromFloat(price).Round(2)

	res := t.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", uint(id)).Update("price", newPrice)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return map[string]any{"status": "Product ID not found"}, nil
	}
	return map[string]any{"status": "Success", "new_price": newPrice.StringFixed(2)}, nil
}

func (t *Toolbox) createProduct(ctx context.Context, args map[string]any) (map[string]any, error) {
	name, _ := args["name"].(string)
	category, _ := args["category"].(string)
	unit, _ := args["unit"].(string)
	price, okPrice := number(args["price"])
	stock, okStock := number(args["stock_quantity"])
	if strings.TrimSpace(name) == "" || !okPrice || price <= 0 || !okStock || stock < 0 {
		return map[string]any{"status": "error", "message": "name, positive price and stock are required"}, nil
	}
	if unit == "" {
		unit = "kg"
	}

	p := models.Product{
		Name:          strings.TrimSpace(name),
		Price:         decimal.NewFromFloat(price).Round(2),
		CostPrice:     decimal.Zero,
		StockQuantity: decimal.NewFromFloat(stock).Round(3),
		MinStock:      decimal.Zero,
		Unit:          unit,
		Category:      category,
		IsActive:      true,
	}
	if err := t.db.WithContext(ctx).Create(&p).Error; err != nil {
		return nil, err
	}
	return map[string]any{"status": "created", "id": p.ID}, nil
}

func (t *Toolbox) salesReport(ctx context.Context, args map[string]any) (map[string]any, error) {
	startStr, _ := args["start_date"].(string)
	endStr, _ := args["end_date"].(string)
	start, err1 := time.ParseInLocation(time.DateOnly, startStr, time.Local)
	end, err2 := time.ParseInLocation(time.DateOnly, endStr, time.Local)
	if err1 != nil || err2 != nil {
		return map[string]any{"status": "error", "message": "Dates must be in YYYY-MM-DD format."}, nil
	}
	end = end.AddDate(0, 0, 1).Add(-time.Nanosecond)

	report, err := database.GetSalesReport(t.db.WithContext(ctx), start, end)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"revenue":     report.TotalRevenue.StringFixed(2),
		"sales_count": report.TotalCount,
	}, nil
}

// number accepts the float64 the model sends as well as Go ints from tests.
func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
