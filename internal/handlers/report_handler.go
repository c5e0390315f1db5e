package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"hortifruti-pdv/internal/database"
	"hortifruti-pdv/internal/models"
)

// ReportData defines the shape of the dashboard analytics response
type ReportData struct {
	TotalRevenue decimal.Decimal      `json:"total_revenue"`
	TotalOrders  int64                `json:"total_orders"`
	TopSelling   []database.TopSeller `json:"top_selling"`
	RecentSales  []models.Sale        `json:"recent_sales"`
}

// --- GET: /api/reports?start_date=&end_date= ---
func (h *Handler) GetSalesReport(c *gin.Context) {
	start, ok := dateQuery(c, "start_date", false)
	if !ok {
		return
	}
	end, ok := dateQuery(c, "end_date", true)
	if !ok {
		return
	}
	db := h.db.WithContext(c.Request.Context())

	// 1. Revenue and order count for the period (all time when open)
	totals, err := database.GetSalesReport(db, start, end)
	if err != nil {
		h.respondError(c, err)
		return
	}
	data := ReportData{TotalRevenue: totals.TotalRevenue, TotalOrders: totals.TotalCount}

	// 2. Top 5 best sellers
	if data.TopSelling, err = database.TopSelling(db, 5); err != nil {
		h.respondError(c, err)
		return
	}

	// 3. The last 10 sales, newest first
	if data.RecentSales, err = database.RecentSales(db, 10); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, data)
}

// --- GET: /api/reports/valuation ---
// GetStockValuation values the physical inventory at cost, by category.
func (h *Handler) GetStockValuation(c *gin.Context) {
	valuation, err := database.StockValuation(h.db.WithContext(c.Request.Context()))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, valuation)
}
