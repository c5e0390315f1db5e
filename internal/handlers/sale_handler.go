package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"hortifruti-pdv/internal/sales"
)

// saleFilter reads the list query string. It writes the 400 itself.
func saleFilter(c *gin.Context) (sales.ListFilter, bool) {
	start, ok := dateQuery(c, "start_date", false)
	if !ok {
		return sales.ListFilter{}, false
	}
	end, ok := dateQuery(c, "end_date", true)
	if !ok {
		return sales.ListFilter{}, false
	}
	offset, limit := pagination(c)

	f := sales.ListFilter{
		CustomerName:  c.Query("customer_name"),
		Status:        c.Query("status"),
		PaymentMethod: c.Query("payment_method"),
		Start:         start,
		End:           end,
		Offset:        offset,
		Limit:         limit,
	}
	if v := c.Query("seller_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid seller id"})
			return sales.ListFilter{}, false
		}
		f.SellerID = uint(id)
	}
	if v := c.Query("customer_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid customer id"})
			return sales.ListFilter{}, false
		}
		f.CustomerID = uint(id)
	}
	return f, true
}

// GET /api/sales
func (h *Handler) GetSales(c *gin.Context) {
	f, ok := saleFilter(c)
	if !ok {
		return
	}
	list, err := h.sales.List(c.Request.Context(), sessionOf(c), f)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) GetSale(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	sale, err := h.sales.Get(c.Request.Context(), sessionOf(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sale)
}

func (h *Handler) UpdateSale(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var in sales.Update
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	sale, err := h.sales.Update(c.Request.Context(), sessionOf(c), id, in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sale)
}

// GET /api/sales/grouped-by-customer
func (h *Handler) GetSalesByCustomer(c *gin.Context) {
	f, ok := saleFilter(c)
	if !ok {
		return
	}
	groups, err := h.sales.GroupedByCustomer(c.Request.Context(), sessionOf(c), f)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, groups)
}

// GET /api/sales/daily-summary?date=YYYY-MM-DD (defaults to today)
func (h *Handler) GetDailySummary(c *gin.Context) {
	day, ok := dateQuery(c, "date", false)
	if !ok {
		return
	}
	if day.IsZero() {
		day = time.Now()
	}
	summary, err := h.sales.DailySummary(c.Request.Context(), sessionOf(c), day)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
