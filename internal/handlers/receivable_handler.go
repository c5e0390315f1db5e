package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"hortifruti-pdv/internal/receivables"
)

// parseDay accepts a plain date or a full RFC 3339 timestamp.
func parseDay(v string) (time.Time, bool) {
	if t, err := time.ParseInLocation(time.DateOnly, v, time.Local); err == nil {
		return t, true
	}
	t, err := time.Parse(time.RFC3339, v)
	return t, err == nil
}

type receivableCreateRequest struct {
	SaleID  uint             `json:"sale_id" binding:"required"`
	Amount  *decimal.Decimal `json:"amount"`
	DueDate string           `json:"due_date" binding:"required"`
	Notes   string           `json:"notes"`
}

type receivableUpdateRequest struct {
	Amount     *decimal.Decimal `json:"amount"`
	PaidAmount *decimal.Decimal `json:"paid_amount"`
	DueDate    *string          `json:"due_date"`
	Notes      *string          `json:"notes"`
}

// GET /api/accounts-receivable?status=&customer_name=&customer_id=
func (h *Handler) GetReceivables(c *gin.Context) {
	offset, limit := pagination(c)
	f := receivables.Filter{
		Status:       c.Query("status"),
		CustomerName: c.Query("customer_name"),
		Offset:       offset,
		Limit:        limit,
	}
	if v := c.Query("customer_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid customer id"})
			return
		}
		f.CustomerID = uint(id)
	}

	list, err := h.receivables.List(c.Request.Context(), sessionOf(c), f)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) GetReceivable(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	ar, err := h.receivables.Get(c.Request.Context(), sessionOf(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ar)
}

func (h *Handler) CreateReceivable(c *gin.Context) {
	var req receivableCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sale_id and due_date are required"})
		return
	}
	due, ok := parseDay(req.DueDate)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "due_date must be YYYY-MM-DD"})
		return
	}

	ar, err := h.receivables.Create(c.Request.Context(), receivables.CreateInput{
		SaleID:  req.SaleID,
		Amount:  req.Amount,
		DueDate: due,
		Notes:   req.Notes,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ar)
}

func (h *Handler) UpdateReceivable(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req receivableUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	in := receivables.UpdateInput{Amount: req.Amount, PaidAmount: req.PaidAmount, Notes: req.Notes}
	if req.DueDate != nil {
		due, ok := parseDay(*req.DueDate)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "due_date must be YYYY-MM-DD"})
			return
		}
		in.DueDate = &due
	}

	ar, err := h.receivables.Update(c.Request.Context(), sessionOf(c), id, in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ar)
}

// POST /api/accounts-receivable/:id/payments
func (h *Handler) AddReceivablePayment(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var in receivables.PaymentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	payment, err := h.receivables.AddPayment(c.Request.Context(), sessionOf(c), id, in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, payment)
}

func (h *Handler) GetReceivablePayments(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	list, err := h.receivables.Payments(c.Request.Context(), sessionOf(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) GetOverdueSummary(c *gin.Context) {
	summary, err := h.receivables.OverdueSummary(c.Request.Context(), sessionOf(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GET /api/accounts-receivable/customer/:customer_id/summary
func (h *Handler) GetCustomerReceivables(c *gin.Context) {
	id, ok := idParam(c, "customer_id")
	if !ok {
		return
	}
	summary, err := h.receivables.CustomerSummary(c.Request.Context(), sessionOf(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// POST /api/accounts-receivable/customer/:customer_id/payments
// spreads one payment over the customer's open accounts, oldest due first.
func (h *Handler) PayCustomer(c *gin.Context) {
	id, ok := idParam(c, "customer_id")
	if !ok {
		return
	}
	var in receivables.PaymentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	result, err := h.receivables.PayCustomer(c.Request.Context(), sessionOf(c), id, in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *Handler) MarkOverdue(c *gin.Context) {
	n, err := h.receivables.MarkOverdue(c.Request.Context(), time.Now())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": n})
}
