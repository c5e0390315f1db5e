package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"hortifruti-pdv/internal/cart"
)

type addItemRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
}

type quantityRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
}

type customerRequest struct {
	CustomerID *uint `json:"customer_id"`
	Confirm    bool  `json:"confirm"`
}

type paymentMethodRequest struct {
	PaymentMethod string `json:"payment_method" binding:"required"`
}

type dueDateRequest struct {
	DueDate *string `json:"due_date"`
}

// cartResult answers with the cart after a mutation. A refused mutation left
// the cart unchanged, so GET /api/pdv/cart still shows the prior state.
func (h *Handler) cartResult(c *gin.Context, view cart.View, err error) {
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// GET /api/pdv/cart
func (h *Handler) GetCart(c *gin.Context) {
	c.JSON(http.StatusOK, h.pdv.View(sessionOf(c)))
}

// GET /api/pdv/products?q=
func (h *Handler) SearchPDVProducts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	list, err := h.catalog.Search(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) AddCartItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "product_id is required"})
		return
	}
	view, err := h.pdv.AddItem(c.Request.Context(), sessionOf(c), req.ProductID)
	h.cartResult(c, view, err)
}

func (h *Handler) SetCartQuantity(c *gin.Context) {
	id, ok := idParam(c, "product_id")
	if !ok {
		return
	}
	var req quantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid quantity"})
		return
	}
	view, err := h.pdv.SetQuantity(c.Request.Context(), sessionOf(c), id, req.Quantity)
	h.cartResult(c, view, err)
}

func (h *Handler) RemoveCartItem(c *gin.Context) {
	id, ok := idParam(c, "product_id")
	if !ok {
		return
	}
	view, err := h.pdv.RemoveItem(c.Request.Context(), sessionOf(c), id)
	h.cartResult(c, view, err)
}

// PUT /api/pdv/cart/customer
// Switching customers on a cart with items clears it, so the client must
// send confirm=true; without it the answer is 409 and nothing changes.
func (h *Handler) SetCartCustomer(c *gin.Context) {
	var req customerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	view, err := h.pdv.SetCustomer(c.Request.Context(), sessionOf(c), req.CustomerID, req.Confirm)
	h.cartResult(c, view, err)
}

func (h *Handler) SetCartPaymentMethod(c *gin.Context) {
	var req paymentMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "payment_method is required"})
		return
	}
	view, err := h.pdv.SetPaymentMethod(c.Request.Context(), sessionOf(c), req.PaymentMethod)
	h.cartResult(c, view, err)
}

// PUT /api/pdv/cart/due-date {"due_date": "2026-11-30"} or null to clear
func (h *Handler) SetCartDueDate(c *gin.Context) {
	var req dueDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	sess := sessionOf(c)
	if req.DueDate == nil || *req.DueDate == "" {
		view, err := h.pdv.SetDueDate(c.Request.Context(), sess, nil)
		h.cartResult(c, view, err)
		return
	}
	due, ok := parseDay(*req.DueDate)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "due_date must be YYYY-MM-DD"})
		return
	}
	view, err := h.pdv.SetDueDate(c.Request.Context(), sess, &due)
	h.cartResult(c, view, err)
}

// POST /api/pdv/cart/refresh reloads stock and lists the lines now above it.
func (h *Handler) RefreshCart(c *gin.Context) {
	view, over, err := h.pdv.Refresh(c.Request.Context(), sessionOf(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if over == nil {
		over = []uint{}
	}
	c.JSON(http.StatusOK, gin.H{"cart": view, "over_stock": over})
}

// POST /api/pdv/cart/checkout
func (h *Handler) Checkout(c *gin.Context) {
	receipt, err := h.pdv.Checkout(c.Request.Context(), sessionOf(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, receipt)
}

// DELETE /api/pdv/cart throws away the caller's cart.
func (h *Handler) DiscardCart(c *gin.Context) {
	c.JSON(http.StatusOK, h.pdv.Discard(sessionOf(c).UserID))
}

// DELETE /api/pdv/carts/:user_id lets an admin clear a cart an operator
// cannot recover from their terminal.
func (h *Handler) DiscardOperatorCart(c *gin.Context) {
	id, ok := idParam(c, "user_id")
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.pdv.Discard(id))
}
