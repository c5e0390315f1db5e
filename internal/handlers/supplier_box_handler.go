package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"hortifruti-pdv/internal/inventory"
)

// GET /api/supplier-boxes?supplier_id=&status=
func (h *Handler) GetSupplierBoxes(c *gin.Context) {
	var f inventory.BoxFilter
	if v := c.Query("supplier_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid supplier_id"})
			return
		}
		f.SupplierID = uint(id)
	}
	f.Status = c.Query("status")

	boxes, err := inventory.Boxes(c.Request.Context(), h.db, f)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, boxes)
}

func (h *Handler) GetSupplierBox(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	box, err := inventory.Box(c.Request.Context(), h.db, id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, box)
}

func (h *Handler) CreateSupplierBox(c *gin.Context) {
	var in inventory.BoxInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	box, err := inventory.CreateBox(c.Request.Context(), h.db, in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, box)
}

func (h *Handler) UpdateSupplierBox(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var in inventory.BoxInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	box, err := inventory.UpdateBox(c.Request.Context(), h.db, id, in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, box)
}

func (h *Handler) DeleteSupplierBox(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := inventory.DeactivateBox(c.Request.Context(), h.db, id); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/supplier-boxes/:id/movements
func (h *Handler) GetBoxMovements(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	list, err := inventory.BoxMovements(c.Request.Context(), h.db, id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// POST /api/supplier-boxes/:id/movements {"movement_type":"entrada","weight":"12.5"}
func (h *Handler) CreateBoxMovement(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var in inventory.BoxMove
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "movement_type is required"})
		return
	}
	movement, box, err := inventory.MoveBox(c.Request.Context(), h.db, sessionOf(c), id, in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"movement": movement, "box": box})
}

// GET /api/supplier-boxes/summary/status
func (h *Handler) GetBoxSummary(c *gin.Context) {
	summary, err := inventory.BoxStatusSummary(c.Request.Context(), h.db)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary})
}
