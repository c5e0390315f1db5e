package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"hortifruti-pdv/internal/inventory"
	"hortifruti-pdv/internal/models"
)

type LocationInput struct {
	Name         *string          `json:"name"`
	LocationType *string          `json:"location_type"`
	Description  *string          `json:"description"`
	Temperature  *decimal.Decimal `json:"temperature"`
	Capacity     *decimal.Decimal `json:"capacity"`
	IsActive     *bool            `json:"is_active"`
}

func (in LocationInput) apply(l *models.Location) {
	if in.Name != nil {
		l.Name = strings.TrimSpace(*in.Name)
	}
	if in.LocationType != nil {
		l.LocationType = *in.LocationType
	}
	if in.Description != nil {
		l.Description = *in.Description
	}
	if in.Temperature != nil {
		t := *in.Temperature
		l.Temperature = &t
	}
	if in.Capacity != nil {
		c := *in.Capacity
		l.Capacity = &c
	}
	if in.IsActive != nil {
		l.IsActive = *in.IsActive
	}
}

// GET /api/locations?location_type=
func (h *Handler) GetLocations(c *gin.Context) {
	q := h.db.WithContext(c.Request.Context()).Where("is_active = ?", true).Order("name")
	if t := c.Query("location_type"); t != "" {
		q = q.Where("location_type = ?", t)
	}
	offset, limit := pagination(c)

	var locations []models.Location
	if err := q.Offset(offset).Limit(limit).Find(&locations).Error; err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, locations)
}

func (h *Handler) GetLocation(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var location models.Location
	if err := h.db.WithContext(c.Request.Context()).First(&location, id).Error; err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, location)
}

func (h *Handler) CreateLocation(c *gin.Context) {
	var in LocationInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	location := models.Location{IsActive: true}
	in.apply(&location)
	if location.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&location).Error; err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, location)
}

func (h *Handler) UpdateLocation(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var in LocationInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	db := h.db.WithContext(c.Request.Context())
	var location models.Location
	if err := db.First(&location, id).Error; err != nil {
		h.respondError(c, err)
		return
	}
	in.apply(&location)
	if err := db.Save(&location).Error; err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, location)
}

func (h *Handler) DeleteLocation(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	res := h.db.WithContext(c.Request.Context()).Model(&models.Location{}).Where("id = ?", id).Update("is_active", false)
	if res.Error != nil {
		h.respondError(c, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Location not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Stock kept per location ---

// GET /api/locations/:id/products
func (h *Handler) GetLocationProducts(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	list, err := inventory.LocationStock(c.Request.Context(), h.db, id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) AddLocationProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var in inventory.StockInput
	if err := c.ShouldBindJSON(&in); err != nil || in.ProductID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "product_id is required"})
		return
	}
	entry, err := inventory.AddToLocation(c.Request.Context(), h.db, id, in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

func (h *Handler) UpdateLocationProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	entryID, ok := idParam(c, "entry_id")
	if !ok {
		return
	}
	var in inventory.StockInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	entry, err := inventory.UpdateLocationStock(c.Request.Context(), h.db, id, entryID, in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (h *Handler) RemoveLocationProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	entryID, ok := idParam(c, "entry_id")
	if !ok {
		return
	}
	if err := inventory.RemoveFromLocation(c.Request.Context(), h.db, id, entryID); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/locations/stock/overview
func (h *Handler) GetStockOverview(c *gin.Context) {
	overview, err := inventory.StockOverview(c.Request.Context(), h.db)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, overview)
}

// GET /api/locations/stock/low-stock
func (h *Handler) GetLocationLowStock(c *gin.Context) {
	alerts, err := inventory.LowStockAtLocations(c.Request.Context(), h.db)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, alerts)
}
