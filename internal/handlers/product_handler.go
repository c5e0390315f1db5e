package handlers

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"hortifruti-pdv/internal/database"
	"hortifruti-pdv/internal/inventory"
	"hortifruti-pdv/internal/models"
)

type ProductInput struct {
	Name          *string          `json:"name"`
	Description   *string          `json:"description"`
	Price         *decimal.Decimal `json:"price"`
	CostPrice     *decimal.Decimal `json:"cost_price"`
	StockQuantity *decimal.Decimal `json:"stock_quantity"`
	MinStock      *decimal.Decimal `json:"min_stock"`
	Unit          *string          `json:"unit"`
	Category      *string          `json:"category"`
	SupplierID    *uint            `json:"supplier_id"`
	ImageURL      *string          `json:"image_url"`
	IsActive      *bool            `json:"is_active"`
}

func (in ProductInput) apply(p *models.Product) {
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Price != nil {
		p.Price = in.Price.Round(2)
	}
	if in.CostPrice != nil {
		p.CostPrice = in.CostPrice.Round(2)
	}
	if in.StockQuantity != nil {
		p.StockQuantity = in.StockQuantity.Round(3)
	}
	if in.MinStock != nil {
		p.MinStock = in.MinStock.Round(3)
	}
	if in.Unit != nil {
		p.Unit = *in.Unit
	}
	if in.Category != nil {
		p.Category = *in.Category
	}
	if in.SupplierID != nil {
		p.SupplierID = in.SupplierID
	}
	if in.ImageURL != nil {
		p.ImageURL = *in.ImageURL
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
}

func validProduct(p models.Product) string {
	switch {
	case p.Name == "":
		return "name is required"
	case p.Price.IsNegative(), p.CostPrice.IsNegative():
		return "prices cannot be negative"
	case p.StockQuantity.IsNegative(), p.MinStock.IsNegative():
		return "stock cannot be negative"
	}
	return ""
}

// --- GET: /api/products ---
// ?name= ?category= ?include_inactive=true ?low_stock=true
func (h *Handler) GetProducts(c *gin.Context) {
	q := h.db.WithContext(c.Request.Context()).Model(&models.Product{}).Order("name")
	if c.Query("include_inactive") != "true" {
		q = q.Where("is_active = ?", true)
	}
	if name := strings.TrimSpace(c.Query("name")); name != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(name)+"%")
	}
	if cat := c.Query("category"); cat != "" {
		q = q.Where("category = ?", cat)
	}
	if c.Query("low_stock") == "true" {
		q = q.Where("stock_quantity <= min_stock")
	}
	offset, limit := pagination(c)

	var products []models.Product
	if err := q.Offset(offset).Limit(limit).Find(&products).Error; err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var product models.Product
	if err := h.db.WithContext(c.Request.Context()).Preload("Supplier").First(&product, id).Error; err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// --- POST: Add a new product ---
func (h *Handler) AddProduct(c *gin.Context) {
	var in ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	product := models.Product{
		Price:         decimal.Zero,
		CostPrice:     decimal.Zero,
		StockQuantity: decimal.Zero,
		MinStock:      decimal.Zero,
		Unit:          "kg",
		IsActive:      true,
	}
	in.apply(&product)
	if msg := validProduct(product); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	if err := h.db.WithContext(c.Request.Context()).Create(&product).Error; err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

// --- PUT: partial update, only the fields sent change ---
func (h *Handler) UpdateProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var in ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	db := h.db.WithContext(c.Request.Context())
	var product models.Product
	if err := db.First(&product, id).Error; err != nil {
		h.respondError(c, err)
		return
	}
	in.apply(&product)
	if msg := validProduct(product); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}
	if err := db.Save(&product).Error; err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product updated successfully", "product": product})
}

// --- DELETE: deactivate; sold products stay referenced by past sales ---
func (h *Handler) DeleteProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	res := h.db.WithContext(c.Request.Context()).Model(&models.Product{}).Where("id = ?", id).Update("is_active", false)
	if res.Error != nil {
		h.respondError(c, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}

func (h *Handler) CreateStockMovement(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var in inventory.Movement
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	movement, product, err := inventory.Move(c.Request.Context(), h.db, sessionOf(c), id, in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"movement": movement, "product": product})
}

func (h *Handler) GetStockMovements(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	list, err := inventory.Movements(c.Request.Context(), h.db, id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) LowStock(c *gin.Context) {
	list, err := database.LowStock(h.db.WithContext(c.Request.Context()))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

var imageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".gif": true}

// --- UPLOAD: product photos ---
func (h *Handler) UploadImage(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !imageExts[ext] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only image files are allowed"})
		return
	}

	filename := uuid.NewString() + ext
	if err := c.SaveUploadedFile(file, filepath.Join(h.uploadDir, filename)); err != nil {
		h.respondError(c, fmt.Errorf("save upload: %w", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "File uploaded successfully",
		"url":     h.baseURL + "/uploads/" + filename,
	})
}
