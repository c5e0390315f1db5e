package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"hortifruti-pdv/internal/models"
)

type SupplierInput struct {
	Name     *string `json:"name"`
	CNPJ     *string `json:"cnpj"`
	Phone    *string `json:"phone"`
	Email    *string `json:"email"`
	Address  *string `json:"address"`
	IsActive *bool   `json:"is_active"`
}

func (in SupplierInput) apply(s *models.Supplier) {
	if in.Name != nil {
		s.Name = strings.TrimSpace(*in.Name)
	}
	if in.CNPJ != nil {
		s.CNPJ = strings.TrimSpace(*in.CNPJ)
	}
	if in.Phone != nil {
		s.Phone = *in.Phone
	}
	if in.Email != nil {
		s.Email = *in.Email
	}
	if in.Address != nil {
		s.Address = *in.Address
	}
	if in.IsActive != nil {
		s.IsActive = *in.IsActive
	}
}

func (h *Handler) GetSuppliers(c *gin.Context) {
	q := h.db.WithContext(c.Request.Context()).Order("name")
	if c.Query("include_inactive") != "true" {
		q = q.Where("is_active = ?", true)
	}
	offset, limit := pagination(c)

	var suppliers []models.Supplier
	if err := q.Offset(offset).Limit(limit).Find(&suppliers).Error; err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, suppliers)
}

func (h *Handler) GetSupplier(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var supplier models.Supplier
	if err := h.db.WithContext(c.Request.Context()).First(&supplier, id).Error; err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, supplier)
}

func (h *Handler) CreateSupplier(c *gin.Context) {
	var in SupplierInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	supplier := models.Supplier{IsActive: true}
	in.apply(&supplier)
	if supplier.Name == "" || supplier.CNPJ == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and cnpj are required"})
		return
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&supplier).Error; err != nil {
		if isDuplicate(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "CNPJ already registered"})
			return
		}
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, supplier)
}

func (h *Handler) UpdateSupplier(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var in SupplierInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	db := h.db.WithContext(c.Request.Context())
	var supplier models.Supplier
	if err := db.First(&supplier, id).Error; err != nil {
		h.respondError(c, err)
		return
	}
	in.apply(&supplier)
	if err := db.Save(&supplier).Error; err != nil {
		if isDuplicate(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "CNPJ already registered"})
			return
		}
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, supplier)
}

func (h *Handler) DeleteSupplier(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	res := h.db.WithContext(c.Request.Context()).Model(&models.Supplier{}).Where("id = ?", id).Update("is_active", false)
	if res.Error != nil {
		h.respondError(c, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Supplier not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Supplier deleted successfully"})
}
