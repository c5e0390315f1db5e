package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"hortifruti-pdv/internal/models"
)

type CustomerInput struct {
	Name     *string `json:"name"`
	CPF      *string `json:"cpf"`
	Phone    *string `json:"phone"`
	Email    *string `json:"email"`
	Address  *string `json:"address"`
	IsActive *bool   `json:"is_active"`
}

func (in CustomerInput) apply(c *models.Customer) {
	if in.Name != nil {
		c.Name = strings.TrimSpace(*in.Name)
	}
	if in.CPF != nil {
		c.CPF = strings.TrimSpace(*in.CPF)
	}
	if in.Phone != nil {
		c.Phone = *in.Phone
	}
	if in.Email != nil {
		c.Email = *in.Email
	}
	if in.Address != nil {
		c.Address = *in.Address
	}
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
}

// GET /api/customers?name=
func (h *Handler) GetCustomers(c *gin.Context) {
	q := h.db.WithContext(c.Request.Context()).Order("name")
	if c.Query("include_inactive") != "true" {
		q = q.Where("is_active = ?", true)
	}
	if name := strings.TrimSpace(c.Query("name")); name != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(name)+"%")
	}
	offset, limit := pagination(c)

	var customers []models.Customer
	if err := q.Offset(offset).Limit(limit).Find(&customers).Error; err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, customers)
}

func (h *Handler) GetCustomer(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var customer models.Customer
	if err := h.db.WithContext(c.Request.Context()).First(&customer, id).Error; err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

func (h *Handler) CreateCustomer(c *gin.Context) {
	var in CustomerInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	customer := models.Customer{IsActive: true}
	in.apply(&customer)
	if customer.Name == "" || customer.CPF == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and cpf are required"})
		return
	}

	if err := h.db.WithContext(c.Request.Context()).Create(&customer).Error; err != nil {
		if isDuplicate(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "CPF already registered"})
			return
		}
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, customer)
}

func (h *Handler) UpdateCustomer(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var in CustomerInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	db := h.db.WithContext(c.Request.Context())
	var customer models.Customer
	if err := db.First(&customer, id).Error; err != nil {
		h.respondError(c, err)
		return
	}
	in.apply(&customer)
	if customer.Name == "" || customer.CPF == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and cpf are required"})
		return
	}
	if err := db.Save(&customer).Error; err != nil {
		if isDuplicate(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "CPF already registered"})
			return
		}
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

// DeleteCustomer deactivates; sales and receivables keep pointing at the row.
func (h *Handler) DeleteCustomer(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	res := h.db.WithContext(c.Request.Context()).Model(&models.Customer{}).Where("id = ?", id).Update("is_active", false)
	if res.Error != nil {
		h.respondError(c, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Customer not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Customer deleted successfully"})
}
