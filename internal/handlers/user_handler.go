package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"hortifruti-pdv/internal/auth"
	"hortifruti-pdv/internal/models"
	"hortifruti-pdv/internal/session"
)

type UserInput struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	FullName *string `json:"full_name"`
	Role     *string `json:"role"`
	Password *string `json:"password"`
	IsActive *bool   `json:"is_active"`
}

// apply copies the fields and hashes a new password. It returns a message
// for the client when the input is invalid.
func (in UserInput) apply(u *models.User) (string, error) {
	if in.Username != nil {
		u.Username = strings.TrimSpace(*in.Username)
	}
	if in.Email != nil {
		u.Email = strings.TrimSpace(*in.Email)
	}
	if in.FullName != nil {
		u.FullName = *in.FullName
	}
	if in.Role != nil {
		if !session.ValidRole(*in.Role) {
			return "role must be admin or vendedor", nil
		}
		u.Role = *in.Role
	}
	if in.IsActive != nil {
		u.IsActive = *in.IsActive
	}
	if in.Password != nil {
		if len(*in.Password) < 6 {
			return "password must have at least 6 characters", nil
		}
		hash, err := auth.HashPassword(*in.Password)
		if err != nil {
			return "", err
		}
		u.PasswordHash = hash
	}
	if u.Username == "" || u.Email == "" {
		return "username and email are required", nil
	}
	return "", nil
}

func (h *Handler) GetUsers(c *gin.Context) {
	offset, limit := pagination(c)
	var users []models.User
	if err := h.db.WithContext(c.Request.Context()).Order("username").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *Handler) GetUser(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var user models.User
	if err := h.db.WithContext(c.Request.Context()).First(&user, id).Error; err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) CreateUser(c *gin.Context) {
	var in UserInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	if in.Password == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password is required"})
		return
	}

	user := models.User{Role: session.RoleSeller, IsActive: true}
	msg, err := in.apply(&user)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	if err := h.db.WithContext(c.Request.Context()).Create(&user).Error; err != nil {
		if isDuplicate(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "Username or email already registered"})
			return
		}
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *Handler) UpdateUser(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var in UserInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	if id == sessionOf(c).UserID && in.IsActive != nil && !*in.IsActive {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot deactivate your own account"})
		return
	}

	db := h.db.WithContext(c.Request.Context())
	var user models.User
	if err := db.First(&user, id).Error; err != nil {
		h.respondError(c, err)
		return
	}
	msg, err := in.apply(&user)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}
	if err := db.Save(&user).Error; err != nil {
		if isDuplicate(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "Username or email already registered"})
			return
		}
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// DeleteUser deactivates the account; sales keep their seller.
func (h *Handler) DeleteUser(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if id == sessionOf(c).UserID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot deactivate your own account"})
		return
	}
	res := h.db.WithContext(c.Request.Context()).Model(&models.User{}).Where("id = ?", id).Update("is_active", false)
	if res.Error != nil {
		h.respondError(c, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	c.Status(http.StatusNoContent)
}
