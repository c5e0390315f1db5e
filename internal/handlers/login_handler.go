package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"hortifruti-pdv/internal/auth"
	"hortifruti-pdv/internal/models"
	"hortifruti-pdv/internal/session"
)

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	var input LoginRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	var user models.User
	if err := h.db.WithContext(c.Request.Context()).Where("username = ?", input.Username).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if !auth.CheckPassword(user.PasswordHash, input.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if !user.IsActive {
		c.JSON(http.StatusForbidden, gin.H{"error": "User is inactive"})
		return
	}

	sess := session.Session{UserID: user.ID, Username: user.Username, Role: user.Role}
	token, expires, err := h.tokens.GenerateToken(sess)
	if err != nil {
		h.log.Error("sign token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "bearer",
		"expires_at":   expires,
		"role":         user.Role,
		"username":     user.Username,
		"user":         user,
	})
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3"`
	Email    string `json:"email" binding:"required,email"`
	FullName string `json:"full_name"`
	Password string `json:"password" binding:"required,min=6"`
}

// Register is only routed when ALLOW_REGISTRATION is on. The very first user
// becomes admin; everyone after that starts as vendedor.
func (h *Handler) Register(c *gin.Context) {
	var input RegisterRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	role := session.RoleSeller
	var count int64
	if err := h.db.Model(&models.User{}).Count(&count).Error; err != nil {
		h.respondError(c, err)
		return
	}
	if count == 0 {
		role = session.RoleAdmin
	}

	user := models.User{
		Username:     strings.TrimSpace(input.Username),
		Email:        strings.TrimSpace(input.Email),
		FullName:     input.FullName,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
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

// Me returns the logged-in user.
func (h *Handler) Me(c *gin.Context) {
	var user models.User
	if err := h.db.WithContext(c.Request.Context()).First(&user, sessionOf(c).UserID).Error; err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
