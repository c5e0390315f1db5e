// Package handlers is the REST surface of the PDV backend.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"hortifruti-pdv/internal/auth"
	"hortifruti-pdv/internal/cart"
	"hortifruti-pdv/internal/inventory"
	"hortifruti-pdv/internal/middleware"
	"hortifruti-pdv/internal/pdv"
	"hortifruti-pdv/internal/receivables"
	"hortifruti-pdv/internal/sales"
	"hortifruti-pdv/internal/session"
)

// Assistant answers admin questions in natural language.
type Assistant interface {
	Ask(ctx context.Context, sess session.Session, message string) (string, error)
}

type Deps struct {
	DB          *gorm.DB
	Log         *zap.Logger
	Tokens      *auth.TokenManager
	Sales       *sales.Service
	Receivables *receivables.Service
	PDV         *pdv.Service
	Catalog     *pdv.Catalog
	Assistant   Assistant // nil when no API key is configured
	BaseURL     string
	UploadDir   string
}

type Handler struct {
	db          *gorm.DB
	log         *zap.Logger
	tokens      *auth.TokenManager
	sales       *sales.Service
	receivables *receivables.Service
	pdv         *pdv.Service
	catalog     *pdv.Catalog
	assistant   Assistant
	baseURL     string
	uploadDir   string
}

func New(d Deps) *Handler {
	if d.UploadDir == "" {
		d.UploadDir = "./uploads"
	}
	return &Handler{
		db:          d.DB,
		log:         d.Log,
		tokens:      d.Tokens,
		sales:       d.Sales,
		receivables: d.Receivables,
		pdv:         d.PDV,
		catalog:     d.Catalog,
		assistant:   d.Assistant,
		baseURL:     strings.TrimRight(d.BaseURL, "/"),
		uploadDir:   d.UploadDir,
	}
}

// sessionOf is only called behind AuthMiddleware.
func sessionOf(c *gin.Context) session.Session {
	sess, _ := middleware.Session(c)
	return sess
}

func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + strings.ReplaceAll(name, "_", " ")})
		return 0, false
	}
	return uint(id), true
}

func pagination(c *gin.Context) (offset, limit int) {
	offset, _ = strconv.Atoi(c.DefaultQuery("skip", "0"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "100"))
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	return offset, limit
}

// dateQuery parses an optional YYYY-MM-DD query parameter. endOfDay moves the
// result to the last instant of that day.
func dateQuery(c *gin.Context, key string, endOfDay bool) (time.Time, bool) {
	v := c.Query(key)
	if v == "" {
		return time.Time{}, true
	}
	t, err := time.ParseInLocation(time.DateOnly, v, time.Local)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": key + " must be YYYY-MM-DD"})
		return time.Time{}, false
	}
	if endOfDay {
		t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return t, true
}

// respondError maps domain errors to status codes. Anything unknown is logged
// and reported as a 500 without details.
func (h *Handler) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	var (
		stockErr *sales.InsufficientStockError
		subErr   *cart.SubmissionError
	)

	switch {
	case errors.As(err, &subErr):
		// the server refused the sale: report its reason, keep the cart
		inner := subErr.Unwrap()
		switch {
		case errors.As(inner, &stockErr):
			status = http.StatusConflict
		case isNotFound(inner), errors.Is(inner, sales.ErrInvalidOrder):
			status = http.StatusUnprocessableEntity
		}
		if status == http.StatusInternalServerError {
			break
		}
		c.JSON(status, gin.H{"error": subErr.Reason()})
		return
	case cart.IsValidation(err), errors.Is(err, cart.ErrLineNotFound):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, cart.ErrCheckoutInFlight), errors.Is(err, pdv.ErrConfirmationRequired):
		status = http.StatusConflict
	case errors.As(err, &stockErr),
		errors.Is(err, inventory.ErrInsufficientStock),
		errors.Is(err, inventory.ErrInsufficientWeight),
		errors.Is(err, inventory.ErrAlreadyStocked),
		errors.Is(err, inventory.ErrDuplicateBox):
		status = http.StatusConflict
	case isNotFound(err):
		status = http.StatusNotFound
	case errors.Is(err, receivables.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, receivables.ErrAlreadyExists),
		errors.Is(err, sales.ErrHasPayments),
		errors.Is(err, receivables.ErrNothingOwed):
		status = http.StatusConflict
	case errors.Is(err, sales.ErrInvalidOrder),
		errors.Is(err, sales.ErrInvalidStatus),
		errors.Is(err, receivables.ErrInvalidAmount),
		errors.Is(err, receivables.ErrInvalidAmountEdit),
		errors.Is(err, receivables.ErrExceedsRemaining),
		errors.Is(err, receivables.ErrInvalidMethod),
		errors.Is(err, inventory.ErrInvalidMovement),
		errors.Is(err, inventory.ErrInvalidQuantity),
		errors.Is(err, inventory.ErrBoxRequired),
		errors.Is(err, inventory.ErrInvalidBoxStatus),
		errors.Is(err, inventory.ErrInvalidBoxMovement):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		h.log.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.String("correlation_id", middleware.CorrelationIDFrom(c)),
			zap.Error(err))
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func isNotFound(err error) bool {
	for _, target := range []error{
		gorm.ErrRecordNotFound,
		sales.ErrSaleNotFound,
		sales.ErrCustomerNotFound,
		sales.ErrProductNotFound,
		receivables.ErrNotFound,
		receivables.ErrSaleNotFound,
		receivables.ErrCustomerNotFound,
		pdv.ErrProductNotFound,
		pdv.ErrCustomerNotFound,
		inventory.ErrProductNotFound,
		inventory.ErrLocationNotFound,
		inventory.ErrStockEntryNotFound,
		inventory.ErrBoxNotFound,
		inventory.ErrSupplierNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// isDuplicate reports a unique index violation on MySQL or SQLite.
func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique constraint")
}
