package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hortifruti-pdv/internal/middleware"
	"hortifruti-pdv/internal/session"
)

// Routes mounts the whole API on r. Registration only opens when allowed.
func (h *Handler) Routes(r *gin.Engine, allowRegistration bool) {
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "online"}) })
	r.POST("/login", h.Login)
	r.Static("/uploads", h.uploadDir)

	if allowRegistration {
		r.POST("/register", h.Register)
		h.log.Warn("registration route is OPEN, disable it in production")
	}

	// --- PROTECTED ROUTES ---
	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware(h.tokens))
	{
		// STAFF & ADMIN
		api.GET("/me", h.Me)

		api.GET("/products", h.GetProducts)
		api.GET("/products/low-stock", h.LowStock)
		api.GET("/products/:id", h.GetProduct)
		api.GET("/products/:id/movements", h.GetStockMovements)
		api.POST("/products/:id/movements", h.CreateStockMovement)

		api.GET("/customers", h.GetCustomers)
		api.GET("/customers/:id", h.GetCustomer)
		api.POST("/customers", h.CreateCustomer)
		api.PUT("/customers/:id", h.UpdateCustomer)

		api.GET("/suppliers", h.GetSuppliers)
		api.GET("/suppliers/:id", h.GetSupplier)
		api.GET("/locations", h.GetLocations)
		api.GET("/locations/stock/overview", h.GetStockOverview)
		api.GET("/locations/stock/low-stock", h.GetLocationLowStock)
		api.GET("/locations/:id", h.GetLocation)
		api.GET("/locations/:id/products", h.GetLocationProducts)

		api.GET("/supplier-boxes", h.GetSupplierBoxes)
		api.GET("/supplier-boxes/summary/status", h.GetBoxSummary)
		api.GET("/supplier-boxes/:id", h.GetSupplierBox)
		api.GET("/supplier-boxes/:id/movements", h.GetBoxMovements)
		api.POST("/supplier-boxes/:id/movements", h.CreateBoxMovement)

		api.GET("/sales", h.GetSales)
		api.GET("/sales/grouped-by-customer", h.GetSalesByCustomer)
		api.GET("/sales/daily-summary", h.GetDailySummary)
		api.GET("/sales/:id", h.GetSale)

		ar := api.Group("/accounts-receivable")
		ar.GET("", h.GetReceivables)
		ar.POST("", h.CreateReceivable)
		ar.GET("/summary/overdue", h.GetOverdueSummary)
		ar.GET("/customer/:customer_id/summary", h.GetCustomerReceivables)
		ar.POST("/customer/:customer_id/payments", h.PayCustomer)
		ar.GET("/:id", h.GetReceivable)
		ar.GET("/:id/payments", h.GetReceivablePayments)
		ar.POST("/:id/payments", h.AddReceivablePayment)

		pdv := api.Group("/pdv")
		pdv.GET("/products", h.SearchPDVProducts)
		pdv.GET("/cart", h.GetCart)
		pdv.DELETE("/cart", h.DiscardCart)
		pdv.POST("/cart/items", h.AddCartItem)
		pdv.PUT("/cart/items/:product_id", h.SetCartQuantity)
		pdv.DELETE("/cart/items/:product_id", h.RemoveCartItem)
		pdv.PUT("/cart/customer", h.SetCartCustomer)
		pdv.PUT("/cart/payment-method", h.SetCartPaymentMethod)
		pdv.PUT("/cart/due-date", h.SetCartDueDate)
		pdv.POST("/cart/refresh", h.RefreshCart)
		pdv.POST("/cart/checkout", h.Checkout)

		// ADMIN ONLY
		admin := api.Group("")
		admin.Use(middleware.RequireRole(session.RoleAdmin))
		{
			admin.POST("/ask", h.AskAI)
			admin.POST("/upload", h.UploadImage)

			admin.POST("/products", h.AddProduct)
			admin.PUT("/products/:id", h.UpdateProduct)
			admin.DELETE("/products/:id", h.DeleteProduct)

			admin.DELETE("/customers/:id", h.DeleteCustomer)

			admin.POST("/suppliers", h.CreateSupplier)
			admin.PUT("/suppliers/:id", h.UpdateSupplier)
			admin.DELETE("/suppliers/:id", h.DeleteSupplier)

			admin.POST("/locations", h.CreateLocation)
			admin.PUT("/locations/:id", h.UpdateLocation)
			admin.DELETE("/locations/:id", h.DeleteLocation)
			admin.POST("/locations/:id/products", h.AddLocationProduct)
			admin.PUT("/locations/:id/products/:entry_id", h.UpdateLocationProduct)
			admin.DELETE("/locations/:id/products/:entry_id", h.RemoveLocationProduct)

			admin.POST("/supplier-boxes", h.CreateSupplierBox)
			admin.PUT("/supplier-boxes/:id", h.UpdateSupplierBox)
			admin.DELETE("/supplier-boxes/:id", h.DeleteSupplierBox)

			admin.GET("/users", h.GetUsers)
			admin.GET("/users/:id", h.GetUser)
			admin.POST("/users", h.CreateUser)
			admin.PUT("/users/:id", h.UpdateUser)
			admin.DELETE("/users/:id", h.DeleteUser)

			admin.PUT("/sales/:id", h.UpdateSale)

			admin.PUT("/accounts-receivable/:id", h.UpdateReceivable)
			admin.POST("/accounts-receivable/mark-overdue", h.MarkOverdue)

			admin.DELETE("/pdv/carts/:user_id", h.DiscardOperatorCart)

			admin.GET("/reports", h.GetSalesReport)
			admin.GET("/reports/valuation", h.GetStockValuation)
		}
	}
}
