package api

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"time"

	"storefront/internal/auth"
	"storefront/internal/catalog"
	"storefront/internal/models"
	"storefront/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	carts       *service.CartService
	checkout    *service.CheckoutService
	orders      *service.OrderService
	reports     *service.ReportService
	authService *auth.Service
	browse      catalog.Lookup

	sessionCookie string
	sessionTTL    time.Duration
}

// NewHandler creates a new HTTP handler
func NewHandler(
	carts *service.CartService,
	checkout *service.CheckoutService,
	orders *service.OrderService,
	reports *service.ReportService,
	authService *auth.Service,
	browse catalog.Lookup,
	sessionCookie string,
	sessionTTL time.Duration,
) *Handler {
	return &Handler{
		carts:         carts,
		checkout:      checkout,
		orders:        orders,
		reports:       reports,
		authService:   authService,
		browse:        browse,
		sessionCookie: sessionCookie,
		sessionTTL:    sessionTTL,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")

	api.POST("/admin/login", h.adminLogin)
	api.GET("/admin/profile", adminAuth(h.authService), h.adminProfile)

	api.GET("/products", h.listProducts)
	api.GET("/products/:id", h.getProduct)

	session := api.Group("/", sessionMiddleware(h.sessionCookie, h.sessionTTL))
	{
		session.GET("/cart", h.getCart)
		session.POST("/cart", h.addToCart)
		session.PUT("/cart/:productId", h.updateCartLine)
		session.DELETE("/cart/:productId", h.removeCartLine)
		session.DELETE("/cart", h.clearCart)
		session.POST("/checkout", h.placeOrder)
	}

	admin := api.Group("/orders", adminAuth(h.authService))
	{
		admin.GET("", h.listOrders)
		admin.GET("/stats", h.dashboardStats)
		admin.GET("/export", h.exportOrders)
		admin.GET("/:id", h.getOrder)
		admin.PUT("/:id", h.updateOrder)
		admin.DELETE("/:id", h.deleteOrder)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// fail maps the error taxonomy onto HTTP statuses. Validation failures
// carry their message; storage faults stay generic.
func fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidQuantity),
		errors.Is(err, models.ErrInvalidCustomerInfo),
		errors.Is(err, models.ErrEmptyCart),
		errors.Is(err, models.ErrUnknownProduct),
		errors.Is(err, service.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	case errors.Is(err, models.ErrItemNotInCart),
		errors.Is(err, models.ErrOrderNotFound),
		errors.Is(err, models.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

	case errors.Is(err, models.ErrStorageUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Service temporarily unavailable"})

	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// adminLogin handles admin authentication
func (h *Handler) adminLogin(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	token, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   token,
		"admin":   gin.H{"email": req.Email},
	})
}

// adminProfile returns the authenticated admin identity
func (h *Handler) adminProfile(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"email": c.GetString("admin"), "role": "admin"})
}

// listProducts handles the catalog listing (degraded mode allowed)
func (h *Handler) listProducts(c *gin.Context) {
	products, err := h.browse.ListProducts(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// getProduct handles a single catalog lookup
func (h *Handler) getProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	product, err := h.browse.GetProduct(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handler) renderCart(c *gin.Context, message string) {
	items, total, err := h.carts.Snapshot(c.Request.Context(), sessionID(c))
	if err != nil {
		fail(c, err)
		return
	}

	resp := gin.H{"items": items, "total": total}
	if message != "" {
		resp["message"] = message
	}
	c.JSON(http.StatusOK, resp)
}

// getCart returns the resolved cart
func (h *Handler) getCart(c *gin.Context) {
	h.renderCart(c, "")
}

// addToCart adds a product to the session cart
func (h *Handler) addToCart(c *gin.Context) {
	var req struct {
		ProductID int64 `json:"productId" binding:"required"`
		Quantity  *int  `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "productId is required"})
		return
	}

	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	if err := h.carts.Add(c.Request.Context(), sessionID(c), req.ProductID, quantity); err != nil {
		fail(c, err)
		return
	}
	h.renderCart(c, "Item added to cart")
}

// updateCartLine sets the absolute quantity of a cart line
func (h *Handler) updateCartLine(c *gin.Context) {
	productID, err := strconv.ParseInt(c.Param("productId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	var req struct {
		Quantity *int `json:"quantity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "quantity is required"})
		return
	}

	if err := h.carts.Update(c.Request.Context(), sessionID(c), productID, *req.Quantity); err != nil {
		fail(c, err)
		return
	}
	h.renderCart(c, "Cart updated")
}

// removeCartLine removes a cart line (idempotent)
func (h *Handler) removeCartLine(c *gin.Context) {
	productID, err := strconv.ParseInt(c.Param("productId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	h.carts.Remove(c.Request.Context(), sessionID(c), productID)
	h.renderCart(c, "Item removed from cart")
}

// clearCart empties the session cart
func (h *Handler) clearCart(c *gin.Context) {
	h.carts.Clear(c.Request.Context(), sessionID(c))
	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
}

// placeOrder runs the checkout
func (h *Handler) placeOrder(c *gin.Context) {
	var req struct {
		CustomerInfo models.CustomerInfo `json:"customerInfo"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	result, err := h.checkout.Checkout(c.Request.Context(), sessionID(c), req.CustomerInfo)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// listOrders handles the admin order listing with filters
func (h *Handler) listOrders(c *gin.Context) {
	var filter models.OrderFilter
	filter.Status = c.Query("status")

	if raw := c.Query("startDate"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid startDate"})
			return
		}
		filter.From = t
	}
	if raw := c.Query("endDate"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid endDate"})
			return
		}
		// an endDate names a day; include all of it
		filter.To = t.Add(24*time.Hour - time.Nanosecond)
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	// limit absent or unparsable leaves 0; the service applies its
	// configured default.
	limit, _ := strconv.Atoi(c.Query("limit"))

	result, err := h.orders.List(c.Request.Context(), filter, page, limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}

// getOrder handles get order by ID
func (h *Handler) getOrder(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	order, err := h.orders.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// updateOrder applies a partial status update
func (h *Handler) updateOrder(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	var req struct {
		Status        string `json:"status"`
		PaymentStatus string `json:"paymentStatus"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	order, err := h.orders.Update(c.Request.Context(), id, req.Status, req.PaymentStatus)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order updated successfully", "order": order})
}

// deleteOrder removes an order permanently
func (h *Handler) deleteOrder(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	if err := h.orders.Delete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order deleted successfully"})
}

// dashboardStats returns the reporting aggregation
func (h *Handler) dashboardStats(c *gin.Context) {
	stats, err := h.reports.Stats(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// exportOrders serves all orders as a CSV attachment. The document is
// buffered so a storage fault still yields a clean error response
// rather than a truncated download with a JSON tail.
func (h *Handler) exportOrders(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.reports.WriteCSV(c.Request.Context(), &buf); err != nil {
		fail(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=orders.csv")
	c.Data(http.StatusOK, "text/csv", buf.Bytes())
}
