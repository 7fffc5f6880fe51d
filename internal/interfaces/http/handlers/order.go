// internal/interfaces/http/handlers/order.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/samplestore-backend/internal/domain/order"
	"github.com/your-org/samplestore-backend/internal/interfaces/http/middleware"
)

// OrderHandler handles buyer-facing order endpoints
type OrderHandler struct {
	factory *order.Factory
	orders  *order.Service
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(factory *order.Factory, orders *order.Service) *OrderHandler {
	return &OrderHandler{
		factory: factory,
		orders:  orders,
	}
}

// CreateOrder handles POST /orders
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	sessionID := middleware.GetSessionIDFromContext(c)

	var req order.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	result, err := h.factory.CreateOrder(c.Request.Context(), userID, sessionID, &req)
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": result})
}

// ListOrders handles GET /orders. Buyers see their own orders; admins may
// query any user or all users.
func (h *OrderHandler) ListOrders(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req order.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid query parameters",
			"details": err.Error(),
		})
		return
	}

	if !middleware.IsAdminFromContext(c) {
		req.UserID = userID
	}

	result, err := h.orders.List(c.Request.Context(), &req)
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetOrder handles GET /orders/:number
func (h *OrderHandler) GetOrder(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	result, err := h.orders.GetByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		renderError(c, err)
		return
	}

	if result.UserID != userID && !middleware.IsAdminFromContext(c) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": gin.H{"code": "order_not_found", "message": "order not found"},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}
