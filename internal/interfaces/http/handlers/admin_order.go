// internal/interfaces/http/handlers/admin_order.go
package handlers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/samplestore-backend/internal/domain/order"
)

// AdminOrderHandler handles admin order management endpoints
type AdminOrderHandler struct {
	orders *order.Service
	logger *logrus.Logger
}

// NewAdminOrderHandler creates a new admin order handler
func NewAdminOrderHandler(orders *order.Service, logger *logrus.Logger) *AdminOrderHandler {
	return &AdminOrderHandler{orders: orders, logger: logger}
}

// ListOrders handles GET /admin/orders
func (h *AdminOrderHandler) ListOrders(c *gin.Context) {
	var req order.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid query parameters",
			"details": err.Error(),
		})
		return
	}

	result, err := h.orders.List(c.Request.Context(), &req)
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// UpdateOrder handles PUT /admin/orders/:id. Status changes go through the
// transition table; illegal transitions come back as 400s.
func (h *AdminOrderHandler) UpdateOrder(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	var req order.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}
	if req.Status == nil && req.PaymentStatus == nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "At least one of status or payment_status is required",
		})
		return
	}

	result, err := h.orders.UpdateStatus(c.Request.Context(), uint(id), &req)
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// ExportOrders handles GET /admin/orders/export, streaming matching orders
// as CSV.
func (h *AdminOrderHandler) ExportOrders(c *gin.Context) {
	var req order.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid query parameters",
			"details": err.Error(),
		})
		return
	}
	req.Page = 1
	req.Limit = 100

	result, err := h.orders.List(c.Request.Context(), &req)
	if err != nil {
		renderError(c, err)
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="orders.csv"`)

	w := csv.NewWriter(c.Writer)
	defer func() {
		w.Flush()
		if err := w.Error(); err != nil {
			h.logger.WithField("error", err.Error()).
				Warn("Order CSV export stream interrupted, file truncated")
		}
	}()

	_ = w.Write([]string{
		"order_number", "customer_name", "customer_email", "status",
		"payment_status", "total_amount", "shipping_city", "shipping_country",
		"created_at",
	})

	for {
		for i := range result.Orders {
			o := &result.Orders[i]
			_ = w.Write([]string{
				o.OrderNumber,
				o.CustomerName,
				o.CustomerEmail,
				string(o.Status),
				string(o.PaymentStatus),
				fmt.Sprintf("%.2f", o.GetFormattedTotal()),
				o.ShippingCity,
				o.ShippingCountry,
				o.CreatedAt.Format("2006-01-02 15:04:05"),
			})
		}

		if !result.Pagination.HasNext {
			return
		}
		req.Page++

		// Mid-stream failures can only truncate the file; the status line
		// is already written.
		result, err = h.orders.List(c.Request.Context(), &req)
		if err != nil {
			return
		}
	}
}
