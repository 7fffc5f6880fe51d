// internal/interfaces/http/handlers/cart.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/samplestore-backend/internal/domain/cart"
	"github.com/your-org/samplestore-backend/internal/domain/product"
	"github.com/your-org/samplestore-backend/internal/interfaces/http/middleware"
)

// CartHandler handles cart endpoints
type CartHandler struct {
	carts    *cart.Store
	products *product.Service
}

// NewCartHandler creates a new cart handler
func NewCartHandler(carts *cart.Store, products *product.Service) *CartHandler {
	return &CartHandler{
		carts:    carts,
		products: products,
	}
}

// AddItemRequest represents add to cart request
type AddItemRequest struct {
	ProductID  uint   `json:"product_id" binding:"required"`
	VariantKey string `json:"variant_key" binding:"required"`
	Quantity   int    `json:"quantity" binding:"required,min=1"`
}

// UpdateItemRequest represents update cart item request. Quantity zero
// removes the line.
type UpdateItemRequest struct {
	Quantity int `json:"quantity" binding:"min=0"`
}

// GetCart handles GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	sessionID := middleware.GetSessionIDFromContext(c)

	result, err := h.carts.Get(c.Request.Context(), sessionID)
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// AddItem handles POST /cart/items
func (h *CartHandler) AddItem(c *gin.Context) {
	sessionID := middleware.GetSessionIDFromContext(c)

	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	prod, variant, err := h.products.ResolveVariant(c.Request.Context(), req.ProductID, req.VariantKey)
	if err != nil {
		renderError(c, err)
		return
	}

	result, err := h.carts.AddItem(c.Request.Context(), sessionID, prod, variant, req.Quantity)
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// UpdateItem handles PUT /cart/items/:id
func (h *CartHandler) UpdateItem(c *gin.Context) {
	sessionID := middleware.GetSessionIDFromContext(c)
	lineID := c.Param("id")

	var req UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	result, err := h.carts.UpdateQuantity(c.Request.Context(), sessionID, lineID, req.Quantity)
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// RemoveItem handles DELETE /cart/items/:id
func (h *CartHandler) RemoveItem(c *gin.Context) {
	sessionID := middleware.GetSessionIDFromContext(c)

	result, err := h.carts.RemoveItem(c.Request.Context(), sessionID, c.Param("id"))
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// ClearCart handles DELETE /cart
func (h *CartHandler) ClearCart(c *gin.Context) {
	sessionID := middleware.GetSessionIDFromContext(c)

	if err := h.carts.Clear(c.Request.Context(), sessionID); err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
}
