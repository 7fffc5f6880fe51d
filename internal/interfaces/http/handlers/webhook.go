// internal/interfaces/http/handlers/webhook.go
package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/samplestore-backend/internal/domain/payment"
)

// WebhookHandler receives payment provider webhook callbacks
type WebhookHandler struct {
	processor *payment.Processor
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(processor *payment.Processor) *WebhookHandler {
	return &WebhookHandler{processor: processor}
}

// HandlePaymentWebhook handles POST /webhooks/payment. The signature is
// verified over the raw body, so the body must not be re-encoded before
// verification.
func (h *WebhookHandler) HandlePaymentWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unable to read request body"})
		return
	}

	signature := c.GetHeader("X-Signature")
	if err := h.processor.HandleWebhook(c.Request.Context(), body, signature); err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "received"})
}
