// internal/interfaces/http/handlers/profile.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/samplestore-backend/internal/domain/user"
	"github.com/your-org/samplestore-backend/internal/interfaces/http/middleware"
)

// ProfileHandler serves the buyer's stored checkout details
type ProfileHandler struct {
	users *user.Service
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(users *user.Service) *ProfileHandler {
	return &ProfileHandler{users: users}
}

// GetShippingProfile handles GET /profile/shipping, used by clients to
// prefill the checkout form with the last submitted address.
func (h *ProfileHandler) GetShippingProfile(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	profile, err := h.users.ShippingProfileFor(c.Request.Context(), userID)
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": profile})
}
