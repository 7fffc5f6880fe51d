// internal/interfaces/http/handlers/response.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/samplestore-backend/internal/pkg/apperrors"
)

// renderError writes an application error as a machine-readable JSON body
// with the status code its kind maps to. Errors outside the taxonomy render
// as opaque 500s.
func renderError(c *gin.Context, err error) {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		c.JSON(appErr.HTTPStatus(), gin.H{
			"error": gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
			},
		})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{
		"error": gin.H{
			"code":    "internal_error",
			"message": "an unexpected error occurred",
		},
	})
}
