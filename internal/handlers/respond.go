package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dealerhub/internal/apperr"
)

// respondError writes the error taxonomy's status and code. Server faults are
// attached to the context for the request logger instead of the body.
func respondError(c *gin.Context, err error) {
	status := apperr.Status(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
		c.JSON(status, gin.H{"error": apperr.Code(err)})
		return
	}
	if status == http.StatusBadRequest {
		c.JSON(status, gin.H{"error": apperr.Code(err), "message": err.Error()})
		return
	}
	c.JSON(status, gin.H{"error": apperr.Code(err)})
}
