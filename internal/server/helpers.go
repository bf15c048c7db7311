package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// parseUUIDParam reads a path parameter as a UUID, writing a 400 response
// on failure.
func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "INVALID_ID",
			"message": "parameter " + name + " must be a UUID",
		})
		return uuid.Nil, false
	}
	return id, true
}

// respondStoreError maps persistence errors to 404/500 responses.
func (s *Server) respondStoreError(c *gin.Context, err error, what string) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "NOT_FOUND",
			"message": what + " not found",
		})
		return
	}
	s.logger.Error("store operation failed", zap.String("what", what), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   "INTERNAL",
		"message": "failed to access " + what,
	})
}
