package handlers

import (
	"errors"
	"log"
	"net/http"

	"fuel_dispatch/internal/apperrors"

	"github.com/gin-gonic/gin"
)

// respondError maps taxonomy sentinels to HTTP statuses. Internals never
// leak to the caller; anything unexpected is logged and returned as 500.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrInvalidOrExpiredOTP):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrInvalidTransition):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrTooManyAttempts):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrAuthentication):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrAuthorization):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		log.Printf("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
