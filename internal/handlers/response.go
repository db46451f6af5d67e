package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studyflow/backend/internal/services"
)

// respondError maps service errors onto HTTP statuses. Quota exhaustion
// gets a dedicated 429 body with guidance, everything else is {"error"}.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrQuotaExceeded):
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":   "ai quota exceeded",
			"message": "The AI service has hit its usage limit. Please try again later.",
			"suggestions": []string{
				"Wait a few minutes before retrying",
				"Reopen modules you already generated; cached content stays available",
				"Continue studying from your existing plans",
			},
		})
	case errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, services.ErrEmptyMaterial),
		errors.Is(err, services.ErrInsufficientData):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrPersonaMissing):
		c.JSON(http.StatusBadRequest, gin.H{"error": "complete onboarding to generate your learning persona first"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
