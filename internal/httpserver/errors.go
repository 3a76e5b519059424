package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"storefront-checkout/internal/domain"
)

// writeError maps domain errors to responses. A guard violation is a
// navigation instruction, not an error message.
func writeError(c *gin.Context, logger *log.Entry, err error) {
	var guard *domain.GuardViolation
	var submission *domain.SubmissionError
	switch {
	case errors.As(err, &guard):
		c.Header("Location", guard.Redirect)
		c.JSON(http.StatusSeeOther, gin.H{"redirect": guard.Redirect, "step": guard.Step.String(), "rule": guard.Rule})
	case errors.As(err, &submission):
		c.JSON(http.StatusBadGateway, gin.H{"message": submission.Message})
	case errors.Is(err, domain.ErrSubmissionInFlight):
		c.JSON(http.StatusConflict, gin.H{"message": err.Error()})
	case errors.Is(err, domain.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Not authorized"})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "not found"})
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrInvalidCart):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	case errors.Is(err, domain.ErrAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"message": err.Error()})
	default:
		logger.WithError(err).WithField("path", c.FullPath()).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
	}
}
