package handlers

import (
	"errors"
	"net/http"

	"github.com/ArowuTest/subscriber-draw-backend/internal/middleware"
	"github.com/ArowuTest/subscriber-draw-backend/internal/services"
	"github.com/gin-gonic/gin"
	"golang.org/x/exp/slog"
)

// respondError maps service errors onto HTTP status codes
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrInvalidID), errors.Is(err, services.ErrInvalidSettings), errors.Is(err, services.ErrInvalidRole):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrCycleAlreadyRan), errors.Is(err, services.ErrEmailTaken):
		status = http.StatusConflict
	case errors.Is(err, services.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	}

	if status == http.StatusInternalServerError {
		slog.Error("Request failed", "error", err, "path", c.FullPath(), "requestID", c.GetString(middleware.RequestIDKey))
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
