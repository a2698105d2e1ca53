package handlers

import (
	"net/http"

	"github.com/ArowuTest/subscriber-draw-backend/internal/middleware"
	"github.com/ArowuTest/subscriber-draw-backend/internal/models"
	"github.com/ArowuTest/subscriber-draw-backend/internal/services"
	"github.com/gin-gonic/gin"
)

// SettingsHandler handles draw settings HTTP requests
type SettingsHandler struct {
	settingsService services.SettingsService
}

// NewSettingsHandler creates a new SettingsHandler
func NewSettingsHandler(settingsService services.SettingsService) *SettingsHandler {
	return &SettingsHandler{
		settingsService: settingsService,
	}
}

// GetDrawSettings handles GET /settings/draw
func (h *SettingsHandler) GetDrawSettings(c *gin.Context) {
	settings, err := h.settingsService.GetDrawSettings(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// UpdateDrawSettings handles PUT /settings/draw
func (h *SettingsHandler) UpdateDrawSettings(c *gin.Context) {
	var settings models.DrawSettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.settingsService.UpdateDrawSettings(c.Request.Context(), settings, c.GetString(middleware.UserEmailKey))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}
