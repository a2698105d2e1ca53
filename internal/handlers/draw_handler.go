package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/ArowuTest/subscriber-draw-backend/internal/services"
	"github.com/ArowuTest/subscriber-draw-backend/internal/utils"
	"github.com/gin-gonic/gin"
)

// DrawHandler handles draw-related HTTP requests
type DrawHandler struct {
	drawService         services.DrawService
	notificationService services.NotificationService
	now                 func() time.Time
}

// NewDrawHandler creates a new DrawHandler. now supplies the draw clock in the draw timezone.
func NewDrawHandler(drawService services.DrawService, notificationService services.NotificationService, now func() time.Time) *DrawHandler {
	if now == nil {
		now = time.Now
	}
	return &DrawHandler{
		drawService:         drawService,
		notificationService: notificationService,
		now:                 now,
	}
}

// ListDraws handles GET /draws?page=&limit=
func (h *DrawHandler) ListDraws(c *gin.Context) {
	page, limit := utils.ParsePagination(c.Query("page"), c.Query("limit"), 20, 100)
	draws, total, err := h.drawService.ListDraws(c.Request.Context(), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": draws, "page": page, "limit": limit, "total": total})
}

// GetDrawByID handles GET /draws/:id
func (h *DrawHandler) GetDrawByID(c *gin.Context) {
	draw, err := h.drawService.GetDraw(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, draw)
}

// GetDrawByCycle handles GET /draws/cycle/:cycleId
func (h *DrawHandler) GetDrawByCycle(c *gin.Context) {
	draw, err := h.drawService.GetDrawByCycle(c.Request.Context(), c.Param("cycleId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, draw)
}

// GetWinners handles GET /draws/:id/winners
func (h *DrawHandler) GetWinners(c *gin.Context) {
	winners, err := h.drawService.GetWinners(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": winners})
}

// GetCycleNotifications handles GET /draws/cycle/:cycleId/notifications
func (h *DrawHandler) GetCycleNotifications(c *gin.Context) {
	notifications, err := h.notificationService.GetByCycle(c.Request.Context(), c.Param("cycleId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": notifications})
}

// RunDraw handles POST /draws/run. It runs the draw for the current week.
func (h *DrawHandler) RunDraw(c *gin.Context) {
	draw, err := h.drawService.RunCycle(c.Request.Context(), h.now(), services.TriggerAdmin)
	if err != nil {
		if errors.Is(err, services.ErrPartialExecution) && draw != nil {
			c.JSON(http.StatusOK, gin.H{"message": "Draw recorded with follow-up errors", "warning": err.Error(), "draw": draw})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Draw " + string(draw.Status), "draw": draw})
}

// Preflight handles GET /draws/preflight
func (h *DrawHandler) Preflight(c *gin.Context) {
	result, err := h.drawService.Preflight(c.Request.Context(), h.now(), false)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Replay handles POST /draws/cycle/:cycleId/replay
func (h *DrawHandler) Replay(c *gin.Context) {
	result, err := h.drawService.Replay(c.Request.Context(), c.Param("cycleId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
