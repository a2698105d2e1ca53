package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/ArowuTest/subscriber-draw-backend/internal/config"
	"github.com/ArowuTest/subscriber-draw-backend/internal/handlers"
	"github.com/ArowuTest/subscriber-draw-backend/internal/metrics"
	"github.com/ArowuTest/subscriber-draw-backend/internal/middleware"
	"github.com/ArowuTest/subscriber-draw-backend/internal/services"
	"github.com/ArowuTest/subscriber-draw-backend/pkg/jwt"
	"github.com/gin-gonic/gin"
)

// HandlerDependencies holds the handlers and collaborators the router wires up
type HandlerDependencies struct {
	AuthHandler     *handlers.AuthHandler
	DrawHandler     *handlers.DrawHandler
	SettingsHandler *handlers.SettingsHandler
	Tokens          *jwt.TokenService
	// HealthCheck reports whether backing stores are reachable; nil means always healthy
	HealthCheck func(ctx context.Context) error
}

// SetupRouter sets up the router
func SetupRouter(cfg *config.Config, deps HandlerDependencies) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware())
	router.Use(middleware.CORSMiddleware(cfg))
	router.Use(metrics.GinMiddleware())

	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Public routes
	public := router.Group("/api/v1")
	{
		public.GET("/health", func(c *gin.Context) {
			if deps.HealthCheck != nil {
				ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
				defer cancel()
				if err := deps.HealthCheck(ctx); err != nil {
					c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
					return
				}
			}
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		public.POST("/auth/login", deps.AuthHandler.Login)
	}

	// Protected routes
	protected := router.Group("/api/v1")
	protected.Use(middleware.JWTAuthMiddleware(deps.Tokens))
	{
		protected.POST("/auth/register", middleware.RequireRole(services.RoleAdmin), deps.AuthHandler.Register)

		draws := protected.Group("/draws")
		{
			draws.GET("", deps.DrawHandler.ListDraws)
			draws.GET("/preflight", deps.DrawHandler.Preflight)
			draws.GET("/cycle/:cycleId", deps.DrawHandler.GetDrawByCycle)
			draws.GET("/cycle/:cycleId/notifications", deps.DrawHandler.GetCycleNotifications)
			draws.GET("/:id", deps.DrawHandler.GetDrawByID)
			draws.GET("/:id/winners", deps.DrawHandler.GetWinners)
			draws.POST("/run", middleware.RequireRole(services.RoleAdmin), deps.DrawHandler.RunDraw)
			draws.POST("/cycle/:cycleId/replay", deps.DrawHandler.Replay)
		}

		settings := protected.Group("/settings")
		{
			settings.GET("/draw", deps.SettingsHandler.GetDrawSettings)
			settings.PUT("/draw", middleware.RequireRole(services.RoleAdmin), deps.SettingsHandler.UpdateDrawSettings)
		}
	}

	return router
}
