package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ArowuTest/subscriber-draw-backend/api/routes"
	"github.com/ArowuTest/subscriber-draw-backend/internal/app"
	"github.com/ArowuTest/subscriber-draw-backend/internal/config"
	"github.com/ArowuTest/subscriber-draw-backend/internal/handlers"
	"github.com/ArowuTest/subscriber-draw-backend/internal/logging"
	"github.com/ArowuTest/subscriber-draw-backend/internal/scheduler"
	"github.com/gin-gonic/gin"
	"golang.org/x/exp/slog"
)

func main() {
	// Load configuration
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.LogLevel)
	if cfg.JWT.Secret == "" {
		slog.Error("JWT.Secret must be set for the API server")
		os.Exit(1)
	}

	if cfg.Server.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to MongoDB and build services
	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	application, mongoClient, err := app.Connect(connectCtx, cfg)
	cancel()
	if err != nil {
		slog.Error("Failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongoClient.Disconnect(disconnectCtx); err != nil {
			slog.Error("Error disconnecting from MongoDB", "error", err)
		}
	}()

	loc, err := time.LoadLocation(cfg.Scheduler.Timezone)
	if err != nil {
		slog.Error("Invalid draw timezone", "timezone", cfg.Scheduler.Timezone, "error", err)
		os.Exit(1)
	}
	drawClock := func() time.Time { return time.Now().In(loc) }

	// Initialize Handlers
	handlerDeps := routes.HandlerDependencies{
		AuthHandler:     handlers.NewAuthHandler(application.Auth),
		DrawHandler:     handlers.NewDrawHandler(application.Draws, application.Notifications, drawClock),
		SettingsHandler: handlers.NewSettingsHandler(application.Settings),
		Tokens:          application.Tokens,
		HealthCheck:     mongoClient.Ping,
	}
	router := routes.SetupRouter(cfg, handlerDeps)

	if cfg.Scheduler.Enabled {
		sched, err := scheduler.New(cfg.Scheduler, application.Draws, application.Settings)
		if err != nil {
			slog.Error("Failed to create scheduler", "error", err)
			os.Exit(1)
		}
		if err := sched.Start(ctx); err != nil {
			slog.Error("Failed to start scheduler", "error", err)
			os.Exit(1)
		}
		defer sched.Stop()
	} else {
		slog.Info("Scheduler disabled; draws run only on demand")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Run server in a goroutine so that it doesn't block
	go func() {
		slog.Info("Server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server exiting")
}
