// Package app assembles repositories, the notifier gateway and services into
// one application shared by the API server and the drawctl CLI.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ArowuTest/subscriber-draw-backend/internal/config"
	"github.com/ArowuTest/subscriber-draw-backend/internal/engine"
	"github.com/ArowuTest/subscriber-draw-backend/internal/repositories"
	"github.com/ArowuTest/subscriber-draw-backend/internal/repositories/memory"
	mongorepo "github.com/ArowuTest/subscriber-draw-backend/internal/repositories/mongodb"
	"github.com/ArowuTest/subscriber-draw-backend/internal/services"
	"github.com/ArowuTest/subscriber-draw-backend/pkg/jwt"
	"github.com/ArowuTest/subscriber-draw-backend/pkg/mongodb"
	"github.com/ArowuTest/subscriber-draw-backend/pkg/notifier"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/exp/slog"
)

// Stores encapsulates persistence dependencies. Nil stores default to the
// in-memory implementation.
type Stores struct {
	Subscribers   repositories.SubscriberRepository
	Draws         repositories.DrawRepository
	Winners       repositories.WinnerRepository
	SystemConfig  repositories.SystemConfigRepository
	Notifications repositories.NotificationRepository
	AdminUsers    repositories.AdminUserRepository
}

// MongoStores returns stores backed by the given database
func MongoStores(db *mongo.Database) Stores {
	return Stores{
		Subscribers:   mongorepo.NewSubscriberRepository(db),
		Draws:         mongorepo.NewDrawRepository(db),
		Winners:       mongorepo.NewWinnerRepository(db),
		SystemConfig:  mongorepo.NewSystemConfigRepository(db),
		Notifications: mongorepo.NewNotificationRepository(db),
		AdminUsers:    mongorepo.NewAdminUserRepository(db),
	}
}

// Application ties the draw services together
type Application struct {
	Stores  Stores
	Gateway notifier.Gateway
	Tokens  *jwt.TokenService

	Settings      *services.SettingsServiceImpl
	Notifications *services.NotificationServiceImpl
	Executor      *services.CommandExecutor
	Draws         *services.DrawServiceImpl
	Auth          services.AuthService
}

// New builds the application. A nil gateway selects one from cfg.Notifier.
func New(cfg *config.Config, stores Stores, gateway notifier.Gateway) *Application {
	mem := memory.NewStore()
	if stores.Subscribers == nil {
		stores.Subscribers = mem.Subscribers
	}
	if stores.Draws == nil {
		stores.Draws = mem.Draws
	}
	if stores.Winners == nil {
		stores.Winners = mem.Winners
	}
	if stores.SystemConfig == nil {
		stores.SystemConfig = mem.SystemConfig
	}
	if stores.Notifications == nil {
		stores.Notifications = mem.Notifications
	}
	if stores.AdminUsers == nil {
		stores.AdminUsers = mem.AdminUsers
	}
	if gateway == nil {
		gateway = NewGateway(cfg.Notifier)
	}

	tokens := jwt.NewTokenService(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiresIn)*time.Second)
	settings := services.NewSettingsService(stores.SystemConfig)
	notifications := services.NewNotificationService(stores.Notifications, stores.Winners, gateway, cfg.Notifier.AdminContacts)
	executor := services.NewCommandExecutor(stores.Draws, stores.Winners, stores.Subscribers, notifications)
	draws := services.NewDrawService(stores.Draws, stores.Subscribers, stores.Winners, settings, notifications, executor, engine.Money(cfg.Billing.SubscriptionFee))

	return &Application{
		Stores:        stores,
		Gateway:       gateway,
		Tokens:        tokens,
		Settings:      settings,
		Notifications: notifications,
		Executor:      executor,
		Draws:         draws,
		Auth:          services.NewAuthService(stores.AdminUsers, tokens),
	}
}

// NewGateway returns the mock gateway or the HTTP gateway described by cfg
func NewGateway(cfg config.NotifierConfig) notifier.Gateway {
	if cfg.Mock || cfg.BaseURL == "" {
		slog.Info("Using mock notification gateway")
		return notifier.NewMockGateway()
	}
	return notifier.NewHTTPGateway(cfg.BaseURL, cfg.APIKey, cfg.Sender)
}

// Connect opens MongoDB, ensures indexes and builds the application on it.
// Callers disconnect the returned client.
func Connect(ctx context.Context, cfg *config.Config) (*Application, *mongodb.Client, error) {
	client, err := mongodb.NewClient(ctx, cfg.MongoDB.URI)
	if err != nil {
		return nil, nil, err
	}

	stores := MongoStores(client.Database(cfg.MongoDB.Database))
	if err := stores.Draws.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("failed to ensure draw indexes: %w", err)
	}

	slog.Info("Connected to MongoDB", "database", cfg.MongoDB.Database)
	return New(cfg, stores, nil), client, nil
}
