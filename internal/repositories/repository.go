package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/ArowuTest/subscriber-draw-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrDuplicateCycle is returned when a draw record already exists for the cycle
var ErrDuplicateCycle = errors.New("draw already recorded for cycle")

// SubscriberRepository defines the interface for subscriber data operations
type SubscriberRepository interface {
	Create(ctx context.Context, subscriber *models.Subscriber) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Subscriber, error)
	FindByEmail(ctx context.Context, email string) (*models.Subscriber, error)
	FindAll(ctx context.Context) ([]*models.Subscriber, error)
	CountActive(ctx context.Context) (int64, error)
	Update(ctx context.Context, subscriber *models.Subscriber) error
	UpdateLastWonAt(ctx context.Context, id primitive.ObjectID, wonAt time.Time) error
}

// DrawRepository defines the interface for draw record operations
type DrawRepository interface {
	EnsureIndexes(ctx context.Context) error
	Create(ctx context.Context, draw *models.Draw) error // ErrDuplicateCycle on a second record for a cycle
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Draw, error)
	FindByCycleID(ctx context.Context, cycleID string) (*models.Draw, error)
	FindAll(ctx context.Context, page, limit int) ([]*models.Draw, error)
	Count(ctx context.Context) (int64, error)
}

// WinnerRepository defines the interface for winner data operations
type WinnerRepository interface {
	CreateMany(ctx context.Context, winners []*models.Winner) error
	FindByDrawID(ctx context.Context, drawID primitive.ObjectID) ([]*models.Winner, error)
	FindBySubscriberID(ctx context.Context, subscriberID string) ([]*models.Winner, error)
	MarkNotified(ctx context.Context, cycleID, subscriberID string, at time.Time) error
	DeleteByDrawID(ctx context.Context, drawID primitive.ObjectID) error
}

// SystemConfigRepository defines the interface for system configuration operations
type SystemConfigRepository interface {
	FindByKey(ctx context.Context, key string) (*models.SystemConfig, error)
	UpsertByKey(ctx context.Context, key string, value interface{}, description string) error
	GetDrawSettings(ctx context.Context) (*models.DrawSettings, error)
}

// NotificationRepository defines the interface for notification data operations
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status string, statusMessage string) error
	FindByCycleID(ctx context.Context, cycleID string) ([]*models.Notification, error)
}

// AdminUserRepository defines the interface for admin user data operations
type AdminUserRepository interface {
	Create(ctx context.Context, adminUser *models.AdminUser) error
	FindByEmail(ctx context.Context, email string) (*models.AdminUser, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.AdminUser, error)
}
