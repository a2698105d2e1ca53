package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/ArowuTest/subscriber-draw-backend/internal/models"
	"github.com/ArowuTest/subscriber-draw-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SystemConfigRepository implements the repositories.SystemConfigRepository interface
type SystemConfigRepository struct {
	collection *mongo.Collection
}

// NewSystemConfigRepository creates a new SystemConfigRepository
func NewSystemConfigRepository(db *mongo.Database) repositories.SystemConfigRepository {
	return &SystemConfigRepository{
		collection: db.Collection("system_config"),
	}
}

// FindByKey finds a system configuration by key.
// Note: The Value field is interface{}, so the caller needs to perform type assertion.
func (r *SystemConfigRepository) FindByKey(ctx context.Context, key string) (*models.SystemConfig, error) {
	var config models.SystemConfig
	if err := r.collection.FindOne(ctx, bson.M{"key": key}).Decode(&config); err != nil {
		return nil, fmt.Errorf("failed to find system config by key %s: %w", key, err)
	}
	return &config, nil
}

// GetDrawSettings decodes the draw settings document stored under models.DrawSettingsKey.
// Returns an error wrapping mongo.ErrNoDocuments when nothing has been saved yet.
func (r *SystemConfigRepository) GetDrawSettings(ctx context.Context) (*models.DrawSettings, error) {
	var doc struct {
		Value models.DrawSettings `bson:"value"`
	}
	if err := r.collection.FindOne(ctx, bson.M{"key": models.DrawSettingsKey}).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to find draw settings: %w", err)
	}
	return &doc.Value, nil
}

// UpsertByKey updates a system configuration by key, or creates it if it doesn't exist.
func (r *SystemConfigRepository) UpsertByKey(ctx context.Context, key string, value interface{}, description string) error {
	filter := bson.M{"key": key}
	update := bson.M{
		"$set": bson.M{
			"value":       value,
			"description": description,
			"updatedAt":   time.Now(),
		},
		"$setOnInsert": bson.M{
			"key":       key,
			"createdAt": time.Now(),
		},
	}
	opts := options.Update().SetUpsert(true)

	if _, err := r.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to upsert system config for key %s: %w", key, err)
	}
	return nil
}
