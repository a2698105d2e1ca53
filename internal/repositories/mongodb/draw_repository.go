package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/ArowuTest/subscriber-draw-backend/internal/models"
	"github.com/ArowuTest/subscriber-draw-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DrawRepository implements the repositories.DrawRepository interface
type DrawRepository struct {
	collection *mongo.Collection
}

// NewDrawRepository creates a new DrawRepository
func NewDrawRepository(db *mongo.Database) repositories.DrawRepository {
	return &DrawRepository{
		collection: db.Collection("draws"),
	}
}

// EnsureIndexes creates the unique cycleId index that makes a cycle run at most once
func (r *DrawRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "cycleId", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_cycle")},
		{Keys: bson.D{{Key: "drawDate", Value: -1}}, Options: options.Index().SetName("draw_date_desc")},
	})
	if err != nil {
		return fmt.Errorf("failed to create draw indexes: %w", err)
	}
	return nil
}

// Create creates a new draw record
func (r *DrawRepository) Create(ctx context.Context, draw *models.Draw) error {
	draw.CreatedAt = time.Now()
	draw.UpdatedAt = time.Now()
	res, err := r.collection.InsertOne(ctx, draw)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", repositories.ErrDuplicateCycle, draw.CycleID)
		}
		return err
	}
	draw.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// FindByID finds a draw by ID
func (r *DrawRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Draw, error) {
	var draw models.Draw
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&draw); err != nil {
		return nil, err
	}
	return &draw, nil
}

// FindByCycleID finds the draw recorded for a cycle
func (r *DrawRepository) FindByCycleID(ctx context.Context, cycleID string) (*models.Draw, error) {
	var draw models.Draw
	if err := r.collection.FindOne(ctx, bson.M{"cycleId": cycleID}).Decode(&draw); err != nil {
		return nil, err // Returns mongo.ErrNoDocuments if not found
	}
	return &draw, nil
}

// FindAll finds draws, newest first, with pagination
func (r *DrawRepository) FindAll(ctx context.Context, page, limit int) ([]*models.Draw, error) {
	opts := options.Find().SetSort(bson.M{"drawDate": -1})
	if page > 0 && limit > 0 {
		opts.SetSkip(int64((page - 1) * limit))
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to execute find query: %w", err)
	}
	defer cursor.Close(ctx)

	var draws []*models.Draw
	if err := cursor.All(ctx, &draws); err != nil {
		return nil, fmt.Errorf("failed to decode draws: %w", err)
	}
	if draws == nil {
		draws = []*models.Draw{}
	}
	return draws, nil
}

// Count counts all draws
func (r *DrawRepository) Count(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{})
}
