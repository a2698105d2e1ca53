package mongodb

import (
	"context"
	"time"

	"github.com/ArowuTest/subscriber-draw-backend/internal/models"
	"github.com/ArowuTest/subscriber-draw-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Compile-time check to ensure SubscriberRepository implements the interface
var _ repositories.SubscriberRepository = (*SubscriberRepository)(nil)

// SubscriberRepository handles MongoDB operations for Subscriber
type SubscriberRepository struct {
	collection *mongo.Collection
}

// NewSubscriberRepository creates a new SubscriberRepository
func NewSubscriberRepository(db *mongo.Database) *SubscriberRepository {
	return &SubscriberRepository{
		collection: db.Collection("subscribers"),
	}
}

// Create inserts a new subscriber
func (r *SubscriberRepository) Create(ctx context.Context, subscriber *models.Subscriber) error {
	subscriber.ID = primitive.NewObjectID()
	subscriber.CreatedAt = time.Now()
	subscriber.UpdatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, subscriber)
	return err
}

// FindByID finds a subscriber by ID
func (r *SubscriberRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Subscriber, error) {
	var subscriber models.Subscriber
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&subscriber); err != nil {
		return nil, err // Includes mongo.ErrNoDocuments
	}
	return &subscriber, nil
}

// FindByEmail finds a subscriber by email
func (r *SubscriberRepository) FindByEmail(ctx context.Context, email string) (*models.Subscriber, error) {
	var subscriber models.Subscriber
	if err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&subscriber); err != nil {
		return nil, err
	}
	return &subscriber, nil
}

// FindAll retrieves every subscriber in a stable order (by _id)
func (r *SubscriberRepository) FindAll(ctx context.Context) ([]*models.Subscriber, error) {
	opts := options.Find().SetSort(bson.M{"_id": 1})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var subscribers []*models.Subscriber
	if err := cursor.All(ctx, &subscribers); err != nil {
		return nil, err
	}
	if subscribers == nil {
		subscribers = []*models.Subscriber{}
	}
	return subscribers, nil
}

// CountActive counts subscribers with an active subscription
func (r *SubscriberRepository) CountActive(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"isSubscribed": true})
}

// Update updates an existing subscriber
func (r *SubscriberRepository) Update(ctx context.Context, subscriber *models.Subscriber) error {
	subscriber.UpdatedAt = time.Now()
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": subscriber.ID}, bson.M{"$set": subscriber})
	return err
}

// UpdateLastWonAt stamps the subscriber's most recent win
func (r *SubscriberRepository) UpdateLastWonAt(ctx context.Context, id primitive.ObjectID, wonAt time.Time) error {
	update := bson.M{
		"$set": bson.M{
			"lastWonAt": wonAt,
			"updatedAt": time.Now(),
		},
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
