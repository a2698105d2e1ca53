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

// WinnerRepository implements the repositories.WinnerRepository interface
type WinnerRepository struct {
	collection *mongo.Collection
}

// NewWinnerRepository creates a new WinnerRepository
func NewWinnerRepository(db *mongo.Database) repositories.WinnerRepository {
	return &WinnerRepository{
		collection: db.Collection("winners"),
	}
}

// CreateMany inserts the winners of one draw
func (r *WinnerRepository) CreateMany(ctx context.Context, winners []*models.Winner) error {
	if len(winners) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(winners))
	for _, w := range winners {
		w.ID = primitive.NewObjectID()
		w.CreatedAt = time.Now()
		w.UpdatedAt = time.Now()
		docs = append(docs, w)
	}
	_, err := r.collection.InsertMany(ctx, docs)
	return err
}

// FindByDrawID finds the winners of a draw, largest prize first
func (r *WinnerRepository) FindByDrawID(ctx context.Context, drawID primitive.ObjectID) ([]*models.Winner, error) {
	return r.find(ctx, bson.M{"drawId": drawID}, options.Find().SetSort(bson.M{"prizeAmount": -1}))
}

// FindBySubscriberID finds every win of a subscriber, newest first
func (r *WinnerRepository) FindBySubscriberID(ctx context.Context, subscriberID string) ([]*models.Winner, error) {
	return r.find(ctx, bson.M{"subscriberId": subscriberID}, options.Find().SetSort(bson.M{"winDate": -1}))
}

// MarkNotified records when the winner was told about the prize
func (r *WinnerRepository) MarkNotified(ctx context.Context, cycleID, subscriberID string, at time.Time) error {
	filter := bson.M{"cycleId": cycleID, "subscriberId": subscriberID}
	update := bson.M{"$set": bson.M{"notifiedAt": at, "updatedAt": time.Now()}}
	_, err := r.collection.UpdateOne(ctx, filter, update)
	return err
}

// DeleteByDrawID removes the winners of a draw whose record was never stored
func (r *WinnerRepository) DeleteByDrawID(ctx context.Context, drawID primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"drawId": drawID})
	return err
}

func (r *WinnerRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*models.Winner, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var winners []*models.Winner
	if err := cursor.All(ctx, &winners); err != nil {
		return nil, err
	}
	if winners == nil {
		winners = []*models.Winner{}
	}
	return winners, nil
}
