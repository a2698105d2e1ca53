package models

import (
	"time"

	"github.com/ArowuTest/subscriber-draw-backend/internal/engine"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Subscriber represents a paying subscriber who can be drawn as a winner
type Subscriber struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`
	IsSubscribed bool               `bson:"isSubscribed" json:"isSubscribed"`
	SubscribedAt time.Time          `bson:"subscribedAt,omitempty" json:"subscribedAt,omitempty"`
	LastWonAt    *time.Time         `bson:"lastWonAt,omitempty" json:"lastWonAt,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ToEngine converts the stored subscriber into the engine's input shape
func (s *Subscriber) ToEngine() engine.Subscriber {
	return engine.Subscriber{
		ID:           s.ID.Hex(),
		Contact:      s.Email,
		IsSubscribed: s.IsSubscribed,
		LastWonAt:    s.LastWonAt,
	}
}

// SubscribersToEngine converts a slice of stored subscribers, preserving order
func SubscribersToEngine(subscribers []*Subscriber) []engine.Subscriber {
	out := make([]engine.Subscriber, 0, len(subscribers))
	for _, s := range subscribers {
		out = append(out, s.ToEngine())
	}
	return out
}
