package models

import (
	"time"

	"github.com/ArowuTest/subscriber-draw-backend/internal/engine"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Claim statuses for a winner record
const (
	ClaimStatusPending   = "PENDING"
	ClaimStatusPaid      = "PAID"
	ClaimStatusForfeited = "FORFEITED"
)

// Winner represents a winner in a draw
type Winner struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	DrawID       primitive.ObjectID `bson:"drawId" json:"drawId"`
	CycleID      string             `bson:"cycleId" json:"cycleId"`
	SubscriberID string             `bson:"subscriberId" json:"subscriberId"`
	Contact      string             `bson:"contact" json:"contact"`
	PrizeAmount  engine.Money       `bson:"prizeAmount" json:"prizeAmount"`
	WinDate      time.Time          `bson:"winDate" json:"winDate"`
	ClaimStatus  string             `bson:"claimStatus" json:"claimStatus"` // PENDING, PAID, FORFEITED
	NotifiedAt   *time.Time         `bson:"notifiedAt,omitempty" json:"notifiedAt,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}
