package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification types
const (
	NotificationTypeWinner    = "WINNER"
	NotificationTypeDrawAlert = "DRAW_FAILED"
	NotificationTypePreflight = "PREFLIGHT_WARNING"
)

// Notification statuses
const (
	NotificationStatusPending = "PENDING"
	NotificationStatusSent    = "SENT"
	NotificationStatusFailed  = "FAILED"
)

// Notification represents a message sent to a winner or an admin
type Notification struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Recipient     string             `bson:"recipient" json:"recipient"`
	Subject       string             `bson:"subject" json:"subject"`
	Content       string             `bson:"content" json:"content"`
	Type          string             `bson:"type" json:"type"`     // WINNER, DRAW_FAILED, PREFLIGHT_WARNING
	Status        string             `bson:"status" json:"status"` // PENDING, SENT, FAILED
	StatusMessage string             `bson:"statusMessage,omitempty" json:"statusMessage,omitempty"`
	CycleID       string             `bson:"cycleId,omitempty" json:"cycleId,omitempty"`
	Gateway       string             `bson:"gateway" json:"gateway"`
	MessageID     string             `bson:"messageId,omitempty" json:"messageId,omitempty"`
	SentDate      time.Time          `bson:"sentDate,omitempty" json:"sentDate,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}
