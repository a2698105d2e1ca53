package models

import (
	"time"

	"github.com/ArowuTest/subscriber-draw-backend/internal/engine"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DrawAllocation is a single winner/amount pair stored on a draw
type DrawAllocation struct {
	SubscriberID string       `bson:"subscriberId" json:"subscriberId"`
	Contact      string       `bson:"contact" json:"contact"`
	Amount       engine.Money `bson:"amount" json:"amount"`
}

// Draw is the persisted draw record for one cycle. One document per cycleId.
type Draw struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	CycleID       string             `bson:"cycleId" json:"cycleId"`
	DrawDate      time.Time          `bson:"drawDate" json:"drawDate"`
	Status        engine.DrawStatus  `bson:"status" json:"status"`
	EligibleCount int                `bson:"eligibleCount" json:"eligibleCount"`
	TotalRevenue  engine.Money       `bson:"totalRevenue" json:"totalRevenue"`
	TotalPool     engine.Money       `bson:"totalPool" json:"totalPool"`
	NumWinners    int                `bson:"numWinners" json:"numWinners"`
	Allocations   []DrawAllocation   `bson:"allocations,omitempty" json:"allocations,omitempty"`
	ErrorMessage  string             `bson:"errorMessage,omitempty" json:"errorMessage,omitempty"`
	Seed          int64              `bson:"seed" json:"seed"`
	Settings      DrawSettings       `bson:"settings" json:"settings"`
	Trigger       string             `bson:"trigger,omitempty" json:"trigger,omitempty"` // SCHEDULER, ADMIN, CLI
	ExecutionLog  []string           `bson:"executionLog,omitempty" json:"executionLog,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// NewDrawFromRecord builds the stored document from an engine draw record
func NewDrawFromRecord(record engine.DrawRecord, settings DrawSettings) *Draw {
	allocations := make([]DrawAllocation, 0, len(record.Allocations))
	for _, a := range record.Allocations {
		allocations = append(allocations, DrawAllocation{SubscriberID: a.SubscriberID, Contact: a.Contact, Amount: a.Amount})
	}
	return &Draw{
		CycleID:       record.CycleID,
		DrawDate:      record.Timestamp,
		Status:        record.Status,
		EligibleCount: record.EligibleCount,
		TotalRevenue:  record.TotalRevenue,
		TotalPool:     record.TotalPool,
		NumWinners:    len(allocations),
		Allocations:   allocations,
		ErrorMessage:  record.Reason,
		Seed:          record.Seed,
		Settings:      settings,
	}
}

// EngineAllocations returns the stored allocations in engine form
func (d *Draw) EngineAllocations() []engine.Allocation {
	out := make([]engine.Allocation, 0, len(d.Allocations))
	for _, a := range d.Allocations {
		out = append(out, engine.Allocation{SubscriberID: a.SubscriberID, Contact: a.Contact, Amount: a.Amount})
	}
	return out
}
