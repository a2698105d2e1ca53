package models

import (
	"time"

	"github.com/ArowuTest/subscriber-draw-backend/internal/engine"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DrawSettingsKey is the system_config key holding the draw settings document
const DrawSettingsKey = "draw_settings"

// SystemConfig represents a configuration setting stored in the database
type SystemConfig struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Key         string             `bson:"key" json:"key"` // Unique key for the config setting (e.g., "draw_settings")
	Value       interface{}        `bson:"value" json:"value"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// DrawSettings is the admin-editable draw configuration
type DrawSettings struct {
	Version                 int          `bson:"version" json:"version"`
	DrawSharePercent        int          `bson:"drawSharePercent" json:"drawSharePercent"`
	ProfitSharePercent      int          `bson:"profitSharePercent" json:"profitSharePercent"`
	MaintenanceSharePercent int          `bson:"maintenanceSharePercent" json:"maintenanceSharePercent"`
	WinnersPerDraw          int          `bson:"winnersPerDraw" json:"winnersPerDraw"`
	MinimumRewardAmount     engine.Money `bson:"minimumRewardAmount" json:"minimumRewardAmount"`
	EligibilityCooldownDays int          `bson:"eligibilityCooldownDays" json:"eligibilityCooldownDays"`
	PreflightLeadDays       int          `bson:"preflightLeadDays" json:"preflightLeadDays"`
	UpdatedBy               string       `bson:"updatedBy,omitempty" json:"updatedBy,omitempty"`
	UpdatedAt               time.Time    `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

// DefaultDrawSettings are used until an admin saves settings
func DefaultDrawSettings() DrawSettings {
	return DrawSettings{
		Version:                 1,
		DrawSharePercent:        50,
		ProfitSharePercent:      30,
		MaintenanceSharePercent: 20,
		WinnersPerDraw:          3,
		MinimumRewardAmount:     10000,
		EligibilityCooldownDays: 28,
		PreflightLeadDays:       2,
	}
}

// ToEngine converts the stored settings into the engine configuration
func (s DrawSettings) ToEngine() engine.Configuration {
	return engine.Configuration{
		DrawSharePercent:        s.DrawSharePercent,
		ProfitSharePercent:      s.ProfitSharePercent,
		MaintenanceSharePercent: s.MaintenanceSharePercent,
		WinnersPerDraw:          s.WinnersPerDraw,
		MinimumRewardAmount:     s.MinimumRewardAmount,
		EligibilityCooldownDays: s.EligibilityCooldownDays,
		PreflightLeadDays:       s.PreflightLeadDays,
	}
}
