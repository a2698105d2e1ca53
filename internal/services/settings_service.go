package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ArowuTest/subscriber-draw-backend/internal/engine"
	"github.com/ArowuTest/subscriber-draw-backend/internal/models"
	"github.com/ArowuTest/subscriber-draw-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/exp/slog"
)

// Compile-time check to ensure SettingsServiceImpl implements SettingsService
var _ SettingsService = (*SettingsServiceImpl)(nil)

// SettingsServiceImpl stores draw settings in the system_config collection
type SettingsServiceImpl struct {
	configRepo repositories.SystemConfigRepository
}

// NewSettingsService creates a new SettingsServiceImpl
func NewSettingsService(configRepo repositories.SystemConfigRepository) *SettingsServiceImpl {
	return &SettingsServiceImpl{configRepo: configRepo}
}

// GetDrawSettings returns the saved settings, or the defaults when none were saved
func (s *SettingsServiceImpl) GetDrawSettings(ctx context.Context) (*models.DrawSettings, error) {
	settings, err := s.configRepo.GetDrawSettings(ctx)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			defaults := models.DefaultDrawSettings()
			return &defaults, nil
		}
		slog.Error("Failed to load draw settings", "error", err)
		return nil, fmt.Errorf("failed to load draw settings: %w", err)
	}
	return settings, nil
}

// UpdateDrawSettings validates and saves new settings, bumping the version
func (s *SettingsServiceImpl) UpdateDrawSettings(ctx context.Context, settings models.DrawSettings, updatedBy string) (*models.DrawSettings, error) {
	if err := ValidateDrawSettings(settings); err != nil {
		return nil, err
	}

	current, err := s.GetDrawSettings(ctx)
	if err != nil {
		return nil, err
	}

	settings.Version = current.Version + 1
	settings.UpdatedBy = updatedBy
	settings.UpdatedAt = time.Now().UTC()

	if err := s.configRepo.UpsertByKey(ctx, models.DrawSettingsKey, settings, "Draw allocation settings"); err != nil {
		return nil, err
	}

	slog.Info("Draw settings updated", "version", settings.Version, "updatedBy", updatedBy,
		"drawSharePercent", settings.DrawSharePercent, "winnersPerDraw", settings.WinnersPerDraw)
	return &settings, nil
}

// ValidateDrawSettings checks the configuration-layer rules the engine takes on trust
func ValidateDrawSettings(s models.DrawSettings) error {
	switch {
	case s.DrawSharePercent < 0 || s.ProfitSharePercent < 0 || s.MaintenanceSharePercent < 0:
		return fmt.Errorf("%w: percentages must not be negative", ErrInvalidSettings)
	case s.DrawSharePercent+s.ProfitSharePercent+s.MaintenanceSharePercent != 100:
		return fmt.Errorf("%w: draw, profit and maintenance shares must sum to 100, got %d",
			ErrInvalidSettings, s.DrawSharePercent+s.ProfitSharePercent+s.MaintenanceSharePercent)
	case s.WinnersPerDraw <= 0:
		return fmt.Errorf("%w: winnersPerDraw must be positive", ErrInvalidSettings)
	case s.MinimumRewardAmount <= 0:
		return fmt.Errorf("%w: minimumRewardAmount must be positive", ErrInvalidSettings)
	case s.MinimumRewardAmount > math.MaxInt64/engine.Money(s.WinnersPerDraw):
		return fmt.Errorf("%w: minimumRewardAmount x winnersPerDraw overflows", ErrInvalidSettings)
	case s.EligibilityCooldownDays < 0:
		return fmt.Errorf("%w: eligibilityCooldownDays must not be negative", ErrInvalidSettings)
	case s.PreflightLeadDays <= 0 || s.PreflightLeadDays > 6:
		return fmt.Errorf("%w: preflightLeadDays must be between 1 and 6", ErrInvalidSettings)
	}
	return nil
}
