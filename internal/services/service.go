package services

import (
	"context"
	"errors"
	"time"

	"github.com/ArowuTest/subscriber-draw-backend/internal/engine"
	"github.com/ArowuTest/subscriber-draw-backend/internal/models"
)

var (
	// ErrNotFound is returned when a draw, winner list or settings document does not exist
	ErrNotFound = errors.New("not found")
	// ErrInvalidID is returned for malformed object ids
	ErrInvalidID = errors.New("invalid id")
	// ErrCycleAlreadyRan is returned when a draw has already been recorded for the cycle
	ErrCycleAlreadyRan = errors.New("draw already ran for this cycle")
	// ErrInvalidSettings is returned by settings validation
	ErrInvalidSettings = errors.New("invalid draw settings")
	// ErrPartialExecution means the draw was recorded but some follow-up commands failed
	ErrPartialExecution = errors.New("draw recorded but follow-up commands failed")
	// ErrInvalidCredentials is returned for a wrong email or password
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailTaken is returned when registering an email that already exists
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidRole is returned when registering with an unknown role
	ErrInvalidRole = errors.New("invalid role")
)

// Draw triggers recorded on the draw document
const (
	TriggerScheduler = "SCHEDULER"
	TriggerAdmin     = "ADMIN"
	TriggerCLI       = "CLI"
)

// DrawService defines the interface for draw-related operations
type DrawService interface {
	// RunCycle runs the draw for the ISO week containing now
	RunCycle(ctx context.Context, now time.Time, trigger string) (*models.Draw, error)

	// Preflight checks ahead of the draw that enough subscribers are eligible
	Preflight(ctx context.Context, now time.Time, notify bool) (*PreflightResult, error)

	// Replay re-runs a recorded cycle with its stored seed and reports whether it matches
	Replay(ctx context.Context, cycleID string) (*ReplayResult, error)

	// GetDraw retrieves a draw by its ID
	GetDraw(ctx context.Context, id string) (*models.Draw, error)

	// GetDrawByCycle retrieves the draw recorded for a cycle
	GetDrawByCycle(ctx context.Context, cycleID string) (*models.Draw, error)

	// ListDraws lists draws newest first, returning the page and the total count
	ListDraws(ctx context.Context, page, limit int) ([]*models.Draw, int64, error)

	// GetWinners retrieves the winners of a draw
	GetWinners(ctx context.Context, drawID string) ([]*models.Winner, error)
}

// SettingsService manages the admin-editable draw configuration
type SettingsService interface {
	GetDrawSettings(ctx context.Context) (*models.DrawSettings, error)
	UpdateDrawSettings(ctx context.Context, settings models.DrawSettings, updatedBy string) (*models.DrawSettings, error)
}

// NotificationService sends and records winner and admin messages
type NotificationService interface {
	NotifyWinner(ctx context.Context, cmd engine.NotifyWinner) error
	NotifyAdmins(ctx context.Context, notificationType, cycleID, reason string) error
	GetByCycle(ctx context.Context, cycleID string) ([]*models.Notification, error)
}

// AuthService defines the interface for admin authentication
type AuthService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.AdminUser, error)
	Login(ctx context.Context, req *models.LoginRequest) (*LoginResponse, error)
}

// PreflightResult is the outcome of a preflight check
type PreflightResult struct {
	CycleID        string    `json:"cycleId"`
	CheckedAt      time.Time `json:"checkedAt"`
	EligibleCount  int       `json:"eligibleCount"`
	Required       int       `json:"required"`
	Sufficient     bool      `json:"sufficient"`
	AdminsNotified bool      `json:"adminsNotified"`
}

// ReplayResult compares a recorded draw with a fresh run using the same seed
type ReplayResult struct {
	CycleID        string              `json:"cycleId"`
	Seed           int64               `json:"seed"`
	RecordedStatus engine.DrawStatus   `json:"recordedStatus"`
	ReplayedStatus engine.DrawStatus   `json:"replayedStatus"`
	Recorded       []engine.Allocation `json:"recorded"`
	Replayed       []engine.Allocation `json:"replayed"`
	Match          bool                `json:"match"`
	Reason         string              `json:"reason,omitempty"`
}

// LoginResponse is returned on a successful login
type LoginResponse struct {
	Token     string            `json:"token"`
	ExpiresAt time.Time         `json:"expiresAt"`
	User      *models.AdminUser `json:"user"`
}
