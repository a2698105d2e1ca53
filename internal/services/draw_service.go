package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/ArowuTest/subscriber-draw-backend/internal/engine"
	"github.com/ArowuTest/subscriber-draw-backend/internal/metrics"
	"github.com/ArowuTest/subscriber-draw-backend/internal/models"
	"github.com/ArowuTest/subscriber-draw-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/exp/slog"
)

// Compile-time check to ensure DrawServiceImpl implements DrawService
var _ DrawService = (*DrawServiceImpl)(nil)

// SourceFactory returns a fresh random source and the seed it was built from
type SourceFactory func() (engine.RandomSource, int64)

// DrawServiceImpl loads draw inputs, runs the engine and hands its commands to the executor
type DrawServiceImpl struct {
	drawRepo        repositories.DrawRepository
	subscriberRepo  repositories.SubscriberRepository
	winnerRepo      repositories.WinnerRepository
	settings        SettingsService
	notifications   NotificationService
	executor        *CommandExecutor
	subscriptionFee engine.Money
	newSource       SourceFactory
}

// NewDrawService creates a new DrawServiceImpl.
// subscriptionFee is the monthly fee per active subscriber in minor units.
func NewDrawService(
	drawRepo repositories.DrawRepository,
	subscriberRepo repositories.SubscriberRepository,
	winnerRepo repositories.WinnerRepository,
	settings SettingsService,
	notifications NotificationService,
	executor *CommandExecutor,
	subscriptionFee engine.Money,
) *DrawServiceImpl {
	return &DrawServiceImpl{
		drawRepo:        drawRepo,
		subscriberRepo:  subscriberRepo,
		winnerRepo:      winnerRepo,
		settings:        settings,
		notifications:   notifications,
		executor:        executor,
		subscriptionFee: subscriptionFee,
		newSource:       engine.NewSource,
	}
}

// WithSourceFactory replaces the random source used for new cycles
func (s *DrawServiceImpl) WithSourceFactory(f SourceFactory) *DrawServiceImpl {
	s.newSource = f
	return s
}

// RunCycle runs the draw for the ISO week containing now.
// Returns ErrCycleAlreadyRan if a draw is already recorded for that week.
// A failed cycle (not enough subscribers or pool) is a recorded outcome, not an error.
func (s *DrawServiceImpl) RunCycle(ctx context.Context, now time.Time, trigger string) (*models.Draw, error) {
	start := time.Now()
	cycleID := engine.CycleIDFor(now)

	if _, err := s.drawRepo.FindByCycleID(ctx, cycleID); err == nil {
		slog.Info("Draw already recorded for cycle, skipping", "cycleID", cycleID, "trigger", trigger)
		return nil, fmt.Errorf("%w: %s", ErrCycleAlreadyRan, cycleID)
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		slog.Error("Failed to check for existing draw", "error", err, "cycleID", cycleID)
		return nil, fmt.Errorf("failed to check for existing draw: %w", err)
	}

	settings, err := s.settings.GetDrawSettings(ctx)
	if err != nil {
		return nil, err
	}

	subscribers, err := s.subscriberRepo.FindAll(ctx)
	if err != nil {
		slog.Error("Failed to load subscribers", "error", err, "cycleID", cycleID)
		return nil, fmt.Errorf("failed to load subscribers: %w", err)
	}
	revenue, err := s.monthlyRevenue(ctx)
	if err != nil {
		return nil, err
	}

	rng, seed := s.newSource()
	result := engine.RunCycle(engine.CycleInput{
		CycleID:        cycleID,
		Subscribers:    models.SubscribersToEngine(subscribers),
		MonthlyRevenue: revenue,
		Config:         settings.ToEngine(),
		Now:            now,
		Rng:            rng,
		Seed:           seed,
	})

	if failed, ok := result.Outcome.(engine.Failed); ok {
		slog.Warn("Draw cycle failed", "cycleID", cycleID, "failedAt", result.FailedAt, "reason", failed.Reason)
	} else {
		slog.Info("Draw cycle completed", "cycleID", cycleID, "pool", result.Record.TotalPool.String(),
			"winners", len(result.Record.Allocations), "eligible", result.Record.EligibleCount)
	}

	draw, err := s.executor.Execute(ctx, result, *settings, trigger)
	metrics.RecordCycle(string(result.Record.Status), trigger, result.Record.EligibleCount, int64(result.Record.TotalPool), time.Since(start))
	if err != nil {
		if errors.Is(err, ErrCycleAlreadyRan) {
			slog.Info("Draw recorded concurrently for cycle", "cycleID", cycleID)
		} else {
			slog.Error("Draw command execution failed", "error", err, "cycleID", cycleID)
		}
		return draw, err
	}
	return draw, nil
}

// Preflight checks that the upcoming draw has enough eligible subscribers.
// When notify is set, admins are alerted if it does not; otherwise the check
// only reports.
func (s *DrawServiceImpl) Preflight(ctx context.Context, now time.Time, notify bool) (*PreflightResult, error) {
	settings, err := s.settings.GetDrawSettings(ctx)
	if err != nil {
		return nil, err
	}
	subscribers, err := s.subscriberRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load subscribers: %w", err)
	}

	report := engine.CheckSufficiency(models.SubscribersToEngine(subscribers), settings.ToEngine(), now)
	result := &PreflightResult{
		CycleID:       engine.CycleIDFor(now.AddDate(0, 0, settings.PreflightLeadDays)),
		CheckedAt:     now,
		EligibleCount: report.EligibleCount,
		Required:      report.Required,
		Sufficient:    report.Sufficient,
	}
	metrics.RecordPreflight(report.EligibleCount, report.Sufficient)

	if report.Sufficient {
		slog.Info("Preflight check passed", "cycleID", result.CycleID, "eligible", report.EligibleCount, "required", report.Required)
		return result, nil
	}

	reason := fmt.Sprintf("only %d eligible subscribers, %d required", report.EligibleCount, report.Required)
	slog.Warn("Preflight check failed", "cycleID", result.CycleID, "eligible", report.EligibleCount, "required", report.Required)
	if !notify {
		return result, nil
	}
	if err := s.notifications.NotifyAdmins(ctx, models.NotificationTypePreflight, result.CycleID, reason); err != nil {
		slog.Error("Failed to alert admins about preflight", "error", err, "cycleID", result.CycleID)
		return result, nil
	}
	result.AdminsNotified = true
	return result, nil
}

// Replay re-runs a recorded cycle using its stored seed, settings and revenue.
// Subscribers are restored to their state at draw time as far as the winners
// history allows; anyone who joined after the draw is left out.
func (s *DrawServiceImpl) Replay(ctx context.Context, cycleID string) (*ReplayResult, error) {
	draw, err := s.GetDrawByCycle(ctx, cycleID)
	if err != nil {
		return nil, err
	}

	subscribers, err := s.subscriberRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load subscribers: %w", err)
	}
	inputs, err := s.subscribersAsOf(ctx, subscribers, draw.DrawDate)
	if err != nil {
		return nil, err
	}

	result := engine.RunCycle(engine.CycleInput{
		CycleID:        draw.CycleID,
		Subscribers:    inputs,
		MonthlyRevenue: draw.TotalRevenue,
		Config:         draw.Settings.ToEngine(),
		Now:            draw.DrawDate,
		Rng:            engine.NewSeededSource(draw.Seed),
		Seed:           draw.Seed,
	})

	recorded := draw.EngineAllocations()
	replayed := result.Record.Allocations
	if replayed == nil {
		replayed = []engine.Allocation{}
	}
	replay := &ReplayResult{
		CycleID:        draw.CycleID,
		Seed:           draw.Seed,
		RecordedStatus: draw.Status,
		ReplayedStatus: result.Record.Status,
		Recorded:       recorded,
		Replayed:       replayed,
		Match:          draw.Status == result.Record.Status && reflect.DeepEqual(recorded, replayed),
	}
	if !replay.Match {
		replay.Reason = "replayed allocations differ from the recorded draw; subscriber data changed since the draw"
		slog.Warn("Draw replay mismatch", "cycleID", cycleID, "seed", draw.Seed)
	} else {
		slog.Info("Draw replay matched", "cycleID", cycleID, "seed", draw.Seed)
	}
	return replay, nil
}

// GetDraw retrieves a draw by its hex ID
func (s *DrawServiceImpl) GetDraw(ctx context.Context, id string) (*models.Draw, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidID, id)
	}
	draw, err := s.drawRepo.FindByID(ctx, objectID)
	if err != nil {
		return nil, notFound(err, "draw "+id)
	}
	return draw, nil
}

// GetDrawByCycle retrieves the draw recorded for a cycle
func (s *DrawServiceImpl) GetDrawByCycle(ctx context.Context, cycleID string) (*models.Draw, error) {
	draw, err := s.drawRepo.FindByCycleID(ctx, cycleID)
	if err != nil {
		return nil, notFound(err, "draw for cycle "+cycleID)
	}
	return draw, nil
}

// ListDraws lists draws newest first
func (s *DrawServiceImpl) ListDraws(ctx context.Context, page, limit int) ([]*models.Draw, int64, error) {
	draws, err := s.drawRepo.FindAll(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.drawRepo.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	return draws, total, nil
}

// GetWinners retrieves the winners of a draw
func (s *DrawServiceImpl) GetWinners(ctx context.Context, drawID string) ([]*models.Winner, error) {
	draw, err := s.GetDraw(ctx, drawID)
	if err != nil {
		return nil, err
	}
	return s.winnerRepo.FindByDrawID(ctx, draw.ID)
}

func (s *DrawServiceImpl) monthlyRevenue(ctx context.Context) (engine.Money, error) {
	active, err := s.subscriberRepo.CountActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count active subscribers: %w", err)
	}
	return engine.Money(active) * s.subscriptionFee, nil
}

// subscribersAsOf rebuilds LastWonAt as it stood just before at
func (s *DrawServiceImpl) subscribersAsOf(ctx context.Context, subscribers []*models.Subscriber, at time.Time) ([]engine.Subscriber, error) {
	out := make([]engine.Subscriber, 0, len(subscribers))
	for _, sub := range subscribers {
		if sub.CreatedAt.After(at) {
			continue
		}
		es := sub.ToEngine()
		if es.LastWonAt != nil && !es.LastWonAt.Before(at) {
			wins, err := s.winnerRepo.FindBySubscriberID(ctx, es.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to load win history for %s: %w", es.ID, err)
			}
			es.LastWonAt = nil
			for _, w := range wins {
				if w.WinDate.Before(at) && (es.LastWonAt == nil || w.WinDate.After(*es.LastWonAt)) {
					won := w.WinDate
					es.LastWonAt = &won
				}
			}
		}
		out = append(out, es)
	}
	return out, nil
}

func notFound(err error, what string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return err
}
