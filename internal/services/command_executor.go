package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ArowuTest/subscriber-draw-backend/internal/engine"
	"github.com/ArowuTest/subscriber-draw-backend/internal/models"
	"github.com/ArowuTest/subscriber-draw-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/exp/slog"
	"golang.org/x/sync/errgroup"
)

// maxParallelNotifications bounds concurrent gateway calls for one draw
const maxParallelNotifications = 4

// CommandExecutor applies the commands emitted by a draw cycle
type CommandExecutor struct {
	drawRepo       repositories.DrawRepository
	winnerRepo     repositories.WinnerRepository
	subscriberRepo repositories.SubscriberRepository
	notifications  NotificationService
}

// NewCommandExecutor creates a new CommandExecutor
func NewCommandExecutor(
	drawRepo repositories.DrawRepository,
	winnerRepo repositories.WinnerRepository,
	subscriberRepo repositories.SubscriberRepository,
	notifications NotificationService,
) *CommandExecutor {
	return &CommandExecutor{
		drawRepo:       drawRepo,
		winnerRepo:     winnerRepo,
		subscriberRepo: subscriberRepo,
		notifications:  notifications,
	}
}

// Execute persists the draw and then applies cooldowns and notifications.
// A persist failure aborts everything else. Later failures are collected and
// returned wrapped in ErrPartialExecution alongside the stored draw.
func (e *CommandExecutor) Execute(ctx context.Context, result engine.DrawResult, settings models.DrawSettings, trigger string) (*models.Draw, error) {
	var (
		draw          *models.Draw
		winnerNotices []engine.NotifyWinner
		errs          []error
	)

	for _, cmd := range result.Commands {
		switch c := cmd.(type) {
		case engine.PersistDrawRecord:
			d, err := e.persist(ctx, c.Record, result, settings, trigger)
			if err != nil {
				return nil, err
			}
			draw = d
		case engine.UpdateWinnerCooldown:
			if draw == nil {
				return nil, errors.New("cooldown command before draw record was persisted")
			}
			if err := e.updateCooldown(ctx, c); err != nil {
				slog.Error("Failed to update winner cooldown", "error", err, "subscriberID", c.SubscriberID)
				errs = append(errs, err)
			}
		case engine.NotifyWinner:
			winnerNotices = append(winnerNotices, c)
		case engine.NotifyAdmins:
			if err := e.notifications.NotifyAdmins(ctx, models.NotificationTypeDrawAlert, c.CycleID, c.Reason); err != nil {
				errs = append(errs, err)
			}
		default:
			slog.Warn("Ignoring unknown draw command", "kind", cmd.Kind())
		}
	}

	if len(winnerNotices) > 0 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(maxParallelNotifications)
		noticeErrs := make([]error, len(winnerNotices))
		for i, notice := range winnerNotices {
			i, notice := i, notice
			g.Go(func() error {
				// A failed delivery must not cancel the other winners' messages
				noticeErrs[i] = e.notifications.NotifyWinner(gctx, notice)
				return nil
			})
		}
		_ = g.Wait()
		for _, err := range noticeErrs {
			if err != nil {
				errs = append(errs, err)
			}
		}
	}

	if draw == nil {
		return nil, errors.New("draw result carried no record to persist")
	}
	if len(errs) > 0 {
		return draw, fmt.Errorf("%w: %w", ErrPartialExecution, errors.Join(errs...))
	}
	return draw, nil
}

// persist writes the winners first and the draw last, so a stored draw always
// has its winners. Winners written for a draw that fails to store are removed.
func (e *CommandExecutor) persist(ctx context.Context, record engine.DrawRecord, result engine.DrawResult, settings models.DrawSettings, trigger string) (*models.Draw, error) {
	draw := models.NewDrawFromRecord(record, settings)
	draw.ID = primitive.NewObjectID()
	draw.Trigger = trigger
	draw.ExecutionLog = executionLog(record, result)

	if len(record.Allocations) > 0 {
		winners := make([]*models.Winner, 0, len(record.Allocations))
		for _, a := range record.Allocations {
			winners = append(winners, &models.Winner{
				DrawID:       draw.ID,
				CycleID:      record.CycleID,
				SubscriberID: a.SubscriberID,
				Contact:      a.Contact,
				PrizeAmount:  a.Amount,
				WinDate:      record.Timestamp,
				ClaimStatus:  models.ClaimStatusPending,
			})
		}
		if err := e.winnerRepo.CreateMany(ctx, winners); err != nil {
			e.discardWinners(draw)
			return nil, fmt.Errorf("failed to persist winners for %s: %w", record.CycleID, err)
		}
	}

	if err := e.drawRepo.Create(ctx, draw); err != nil {
		e.discardWinners(draw)
		if errors.Is(err, repositories.ErrDuplicateCycle) {
			return nil, fmt.Errorf("%w: %s", ErrCycleAlreadyRan, record.CycleID)
		}
		return nil, fmt.Errorf("failed to persist draw %s: %w", record.CycleID, err)
	}
	return draw, nil
}

// discardWinners removes winner rows of a draw that was never stored. It runs on
// a fresh context so a cancelled request still cleans up.
func (e *CommandExecutor) discardWinners(draw *models.Draw) {
	if len(draw.Allocations) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.winnerRepo.DeleteByDrawID(ctx, draw.ID); err != nil {
		slog.Error("Failed to remove winners of unsaved draw", "error", err, "cycleID", draw.CycleID, "drawID", draw.ID.Hex())
	}
}

func (e *CommandExecutor) updateCooldown(ctx context.Context, c engine.UpdateWinnerCooldown) error {
	id, err := primitive.ObjectIDFromHex(c.SubscriberID)
	if err != nil {
		return fmt.Errorf("%w: subscriber %q", ErrInvalidID, c.SubscriberID)
	}
	if err := e.subscriberRepo.UpdateLastWonAt(ctx, id, c.WonAt); err != nil {
		return fmt.Errorf("failed to update cooldown for subscriber %s: %w", c.SubscriberID, err)
	}
	return nil
}

func executionLog(record engine.DrawRecord, result engine.DrawResult) []string {
	ts := record.Timestamp.Format(time.RFC3339)
	log := []string{
		fmt.Sprintf("%s: cycle %s started with seed %d", ts, record.CycleID, record.Seed),
		fmt.Sprintf("%s: %d eligible subscribers, revenue %s", ts, record.EligibleCount, record.TotalRevenue),
	}
	if result.Succeeded() {
		log = append(log, fmt.Sprintf("%s: pool %s split among %d winners", ts, record.TotalPool, len(record.Allocations)))
	} else {
		log = append(log, fmt.Sprintf("%s: failed at %s: %s", ts, result.FailedAt, record.Reason))
	}
	return append(log, fmt.Sprintf("%s: finished in state %s", ts, result.State))
}
