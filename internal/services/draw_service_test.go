package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ArowuTest/subscriber-draw-backend/internal/engine"
	"github.com/ArowuTest/subscriber-draw-backend/internal/models"
	"github.com/ArowuTest/subscriber-draw-backend/internal/repositories/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var drawTime = time.Date(2024, time.March, 9, 18, 0, 0, 0, time.UTC)

func TestRunCycleCompleted(t *testing.T) {
	f := newFixture(t, 100000)
	f.addSubscribers(t, 10, nil)
	ctx := context.Background()

	draw, err := f.draws.RunCycle(ctx, drawTime, TriggerAdmin)
	require.NoError(t, err)

	assert.Equal(t, "2024-W10", draw.CycleID)
	assert.Equal(t, engine.DrawStatusCompleted, draw.Status)
	assert.Equal(t, engine.Money(1000000), draw.TotalRevenue)
	assert.Equal(t, engine.Money(125000), draw.TotalPool)
	assert.Equal(t, int64(testSeed), draw.Seed)
	assert.Equal(t, TriggerAdmin, draw.Trigger)
	assert.Equal(t, 10, draw.EligibleCount)
	require.Len(t, draw.Allocations, 3)
	assert.Equal(t, draw.TotalPool, sumAllocations(draw.Allocations))
	for _, a := range draw.Allocations {
		assert.GreaterOrEqual(t, int64(a.Amount), int64(10000))
	}
	assert.NotEmpty(t, draw.ExecutionLog)

	winners, err := f.store.Winners.FindByDrawID(ctx, draw.ID)
	require.NoError(t, err)
	require.Len(t, winners, 3)

	for _, a := range draw.Allocations {
		id, err := primitive.ObjectIDFromHex(a.SubscriberID)
		require.NoError(t, err)
		sub, err := f.store.Subscribers.FindByID(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, sub.LastWonAt)
		assert.True(t, sub.LastWonAt.Equal(drawTime))
	}

	sent := f.gateway.Sent()
	assert.Len(t, sent, 3)
	notifications, err := f.notifications.GetByCycle(ctx, "2024-W10")
	require.NoError(t, err)
	require.Len(t, notifications, 3)
	for _, n := range notifications {
		assert.Equal(t, models.NotificationStatusSent, n.Status)
		assert.Equal(t, models.NotificationTypeWinner, n.Type)
	}

	winners, err = f.store.Winners.FindBySubscriberID(ctx, draw.Allocations[0].SubscriberID)
	require.NoError(t, err)
	require.Len(t, winners, 1)
	assert.NotNil(t, winners[0].NotifiedAt)
}

func TestRunCycleIsIdempotentPerWeek(t *testing.T) {
	f := newFixture(t, 100000)
	f.addSubscribers(t, 10, nil)

	_, err := f.draws.RunCycle(context.Background(), drawTime, TriggerScheduler)
	require.NoError(t, err)

	// Same ISO week, different day
	_, err = f.draws.RunCycle(context.Background(), drawTime.Add(24*time.Hour), TriggerAdmin)
	assert.ErrorIs(t, err, ErrCycleAlreadyRan)

	count, err := f.store.Draws.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Len(t, f.gateway.Sent(), 3)
}

func TestRunCycleInsufficientSubscribers(t *testing.T) {
	f := newFixture(t, 100000, "ops@example.com")
	f.addSubscribers(t, 2, nil)

	draw, err := f.draws.RunCycle(context.Background(), drawTime, TriggerScheduler)
	require.NoError(t, err)

	assert.Equal(t, engine.DrawStatusFailed, draw.Status)
	assert.Equal(t, "insufficient eligible subscribers: got 2, need 3", draw.ErrorMessage)
	assert.Empty(t, draw.Allocations)
	assert.Equal(t, engine.Money(0), draw.TotalPool)

	sent := f.gateway.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "ops@example.com", sent[0].Recipient)
	assert.Contains(t, sent[0].Body, "insufficient eligible subscribers")

	winners, err := f.store.Winners.FindByDrawID(context.Background(), draw.ID)
	require.NoError(t, err)
	assert.Empty(t, winners)
}

func TestRunCycleInsufficientPool(t *testing.T) {
	f := newFixture(t, 100, "ops@example.com")
	subs := f.addSubscribers(t, 10, nil)

	draw, err := f.draws.RunCycle(context.Background(), drawTime, TriggerScheduler)
	require.NoError(t, err)

	assert.Equal(t, engine.DrawStatusFailed, draw.Status)
	assert.Equal(t, engine.ReasonInsufficientPrizePool, draw.ErrorMessage)
	for _, s := range subs {
		stored, err := f.store.Subscribers.FindByID(context.Background(), s.ID)
		require.NoError(t, err)
		assert.Nil(t, stored.LastWonAt)
	}
	require.Len(t, f.gateway.Sent(), 1)
}

func TestRunCycleRespectsCooldown(t *testing.T) {
	f := newFixture(t, 100000)
	recent := drawTime.AddDate(0, 0, -7)
	cooling := f.addSubscribers(t, 5, &recent)
	fresh := f.addSubscribers(t, 3, nil)

	draw, err := f.draws.RunCycle(context.Background(), drawTime, TriggerScheduler)
	require.NoError(t, err)
	require.Equal(t, engine.DrawStatusCompleted, draw.Status)
	assert.Equal(t, 3, draw.EligibleCount)

	freshIDs := map[string]bool{}
	for _, s := range fresh {
		freshIDs[s.ID.Hex()] = true
	}
	for _, a := range draw.Allocations {
		assert.True(t, freshIDs[a.SubscriberID], "winner %s was cooling down", a.SubscriberID)
	}
	assert.Len(t, cooling, 5)
}

func TestRunCycleIsDeterministicForSeed(t *testing.T) {
	a := newFixture(t, 100000)
	b := newFixture(t, 100000)
	subsA := a.addSubscribers(t, 10, nil)
	subsB := b.addSubscribers(t, 10, nil)

	drawA, err := a.draws.RunCycle(context.Background(), drawTime, TriggerCLI)
	require.NoError(t, err)
	drawB, err := b.draws.RunCycle(context.Background(), drawTime, TriggerCLI)
	require.NoError(t, err)

	index := func(subs []*models.Subscriber, id string) int {
		for i, s := range subs {
			if s.ID.Hex() == id {
				return i
			}
		}
		return -1
	}
	require.Len(t, drawB.Allocations, len(drawA.Allocations))
	for i := range drawA.Allocations {
		assert.Equal(t, index(subsA, drawA.Allocations[i].SubscriberID), index(subsB, drawB.Allocations[i].SubscriberID))
		assert.Equal(t, drawA.Allocations[i].Amount, drawB.Allocations[i].Amount)
	}
}

func TestRunCyclePersistFailureAbortsCommands(t *testing.T) {
	f := newFixture(t, 100000)
	subs := f.addSubscribers(t, 10, nil)
	f.store.Draws.CreateErr = errors.New("primary unavailable")

	draw, err := f.draws.RunCycle(context.Background(), drawTime, TriggerScheduler)
	require.Error(t, err)
	assert.Nil(t, draw)
	assert.Contains(t, err.Error(), "primary unavailable")
	assert.Empty(t, f.gateway.Sent())
	for _, s := range subs {
		stored, err := f.store.Subscribers.FindByID(context.Background(), s.ID)
		require.NoError(t, err)
		assert.Nil(t, stored.LastWonAt)
	}
}

// flakyWinners stores the winners and then reports a write failure, like a
// bulk insert that times out after reaching the server
type flakyWinners struct {
	*memory.WinnerRepository
	failures int
}

func (w *flakyWinners) CreateMany(ctx context.Context, winners []*models.Winner) error {
	if err := w.WinnerRepository.CreateMany(ctx, winners); err != nil {
		return err
	}
	if w.failures > 0 {
		w.failures--
		return errors.New("write timeout")
	}
	return nil
}

func TestRunCycleWinnerWriteFailureLeavesNoDraw(t *testing.T) {
	f := newFixture(t, 30000)
	subs := f.addSubscribers(t, 10, nil)

	winners := &flakyWinners{WinnerRepository: f.store.Winners, failures: 1}
	executor := NewCommandExecutor(f.store.Draws, winners, f.store.Subscribers, f.notifications)
	draws := NewDrawService(f.store.Draws, f.store.Subscribers, winners, f.settings, f.notifications, executor, 30000).
		WithSourceFactory(func() (engine.RandomSource, int64) { return engine.NewSeededSource(testSeed), testSeed })

	draw, err := draws.RunCycle(context.Background(), drawTime, TriggerScheduler)
	require.Error(t, err)
	assert.Nil(t, draw)
	assert.Contains(t, err.Error(), "write timeout")

	_, err = f.store.Draws.FindByCycleID(context.Background(), "2024-W10")
	assert.ErrorIs(t, err, mongo.ErrNoDocuments)
	for _, s := range subs {
		wins, err := f.store.Winners.FindBySubscriberID(context.Background(), s.ID.Hex())
		require.NoError(t, err)
		assert.Empty(t, wins)
		stored, err := f.store.Subscribers.FindByID(context.Background(), s.ID)
		require.NoError(t, err)
		assert.Nil(t, stored.LastWonAt)
	}
	assert.Empty(t, f.gateway.Sent())

	// The week can be retried once the store recovers
	draw, err = draws.RunCycle(context.Background(), drawTime, TriggerScheduler)
	require.NoError(t, err)
	assert.Equal(t, engine.DrawStatusCompleted, draw.Status)
	stored, err := f.store.Winners.FindByDrawID(context.Background(), draw.ID)
	require.NoError(t, err)
	assert.Len(t, stored, 3)
	assert.Len(t, f.gateway.Sent(), 3)
}

func TestRunCycleDrawWriteFailureRemovesWinners(t *testing.T) {
	f := newFixture(t, 100000)
	f.addSubscribers(t, 10, nil)
	f.store.Draws.CreateErr = errors.New("primary unavailable")

	_, err := f.draws.RunCycle(context.Background(), drawTime, TriggerScheduler)
	require.Error(t, err)

	for _, s := range mustSubscribers(t, f) {
		wins, err := f.store.Winners.FindBySubscriberID(context.Background(), s.ID.Hex())
		require.NoError(t, err)
		assert.Empty(t, wins)
	}
}

func mustSubscribers(t *testing.T, f *fixture) []*models.Subscriber {
	t.Helper()
	subs, err := f.store.Subscribers.FindAll(context.Background())
	require.NoError(t, err)
	return subs
}

func TestRunCycleNotificationFailureIsPartial(t *testing.T) {
	f := newFixture(t, 100000)
	subs := f.addSubscribers(t, 3, nil)
	f.gateway.Fail = map[string]error{}
	for _, s := range subs {
		f.gateway.Fail[s.Email] = errors.New("mailbox full")
	}

	draw, err := f.draws.RunCycle(context.Background(), drawTime, TriggerScheduler)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPartialExecution)
	require.NotNil(t, draw)
	assert.Equal(t, engine.DrawStatusCompleted, draw.Status)

	notifications, err := f.notifications.GetByCycle(context.Background(), draw.CycleID)
	require.NoError(t, err)
	require.Len(t, notifications, 3)
	for _, n := range notifications {
		assert.Equal(t, models.NotificationStatusFailed, n.Status)
		assert.Equal(t, "mailbox full", n.StatusMessage)
	}

	// Cooldowns are still applied
	for _, s := range subs {
		stored, err := f.store.Subscribers.FindByID(context.Background(), s.ID)
		require.NoError(t, err)
		assert.NotNil(t, stored.LastWonAt)
	}
}

func TestRunCycleUsesSavedSettings(t *testing.T) {
	f := newFixture(t, 100000)
	f.addSubscribers(t, 10, nil)
	settings := models.DefaultDrawSettings()
	settings.WinnersPerDraw = 5
	settings.DrawSharePercent = 40
	settings.ProfitSharePercent = 40
	_, err := f.settings.UpdateDrawSettings(context.Background(), settings, "ops@example.com")
	require.NoError(t, err)

	draw, err := f.draws.RunCycle(context.Background(), drawTime, TriggerAdmin)
	require.NoError(t, err)
	assert.Len(t, draw.Allocations, 5)
	assert.Equal(t, engine.Money(100000), draw.TotalPool)
	assert.Equal(t, 2, draw.Settings.Version)
}

func TestPreflight(t *testing.T) {
	t.Run("insufficient alerts admins", func(t *testing.T) {
		f := newFixture(t, 100000, "ops@example.com", "cfo@example.com")
		f.addSubscribers(t, 2, nil)

		now := drawTime.AddDate(0, 0, -2)
		result, err := f.draws.Preflight(context.Background(), now, true)
		require.NoError(t, err)

		assert.False(t, result.Sufficient)
		assert.Equal(t, 2, result.EligibleCount)
		assert.Equal(t, 3, result.Required)
		assert.Equal(t, "2024-W10", result.CycleID)
		assert.True(t, result.AdminsNotified)

		sent := f.gateway.Sent()
		require.Len(t, sent, 2)
		assert.Contains(t, sent[0].Subject, "at risk")

		notifications, err := f.notifications.GetByCycle(context.Background(), "2024-W10")
		require.NoError(t, err)
		require.Len(t, notifications, 2)
		assert.Equal(t, models.NotificationTypePreflight, notifications[0].Type)
	})

	t.Run("report only leaves admins alone", func(t *testing.T) {
		f := newFixture(t, 100000, "ops@example.com")
		f.addSubscribers(t, 2, nil)

		result, err := f.draws.Preflight(context.Background(), drawTime.AddDate(0, 0, -2), false)
		require.NoError(t, err)
		assert.False(t, result.Sufficient)
		assert.False(t, result.AdminsNotified)
		assert.Empty(t, f.gateway.Sent())

		notifications, err := f.notifications.GetByCycle(context.Background(), "2024-W10")
		require.NoError(t, err)
		assert.Empty(t, notifications)
	})

	t.Run("sufficient stays quiet", func(t *testing.T) {
		f := newFixture(t, 100000, "ops@example.com")
		f.addSubscribers(t, 3, nil)

		result, err := f.draws.Preflight(context.Background(), drawTime.AddDate(0, 0, -2), true)
		require.NoError(t, err)
		assert.True(t, result.Sufficient)
		assert.False(t, result.AdminsNotified)
		assert.Empty(t, f.gateway.Sent())
	})

	t.Run("does not write draws", func(t *testing.T) {
		f := newFixture(t, 100000)
		f.addSubscribers(t, 1, nil)

		_, err := f.draws.Preflight(context.Background(), drawTime, true)
		require.NoError(t, err)
		count, err := f.store.Draws.Count(context.Background())
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}

func TestReplay(t *testing.T) {
	f := newFixture(t, 100000)
	subs := f.addSubscribers(t, 10, nil)
	now := time.Now().UTC()

	draw, err := f.draws.RunCycle(context.Background(), now, TriggerAdmin)
	require.NoError(t, err)

	result, err := f.draws.Replay(context.Background(), draw.CycleID)
	require.NoError(t, err)
	assert.True(t, result.Match, result.Reason)
	assert.Equal(t, int64(testSeed), result.Seed)
	assert.Equal(t, result.Recorded, result.Replayed)

	// Subscribers who join later do not disturb the replay
	f.addSubscribers(t, 4, nil)
	result, err = f.draws.Replay(context.Background(), draw.CycleID)
	require.NoError(t, err)
	assert.True(t, result.Match, result.Reason)

	// Everyone unsubscribing makes the replay fail
	for _, s := range subs {
		s.IsSubscribed = false
		require.NoError(t, f.store.Subscribers.Update(context.Background(), s))
	}
	result, err = f.draws.Replay(context.Background(), draw.CycleID)
	require.NoError(t, err)
	assert.False(t, result.Match)
	assert.Equal(t, engine.DrawStatusFailed, result.ReplayedStatus)
	assert.NotEmpty(t, result.Reason)
}

func TestReplayUnknownCycle(t *testing.T) {
	f := newFixture(t, 100000)
	_, err := f.draws.Replay(context.Background(), "2020-W01")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDrawQueries(t *testing.T) {
	f := newFixture(t, 100000)
	f.addSubscribers(t, 10, nil)
	ctx := context.Background()

	first, err := f.draws.RunCycle(ctx, drawTime, TriggerScheduler)
	require.NoError(t, err)
	second, err := f.draws.RunCycle(ctx, drawTime.AddDate(0, 0, 7*5), TriggerScheduler)
	require.NoError(t, err)

	got, err := f.draws.GetDraw(ctx, first.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, first.CycleID, got.CycleID)

	got, err = f.draws.GetDrawByCycle(ctx, second.CycleID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)

	draws, total, err := f.draws.ListDraws(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, draws, 1)
	assert.Equal(t, second.ID, draws[0].ID)

	winners, err := f.draws.GetWinners(ctx, first.ID.Hex())
	require.NoError(t, err)
	assert.Len(t, winners, 3)

	_, err = f.draws.GetDraw(ctx, "not-hex")
	assert.ErrorIs(t, err, ErrInvalidID)
	_, err = f.draws.GetDraw(ctx, primitive.NewObjectID().Hex())
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.draws.GetDrawByCycle(ctx, "1999-W01")
	assert.ErrorIs(t, err, ErrNotFound)
}
