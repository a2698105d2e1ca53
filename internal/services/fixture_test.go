package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ArowuTest/subscriber-draw-backend/internal/engine"
	"github.com/ArowuTest/subscriber-draw-backend/internal/models"
	"github.com/ArowuTest/subscriber-draw-backend/internal/repositories/memory"
	"github.com/ArowuTest/subscriber-draw-backend/pkg/notifier"
	"github.com/stretchr/testify/require"
)

const testSeed = 42

type fixture struct {
	store         *memory.Store
	gateway       *notifier.MockGateway
	settings      *SettingsServiceImpl
	notifications *NotificationServiceImpl
	executor      *CommandExecutor
	draws         *DrawServiceImpl
}

func newFixture(t *testing.T, fee engine.Money, admins ...string) *fixture {
	t.Helper()
	store := memory.NewStore()
	gateway := notifier.NewMockGateway()
	settings := NewSettingsService(store.SystemConfig)
	notifications := NewNotificationService(store.Notifications, store.Winners, gateway, admins)
	executor := NewCommandExecutor(store.Draws, store.Winners, store.Subscribers, notifications)
	draws := NewDrawService(store.Draws, store.Subscribers, store.Winners, settings, notifications, executor, fee).
		WithSourceFactory(func() (engine.RandomSource, int64) { return engine.NewSeededSource(testSeed), testSeed })

	return &fixture{
		store:         store,
		gateway:       gateway,
		settings:      settings,
		notifications: notifications,
		executor:      executor,
		draws:         draws,
	}
}

func (f *fixture) addSubscribers(t *testing.T, n int, lastWonAt *time.Time) []*models.Subscriber {
	t.Helper()
	out := make([]*models.Subscriber, 0, n)
	existing, err := f.store.Subscribers.FindAll(context.Background())
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		s := &models.Subscriber{
			Name:         fmt.Sprintf("Subscriber %d", len(existing)+i),
			Email:        fmt.Sprintf("sub%03d@example.com", len(existing)+i),
			IsSubscribed: true,
			SubscribedAt: time.Now().UTC().AddDate(0, -2, 0),
			LastWonAt:    lastWonAt,
		}
		require.NoError(t, f.store.Subscribers.Create(context.Background(), s))
		out = append(out, s)
	}
	return out
}

func sumAllocations(allocs []models.DrawAllocation) engine.Money {
	var total engine.Money
	for _, a := range allocs {
		total += a.Amount
	}
	return total
}
