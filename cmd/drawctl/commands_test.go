package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ArowuTest/subscriber-draw-backend/internal/app"
	"github.com/ArowuTest/subscriber-draw-backend/internal/config"
	"github.com/ArowuTest/subscriber-draw-backend/internal/engine"
	"github.com/ArowuTest/subscriber-draw-backend/internal/models"
	"github.com/ArowuTest/subscriber-draw-backend/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var drawTime = time.Date(2024, time.March, 9, 18, 0, 0, 0, time.UTC)

// memoryCLI returns a cli whose commands share one in-memory application
func memoryCLI(t *testing.T, subscribers int) (*cli, *app.Application) {
	t.Helper()
	cfg := &config.Config{
		JWT:      config.JWTConfig{Secret: "cli-secret", ExpiresIn: 3600},
		Notifier: config.NotifierConfig{Mock: true},
		Billing:  config.BillingConfig{SubscriptionFee: 100000},
	}
	application := app.New(cfg, app.Stores{}, nil)
	for i := 0; i < subscribers; i++ {
		require.NoError(t, application.Stores.Subscribers.Create(context.Background(), &models.Subscriber{
			Email:        fmt.Sprintf("cli%02d@example.com", i),
			IsSubscribed: true,
		}))
	}

	c := newCLI()
	c.now = func() time.Time { return drawTime }
	c.open = func(context.Context, *config.Config) (*app.Application, func(), error) {
		return application, func() {}, nil
	}
	return c, application
}

func execute(c *cli, args ...string) (string, error) {
	root := newRootCmd(c)
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestSimulateIsDeterministicForSeed(t *testing.T) {
	c := newCLI()
	c.now = func() time.Time { return drawTime }

	args := []string{"simulate", "--subscribers", "50", "--winners", "5", "--revenue", "2000000", "--seed", "7"}
	first, err := execute(c, args...)
	require.NoError(t, err)
	second, err := execute(c, args...)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	var report simulation
	require.NoError(t, json.Unmarshal([]byte(first), &report))
	assert.Equal(t, engine.DrawStatusCompleted, report.Status)
	assert.Equal(t, "2024-W10", report.CycleID)
	assert.Equal(t, int64(7), report.Seed)
	assert.Equal(t, "10,000.00", report.TotalPool)
	require.Len(t, report.Allocations, 5)

	var total engine.Money
	for _, a := range report.Allocations {
		assert.GreaterOrEqual(t, a.Amount, engine.Money(10000))
		total += a.Amount
	}
	assert.Equal(t, engine.Money(1000000), total)
}

func TestSimulateReportsFailedCycle(t *testing.T) {
	c := newCLI()
	c.now = func() time.Time { return drawTime }

	out, err := execute(c, "simulate", "--subscribers", "2", "--winners", "3", "--seed", "1")
	require.NoError(t, err)

	var report simulation
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, engine.DrawStatusFailed, report.Status)
	assert.NotEmpty(t, report.Reason)
	assert.Empty(t, report.Allocations)
}

func TestSimulateRejectsInvalidSettings(t *testing.T) {
	_, err := execute(newCLI(), "simulate", "--winners", "0")
	assert.Error(t, err)
}

func TestRunPreflightAndReplay(t *testing.T) {
	c, application := memoryCLI(t, 8)
	// replay only considers subscribers that existed at draw time
	c.now = time.Now

	out, err := execute(c, "run")
	require.NoError(t, err)
	var draw models.Draw
	require.NoError(t, json.Unmarshal([]byte(out), &draw))
	assert.Equal(t, engine.DrawStatusCompleted, draw.Status)
	assert.Equal(t, services.TriggerCLI, draw.Trigger)

	_, err = execute(c, "run")
	assert.ErrorIs(t, err, services.ErrCycleAlreadyRan)

	out, err = execute(c, "replay", draw.CycleID)
	require.NoError(t, err)
	var replay services.ReplayResult
	require.NoError(t, json.Unmarshal([]byte(out), &replay))
	assert.True(t, replay.Match)

	out, err = execute(c, "preflight")
	require.NoError(t, err)
	var preflight services.PreflightResult
	require.NoError(t, json.Unmarshal([]byte(out), &preflight))
	assert.Equal(t, 3, preflight.Required)

	stored, err := application.Stores.Draws.FindByCycleID(context.Background(), draw.CycleID)
	require.NoError(t, err)
	assert.Equal(t, draw.ID, stored.ID)
}

func TestRunAtExplicitTime(t *testing.T) {
	c, _ := memoryCLI(t, 5)

	out, err := execute(c, "run", "--at", "2024-06-01T18:00:00Z")
	require.NoError(t, err)
	var draw models.Draw
	require.NoError(t, json.Unmarshal([]byte(out), &draw))
	assert.Equal(t, "2024-W22", draw.CycleID)

	_, err = execute(c, "run", "--at", "next saturday")
	assert.Error(t, err)
}

func TestImportCommand(t *testing.T) {
	c, application := memoryCLI(t, 0)

	path := filepath.Join(t.TempDir(), "subscribers.csv")
	require.NoError(t, os.WriteFile(path, []byte("Email,Name\nnew@example.com,New Person\n"), 0o600))

	_, err := execute(c, "import", path)
	require.NoError(t, err)

	subscriber, err := application.Stores.Subscribers.FindByEmail(context.Background(), "new@example.com")
	require.NoError(t, err)
	assert.Equal(t, "New Person", subscriber.Name)

	_, err = execute(c, "import", filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestCreateAdminCommand(t *testing.T) {
	c, application := memoryCLI(t, 0)

	_, err := execute(c, "create-admin", "--email", "root@example.com", "--password", "short")
	assert.Error(t, err)

	_, err = execute(c, "create-admin", "--email", "root@example.com", "--password", "a-long-password")
	require.NoError(t, err)

	user, err := application.Stores.AdminUsers.FindByEmail(context.Background(), "root@example.com")
	require.NoError(t, err)
	assert.Equal(t, services.RoleAdmin, user.Role)
}
