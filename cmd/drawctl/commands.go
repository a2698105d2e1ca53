package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ArowuTest/subscriber-draw-backend/internal/app"
	"github.com/ArowuTest/subscriber-draw-backend/internal/config"
	"github.com/ArowuTest/subscriber-draw-backend/internal/engine"
	"github.com/ArowuTest/subscriber-draw-backend/internal/logging"
	"github.com/ArowuTest/subscriber-draw-backend/internal/models"
	"github.com/ArowuTest/subscriber-draw-backend/internal/services"
	"github.com/ArowuTest/subscriber-draw-backend/internal/utils"
	"github.com/spf13/cobra"
)

// cli holds state shared by drawctl commands
type cli struct {
	configPath string
	logLevel   string
	at         string
	notify     bool

	// open connects to the configured store. Tests swap it for an in-memory application.
	open func(ctx context.Context, cfg *config.Config) (*app.Application, func(), error)
	now  func() time.Time
}

func newCLI() *cli {
	return &cli{
		open: func(ctx context.Context, cfg *config.Config) (*app.Application, func(), error) {
			application, client, err := app.Connect(ctx, cfg)
			if err != nil {
				return nil, nil, err
			}
			return application, func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = client.Disconnect(ctx)
			}, nil
		},
		now: time.Now,
	}
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "drawctl",
		Short:         "Run and inspect weekly subscriber draws",
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "Path to config file (default: ./config.yaml)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "Override log level (debug, info, warn, error)")

	root.AddCommand(
		c.runCmd(),
		c.preflightCmd(),
		c.replayCmd(),
		c.simulateCmd(),
		c.importCmd(),
		c.createAdminCmd(),
	)
	return root
}

// withApp loads config, opens the store and calls fn with a signal-aware context
func (c *cli) withApp(cmd *cobra.Command, fn func(ctx context.Context, cfg *config.Config, application *app.Application) error) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	level := cfg.LogLevel
	if c.logLevel != "" {
		level = c.logLevel
	}
	logging.SetupWriter(cmd.ErrOrStderr(), level)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, closeFn, err := c.open(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	return fn(ctx, cfg, application)
}

// drawTime is the moment a command acts at, in the draw timezone
func (c *cli) drawTime(cfg *config.Config) (time.Time, error) {
	loc, err := time.LoadLocation(cfg.Scheduler.Timezone)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timezone %q: %w", cfg.Scheduler.Timezone, err)
	}
	if c.at == "" {
		return c.now().In(loc), nil
	}
	t, err := time.ParseInLocation(time.RFC3339, c.at, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --at value: %w", err)
	}
	return t.In(loc), nil
}

func (c *cli) runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the draw for the current week",
		Long: `Run the draw for the ISO week containing --at (default: now).

A week runs at most once; a second run reports that the cycle already ran.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, cfg *config.Config, application *app.Application) error {
				now, err := c.drawTime(cfg)
				if err != nil {
					return err
				}
				draw, err := application.Draws.RunCycle(ctx, now, services.TriggerCLI)
				if draw != nil {
					if werr := writeJSON(cmd.OutOrStdout(), draw); werr != nil {
						return werr
					}
				}
				return err
			})
		},
	}
	cmd.Flags().StringVar(&c.at, "at", "", "Run as of this RFC3339 time instead of now")
	return cmd
}

func (c *cli) preflightCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preflight",
		Short: "Check whether enough subscribers are eligible for the upcoming draw",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, cfg *config.Config, application *app.Application) error {
				now, err := c.drawTime(cfg)
				if err != nil {
					return err
				}
				result, err := application.Draws.Preflight(ctx, now, c.notify)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), result)
			})
		},
	}
	cmd.Flags().StringVar(&c.at, "at", "", "Check as of this RFC3339 time instead of now")
	cmd.Flags().BoolVar(&c.notify, "notify", false, "Alert admins when the check fails")
	return cmd
}

func (c *cli) replayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "replay <cycleId>",
		Short: "Re-run a recorded cycle with its stored seed and compare allocations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, cfg *config.Config, application *app.Application) error {
				result, err := application.Draws.Replay(ctx, args[0])
				if err != nil {
					return err
				}
				if err := writeJSON(cmd.OutOrStdout(), result); err != nil {
					return err
				}
				if !result.Match {
					return fmt.Errorf("replay of %s does not match the recorded draw", args[0])
				}
				return nil
			})
		},
	}
}

func (c *cli) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import or update subscribers from a CSV export",
		Long: `Import or update subscribers from a CSV export.

Recognised columns: Email (required), Name, Subscribed/Status/Active,
Subscribed Date, Last Won.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			return c.withApp(cmd, func(ctx context.Context, cfg *config.Config, application *app.Application) error {
				result, err := utils.NewSubscriberImporter(application.Stores.Subscribers).Import(ctx, f)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), result)
			})
		},
	}
}

func (c *cli) createAdminCmd() *cobra.Command {
	var req models.RegisterRequest
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin user for the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(req.Password) < 8 {
				return fmt.Errorf("password must be at least 8 characters")
			}
			return c.withApp(cmd, func(ctx context.Context, cfg *config.Config, application *app.Application) error {
				user, err := application.Auth.Register(ctx, &req)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), user)
			})
		},
	}
	cmd.Flags().StringVar(&req.Email, "email", "", "Admin email")
	cmd.Flags().StringVar(&req.Password, "password", "", "Admin password")
	cmd.Flags().StringVar(&req.FirstName, "first-name", "Admin", "First name")
	cmd.Flags().StringVar(&req.LastName, "last-name", "User", "Last name")
	cmd.Flags().StringVar(&req.Role, "role", services.RoleAdmin, "Role (admin or operator)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

// simulation is the simulate command's report
type simulation struct {
	CycleID       string              `json:"cycleId"`
	Status        engine.DrawStatus   `json:"status"`
	Reason        string              `json:"reason,omitempty"`
	Seed          int64               `json:"seed"`
	EligibleCount int                 `json:"eligibleCount"`
	TotalRevenue  string              `json:"totalRevenue"`
	TotalPool     string              `json:"totalPool"`
	Allocations   []engine.Allocation `json:"allocations"`
}

func (c *cli) simulateCmd() *cobra.Command {
	var (
		subscribers int
		winners     int
		revenue     int64
		minimum     int64
		drawShare   int
		seed        int64
	)
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run the draw engine on synthetic subscribers without touching the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if subscribers < 0 {
				return fmt.Errorf("--subscribers must not be negative")
			}
			if seed == 0 {
				seed = engine.NewSeed()
			}

			settings := models.DefaultDrawSettings()
			settings.WinnersPerDraw = winners
			settings.MinimumRewardAmount = engine.Money(minimum)
			if drawShare != settings.DrawSharePercent {
				settings.DrawSharePercent = drawShare
				settings.ProfitSharePercent = 100 - drawShare
				settings.MaintenanceSharePercent = 0
			}
			if err := services.ValidateDrawSettings(settings); err != nil {
				return err
			}

			pool := make([]engine.Subscriber, subscribers)
			for i := range pool {
				pool[i] = engine.Subscriber{
					ID:           fmt.Sprintf("sim-%05d", i+1),
					Contact:      fmt.Sprintf("subscriber%05d@example.com", i+1),
					IsSubscribed: true,
				}
			}

			now := c.now().UTC()
			result := engine.RunCycle(engine.CycleInput{
				Subscribers:    pool,
				MonthlyRevenue: engine.Money(revenue),
				Config:         settings.ToEngine(),
				Now:            now,
				Rng:            engine.NewSeededSource(seed),
				Seed:           seed,
			})

			record := result.Record
			return writeJSON(cmd.OutOrStdout(), simulation{
				CycleID:       record.CycleID,
				Status:        record.Status,
				Reason:        record.Reason,
				Seed:          record.Seed,
				EligibleCount: record.EligibleCount,
				TotalRevenue:  services.FormatAmount(record.TotalRevenue),
				TotalPool:     services.FormatAmount(record.TotalPool),
				Allocations:   record.Allocations,
			})
		},
	}
	defaults := models.DefaultDrawSettings()
	cmd.Flags().IntVar(&subscribers, "subscribers", 100, "Number of synthetic eligible subscribers")
	cmd.Flags().IntVar(&winners, "winners", defaults.WinnersPerDraw, "Winners per draw")
	cmd.Flags().Int64Var(&revenue, "revenue", 1000000, "Monthly revenue in minor units")
	cmd.Flags().Int64Var(&minimum, "minimum", int64(defaults.MinimumRewardAmount), "Minimum reward in minor units")
	cmd.Flags().IntVar(&drawShare, "draw-share", defaults.DrawSharePercent, "Percent of revenue paid into the prize pool")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Random seed (0 picks one and reports it)")
	return cmd
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
