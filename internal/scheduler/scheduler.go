// Package scheduler triggers the weekly draw and its preflight check on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ArowuTest/subscriber-draw-backend/internal/config"
	"github.com/ArowuTest/subscriber-draw-backend/internal/services"
	"github.com/robfig/cron/v3"
	"golang.org/x/exp/slog"
)

// jobTimeout bounds a single draw or preflight run
const jobTimeout = 5 * time.Minute

var weekdays = []string{"SUN", "MON", "TUE", "WED", "THU", "FRI", "SAT"}

// Scheduler owns the cron engine for draw and preflight jobs
type Scheduler struct {
	draws    services.DrawService
	settings services.SettingsService
	drawSpec string
	loc      *time.Location
	cron     *cron.Cron
	now      func() time.Time

	mu       sync.Mutex
	ctx      context.Context
	entries  map[string]cron.EntryID
	stopOnce sync.Once
}

// New creates a scheduler for the configured draw spec and timezone
func New(cfg config.SchedulerConfig, draws services.DrawService, settings services.SettingsService) (*Scheduler, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(cfg.DrawSpec); err != nil {
		return nil, fmt.Errorf("parse draw spec %q: %w", cfg.DrawSpec, err)
	}

	logger := cronLogger{}
	return &Scheduler{
		draws:    draws,
		settings: settings,
		drawSpec: cfg.DrawSpec,
		loc:      loc,
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithParser(parser),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		now:     time.Now,
		ctx:     context.Background(),
		entries: make(map[string]cron.EntryID),
	}, nil
}

// Start registers the draw and preflight jobs and starts the cron engine.
// Lead days are read from the saved draw settings once, at start.
func (s *Scheduler) Start(ctx context.Context) error {
	leadDays := 0
	settings, err := s.settings.GetDrawSettings(ctx)
	if err != nil {
		slog.Warn("Scheduler could not load draw settings, preflight job disabled", "error", err)
	} else {
		leadDays = settings.PreflightLeadDays
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctx = ctx

	id, err := s.cron.AddFunc(s.drawSpec, s.runDraw)
	if err != nil {
		return fmt.Errorf("schedule draw job: %w", err)
	}
	s.entries["draw"] = id

	if leadDays > 0 {
		spec, err := PreflightSpec(s.drawSpec, leadDays)
		if err != nil {
			slog.Warn("Preflight job not scheduled", "error", err, "drawSpec", s.drawSpec)
		} else {
			id, err := s.cron.AddFunc(spec, s.runPreflight)
			if err != nil {
				return fmt.Errorf("schedule preflight job: %w", err)
			}
			s.entries["preflight"] = id
		}
	}

	s.cron.Start()
	slog.Info("Scheduler started", "drawSpec", s.drawSpec, "timezone", s.loc.String(), "preflightLeadDays", leadDays)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

// Stop stops the cron engine and waits for running jobs. Safe to call more than once.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		<-s.cron.Stop().Done()
		slog.Info("Scheduler stopped")
	})
}

// Next returns the next fire time of the named job ("draw" or "preflight")
func (s *Scheduler) Next(job string) (time.Time, bool) {
	s.mu.Lock()
	id, ok := s.entries[job]
	s.mu.Unlock()
	if !ok {
		return time.Time{}, false
	}
	return s.cron.Entry(id).Next, true
}

func (s *Scheduler) jobContext() (context.Context, context.CancelFunc) {
	s.mu.Lock()
	parent := s.ctx
	s.mu.Unlock()
	return context.WithTimeout(parent, jobTimeout)
}

func (s *Scheduler) runDraw() {
	ctx, cancel := s.jobContext()
	defer cancel()

	draw, err := s.draws.RunCycle(ctx, s.now().In(s.loc), services.TriggerScheduler)
	switch {
	case errors.Is(err, services.ErrCycleAlreadyRan):
		slog.Info("Scheduled draw skipped, cycle already ran", "error", err)
	case errors.Is(err, services.ErrPartialExecution) && draw != nil:
		slog.Warn("Scheduled draw recorded with follow-up errors", "cycleID", draw.CycleID, "error", err)
	case err != nil:
		slog.Error("Scheduled draw failed", "error", err)
	default:
		slog.Info("Scheduled draw finished", "cycleID", draw.CycleID, "status", draw.Status, "winners", draw.NumWinners)
	}
}

func (s *Scheduler) runPreflight() {
	ctx, cancel := s.jobContext()
	defer cancel()

	result, err := s.draws.Preflight(ctx, s.now().In(s.loc), true)
	if err != nil {
		slog.Error("Scheduled preflight failed", "error", err)
		return
	}
	slog.Info("Scheduled preflight finished", "cycleID", result.CycleID, "eligible", result.EligibleCount, "required", result.Required, "sufficient", result.Sufficient)
}

// PreflightSpec derives the preflight cron spec from a weekly draw spec by moving
// its single day-of-week back by leadDays. Minute, hour and month are kept.
func PreflightSpec(drawSpec string, leadDays int) (string, error) {
	fields := strings.Fields(drawSpec)
	if len(fields) != 5 {
		return "", fmt.Errorf("draw spec %q is not a 5-field weekly schedule", drawSpec)
	}
	if fields[2] != "*" {
		return "", fmt.Errorf("draw spec %q pins a day of month", drawSpec)
	}
	day, err := parseWeekday(fields[4])
	if err != nil {
		return "", err
	}
	if leadDays < 1 || leadDays > 6 {
		return "", fmt.Errorf("preflight lead days %d out of range 1..6", leadDays)
	}

	fields[4] = weekdays[((day-leadDays)%7+7)%7]
	return strings.Join(fields, " "), nil
}

func parseWeekday(field string) (int, error) {
	upper := strings.ToUpper(field)
	for i, name := range weekdays {
		if upper == name {
			return i, nil
		}
	}
	n, err := strconv.Atoi(field)
	if err != nil || n < 0 || n > 7 {
		return 0, fmt.Errorf("day-of-week %q must be a single day", field)
	}
	return n % 7, nil
}

// cronLogger routes cron's internal logging through slog
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	slog.Error("cron: "+msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
