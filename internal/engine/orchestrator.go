package engine

import (
	"errors"
	"fmt"
	"time"
)

// State is a step of the per-cycle state machine.
type State string

const (
	StateNotStarted         State = "NOT_STARTED"
	StateEligibilityChecked State = "ELIGIBILITY_CHECKED"
	StatePoolComputed       State = "POOL_COMPUTED"
	StateWinnersSelected    State = "WINNERS_SELECTED"
	StatePrizesDistributed  State = "PRIZES_DISTRIBUTED"
	StateCompleted          State = "COMPLETED"
	StateFailed             State = "FAILED"
)

// ReasonInsufficientPrizePool is the failure reason recorded when the pool cannot
// cover the floor for every winner.
const ReasonInsufficientPrizePool = "insufficient prize pool"

// CycleInput carries everything one cycle needs.
type CycleInput struct {
	CycleID        string
	Subscribers    []Subscriber
	MonthlyRevenue Money
	Config         Configuration
	Now            time.Time
	Rng            RandomSource
	// Seed is recorded on the draw record so the cycle can be replayed.
	Seed int64
}

// Outcome is either Completed or Failed.
type Outcome interface {
	isOutcome()
}

// Completed is the outcome of a successful cycle.
type Completed struct {
	TotalPool   Money
	Allocations []Allocation
}

// Failed is the outcome of a cycle that stopped before allocating money.
type Failed struct {
	Reason string
	Err    error
}

func (Completed) isOutcome() {}
func (Failed) isOutcome()    {}

// DrawResult is what RunCycle returns: the outcome, the record to persist and the
// commands the caller has to execute.
type DrawResult struct {
	Outcome  Outcome
	State    State
	FailedAt State
	Record   DrawRecord
	Commands []Command
}

// Succeeded reports whether the cycle completed.
func (r DrawResult) Succeeded() bool {
	_, ok := r.Outcome.(Completed)
	return ok
}

// CycleIDFor returns the ISO week identifier of t, e.g. "2024-W07".
func CycleIDFor(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// RunCycle executes one draw cycle: eligibility, pool, selection, distribution.
// It never retries and performs no I/O.
func RunCycle(in CycleInput) DrawResult {
	c := cycle{in: in, state: StateNotStarted}
	if in.CycleID == "" {
		c.in.CycleID = CycleIDFor(in.Now)
	}
	c.record = DrawRecord{
		CycleID:      c.in.CycleID,
		Timestamp:    in.Now,
		TotalRevenue: in.MonthlyRevenue,
		Seed:         in.Seed,
	}
	return c.run()
}

type cycle struct {
	in     CycleInput
	state  State
	record DrawRecord
}

func (c *cycle) run() DrawResult {
	cfg := c.in.Config
	if cfg.WinnersPerDraw <= 0 {
		return c.fail(fmt.Errorf("%w: winners per draw must be positive, got %d", ErrInvalidConfiguration, cfg.WinnersPerDraw))
	}
	if cfg.MinimumRewardAmount <= 0 {
		return c.fail(fmt.Errorf("%w: minimum reward must be positive, got %d", ErrInvalidConfiguration, cfg.MinimumRewardAmount))
	}

	eligible := FilterEligible(c.in.Subscribers, cfg, c.in.Now)
	c.record.EligibleCount = len(eligible)
	if len(eligible) < cfg.WinnersPerDraw {
		return c.fail(fmt.Errorf("%w: got %d, need %d", ErrInsufficientEligibleSubscribers, len(eligible), cfg.WinnersPerDraw))
	}
	c.state = StateEligibilityChecked

	pool, err := ComputePool(c.in.MonthlyRevenue, cfg)
	if err != nil {
		return c.fail(err)
	}
	if !coversFloor(pool, cfg.WinnersPerDraw, cfg.MinimumRewardAmount) {
		return c.fail(fmt.Errorf("%w: pool %d, need %d winners x %d", ErrInsufficientPrizePool, pool, cfg.WinnersPerDraw, cfg.MinimumRewardAmount))
	}
	c.state = StatePoolComputed

	winners, err := SelectWinners(eligible, cfg.WinnersPerDraw, c.in.Rng)
	if err != nil {
		return c.fail(err)
	}
	c.state = StateWinnersSelected

	amounts, err := Distribute(pool, cfg.WinnersPerDraw, cfg.MinimumRewardAmount, c.in.Rng)
	if err != nil {
		return c.fail(err)
	}
	c.state = StatePrizesDistributed

	allocations := make([]Allocation, len(winners))
	for i, w := range winners {
		allocations[i] = Allocation{SubscriberID: w.ID, Contact: w.Contact, Amount: amounts[i]}
	}

	c.record.Status = DrawStatusCompleted
	c.record.TotalPool = pool
	c.record.Allocations = allocations
	c.state = StateCompleted

	commands := make([]Command, 0, 1+2*len(allocations))
	commands = append(commands, PersistDrawRecord{Record: c.record})
	for _, a := range allocations {
		commands = append(commands, UpdateWinnerCooldown{SubscriberID: a.SubscriberID, WonAt: c.in.Now})
	}
	for _, a := range allocations {
		commands = append(commands, NotifyWinner{
			CycleID:      c.record.CycleID,
			SubscriberID: a.SubscriberID,
			Contact:      a.Contact,
			Amount:       a.Amount,
		})
	}

	return DrawResult{
		Outcome:  Completed{TotalPool: pool, Allocations: allocations},
		State:    c.state,
		Record:   c.record,
		Commands: commands,
	}
}

func (c *cycle) fail(err error) DrawResult {
	reason := failureReason(err)
	failedAt := c.state
	c.state = StateFailed
	c.record.Status = DrawStatusFailed
	c.record.Reason = reason

	return DrawResult{
		Outcome:  Failed{Reason: reason, Err: err},
		State:    c.state,
		FailedAt: failedAt,
		Record:   c.record,
		Commands: []Command{
			PersistDrawRecord{Record: c.record},
			NotifyAdmins{CycleID: c.record.CycleID, Reason: reason},
		},
	}
}

func failureReason(err error) string {
	if errors.Is(err, ErrInsufficientPrizePool) {
		return ReasonInsufficientPrizePool
	}
	return err.Error()
}
