package engine

import "fmt"

// SelectWinners picks winnersPerDraw distinct subscribers uniformly at random.
// The eligible slice is not modified.
func SelectWinners(eligible []Subscriber, winnersPerDraw int, rng RandomSource) ([]Subscriber, error) {
	if winnersPerDraw <= 0 {
		return nil, fmt.Errorf("%w: winners per draw must be positive, got %d", ErrInvalidConfiguration, winnersPerDraw)
	}
	if len(eligible) < winnersPerDraw {
		return nil, fmt.Errorf("%w: got %d, need %d", ErrInsufficientEligibleSubscribers, len(eligible), winnersPerDraw)
	}

	pool := make([]Subscriber, len(eligible))
	copy(pool, eligible)
	shuffle(len(pool), rng, func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	return pool[:winnersPerDraw:winnersPerDraw], nil
}
