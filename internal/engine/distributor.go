package engine

import "fmt"

// Distribute splits pool into winnersPerDraw amounts, each at least minimumReward,
// summing exactly to pool. The returned order is shuffled so position carries no
// information about size.
func Distribute(pool Money, winnersPerDraw int, minimumReward Money, rng RandomSource) ([]Money, error) {
	if winnersPerDraw <= 0 {
		return nil, fmt.Errorf("%w: winners per draw must be positive, got %d", ErrInvalidConfiguration, winnersPerDraw)
	}
	if minimumReward <= 0 {
		return nil, fmt.Errorf("%w: minimum reward must be positive, got %d", ErrInvalidConfiguration, minimumReward)
	}
	if !coversFloor(pool, winnersPerDraw, minimumReward) {
		return nil, fmt.Errorf("%w: pool %d is below %d winners x %d", ErrInsufficientPrizePool, pool, winnersPerDraw, minimumReward)
	}

	amounts := make([]Money, winnersPerDraw)
	remaining := pool
	for i := 0; i < winnersPerDraw-1; i++ {
		after := Money(winnersPerDraw - i - 1)
		maxPossible := remaining - after*minimumReward
		amount := minimumReward + Money(rng.Int63n(int64(maxPossible-minimumReward)+1))
		amounts[i] = amount
		remaining -= amount
	}
	// remaining >= minimumReward: every earlier draw left room for the floor.
	amounts[winnersPerDraw-1] = remaining

	shuffle(len(amounts), rng, func(i, j int) { amounts[i], amounts[j] = amounts[j], amounts[i] })
	return amounts, nil
}

// coversFloor reports whether pool >= winners*floor without forming the product,
// which can overflow int64 for large floors. winners must be positive.
func coversFloor(pool Money, winners int, floor Money) bool {
	return pool >= 0 && pool/Money(winners) >= floor
}
