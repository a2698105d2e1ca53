package engine

import "fmt"

// ComputePool returns floor(monthlyRevenue * drawSharePercent / 100 / WeeksPerMonth).
// The percentages are not checked to sum to 100.
func ComputePool(monthlyRevenue Money, cfg Configuration) (Money, error) {
	if cfg.DrawSharePercent < 0 {
		return 0, fmt.Errorf("%w: draw share percent %d is negative", ErrInvalidConfiguration, cfg.DrawSharePercent)
	}
	if monthlyRevenue < 0 {
		return 0, fmt.Errorf("%w: monthly revenue %d would yield a negative pool", ErrInvalidConfiguration, monthlyRevenue)
	}

	// Split revenue into quotient and remainder of the divisor so the product
	// stays within int64 for realistic revenue figures.
	const divisor = 100 * WeeksPerMonth
	share := Money(cfg.DrawSharePercent)
	q, r := monthlyRevenue/divisor, monthlyRevenue%divisor
	return q*share + r*share/divisor, nil
}
