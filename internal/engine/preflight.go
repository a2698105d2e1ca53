package engine

import "time"

// PreflightReport is the outcome of an early sufficiency check.
type PreflightReport struct {
	EligibleCount int  `json:"eligibleCount"`
	Required      int  `json:"required"`
	Sufficient    bool `json:"sufficient"`
}

// CheckSufficiency reports whether enough subscribers are currently eligible for a draw.
// A configuration with no winners can never run, so it is never sufficient.
func CheckSufficiency(subscribers []Subscriber, cfg Configuration, now time.Time) PreflightReport {
	count := len(FilterEligible(subscribers, cfg, now))
	return PreflightReport{
		EligibleCount: count,
		Required:      cfg.WinnersPerDraw,
		Sufficient:    cfg.WinnersPerDraw > 0 && count >= cfg.WinnersPerDraw,
	}
}
