package engine

import "time"

// FilterEligible returns the subscribers eligible for the cycle at now, in input order.
// A subscriber is eligible when subscribed and either never won or at least
// cfg.EligibilityCooldownDays have elapsed since the last win.
func FilterEligible(subscribers []Subscriber, cfg Configuration, now time.Time) []Subscriber {
	eligible := make([]Subscriber, 0, len(subscribers))
	cooldown := cfg.Cooldown()
	for _, s := range subscribers {
		if IsEligible(s, cooldown, now) {
			eligible = append(eligible, s)
		}
	}
	return eligible
}

// IsEligible reports whether a single subscriber passes the subscription and cooldown checks.
func IsEligible(s Subscriber, cooldown time.Duration, now time.Time) bool {
	if !s.IsSubscribed {
		return false
	}
	if s.LastWonAt == nil {
		return true
	}
	return now.Sub(*s.LastWonAt) >= cooldown
}
