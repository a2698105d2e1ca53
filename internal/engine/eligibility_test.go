package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ptrTime(t time.Time) *time.Time { return &t }

func TestFilterEligible(t *testing.T) {
	now := time.Date(2024, 3, 9, 18, 0, 0, 0, time.UTC)
	cfg := Configuration{EligibilityCooldownDays: 7, WinnersPerDraw: 1}

	subs := []Subscriber{
		{ID: "never-won", IsSubscribed: true},
		{ID: "unsubscribed", IsSubscribed: false},
		{ID: "exact-boundary", IsSubscribed: true, LastWonAt: ptrTime(now.Add(-7 * 24 * time.Hour))},
		{ID: "one-tick-short", IsSubscribed: true, LastWonAt: ptrTime(now.Add(-7*24*time.Hour + time.Nanosecond))},
		{ID: "long-ago", IsSubscribed: true, LastWonAt: ptrTime(now.AddDate(0, -2, 0))},
		{ID: "unsubscribed-old-winner", IsSubscribed: false, LastWonAt: ptrTime(now.AddDate(-1, 0, 0))},
	}

	got := FilterEligible(subs, cfg, now)

	ids := make([]string, 0, len(got))
	for _, s := range got {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"never-won", "exact-boundary", "long-ago"}, ids)
}

func TestFilterEligible_Empty(t *testing.T) {
	got := FilterEligible(nil, Configuration{}, time.Now())
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFilterEligible_ZeroCooldownReadmitsWinners(t *testing.T) {
	now := time.Now()
	subs := []Subscriber{{ID: "a", IsSubscribed: true, LastWonAt: ptrTime(now)}}

	got := FilterEligible(subs, Configuration{EligibilityCooldownDays: 0}, now)
	assert.Len(t, got, 1)
}

func TestFilterEligible_Deterministic(t *testing.T) {
	now := time.Now()
	cfg := Configuration{EligibilityCooldownDays: 3}
	subs := make([]Subscriber, 0, 50)
	for i := 0; i < 50; i++ {
		s := Subscriber{ID: string(rune('A' + i)), IsSubscribed: i%3 != 0}
		if i%4 == 0 {
			s.LastWonAt = ptrTime(now.Add(-time.Duration(i) * 12 * time.Hour))
		}
		subs = append(subs, s)
	}

	first := FilterEligible(subs, cfg, now)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, FilterEligible(subs, cfg, now))
	}
}
