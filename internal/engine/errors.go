package engine

import "errors"

var (
	// ErrInvalidConfiguration reports malformed percentages, floor or winner count.
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrInsufficientEligibleSubscribers reports fewer eligible subscribers than winners needed.
	ErrInsufficientEligibleSubscribers = errors.New("insufficient eligible subscribers")
	// ErrInsufficientPrizePool reports a pool too small to pay every winner the floor.
	ErrInsufficientPrizePool = errors.New("insufficient prize pool")
)
