package engine

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"time"
)

// RandomSource supplies the randomness for one cycle. A source must have a single
// owner for the duration of a cycle; *rand.Rand satisfies it.
type RandomSource interface {
	Int63n(n int64) int64
	Intn(n int) int
}

// NewSeededSource returns a deterministic source for the given seed.
func NewSeededSource(seed int64) RandomSource {
	return rand.New(rand.NewSource(seed))
}

// NewSource returns a freshly seeded source together with its seed so the cycle
// can be replayed later.
func NewSource() (RandomSource, int64) {
	seed := NewSeed()
	return NewSeededSource(seed), seed
}

// NewSeed draws a seed from crypto/rand, falling back to the clock.
func NewSeed() int64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return time.Now().UnixNano()
	}
	return int64(binary.LittleEndian.Uint64(b[:]) >> 1)
}

// shuffle performs an in-place Fisher-Yates shuffle.
func shuffle(n int, rng RandomSource, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		swap(i, j)
	}
}
