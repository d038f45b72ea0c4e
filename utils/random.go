// SPDX-License-Identifier: EPL-2.0

package utils

import "math/rand"

// Rand is the random source used for grain parameters. It is not safe for
// concurrent use; each engine owns its own.
type Rand struct {
	r *rand.Rand
}

// NewRand returns a generator seeded with seed.
func NewRand(seed int64) *Rand {
	return &Rand{r: rand.New(rand.NewSource(seed))}
}

// Seed resets the sequence, which makes grain scheduling repeatable.
func (r *Rand) Seed(seed int64) {
	r.r.Seed(seed)
}

// UniformRandom returns a value in [lo, hi). When lo == hi it returns lo.
func (r *Rand) UniformRandom(lo, hi float64) float64 {
	if lo == hi {
		return lo
	}

	return lo + r.r.Float64()*(hi-lo)
}

// CoinFlip returns 0 or 1.
func (r *Rand) CoinFlip() int {
	return r.r.Intn(2)
}

// Intn returns a value in [0, n). n <= 0 gives 0.
func (r *Rand) Intn(n int) int {
	if n <= 0 {
		return 0
	}

	return r.r.Intn(n)
}

// RandomlyDeviate returns number moved up or down by at most
// maxDeviationPercent of itself.
func (r *Rand) RandomlyDeviate(number, maxDeviationPercent float64) float64 {
	u := r.UniformRandom(-maxDeviationPercent, maxDeviationPercent) * 0.01

	return number * (1 + u)
}
