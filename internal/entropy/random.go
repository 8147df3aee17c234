// Package entropy provides the seeded random stream every generation phase draws from.
// A linear congruential generator keeps whole boards reproducible from one integer seed.
package entropy

import "time"

const (
	multiplier = 1664525
	increment  = 1013904223
	modulus    = 2147483647
)

// Stream is a deterministic LCG: s' = (s*1664525 + 1013904223) mod 2147483647.
// A Stream is not safe for concurrent use; each generation owns its own.
type Stream struct {
	seed  int64
	state int64
}

// New creates a stream. A zero seed is replaced by a wall-clock value,
// which is the only non-reproducible case. Use Seed to recover it.
func New(seed int64) *Stream {
	if seed == 0 {
		seed = time.Now().UnixMilli() % modulus
		if seed == 0 {
			seed = 1
		}
	}
	state := seed % modulus
	if state < 0 {
		state += modulus
	}
	return &Stream{seed: seed, state: state}
}

// Seed returns the effective seed, after wall-clock substitution.
func (s *Stream) Seed() int64 {
	return s.seed
}

// Float returns the next value in [0, 1).
func (s *Stream) Float() float64 {
	s.state = (s.state*multiplier + increment) % modulus
	return float64(s.state) / modulus
}

// Intn returns floor(Float()*n). n <= 0 returns 0 without consuming a draw.
func (s *Stream) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return int(s.Float() * float64(n))
}

// Range returns an integer in [min, max], both inclusive.
func (s *Stream) Range(min, max int) int {
	if max < min {
		min, max = max, min
	}
	return int(s.Float()*float64(max-min+1)) + min
}

// Uniform returns a float in [lo, hi).
func (s *Stream) Uniform(lo, hi float64) float64 {
	return lo + s.Float()*(hi-lo)
}

// Chance reports whether the next draw falls below p.
func (s *Stream) Chance(p float64) bool {
	return s.Float() < p
}

// Sign returns -1 or +1 with equal probability.
func (s *Stream) Sign() int {
	if s.Float() < 0.5 {
		return -1
	}
	return 1
}

// Shuffle permutes xs in place with Fisher-Yates driven by the stream.
func Shuffle[T any](s *Stream, xs []T) {
	for i := len(xs) - 1; i > 0; i-- {
		j := int(s.Float() * float64(i+1))
		xs[i], xs[j] = xs[j], xs[i]
	}
}

// Pick returns a uniformly chosen element of xs. xs must not be empty.
func Pick[T any](s *Stream, xs []T) T {
	return xs[s.Intn(len(xs))]
}
