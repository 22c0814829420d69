// Package sampler provides the random source used to pick operators and their
// parameters. Passing the source explicitly keeps augmentation reproducible
// under a fixed seed.
package sampler

import (
	"math/rand"
	"sync"
)

// Sampler is the subset of *rand.Rand the augmentation pipeline consumes.
type Sampler interface {
	Float64() float64
	Intn(n int) int
	NormFloat64() float64
	Perm(n int) []int
	Shuffle(n int, swap func(i, j int))
}

// New returns an independent source seeded with seed. It must not be shared
// between goroutines.
func New(seed int64) Sampler {
	return rand.New(rand.NewSource(seed))
}

// Locked serializes access to an underlying source so one sampler can be
// shared by concurrent callers. Draw order across goroutines is still
// scheduling dependent.
type Locked struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewLocked returns a goroutine-safe source seeded with seed.
func NewLocked(seed int64) *Locked {
	return &Locked{rng: rand.New(rand.NewSource(seed))}
}

func (l *Locked) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rng.Float64()
}

func (l *Locked) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rng.Intn(n)
}

func (l *Locked) NormFloat64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rng.NormFloat64()
}

func (l *Locked) Perm(n int) []int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rng.Perm(n)
}

func (l *Locked) Shuffle(n int, swap func(i, j int)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rng.Shuffle(n, swap)
}

// Uniform draws from [lo, hi). When lo == hi it returns lo without consuming
// randomness.
func Uniform(s Sampler, lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + s.Float64()*(hi-lo)
}

// IntBetween draws an integer from the closed range [lo, hi].
func IntBetween(s Sampler, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + s.Intn(hi-lo+1)
}
