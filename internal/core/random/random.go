// Package random provides the injectable randomness capability used by the
// trigger decision engine for ratio sampling.
package random

import (
	"math/rand"
	"sync"
	"time"
)

// Source yields uniform samples in [0, 1). Implementations must be safe for
// concurrent use.
type Source interface {
	Float64() float64
}

type lockedSource struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewSource returns a time-seeded Source safe for concurrent requests.
func NewSource() Source {
	return &lockedSource{r: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (s *lockedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Float64()
}

// Fixed is a deterministic Source for tests. It replays the given samples in
// order and repeats the last one when exhausted.
type Fixed struct {
	mu      sync.Mutex
	samples []float64
	next    int
}

func NewFixed(samples ...float64) *Fixed {
	if len(samples) == 0 {
		samples = []float64{0}
	}
	return &Fixed{samples: samples}
}

func (f *Fixed) Float64() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := f.samples[f.next]
	if f.next < len(f.samples)-1 {
		f.next++
	}
	return v
}
