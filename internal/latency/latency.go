// Package latency simulates network delay in front of local data sources.
package latency

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Simulator sleeps for a random duration between MinDelay and MaxDelay
type Simulator struct {
	mu       sync.Mutex
	rng      *rand.Rand
	minDelay time.Duration
	maxDelay time.Duration
}

// NewSimulator creates a new latency simulator. A zero range disables waiting.
func NewSimulator(minDelay, maxDelay time.Duration) *Simulator {
	return &Simulator{
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		minDelay: minDelay,
		maxDelay: maxDelay,
	}
}

// Wait blocks for one simulated round trip or until ctx is done
func (s *Simulator) Wait(ctx context.Context) error {
	delay := s.Delay()
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Delay returns a random duration between minDelay and maxDelay
func (s *Simulator) Delay() time.Duration {
	if s.maxDelay <= s.minDelay {
		return s.minDelay
	}
	diff := s.maxDelay - s.minDelay

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.minDelay + time.Duration(s.rng.Int63n(int64(diff)))
}
