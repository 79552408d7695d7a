package sim

import (
	"context"
	"sync"
	"time"
)

// Scripted is a deterministic Source. Float64 pops values from Draws and falls
// back to Fallback once they run out. Sleep records the requested duration and
// returns immediately, honoring ctx cancellation. OnSleep, when set, runs on every
// pause which lets tests stop a run at a known point.
type Scripted struct {
	Draws    []float64
	Fallback float64
	OnSleep  func(d time.Duration)

	mu     sync.Mutex
	slept  []time.Duration
	intNFn func(n int) int
}

func NewScripted(fallback float64, draws ...float64) *Scripted {
	return &Scripted{
		Draws:    draws,
		Fallback: fallback,
	}
}

// WithIntN overrides the IntN draw, the default always returns 0
func (s *Scripted) WithIntN(fn func(n int) int) *Scripted {
	s.intNFn = fn
	return s
}

func (s *Scripted) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.Draws) == 0 {
		return s.Fallback
	}

	v := s.Draws[0]
	s.Draws = s.Draws[1:]
	return v
}

func (s *Scripted) IntN(n int) int {
	if s.intNFn != nil {
		return s.intNFn(n)
	}
	return 0
}

func (s *Scripted) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.slept = append(s.slept, d)
	hook := s.OnSleep
	s.mu.Unlock()

	if hook != nil {
		hook(d)
	}

	return ctx.Err()
}

// Slept returns every duration passed to Sleep so far
func (s *Scripted) Slept() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]time.Duration{}, s.slept...)
}
