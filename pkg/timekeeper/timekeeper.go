// Package timekeeper measures how long the phases of a run take. Report returns
// the time spent since the previous report, Total the time since the start. Both
// ignore the time spent paused.
package timekeeper

import (
	"fmt"
	"sync"
	"time"
)

type ElapsingStatus int

const (
	Running ElapsingStatus = 1
	Pause   ElapsingStatus = 2
)

type Elapsing struct {
	mu  sync.Mutex
	now func() time.Time

	checkpoint time.Time

	carryOn time.Duration
	total   time.Duration

	status ElapsingStatus
}

func NewElapsing() *Elapsing {
	// In Go, Now keeps track both of wallclock and monotonic clock
	// therefore we can use it to check delta as well
	return NewElapsingWithClock(time.Now)
}

// NewElapsingWithClock reads the time from now, tests drive it by hand
func NewElapsingWithClock(now func() time.Time) *Elapsing {
	return &Elapsing{
		now:        now,
		checkpoint: now(),
		status:     Running,
	}
}

func (e *Elapsing) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.status == Pause {
		return fmt.Errorf("elapsing is pause already")
	}

	e.carryOn += e.now().Sub(e.checkpoint)
	e.status = Pause

	return nil
}

func (e *Elapsing) Resume() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.status != Pause {
		return fmt.Errorf("elapsing is not pause")
	}

	e.checkpoint = e.now()
	e.status = Running

	return nil
}

func (e *Elapsing) Reset() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.status = Running
	e.carryOn = 0
	e.total = 0
	e.checkpoint = e.now()

	return nil
}

// Report returns the running time since the previous Report and starts a new
// lap
func (e *Elapsing) Report() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()

	lap := e.carryOn
	if e.status == Running {
		now := e.now()
		lap += now.Sub(e.checkpoint)
		e.checkpoint = now
	}

	e.carryOn = 0
	e.total += lap

	return lap
}

// Total is the running time since the start or the last Reset
func (e *Elapsing) Total() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()

	total := e.total + e.carryOn
	if e.status == Running {
		total += e.now().Sub(e.checkpoint)
	}

	return total
}
