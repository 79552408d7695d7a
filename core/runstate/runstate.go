// Package runstate tracks the lifecycle of a long running workflow. Only one run
// may be active at a time; Stop asks the active run to wind down at its next
// check point.
package runstate

import (
	"context"
	"sync"
)

type State string

const (
	Idle     State = "idle"
	Running  State = "running"
	Stopping State = "stopping"
)

// Outcome is how a run ended
type Outcome string

const (
	Completed Outcome = "completed"
	Stopped   Outcome = "stopped"
	Failed    Outcome = "failed"
	// Rejected marks a call that never started because another run was active
	Rejected Outcome = "rejected"
)

type RunState struct {
	mu      sync.Mutex
	state   State
	cancel  context.CancelFunc
	last    Outcome
	stopped bool
}

func New() *RunState {
	return &RunState{state: Idle}
}

// Begin moves Idle to Running. It returns false when a run is already active. The
// returned context is cancelled by Stop, and also when parent is done.
func (r *RunState) Begin(parent context.Context) (context.Context, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != Idle {
		return nil, false
	}

	ctx, cancel := context.WithCancel(parent)
	r.state = Running
	r.cancel = cancel
	r.stopped = false

	return ctx, true
}

// Stop asks the active run to stop. It returns false when nothing is running.
func (r *RunState) Stop() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != Running {
		return false
	}

	r.state = Stopping
	r.stopped = true
	r.cancel()

	return true
}

// ShouldStop is the cooperative check point. It is true once Stop was called or
// the parent context of the run is done.
func (r *RunState) ShouldStop(ctx context.Context) bool {
	r.mu.Lock()
	stopped := r.stopped
	r.mu.Unlock()

	return stopped || ctx.Err() != nil
}

// Finish records the outcome and returns to Idle
func (r *RunState) Finish(outcome Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.state = Idle
	r.last = outcome
}

func (r *RunState) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.state
}

// IsRunning is true for both Running and Stopping
func (r *RunState) IsRunning() bool {
	return r.State() != Idle
}

// LastOutcome returns the outcome of the most recent finished run
func (r *RunState) LastOutcome() Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.last
}
