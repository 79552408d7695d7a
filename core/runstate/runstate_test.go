package runstate

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLifecycle(t *testing.T) {
	r := New()
	assert.Equal(t, Idle, r.State())
	assert.False(t, r.Stop(), "nothing to stop while idle")

	ctx, ok := r.Begin(context.Background())
	require.True(t, ok)
	assert.Equal(t, Running, r.State())
	assert.False(t, r.ShouldStop(ctx))

	_, ok = r.Begin(context.Background())
	assert.False(t, ok, "second run must be rejected")

	assert.True(t, r.Stop())
	assert.Equal(t, Stopping, r.State())
	assert.True(t, r.ShouldStop(ctx))
	assert.ErrorIs(t, ctx.Err(), context.Canceled)

	r.Finish(Stopped)
	assert.Equal(t, Idle, r.State())
	assert.Equal(t, Stopped, r.LastOutcome())

	ctx, ok = r.Begin(context.Background())
	require.True(t, ok, "a finished run frees the slot")
	assert.False(t, r.ShouldStop(ctx))
	r.Finish(Completed)
}

func TestParentCancellationCountsAsStop(t *testing.T) {
	r := New()
	parent, cancel := context.WithCancel(context.Background())

	ctx, ok := r.Begin(parent)
	require.True(t, ok)

	cancel()
	assert.True(t, r.ShouldStop(ctx))
	r.Finish(Stopped)
}

func TestConcurrentBegin(t *testing.T) {
	r := New()

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := r.Begin(context.Background()); ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	assert.True(t, r.IsRunning())
}
