package sim

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestBetween(t *testing.T) {
	src := NewScripted(0, 0, 0.5, 0.999)

	assert.Equal(t, 2*time.Second, Between(src, 2*time.Second, 5*time.Second))
	assert.Equal(t, 3500*time.Millisecond, Between(src, 2*time.Second, 5*time.Second))
	assert.InDelta(t, float64(5*time.Second), float64(Between(src, 2*time.Second, 5*time.Second)), float64(10*time.Millisecond))

	assert.Equal(t, time.Second, Between(src, time.Second, time.Second))
}

func TestJitter(t *testing.T) {
	src := NewScripted(0.5)
	assert.InDelta(t, float64(10*time.Second), float64(Jitter(src, 10*time.Second, 0.3)), float64(time.Microsecond))
	assert.Zero(t, Jitter(src, 0, 0.3))
}

func TestChance(t *testing.T) {
	src := NewScripted(0, 0.89, 0.9)
	assert.True(t, Chance(src, 0.9))
	assert.False(t, Chance(src, 0.9))
}

func TestAmount(t *testing.T) {
	src := NewScripted(0.5)
	got := Amount(src, decimal.RequireFromString("0.001"), decimal.RequireFromString("0.011"))
	assert.Equal(t, "0.006", got.String())
}

func TestShuffleIsPermutation(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	Shuffle(Default(), items)
	assert.ElementsMatch(t, []int{1, 2, 3, 4, 5}, items)

	// IntN always 0 rotates every element through the front
	scripted := []string{"a", "b", "c"}
	Shuffle(NewScripted(0), scripted)
	assert.Equal(t, []string{"b", "c", "a"}, scripted)
}

func TestDefaultSleepHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := Default().Sleep(ctx, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)

	assert.NoError(t, Default().Sleep(context.Background(), time.Millisecond))
}

func TestScriptedRecordsSleeps(t *testing.T) {
	src := NewScripted(0)
	calls := 0
	src.OnSleep = func(time.Duration) { calls++ }

	assert.NoError(t, src.Sleep(context.Background(), time.Second))
	assert.NoError(t, src.Sleep(context.Background(), 2*time.Second))
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, src.Slept())
	assert.Equal(t, 2, calls)
}
