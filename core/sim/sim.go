// Package sim holds the randomness and clock used by the simulated chain
// interactions. Production code uses Default, tests inject a scripted Source to
// force outcomes and skip real pauses.
package sim

import (
	"context"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"
)

type Source interface {
	// Float64 returns a uniform draw in [0, 1)
	Float64() float64
	// IntN returns a uniform draw in [0, n)
	IntN(n int) int
	// Sleep pauses for d or until ctx is done, whichever comes first
	Sleep(ctx context.Context, d time.Duration) error
}

type defaultSource struct{}

// Default draws from math/rand and sleeps on the wall clock
func Default() Source {
	return defaultSource{}
}

func (defaultSource) Float64() float64 {
	return rand.Float64()
}

func (defaultSource) IntN(n int) int {
	return rand.Intn(n)
}

func (defaultSource) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Chance returns true with probability p
func Chance(src Source, p float64) bool {
	return src.Float64() < p
}

// Between returns a uniform duration in [min, max]
func Between(src Source, min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(src.Float64()*float64(max-min))
}

// Jitter spreads d uniformly over [d*(1-spread), d*(1+spread)]
func Jitter(src Source, d time.Duration, spread float64) time.Duration {
	if d <= 0 {
		return 0
	}
	lo := time.Duration(float64(d) * (1 - spread))
	hi := time.Duration(float64(d) * (1 + spread))
	return Between(src, lo, hi)
}

// Amount returns a uniform decimal amount in [min, max] rounded to 6 places
func Amount(src Source, min, max decimal.Decimal) decimal.Decimal {
	span := max.Sub(min)
	return min.Add(span.Mul(decimal.NewFromFloat(src.Float64()))).Round(6)
}

// Shuffle permutes items in place with an unbiased Fisher-Yates walk
func Shuffle[T any](src Source, items []T) {
	for i := len(items) - 1; i > 0; i-- {
		j := src.IntN(i + 1)
		items[i], items[j] = items[j], items[i]
	}
}
