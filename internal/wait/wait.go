// Package wait holds the blocking pauses used between page loads, scrolls and retries.
package wait

import (
	"context"
	"math/rand/v2"
	"time"
)

// Func pauses for d or until ctx is done.
type Func func(ctx context.Context, d time.Duration) error

// Sleep blocks for d. It returns ctx.Err() if the context ends first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Jitter returns a random duration in [minimum, maximum]. Swapped bounds are tolerated.
func Jitter(minimum, maximum time.Duration) time.Duration {
	if minimum > maximum {
		minimum, maximum = maximum, minimum
	}
	if maximum <= 0 {
		return 0
	}
	if minimum == maximum {
		return minimum
	}
	return minimum + rand.N(maximum-minimum+1)
}
