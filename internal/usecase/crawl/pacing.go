package crawl

import (
	"context"
	"math/rand/v2"
	"time"
)

// Pacer возвращает длительность паузы перед следующей страницей.
type Pacer func() time.Duration

// RandomPacer выбирает паузу равномерно из [lo, hi].
func RandomPacer(lo, hi time.Duration) Pacer {
	if hi <= lo {
		return FixedPacer(lo)
	}
	return func() time.Duration {
		return lo + rand.N(hi-lo+1)
	}
}

// FixedPacer всегда возвращает d.
func FixedPacer(d time.Duration) Pacer {
	return func() time.Duration { return d }
}

// NoPause отключает паузы, удобно в тестах.
func NoPause() time.Duration { return 0 }

func sleepContext(ctx context.Context, d time.Duration) error {
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
