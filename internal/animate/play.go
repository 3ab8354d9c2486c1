package animate

import (
	"context"
	"time"
)

// Play runs a group of transitions on the caller's goroutine, calling render
// with one text per transition on every frame. The last call always carries
// the final text of each transition. Play returns ctx.Err() if the context is
// cancelled first.
func Play(ctx context.Context, interval time.Duration, render func(frame []string), nums ...Number) error {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}

	frame := make([]string, len(nums))
	draw := func(elapsed time.Duration) bool {
		done := true
		for i, n := range nums {
			frame[i] = n.TextAt(elapsed)
			if n.Valid() && !n.Done(elapsed) {
				done = false
			}
		}
		render(frame)
		return done
	}

	start := time.Now()
	if draw(0) {
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			if draw(now.Sub(start)) {
				return nil
			}
		}
	}
}
