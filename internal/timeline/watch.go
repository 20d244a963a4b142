package timeline

import (
	"context"
	"time"

	"janseva/api/internal/complaint"
)

// Clock returns the current time. Tests pass a fixed or stepping clock.
type Clock func() time.Time

// Watch calls fn with a fresh Result immediately and then every interval
// until ctx is done or fn returns false. The ticker is always stopped before
// Watch returns.
func Watch(ctx context.Context, record complaint.Record, interval time.Duration, clock Clock, fn func(Result) bool) error {
	if clock == nil {
		clock = time.Now
	}
	if interval <= 0 {
		interval = time.Second
	}
	if !fn(Synthesize(record, clock())) {
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if !fn(Synthesize(record, clock())) {
				return nil
			}
		}
	}
}
