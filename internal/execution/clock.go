package execution

import (
	"context"
	"time"
)

// Clock abstracts wall-clock time and suspension for the polling loop.
type Clock interface {
	Now() time.Time
	// Sleep suspends for d or until ctx is done.
	Sleep(ctx context.Context, d time.Duration) error
}

// SystemClock uses the real time source.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// Sleep waits for d unless ctx ends first.
func (SystemClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
