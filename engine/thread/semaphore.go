package thread

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"
)

// Semaphore is a counting semaphore with an initial and a maximum count.
type Semaphore struct {
	w   *semaphore.Weighted
	max int
}

// NewSemaphore creates a semaphore whose count starts at initial and may
// never exceed max. It panics if the counts are inconsistent.
func NewSemaphore(initial, max int) *Semaphore {
	if max <= 0 || initial < 0 || initial > max {
		panic(fmt.Errorf("thread: invalid semaphore counts initial=%d max=%d", initial, max))
	}
	w := semaphore.NewWeighted(int64(max))
	// The weighted semaphore starts full; hold back the units that are not
	// initially available.
	if held := max - initial; held > 0 {
		if !w.TryAcquire(int64(held)) {
			panic("thread: fresh semaphore refused initial acquire")
		}
	}
	return &Semaphore{w: w, max: max}
}

// Acquire lowers the count by one, blocking while it is zero.
func (s *Semaphore) Acquire() {
	// Background never cancels, so the error is always nil.
	_ = s.w.Acquire(context.Background(), 1)
}

// AcquireContext is Acquire with cancellation.
func (s *Semaphore) AcquireContext(ctx context.Context) error {
	return s.w.Acquire(ctx, 1)
}

// TryAcquire lowers the count by one if it is positive.
func (s *Semaphore) TryAcquire() bool {
	return s.w.TryAcquire(1)
}

// Release raises the count by one. Releasing past the maximum count panics.
func (s *Semaphore) Release() {
	s.w.Release(1)
}

// Max returns the maximum count.
func (s *Semaphore) Max() int { return s.max }
