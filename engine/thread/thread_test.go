package thread

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEventSignalReleasesAllWaiters(t *testing.T) {
	ev := NewEvent()
	require.False(t, ev.IsRaised())

	const waiters = 8
	var woke atomic.Int32
	threads := make([]*Thread, waiters)
	for i := range threads {
		threads[i] = Create(func() int {
			ev.Wait()
			woke.Add(1)
			return 0
		})
	}

	Sleep(10)
	require.Zero(t, woke.Load())

	ev.Signal()
	ev.Signal() // idempotent
	for _, th := range threads {
		require.Equal(t, 0, th.Destroy())
	}
	require.Equal(t, int32(waiters), woke.Load())
	require.True(t, ev.IsRaised())
}

func TestEventWaitContext(t *testing.T) {
	ev := NewEvent()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, ev.WaitContext(ctx), context.DeadlineExceeded)

	ev.Signal()
	require.NoError(t, ev.WaitContext(context.Background()))
}

func TestSemaphoreCounts(t *testing.T) {
	s := NewSemaphore(1, 2)
	require.True(t, s.TryAcquire())
	require.False(t, s.TryAcquire())

	s.Release()
	s.Release()
	require.True(t, s.TryAcquire())
	require.True(t, s.TryAcquire())
	require.False(t, s.TryAcquire())
	require.Equal(t, 2, s.Max())
}

func TestSemaphoreBlocksUntilRelease(t *testing.T) {
	s := NewSemaphore(0, 1)
	acquired := make(chan struct{})
	go func() {
		s.Acquire()
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("Acquire returned before Release")
	case <-time.After(20 * time.Millisecond):
	}

	s.Release()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("Acquire did not return after Release")
	}
}

func TestSemaphoreOverRelease(t *testing.T) {
	s := NewSemaphore(1, 1)
	require.Panics(t, s.Release)
}

func TestSemaphoreInvalidCounts(t *testing.T) {
	require.Panics(t, func() { NewSemaphore(2, 1) })
	require.Panics(t, func() { NewSemaphore(0, 0) })
	require.Panics(t, func() { NewSemaphore(-1, 1) })
}

func TestThreadExitCode(t *testing.T) {
	th := Create(func() int { return 42 })
	require.Equal(t, 42, th.Destroy())
	require.True(t, th.Finished())
}

func TestThreadPanicExitCode(t *testing.T) {
	th := Create(func() int { panic("boom") })
	require.Equal(t, -1, th.Destroy())
}
