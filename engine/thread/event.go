// Package thread provides the blocking primitives the engine's workers are
// built from: a manual-reset Event, a counting Semaphore with a maximum
// count, and Thread, a goroutine whose exit code can be joined.
//
// Plain sync.Mutex is used for mutual exclusion throughout the engine; it is
// always acquired with a scoped defer so every exit path releases it.
package thread

import (
	"context"
	"sync"
)

// Event is a manual-reset event. Once signaled it stays signaled and every
// current and future waiter resumes.
type Event struct {
	once sync.Once
	ch   chan struct{}
}

// NewEvent creates an unsignaled event.
func NewEvent() *Event {
	return &Event{ch: make(chan struct{})}
}

// Signal raises the event. Signaling an already raised event is a no-op.
func (e *Event) Signal() {
	e.once.Do(func() { close(e.ch) })
}

// Wait blocks until the event is signaled.
func (e *Event) Wait() {
	<-e.ch
}

// WaitContext blocks until the event is signaled or ctx is done.
func (e *Event) WaitContext(ctx context.Context) error {
	select {
	case <-e.ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsRaised reports whether the event has been signaled, without blocking.
func (e *Event) IsRaised() bool {
	select {
	case <-e.ch:
		return true
	default:
		return false
	}
}

// Done returns a channel closed when the event is signaled.
func (e *Event) Done() <-chan struct{} {
	return e.ch
}
