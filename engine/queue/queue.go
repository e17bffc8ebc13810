// Package queue implements a fixed-capacity, thread-safe FIFO.
//
// Push blocks while the queue is full and Pop blocks while it is empty, so
// the queue doubles as the hand-off point between producer and consumer
// goroutines. Any number of goroutines may push and pop concurrently; FIFO
// order holds for the items as they were actually enqueued.
//
// Workers conventionally stop when they pop the zero value of a pointer
// element type (nil). The queue itself gives nil no special meaning.
package queue

import (
	"context"
	"fmt"
	"sync"

	"github.com/luchsj/vcEngine/engine/thread"
)

// Queue is a bounded blocking FIFO of T.
type Queue[T any] struct {
	slots *thread.Semaphore // free slots, starts at capacity
	items *thread.Semaphore // available items, starts at zero

	mu    sync.Mutex
	buf   []T
	head  int
	count int
}

// New creates a queue holding at most capacity items. It panics if capacity
// is not positive.
func New[T any](capacity int) *Queue[T] {
	if capacity <= 0 {
		panic(fmt.Errorf("queue: invalid capacity %d", capacity))
	}
	return &Queue[T]{
		slots: thread.NewSemaphore(capacity, capacity),
		items: thread.NewSemaphore(0, capacity),
		buf:   make([]T, capacity),
	}
}

// Push inserts item at the tail, blocking until a slot is free.
func (q *Queue[T]) Push(item T) {
	q.slots.Acquire()
	q.insert(item)
	q.items.Release()
}

// PushContext is Push with cancellation. The item is not enqueued when an
// error is returned.
func (q *Queue[T]) PushContext(ctx context.Context, item T) error {
	if err := q.slots.AcquireContext(ctx); err != nil {
		return err
	}
	q.insert(item)
	q.items.Release()
	return nil
}

// TryPush inserts item at the tail if a slot is immediately free.
func (q *Queue[T]) TryPush(item T) bool {
	if !q.slots.TryAcquire() {
		return false
	}
	q.insert(item)
	q.items.Release()
	return true
}

// Pop removes the item at the head, blocking until one is available.
func (q *Queue[T]) Pop() T {
	q.items.Acquire()
	item := q.remove()
	q.slots.Release()
	return item
}

// PopContext is Pop with cancellation.
func (q *Queue[T]) PopContext(ctx context.Context) (T, error) {
	if err := q.items.AcquireContext(ctx); err != nil {
		var zero T
		return zero, err
	}
	item := q.remove()
	q.slots.Release()
	return item, nil
}

// TryPop removes the head item if one is immediately available.
func (q *Queue[T]) TryPop() (T, bool) {
	if !q.items.TryAcquire() {
		var zero T
		return zero, false
	}
	item := q.remove()
	q.slots.Release()
	return item, true
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// Cap returns the queue capacity.
func (q *Queue[T]) Cap() int {
	return q.slots.Max()
}

// Destroy drops the backing storage. No goroutine may be blocked in, or
// later call, Push or Pop.
func (q *Queue[T]) Destroy() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.buf = nil
	q.head, q.count = 0, 0
}

func (q *Queue[T]) insert(item T) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.buf[(q.head+q.count)%len(q.buf)] = item
	q.count++
}

func (q *Queue[T]) remove() T {
	q.mu.Lock()
	defer q.mu.Unlock()
	var zero T
	item := q.buf[q.head]
	q.buf[q.head] = zero
	q.head = (q.head + 1) % len(q.buf)
	q.count--
	return item
}
