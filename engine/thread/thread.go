package thread

import (
	"fmt"
	"runtime/debug"
	"time"

	"github.com/luchsj/vcEngine/internal/logger"
)

// Thread runs a function on its own goroutine and records its exit code.
type Thread struct {
	done *Event
	code int
}

// Create starts fn on a new goroutine. A panic in fn is logged and turned
// into exit code -1.
func Create(fn func() int) *Thread {
	t := &Thread{done: NewEvent()}
	go t.run(fn)
	return t
}

func (t *Thread) run(fn func() int) {
	defer t.done.Signal()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("thread panicked",
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()))
			t.code = -1
		}
	}()
	t.code = fn()
}

// Destroy waits for the thread to finish and returns its exit code.
func (t *Thread) Destroy() int {
	t.done.Wait()
	return t.code
}

// Finished reports whether the thread function has returned.
func (t *Thread) Finished() bool {
	return t.done.IsRaised()
}

// Sleep suspends the calling goroutine for roughly ms milliseconds.
func Sleep(ms uint32) {
	time.Sleep(time.Duration(ms) * time.Millisecond)
}
