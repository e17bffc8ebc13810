// Package profile records nested durations and writes them in the Chrome
// trace event format, viewable in chrome://tracing or Perfetto.
//
//	p := profile.New(1024)
//	p.CaptureStart("frame.json")
//	p.Push("update")
//	p.Push("physics")
//	p.Pop()
//	p.Pop()
//	w := p.CaptureStop(fsys)
//	defer w.Destroy()
package profile

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/luchsj/vcEngine/engine/debug"
	"github.com/luchsj/vcEngine/engine/fs"
)

// Event is one trace event. Durations are a "B" event paired with an "E"
// event.
type Event struct {
	Name  string  `json:"name"`
	Phase string  `json:"ph"`
	PID   int     `json:"pid"`
	TID   int     `json:"tid"`
	TS    float64 `json:"ts"` // microseconds since CaptureStart
}

type document struct {
	DisplayTimeUnit string  `json:"displayTimeUnit"`
	TraceEvents     []Event `json:"traceEvents"`
}

// Profile is a single timeline of nested durations. It is safe for
// concurrent use, but pushes and pops from different goroutines nest into
// the same stack.
type Profile struct {
	mu       sync.Mutex
	capacity int
	pid      int
	tid      int
	now      func() time.Time

	path   string
	active bool
	start  time.Time
	stack  []string
	events []Event
}

// New creates a profile that records at most capacity durations per
// capture.
func New(capacity int) *Profile {
	return &Profile{
		capacity: max(capacity, 1),
		pid:      os.Getpid(),
		tid:      1,
		now:      time.Now,
	}
}

// CaptureStart begins a capture that CaptureStop will write to path. A
// capture in progress is discarded.
func (p *Profile) CaptureStart(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.path = path
	p.active = true
	p.start = p.now()
	p.stack = p.stack[:0]
	p.events = p.events[:0]
}

// Active reports whether a capture is in progress.
func (p *Profile) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// Push opens a duration named name.
func (p *Profile) Push(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.active {
		debug.Print(debug.PrintWarning|debug.PrintError, "failed to begin trace for duration %s, trace capture has not started", name)
		return
	}
	if (len(p.events)+len(p.stack))/2 >= p.capacity {
		debug.Print(debug.PrintWarning|debug.PrintError, "failed to begin trace for duration %s, maximum of %d durations reached", name, p.capacity)
		return
	}
	p.stack = append(p.stack, name)
	p.events = append(p.events, p.event(name, "B"))
}

// Pop closes the most recently opened duration.
func (p *Profile) Pop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.active || len(p.stack) == 0 {
		debug.Print(debug.PrintWarning, "trace duration pop without a matching push")
		return
	}
	name := p.stack[len(p.stack)-1]
	p.stack = p.stack[:len(p.stack)-1]
	p.events = append(p.events, p.event(name, "E"))
}

func (p *Profile) event(name, phase string) Event {
	return Event{
		Name:  name,
		Phase: phase,
		PID:   p.pid,
		TID:   p.tid,
		TS:    float64(p.now().Sub(p.start).Nanoseconds()) / 1e3,
	}
}

// Events returns a copy of the events recorded so far.
func (p *Profile) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Event(nil), p.events...)
}

// CaptureStop ends the capture, closing any open durations, and writes the
// trace through fsys. It returns nil if no capture was active.
func (p *Profile) CaptureStop(fsys *fs.FS) *fs.Work {
	p.mu.Lock()
	if !p.active {
		p.mu.Unlock()
		debug.Print(debug.PrintWarning, "trace capture stop without a capture in progress")
		return nil
	}
	for i := len(p.stack) - 1; i >= 0; i-- {
		p.events = append(p.events, p.event(p.stack[i], "E"))
	}
	p.stack = p.stack[:0]
	p.active = false
	doc := document{DisplayTimeUnit: "ns", TraceEvents: append([]Event(nil), p.events...)}
	path := p.path
	p.mu.Unlock()

	data, err := json.Marshal(doc)
	if err != nil {
		debug.Print(debug.PrintError, "trace write failed: %v", err)
		return nil
	}
	return fsys.Write(path, data, false)
}
