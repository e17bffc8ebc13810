package debug

import (
	"encoding/binary"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/dustin/go-humanize"
	"github.com/joeycumines/go-catrate"

	"github.com/luchsj/vcEngine/internal/logger"
)

// TracerOptions configures a Tracer.
type TracerOptions struct {
	// Buckets is the number of hash buckets. Default 20.
	Buckets int
	// BucketCapacity bounds the records held per bucket. Default 128.
	BucketCapacity int
	// Depth is the maximum number of frames captured per record. Default 10.
	Depth int
	// Skip is the number of frames directly above RecordTrace that belong to
	// the allocator and are left out of the captured stack.
	Skip int
	// Resolver names frames at print time. Default RuntimeResolver.
	Resolver Resolver
	// Output receives leak reports. When nil, reports go through Print as
	// warnings.
	Output io.Writer
	// StopAt ends a printed stack after the frame with this function name.
	// Default "main.main".
	StopAt string
}

// DefaultTracerOptions returns the options used by heaps that trace, with
// Skip set to hide the heap's own Alloc/Realloc frame.
func DefaultTracerOptions() TracerOptions {
	return TracerOptions{
		Buckets:        20,
		BucketCapacity: 128,
		Depth:          10,
		Skip:           1,
		Resolver:       RuntimeResolver{},
		StopAt:         "main.main",
	}
}

// Trace is the record kept for one live allocation.
type Trace struct {
	Addr uintptr
	Size int
	PCs  []uintptr
}

// Tracer records allocation call stacks keyed by address.
type Tracer struct {
	opts TracerOptions

	mu      sync.Mutex
	buckets [][]Trace
	dropped int
}

// warnings are rate limited per category so a hot allocation path with a
// full bucket, or an uninitialized tracer, cannot flood the log.
var warnLimiter = catrate.NewLimiter(map[time.Duration]int{
	time.Second: 5,
	time.Minute: 60,
})

func warnf(category string, format string, args ...any) {
	if _, ok := warnLimiter.Allow(category); ok {
		Print(PrintWarning, format, args...)
	}
}

// NewTracer creates an initialized tracer. Zero fields of opts take the
// values from DefaultTracerOptions, except Skip which is used as given.
func NewTracer(opts TracerOptions) *Tracer {
	def := DefaultTracerOptions()
	if opts.Buckets <= 0 {
		opts.Buckets = def.Buckets
	}
	if opts.BucketCapacity <= 0 {
		opts.BucketCapacity = def.BucketCapacity
	}
	if opts.Depth <= 0 {
		opts.Depth = def.Depth
	}
	if opts.Skip < 0 {
		opts.Skip = 0
	}
	if opts.Resolver == nil {
		opts.Resolver = def.Resolver
	}
	if opts.StopAt == "" {
		opts.StopAt = def.StopAt
	}
	t := &Tracer{opts: opts, buckets: make([][]Trace, opts.Buckets)}
	Print(PrintDebug, "tracer initialized with %d buckets of %d", opts.Buckets, opts.BucketCapacity)
	return t
}

func (t *Tracer) ready(op string) bool {
	if t == nil || t.buckets == nil {
		warnf("uninitialized", "%s aborted, tracer is not initialized", op)
		return false
	}
	return true
}

func (t *Tracer) bucket(addr uintptr) int {
	var key [8]byte
	binary.LittleEndian.PutUint64(key[:], uint64(addr))
	return int(xxhash.Sum64(key[:]) % uint64(len(t.buckets)))
}

// RecordTrace captures the caller's stack and stores it with size under
// addr. A stale record for addr is replaced. When the bucket is full the
// record is dropped.
func (t *Tracer) RecordTrace(addr uintptr, size int) {
	if !t.ready("record trace") {
		return
	}
	// Capture before taking the lock; the stack is the caller's, not ours.
	pcs := make([]uintptr, t.opts.Depth)
	n := runtime.Callers(2+t.opts.Skip, pcs)
	rec := Trace{Addr: addr, Size: size, PCs: pcs[:n:n]}

	t.mu.Lock()
	defer t.mu.Unlock()
	i := t.bucket(addr)
	b := t.buckets[i]
	for k := range b {
		if b[k].Addr == addr {
			b[k] = rec
			return
		}
	}
	if len(b) >= t.opts.BucketCapacity {
		t.dropped++
		warnf("bucket-full", "record trace dropped for 0x%x, bucket %d holds %d records", addr, i, len(b))
		return
	}
	t.buckets[i] = append(b, rec)
}

// RemoveTrace deletes the record for addr, if any.
func (t *Tracer) RemoveTrace(addr uintptr) {
	if !t.ready("remove trace") {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	i := t.bucket(addr)
	b := t.buckets[i]
	for k := range b {
		if b[k].Addr == addr {
			last := len(b) - 1
			b[k] = b[last]
			b[last] = Trace{}
			t.buckets[i] = b[:last]
			return
		}
	}
}

// Lookup returns the record for addr.
func (t *Tracer) Lookup(addr uintptr) (Trace, bool) {
	if !t.ready("lookup trace") {
		return Trace{}, false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, rec := range t.buckets[t.bucket(addr)] {
		if rec.Addr == addr {
			return rec, true
		}
	}
	return Trace{}, false
}

// Len returns the number of records held.
func (t *Tracer) Len() int {
	if t == nil || t.buckets == nil {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, b := range t.buckets {
		n += len(b)
	}
	return n
}

// Dropped returns how many records were discarded because their bucket was
// full.
func (t *Tracer) Dropped() int {
	if t == nil {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dropped
}

// Reset clears every record while keeping the tracer initialized.
func (t *Tracer) Reset() {
	if !t.ready("reset traces") {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.buckets {
		clear(t.buckets[i])
		t.buckets[i] = t.buckets[i][:0]
	}
	t.dropped = 0
}

// Close discards all records and returns the tracer to the uninitialized
// state.
func (t *Tracer) Close() {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buckets = nil
}

// PrintTrace writes the leak report for addr and reports whether a record
// was found. Frames are printed innermost first and the listing stops after
// the program's entry function.
func (t *Tracer) PrintTrace(addr uintptr) bool {
	rec, ok := t.Lookup(addr)
	if !ok {
		if t != nil && t.buckets != nil {
			Print(PrintWarning, "print trace failed to find 0x%x in the trace record", addr)
		}
		return false
	}

	lines := make([]string, 0, len(rec.PCs)+1)
	lines = append(lines, fmt.Sprintf("memory leak of %d bytes (%s) at 0x%x with call stack:",
		rec.Size, humanize.IBytes(uint64(rec.Size)), rec.Addr))
	for k, f := range t.opts.Resolver.Resolve(rec.PCs) {
		name, file := f.Function, filepath.Base(f.File)
		if name == "" {
			name = "unknown"
		}
		if f.File == "" {
			file = "unknown"
		}
		lines = append(lines, fmt.Sprintf("[%d] %s at %s:%d", k, name, file, f.Line))
		if name == t.opts.StopAt {
			break
		}
	}

	if t.opts.Output == nil {
		for _, l := range lines {
			Print(PrintWarning, "%s", l)
		}
		return true
	}
	for _, l := range lines {
		if _, err := fmt.Fprintln(t.opts.Output, l); err != nil {
			logger.Warn("leak report write failed", "error", err)
			break
		}
	}
	return true
}
