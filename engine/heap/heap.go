package heap

import (
	"cmp"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"sync"
	"unsafe"

	"github.com/dustin/go-humanize"

	"github.com/luchsj/vcEngine/engine/debug"
	"github.com/luchsj/vcEngine/internal/buf"
	"github.com/luchsj/vcEngine/internal/logger"
	"github.com/luchsj/vcEngine/internal/vmem"
)

// Runtime debug flag for allocator logging, controlled by VC_LOG_ALLOC.
var logAlloc = os.Getenv("VC_LOG_ALLOC") != ""

// Heap is a thread-safe pooled allocator. All methods serialize on one
// mutex.
type Heap struct {
	mu sync.Mutex

	growIncrement int
	classes       *sizeClassTable
	arenas        []*arena
	used          map[uintptr]usedBlock

	tracer    *debug.Tracer
	log       *slog.Logger
	destroyed bool

	allocs, frees, grows, splits, coalesces int64
}

// usedBlock spans [start, end) of its arena. Alignment padding too small
// to stand alone stays between start and the user address.
type usedBlock struct {
	a          *arena
	start, end int
	size       int
}

// Create makes a heap whose first arena holds growIncrement bytes, rounded
// up to whole pages. growIncrement is also the minimum size of every arena
// added later.
func Create(growIncrement int, opts ...Option) (*Heap, error) {
	cfg := config{classes: DefaultConfig}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.log == nil {
		cfg.log = logger.L
	}
	if growIncrement <= 0 {
		growIncrement = vmem.PageSize()
	}

	h := &Heap{
		growIncrement: growIncrement,
		classes:       newSizeClassTable(cfg.classes),
		used:          make(map[uintptr]usedBlock, 256),
		tracer:        cfg.tracer,
		log:           cfg.log,
	}
	if err := h.grow(growIncrement); err != nil {
		h.tracer.Close()
		return nil, err
	}
	return h, nil
}

// grow adds one arena of at least size bytes.
func (h *Heap) grow(size int) error {
	rounded, ok := buf.AlignUp(size, vmem.PageSize())
	if !ok {
		return ErrOutOfMemory
	}
	a, err := newArena(len(h.arenas), rounded, h.classes)
	if err != nil {
		h.log.Error("heap: arena reservation failed", "size", size, "error", err)
		return fmt.Errorf("%w: %w", ErrOutOfMemory, err)
	}
	h.arenas = append(h.arenas, a)
	if len(h.arenas) > 1 {
		h.grows++
	}
	if logAlloc {
		h.log.Debug("heap: arena added", "arena", a.id, "size", humanize.IBytes(uint64(a.size())))
	}
	return nil
}

// Addr returns the address of b's first byte, or 0 for a buffer with no
// backing array.
func Addr(b []byte) uintptr {
	if cap(b) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(unsafe.SliceData(b)))
}

func checkRequest(size, alignment int) (int, error) {
	if size < 0 {
		return 0, ErrBadSize
	}
	if alignment == 0 {
		alignment = wordSize
	}
	if alignment < 0 || alignment&(alignment-1) != 0 {
		return 0, ErrBadAlignment
	}
	return max(alignment, wordSize), nil
}

// Alloc returns a buffer of length size whose first byte is aligned to
// alignment, a power of two. Alignment 0 means 8. The capacity of the
// buffer may exceed size.
func (h *Heap) Alloc(size, alignment int) ([]byte, error) {
	align, err := checkRequest(size, alignment)
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.destroyed {
		return nil, ErrDestroyed
	}
	b, err := h.allocLocked(size, align)
	if err != nil {
		return nil, err
	}
	if h.tracer != nil {
		h.tracer.RecordTrace(Addr(b), size)
	}
	return b, nil
}

func (h *Heap) allocLocked(size, align int) ([]byte, error) {
	need, ok := buf.AlignUp(max(size, minBlock), wordSize)
	if !ok {
		return nil, ErrOutOfMemory
	}
	search, ok := buf.AddOverflowSafe(need, align-wordSize)
	if !ok {
		return nil, ErrOutOfMemory
	}

	a, off, blockSize, found := h.find(search)
	if !found {
		if logAlloc {
			h.log.Debug("heap: no fit, growing", "need", search)
		}
		// There is no per-block header, so the alignment slack in search
		// is the whole per-arena overhead.
		doubled, ok := buf.MulOverflowSafe(size, 2)
		if !ok {
			return nil, ErrOutOfMemory
		}
		growth, ok := buf.AddOverflowSafe(max(h.growIncrement, doubled), search)
		if !ok {
			return nil, ErrOutOfMemory
		}
		if err := h.grow(growth); err != nil {
			return nil, err
		}
		a, off, blockSize, found = h.find(search)
		if !found {
			h.log.Error("heap: out of memory after growth", "size", size, "alignment", align)
			return nil, ErrOutOfMemory
		}
	}

	start, user, end := a.carve(off, blockSize, need, align)
	if end-start < blockSize {
		h.splits++
	}
	addr := a.base + uintptr(user)
	h.used[addr] = usedBlock{a: a, start: start, end: end, size: size}
	h.allocs++
	if logAlloc {
		h.log.Debug("heap: alloc", "size", size, "align", align, "arena", a.id, "addr", fmt.Sprintf("0x%x", addr))
	}
	return a.mem[user : user+size : end], nil
}

// find searches the arenas newest first for a free block of need bytes.
func (h *Heap) find(need int) (*arena, int, int, bool) {
	for i := len(h.arenas) - 1; i >= 0; i-- {
		a := h.arenas[i]
		if off, size, ok := a.take(need); ok {
			return a, off, size, true
		}
	}
	return nil, 0, 0, false
}

// Free returns b to the heap. Freeing a buffer with no backing array is a
// no-op. A buffer that is not a live allocation of h yields ErrBadAddress.
func (h *Heap) Free(b []byte) error {
	addr := Addr(b)
	if addr == 0 {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.destroyed {
		return ErrDestroyed
	}
	return h.freeLocked(addr)
}

func (h *Heap) freeLocked(addr uintptr) error {
	ub, ok := h.used[addr]
	if !ok {
		h.log.Warn("heap: free of unknown address", "addr", fmt.Sprintf("0x%x", addr))
		return ErrBadAddress
	}
	delete(h.used, addr)
	h.coalesces += int64(ub.a.releaseBlock(ub.start, ub.end))
	h.frees++
	if h.tracer != nil {
		h.tracer.RemoveTrace(addr)
	}
	return nil
}

// Realloc moves prev into a new allocation of size bytes, copying the
// common prefix, and frees prev. A nil prev behaves like Alloc. On error
// prev is left untouched.
func (h *Heap) Realloc(prev []byte, size, alignment int) ([]byte, error) {
	align, err := checkRequest(size, alignment)
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.destroyed {
		return nil, ErrDestroyed
	}

	old := Addr(prev)
	var oldBlock usedBlock
	if old != 0 {
		var ok bool
		if oldBlock, ok = h.used[old]; !ok {
			return nil, ErrBadAddress
		}
	}

	b, err := h.allocLocked(size, align)
	if err != nil {
		return nil, err
	}
	if old != 0 {
		user := int(old - oldBlock.a.base)
		copy(b, oldBlock.a.mem[user:user+oldBlock.size])
		if err := h.freeLocked(old); err != nil {
			return nil, err
		}
	}
	if h.tracer != nil {
		h.tracer.RecordTrace(Addr(b), size)
	}
	return b, nil
}

// Contains reports whether b is a live allocation of h.
func (h *Heap) Contains(b []byte) bool {
	addr := Addr(b)
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.used[addr]
	return ok
}

// Tracer returns the attached tracer, or nil.
func (h *Heap) Tracer() *debug.Tracer { return h.tracer }

// Walk calls fn for every block of every arena in address order until fn
// returns false. fn must not call back into h.
func (h *Heap) Walk(fn func(Block) bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, blk := range h.blocksLocked() {
		if !fn(blk) {
			return
		}
	}
}

func (h *Heap) blocksLocked() []Block {
	var out []Block
	for _, a := range h.arenas {
		first := len(out)
		a.freeBlocks(func(off, size int) {
			out = append(out, Block{Arena: a.id, Addr: a.base + uintptr(off), Span: size})
		})
		for addr, ub := range h.used {
			if ub.a == a {
				out = append(out, Block{Arena: a.id, Addr: addr, Span: ub.end - ub.start, Size: ub.size, Used: true})
			}
		}
		slices.SortFunc(out[first:], func(x, y Block) int { return cmp.Compare(x.Addr, y.Addr) })
	}
	return out
}

// Stats returns a snapshot of allocator state.
func (h *Heap) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	s := Stats{
		Arenas:    len(h.arenas),
		Live:      len(h.used),
		Allocs:    h.allocs,
		Frees:     h.frees,
		Grows:     h.grows,
		Splits:    h.splits,
		Coalesces: h.coalesces,
	}
	for _, a := range h.arenas {
		s.Reserved += a.size()
		s.Free += a.free
	}
	for _, ub := range h.used {
		s.Requested += ub.size
		s.InUse += ub.end - ub.start
	}
	return s
}

// Destroy reports every block still in use as a leak, releases all arenas
// and closes the tracer. It returns the number of leaks. Buffers from h
// must not be touched afterwards.
func (h *Heap) Destroy() int {
	h.mu.Lock()
	if h.destroyed {
		h.mu.Unlock()
		h.log.Warn("heap: destroy called twice")
		return 0
	}
	h.destroyed = true

	leaks := make([]uintptr, 0, len(h.used))
	sizes := make(map[uintptr]int, len(h.used))
	for addr, ub := range h.used {
		leaks = append(leaks, addr)
		sizes[addr] = ub.size
	}
	arenas := h.arenas
	h.arenas, h.used = nil, nil
	h.mu.Unlock()

	slices.Sort(leaks)
	for _, addr := range leaks {
		if h.tracer == nil || !h.tracer.PrintTrace(addr) {
			debug.Print(debug.PrintWarning, "memory leak of %d bytes at 0x%x", sizes[addr], addr)
		}
	}

	for _, a := range arenas {
		if err := a.release(); err != nil {
			h.log.Error("heap: arena release failed", "arena", a.id, "error", err)
		}
	}
	h.tracer.Close()
	return len(leaks)
}
