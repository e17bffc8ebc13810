package heap

import (
	"container/heap"
	"sync"
	"unsafe"

	"github.com/luchsj/vcEngine/internal/vmem"
)

const (
	// wordSize is the granularity of every block offset and size.
	wordSize = 8

	// minBlock is the smallest block the allocator hands out or keeps free.
	minBlock = wordSize

	// maxSlowPathScan bounds the scan for a fitting block when the smallest
	// block of a class is too small.
	maxSlowPathScan = 32

	// fitTolerance accepts a block within this many bytes of the request
	// without scanning further.
	fitTolerance = 64
)

// arena is one OS region and the free-list state for it.
type arena struct {
	id      int
	mem     []byte
	base    uintptr
	release func() error

	classes *sizeClassTable
	lists   []freeBlockHeap
	byOff   map[int]*freeBlock // classed free blocks by offset
	large   *largeBlock

	// startIdx maps the offset of every free block to its size and endIdx
	// maps its end offset back to its start.
	startIdx map[int]int
	endIdx   map[int]int

	free int
}

// freeBlock is a classed free block held in a min-heap.
type freeBlock struct {
	off   int
	size  int
	index int
}

// freeBlockHeap is a min-heap on block size, lower offset first on ties.
type freeBlockHeap []*freeBlock

func (h *freeBlockHeap) Len() int { return len(*h) }

func (h *freeBlockHeap) Less(i, j int) bool {
	a, b := (*h)[i], (*h)[j]
	if a.size != b.size {
		return a.size < b.size
	}
	return a.off < b.off
}

func (h *freeBlockHeap) Swap(i, j int) {
	(*h)[i], (*h)[j] = (*h)[j], (*h)[i]
	(*h)[i].index = i
	(*h)[j].index = j
}

func (h *freeBlockHeap) Push(x any) {
	b := x.(*freeBlock) //nolint:errcheck // heap.Interface contract guarantees type
	b.index = len(*h)
	*h = append(*h, b)
}

func (h *freeBlockHeap) Pop() any {
	old := *h
	n := len(old)
	b := old[n-1]
	old[n-1] = nil
	b.index = -1
	*h = old[:n-1]
	return b
}

// largeBlock is a free block on the large list.
type largeBlock struct {
	off  int
	size int
	next *largeBlock
}

var freeBlockPool = sync.Pool{New: func() any { return &freeBlock{} }}

// newArena reserves size bytes, rounded up to whole pages, as one free block.
func newArena(id, size int, classes *sizeClassTable) (*arena, error) {
	mem, release, err := vmem.Reserve(size)
	if err != nil {
		return nil, err
	}
	a := &arena{
		id:       id,
		mem:      mem,
		base:     uintptr(unsafe.Pointer(unsafe.SliceData(mem))),
		release:  release,
		classes:  classes,
		lists:    make([]freeBlockHeap, classes.numClasses()),
		byOff:    make(map[int]*freeBlock, 64),
		startIdx: make(map[int]int, 64),
		endIdx:   make(map[int]int, 64),
	}
	a.insertFree(0, len(mem)&^(wordSize-1))
	return a, nil
}

func (a *arena) size() int { return len(a.mem) }

func (a *arena) contains(addr uintptr) bool {
	return addr >= a.base && addr < a.base+uintptr(len(a.mem))
}

// insertFree adds the block [off, off+size) to the free lists.
func (a *arena) insertFree(off, size int) {
	if size < minBlock || off < 0 || off+size > len(a.mem) {
		return
	}
	if sc := a.classes.classOf(size); sc < len(a.lists) {
		b := freeBlockPool.Get().(*freeBlock) //nolint:errcheck // pool holds only *freeBlock
		b.off, b.size = off, size
		heap.Push(&a.lists[sc], b)
		a.byOff[off] = b
	} else {
		a.large = &largeBlock{off: off, size: size, next: a.large}
	}
	a.startIdx[off] = size
	a.endIdx[off+size] = off
	a.free += size
}

// removeFree takes the free block starting at off off the free lists.
func (a *arena) removeFree(off int) {
	size, ok := a.startIdx[off]
	if !ok {
		return
	}
	if sc := a.classes.classOf(size); sc < len(a.lists) {
		if b := a.byOff[off]; b != nil {
			heap.Remove(&a.lists[sc], b.index)
			delete(a.byOff, off)
			putFreeBlock(b)
		}
	} else {
		var prev *largeBlock
		for cur := a.large; cur != nil; prev, cur = cur, cur.next {
			if cur.off != off {
				continue
			}
			if prev == nil {
				a.large = cur.next
			} else {
				prev.next = cur.next
			}
			break
		}
	}
	delete(a.startIdx, off)
	delete(a.endIdx, off+size)
	a.free -= size
}

// take removes and returns a free block of at least need bytes.
func (a *arena) take(need int) (off, size int, ok bool) {
	if need > a.free {
		return 0, 0, false
	}
	for sc := a.classes.classOf(need); sc < len(a.lists); sc++ {
		if off, size, ok = a.takeFromClass(sc, need); ok {
			return off, size, true
		}
	}
	for cur := a.large; cur != nil; cur = cur.next {
		if cur.size >= need {
			off, size = cur.off, cur.size
			a.removeFree(off)
			return off, size, true
		}
	}
	return 0, 0, false
}

func (a *arena) takeFromClass(sc, need int) (int, int, bool) {
	list := a.lists[sc]
	if len(list) == 0 {
		return 0, 0, false
	}
	// The root is the best fit when it is large enough.
	if list[0].size >= need {
		off, size := list[0].off, list[0].size
		a.removeFree(off)
		return off, size, true
	}
	best := -1
	for i := 1; i < min(len(list), maxSlowPathScan); i++ {
		s := list[i].size
		if s < need {
			continue
		}
		if best == -1 || s < list[best].size {
			best = i
		}
		if s <= need+fitTolerance {
			break
		}
	}
	if best == -1 {
		return 0, 0, false
	}
	off, size := list[best].off, list[best].size
	a.removeFree(off)
	return off, size, true
}

// carve turns the free block [off, off+size) into a used block whose user
// address is aligned to align and which holds need bytes. A leading pad or
// a trailing remainder of at least minBlock goes back to the free lists;
// smaller slack is absorbed into the used block.
func (a *arena) carve(off, size, need, align int) (start, user, end int) {
	addr := a.base + uintptr(off)
	pad := int(alignUp(addr, uintptr(align)) - addr)
	start, user = off, off+pad
	if pad >= minBlock {
		a.insertFree(off, pad)
		start = user
	}
	end = user + need
	if tail := off + size - end; tail >= minBlock {
		a.insertFree(end, tail)
	} else {
		end = off + size
	}
	return start, user, end
}

// releaseBlock returns the used block [start, end) to the free lists, merging
// it with free neighbors on both sides.
func (a *arena) releaseBlock(start, end int) (merged int) {
	if s, ok := a.startIdx[end]; ok {
		a.removeFree(end)
		end += s
		merged++
	}
	if prev, ok := a.endIdx[start]; ok {
		a.removeFree(prev)
		start = prev
		merged++
	}
	a.insertFree(start, end-start)
	return merged
}

// freeBlocks calls fn for every free block in no particular order.
func (a *arena) freeBlocks(fn func(off, size int)) {
	for off, size := range a.startIdx {
		fn(off, size)
	}
}

func putFreeBlock(b *freeBlock) {
	b.index = -1
	freeBlockPool.Put(b)
}

func alignUp(n, align uintptr) uintptr {
	return (n + align - 1) &^ (align - 1)
}
