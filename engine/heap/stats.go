package heap

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// Stats is a snapshot of allocator state.
type Stats struct {
	Arenas    int
	Reserved  int // bytes reserved from the OS
	Requested int // bytes asked for by live allocations
	InUse     int // bytes spanned by used blocks, including alignment slack
	Free      int // bytes on the free lists
	Live      int // live allocations

	Allocs    int64
	Frees     int64
	Grows     int64
	Splits    int64
	Coalesces int64
}

func (s Stats) String() string {
	return fmt.Sprintf("%d arenas, %s reserved, %s in use by %d blocks (%s requested), %s free",
		s.Arenas,
		humanize.IBytes(uint64(s.Reserved)),
		humanize.IBytes(uint64(s.InUse)),
		s.Live,
		humanize.IBytes(uint64(s.Requested)),
		humanize.IBytes(uint64(s.Free)),
	)
}

// Block describes one block during Walk.
type Block struct {
	Arena int
	Addr  uintptr // user address for used blocks, block start for free ones
	Span  int     // bytes covered by the block
	Size  int     // requested size; zero for free blocks
	Used  bool
}
