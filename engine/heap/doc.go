// Package heap implements the engine's pooled allocator.
//
// A Heap owns one or more arenas, contiguous regions reserved directly from
// the operating system. Each arena is carved into blocks by a segregated
// free-list allocator:
//
//   - free blocks are binned by size class (linear steps for small sizes,
//     geometric growth above SmallMax) and kept in a min-heap per class
//   - blocks beyond the largest medium class live on a separate large list
//   - start and end indexes give O(1) coalescing with both neighbors on free
//
// Allocator metadata never lives inside an arena. Free blocks, used blocks
// and trace records are all tracked in side tables, so a stray write past
// the end of an allocation cannot corrupt the free lists.
//
// When no arena has room, the heap reserves one more arena of
// max(growIncrement, 2*size) bytes and retries once. Arenas are never
// shrunk; they are released together by Destroy.
//
// # Tracing
//
// A heap created WithTracing records the call stack of every allocation and
// forgets it on Free. Destroy prints a leak report for every block that is
// still in use:
//
//	h, _ := heap.Create(64<<10, heap.WithTracing(debug.DefaultTracerOptions()))
//	buf, _ := h.Alloc(128, 16)
//	...
//	if leaks := h.Destroy(); leaks != 0 {
//		// one "memory leak of N bytes" report was printed per block
//	}
//
// Setting VC_LOG_ALLOC in the environment logs every allocator decision at
// debug level.
package heap
