package fs

import (
	"github.com/luchsj/vcEngine/engine/heap"
	"github.com/luchsj/vcEngine/engine/thread"
)

type workOp int

const (
	opRead workOp = iota
	opWrite
)

func (op workOp) String() string {
	if op == opWrite {
		return "write"
	}
	return "read"
}

// Work is one queued read or write. It is owned by whichever stage popped
// it last until its completion event is signaled; after that the
// submitting goroutine may read it.
type Work struct {
	fs   *FS
	heap *heap.Heap // destination of read buffers
	op   workOp
	path string

	nullTerminate  bool
	useCompression bool

	buffer []byte
	size   int

	// intermediate is the compressed form of the file, allocated from the
	// file system's heap and freed once it is superseded.
	intermediate []byte
	payload      []byte
	rawSize      int

	done   *thread.Event
	result int
	err    error
}

// IsDone reports whether the work has completed. A nil work is done.
func (w *Work) IsDone() bool {
	if w == nil {
		return true
	}
	return w.done.IsRaised()
}

// Wait blocks until the work has completed.
func (w *Work) Wait() {
	if w != nil {
		w.done.Wait()
	}
}

// Result waits and returns 0 on success, the OS error number for I/O
// failures and -1 for any other failure.
func (w *Work) Result() int {
	if w == nil {
		return -1
	}
	w.Wait()
	return w.result
}

// Err waits and returns the error the work failed with, if any.
func (w *Work) Err() error {
	if w == nil {
		return ErrClosed
	}
	w.Wait()
	return w.err
}

// Buffer waits and returns the data read. For writes it returns the
// caller's buffer. A null-terminated read has a zero byte at
// Buffer()[:Size()+1][Size()].
func (w *Work) Buffer() []byte {
	if w == nil {
		return nil
	}
	w.Wait()
	return w.buffer
}

// Size waits and returns the number of bytes read or written. Compressed
// work reports the uncompressed size.
func (w *Work) Size() int {
	if w == nil {
		return 0
	}
	w.Wait()
	return w.size
}

// Destroy waits for the work and releases any intermediate buffer. The
// read buffer belongs to the caller and must be freed from its heap.
func (w *Work) Destroy() {
	if w == nil {
		return
	}
	w.Wait()
	w.fs.freeIntermediate(w)
}
