// Package fs is the engine's asynchronous file system.
//
// Reads and writes are queued as work items and carried out by one file
// goroutine. Work that uses compression also passes through one codec
// goroutine: compressed writes are encoded before they reach the file
// goroutine, compressed reads are decoded after it. Callers poll or wait on
// the returned Work.
//
// A compressed file is the uncompressed size in ASCII decimal, a newline,
// then the compressed bytes.
package fs

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/luchsj/vcEngine/engine/heap"
	"github.com/luchsj/vcEngine/engine/queue"
	"github.com/luchsj/vcEngine/engine/thread"
	"github.com/luchsj/vcEngine/internal/logger"
)

// FS owns the work queues and the two worker goroutines.
type FS struct {
	heap  *heap.Heap
	codec Codec
	log   *slog.Logger

	fileQueue   *queue.Queue[*Work]
	codecQueue  *queue.Queue[*Work]
	fileThread  *thread.Thread
	codecThread *thread.Thread

	mu      sync.Mutex
	closed  bool
	pending sync.WaitGroup
}

// Option configures an FS.
type Option func(*FS)

// WithCodec selects the compression codec. The default is LZ4.
func WithCodec(c Codec) Option {
	return func(fs *FS) { fs.codec = c }
}

// WithLogger sets the logger for worker diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(fs *FS) { fs.log = l }
}

// Create starts a file system whose queues each hold queueCapacity items.
// Intermediate compression buffers are allocated from h.
func Create(h *heap.Heap, queueCapacity int, opts ...Option) (*FS, error) {
	if h == nil {
		return nil, fmt.Errorf("fs: nil heap")
	}
	if queueCapacity <= 0 {
		return nil, fmt.Errorf("fs: invalid queue capacity %d", queueCapacity)
	}
	fs := &FS{
		heap:       h,
		codec:      LZ4{},
		log:        logger.L,
		fileQueue:  queue.New[*Work](queueCapacity),
		codecQueue: queue.New[*Work](queueCapacity),
	}
	for _, opt := range opts {
		opt(fs)
	}
	fs.fileThread = thread.Create(fs.fileLoop)
	fs.codecThread = thread.Create(fs.codecLoop)
	return fs, nil
}

// Destroy waits for all submitted work, stops both worker goroutines and
// releases the queues. Work submitted afterwards fails with ErrClosed.
func (fs *FS) Destroy() {
	fs.mu.Lock()
	if fs.closed {
		fs.mu.Unlock()
		return
	}
	fs.closed = true
	fs.mu.Unlock()

	fs.pending.Wait()
	fs.fileQueue.Push(nil)
	fs.codecQueue.Push(nil)
	fs.fileThread.Destroy()
	fs.codecThread.Destroy()
	fs.fileQueue.Destroy()
	fs.codecQueue.Destroy()
}

// Read queues a read of the file at path into a buffer allocated from h.
// With nullTerminate the buffer gets one extra zero byte not counted in
// Size. With useCompression the file is decoded after reading.
func (fs *FS) Read(path string, h *heap.Heap, nullTerminate, useCompression bool) *Work {
	w := fs.newWork(opRead, path)
	w.heap = h
	w.nullTerminate = nullTerminate
	w.useCompression = useCompression
	if h == nil {
		fs.fail(w, fmt.Errorf("fs: read %s: nil heap", path))
		return w
	}
	fs.submit(w, fs.fileQueue)
	return w
}

// Write queues a write of buf to the file at path, replacing it. buf must
// not be modified until the work is done. With useCompression the data is
// encoded before writing.
func (fs *FS) Write(path string, buf []byte, useCompression bool) *Work {
	w := fs.newWork(opWrite, path)
	w.heap = fs.heap
	w.buffer = buf
	w.size = len(buf)
	w.useCompression = useCompression
	if useCompression {
		fs.submit(w, fs.codecQueue)
	} else {
		fs.submit(w, fs.fileQueue)
	}
	return w
}

func (fs *FS) newWork(op workOp, path string) *Work {
	return &Work{fs: fs, op: op, path: path, done: thread.NewEvent()}
}

func (fs *FS) submit(w *Work, q *queue.Queue[*Work]) {
	fs.mu.Lock()
	if fs.closed {
		fs.mu.Unlock()
		w.err, w.result = ErrClosed, -1
		w.done.Signal()
		return
	}
	fs.pending.Add(1)
	fs.mu.Unlock()
	q.Push(w)
}

// fail completes w with err without going through the queues.
func (fs *FS) fail(w *Work, err error) {
	w.err, w.result = err, resultCode(err)
	w.done.Signal()
}
