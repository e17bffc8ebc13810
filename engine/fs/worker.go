package fs

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/luchsj/vcEngine/engine/queue"
	"github.com/luchsj/vcEngine/internal/buf"
)

func (fs *FS) fileLoop() int {
	for {
		w := fs.fileQueue.Pop()
		if w == nil {
			return 0
		}
		switch w.op {
		case opRead:
			fs.fileRead(w)
		case opWrite:
			fs.fileWrite(w)
		}
	}
}

func (fs *FS) codecLoop() int {
	for {
		w := fs.codecQueue.Pop()
		if w == nil {
			return 0
		}
		switch w.op {
		case opRead:
			fs.decompress(w)
		case opWrite:
			fs.compress(w)
		}
	}
}

// complete records the outcome of w and signals it.
func (fs *FS) complete(w *Work, err error) {
	if err != nil {
		w.err, w.result = err, resultCode(err)
		if errors.Is(err, ErrCodec) {
			w.buffer, w.size = nil, 0
			fs.log.Error("fs: codec failure", "op", w.op.String(), "path", w.path, "codec", fs.codec.Name(), "error", err)
		} else {
			fs.log.Debug("fs: work failed", "op", w.op.String(), "path", w.path, "result", w.result, "error", err)
		}
	}
	w.done.Signal()
	fs.pending.Done()
}

// handoff moves w to the other stage's queue. If that queue is full the
// push completes from a new goroutine so the two stages never wait on each
// other.
func (fs *FS) handoff(q *queue.Queue[*Work], w *Work) {
	if !q.TryPush(w) {
		go q.Push(w)
	}
}

func (fs *FS) fileRead(w *Work) {
	f, err := os.Open(w.path)
	if err != nil {
		fs.complete(w, err)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		fs.complete(w, err)
		return
	}
	size := int(info.Size())

	if w.useCompression {
		raw, err := fs.heap.Alloc(size, 0)
		if err != nil {
			fs.complete(w, fmt.Errorf("fs: read %s: %w", w.path, err))
			return
		}
		w.intermediate = raw
		n, err := io.ReadFull(f, raw)
		if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
			fs.complete(w, err)
			return
		}
		rawSize, headerLen, err := ParseHeader(raw[:n])
		if err != nil {
			fs.complete(w, fmt.Errorf("fs: read %s: %w", w.path, err))
			return
		}
		w.rawSize = rawSize
		w.payload = raw[headerLen:n]
		fs.handoff(fs.codecQueue, w)
		return
	}

	dst, err := w.heap.Alloc(size+terminator(w), 0)
	if err != nil {
		fs.complete(w, fmt.Errorf("fs: read %s: %w", w.path, err))
		return
	}
	n, err := io.ReadFull(f, dst[:size])
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		_ = w.heap.Free(dst)
		fs.complete(w, err)
		return
	}
	w.buffer, w.size = terminate(w, dst, n), n
	fs.complete(w, nil)
}

func (fs *FS) fileWrite(w *Work) {
	data := w.buffer
	if w.useCompression {
		data = w.payload
	}
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		fs.complete(w, err)
		return
	}
	n, err := f.Write(data)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if !w.useCompression {
		w.size = n
	}
	fs.freeIntermediate(w)
	fs.complete(w, err)
}

func (fs *FS) compress(w *Work) {
	src := w.buffer
	total, ok := buf.Sizes(MaxHeaderLen, fs.codec.Bound(len(src)))
	if !ok {
		fs.complete(w, fmt.Errorf("%w: %d byte input too large for %s", ErrCodec, len(src), fs.codec.Name()))
		return
	}
	out, err := fs.heap.Alloc(total, 0)
	if err != nil {
		fs.complete(w, fmt.Errorf("fs: write %s: %w", w.path, err))
		return
	}
	w.intermediate = out

	hdr := AppendHeader(out[:0], len(src))
	n := 0
	if len(src) > 0 {
		if n, err = fs.codec.Compress(out[len(hdr):], src); err != nil || n <= 0 {
			fs.freeIntermediate(w)
			fs.complete(w, fs.codecError("compress", n, err))
			return
		}
	}
	w.payload = out[:len(hdr)+n]
	fs.handoff(fs.fileQueue, w)
}

// decompress decodes the payload into a buffer from the caller's heap and
// frees the intermediate before signaling.
func (fs *FS) decompress(w *Work) {
	dst, err := w.heap.Alloc(w.rawSize+terminator(w), 0)
	if err != nil {
		fs.freeIntermediate(w)
		fs.complete(w, fmt.Errorf("fs: read %s: %w", w.path, err))
		return
	}
	if w.rawSize > 0 || len(w.payload) > 0 {
		n, err := fs.codec.Decompress(dst[:w.rawSize], w.payload)
		if err == nil && n != w.rawSize {
			err = fmt.Errorf("produced %d of %d bytes", n, w.rawSize)
		}
		if err != nil {
			_ = w.heap.Free(dst)
			fs.freeIntermediate(w)
			fs.complete(w, fs.codecError("decompress", n, err))
			return
		}
	}
	fs.freeIntermediate(w)
	w.buffer, w.size = terminate(w, dst, w.rawSize), w.rawSize
	fs.complete(w, nil)
}

func (fs *FS) codecError(op string, n int, err error) error {
	if err == nil {
		err = fmt.Errorf("returned size %d", n)
	}
	return fmt.Errorf("%w: %s %s: %w", ErrCodec, fs.codec.Name(), op, err)
}

func terminator(w *Work) int {
	if w.nullTerminate {
		return 1
	}
	return 0
}

// terminate appends the zero byte to a null-terminated read and trims dst
// to n bytes.
func terminate(w *Work, dst []byte, n int) []byte {
	if w.nullTerminate {
		dst[:n+1][n] = 0
	}
	return dst[:n]
}

func (fs *FS) freeIntermediate(w *Work) {
	if w.intermediate == nil {
		return
	}
	if err := fs.heap.Free(w.intermediate); err != nil {
		fs.log.Warn("fs: intermediate buffer free failed", "path", w.path, "error", err)
	}
	w.intermediate, w.payload = nil, nil
}
