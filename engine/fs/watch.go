package fs

import (
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/luchsj/vcEngine/engine/heap"
)

// Watcher resubmits a read of a watched file every time it is created or
// written, for hot reloading of assets.
type Watcher struct {
	fs             *FS
	heap           *heap.Heap
	useCompression bool

	w       *fsnotify.Watcher
	reloads chan *Work
	errs    chan error
	quit    chan struct{}
	wg      sync.WaitGroup

	mu    sync.Mutex
	paths map[string]struct{}
	dirs  map[string]int
}

// NewWatcher creates a watcher whose reads go through fs into buffers from
// h.
func NewWatcher(fs *FS, h *heap.Heap, useCompression bool) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	fw := &Watcher{
		fs:             fs,
		heap:           h,
		useCompression: useCompression,
		w:              w,
		reloads:        make(chan *Work, 16),
		errs:           make(chan error, 1),
		quit:           make(chan struct{}),
		paths:          make(map[string]struct{}),
		dirs:           make(map[string]int),
	}
	fw.wg.Add(1)
	go fw.loop()
	return fw, nil
}

// Add starts watching the file at path. Its directory is watched so that
// editors replacing the file are seen too.
func (fw *Watcher) Add(path string) error {
	path = filepath.Clean(path)
	dir := filepath.Dir(path)

	fw.mu.Lock()
	defer fw.mu.Unlock()
	if _, ok := fw.paths[path]; ok {
		return nil
	}
	if fw.dirs[dir] == 0 {
		if err := fw.w.Add(dir); err != nil {
			return err
		}
	}
	fw.dirs[dir]++
	fw.paths[path] = struct{}{}
	return nil
}

// Reloads delivers one read per change. The receiver owns each Work and
// its buffer.
func (fw *Watcher) Reloads() <-chan *Work { return fw.reloads }

// Errors delivers errors from the OS watcher.
func (fw *Watcher) Errors() <-chan error { return fw.errs }

// Close stops watching. Reads already delivered stay valid.
func (fw *Watcher) Close() error {
	close(fw.quit)
	err := fw.w.Close()
	fw.wg.Wait()
	return err
}

func (fw *Watcher) watched(name string) bool {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	_, ok := fw.paths[filepath.Clean(name)]
	return ok
}

func (fw *Watcher) loop() {
	defer fw.wg.Done()
	for {
		select {
		case <-fw.quit:
			return
		case ev, ok := <-fw.w.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 || !fw.watched(ev.Name) {
				continue
			}
			work := fw.fs.Read(ev.Name, fw.heap, false, fw.useCompression)
			select {
			case fw.reloads <- work:
			case <-fw.quit:
				work.Wait()
				if buf := work.Buffer(); buf != nil {
					_ = fw.heap.Free(buf)
				}
				work.Destroy()
				return
			}
		case err, ok := <-fw.w.Errors:
			if !ok {
				return
			}
			select {
			case fw.errs <- err:
			default:
			}
		}
	}
}
