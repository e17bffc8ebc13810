//go:build unix

// Package vmem reserves and releases page-aligned memory regions directly
// from the operating system, outside the Go heap.
package vmem

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// PageSize returns the OS page size.
func PageSize() int { return unix.Getpagesize() }

// Reserve maps size bytes of zeroed, read-write anonymous memory. The size
// is rounded up to a whole number of pages. The returned release function
// unmaps the region; calling it twice is a no-op.
func Reserve(size int) ([]byte, func() error, error) {
	if size <= 0 {
		return nil, nil, fmt.Errorf("vmem: invalid size %d", size)
	}
	size = RoundUp(size)
	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, nil, fmt.Errorf("vmem: mmap %d bytes: %w", size, err)
	}
	release := func() error {
		if data == nil {
			return nil
		}
		err := unix.Munmap(data)
		if errors.Is(err, unix.EINVAL) {
			// Treat double-unmap as no-op for callers.
			return nil
		}
		data = nil
		return err
	}
	return data, release, nil
}
