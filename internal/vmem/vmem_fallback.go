//go:build !unix && !windows

// Package vmem reserves and releases page-aligned memory regions directly
// from the operating system, outside the Go heap.
package vmem

import (
	"fmt"
	"os"
)

// PageSize returns the OS page size.
func PageSize() int { return os.Getpagesize() }

// Reserve allocates a Go byte slice when no OS mapping primitive is
// available. The slice is kept alive by the caller holding it.
func Reserve(size int) ([]byte, func() error, error) {
	if size <= 0 {
		return nil, nil, fmt.Errorf("vmem: invalid size %d", size)
	}
	data := make([]byte, RoundUp(size))
	return data, func() error { return nil }, nil
}
