//go:build windows

// Package vmem reserves and releases page-aligned memory regions directly
// from the operating system, outside the Go heap.
package vmem

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/windows"
)

// PageSize returns the OS page size.
func PageSize() int { return os.Getpagesize() }

// Reserve reserves and commits size bytes of read-write memory with
// VirtualAlloc. The size is rounded up to a whole number of pages.
func Reserve(size int) ([]byte, func() error, error) {
	if size <= 0 {
		return nil, nil, fmt.Errorf("vmem: invalid size %d", size)
	}
	size = RoundUp(size)
	addr, err := windows.VirtualAlloc(0, uintptr(size), windows.MEM_COMMIT|windows.MEM_RESERVE, windows.PAGE_READWRITE)
	if err != nil {
		return nil, nil, fmt.Errorf("vmem: VirtualAlloc %d bytes: %w", size, err)
	}
	data := unsafe.Slice((*byte)(unsafe.Pointer(addr)), size)
	release := func() error {
		if addr == 0 {
			return nil
		}
		err := windows.VirtualFree(addr, 0, windows.MEM_RELEASE)
		addr = 0
		return err
	}
	return data, release, nil
}
