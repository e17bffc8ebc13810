package heap

import "errors"

var (
	// ErrOutOfMemory indicates no arena had room and growing the heap failed.
	ErrOutOfMemory = errors.New("heap: out of memory")

	// ErrBadAlignment indicates an alignment that is not a power of two.
	ErrBadAlignment = errors.New("heap: alignment must be a power of two")

	// ErrBadSize indicates a negative allocation size.
	ErrBadSize = errors.New("heap: negative size")

	// ErrBadAddress indicates a buffer that is not a live allocation of this
	// heap: a double free or a foreign pointer.
	ErrBadAddress = errors.New("heap: address is not a live allocation")

	// ErrDestroyed indicates use of a heap after Destroy.
	ErrDestroyed = errors.New("heap: destroyed")
)
