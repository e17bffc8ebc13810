package fs

import (
	"errors"
	"syscall"
)

var (
	// ErrHeaderMissing indicates a compressed file that ends before its
	// size header is complete.
	ErrHeaderMissing = errors.New("fs: compressed size header missing")

	// ErrHeaderTooLong indicates no newline within the header window.
	ErrHeaderTooLong = errors.New("fs: compressed size header too long")

	// ErrHeaderSyntax indicates a header that is not decimal digits followed
	// by a newline.
	ErrHeaderSyntax = errors.New("fs: malformed compressed size header")

	// ErrCodec indicates the codec failed or produced an unexpected size.
	ErrCodec = errors.New("fs: codec failure")

	// ErrClosed indicates work submitted after Destroy.
	ErrClosed = errors.New("fs: file system destroyed")
)

// resultCode maps an error onto the numeric work result: 0 for success,
// the OS error number when there is one, -1 otherwise.
func resultCode(err error) int {
	if err == nil {
		return 0
	}
	var errno syscall.Errno
	if errors.As(err, &errno) && errno != 0 {
		return int(errno)
	}
	return -1
}
