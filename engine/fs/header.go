package fs

import "strconv"

// MaxHeaderLen is the largest size header accepted, newline included.
const MaxHeaderLen = 16

// AppendHeader appends the size header for an uncompressed payload of n
// bytes: n in ASCII decimal followed by a newline.
func AppendHeader(dst []byte, n int) []byte {
	dst = strconv.AppendInt(dst, int64(n), 10)
	return append(dst, '\n')
}

// ParseHeader reads the size header at the start of b. It returns the
// uncompressed size and the header length including the newline.
func ParseHeader(b []byte) (size, headerLen int, err error) {
	window := b[:min(len(b), MaxHeaderLen)]
	for i, c := range window {
		switch {
		case c == '\n':
			if i == 0 {
				return 0, 0, ErrHeaderSyntax
			}
			return size, i + 1, nil
		case c >= '0' && c <= '9':
			size = size*10 + int(c-'0')
		default:
			return 0, 0, ErrHeaderSyntax
		}
	}
	if len(window) == MaxHeaderLen {
		return 0, 0, ErrHeaderTooLong
	}
	return 0, 0, ErrHeaderMissing
}
