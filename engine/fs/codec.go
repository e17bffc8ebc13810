package fs

import (
	"fmt"

	"github.com/golang/snappy"
	"github.com/pierrec/lz4/v4"
)

// Codec compresses whole buffers. Implementations must be safe for use by
// one goroutine at a time.
type Codec interface {
	Name() string
	// Bound returns the largest compressed size of an n byte input, or a
	// negative value if n is too large.
	Bound(n int) int
	// Compress writes the compressed form of src into dst, which holds at
	// least Bound(len(src)) bytes, and returns its length.
	Compress(dst, src []byte) (int, error)
	// Decompress writes the decompressed form of src into dst and returns
	// its length.
	Decompress(dst, src []byte) (int, error)
}

// LZ4 is the LZ4 block format. It is the default codec.
type LZ4 struct{}

func (LZ4) Name() string { return "lz4" }
func (LZ4) Bound(n int) int { return lz4.CompressBlockBound(n) }

func (LZ4) Compress(dst, src []byte) (int, error) {
	n, err := lz4.CompressBlock(src, dst, nil)
	if err != nil {
		return 0, err
	}
	if n <= 0 && len(src) > 0 {
		return 0, fmt.Errorf("lz4: block not compressible into %d bytes", len(dst))
	}
	return n, nil
}

func (LZ4) Decompress(dst, src []byte) (int, error) {
	return lz4.UncompressBlock(src, dst)
}

// Snappy is the snappy block format.
type Snappy struct{}

func (Snappy) Name() string { return "snappy" }
func (Snappy) Bound(n int) int { return snappy.MaxEncodedLen(n) }

func (Snappy) Compress(dst, src []byte) (int, error) {
	if bound := snappy.MaxEncodedLen(len(src)); bound < 0 || len(dst) < bound {
		return 0, fmt.Errorf("snappy: %d byte buffer too small for %d byte input", len(dst), len(src))
	}
	return len(snappy.Encode(dst, src)), nil
}

func (Snappy) Decompress(dst, src []byte) (int, error) {
	n, err := snappy.DecodedLen(src)
	if err != nil {
		return 0, err
	}
	if n > len(dst) {
		return 0, fmt.Errorf("snappy: decoded length %d exceeds %d", n, len(dst))
	}
	out, err := snappy.Decode(dst[:n], src)
	if err != nil {
		return 0, err
	}
	return len(out), nil
}
