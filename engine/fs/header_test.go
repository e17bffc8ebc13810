package fs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppendHeader(t *testing.T) {
	require.Equal(t, "12\n", string(AppendHeader(nil, 12)))
	require.Equal(t, "0\n", string(AppendHeader(nil, 0)))
	require.Equal(t, "x1048576\n", string(AppendHeader([]byte("x"), 1<<20)))
}

func TestParseHeader(t *testing.T) {
	size, n, err := ParseHeader([]byte("12\npayload"))
	require.NoError(t, err)
	require.Equal(t, 12, size)
	require.Equal(t, 3, n)

	size, n, err = ParseHeader([]byte("0\n"))
	require.NoError(t, err)
	require.Zero(t, size)
	require.Equal(t, 2, n)

	// Fifteen digits and the newline fill the window exactly.
	size, n, err = ParseHeader([]byte("123456789012345\n"))
	require.NoError(t, err)
	require.Equal(t, 123456789012345, size)
	require.Equal(t, MaxHeaderLen, n)

	_, _, err = ParseHeader([]byte("1234567890123456\n"))
	require.ErrorIs(t, err, ErrHeaderTooLong)

	_, _, err = ParseHeader([]byte("\nabc"))
	require.ErrorIs(t, err, ErrHeaderSyntax)
	_, _, err = ParseHeader([]byte("-5\n"))
	require.ErrorIs(t, err, ErrHeaderSyntax)
	_, _, err = ParseHeader([]byte("42"))
	require.ErrorIs(t, err, ErrHeaderMissing)
	_, _, err = ParseHeader(nil)
	require.ErrorIs(t, err, ErrHeaderMissing)
}

func TestHeaderRoundTrip(t *testing.T) {
	for _, n := range []int{0, 1, 9, 10, 12, 4096, 1<<31 - 1} {
		hdr := AppendHeader(nil, n)
		got, hl, err := ParseHeader(append(hdr, "rest"...))
		require.NoError(t, err)
		require.Equal(t, n, got)
		require.Equal(t, len(hdr), hl)
	}
}

func TestCodecsRoundTrip(t *testing.T) {
	src := []byte("the quick brown frog jumps over the lazy log, the quick brown frog")
	for _, c := range []Codec{LZ4{}, Snappy{}} {
		t.Run(c.Name(), func(t *testing.T) {
			dst := make([]byte, c.Bound(len(src)))
			n, err := c.Compress(dst, src)
			require.NoError(t, err)
			require.Positive(t, n)

			out := make([]byte, len(src))
			m, err := c.Decompress(out, dst[:n])
			require.NoError(t, err)
			require.Equal(t, len(src), m)
			require.Equal(t, src, out)

			_, err = c.Decompress(make([]byte, 4), dst[:n])
			require.Error(t, err)
		})
	}
}

func TestResultCode(t *testing.T) {
	require.Zero(t, resultCode(nil))
	require.Equal(t, -1, resultCode(ErrCodec))
}
