package buf

import (
	"math"
	"testing"
)

func TestAddOverflowSafe(t *testing.T) {
	if sum, ok := AddOverflowSafe(10, 5); !ok || sum != 15 {
		t.Fatalf("AddOverflowSafe(10,5)=%d,%v want 15,true", sum, ok)
	}
	if _, ok := AddOverflowSafe(math.MaxInt, 1); ok {
		t.Fatalf("expected overflow when adding to MaxInt")
	}
	if _, ok := AddOverflowSafe(math.MinInt, -1); ok {
		t.Fatalf("expected underflow when subtracting from MinInt")
	}
}

func TestMulOverflowSafe(t *testing.T) {
	if p, ok := MulOverflowSafe(4096, 2); !ok || p != 8192 {
		t.Fatalf("MulOverflowSafe(4096,2)=%d,%v want 8192,true", p, ok)
	}
	if p, ok := MulOverflowSafe(0, math.MaxInt); !ok || p != 0 {
		t.Fatalf("MulOverflowSafe(0,MaxInt)=%d,%v want 0,true", p, ok)
	}
	if _, ok := MulOverflowSafe(math.MaxInt/2+1, 2); ok {
		t.Fatalf("expected overflow doubling past MaxInt")
	}
	if _, ok := MulOverflowSafe(-1, 2); ok {
		t.Fatalf("expected failure for negative size")
	}
}

func TestAlignUp(t *testing.T) {
	cases := []struct{ n, align, want int }{
		{0, 8, 0}, {1, 8, 8}, {8, 8, 8}, {9, 16, 16}, {4095, 4096, 4096},
	}
	for _, c := range cases {
		if got, ok := AlignUp(c.n, c.align); !ok || got != c.want {
			t.Fatalf("AlignUp(%d,%d)=%d,%v want %d", c.n, c.align, got, ok, c.want)
		}
	}
	if _, ok := AlignUp(math.MaxInt-3, 8); ok {
		t.Fatalf("expected overflow aligning near MaxInt")
	}
}

func TestSizes(t *testing.T) {
	if total, ok := Sizes(16, 4096, 1); !ok || total != 4113 {
		t.Fatalf("Sizes=%d,%v want 4113,true", total, ok)
	}
	if _, ok := Sizes(1, -1); ok {
		t.Fatalf("expected failure for negative size")
	}
	if _, ok := Sizes(math.MaxInt, 1); ok {
		t.Fatalf("expected overflow")
	}
}
