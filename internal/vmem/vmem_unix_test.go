//go:build unix

package vmem

import (
	"testing"
	"unsafe"
)

func TestReserveUnix(t *testing.T) {
	data, release, err := Reserve(100)
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if len(data) != PageSize() {
		t.Fatalf("len mismatch: got %d want %d", len(data), PageSize())
	}
	if addr := uintptr(unsafe.Pointer(&data[0])); addr%uintptr(PageSize()) != 0 {
		t.Fatalf("region not page aligned: 0x%x", addr)
	}
	for i := range data {
		if data[i] != 0 {
			t.Fatalf("byte %d not zeroed: 0x%x", i, data[i])
		}
	}
	data[0], data[len(data)-1] = 0xde, 0xad
	if err := release(); err != nil {
		t.Fatalf("release: %v", err)
	}
	if err := release(); err != nil {
		t.Fatalf("second release: %v", err)
	}
}

func TestReserveInvalidSize(t *testing.T) {
	if _, _, err := Reserve(0); err == nil {
		t.Fatalf("expected error for zero size")
	}
}

func TestRoundUp(t *testing.T) {
	ps := PageSize()
	cases := map[int]int{1: ps, ps: ps, ps + 1: 2 * ps, 3*ps - 1: 3 * ps}
	for in, want := range cases {
		if got := RoundUp(in); got != want {
			t.Fatalf("RoundUp(%d) = %d, want %d", in, got, want)
		}
	}
}
