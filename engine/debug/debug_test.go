package debug

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	rdebug "runtime/debug"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luchsj/vcEngine/internal/logger"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	prev, prevMask := logger.L, logger.Mask()
	t.Cleanup(func() {
		logger.L = prev
		logger.SetMask(prevMask)
	})
	var buf bytes.Buffer
	require.NoError(t, logger.Init(logger.Options{Enabled: true, Output: &buf, Mask: logger.DefaultMask}))
	return &buf
}

func TestPrintRespectsMask(t *testing.T) {
	buf := captureLog(t)

	SetPrintMask(PrintError)
	require.Equal(t, PrintError, PrintMask())

	Print(PrintWarning, "warn %d\n", 1)
	require.Empty(t, buf.String())

	Print(PrintWarning|PrintError, "both %d\n", 2)
	out := buf.String()
	require.Contains(t, out, "both 2")
	require.Contains(t, out, "level=ERROR")
	require.NotContains(t, out, `2\n`)

	buf.Reset()
	SetPrintMask(PrintDebug | PrintInfo)
	Print(PrintDebug, "chatter")
	require.Contains(t, buf.String(), "level=DEBUG")
}

func TestBacktraceStartsAtCaller(t *testing.T) {
	pcs := make([]uintptr, 8)
	n := Backtrace(pcs, 0)
	require.Positive(t, n)

	frame, _ := runtime.CallersFrames(pcs[:n]).Next()
	require.True(t, strings.HasSuffix(frame.Function, "TestBacktraceStartsAtCaller"), frame.Function)
}

func TestInstallCrashHandler(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crash.txt")
	require.NoError(t, InstallCrashHandler(path))
	t.Cleanup(func() { _ = rdebug.SetCrashOutput(nil, rdebug.CrashOptions{}) })

	_, err := os.Stat(path)
	require.NoError(t, err)

	require.Error(t, InstallCrashHandler(filepath.Join(t.TempDir(), "missing", "crash.txt")))
}

//go:noinline
func recordFromHelper(tr *Tracer, addr uintptr, size int) {
	tr.RecordTrace(addr, size)
}

func TestTracerRecordAndRemove(t *testing.T) {
	tr := NewTracer(TracerOptions{})
	for i := range 100 {
		tr.RecordTrace(uintptr(0x1000+16*i), i)
	}
	require.Equal(t, 100, tr.Len())

	rec, ok := tr.Lookup(0x1000 + 16*7)
	require.True(t, ok)
	require.Equal(t, 7, rec.Size)
	require.NotEmpty(t, rec.PCs)

	for i := range 50 {
		tr.RemoveTrace(uintptr(0x1000 + 32*i))
	}
	require.Equal(t, 50, tr.Len())
	_, ok = tr.Lookup(0x1000)
	require.False(t, ok)
	_, ok = tr.Lookup(0x1000 + 16)
	require.True(t, ok)

	// Unknown addresses are ignored.
	tr.RemoveTrace(0xdead)
	require.Equal(t, 50, tr.Len())

	tr.Reset()
	require.Zero(t, tr.Len())
	tr.RecordTrace(0x10, 1)
	require.Equal(t, 1, tr.Len())
}

func TestTracerReplacesStaleRecord(t *testing.T) {
	tr := NewTracer(TracerOptions{})
	tr.RecordTrace(0x40, 8)
	tr.RecordTrace(0x40, 24)
	require.Equal(t, 1, tr.Len())

	rec, ok := tr.Lookup(0x40)
	require.True(t, ok)
	require.Equal(t, 24, rec.Size)
}

func TestTracerBucketOverflowDrops(t *testing.T) {
	tr := NewTracer(TracerOptions{Buckets: 1, BucketCapacity: 2})
	tr.RecordTrace(0x10, 1)
	tr.RecordTrace(0x20, 2)
	tr.RecordTrace(0x30, 3)

	require.Equal(t, 2, tr.Len())
	require.Equal(t, 1, tr.Dropped())
	_, ok := tr.Lookup(0x30)
	require.False(t, ok)

	// Freeing space lets later records in.
	tr.RemoveTrace(0x10)
	tr.RecordTrace(0x30, 3)
	_, ok = tr.Lookup(0x30)
	require.True(t, ok)
}

func TestTracerUninitialized(t *testing.T) {
	var nilTracer *Tracer
	zero := &Tracer{}
	closed := NewTracer(TracerOptions{})
	closed.RecordTrace(0x10, 1)
	closed.Close()

	for name, tr := range map[string]*Tracer{"nil": nilTracer, "zero": zero, "closed": closed} {
		t.Run(name, func(t *testing.T) {
			require.NotPanics(t, func() {
				tr.RecordTrace(0x10, 4)
				tr.RemoveTrace(0x10)
				tr.Reset()
				tr.Close()
			})
			require.Zero(t, tr.Len())
			require.False(t, tr.PrintTrace(0x10))
			_, ok := tr.Lookup(0x10)
			require.False(t, ok)
		})
	}
}

func TestPrintTraceFormat(t *testing.T) {
	var out bytes.Buffer
	tr := NewTracer(TracerOptions{Skip: 0, Output: &out})

	recordFromHelper(tr, 0xbeef0, 48)
	require.True(t, tr.PrintTrace(0xbeef0))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.GreaterOrEqual(t, len(lines), 2)
	require.Equal(t, "memory leak of 48 bytes (48 B) at 0xbeef0 with call stack:", lines[0])
	require.True(t, strings.HasPrefix(lines[1], "[0] "), lines[1])
	require.Contains(t, lines[1], "recordFromHelper at debug_test.go:")
	require.Contains(t, lines[2], "TestPrintTraceFormat")

	require.False(t, tr.PrintTrace(0x1234))
}

func TestPrintTraceStopsAtEntry(t *testing.T) {
	var out bytes.Buffer
	tr := NewTracer(TracerOptions{Skip: 0, Output: &out, StopAt: "testing.tRunner", Depth: 32})
	recordFromHelper(tr, 0x80, 8)
	require.True(t, tr.PrintTrace(0x80))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	last := lines[len(lines)-1]
	require.Contains(t, last, "testing.tRunner")
}

type unknownResolver struct{}

func (unknownResolver) Resolve(pcs []uintptr) []Frame {
	return make([]Frame, len(pcs))
}

func TestPrintTraceUnknownFrames(t *testing.T) {
	var out bytes.Buffer
	tr := NewTracer(TracerOptions{Output: &out, Resolver: unknownResolver{}})
	tr.RecordTrace(0x90, 2048)
	require.True(t, tr.PrintTrace(0x90))
	require.Contains(t, out.String(), "memory leak of 2048 bytes (2.0 KiB)")
	require.Contains(t, out.String(), "[0] unknown at unknown:0")
}

func TestPrintTraceThroughLogger(t *testing.T) {
	buf := captureLog(t)
	tr := NewTracer(TracerOptions{})
	tr.RecordTrace(0xa0, 16)
	require.True(t, tr.PrintTrace(0xa0))
	require.Contains(t, buf.String(), "memory leak of 16 bytes")
	require.Contains(t, buf.String(), "level=WARN")
}

func TestAddressResolver(t *testing.T) {
	frames := AddressResolver{}.Resolve([]uintptr{0x10, 0xff})
	require.Len(t, frames, 2)
	require.Equal(t, "0x10", frames[0].Function)
	require.Equal(t, fmt.Sprintf("0x%x", 0xff), frames[1].Function)
	require.Empty(t, RuntimeResolver{}.Resolve(nil))
}
