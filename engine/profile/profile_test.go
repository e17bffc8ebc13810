package profile

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luchsj/vcEngine/engine/fs"
	"github.com/luchsj/vcEngine/engine/heap"
)

// fakeClock advances by step on every reading.
func fakeClock(step time.Duration) func() time.Time {
	t := time.Unix(0, 0)
	return func() time.Time {
		t = t.Add(step)
		return t
	}
}

func TestNestedDurations(t *testing.T) {
	p := New(8)
	p.now = fakeClock(time.Millisecond)

	p.CaptureStart("unused.json")
	require.True(t, p.Active())
	p.Push("frame")
	p.Push("update")
	p.Pop()
	p.Push("render")
	p.Pop()
	p.Pop()

	events := p.Events()
	require.Len(t, events, 6)
	var phases, names []string
	for _, ev := range events {
		phases = append(phases, ev.Phase)
		names = append(names, ev.Name)
	}
	require.Equal(t, []string{"B", "B", "E", "B", "E", "E"}, phases)
	require.Equal(t, []string{"frame", "update", "update", "render", "render", "frame"}, names)
	require.Equal(t, 1000.0, events[0].TS)
	require.Equal(t, 6000.0, events[5].TS)
	for i := 1; i < len(events); i++ {
		require.Greater(t, events[i].TS, events[i-1].TS)
	}
}

func TestPushRequiresCapture(t *testing.T) {
	p := New(4)
	p.Push("early")
	p.Pop()
	require.Empty(t, p.Events())
}

func TestCapacityDropsExtraDurations(t *testing.T) {
	p := New(2)
	p.CaptureStart("x.json")
	p.Push("a")
	p.Pop()
	p.Push("b")
	p.Push("c") // over capacity
	p.Pop()
	p.Pop() // unmatched

	require.Len(t, p.Events(), 4)
}

func TestCaptureStopWritesTrace(t *testing.T) {
	h, err := heap.Create(64 << 10)
	require.NoError(t, err)
	defer h.Destroy()
	fsys, err := fs.Create(h, 4)
	require.NoError(t, err)
	defer fsys.Destroy()

	path := filepath.Join(t.TempDir(), "trace.json")
	p := New(16)
	p.CaptureStart(path)
	p.Push("load")
	p.Push("parse")
	p.Pop()
	// "load" is left open and closed by CaptureStop.

	w := p.CaptureStop(fsys)
	require.NotNil(t, w)
	require.Equal(t, 0, w.Result())
	w.Destroy()
	require.False(t, p.Active())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc struct {
		DisplayTimeUnit string `json:"displayTimeUnit"`
		TraceEvents     []struct {
			Name string  `json:"name"`
			Ph   string  `json:"ph"`
			PID  int     `json:"pid"`
			TID  int     `json:"tid"`
			TS   float64 `json:"ts"`
		} `json:"traceEvents"`
	}
	require.NoError(t, json.Unmarshal(raw, &doc))
	require.Equal(t, "ns", doc.DisplayTimeUnit)
	require.Len(t, doc.TraceEvents, 4)
	require.Equal(t, "load", doc.TraceEvents[3].Name)
	require.Equal(t, "E", doc.TraceEvents[3].Ph)
	require.Equal(t, os.Getpid(), doc.TraceEvents[0].PID)

	require.Nil(t, p.CaptureStop(fsys))
}
