package debug

import (
	"fmt"
	"runtime"
)

// Frame is one resolved call-stack entry. Empty Function or File means the
// resolver could not name it.
type Frame struct {
	PC       uintptr
	Function string
	File     string
	Line     int
}

// Resolver turns captured program counters into frames, innermost first.
// It runs only when a trace is printed.
type Resolver interface {
	Resolve(pcs []uintptr) []Frame
}

// RuntimeResolver resolves frames with the Go runtime's symbol table,
// expanding inlined calls.
type RuntimeResolver struct{}

// Resolve implements Resolver.
func (RuntimeResolver) Resolve(pcs []uintptr) []Frame {
	if len(pcs) == 0 {
		return nil
	}
	out := make([]Frame, 0, len(pcs))
	frames := runtime.CallersFrames(pcs)
	for {
		f, more := frames.Next()
		out = append(out, Frame{PC: f.PC, Function: f.Function, File: f.File, Line: f.Line})
		if !more {
			break
		}
	}
	return out
}

// AddressResolver reports bare addresses. It suits targets where symbol
// information has been stripped.
type AddressResolver struct{}

// Resolve implements Resolver.
func (AddressResolver) Resolve(pcs []uintptr) []Frame {
	out := make([]Frame, len(pcs))
	for i, pc := range pcs {
		out[i] = Frame{PC: pc, Function: fmt.Sprintf("0x%x", pc)}
	}
	return out
}
