// Package debug provides the engine's diagnostic facilities.
//
// # Printing
//
// Print writes a formatted message through the engine logger if its kind
// is enabled in the print mask:
//
//	debug.SetPrintMask(debug.PrintWarning | debug.PrintError)
//	debug.Print(debug.PrintWarning, "asset %s missing\n", name)
//
// # Allocation tracing
//
// A Tracer records, for every live allocation, the requested size and the
// call stack that produced it. Stacks are captured as raw program counters
// and only resolved to function, file and line when a report is printed, so
// the cost on the allocation path stays at one runtime.Callers call.
//
// Records live in a fixed number of hash buckets keyed by address. Each
// bucket holds at most BucketCapacity records; when a bucket is full the
// record is dropped and a rate-limited warning is logged. Tracing never
// causes an allocation to fail.
//
// The zero Tracer (and a nil *Tracer) is uninitialized: every method logs a
// warning and does nothing. Use NewTracer to obtain a working one.
//
// # Crash output
//
// InstallCrashHandler redirects fatal runtime errors and unrecovered panics
// to a file in addition to stderr.
package debug
