// Package logger holds the engine-wide structured logger and the print mask
// that decides which message kinds reach it.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
)

// Message kinds. A record is emitted only if its kind is set in the mask.
const (
	KindInfo    uint32 = 1 << 0
	KindWarning uint32 = 1 << 1
	KindError   uint32 = 1 << 2
	KindDebug   uint32 = 1 << 3

	// DefaultMask enables everything except debug chatter.
	DefaultMask = KindInfo | KindWarning | KindError
)

var mask atomic.Uint32

func init() {
	mask.Store(DefaultMask)
}

// L is the global logger instance. It writes text records to stderr until
// Init is called.
var L *slog.Logger = slog.New(&maskHandler{next: slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})})

// Options configures the logger initialization.
type Options struct {
	Enabled bool      // If false, all logging is discarded
	Output  io.Writer // Destination when LogFile is empty. Default: os.Stderr
	LogFile string    // Append JSON records to this file instead of Output
	JSON    bool      // Use the JSON handler for Output
	Mask    uint32    // Kinds to emit. Default: DefaultMask
}

// Init configures logging. Call from main() before spawning goroutines that
// log.
func Init(opts Options) error {
	if !opts.Enabled {
		L = slog.New(slog.DiscardHandler)
		return nil
	}

	if opts.Mask != 0 {
		mask.Store(opts.Mask)
	}

	hopts := &slog.HandlerOptions{Level: slog.LevelDebug}
	var h slog.Handler
	switch {
	case opts.LogFile != "":
		if err := os.MkdirAll(filepath.Dir(opts.LogFile), 0o755); err != nil {
			return err
		}
		f, err := os.OpenFile(opts.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		h = slog.NewJSONHandler(f, hopts)
	default:
		out := opts.Output
		if out == nil {
			out = os.Stderr
		}
		if opts.JSON {
			h = slog.NewJSONHandler(out, hopts)
		} else {
			h = slog.NewTextHandler(out, hopts)
		}
	}

	L = slog.New(&maskHandler{next: h})
	return nil
}

// SetMask replaces the print mask. Safe for concurrent use.
func SetMask(m uint32) { mask.Store(m) }

// Mask returns the current print mask.
func Mask() uint32 { return mask.Load() }

// KindOf maps a slog level onto a message kind.
func KindOf(level slog.Level) uint32 {
	switch {
	case level >= slog.LevelError:
		return KindError
	case level >= slog.LevelWarn:
		return KindWarning
	case level >= slog.LevelInfo:
		return KindInfo
	default:
		return KindDebug
	}
}

// LevelOf maps a message kind onto a slog level, picking the most severe
// kind when several bits are set.
func LevelOf(kind uint32) slog.Level {
	switch {
	case kind&KindError != 0:
		return slog.LevelError
	case kind&KindWarning != 0:
		return slog.LevelWarn
	case kind&KindInfo != 0:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}

// maskHandler drops records whose kind is not in the print mask.
type maskHandler struct {
	next slog.Handler
}

func (h *maskHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return mask.Load()&KindOf(level) != 0 && h.next.Enabled(ctx, level)
}

func (h *maskHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.next.Handle(ctx, r)
}

func (h *maskHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &maskHandler{next: h.next.WithAttrs(attrs)}
}

func (h *maskHandler) WithGroup(name string) slog.Handler {
	return &maskHandler{next: h.next.WithGroup(name)}
}

// Debug logs a debug message with optional key-value pairs.
func Debug(msg string, args ...any) { L.Debug(msg, args...) }

// Info logs an info message with optional key-value pairs.
func Info(msg string, args ...any) { L.Info(msg, args...) }

// Warn logs a warning message with optional key-value pairs.
func Warn(msg string, args ...any) { L.Warn(msg, args...) }

// Error logs an error message with optional key-value pairs.
func Error(msg string, args ...any) { L.Error(msg, args...) }
