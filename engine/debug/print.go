package debug

import (
	"context"
	"fmt"
	"os"
	"runtime"
	rdebug "runtime/debug"
	"strings"

	"github.com/luchsj/vcEngine/internal/logger"
)

// Print kinds, combinable into a mask.
const (
	PrintInfo    = logger.KindInfo
	PrintWarning = logger.KindWarning
	PrintError   = logger.KindError
	PrintDebug   = logger.KindDebug
)

// SetPrintMask sets the kinds of messages allowed to print.
func SetPrintMask(mask uint32) { logger.SetMask(mask) }

// PrintMask returns the kinds of messages currently allowed to print.
func PrintMask() uint32 { return logger.Mask() }

// Print logs a formatted message if any of the kinds in kind is enabled.
// A trailing newline in the formatted text is dropped.
func Print(kind uint32, format string, args ...any) {
	enabled := kind & logger.Mask()
	if enabled == 0 {
		return
	}
	msg := strings.TrimRight(fmt.Sprintf(format, args...), "\n")
	logger.L.Log(context.Background(), logger.LevelOf(enabled), msg)
}

// Backtrace stores the return addresses of the calling goroutine's stack in
// pcs, skipping skip frames above the caller of Backtrace, and returns the
// number stored.
func Backtrace(pcs []uintptr, skip int) int {
	return runtime.Callers(skip+2, pcs)
}

// InstallCrashHandler makes the runtime write fatal error reports to the
// file at path as well as stderr. The file is truncated.
func InstallCrashHandler(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("debug: open crash output: %w", err)
	}
	defer f.Close() // SetCrashOutput duplicates the descriptor
	if err := rdebug.SetCrashOutput(f, rdebug.CrashOptions{}); err != nil {
		return fmt.Errorf("debug: set crash output: %w", err)
	}
	return nil
}
