package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/luchsj/vcEngine/engine/debug"
	"github.com/luchsj/vcEngine/engine/fs"
	"github.com/luchsj/vcEngine/engine/heap"
	"github.com/luchsj/vcEngine/internal/logger"
)

var (
	// Global flags
	verbose   bool
	quiet     bool
	jsonOut   bool
	logFile   string
	codecName string
	growSize  int
	queueCap  int
	crashFile string
)

var rootCmd = &cobra.Command{
	Use:   "vcctl",
	Short: "Exercise the engine heap and asynchronous file system",
	Long: `vcctl reads and writes files through the engine's asynchronous file
system, optionally compressed, and runs allocator leak checks.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging(cmd.ErrOrStderr())
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Append JSON log records to this file")
	rootCmd.PersistentFlags().StringVar(&codecName, "codec", "lz4", "Compression codec (lz4, snappy)")
	rootCmd.PersistentFlags().IntVar(&growSize, "grow", 2<<20, "Heap grow increment in bytes")
	rootCmd.PersistentFlags().IntVar(&queueCap, "queue", 16, "File system queue capacity")
	rootCmd.PersistentFlags().StringVar(&crashFile, "crash-file", "", "Also write fatal runtime errors to this file")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogging(stderr io.Writer) error {
	mask := logger.DefaultMask
	if verbose {
		mask |= logger.KindDebug
	}
	if quiet {
		mask = logger.KindError
	}
	if err := logger.Init(logger.Options{Enabled: true, Output: stderr, LogFile: logFile, Mask: mask}); err != nil {
		return fmt.Errorf("failed to open log: %w", err)
	}
	logger.SetMask(mask)
	if crashFile != "" {
		return debug.InstallCrashHandler(crashFile)
	}
	return nil
}

func selectCodec(name string) (fs.Codec, error) {
	switch name {
	case "lz4", "":
		return fs.LZ4{}, nil
	case "snappy":
		return fs.Snappy{}, nil
	default:
		return nil, fmt.Errorf("unknown codec %q (want lz4 or snappy)", name)
	}
}

// openEngine creates the heap and file system shared by the file commands.
// The returned close function reports leaked blocks as an error.
func openEngine() (*heap.Heap, *fs.FS, func() error, error) {
	codec, err := selectCodec(codecName)
	if err != nil {
		return nil, nil, nil, err
	}
	h, err := heap.Create(growSize)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create heap: %w", err)
	}
	fsys, err := fs.Create(h, queueCap, fs.WithCodec(codec))
	if err != nil {
		h.Destroy()
		return nil, nil, nil, fmt.Errorf("failed to start file system: %w", err)
	}
	closeFn := func() error {
		fsys.Destroy()
		if leaks := h.Destroy(); leaks != 0 {
			return fmt.Errorf("%d heap blocks leaked", leaks)
		}
		return nil
	}
	return h, fsys, closeFn, nil
}

// printInfo prints an info message if not in quiet mode
func printInfo(w io.Writer, format string, args ...any) {
	if !quiet {
		fmt.Fprintf(w, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
