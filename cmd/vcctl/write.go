package main

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	writeCompress bool
	writeFrom     string
)

func init() {
	cmd := newWriteCmd()
	cmd.Flags().BoolVarP(&writeCompress, "compress", "c", false, "Compress the file")
	cmd.Flags().StringVar(&writeFrom, "from", "", "Read data from this file ('-' for stdin)")
	rootCmd.AddCommand(cmd)
}

func newWriteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "write <path> [text]",
		Short: "Write a file through the asynchronous file system",
		Long: `The write command queues a single write and waits for it. With
--compress the file is written as a decimal size header followed by the
compressed bytes.

Example:
  vcctl write foo.bar "hello world!"
  vcctl write --compress --codec snappy level.dat --from level.json
  cat notes.txt | vcctl write notes.lz4 --compress --from -`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWrite(cmd, args)
		},
	}
}

func runWrite(cmd *cobra.Command, args []string) error {
	data, err := writeInput(cmd, args)
	if err != nil {
		return err
	}

	_, fsys, closeEngine, err := openEngine()
	if err != nil {
		return err
	}

	w := fsys.Write(args[0], data, writeCompress)
	if w.Result() != 0 {
		err = fmt.Errorf("write %s failed (result %d): %w", args[0], w.Result(), w.Err())
	}
	size := w.Size()
	w.Destroy()
	if cerr := closeEngine(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOut {
		return printJSON(out, map[string]any{"path": args[0], "size": size, "compressed": writeCompress})
	}
	printInfo(out, "wrote %s to %s\n", humanize.IBytes(uint64(size)), args[0])
	return nil
}

func writeInput(cmd *cobra.Command, args []string) ([]byte, error) {
	switch {
	case len(args) == 2 && writeFrom != "":
		return nil, fmt.Errorf("give either text or --from, not both")
	case len(args) == 2:
		return []byte(args[1]), nil
	case writeFrom == "-":
		return io.ReadAll(cmd.InOrStdin())
	case writeFrom != "":
		return os.ReadFile(writeFrom)
	default:
		return nil, fmt.Errorf("nothing to write: give text or --from")
	}
}
