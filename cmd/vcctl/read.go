package main

import (
	"fmt"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/luchsj/vcEngine/engine/fs"
)

var readCompress bool

func init() {
	cmd := newReadCmd()
	cmd.Flags().BoolVarP(&readCompress, "compress", "c", false, "Decompress the files")
	rootCmd.AddCommand(cmd)
}

func newReadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read <path>...",
		Short: "Read files through the asynchronous file system",
		Long: `The read command queues a read for every path at once and prints
the contents in argument order once they have all completed.

Example:
  vcctl read foo.bar
  vcctl read --compress a.lz4 b.lz4 --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRead(cmd, args)
		},
	}
}

type readResult struct {
	Path string `json:"path"`
	Size int    `json:"size"`
	Data string `json:"data"`
}

func runRead(cmd *cobra.Command, args []string) error {
	h, fsys, closeEngine, err := openEngine()
	if err != nil {
		return err
	}

	works := make([]*fs.Work, len(args))
	for i, path := range args {
		works[i] = fsys.Read(path, h, false, readCompress)
	}

	results := make([]readResult, len(args))
	var mu sync.Mutex
	var g errgroup.Group
	for i, w := range works {
		g.Go(func() error {
			defer w.Destroy()
			if w.Result() != 0 {
				return fmt.Errorf("read %s failed (result %d): %w", args[i], w.Result(), w.Err())
			}
			buf := w.Buffer()
			mu.Lock()
			results[i] = readResult{Path: args[i], Size: w.Size(), Data: string(buf)}
			mu.Unlock()
			return h.Free(buf)
		})
	}
	err = g.Wait()
	if cerr := closeEngine(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOut {
		return printJSON(out, results)
	}
	for _, r := range results {
		if len(results) > 1 {
			printInfo(out, "==> %s <==\n", r.Path)
		}
		fmt.Fprint(out, r.Data)
		if len(results) > 1 {
			fmt.Fprintln(out)
		}
	}
	return nil
}
