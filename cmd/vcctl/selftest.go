package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "selftest",
		Short: "Round-trip a file with and without compression",
		Long: `The selftest command writes "hello world!" to a temporary file and
reads it back through the file system, once plain and once compressed, and
checks the result codes, sizes and contents.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := os.MkdirTemp("", "vcctl-selftest-")
			if err != nil {
				return err
			}
			defer os.RemoveAll(dir)

			for _, compress := range []bool{false, true} {
				if err := roundTrip(filepath.Join(dir, "foo.bar"), compress); err != nil {
					return fmt.Errorf("compress=%v: %w", compress, err)
				}
				printInfo(cmd.OutOrStdout(), "round trip ok (compress=%v, codec=%s)\n", compress, codecName)
			}
			return nil
		},
	})
}

func roundTrip(path string, compress bool) error {
	const payload = "hello world!"

	h, fsys, closeEngine, err := openEngine()
	if err != nil {
		return err
	}

	err = func() error {
		w := fsys.Write(path, []byte(payload), compress)
		defer w.Destroy()
		if w.Result() != 0 || w.Size() != len(payload) {
			return fmt.Errorf("write: result %d size %d: %v", w.Result(), w.Size(), w.Err())
		}

		r := fsys.Read(path, h, true, compress)
		defer r.Destroy()
		if r.Result() != 0 || r.Size() != len(payload) {
			return fmt.Errorf("read: result %d size %d: %v", r.Result(), r.Size(), r.Err())
		}
		buf := r.Buffer()
		defer h.Free(buf) //nolint:errcheck
		if string(buf) != payload || buf[:len(payload)+1][len(payload)] != 0 {
			return fmt.Errorf("read back %q", buf)
		}
		return nil
	}()
	if cerr := closeEngine(); err == nil {
		err = cerr
	}
	return err
}
