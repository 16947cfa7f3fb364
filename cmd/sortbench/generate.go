package main

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/tamirms/sortbench/internal/dataset"
)

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a file of pseudo-random uint64 values",
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			e, err := setup(cmd)
			if err != nil {
				return err
			}
			defer func() { err = errors.Join(err, e.Close()) }()

			size, err := e.bytesFlag("size")
			if err != nil {
				return err
			}
			out := e.v.GetString("out")
			if out == "" {
				return errors.New("--out is required")
			}

			start := time.Now()
			if err := dataset.Generate(out, int64(size), e.v.GetUint64("seed"),
				newDots(e.stdout, "creating shuffled file...").report); err != nil {
				return err
			}
			elapsed := time.Since(start)
			fmt.Fprintf(e.stdout, "wrote %s to %s in %s\n", humanize.IBytes(size), out, formatPass(elapsed))
			e.logger.Info("generated",
				slog.String("path", out),
				slog.Uint64("bytes", size),
				slog.String("throughput", throughput(int64(size), elapsed)))
			return nil
		},
	}
	f := cmd.Flags()
	f.String("size", "", "file size, e.g. 512MiB; must be a multiple of 8 bytes")
	f.String("out", "", "output path")
	f.Uint64("seed", 1, "generator seed")
	return cmd
}
