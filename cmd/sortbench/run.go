package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/tamirms/sortbench"
	sberrors "github.com/tamirms/sortbench/errors"
	"github.com/tamirms/sortbench/internal/dataset"
)

const (
	inFileName  = "random.bin"
	outFileName = "sorted.bin"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Warm up and time one sorter over random.bin",
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			e, err := setup(cmd)
			if err != nil {
				return err
			}
			defer func() { err = errors.Join(err, e.Close()) }()
			return runBenchmark(cmd.Context(), e)
		},
	}
	f := cmd.Flags()
	f.String("sorter", "", "sorter to run: "+strings.Join(sortbench.SorterNames(), ", "))
	f.String("size", "", "dataset size, e.g. 1GiB (default: total memory / --fraction)")
	f.Int("fraction", 1, "divide total memory by this for the default dataset size")
	f.String("dir", "", "directory for random.bin, sorted.bin and bucket files (default: system temp dir)")
	f.Uint64("seed", 1, "seed for generating random.bin")
	f.Bool("check", false, "verify the output is sorted after each sorted pass")
	addSharedFlags(cmd)
	return cmd
}

func runBenchmark(ctx context.Context, e *env) error {
	name := e.v.GetString("sorter")
	if name == "" {
		return fmt.Errorf("%w: options are %s", errMissingSorter, strings.Join(sortbench.SorterNames(), ", "))
	}
	sorter, err := sortbench.LookupSorter(name)
	if err != nil {
		return err
	}

	size, err := datasetSize(e)
	if err != nil {
		return err
	}
	dir := e.dir()
	in := filepath.Join(dir, inFileName)
	out := filepath.Join(dir, outFileName)
	e.logger.Info("benchmark",
		slog.String("sorter", name),
		slog.String("size", humanize.IBytes(uint64(size))),
		slog.String("dir", dir))

	if _, err := dataset.Prepare(in, size, e.v.GetUint64("seed"),
		newDots(e.stdout, "creating shuffled file...").report); err != nil {
		return err
	}
	if err := prepareOutput(out); err != nil {
		return err
	}

	libOpts, err := e.libOptions()
	if err != nil {
		return err
	}
	pass := func() (sortbench.Outcome, time.Duration, error) {
		opts := slices.Concat(libOpts, []sortbench.Option{sortbench.WithProgress(newDots(e.stdout, "").report)})
		start := time.Now()
		outcome, err := sorter(ctx, in, size, out, opts...)
		return outcome, time.Since(start), err
	}

	fmt.Fprintln(e.stdout, "warming up...")
	outcome, _, err := pass()
	if err != nil {
		return err
	}
	if outcome != sortbench.Sorted {
		e.logger.Info("sorter finished without sorting", slog.String("outcome", outcome.String()))
		return nil
	}
	if err := checkSorted(e, out); err != nil {
		return err
	}

	fmt.Fprintln(e.stdout, "executing...")
	_, elapsed, err := pass()
	if err != nil {
		return err
	}
	if err := checkSorted(e, out); err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "pass in %s\n", formatPass(elapsed))
	e.logger.Info("pass complete",
		slog.Duration("elapsed", elapsed),
		slog.String("throughput", throughput(size, elapsed)),
		slog.String("peakRSS", humanize.IBytes(maxRSS())))
	return nil
}

// datasetSize returns --size, or total memory divided by --fraction,
// rounded down to whole values.
func datasetSize(e *env) (int64, error) {
	size, err := e.bytesFlag("size")
	if err != nil {
		return 0, err
	}
	if size == 0 {
		total, err := sortbench.SystemMemory()
		if err != nil {
			return 0, fmt.Errorf("query memory for dataset size: %w", err)
		}
		size = total / uint64(max(e.v.GetInt("fraction"), 1))
	}
	size -= size % 8
	if size == 0 || size > math.MaxInt64 {
		return 0, fmt.Errorf("dataset size %d out of range", size)
	}
	return int64(size), nil
}

// prepareOutput makes sure the output file can be written before any pass
// starts.
func prepareOutput(path string) error {
	if err := os.WriteFile(path, []byte{0}, 0o644); err != nil {
		return &sberrors.IOError{Op: "open", Path: path, Err: err}
	}
	return nil
}

func checkSorted(e *env, path string) error {
	if !e.v.GetBool("check") {
		return nil
	}
	fmt.Fprintln(e.stdout, "verifying sorted file...")
	sorted, err := dataset.IsSorted(path)
	if err != nil {
		return err
	}
	if !sorted {
		return fmt.Errorf("%s is not sorted", path)
	}
	return nil
}
