package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tamirms/sortbench"
	sberrors "github.com/tamirms/sortbench/errors"
	"github.com/tamirms/sortbench/internal/dataset"
)

var (
	errChecksumMismatch = errors.New("bucket contents differ from the input")
	errOutOfRange       = errors.New("value outside bucket range")
)

func newVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Partition a dataset and check every bucket against the input",
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			e, err := setup(cmd)
			if err != nil {
				return err
			}
			defer func() { err = errors.Join(err, e.Close()) }()
			return verifyDataset(cmd.Context(), e)
		},
	}
	f := cmd.Flags()
	f.String("in", "", "dataset to partition")
	f.String("dir", "", "directory for bucket files (default: system temp dir)")
	addSharedFlags(cmd)
	return cmd
}

func verifyDataset(ctx context.Context, e *env) (err error) {
	in := e.v.GetString("in")
	if in == "" {
		return errors.New("--in is required")
	}
	info, err := os.Stat(in)
	if err != nil {
		return &sberrors.IOError{Op: "stat", Path: in, Err: err}
	}

	fmt.Fprintln(e.stdout, "checksumming input...")
	want, err := dataset.FileChecksum(in)
	if err != nil {
		return err
	}

	dir, err := os.MkdirTemp(e.dir(), "sortbench-verify-*")
	if err != nil {
		return fmt.Errorf("create bucket dir: %w", err)
	}
	defer func() { err = errors.Join(err, os.RemoveAll(dir)) }()

	opts, err := e.libOptions()
	if err != nil {
		return err
	}
	opts = append(opts,
		sortbench.WithOutputDir(dir),
		sortbench.WithProgress(newDots(e.stdout, "partitioning...").report))
	parts, err := sortbench.Partition(ctx, in, info.Size(), opts...)
	if err != nil {
		return err
	}
	printLayout(e.stdout, parts.Layout())

	got, err := checkBuckets(ctx, parts)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("%w: checksum %#x, input %#x", errChecksumMismatch, got, want)
	}
	fmt.Fprintf(e.stdout, "ok: %d buckets hold every input value in range\n", parts.Layout().BucketCount)
	e.logger.Info("verified", slog.String("path", in), slog.Uint64("buckets", parts.Layout().BucketCount))
	return nil
}

// checkBuckets loads every bucket in parallel, checks each value against the
// bucket's range and returns the combined multiset checksum.
func checkBuckets(ctx context.Context, parts *sortbench.Partitions) (uint64, error) {
	buckets := parts.Buckets()
	sums := make([]uint64, len(buckets))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, b := range buckets {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			values, err := parts.Values(i)
			if err != nil {
				return err
			}
			if uint64(len(values)) != b.Count {
				return fmt.Errorf("bucket %d: %w: %d values, routed %d", i, sberrors.ErrLengthMismatch, len(values), b.Count)
			}
			for _, v := range values {
				if !b.Contains(v) {
					return fmt.Errorf("bucket %d [%#x, %#x): %w: %#x", i, b.Lo, b.Hi, errOutOfRange, v)
				}
			}
			sums[i] = dataset.Checksum(values)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	var total uint64
	for _, s := range sums {
		total += s
	}
	return total, nil
}
