package sortbench

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	sberrors "github.com/tamirms/sortbench/errors"
	"github.com/tamirms/sortbench/internal/progress"
	"github.com/tamirms/sortbench/internal/stream"
)

// Outcome says what a sorter produced.
type Outcome int

const (
	// Sorted means out now holds the sorted dataset.
	Sorted Outcome = iota
	// Partitioned means the dataset was processed without producing a
	// sorted output.
	Partitioned
)

func (o Outcome) String() string {
	switch o {
	case Sorted:
		return "sorted"
	case Partitioned:
		return "partitioned"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Sorter is one named strategy of the benchmark. in holds size bytes of
// uint64 values; out is where a sorted result goes.
type Sorter func(ctx context.Context, in string, size int64, out string, opts ...Option) (Outcome, error)

var sorters = map[string]Sorter{
	"identity": Identity,
	"bucket":   BucketSort,
}

// SorterNames returns the registered sorter names in lexical order.
func SorterNames() []string {
	return slices.Sorted(maps.Keys(sorters))
}

// LookupSorter returns the sorter registered under name.
func LookupSorter(name string) (Sorter, error) {
	if s, ok := sorters[name]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("%w %q: options are %s", sberrors.ErrUnknownSorter, name, strings.Join(SorterNames(), ", "))
}

// Identity copies in to out unchanged through a buffered stream pair. It is
// the pass-through baseline: it measures raw streaming throughput and
// reports Sorted without sorting anything.
func Identity(ctx context.Context, in string, size int64, out string, opts ...Option) (outcome Outcome, err error) {
	if size < 0 || size%elementSize != 0 {
		return 0, fmt.Errorf("%w: %s declared as %d bytes", sberrors.ErrUnalignedSize, in, size)
	}
	cfg := newConfig(opts)

	r, err := stream.OpenReader(in, os.O_RDONLY, cfg.streamOptions()...)
	if err != nil {
		return 0, err
	}
	defer func() { err = errors.Join(err, r.Close()) }()

	w, err := stream.OpenWriter(out, writeFlag, cfg.streamOptions()...)
	if err != nil {
		return 0, err
	}
	defer func() { err = errors.Join(err, w.Close()) }()

	total := uint64(size) / elementSize
	ticker := progress.New(cfg.progress, total)
	buf := make([]byte, readBlockValues*elementSize)

	var done uint64
	for done < total {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		n := min(uint64(readBlockValues), total-done)
		block := buf[:n*elementSize]
		if got, err := io.ReadFull(r, block); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return 0, &sberrors.IOError{Op: "read", Path: in,
					Err: fmt.Errorf("%w: got %d of %d bytes at element %d", sberrors.ErrShortRead, got, len(block), done)}
			}
			return 0, err
		}
		if _, err := w.Write(block); err != nil {
			return 0, err
		}
		done += n
		ticker.Advance(done)
	}
	ticker.Finish()
	return Sorted, nil
}

// BucketSort runs the partitioning pass with bucket files placed next to
// out, then removes them. Sorting within buckets and merging them are not
// implemented, so it reports Partitioned.
func BucketSort(ctx context.Context, in string, size int64, out string, opts ...Option) (Outcome, error) {
	opts = append([]Option{WithOutputDir(filepath.Dir(out))}, opts...)
	cfg := newConfig(opts)

	parts, err := Partition(ctx, in, size, opts...)
	if err != nil {
		return 0, err
	}
	for _, b := range parts.Buckets() {
		cfg.logger.Debug("bucket",
			slog.Uint64("index", b.Index),
			slog.Uint64("count", b.Count),
			slog.String("path", b.Path))
	}
	if err := parts.Remove(); err != nil {
		return 0, err
	}
	return Partitioned, nil
}
