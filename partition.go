package sortbench

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"golang.org/x/sync/errgroup"

	sberrors "github.com/tamirms/sortbench/errors"
	"github.com/tamirms/sortbench/internal/progress"
	"github.com/tamirms/sortbench/internal/stream"
)

const (
	// readBlockValues is how many values one read of the pass decodes.
	readBlockValues = 4096 * 2 / elementSize

	writeFlag = os.O_CREATE | os.O_TRUNC | os.O_WRONLY
)

// Partition streams the dataset at inPath once and disperses its values into
// range buckets sized to the memory budget: bucket 0 stays in memory, every
// other bucket is written to its own file. size is the dataset length in
// bytes and must be a multiple of 8.
//
// Every value in bucket i is less than every value in bucket i+1, so sorting
// each bucket independently and concatenating them in index order yields a
// sorted dataset. Buckets are not sorted here.
//
// On failure the pass is abandoned and bucket files already created are left
// on disk for the caller to clean up.
func Partition(ctx context.Context, inPath string, size int64, opts ...Option) (*Partitions, error) {
	if size < 0 || size%elementSize != 0 {
		return nil, fmt.Errorf("%w: %s declared as %d bytes", sberrors.ErrUnalignedSize, inPath, size)
	}
	cfg := newConfig(opts)

	layout := ComputeLayout(uint64(size)/elementSize, cfg.availableMemory())
	cfg.logger.Info("partitioning",
		slog.String("path", inPath),
		slog.Uint64("elements", layout.Elements),
		slog.Uint64("memory", layout.Memory),
		slog.Uint64("bucketSize", layout.BucketSize),
		slog.Uint64("bucketCount", layout.BucketCount),
		slog.Uint64("bucketRange", layout.BucketRange))

	p, err := newPartitioner(cfg, layout)
	if err != nil {
		return nil, err
	}
	if err := p.run(ctx, inPath); err != nil {
		cfg.logger.Error("partitioning failed",
			slog.String("path", sberrors.PathOf(err)), slog.Any("error", err))
		return nil, errors.Join(err, p.closeAll())
	}
	if err := p.closeAll(); err != nil {
		return nil, err
	}
	return p.result(), nil
}

// availableMemory queries the memory capability. A failed query is treated
// like a zero budget, which degrades to a single-bucket pass.
func (c *config) availableMemory() uint64 {
	m, err := c.memory()
	if err != nil {
		c.logger.Warn("memory query failed, using a single bucket", slog.Any("error", err))
		return 0
	}
	if m == 0 {
		c.logger.Warn("memory budget is zero, using a single bucket")
	}
	return m
}

// partitioner holds the per-pass routing state. It is used by one goroutine;
// concurrency comes from the drainer goroutine behind each writer.
type partitioner struct {
	cfg    *config
	layout Layout

	// writers[i] receives bucket i. writers[0] is nil until the first
	// bucket spills.
	writers []*stream.Writer
	counts  []uint64

	first      []uint64
	firstLimit int // 0 means unbounded

	scratch [elementSize]byte
}

func newPartitioner(cfg *config, layout Layout) (*partitioner, error) {
	p := &partitioner{
		cfg:     cfg,
		layout:  layout,
		writers: make([]*stream.Writer, layout.BucketCount),
		counts:  make([]uint64, layout.BucketCount),
	}

	reserve := layout.BucketSize + layout.BucketSize/2
	switch {
	case cfg.firstBucketLimit < 0:
		p.firstLimit = int(min(reserve, uint64(maxInt)))
	default:
		p.firstLimit = cfg.firstBucketLimit
	}
	// Size for the expected share of a uniform dataset; append covers skew.
	expected := layout.Elements / layout.BucketCount
	if layout.Elements%layout.BucketCount != 0 {
		expected++
	}
	capacity := int(min(expected, uint64(maxInt)))
	if p.firstLimit > 0 {
		capacity = min(capacity, p.firstLimit)
	}
	p.first = make([]uint64, 0, capacity)

	for i := uint64(1); i < layout.BucketCount; i++ {
		w, err := stream.OpenWriter(p.bucketPath(strconv.FormatUint(i, 10)), writeFlag, cfg.streamOptions()...)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("create bucket %d: %w", i, err), p.closeAll())
		}
		p.writers[i] = w
	}
	return p, nil
}

const maxInt = int(^uint(0) >> 1)

func (p *partitioner) bucketPath(name string) string {
	return filepath.Join(p.cfg.outputDir, p.cfg.filePrefix+name+".bin")
}

// run performs the single streaming pass over the dataset.
func (p *partitioner) run(ctx context.Context, inPath string) (err error) {
	r, err := stream.OpenReader(inPath, os.O_RDONLY, p.cfg.streamOptions()...)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, r.Close()) }()

	total := p.layout.Elements
	ticker := progress.New(p.cfg.progress, total)
	buf := make([]byte, readBlockValues*elementSize)

	var done uint64
	for done < total {
		if err := ctx.Err(); err != nil {
			return err
		}
		n := min(uint64(readBlockValues), total-done)
		block := buf[:n*elementSize]
		if got, err := io.ReadFull(r, block); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return &sberrors.IOError{Op: "read", Path: inPath,
					Err: fmt.Errorf("%w: got %d of %d bytes at element %d", sberrors.ErrShortRead, got, len(block), done)}
			}
			return err
		}
		for off := 0; off < len(block); off += elementSize {
			if err := p.route(binary.NativeEndian.Uint64(block[off:])); err != nil {
				return err
			}
		}
		done += n
		ticker.Advance(done)
	}
	ticker.Finish()
	return nil
}

// route sends one value to its bucket.
func (p *partitioner) route(v uint64) error {
	idx := p.layout.BucketOf(v)
	if idx >= uint64(len(p.writers)) {
		panic(fmt.Sprintf("sortbench: value %d maps to bucket %d, only %d buckets", v, idx, len(p.writers)))
	}
	p.counts[idx]++
	if idx == 0 && p.writers[0] == nil {
		if p.firstLimit == 0 || len(p.first) < p.firstLimit {
			p.first = append(p.first, v)
			return nil
		}
		if err := p.spillFirst(); err != nil {
			return err
		}
	}
	binary.NativeEndian.PutUint64(p.scratch[:], v)
	_, err := p.writers[idx].Write(p.scratch[:])
	return err
}

// spillFirst moves the resident first bucket into its own file. Later
// bucket-0 values are appended to that file.
func (p *partitioner) spillFirst() error {
	path := p.bucketPath("first")
	p.cfg.logger.Warn("first bucket exceeds its memory reserve, spilling",
		slog.String("path", path), slog.Int("values", len(p.first)))

	w, err := stream.OpenWriter(path, writeFlag, p.cfg.streamOptions()...)
	if err != nil {
		return fmt.Errorf("spill first bucket: %w", err)
	}
	p.writers[0] = w

	enc := make([]byte, 0, readBlockValues*elementSize)
	for _, v := range p.first {
		enc = binary.NativeEndian.AppendUint64(enc, v)
		if len(enc) == cap(enc) {
			if _, err := w.Write(enc); err != nil {
				return err
			}
			enc = enc[:0]
		}
	}
	if _, err := w.Write(enc); err != nil {
		return err
	}
	p.first = nil
	return nil
}

// closeAll closes every bucket writer concurrently. Each close drains the
// writer's pending chunks, so bucket files are complete once it returns.
func (p *partitioner) closeAll() error {
	var g errgroup.Group
	for _, w := range p.writers {
		if w == nil {
			continue
		}
		g.Go(w.Close)
	}
	return g.Wait()
}

// result must only be called after closeAll succeeded.
func (p *partitioner) result() *Partitions {
	out := &Partitions{
		layout:  p.layout,
		buckets: make([]Bucket, p.layout.BucketCount),
		first:   p.first,
	}
	for i := range out.buckets {
		lo, hi, last := p.layout.Bounds(uint64(i))
		b := Bucket{Index: uint64(i), Lo: lo, Hi: hi, Last: last, Count: p.counts[i]}
		if w := p.writers[i]; w != nil {
			b.Path = w.Path()
			b.Checksum = w.Sum64()
		}
		out.buckets[i] = b
	}
	return out
}
