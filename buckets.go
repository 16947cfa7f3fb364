package sortbench

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/cespare/xxhash/v2"
	"github.com/edsrzf/mmap-go"

	sberrors "github.com/tamirms/sortbench/errors"
)

// Bucket describes one range partition produced by a pass.
type Bucket struct {
	Index uint64
	Lo    uint64 // inclusive
	Hi    uint64 // exclusive unless Last
	Last  bool   // range runs through math.MaxUint64

	// Path is the bucket file, or "" for a bucket held in memory.
	Path string
	// Count is the number of values routed to the bucket.
	Count uint64
	// Checksum is the xxhash64 of the bytes written to the bucket file;
	// 0 when resident. Load rejects a file that no longer matches it.
	Checksum uint64
}

// Resident reports whether the bucket's values live in memory.
func (b Bucket) Resident() bool {
	return b.Path == ""
}

// Contains reports whether v falls in the bucket's key range.
func (b Bucket) Contains(v uint64) bool {
	return v >= b.Lo && (b.Last || v < b.Hi)
}

// Load reads an on-disk bucket back by memory-mapping its file. The file
// length must be exactly Count values and its contents must hash to
// Checksum.
func (b Bucket) Load() ([]uint64, error) {
	if b.Resident() {
		return nil, fmt.Errorf("bucket %d is resident", b.Index)
	}
	return loadValues(b.Path, int64(b.Count), func(data []byte) error {
		if sum := xxhash.Sum64(data); sum != b.Checksum {
			return fmt.Errorf("%w: got %#x, wrote %#x", sberrors.ErrChecksumMismatch, sum, b.Checksum)
		}
		return nil
	})
}

// loadValues maps path read-only and decodes its values. want < 0 skips the
// length check; a non-nil verify sees the raw file bytes before decoding.
func loadValues(path string, want int64, verify func(data []byte) error) (values []uint64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &sberrors.IOError{Op: "open", Path: path, Err: err}
	}
	defer func() { err = errors.Join(err, f.Close()) }()

	info, err := f.Stat()
	if err != nil {
		return nil, &sberrors.IOError{Op: "stat", Path: path, Err: err}
	}
	size := info.Size()
	if size%elementSize != 0 {
		return nil, &sberrors.IOError{Op: "read", Path: path,
			Err: fmt.Errorf("%w: %d bytes", sberrors.ErrUnalignedSize, size)}
	}
	if want >= 0 && size != want*elementSize {
		return nil, &sberrors.IOError{Op: "read", Path: path,
			Err: fmt.Errorf("%w: %d bytes, want %d", sberrors.ErrLengthMismatch, size, want*elementSize)}
	}
	if size == 0 {
		if verify != nil {
			if err := verify(nil); err != nil {
				return nil, &sberrors.IOError{Op: "read", Path: path, Err: err}
			}
		}
		return []uint64{}, nil
	}

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, &sberrors.IOError{Op: "mmap", Path: path, Err: err}
	}
	defer func() { err = errors.Join(err, m.Unmap()) }()
	prefaultBucket(m)
	if verify != nil {
		if err := verify(m); err != nil {
			return nil, &sberrors.IOError{Op: "read", Path: path, Err: err}
		}
	}

	values = make([]uint64, size/elementSize)
	for i := range values {
		values[i] = binary.NativeEndian.Uint64(m[i*elementSize:])
	}
	return values, nil
}

// Partitions is the outcome of a partitioning pass. Every bucket file has
// been fully written and closed by the time a Partitions is returned.
type Partitions struct {
	layout  Layout
	buckets []Bucket
	first   []uint64
}

// Layout returns the geometry the pass used.
func (p *Partitions) Layout() Layout { return p.layout }

// Buckets returns every bucket in index order, including the first bucket.
func (p *Partitions) Buckets() []Bucket { return slices.Clone(p.buckets) }

// FirstBucket returns the resident first-bucket values, or nil if the first
// bucket was spilled to disk. The slice is owned by p.
func (p *Partitions) FirstBucket() []uint64 { return p.first }

// Values returns the contents of bucket i in arrival order.
func (p *Partitions) Values(i int) ([]uint64, error) {
	if i < 0 || i >= len(p.buckets) {
		return nil, fmt.Errorf("bucket %d out of range [0, %d)", i, len(p.buckets))
	}
	b := p.buckets[i]
	if b.Resident() {
		return p.first, nil
	}
	return b.Load()
}

// Paths returns the files backing on-disk buckets.
func (p *Partitions) Paths() []string {
	var paths []string
	for _, b := range p.buckets {
		if !b.Resident() {
			paths = append(paths, b.Path)
		}
	}
	return paths
}

// Remove deletes every bucket file. Missing files are ignored.
func (p *Partitions) Remove() error {
	var errs []error
	for _, path := range p.Paths() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			errs = append(errs, fmt.Errorf("remove bucket file: %w", err))
		}
	}
	return errors.Join(errs...)
}
