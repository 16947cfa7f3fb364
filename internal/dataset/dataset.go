// Package dataset prepares and checks benchmark datasets: flat files of
// uint64 values in host byte order.
package dataset

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"

	"github.com/edsrzf/mmap-go"
	"github.com/zeebo/xxh3"

	sberrors "github.com/tamirms/sortbench/errors"
	"github.com/tamirms/sortbench/internal/progress"
	"github.com/tamirms/sortbench/internal/stream"
)

const (
	elementSize = 8

	// blockValues is how many values are generated per stream write.
	blockValues = 4096 * 2 / elementSize
)

// Generate writes size bytes of pseudo-random uint64 values to path. The
// same seed always produces the same file.
func Generate(path string, size int64, seed uint64, onProgress func(done, total uint64)) (err error) {
	if size < 0 || size%elementSize != 0 {
		return fmt.Errorf("%w: %d bytes", sberrors.ErrUnalignedSize, size)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return &sberrors.IOError{Op: "open", Path: path, Err: err}
	}
	if err := fallocateFile(f, size); err != nil {
		primaryErr := &sberrors.IOError{Op: "allocate", Path: path, Err: err}
		return errors.Join(primaryErr, f.Close())
	}
	if err := f.Close(); err != nil {
		return &sberrors.IOError{Op: "close", Path: path, Err: err}
	}

	// The file is already at its final length; overwrite it in place.
	w, err := stream.OpenWriter(path, os.O_WRONLY)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, w.Close()) }()

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	total := uint64(size) / elementSize
	ticker := progress.New(onProgress, total)
	buf := make([]byte, 0, blockValues*elementSize)

	for done := uint64(0); done < total; {
		n := min(blockValues, total-done)
		buf = buf[:0]
		for range n {
			buf = binary.NativeEndian.AppendUint64(buf, rng.Uint64())
		}
		if _, err := w.Write(buf); err != nil {
			return err
		}
		done += n
		ticker.Advance(done)
	}
	ticker.Finish()
	return nil
}

// CheckLength reports ErrLengthMismatch if path is not exactly size bytes.
func CheckLength(path string, size int64) error {
	info, err := os.Stat(path)
	if err != nil {
		return &sberrors.IOError{Op: "stat", Path: path, Err: err}
	}
	if info.Size() != size {
		return &sberrors.IOError{Op: "stat", Path: path,
			Err: fmt.Errorf("%w: file is %d bytes instead of %d", sberrors.ErrLengthMismatch, info.Size(), size)}
	}
	return nil
}

// Prepare makes sure path holds a dataset of size bytes, reusing an existing
// file of the right length and generating one otherwise. It reports whether
// the file was generated.
func Prepare(path string, size int64, seed uint64, onProgress func(done, total uint64)) (bool, error) {
	err := CheckLength(path, size)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, os.ErrNotExist) && !errors.Is(err, sberrors.ErrLengthMismatch) {
		return false, err
	}
	if err := Generate(path, size, seed, onProgress); err != nil {
		return false, err
	}
	return true, CheckLength(path, size)
}

// Checksum returns an order-independent checksum of a multiset of values.
// Two collections hold the same values with the same multiplicities iff
// their checksums match, up to hash collisions.
func Checksum(values []uint64) uint64 {
	var sum uint64
	var b [elementSize]byte
	for _, v := range values {
		binary.NativeEndian.PutUint64(b[:], v)
		sum += xxh3.Hash(b[:])
	}
	return sum
}

// FileChecksum is Checksum over the values stored in path.
func FileChecksum(path string) (uint64, error) {
	var sum uint64
	var b [elementSize]byte
	err := scan(path, func(v uint64) bool {
		binary.NativeEndian.PutUint64(b[:], v)
		sum += xxh3.Hash(b[:])
		return true
	})
	return sum, err
}

// IsSorted reports whether the values in path are in non-decreasing order.
func IsSorted(path string) (bool, error) {
	sorted := true
	first := true
	var prev uint64
	err := scan(path, func(v uint64) bool {
		if !first && v < prev {
			sorted = false
			return false
		}
		first, prev = false, v
		return true
	})
	return sorted && err == nil, err
}

// scan memory-maps path and calls fn for each value until fn returns false.
func scan(path string, fn func(v uint64) bool) (err error) {
	f, err := os.Open(path)
	if err != nil {
		return &sberrors.IOError{Op: "open", Path: path, Err: err}
	}
	defer func() { err = errors.Join(err, f.Close()) }()

	info, err := f.Stat()
	if err != nil {
		return &sberrors.IOError{Op: "stat", Path: path, Err: err}
	}
	if info.Size()%elementSize != 0 {
		return &sberrors.IOError{Op: "read", Path: path,
			Err: fmt.Errorf("%w: %d bytes", sberrors.ErrUnalignedSize, info.Size())}
	}
	if info.Size() == 0 {
		return nil
	}

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return &sberrors.IOError{Op: "mmap", Path: path, Err: err}
	}
	defer func() { err = errors.Join(err, m.Unmap()) }()

	for off := 0; off < len(m); off += elementSize {
		if !fn(binary.NativeEndian.Uint64(m[off:])) {
			return nil
		}
	}
	return nil
}
