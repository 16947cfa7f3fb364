package sortbench

import "math"

// elementSize is the width of one dataset value in bytes.
const elementSize = 8

// Layout is the bucket geometry of one partitioning pass.
//
// One quarter of the memory budget goes to a single bucket; the rest is left
// for the read buffer, the in-memory sort of a bucket, and the OS. Bucket
// ranges tile [0, 2^64) with equal widths, the last one clipped at the
// domain maximum.
type Layout struct {
	Elements    uint64 // values in the dataset
	Memory      uint64 // budget in bytes the layout was derived from
	BucketSize  uint64 // per-bucket element budget, Memory/4/8
	BucketCount uint64 // >= 1
	// BucketRange is the width of every bucket's key range. It is 0 when
	// BucketCount is 1, meaning the single range spans the whole domain.
	BucketRange uint64
}

// ComputeLayout derives the bucket geometry for a dataset of the given
// number of elements under a memory budget in bytes. A zero budget or an
// empty dataset yields a single bucket.
func ComputeLayout(elements, memory uint64) Layout {
	l := Layout{
		Elements:    elements,
		Memory:      memory,
		BucketSize:  memory / 4 / elementSize,
		BucketCount: 1,
	}
	if l.BucketSize > 0 && elements > 0 {
		l.BucketCount = elements / l.BucketSize
		if elements%l.BucketSize != 0 {
			l.BucketCount++
		}
	}
	if l.BucketCount > 1 {
		// ceil(2^64 / n) without overflowing: floor((2^64-1)/n) + 1.
		l.BucketRange = math.MaxUint64/l.BucketCount + 1
	}
	return l
}

// BucketOf returns the index of the bucket whose range holds v.
func (l Layout) BucketOf(v uint64) uint64 {
	if l.BucketRange == 0 {
		return 0
	}
	return v / l.BucketRange
}

// Bounds returns the half-open key range [lo, hi) of bucket i. For the last
// bucket the range extends through math.MaxUint64 and last is true; hi is
// then reported as math.MaxUint64.
func (l Layout) Bounds(i uint64) (lo, hi uint64, last bool) {
	if i+1 >= l.BucketCount {
		return i * l.BucketRange, math.MaxUint64, true
	}
	return i * l.BucketRange, (i + 1) * l.BucketRange, false
}

// OnDisk returns how many buckets are written to files.
func (l Layout) OnDisk() uint64 {
	return l.BucketCount - 1
}
