package sortbench

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComputeLayoutBucketCount(t *testing.T) {
	for _, tc := range []struct {
		name     string
		elements uint64
		memory   uint64
		size     uint64
		count    uint64
	}{
		{"scenario_1KiB_100", 100, 1024, 32, 4},
		{"exact_multiple", 64, 1024, 32, 2},
		{"one_over", 65, 1024, 32, 3},
		{"fits_one", 32, 1024, 32, 1},
		{"empty", 0, 1024, 32, 1},
		{"zero_memory", 1000, 0, 0, 1},
		{"budget_below_one_element", 1000, 31, 0, 1},
		{"gib_budget", 1 << 30, 1 << 30, 1 << 25, 32},
		{"huge", 1 << 61, 1 << 10, 32, 1 << 56},
	} {
		t.Run(tc.name, func(t *testing.T) {
			l := ComputeLayout(tc.elements, tc.memory)
			require.Equal(t, tc.size, l.BucketSize)
			require.Equal(t, tc.count, l.BucketCount)
			require.Equal(t, tc.count-1, l.OnDisk())
		})
	}
}

// TestComputeLayoutRange checks bucketRange == ceil(2^64 / bucketCount) with
// arbitrary precision arithmetic.
func TestComputeLayoutRange(t *testing.T) {
	domain := new(big.Int).Lsh(big.NewInt(1), 64)
	for _, count := range []uint64{2, 3, 4, 7, 79, 1000, 1 << 20, 1<<32 + 1} {
		l := ComputeLayout(count*32, 1024)
		require.Equal(t, count, l.BucketCount)

		want := new(big.Int).Add(domain, new(big.Int).SetUint64(count-1))
		want.Div(want, new(big.Int).SetUint64(count))
		require.Equal(t, want.Uint64(), l.BucketRange, "count %d", count)
	}

	require.Equal(t, uint64(1)<<62, ComputeLayout(100, 1024).BucketRange)
	require.Zero(t, ComputeLayout(10, 1024).BucketRange)
}

// TestLayoutTilesDomain verifies the bucket ranges cover [0, 2^64) without
// gaps or overlaps and that BucketOf agrees with Bounds.
func TestLayoutTilesDomain(t *testing.T) {
	for _, count := range []uint64{1, 2, 3, 4, 5, 79, 1 << 16} {
		l := ComputeLayout(count*32, 1024)
		require.Equal(t, count, l.BucketCount)

		lo, _, _ := l.Bounds(0)
		require.Zero(t, lo)
		for i := range count {
			lo, hi, last := l.Bounds(i)
			require.Equal(t, i == count-1, last)
			require.Equal(t, i, l.BucketOf(lo))
			if last {
				require.Equal(t, uint64(math.MaxUint64), hi)
				require.Equal(t, i, l.BucketOf(math.MaxUint64))
				continue
			}
			require.Less(t, lo, hi)
			require.Equal(t, i, l.BucketOf(hi-1))
			nextLo, _, _ := l.Bounds(i + 1)
			require.Equal(t, hi, nextLo)
		}
	}
}

func TestBucketContains(t *testing.T) {
	l := ComputeLayout(100, 1024)
	for i := range l.BucketCount {
		lo, hi, last := l.Bounds(i)
		b := Bucket{Index: i, Lo: lo, Hi: hi, Last: last}
		require.True(t, b.Contains(lo))
		if last {
			require.True(t, b.Contains(math.MaxUint64))
		} else {
			require.True(t, b.Contains(hi-1))
			require.False(t, b.Contains(hi))
		}
		if lo > 0 {
			require.False(t, b.Contains(lo-1))
		}
	}
}
