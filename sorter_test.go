package sortbench

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	sberrors "github.com/tamirms/sortbench/errors"
)

func TestLookupSorter(t *testing.T) {
	require.Equal(t, []string{"bucket", "identity"}, SorterNames())

	for _, name := range SorterNames() {
		s, err := LookupSorter(name)
		require.NoError(t, err)
		require.NotNil(t, s)
	}

	_, err := LookupSorter("quicksort")
	require.ErrorIs(t, err, sberrors.ErrUnknownSorter)
	require.ErrorContains(t, err, "bucket, identity")
}

func TestOutcomeString(t *testing.T) {
	require.Equal(t, "sorted", Sorted.String())
	require.Equal(t, "partitioned", Partitioned.String())
	require.Equal(t, "Outcome(7)", Outcome(7).String())
}

func TestIdentity(t *testing.T) {
	for _, elements := range []int64{0, 1, 1023, 1024, 1025, 20_000} {
		dir := t.TempDir()
		in, size := generateDataset(t, dir, elements, uint64(elements)+1)
		out := filepath.Join(dir, "sorted.bin")
		// A stale longer output must be truncated.
		require.NoError(t, os.WriteFile(out, make([]byte, size+64), 0o644))

		var last uint64
		outcome, err := Identity(context.Background(), in, size, out,
			WithChunkSize(100),
			WithProgress(func(done, total uint64) { last = done }))
		require.NoError(t, err)
		require.Equal(t, Sorted, outcome)
		require.Equal(t, uint64(elements), last)

		want, err := os.ReadFile(in)
		require.NoError(t, err)
		got, err := os.ReadFile(out)
		require.NoError(t, err)
		require.Equal(t, want, got, "elements %d", elements)
	}
}

func TestIdentityShortRead(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.bin")
	writeDataset(t, in, []uint64{1, 2, 3})

	_, err := Identity(context.Background(), in, 64, filepath.Join(dir, "out.bin"))
	require.ErrorIs(t, err, sberrors.ErrShortRead)
	require.Equal(t, in, sberrors.PathOf(err))
}

func TestIdentityUnaligned(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.bin")
	_, err := Identity(context.Background(), filepath.Join(dir, "in.bin"), 9, out)
	require.ErrorIs(t, err, sberrors.ErrUnalignedSize)
	_, err = os.Stat(out)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestBucketSort(t *testing.T) {
	dir := t.TempDir()
	in, size := generateDataset(t, dir, 5000, 23)
	out := filepath.Join(dir, "sorted.bin")

	outcome, err := BucketSort(context.Background(), in, size, out,
		WithMemoryBudget(2048), WithLogger(quietLogger()))
	require.NoError(t, err)
	require.Equal(t, Partitioned, outcome)
	require.Empty(t, binFiles(t, dir), "bucket files are removed")
}

func TestBucketSortFailure(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.bin")
	writeDataset(t, in, []uint64{1, 2})

	_, err := BucketSort(context.Background(), in, 800, filepath.Join(dir, "sorted.bin"),
		WithMemoryBudget(1024), WithLogger(quietLogger()))
	require.ErrorIs(t, err, sberrors.ErrShortRead)
}
