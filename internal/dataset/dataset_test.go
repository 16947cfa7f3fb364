package dataset

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	sberrors "github.com/tamirms/sortbench/errors"
)

func writeValues(t *testing.T, path string, values []uint64) {
	t.Helper()
	buf := make([]byte, 0, len(values)*elementSize)
	for _, v := range values {
		buf = binary.NativeEndian.AppendUint64(buf, v)
	}
	require.NoError(t, os.WriteFile(path, buf, 0o644))
}

func readValues(t *testing.T, path string) []uint64 {
	t.Helper()
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	values := make([]uint64, len(raw)/elementSize)
	for i := range values {
		values[i] = binary.NativeEndian.Uint64(raw[i*elementSize:])
	}
	return values
}

func TestGenerate(t *testing.T) {
	for _, size := range []int64{0, 8, 8 * 1023, 8 * 1024, 8 * 5000} {
		path := filepath.Join(t.TempDir(), "random.bin")
		var ticks int
		require.NoError(t, Generate(path, size, 42, func(done, total uint64) { ticks++ }))
		require.NoError(t, CheckLength(path, size))
		require.Positive(t, ticks)
	}
}

func TestGenerateDeterministic(t *testing.T) {
	dir := t.TempDir()
	a, b := filepath.Join(dir, "a.bin"), filepath.Join(dir, "b.bin")
	require.NoError(t, Generate(a, 8*3000, 7, nil))
	require.NoError(t, Generate(b, 8*3000, 7, nil))
	require.Equal(t, readValues(t, a), readValues(t, b))

	c := filepath.Join(dir, "c.bin")
	require.NoError(t, Generate(c, 8*3000, 8, nil))
	require.NotEqual(t, readValues(t, a), readValues(t, c))
}

// TestGenerateShrinksExisting overwrites a longer file; the result must
// have exactly the requested length.
func TestGenerateShrinksExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "random.bin")
	require.NoError(t, os.WriteFile(path, make([]byte, 4096), 0o644))
	require.NoError(t, Generate(path, 80, 1, nil))
	require.NoError(t, CheckLength(path, 80))
}

func TestGenerateUnaligned(t *testing.T) {
	path := filepath.Join(t.TempDir(), "random.bin")
	require.ErrorIs(t, Generate(path, 12, 1, nil), sberrors.ErrUnalignedSize)
	_, err := os.Stat(path)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestCheckLength(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.bin")
	writeValues(t, path, []uint64{1, 2, 3})
	require.NoError(t, CheckLength(path, 24))
	require.ErrorIs(t, CheckLength(path, 32), sberrors.ErrLengthMismatch)
	require.ErrorIs(t, CheckLength(path+".missing", 24), os.ErrNotExist)
}

func TestPrepare(t *testing.T) {
	path := filepath.Join(t.TempDir(), "random.bin")

	generated, err := Prepare(path, 8*100, 3, nil)
	require.NoError(t, err)
	require.True(t, generated)
	first := readValues(t, path)

	generated, err = Prepare(path, 8*100, 99, nil)
	require.NoError(t, err)
	require.False(t, generated, "file of the right length is reused")
	require.Equal(t, first, readValues(t, path))

	generated, err = Prepare(path, 8*50, 3, nil)
	require.NoError(t, err)
	require.True(t, generated)
	require.NoError(t, CheckLength(path, 8*50))
}

func TestIsSorted(t *testing.T) {
	dir := t.TempDir()
	for _, tc := range []struct {
		name   string
		values []uint64
		want   bool
	}{
		{"empty", nil, true},
		{"single", []uint64{9}, true},
		{"ascending", []uint64{0, 1, 1, 5, 1 << 63, ^uint64(0)}, true},
		{"descending_tail", []uint64{1, 2, 3, 2}, false},
		{"high_bit", []uint64{1 << 63, 1}, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(dir, tc.name+".bin")
			writeValues(t, path, tc.values)
			got, err := IsSorted(path)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestIsSortedUnaligned(t *testing.T) {
	path := filepath.Join(t.TempDir(), "odd.bin")
	require.NoError(t, os.WriteFile(path, make([]byte, 9), 0o644))
	_, err := IsSorted(path)
	require.ErrorIs(t, err, sberrors.ErrUnalignedSize)
}

func TestChecksumIsOrderIndependent(t *testing.T) {
	values := []uint64{5, 1, 1, 9, 1 << 40, 0}
	shuffled := slices.Clone(values)
	slices.Reverse(shuffled)
	require.Equal(t, Checksum(values), Checksum(shuffled))

	dropped := values[1:]
	require.NotEqual(t, Checksum(values), Checksum(dropped))
	duplicated := append(slices.Clone(values), 9)
	require.NotEqual(t, Checksum(values), Checksum(duplicated))

	path := filepath.Join(t.TempDir(), "v.bin")
	writeValues(t, path, values)
	sum, err := FileChecksum(path)
	require.NoError(t, err)
	require.Equal(t, Checksum(values), sum)
}
