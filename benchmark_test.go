package sortbench

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/tamirms/sortbench/internal/dataset"
)

func benchmarkPartitionN(b *testing.B, elements int64, memory uint64) {
	dir := b.TempDir()
	in := filepath.Join(dir, "random.bin")
	size := elements * elementSize
	if err := dataset.Generate(in, size, 42, nil); err != nil {
		b.Fatal(err)
	}
	ctx := context.Background()

	b.SetBytes(size)
	b.ResetTimer()
	b.ReportAllocs()
	for range b.N {
		parts, err := Partition(ctx, in, size,
			WithMemoryBudget(memory), WithOutputDir(dir), WithFirstBucketLimit(0), WithLogger(quietLogger()))
		if err != nil {
			b.Fatal(err)
		}
		if err := parts.Remove(); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkPartition(b *testing.B) {
	const elements = 1 << 20
	for _, buckets := range []uint64{1, 4, 64, 512} {
		memory := (elements/buckets + 1) * 4 * elementSize
		b.Run(fmt.Sprintf("buckets=%d", buckets), func(b *testing.B) {
			benchmarkPartitionN(b, elements, memory)
		})
	}
}

func BenchmarkIdentity(b *testing.B) {
	dir := b.TempDir()
	in := filepath.Join(dir, "random.bin")
	const size = 8 << 20
	if err := dataset.Generate(in, size, 42, nil); err != nil {
		b.Fatal(err)
	}
	out := filepath.Join(dir, "sorted.bin")
	ctx := context.Background()

	for _, chunk := range []int{4096, 64 << 10, 1 << 20} {
		b.Run(fmt.Sprintf("chunk=%d", chunk), func(b *testing.B) {
			b.SetBytes(size)
			b.ReportAllocs()
			for range b.N {
				if _, err := Identity(ctx, in, size, out, WithChunkSize(chunk)); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
