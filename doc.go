// Package sortbench is an external-sort benchmarking harness for flat binary
// files of uint64 values that are too large to sort comfortably in memory.
//
// Its core is the first phase of an external sort: a single streaming pass
// that disperses a dataset into range buckets sized to a memory budget.
// All disk access goes through double-buffered streams that overlap I/O with
// computation, one background goroutine per stream.
//
// # Basic Usage
//
//	parts, err := sortbench.Partition(ctx, "random.bin", size,
//	    sortbench.WithMemoryBudget(1<<30),
//	    sortbench.WithOutputDir(dir))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer parts.Remove()
//
//	for _, b := range parts.Buckets() {
//	    values, err := parts.Values(int(b.Index))
//	    ...
//	}
//
// # File Format
//
// Datasets and bucket files share one encoding: a raw sequence of uint64
// values in host byte order with no header or footer. A dataset's length
// must be a multiple of 8 bytes.
//
// # Package Structure
//
//   - Partitioning: partition.go (Partition), layout.go (bucket geometry),
//     buckets.go (Partitions, Bucket, mmap read-back)
//   - Strategies: sorter.go (Identity, BucketSort, registry)
//   - Configuration: options.go (Option, With* functions), memory.go
//   - Streams: internal/stream (Reader, Writer)
//   - Harness: internal/dataset (generation, verification), cmd/sortbench
package sortbench
