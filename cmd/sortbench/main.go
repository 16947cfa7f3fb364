// Sortbench times external-sort strategies over a flat file of random uint64
// values and checks the partitioning pass that bucket-based strategies share.
//
// Usage:
//
//	go run ./cmd/sortbench run --sorter identity --size 1GiB
//	go run ./cmd/sortbench run --sorter bucket --memory 256MiB --dir /mnt/scratch
//	go run ./cmd/sortbench generate --size 512MiB --out /tmp/random.bin
//	go run ./cmd/sortbench verify --in /tmp/random.bin --memory 64MiB
//
// Every flag can also be set through the environment with the SORTBENCH_
// prefix, e.g. SORTBENCH_MEMORY=1GiB or SORTBENCH_LOG_LEVEL=debug.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
