package sortbench

import (
	"log/slog"
	"os"

	"github.com/tamirms/sortbench/internal/stream"
)

const defaultFilePrefix = "SORTER_TEMP"

// ProgressFunc receives the number of elements processed so far and the
// total for the pass. It is called from the caller's goroutine at most
// progress.Ticks times per pass.
type ProgressFunc func(done, total uint64)

// Option is a functional option shared by Partition and the sorters.
type Option func(*config)

type config struct {
	memory     MemoryFunc
	outputDir  string
	filePrefix string
	chunkSize  int
	progress   ProgressFunc
	logger     *slog.Logger

	// firstBucketLimit caps the resident first bucket in elements.
	// -1 derives it from the layout; 0 never spills.
	firstBucketLimit int
}

func defaultConfig() *config {
	return &config{
		memory:           SystemMemory,
		outputDir:        os.TempDir(),
		filePrefix:       defaultFilePrefix,
		chunkSize:        stream.DefaultChunkSize,
		logger:           slog.Default(),
		firstBucketLimit: -1,
	}
}

func newConfig(opts []Option) *config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

func (c *config) streamOptions() []stream.Option {
	return []stream.Option{stream.WithChunkSize(c.chunkSize)}
}

// WithMemoryBudget fixes the working memory budget in bytes instead of
// querying the host.
func WithMemoryBudget(bytes uint64) Option {
	return func(c *config) {
		c.memory = FixedMemory(bytes)
	}
}

// WithMemoryFunc sets the capability used to query available memory.
func WithMemoryFunc(fn MemoryFunc) Option {
	return func(c *config) {
		if fn != nil {
			c.memory = fn
		}
	}
}

// WithOutputDir sets the directory bucket files are created in.
// Defaults to os.TempDir().
func WithOutputDir(dir string) Option {
	return func(c *config) {
		c.outputDir = dir
	}
}

// WithFilePrefix sets the bucket file name prefix. Bucket i is written to
// <dir>/<prefix><i>.bin.
func WithFilePrefix(prefix string) Option {
	return func(c *config) {
		c.filePrefix = prefix
	}
}

// WithChunkSize sets the handoff chunk size of every stream the pass opens.
func WithChunkSize(n int) Option {
	return func(c *config) {
		c.chunkSize = n
	}
}

// WithProgress registers a callback invoked at bounded intervals during a
// pass.
func WithProgress(fn ProgressFunc) Option {
	return func(c *config) {
		c.progress = fn
	}
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithFirstBucketLimit caps how many values the in-memory first bucket may
// hold before it is spilled to its own file. 0 disables spilling.
// The default is one and a half times the per-bucket element budget.
func WithFirstBucketLimit(elements int) Option {
	return func(c *config) {
		c.firstBucketLimit = max(elements, 0)
	}
}
