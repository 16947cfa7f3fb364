// Package stream implements double-buffered file streams that overlap disk
// I/O with computation. Each stream owns one background goroutine; chunks
// of bytes change hands between the two sides through a capacity-1 handoff
// channel, so at most three chunk buffers exist per stream.
package stream

const (
	// DefaultChunkSize is the size of one handoff unit. Kept small to bound
	// pipeline latency.
	DefaultChunkSize = 4096

	// buffersPerStream is the active + handoff + ready triple.
	buffersPerStream = 3
)

// Option configures a Reader or Writer.
type Option func(*config)

type config struct {
	chunkSize int
}

func defaultConfig() *config {
	return &config{chunkSize: DefaultChunkSize}
}

// WithChunkSize sets the chunk size in bytes. Values < 1 keep the default.
func WithChunkSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.chunkSize = n
		}
	}
}

// newBuffers fills a free list with the stream's fixed set of chunk buffers.
// No other code path allocates chunk storage.
func newBuffers(chunkSize int) chan []byte {
	free := make(chan []byte, buffersPerStream)
	for range buffersPerStream {
		free <- make([]byte, 0, chunkSize)
	}
	return free
}
