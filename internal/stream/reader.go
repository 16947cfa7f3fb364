package stream

import (
	"errors"
	"fmt"
	"io"
	"os"

	sberrors "github.com/tamirms/sortbench/errors"
)

// chunk is one handoff unit from the filler goroutine to the consumer.
// err, when set, is reported after buf has been consumed.
type chunk struct {
	buf []byte
	err error
}

// Reader is a read-ahead file stream. A background goroutine keeps the next
// chunk ready while the caller consumes the current one, so Read only blocks
// when the consumer has genuinely caught up with the disk.
//
// Reader is not safe for concurrent use by multiple goroutines.
type Reader struct {
	path string
	file *os.File

	free    chan []byte // recycled buffers, owned by whoever receives them
	handoff chan chunk  // the handoff slot, capacity 1
	done    chan struct{}
	exited  chan struct{}

	// Consumer-owned state.
	ready  []byte
	pos    int
	eof    bool
	err    error
	closed bool
}

// OpenReader opens path with the given os.OpenFile flag and starts reading
// ahead in the background.
func OpenReader(path string, flag int, opts ...Option) (*Reader, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	f, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return nil, &sberrors.IOError{Op: "open", Path: path, Err: err}
	}
	fadviseSequential(int(f.Fd()))

	r := &Reader{
		path:    path,
		file:    f,
		free:    newBuffers(cfg.chunkSize),
		handoff: make(chan chunk, 1),
		done:    make(chan struct{}),
		exited:  make(chan struct{}),
	}
	go r.fill()
	return r, nil
}

// fill is the background goroutine. It stops after the chunk that observed
// end-of-file or a read fault, or when the reader is closed.
func (r *Reader) fill() {
	defer close(r.exited)
	defer close(r.handoff)

	for {
		var buf []byte
		select {
		case buf = <-r.free:
		case <-r.done:
			return
		}

		n, err := io.ReadFull(r.file, buf[:cap(buf)])
		c := chunk{buf: buf[:n]}
		last := false
		switch {
		case err == nil:
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
			last = true
		default:
			c.err = &sberrors.IOError{Op: "read", Path: r.path, Err: err}
			last = true
		}

		select {
		case r.handoff <- c:
		case <-r.done:
			return
		}
		if last {
			return
		}
	}
}

// Read implements io.Reader. Bytes are returned in file order; a background
// read fault is returned once every byte read before it has been delivered.
func (r *Reader) Read(p []byte) (int, error) {
	if r.closed {
		return 0, sberrors.ErrStreamClosed
	}
	if len(p) == 0 {
		return 0, nil
	}
	for r.pos == len(r.ready) {
		if r.err != nil {
			return 0, r.err
		}
		if r.eof {
			return 0, io.EOF
		}
		r.underflow()
	}
	n := copy(p, r.ready[r.pos:])
	r.pos += n
	return n, nil
}

// underflow hands the spent ready buffer back to the filler and takes the
// next chunk from the handoff slot, blocking until one is available.
func (r *Reader) underflow() {
	if r.ready != nil {
		r.free <- r.ready[:0]
		r.ready = nil
	}
	c, ok := <-r.handoff
	if !ok {
		r.eof, r.pos = true, 0
		return
	}
	r.ready, r.pos = c.buf, 0
	if c.err != nil {
		r.err = c.err
	}
}

// Path returns the file path the reader was opened with.
func (r *Reader) Path() string { return r.path }

// Close stops the filler goroutine and closes the file. Idempotent.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	close(r.done)
	<-r.exited
	if err := r.file.Close(); err != nil {
		return &sberrors.IOError{Op: "close", Path: r.path, Err: fmt.Errorf("close reader: %w", err)}
	}
	return nil
}
