package stream

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/cespare/xxhash/v2"

	sberrors "github.com/tamirms/sortbench/errors"
)

// writeChunk is one handoff unit from the appender to the drainer goroutine.
// A non-nil flushed channel requests an fsync after buf is written; the
// drainer replies on it.
type writeChunk struct {
	buf     []byte
	flushed chan error
}

// Writer is a write-behind file stream. Appended bytes collect in the active
// buffer; full buffers are handed to a background goroutine that writes them
// while the caller keeps producing. Write only blocks when the previous chunk
// is still waiting in the handoff slot.
//
// Writer is not safe for concurrent use by multiple goroutines.
type Writer struct {
	path string
	file *os.File

	free    chan []byte
	handoff chan writeChunk
	exited  chan struct{}

	active []byte // appender-owned
	closed bool

	mu  sync.Mutex
	err error // first drain fault; sticky

	// Drainer-owned until exited is closed.
	digest  *xxhash.Digest
	written int64
}

// OpenWriter opens path with the given os.OpenFile flag and starts the
// background drainer.
func OpenWriter(path string, flag int, opts ...Option) (*Writer, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	f, err := os.OpenFile(path, flag, 0o644)
	if err != nil {
		return nil, &sberrors.IOError{Op: "open", Path: path, Err: err}
	}

	w := &Writer{
		path:    path,
		file:    f,
		free:    newBuffers(cfg.chunkSize),
		handoff: make(chan writeChunk, 1),
		exited:  make(chan struct{}),
		digest:  xxhash.New(),
	}
	w.active = <-w.free
	go w.drain()
	return w, nil
}

// drain is the background goroutine. After a write fault it keeps consuming
// chunks without writing them so the appender never blocks forever.
func (w *Writer) drain() {
	defer close(w.exited)

	for c := range w.handoff {
		if len(c.buf) > 0 && w.fault() == nil {
			n, err := w.file.Write(c.buf)
			_, _ = w.digest.Write(c.buf[:n])
			w.written += int64(n)
			if n < len(c.buf) {
				short := fmt.Errorf("%w: wrote %d of %d bytes", sberrors.ErrShortWrite, n, len(c.buf))
				err = errors.Join(short, err)
			}
			if err != nil {
				w.setFault(&sberrors.IOError{Op: "write", Path: w.path, Err: err})
			}
		}
		w.free <- c.buf[:0]

		if c.flushed != nil {
			err := w.fault()
			if err == nil {
				if serr := w.file.Sync(); serr != nil {
					err = &sberrors.IOError{Op: "sync", Path: w.path, Err: serr}
					w.setFault(err)
				}
			}
			c.flushed <- err
		}
	}
}

func (w *Writer) fault() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

func (w *Writer) setFault(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err == nil {
		w.err = err
	}
}

// Write implements io.Writer. A fault from an earlier background write is
// returned instead of accepting more bytes.
func (w *Writer) Write(p []byte) (int, error) {
	if w.closed {
		return 0, sberrors.ErrStreamClosed
	}
	if err := w.fault(); err != nil {
		return 0, err
	}
	n := 0
	for len(p) > 0 {
		m := copy(w.active[len(w.active):cap(w.active)], p)
		w.active = w.active[:len(w.active)+m]
		n += m
		p = p[m:]
		if len(w.active) == cap(w.active) {
			w.dump(nil)
			if err := w.fault(); err != nil {
				return n, err
			}
		}
	}
	return n, nil
}

// dump moves the active buffer into the handoff slot and takes a fresh one.
// An empty buffer is only handed off when it carries a flush request.
func (w *Writer) dump(flushed chan error) {
	if len(w.active) == 0 && flushed == nil {
		return
	}
	w.handoff <- writeChunk{buf: w.active, flushed: flushed}
	w.active = <-w.free
}

// Sync blocks until every byte written before the call is on disk.
func (w *Writer) Sync() error {
	if w.closed {
		return sberrors.ErrStreamClosed
	}
	if err := w.fault(); err != nil {
		return err
	}
	reply := make(chan error, 1)
	w.dump(reply)
	return <-reply
}

// Close hands off any buffered bytes, waits for the drainer to write them
// and closes the file. It does not fsync. Idempotent.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	w.dump(nil)
	close(w.handoff)
	<-w.exited

	err := w.fault()
	if cerr := w.file.Close(); cerr != nil {
		err = errors.Join(err, &sberrors.IOError{Op: "close", Path: w.path, Err: cerr})
	}
	return err
}

// Path returns the file path the writer was opened with.
func (w *Writer) Path() string { return w.path }

// Written returns the number of bytes written to disk. Only valid after Close.
func (w *Writer) Written() int64 { return w.written }

// Sum64 returns the xxhash64 of every byte written to disk, in order.
// Only valid after Close.
func (w *Writer) Sum64() uint64 { return w.digest.Sum64() }
