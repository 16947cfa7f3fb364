// Package errors defines all exported error sentinels for the sortbench module.
//
// This is the single source of truth for error values. The top-level
// sortbench package, the stream and dataset packages all import from here,
// ensuring errors.Is checks work across package boundaries.
package errors

import "errors"

// Precondition violations
var (
	ErrUnalignedSize  = errors.New("sortbench: byte length is not a multiple of 8")
	ErrLengthMismatch = errors.New("sortbench: file length does not match expected size")
	ErrUnknownSorter  = errors.New("sortbench: unknown sorter")
)

// I/O faults
var (
	ErrShortRead    = errors.New("sortbench: short read")
	ErrShortWrite   = errors.New("sortbench: short write")
	ErrStreamClosed = errors.New("sortbench: stream is closed")
)

// Integrity
var (
	// ErrChecksumMismatch means a bucket file's bytes differ from what was
	// written during the pass.
	ErrChecksumMismatch = errors.New("sortbench: bucket checksum mismatch")
)

// IOError attributes an I/O fault to the file it happened on.
type IOError struct {
	Op   string // "open", "read", "write", "sync", "close"
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return "sortbench: " + e.Op + " " + e.Path + ": " + e.Err.Error()
}

func (e *IOError) Unwrap() error { return e.Err }

// PathOf returns the path of the first IOError in err's chain, or "".
func PathOf(err error) string {
	var ioErr *IOError
	if errors.As(err, &ioErr) {
		return ioErr.Path
	}
	return ""
}
