//go:build darwin

package dataset

import (
	"os"

	"golang.org/x/sys/unix"
)

// fallocateFile reserves size bytes for file using F_PREALLOCATE, then sets
// the file length.
func fallocateFile(file *os.File, size int64) error {
	fst := unix.Fstore_t{
		Flags:   unix.F_ALLOCATEALL,
		Posmode: unix.F_PEOFPOSMODE,
		Offset:  0,
		Length:  size,
	}
	// Reservation is best-effort: some filesystems reject F_PREALLOCATE and
	// generation then fails on a full disk instead of up front.
	_ = unix.FcntlFstore(file.Fd(), unix.F_PREALLOCATE, &fst)

	// F_PREALLOCATE only reserves blocks; the size is set separately.
	return unix.Ftruncate(int(file.Fd()), size)
}
