package sortbench

import "github.com/KimMachineGun/automemlimit/memlimit"

// MemoryFunc reports the working memory available to a pass, in bytes.
type MemoryFunc func() (uint64, error)

var systemMemory = memlimit.ApplyFallback(memlimit.FromCgroup, memlimit.FromSystem)

// SystemMemory returns the cgroup memory limit when one is set, and the
// host's total physical memory otherwise.
func SystemMemory() (uint64, error) {
	return systemMemory()
}

// FixedMemory returns a MemoryFunc that always reports bytes.
func FixedMemory(bytes uint64) MemoryFunc {
	return func() (uint64, error) {
		return bytes, nil
	}
}
