//go:build !linux

package sortbench

// prefaultBucket is a no-op on non-Linux platforms.
func prefaultBucket(data []byte) {}
