//go:build !linux

package stream

// fadviseSequential is a no-op on non-Linux platforms.
func fadviseSequential(fd int) {}
