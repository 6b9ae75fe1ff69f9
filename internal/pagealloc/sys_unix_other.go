//go:build unix && !linux && !darwin

package pagealloc

import "golang.org/x/sys/unix"

const (
	decommitAdvice = unix.MADV_DONTNEED
	discardAdvice  = unix.MADV_DONTNEED
)

// SealPages reports false: no mapping-seal primitive on this platform.
func SealPages(addr, length uintptr) bool { return false }
