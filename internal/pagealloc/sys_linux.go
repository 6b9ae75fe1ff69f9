//go:build linux

package pagealloc

import "golang.org/x/sys/unix"

const (
	// MADV_DONTNEED on anonymous private mappings drops the pages
	// synchronously; the next access reads zero.
	decommitAdvice = unix.MADV_DONTNEED
	discardAdvice  = unix.MADV_DONTNEED
)

// SealPages makes the mapping immutable: further mprotect/munmap/mremap on
// it fail, even from this process. Returns false where the kernel (< 6.10)
// does not support mseal; that is a capability report, not an error.
func SealPages(addr, length uintptr) bool {
	_, _, errno := unix.Syscall(unix.SYS_MSEAL, addr, length, 0)
	return errno == 0
}
