//go:build unix

package pagealloc

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

func protFor(access Accessibility) int {
	switch access {
	case Inaccessible:
		return unix.PROT_NONE
	case ReadOnly:
		return unix.PROT_READ
	case ReadWrite, ReadWriteTagged:
		return unix.PROT_READ | unix.PROT_WRITE
	case ReadExecute:
		return unix.PROT_READ | unix.PROT_EXEC
	case ReadWriteExecute:
		return unix.PROT_READ | unix.PROT_WRITE | unix.PROT_EXEC
	}
	fatalf("unknown accessibility %d", access)
	return 0
}

// span reinterprets a raw mapping as a byte slice for the x/sys calls that
// want one. The slice must not be read or written unless the mapping allows
// it.
func span(addr, length uintptr) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), length)
}

func errnoErr(code uintptr) error { return unix.Errno(code) }

func recordAllocError(err error) {
	if errno, ok := err.(unix.Errno); ok {
		lastAllocErrno.Store(uintptr(errno))
	}
}

// isCommitLimit reports whether err is the kernel refusing to commit or
// split a mapping for resource reasons (commit charge, vm.max_map_count)
// rather than because of a bad argument.
func isCommitLimit(err error) bool {
	return err == unix.ENOMEM || err == unix.EAGAIN
}

// AllocPages requests a fresh anonymous mapping of length bytes with the
// given accessibility. hint, if non-zero, is advisory; the kernel may place
// the mapping elsewhere. Returns 0 on failure and records the OS error for
// LastAllocError. tag names the mapping's purpose in diagnostics.
func AllocPages(hint, length uintptr, access Accessibility, tag string) uintptr {
	p, err := unix.MmapPtr(-1, 0, unsafe.Pointer(hint), length,
		protFor(access), unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		recordAllocError(err)
		return 0
	}
	return uintptr(p)
}

// AllocAligned allocates length bytes whose start address is a multiple of
// align (a power of two, at least the page size). It over-allocates and trims
// the misaligned head and tail, so no address space is left pinned. Returns 0
// on failure.
func AllocAligned(length, align uintptr, access Accessibility, tag string) uintptr {
	// A plain allocation is often already aligned; try it first.
	p := AllocPages(0, length, access, tag)
	if p != 0 && p&(align-1) == 0 {
		return p
	}
	if p != 0 {
		FreePages(p, length)
	}

	over := length + align
	base := AllocPages(0, over, access, tag)
	if base == 0 {
		return 0
	}
	aligned := (base + align - 1) &^ (align - 1)
	if head := aligned - base; head != 0 {
		FreePages(base, head)
	}
	if tail := base + over - (aligned + length); tail != 0 {
		FreePages(aligned+length, tail)
	}
	return aligned
}

// FreePages unmaps a range previously returned by AllocPages (or a trimmed
// sub-range of one). A failed munmap means our bookkeeping no longer matches
// the kernel's, so it is fatal.
func FreePages(addr, length uintptr) {
	if err := unix.MunmapPtr(unsafe.Pointer(addr), length); err != nil {
		fatalf("munmap(%#x, %#x): %v", addr, length, err)
	}
}

// TrySetAccess changes the protection of a mapped range, returning the OS
// error on failure.
func TrySetAccess(addr, length uintptr, access Accessibility) error {
	return unix.Mprotect(span(addr, length), protFor(access))
}

// SetAccess is TrySetAccess for callers that own the range: failure is
// fatal, with the kernel's resource-limit refusal surfaced as a distinct
// out-of-memory condition.
func SetAccess(addr, length uintptr, access Accessibility) {
	err := TrySetAccess(addr, length, access)
	if err == nil {
		return
	}
	if isCommitLimit(err) {
		fatalOOM("mprotect", err)
	}
	fatalf("mprotect(%#x, %#x, %v): %v", addr, length, access, err)
}

// DecommitPages tells the kernel the range's content is disposable; the next
// access observes zero-fill-on-demand pages (on Linux) or possibly stale
// content (BSDs, where the advice is lazier - use DecommitAndZero when zero
// content must be guaranteed). With RevokeAccess the protection is dropped
// afterwards.
//
// Content is discarded before access is revoked. The reverse order would be
// safer but cannot be expressed on older kernels (madvise on PROT_NONE
// ranges fails there), so the small window in which another thread can touch
// freshly discarded memory is accepted.
func DecommitPages(addr, length uintptr, policy DecommitPolicy) {
	madviseRetry(addr, length, decommitAdvice)
	if policy == RevokeAccess {
		SetAccess(addr, length, Inaccessible)
	}
}

// DecommitAndZero replaces the range with a fresh inaccessible zero mapping
// at the same address, so the next access after recommit is guaranteed to
// read zero. If the kernel refuses the new mapping for resource reasons
// (mapping-count limit), it falls back to DecommitPages, which has the same
// zeroing behavior on Linux.
func DecommitAndZero(addr, length uintptr, tag string) error {
	_, err := unix.MmapPtr(-1, 0, unsafe.Pointer(addr), length,
		unix.PROT_NONE, unix.MAP_ANON|unix.MAP_PRIVATE|unix.MAP_FIXED)
	if err == nil {
		return nil
	}
	if isCommitLimit(err) {
		DecommitPages(addr, length, RevokeAccess)
		return nil
	}
	return err
}

// TryRecommitPages restores access to a range previously decommitted with
// RevokeAccess, returning the OS error on failure.
func TryRecommitPages(addr, length uintptr, access Accessibility) error {
	return TrySetAccess(addr, length, access)
}

// RecommitPages is the fatal-on-failure variant of TryRecommitPages.
func RecommitPages(addr, length uintptr, access Accessibility) {
	SetAccess(addr, length, access)
}

// DiscardPages hints that the range's content may be dropped. Purely
// advisory: callers must not assume the content is zeroed, or dropped at
// all.
func DiscardPages(addr, length uintptr) {
	madviseRetry(addr, length, discardAdvice)
}

func madviseRetry(addr, length uintptr, advice int) {
	// EAGAIN is transient (page-out in progress on some kernels).
	for {
		err := unix.Madvise(span(addr, length), advice)
		if err != unix.EAGAIN {
			return
		}
	}
}
