//go:build windows

package pagealloc

import (
	"syscall"

	"golang.org/x/sys/windows"
)

var (
	kernel32                 = windows.NewLazySystemDLL("kernel32.dll")
	procDiscardVirtualMemory = kernel32.NewProc("DiscardVirtualMemory")
)

func protFor(access Accessibility) uint32 {
	switch access {
	case Inaccessible:
		return windows.PAGE_NOACCESS
	case ReadOnly:
		return windows.PAGE_READONLY
	case ReadWrite, ReadWriteTagged:
		return windows.PAGE_READWRITE
	case ReadExecute:
		return windows.PAGE_EXECUTE_READ
	case ReadWriteExecute:
		return windows.PAGE_EXECUTE_READWRITE
	}
	fatalf("unknown accessibility %d", access)
	return 0
}

func errnoErr(code uintptr) error { return syscall.Errno(code) }

func recordAllocError(err error) {
	if errno, ok := err.(syscall.Errno); ok {
		lastAllocErrno.Store(uintptr(errno))
	}
}

func isCommitLimit(err error) bool {
	return err == windows.ERROR_COMMITMENT_LIMIT ||
		err == windows.ERROR_NOT_ENOUGH_MEMORY
}

// AllocPages reserves (and, unless inaccessible, commits) length bytes of
// address space. hint, if non-zero, is advisory: if the spot is taken the
// allocation is retried anywhere. Returns 0 on failure and records the OS
// error for LastAllocError.
func AllocPages(hint, length uintptr, access Accessibility, tag string) uintptr {
	allocType := uint32(windows.MEM_RESERVE)
	if access != Inaccessible {
		allocType |= windows.MEM_COMMIT
	}
	p, err := windows.VirtualAlloc(hint, length, allocType, protFor(access))
	if err != nil && hint != 0 {
		p, err = windows.VirtualAlloc(0, length, allocType, protFor(access))
	}
	if err != nil {
		recordAllocError(err)
		return 0
	}
	return p
}

// AllocAligned allocates length bytes starting at a multiple of align.
// VirtualFree cannot release a sub-range, so alignment is found by reserving
// an oversized placeholder, releasing it, and re-reserving at the aligned
// address inside it; another thread can steal the spot in between, so a few
// attempts are made.
func AllocAligned(length, align uintptr, access Accessibility, tag string) uintptr {
	p := AllocPages(0, length, access, tag)
	if p != 0 && p&(align-1) == 0 {
		return p
	}
	if p != 0 {
		FreePages(p, length)
	}

	for range 8 {
		base := AllocPages(0, length+align, Inaccessible, tag)
		if base == 0 {
			return 0
		}
		aligned := (base + align - 1) &^ (align - 1)
		FreePages(base, length+align)
		p = AllocPages(aligned, length, access, tag)
		if p == aligned {
			return p
		}
		if p != 0 {
			FreePages(p, length)
		}
	}
	return 0
}

// FreePages releases a range previously returned by AllocPages. Fatal on
// failure: a failed release means our bookkeeping no longer matches the OS.
func FreePages(addr, length uintptr) {
	// MEM_RELEASE requires size zero and the exact reservation base.
	if err := windows.VirtualFree(addr, 0, windows.MEM_RELEASE); err != nil {
		fatalf("VirtualFree(%#x): %v", addr, err)
	}
}

// TrySetAccess changes the protection of a committed range, returning the OS
// error on failure. Inaccessible is implemented as decommit, matching the
// unix contract that inaccessible pages carry no commit charge.
func TrySetAccess(addr, length uintptr, access Accessibility) error {
	if access == Inaccessible {
		return windows.VirtualFree(addr, length, windows.MEM_DECOMMIT)
	}
	_, err := windows.VirtualAlloc(addr, length, windows.MEM_COMMIT, protFor(access))
	return err
}

// SetAccess is the fatal-on-failure variant of TrySetAccess, with the
// commit-limit error surfaced as a distinct out-of-memory condition.
func SetAccess(addr, length uintptr, access Accessibility) {
	err := TrySetAccess(addr, length, access)
	if err == nil {
		return
	}
	if isCommitLimit(err) {
		fatalOOM("VirtualAlloc(MEM_COMMIT)", err)
	}
	fatalf("SetAccess(%#x, %#x, %v): %v", addr, length, access, err)
}

// DecommitPages returns the range's physical backing to the OS. On windows
// decommit always revokes access, so the policy distinction collapses; the
// next commit observes zero content.
func DecommitPages(addr, length uintptr, policy DecommitPolicy) {
	if err := windows.VirtualFree(addr, length, windows.MEM_DECOMMIT); err != nil {
		fatalf("VirtualFree(MEM_DECOMMIT, %#x, %#x): %v", addr, length, err)
	}
}

// DecommitAndZero decommits; windows guarantees zero content on recommit, so
// no replacement mapping is needed.
func DecommitAndZero(addr, length uintptr, tag string) error {
	DecommitPages(addr, length, RevokeAccess)
	return nil
}

// TryRecommitPages commits a previously decommitted range with the given
// protection, returning the OS error on failure.
func TryRecommitPages(addr, length uintptr, access Accessibility) error {
	_, err := windows.VirtualAlloc(addr, length, windows.MEM_COMMIT, protFor(access))
	return err
}

// RecommitPages is the fatal-on-failure variant of TryRecommitPages.
func RecommitPages(addr, length uintptr, access Accessibility) {
	if err := TryRecommitPages(addr, length, access); err != nil {
		if isCommitLimit(err) {
			fatalOOM("VirtualAlloc(MEM_COMMIT)", err)
		}
		fatalf("RecommitPages(%#x, %#x, %v): %v", addr, length, access, err)
	}
}

// DiscardPages hints that the range's content may be dropped. Advisory only.
func DiscardPages(addr, length uintptr) {
	// DiscardVirtualMemory (win 8.1+); MEM_RESET for older systems.
	if err := procDiscardVirtualMemory.Find(); err == nil {
		r, _, _ := procDiscardVirtualMemory.Call(addr, length)
		if r == uintptr(windows.ERROR_SUCCESS) {
			return
		}
	}
	_, _ = windows.VirtualAlloc(addr, length, windows.MEM_RESET, windows.PAGE_READWRITE)
}

// SealPages reports false: windows has no mapping-seal primitive.
func SealPages(addr, length uintptr) bool { return false }
