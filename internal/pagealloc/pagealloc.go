// Package pagealloc provides the OS virtual-memory primitives the pool
// manager is built on: reserving, committing, decommitting, discarding,
// protecting and sealing page ranges.
//
// All functions operate on addresses and lengths the caller has already
// aligned to the relevant page boundary; nothing here re-aligns. Allocation
// failures are recoverable (a zero address is returned and the OS error is
// retained for diagnostics). Failures of operations that cannot fail in a
// correct program - unmapping, reprotecting memory we own - are treated as
// bookkeeping corruption and terminate via panic, with the commit-limit
// case distinguished from a generic fault.
package pagealloc

import (
	"os"
	"sync/atomic"
)

// Accessibility describes the page protection applied to a mapping.
type Accessibility int

const (
	// Inaccessible maps pages with no access; reads and writes fault.
	Inaccessible Accessibility = iota
	// ReadOnly allows loads only.
	ReadOnly
	// ReadWrite allows loads and stores.
	ReadWrite
	// ReadExecute allows loads and instruction fetch.
	ReadExecute
	// ReadWriteExecute allows everything. Used only by tests and JITs.
	ReadWriteExecute
	// ReadWriteTagged is ReadWrite plus memory tagging on targets that
	// support it; elsewhere it degrades to plain ReadWrite.
	ReadWriteTagged
)

// DecommitPolicy controls whether DecommitPages also revokes access.
type DecommitPolicy int

const (
	// KeepAccess leaves the page protection untouched; only the content is
	// discarded.
	KeepAccess DecommitPolicy = iota
	// RevokeAccess additionally drops the protection to Inaccessible.
	RevokeAccess
)

const (
	// SuperPageShift is log2 of the super page size.
	SuperPageShift = 21
	// SuperPageSize is the unit of address-space accounting: 2 MiB on every
	// supported target, large enough for metadata to live at a super page's
	// start and small enough that a pool's bitmap stays compact.
	SuperPageSize uintptr = 1 << SuperPageShift
	// SuperPageOffsetMask masks the offset of an address within its super page.
	SuperPageOffsetMask = SuperPageSize - 1
	// SuperPageBaseMask masks an address down to its super page base.
	SuperPageBaseMask = ^SuperPageOffsetMask
)

var pageSize = uintptr(os.Getpagesize())

// PageSize returns the system page size (4 KiB on most targets, 16 KiB on
// darwin/arm64).
func PageSize() uintptr { return pageSize }

// RoundUpToPage rounds length up to a multiple of the system page size.
func RoundUpToPage(length uintptr) uintptr {
	return (length + pageSize - 1) &^ (pageSize - 1)
}

// RoundUpToSuperPage rounds length up to a multiple of the super page size.
func RoundUpToSuperPage(length uintptr) uintptr {
	return (length + SuperPageOffsetMask) & SuperPageBaseMask
}

// RoundDownToSuperPage rounds addr down to its super page base.
func RoundDownToSuperPage(addr uintptr) uintptr {
	return addr & SuperPageBaseMask
}

// IsSuperPageAligned reports whether v is a multiple of the super page size.
func IsSuperPageAligned(v uintptr) bool { return v&SuperPageOffsetMask == 0 }

// lastAllocErrno holds the raw OS error code of the most recent failed
// AllocPages call, for diagnostics. Zero means no failure recorded.
var lastAllocErrno atomic.Uintptr

// LastAllocError returns the OS error of the most recent failed AllocPages
// call, or nil if none has failed. Intended for crash diagnostics, not for
// control flow.
func LastAllocError() error {
	code := lastAllocErrno.Load()
	if code == 0 {
		return nil
	}
	return errnoErr(code)
}
