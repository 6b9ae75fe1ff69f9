//go:build !unix && !windows

package pagealloc

import "errors"

// No virtual-memory control on this platform; every allocation fails and
// the pool manager above reports itself unusable.

var errUnsupported = errors.New("pagealloc: platform has no virtual-memory control")

func errnoErr(code uintptr) error { return errUnsupported }

func AllocPages(hint, length uintptr, access Accessibility, tag string) uintptr {
	lastAllocErrno.Store(1)
	return 0
}

func AllocAligned(length, align uintptr, access Accessibility, tag string) uintptr {
	lastAllocErrno.Store(1)
	return 0
}

func FreePages(addr, length uintptr) {}

func TrySetAccess(addr, length uintptr, access Accessibility) error { return errUnsupported }

func SetAccess(addr, length uintptr, access Accessibility) {}

func DecommitPages(addr, length uintptr, policy DecommitPolicy) {}

func DecommitAndZero(addr, length uintptr, tag string) error { return errUnsupported }

func TryRecommitPages(addr, length uintptr, access Accessibility) error { return errUnsupported }

func RecommitPages(addr, length uintptr, access Accessibility) {}

func DiscardPages(addr, length uintptr) {}

func SealPages(addr, length uintptr) bool { return false }
