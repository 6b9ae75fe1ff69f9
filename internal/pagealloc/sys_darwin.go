//go:build darwin

package pagealloc

import "golang.org/x/sys/unix"

// On darwin MADV_FREE marks pages reclaimable but leaves their content in
// place until memory pressure actually reclaims them, so a decommitted page
// may still read its old content. Callers that need zero must use
// DecommitAndZero.
const (
	decommitAdvice = unix.MADV_FREE
	discardAdvice  = unix.MADV_FREE
)

// SealPages reports false: darwin has no mapping-seal primitive.
func SealPages(addr, length uintptr) bool { return false }
