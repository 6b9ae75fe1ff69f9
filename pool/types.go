package pool

import "github.com/poolkit/poolkit/internal/pagealloc"

// Kind tags a pool with the class of allocation it backs. One pool per kind
// per Manager.
type Kind uint8

const (
	// KindNormal backs regular bucketed allocations.
	KindNormal Kind = iota
	// KindDirectMap backs oversized allocations mapped directly.
	KindDirectMap
	// KindTagged backs allocations in tagged memory on targets that have
	// it. Optional; most processes never register this pool.
	KindTagged

	numKinds
)

func (k Kind) String() string {
	switch k {
	case KindNormal:
		return "normal"
	case KindDirectMap:
		return "direct-map"
	case KindTagged:
		return "tagged"
	}
	return "invalid"
}

const addrBits = 32 << (^uintptr(0) >> 63)

const (
	// MaxPoolSize caps a single pool's length: 16 GiB on 64-bit targets,
	// 1 GiB on 32-bit ones. This is a defensive limit to catch caller
	// arithmetic errors, not a statement about available memory.
	MaxPoolSize uintptr = 1 << (30 + 4*(addrBits/32-1))

	// DefaultPoolSize is what Default() reserves per pool: 4 GiB on 64-bit
	// targets, 256 MiB on 32-bit ones.
	DefaultPoolSize uintptr = 1 << (28 + 4*(addrBits/32-1))

	// directMapGranularity is the membership granularity of the direct-map
	// pool. Direct-mapped allocations are padded to super pages for
	// reservation but their interior is classified at this finer unit.
	directMapGranularity = pagealloc.SuperPageSize / 128

	// guardUnits is the run of always-zero units kept at each end of a
	// membership bitmap, so callers scanning outward from a valid address
	// stay inside the backing words.
	guardUnits = 16
)
