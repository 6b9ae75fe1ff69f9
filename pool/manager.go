package pool

import (
	"fmt"
	"os"
	"sync/atomic"

	"github.com/poolkit/poolkit/internal/pagealloc"
)

// Debug tracing of reserve/unreserve traffic, in the style of the page
// allocator's own diagnostics: enabled by setting POOL_LOG.
var logPool = os.Getenv("POOL_LOG") != ""

// Manager owns the process's pools, one slot per kind. The slots are atomic
// pointers so IsManagedByKind can run without any lock; everything mutable
// inside a Pool is guarded by that pool's own lock.
//
// Construct with NewManager and pass it to whatever needs it; Default()
// covers the usual one-instance-per-process arrangement.
type Manager struct {
	pools [numKinds]atomic.Pointer[Pool]
}

// NewManager returns a Manager with no pools registered.
func NewManager() *Manager { return &Manager{} }

// CreatePool registers a pool of the given kind over [base, base+length), a
// range the caller has already reserved as inaccessible (see
// ReserveAddressSpace). Misaligned or oversized ranges are programming
// errors and panic; a duplicate kind returns ErrKindInUse.
func (m *Manager) CreatePool(kind Kind, base, length uintptr) (*Pool, error) {
	if kind >= numKinds {
		return nil, ErrBadKind
	}
	if length == 0 || length > MaxPoolSize {
		panic(fmt.Sprintf("pool: length %#x exceeds pool ceiling %#x", length, MaxPoolSize))
	}
	if !pagealloc.IsSuperPageAligned(base) || !pagealloc.IsSuperPageAligned(length) {
		panic(fmt.Sprintf("pool: range %#x+%#x not super-page aligned", base, length))
	}

	p := newPool(kind, base, length)
	if !m.pools[kind].CompareAndSwap(nil, p) {
		return nil, ErrKindInUse
	}
	return p, nil
}

// DestroyPool unregisters the kind's pool. The address range itself stays
// reserved; the caller frees it with FreeReservedAddressSpace. Test and
// teardown use only.
func (m *Manager) DestroyPool(kind Kind) error {
	if kind >= numKinds {
		return ErrBadKind
	}
	if m.pools[kind].Swap(nil) == nil {
		return ErrNoPool
	}
	return nil
}

// Pool returns the registered pool for kind, or nil.
func (m *Manager) Pool(kind Kind) *Pool {
	if kind >= numKinds {
		return nil
	}
	return m.pools[kind].Load()
}

// Reserve hands out a free super-page-aligned run of at least length bytes
// from the kind's pool, marking its membership bitmap, and returns its start
// address. length is rounded up to a super-page multiple. A non-zero
// requested address is honored only when that exact run is free; otherwise
// the first fit in address order is used. Returns 0 when no pool is
// registered or no single free run is large enough - never a partial range,
// and never by growing the pool.
func (m *Manager) Reserve(kind Kind, requested, length uintptr) uintptr {
	p := m.Pool(kind)
	if p == nil || length == 0 {
		return 0
	}
	length = pagealloc.RoundUpToSuperPage(length)
	if length > p.length {
		return 0
	}

	addr := p.reserve(requested, length)
	if logPool {
		fmt.Fprintf(os.Stderr, "pool: reserve kind=%v len=%#x -> %#x\n", kind, length, addr)
	}
	return addr
}

// UnreserveAndDecommit returns [addr, addr+length) to the kind's pool and
// decommits its pages, so the range carries no commit charge and reads as
// zero if later re-reserved and recommitted. length is rounded up to a
// super-page multiple. Unreserving a range the pool does not contain is a
// programming error and panics.
//
// The decommit happens before the run is marked free: until the marking, no
// other thread can re-reserve the range, so the zeroing cannot clobber a new
// owner's memory.
func (m *Manager) UnreserveAndDecommit(kind Kind, addr, length uintptr) {
	p := m.Pool(kind)
	if p == nil {
		panic("pool: unreserve with no pool registered")
	}
	length = pagealloc.RoundUpToSuperPage(length)
	if !pagealloc.IsSuperPageAligned(addr) || !p.contains(addr) || addr+length > p.base+p.length {
		panic(fmt.Sprintf("pool: unreserve of %#x+%#x outside pool %v", addr, length, kind))
	}

	// Zero-on-decommit, not the advisory discard: callers re-reserving this
	// range rely on reading zero. Mapping-limit refusals are retried inside
	// DecommitAndZero; anything else means our bookkeeping is off.
	if err := pagealloc.DecommitAndZero(addr, length, "pool-unreserve"); err != nil {
		panic(fmt.Sprintf("pool: decommit of %#x+%#x failed: %v", addr, length, err))
	}
	p.unreserve(addr, length)

	if logPool {
		fmt.Fprintf(os.Stderr, "pool: unreserve kind=%v addr=%#x len=%#x\n", kind, addr, length)
	}
}

// IsManagedByKind reports whether addr is inside a currently live
// reservation of the kind's pool. Lock-free; safe from any goroutine. A
// read racing the exact instant of a reservation flip may be stale by one
// update, which callers of this classification predicate tolerate.
func (m *Manager) IsManagedByKind(kind Kind, addr uintptr) bool {
	p := m.Pool(kind)
	return p != nil && p.members.isSet(addr)
}

// Stats snapshots the kind's pool accounting. ok is false when no pool is
// registered.
func (m *Manager) Stats(kind Kind) (s Stats, ok bool) {
	p := m.Pool(kind)
	if p == nil {
		return Stats{}, false
	}
	return p.snapshot(), true
}

// ResetForTesting unregisters every pool. Reserved address ranges are the
// caller's to free. Not part of the steady-state contract.
func (m *Manager) ResetForTesting() {
	for kind := range numKinds {
		m.pools[kind].Store(nil)
	}
}

// ReserveAddressSpace obtains a fresh super-page-aligned, inaccessible
// range suitable for CreatePool. length is rounded up to a super-page
// multiple. Returns the base address and the rounded length, or an error
// when the OS has no room.
func ReserveAddressSpace(length uintptr) (uintptr, uintptr, error) {
	length = pagealloc.RoundUpToSuperPage(length)
	base := pagealloc.AllocAligned(length, pagealloc.SuperPageSize, pagealloc.Inaccessible, "pool")
	if base == 0 {
		return 0, 0, fmt.Errorf("%w: %v", ErrNoAddressSpace, pagealloc.LastAllocError())
	}
	return base, length, nil
}

// FreeReservedAddressSpace releases a range obtained from
// ReserveAddressSpace. The pool using it must have been destroyed first.
func FreeReservedAddressSpace(base, length uintptr) {
	pagealloc.FreePages(base, length)
}
