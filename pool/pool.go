package pool

import (
	"github.com/poolkit/poolkit/internal/pagealloc"
	"github.com/poolkit/poolkit/internal/spinlock"
)

// Pool is one pre-reserved contiguous address range, subdivided into super
// pages on demand. Created by Manager.CreatePool; the range itself is
// reserved (inaccessible) by the caller and never grows.
type Pool struct {
	kind        Kind
	base        uintptr
	length      uintptr
	granularity uintptr

	mu      spinlock.Mutex
	runs    *runmap
	members *membership
	stats   Stats
}

// Stats is a snapshot of a pool's reservation accounting.
type Stats struct {
	ReserveCalls     uint64
	ReserveFailures  uint64
	UnreserveCalls   uint64
	BytesOutstanding uintptr
	PeakOutstanding  uintptr
	LargestFreeRun   uintptr // bytes, computed at snapshot time
}

func newPool(kind Kind, base, length uintptr) *Pool {
	granularity := pagealloc.SuperPageSize
	if kind == KindDirectMap {
		granularity = directMapGranularity
	}
	return &Pool{
		kind:        kind,
		base:        base,
		length:      length,
		granularity: granularity,
		runs:        newRunmap(int(length >> pagealloc.SuperPageShift)),
		members:     newMembership(base, length, granularity),
	}
}

// Base returns the pool's first address.
func (p *Pool) Base() uintptr { return p.base }

// Length returns the pool's reserved length in bytes.
func (p *Pool) Length() uintptr { return p.length }

// Kind returns the pool's membership kind.
func (p *Pool) Kind() Kind { return p.kind }

func (p *Pool) contains(addr uintptr) bool {
	return addr >= p.base && addr-p.base < p.length
}

// reserve finds a free run of chunks super pages, preferring the exact run
// at requested when that address is non-zero and free. Returns 0 when no
// single free run is large enough. Never blocks; the lock protects a pure
// in-memory scan.
func (p *Pool) reserve(requested, length uintptr) uintptr {
	chunks := int(length >> pagealloc.SuperPageShift)

	p.mu.Lock()
	defer p.mu.Unlock()

	p.stats.ReserveCalls++

	start, ok := 0, false
	if requested != 0 && p.contains(requested) {
		want := int((requested - p.base) >> pagealloc.SuperPageShift)
		if p.runs.runFreeAt(want, chunks) {
			start, ok = want, true
		}
	}
	if !ok {
		start, ok = p.runs.findFirstRun(chunks)
	}
	if !ok {
		p.stats.ReserveFailures++
		return 0
	}

	addr := p.base + uintptr(start)<<pagealloc.SuperPageShift
	p.runs.setRange(start, chunks)
	p.members.mark(addr, length)

	p.stats.BytesOutstanding += length
	if p.stats.BytesOutstanding > p.stats.PeakOutstanding {
		p.stats.PeakOutstanding = p.stats.BytesOutstanding
	}
	return addr
}

// unreserve returns the run covering [addr, addr+length) to the free space.
// The caller has already decommitted the range.
func (p *Pool) unreserve(addr, length uintptr) {
	start := int((addr - p.base) >> pagealloc.SuperPageShift)
	chunks := int(length >> pagealloc.SuperPageShift)

	p.mu.Lock()
	defer p.mu.Unlock()

	p.stats.UnreserveCalls++
	p.runs.clearRange(start, chunks)
	p.members.clear(addr, length)
	p.stats.BytesOutstanding -= length
}

// snapshot returns the stats with LargestFreeRun freshly computed.
func (p *Pool) snapshot() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := p.stats
	s.LargestFreeRun = uintptr(p.runs.largestFreeRun()) << pagealloc.SuperPageShift
	return s
}
