package pool

import (
	"math/bits"
	"sync/atomic"
)

// membership is the packed bit table answering "is this address part of a
// live reservation" in O(1). One bit per granularity-sized unit of the
// pool's range, with guardUnits of permanently-zero bits at each end.
//
// Mutation happens only under the owning pool's lock; reads take no lock and
// use atomic loads, so a racing reader sees either the word before or after
// a flip, never a torn value. The transient disagreement during the exact
// reservation instant is accepted: the predicate classifies addresses, it
// does not gate correctness-critical control flow.
type membership struct {
	words     []atomic.Uint64
	base      uintptr
	length    uintptr
	unitShift uint
}

func newMembership(base, length, granularity uintptr) *membership {
	shift := uint(bits.TrailingZeros64(uint64(granularity)))
	units := int(length>>shift) + 2*guardUnits
	return &membership{
		words:     make([]atomic.Uint64, (units+63)/64),
		base:      base,
		length:    length,
		unitShift: shift,
	}
}

func (m *membership) unitIndex(addr uintptr) int {
	return int((addr-m.base)>>m.unitShift) + guardUnits
}

// mark sets the bits covering [addr, addr+length). Pool lock held.
func (m *membership) mark(addr, length uintptr) {
	lo := m.unitIndex(addr)
	hi := m.unitIndex(addr + length)
	for i := lo; i < hi; i++ {
		m.words[i/64].Or(1 << (i % 64))
	}
}

// clear unsets the bits covering [addr, addr+length). Pool lock held.
func (m *membership) clear(addr, length uintptr) {
	lo := m.unitIndex(addr)
	hi := m.unitIndex(addr + length)
	for i := lo; i < hi; i++ {
		m.words[i/64].And(^uint64(1 << (i % 64)))
	}
}

// isSet reports whether addr's unit is part of a live reservation.
// Lock-free.
func (m *membership) isSet(addr uintptr) bool {
	if addr < m.base || addr-m.base >= m.length {
		return false
	}
	i := m.unitIndex(addr)
	return m.words[i/64].Load()&(1<<(i%64)) != 0
}
