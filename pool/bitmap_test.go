package pool

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/poolkit/poolkit/internal/pagealloc"
)

// The membership table is pure index arithmetic over a base address; no
// memory behind the addresses is touched, so a synthetic range works.
const testBase = 64 * pagealloc.SuperPageSize

func TestMembershipMarkClear(t *testing.T) {
	length := 8 * pagealloc.SuperPageSize
	m := newMembership(testBase, length, pagealloc.SuperPageSize)

	addr := testBase + 2*pagealloc.SuperPageSize
	m.mark(addr, 3*pagealloc.SuperPageSize)

	for off := uintptr(0); off < 3*pagealloc.SuperPageSize; off += pagealloc.SuperPageSize {
		assert.True(t, m.isSet(addr+off), "super page at +%#x", off)
	}
	// Interior (non-boundary) addresses resolve to their unit.
	assert.True(t, m.isSet(addr+pagealloc.PageSize()))

	// One byte below and the first byte past the reservation are out.
	assert.False(t, m.isSet(addr-1))
	assert.False(t, m.isSet(addr+3*pagealloc.SuperPageSize))

	m.clear(addr, 3*pagealloc.SuperPageSize)
	assert.False(t, m.isSet(addr))
	assert.False(t, m.isSet(addr+2*pagealloc.SuperPageSize))
}

func TestMembershipPoolEdges(t *testing.T) {
	length := 4 * pagealloc.SuperPageSize
	m := newMembership(testBase, length, pagealloc.SuperPageSize)
	m.mark(testBase, length)

	assert.True(t, m.isSet(testBase))
	assert.True(t, m.isSet(testBase+length-1))
	// Outside the pool range entirely, including far off.
	assert.False(t, m.isSet(testBase-1))
	assert.False(t, m.isSet(testBase+length))
	assert.False(t, m.isSet(0))
	assert.False(t, m.isSet(testBase-pagealloc.SuperPageSize))
}

func TestMembershipFineGranularity(t *testing.T) {
	length := 2 * pagealloc.SuperPageSize
	m := newMembership(testBase, length, directMapGranularity)

	// Mark half a super page; the other half must answer false even though
	// it shares the super page.
	m.mark(testBase, pagealloc.SuperPageSize/2)
	assert.True(t, m.isSet(testBase))
	assert.True(t, m.isSet(testBase+pagealloc.SuperPageSize/2-1))
	assert.False(t, m.isSet(testBase+pagealloc.SuperPageSize/2))
	assert.False(t, m.isSet(testBase+pagealloc.SuperPageSize))
}

// TestMembershipLockFreeReaders races atomic readers against a writer
// flipping one reservation, to be run under -race. Readers may see either
// state, never anything else.
func TestMembershipLockFreeReaders(t *testing.T) {
	length := 4 * pagealloc.SuperPageSize
	m := newMembership(testBase, length, pagealloc.SuperPageSize)

	var wg sync.WaitGroup
	stop := make(chan struct{})

	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					_ = m.isSet(testBase + pagealloc.SuperPageSize)
				}
			}
		}()
	}

	for range 1_000 {
		m.mark(testBase, 2*pagealloc.SuperPageSize)
		m.clear(testBase, 2*pagealloc.SuperPageSize)
	}
	close(stop)
	wg.Wait()
}
