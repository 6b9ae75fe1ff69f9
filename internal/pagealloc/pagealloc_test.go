//go:build linux || darwin

package pagealloc

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundingHelpers(t *testing.T) {
	assert.Equal(t, SuperPageSize, RoundUpToSuperPage(1))
	assert.Equal(t, SuperPageSize, RoundUpToSuperPage(SuperPageSize))
	assert.Equal(t, 2*SuperPageSize, RoundUpToSuperPage(SuperPageSize+1))
	assert.Equal(t, uintptr(0), RoundDownToSuperPage(SuperPageSize-1))
	assert.Equal(t, SuperPageSize, RoundDownToSuperPage(SuperPageSize+1))
	assert.True(t, IsSuperPageAligned(0))
	assert.True(t, IsSuperPageAligned(4*SuperPageSize))
	assert.False(t, IsSuperPageAligned(SuperPageSize+PageSize()))

	assert.Equal(t, PageSize(), RoundUpToPage(1))
	assert.Equal(t, PageSize(), RoundUpToPage(PageSize()))
}

func TestAllocFreeRoundTrip(t *testing.T) {
	length := 4 * PageSize()
	p := AllocPages(0, length, ReadWrite, "test")
	require.NotZero(t, p)

	// The mapping must be usable.
	b := span(p, length)
	b[0] = 0xAB
	b[length-1] = 0xCD
	assert.Equal(t, byte(0xAB), b[0])

	FreePages(p, length)
}

func TestAllocInaccessibleReserve(t *testing.T) {
	// A large inaccessible reservation must not consume commit charge.
	length := 64 * SuperPageSize
	p := AllocPages(0, length, Inaccessible, "reserve-test")
	require.NotZero(t, p)
	defer FreePages(p, length)

	// Committing a slice of it makes that slice usable.
	SetAccess(p, PageSize(), ReadWrite)
	span(p, PageSize())[0] = 1
	SetAccess(p, PageSize(), Inaccessible)
}

func TestAllocAligned(t *testing.T) {
	length := 2 * SuperPageSize
	p := AllocAligned(length, SuperPageSize, Inaccessible, "aligned-test")
	require.NotZero(t, p)
	defer FreePages(p, length)

	assert.True(t, IsSuperPageAligned(p), "got %#x", p)
}

func TestDecommitAndZero(t *testing.T) {
	length := SuperPageSize
	p := AllocAligned(length, SuperPageSize, ReadWrite, "zero-test")
	require.NotZero(t, p)
	defer FreePages(p, length)

	b := span(p, length)
	for i := uintptr(0); i < length; i += PageSize() {
		b[i] = 0x5A
	}

	require.NoError(t, DecommitAndZero(p, length, "zero-test"))
	RecommitPages(p, length, ReadWrite)

	for i := uintptr(0); i < length; i += PageSize() {
		require.Zero(t, b[i], "offset %#x not zeroed", i)
	}
}

func TestDecommitKeepsAccessUsable(t *testing.T) {
	length := 4 * PageSize()
	p := AllocPages(0, length, ReadWrite, "decommit-test")
	require.NotZero(t, p)
	defer FreePages(p, length)

	b := span(p, length)
	b[0] = 0xFF
	DecommitPages(p, length, KeepAccess)

	// Still mapped read-write; content is undefined but access must not fault.
	b[0] = 0x01
	assert.Equal(t, byte(0x01), b[0])
}

func TestTrySetAccessFailsOnUnmappedRange(t *testing.T) {
	length := 4 * PageSize()
	p := AllocPages(0, length, ReadWrite, "protect-test")
	require.NotZero(t, p)
	FreePages(p, length)

	// The range is gone; reprotecting it (or the guaranteed-unmapped page at
	// the very top of the address space) must fail rather than succeed
	// silently.
	err := TrySetAccess(p, length, ReadOnly)
	if err == nil {
		t.Skip("range was re-mapped by the runtime between free and protect")
	}
	require.Error(t, err)
}

func TestLastAllocErrorRecorded(t *testing.T) {
	if unsafe.Sizeof(uintptr(0)) < 8 {
		t.Skip("needs a 64-bit address space")
	}
	// Far beyond any user address space; must fail and record the errno.
	p := AllocPages(0, uintptr(1)<<48, ReadWrite, "oversize-test")
	require.Zero(t, p)
	require.Error(t, LastAllocError())
}

func TestSealPages(t *testing.T) {
	length := PageSize()
	p := AllocPages(0, length, ReadOnly, "seal-test")
	require.NotZero(t, p)

	if !SealPages(p, length) {
		FreePages(p, length)
		t.Skip("mseal not supported on this kernel")
	}
	// Sealed: reprotect must be refused. The mapping is leaked on purpose,
	// since a sealed range cannot be unmapped either.
	require.Error(t, TrySetAccess(p, length, ReadWrite))
}
