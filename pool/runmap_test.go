package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunmapFindFirstRun(t *testing.T) {
	r := newRunmap(16)

	start, ok := r.findFirstRun(16)
	require.True(t, ok)
	assert.Equal(t, 0, start)

	// Occupy [0,4) and [8,12): the first 4-run is at 4, the first 1-run too.
	r.setRange(0, 4)
	r.setRange(8, 4)

	start, ok = r.findFirstRun(4)
	require.True(t, ok)
	assert.Equal(t, 4, start)

	start, ok = r.findFirstRun(1)
	require.True(t, ok)
	assert.Equal(t, 4, start)

	_, ok = r.findFirstRun(5)
	assert.False(t, ok, "no free run of 5 exists")

	_, ok = r.findFirstRun(17)
	assert.False(t, ok, "longer than the map")
}

func TestRunmapCoalescing(t *testing.T) {
	r := newRunmap(8)
	r.setRange(0, 3)
	r.setRange(3, 3)

	// Freeing both adjacent runs yields one combined 6-run at 0.
	r.clearRange(0, 3)
	r.clearRange(3, 3)

	start, ok := r.findFirstRun(6)
	require.True(t, ok)
	assert.Equal(t, 0, start)
}

func TestRunmapSpansWordBoundary(t *testing.T) {
	r := newRunmap(192)
	r.setRange(0, 60)

	// The only 10-run crossing the first word boundary starts at 60.
	start, ok := r.findFirstRun(10)
	require.True(t, ok)
	assert.Equal(t, 60, start)

	// Fill the second word entirely; the skip path must not miss the run
	// starting right after it.
	r.setRange(60, 68) // occupies up to bit 128
	start, ok = r.findFirstRun(10)
	require.True(t, ok)
	assert.Equal(t, 128, start)
}

func TestRunmapRunFreeAt(t *testing.T) {
	r := newRunmap(8)
	r.setRange(2, 2)

	assert.True(t, r.runFreeAt(0, 2))
	assert.False(t, r.runFreeAt(1, 2))
	assert.False(t, r.runFreeAt(2, 1))
	assert.True(t, r.runFreeAt(4, 4))
	assert.False(t, r.runFreeAt(6, 3), "runs past the end")
	assert.False(t, r.runFreeAt(-1, 1))
}

func TestRunmapLargestFreeRun(t *testing.T) {
	r := newRunmap(16)
	assert.Equal(t, 16, r.largestFreeRun())

	r.setRange(5, 1)
	r.setRange(12, 1)
	assert.Equal(t, 6, r.largestFreeRun())

	r.setRange(0, 16)
	assert.Equal(t, 0, r.largestFreeRun())
}
