package pool

// runmap tracks which super pages of a pool are handed out: one bit per
// super page, set while reserved. Free-space search is a first-fit scan in
// address order over the clear bits - deterministic and cheap, and freed
// runs coalesce with their neighbors for free, because adjacency in the
// bitmap is adjacency in the address space.
//
// All access happens under the owning pool's lock.
type runmap struct {
	words []uint64
	nbits int
}

func newRunmap(nbits int) *runmap {
	return &runmap{
		words: make([]uint64, (nbits+63)/64),
		nbits: nbits,
	}
}

func (r *runmap) bit(i int) bool {
	return r.words[i/64]&(1<<(i%64)) != 0
}

// findFirstRun returns the lowest index of n consecutive clear bits,
// scanning from bit 0 upward. ok is false if no such run exists.
func (r *runmap) findFirstRun(n int) (start int, ok bool) {
	if n <= 0 || n > r.nbits {
		return 0, false
	}
	run := 0
	for i := 0; i < r.nbits; i++ {
		// Fully-occupied words cannot contribute; skip them whole.
		if i%64 == 0 && r.words[i/64] == ^uint64(0) {
			run = 0
			i += 63
			continue
		}
		if r.bit(i) {
			run = 0
			continue
		}
		run++
		if run == n {
			return i - n + 1, true
		}
	}
	return 0, false
}

// runFreeAt reports whether the n bits starting at index start are all
// clear.
func (r *runmap) runFreeAt(start, n int) bool {
	if start < 0 || n <= 0 || start+n > r.nbits {
		return false
	}
	for i := start; i < start+n; i++ {
		if r.bit(i) {
			return false
		}
	}
	return true
}

func (r *runmap) setRange(start, n int) {
	for i := start; i < start+n; i++ {
		r.words[i/64] |= 1 << (i % 64)
	}
}

func (r *runmap) clearRange(start, n int) {
	for i := start; i < start+n; i++ {
		r.words[i/64] &^= 1 << (i % 64)
	}
}

// largestFreeRun returns the length in bits of the longest run of clear
// bits. Used for stats only.
func (r *runmap) largestFreeRun() int {
	best, run := 0, 0
	for i := 0; i < r.nbits; i++ {
		if r.bit(i) {
			run = 0
			continue
		}
		run++
		if run > best {
			best = run
		}
	}
	return best
}
