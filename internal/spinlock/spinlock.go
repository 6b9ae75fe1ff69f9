// Package spinlock implements the small non-reentrant lock guarding each
// pool's reservation state: a three-state word that is taken with a single
// compare-and-swap when uncontended, spins briefly on contention, and parks
// in the kernel (futex wait on Linux, the native mutex elsewhere) when the
// spin does not pay off.
//
// The lock is intentionally minimal: no reentrancy, no ownership tracking,
// no timeout. Re-locking from the holding goroutine deadlocks. It must not
// be held across any call that can block indefinitely.
package spinlock

const (
	// spinCount bounds the busy-wait before parking. Critical sections under
	// this lock are a few dozen instructions (bitmap flips, run-map scans),
	// so a short spin wins whenever the holder is running on another CPU.
	spinCount = 64
	// yieldEvery inserts a scheduler yield into the spin so a holder
	// preempted on the same CPU can run.
	yieldEvery = 8
)
