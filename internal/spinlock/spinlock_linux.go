//go:build linux

package spinlock

import (
	"runtime"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Lock states. A waiter that ever parked leaves the lock in contended so the
// eventual Unlock knows a wake is owed.
const (
	unlocked  = 0
	locked    = 1
	contended = 2
)

// Mutex is a futex-backed spinning lock. The zero value is unlocked. Not
// reentrant; must be unlocked by the goroutine that locked it.
type Mutex struct {
	state atomic.Int32
}

// Lock acquires m, spinning briefly before parking in the kernel.
func (m *Mutex) Lock() {
	if m.state.CompareAndSwap(unlocked, locked) {
		return
	}
	m.lockSlow()
}

func (m *Mutex) lockSlow() {
	for i := 0; i < spinCount; i++ {
		if m.state.Load() == unlocked && m.state.CompareAndSwap(unlocked, locked) {
			return
		}
		if i%yieldEvery == yieldEvery-1 {
			runtime.Gosched()
		}
	}
	// Park. The swap both announces contention and attempts the acquire: if
	// the previous state was unlocked we own the lock (in contended state,
	// which at worst costs one spurious wake at unlock). A futex wake does
	// not hand off ownership, so the loop re-fights for the lock.
	for m.state.Swap(contended) != unlocked {
		futexWait(&m.state, contended)
	}
}

// Unlock releases m and wakes one parked waiter if any goroutine parked
// since the lock was taken.
func (m *Mutex) Unlock() {
	if m.state.Swap(unlocked) == contended {
		futexWake(&m.state)
	}
}

// Futex operation constants from <linux/futex.h>; x/sys/unix exports
// SYS_FUTEX but not the operation codes.
const (
	futexOpWait      = 0   // FUTEX_WAIT
	futexOpWake      = 1   // FUTEX_WAKE
	futexPrivateFlag = 128 // FUTEX_PRIVATE_FLAG
)

func futexWait(state *atomic.Int32, val int32) {
	// Returns on wake, EAGAIN (state changed before sleeping) or EINTR;
	// the caller's loop handles all three identically.
	_, _, _ = unix.Syscall6(unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(state)),
		uintptr(futexOpWait|futexPrivateFlag),
		uintptr(val), 0, 0, 0)
}

func futexWake(state *atomic.Int32) {
	_, _, _ = unix.Syscall6(unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(state)),
		uintptr(futexOpWake|futexPrivateFlag),
		1, 0, 0, 0)
}
