//go:build !linux

package spinlock

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Mutex spins briefly and then falls back to the native mutex where no
// futex-style wait/wake pair exists. Same external contract as the Linux
// version: zero value unlocked, non-reentrant.
type Mutex struct {
	held atomic.Int32
	mu   sync.Mutex
}

// Lock acquires m, spinning briefly before parking in the native mutex.
func (m *Mutex) Lock() {
	for i := 0; i < spinCount; i++ {
		if m.held.Load() == 0 && m.tryAcquire() {
			return
		}
		if i%yieldEvery == yieldEvery-1 {
			runtime.Gosched()
		}
	}
	m.mu.Lock()
	m.held.Store(1)
}

func (m *Mutex) tryAcquire() bool {
	if !m.mu.TryLock() {
		return false
	}
	m.held.Store(1)
	return true
}

// Unlock releases m.
func (m *Mutex) Unlock() {
	m.held.Store(0)
	m.mu.Unlock()
}
