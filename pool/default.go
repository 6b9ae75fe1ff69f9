package pool

import "sync"

var (
	defaultMu  sync.Mutex
	defaultMgr *Manager
)

// Default returns the process-wide Manager, creating it - with a KindNormal
// and a KindDirectMap pool of DefaultPoolSize each - on first use. Prefer
// constructing a Manager explicitly where you can inject one; Default exists
// for the allocator-singleton arrangement where every caller in the process
// must agree on the same pools.
func Default() *Manager {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultMgr != nil {
		return defaultMgr
	}
	m := NewManager()
	for _, kind := range []Kind{KindNormal, KindDirectMap} {
		base, length, err := ReserveAddressSpace(DefaultPoolSize)
		if err != nil {
			panic("pool: cannot reserve default pools: " + err.Error())
		}
		if _, err := m.CreatePool(kind, base, length); err != nil {
			panic("pool: cannot register default pool: " + err.Error())
		}
	}
	defaultMgr = m
	return m
}

// ResetForTesting tears down the default Manager and frees its address
// ranges, so the next Default() starts from scratch. Test use only;
// outstanding reservations must have been unreserved.
func ResetForTesting() {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultMgr == nil {
		return
	}
	for kind := range numKinds {
		if p := defaultMgr.Pool(kind); p != nil {
			FreeReservedAddressSpace(p.base, p.length)
		}
	}
	defaultMgr.ResetForTesting()
	defaultMgr = nil
}
