package protect

// Mode reports which protection strategy a Protector runs.
type Mode int

const (
	// ModeLazy means no fault forwarding is available: Protect/Unprotect
	// are no-ops and the reclaimer must cooperate with mutators instead of
	// trapping them.
	ModeLazy Mode = iota
	// ModeEager means writes to protected pages suspend the writer until
	// the safepoint callback has run.
	ModeEager
)

func (m Mode) String() string {
	if m == ModeEager {
		return "eager"
	}
	return "lazy"
}

// Protector write-protects committed ranges. Implementations are safe for
// concurrent use.
type Protector interface {
	// Mode reports the live strategy.
	Mode() Mode
	// ProtectRange makes the committed range [addr, addr+length) read-only.
	// Page-aligned addr and length. No-op in lazy mode.
	ProtectRange(addr, length uintptr)
	// UnprotectRange undoes ProtectRange. No-op in lazy mode.
	UnprotectRange(addr, length uintptr)
	// Close stops the fault-handling channel. The background thread exits;
	// protected ranges must have been unprotected first.
	Close()
}

// New returns the best Protector the platform supports. onFault is the
// safepoint callback, invoked with the faulting page address from the
// fault-handling thread before a blocked write is released; it must not
// touch the faulting page's protection itself. onFault is unused in lazy
// mode.
func New(onFault func(addr uintptr)) Protector {
	if p := newPlatformProtector(onFault); p != nil {
		return p
	}
	return noopProtector{}
}

// noopProtector is the lazy strategy: nothing is protected, nothing faults.
type noopProtector struct{}

func (noopProtector) Mode() Mode                          { return ModeLazy }
func (noopProtector) ProtectRange(addr, length uintptr)   {}
func (noopProtector) UnprotectRange(addr, length uintptr) {}
func (noopProtector) Close()                              {}
