//go:build !linux

package protect

// No fault-forwarding mechanism off Linux; New falls through to the lazy
// no-op protector.
func newPlatformProtector(onFault func(addr uintptr)) Protector { return nil }
