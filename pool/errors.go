package pool

import "errors"

var (
	// ErrKindInUse indicates a pool is already registered for the kind.
	ErrKindInUse = errors.New("pool: kind already has a pool")

	// ErrBadKind indicates a kind outside the known set.
	ErrBadKind = errors.New("pool: unknown kind")

	// ErrNoPool indicates no pool is registered for the kind.
	ErrNoPool = errors.New("pool: no pool for kind")

	// ErrNoAddressSpace indicates the initial inaccessible reservation for a
	// pool could not be obtained from the OS.
	ErrNoAddressSpace = errors.New("pool: cannot reserve address space")
)
