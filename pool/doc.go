// Package pool manages the reserved virtual address ranges a heap allocator
// carves its memory out of.
//
// # Overview
//
// A process reserves a small number of very large, contiguous, inaccessible
// address ranges up front - one per membership kind - and this package hands
// out super-page-aligned chunks of them on demand:
//
//   - Reserve(kind, requested, length): find a free super-page-aligned run
//   - UnreserveAndDecommit(kind, addr, length): return a run and drop its pages
//   - IsManagedByKind(kind, addr): O(1) lock-free membership test
//
// # Pools
//
// A pool is {kind, base, length}: a super-page-aligned range reserved once
// (inaccessible) and never grown. Typical processes run exactly two:
//
//	KindNormal    bucketed allocations, super-page membership granularity
//	KindDirectMap oversized allocations, 16 KiB membership granularity
//
// plus an optional KindTagged pool on memory-tagging targets. Pools are
// registered on a Manager, which the rest of the allocator receives
// explicitly; Default() provides the usual one-per-process instance.
//
// # Reservation tracking
//
// Each pool tracks occupancy in a run map of one bit per super page,
// searched first-fit in address order. First-fit keeps the search
// deterministic and cheap; adjacent free runs need no explicit coalescing
// because a run of clear bits is a run of clear bits. Reserve never blocks,
// never grows the pool and never returns a partial or non-contiguous range:
// a request larger than every free run fails even when the free total would
// cover it.
//
// # Membership bitmap
//
// Alongside the run map, each pool maintains a membership bitmap read
// without the lock by IsManagedByKind. Writes happen under the pool lock;
// reads are atomic loads of the packed words. A reader racing a writer can
// observe the instant of a reservation flip - callers use this predicate for
// classification and diagnostics, never for correctness-critical control
// flow. A guard run of always-zero bits borders both ends of the bitmap so
// scans stepping outward from a valid address cannot index out of range.
//
// # Locking
//
// One spinning lock per pool guards the run map, the bitmap words and the
// stats. The lock is never held across a page-table syscall: decommit runs
// before the run is marked free, so no other thread can have re-reserved the
// range being decommitted.
//
// # Failure semantics
//
// Reserve returning 0 is the only recoverable failure; the caller falls back
// to another pool or to a direct OS mapping. Misuse that would corrupt the
// accounting - registering an oversized or misaligned pool, unreserving a
// range the pool does not contain - panics immediately.
package pool
