// Package protect write-protects committed page ranges so a concurrent
// reclaimer can inspect memory while mutator threads are held at a
// safepoint.
//
// Two strategies sit behind one contract, picked by runtime capability:
//
//   - Eager (Linux with userfaultfd write-protect): ProtectRange makes a
//     range read-only at the page-table level; the first write to a
//     protected page suspends the writing thread, the registered safepoint
//     callback runs, and only then is the write allowed to proceed.
//   - Lazy (everywhere else, and when userfaultfd is unavailable): no fault
//     forwarding exists, Protect/Unprotect are no-ops, and the reclaimer
//     must use a cooperative algorithm instead. Mode reports which strategy
//     is live so the reclaimer can choose.
//
// Failure to initialize the fault channel (old kernel, seccomp) is not an
// error: the package degrades to lazy silently.
package protect
