package pagealloc

import "fmt"

// fatalf reports an unrecoverable allocator-bookkeeping failure. The
// operations that reach it (unmap, reprotect of memory we mapped ourselves)
// cannot fail in a correct program, so a failure means our view of the
// address space has drifted from the OS's and nothing downstream can be
// trusted. It never returns.
func fatalf(format string, args ...any) {
	panic(fmt.Sprintf("pagealloc: "+format, args...))
}

// fatalOOM is the distinguished out-of-memory variant of fatalf, raised when
// the OS refuses a commit/reprotect because of a commit-charge or mapping
// limit rather than a programming error. Kept separate so crash reports can
// tell "out of memory" from "corrupt bookkeeping".
func fatalOOM(op string, err error) {
	panic(fmt.Sprintf("pagealloc: out of commit charge: %s: %v", op, err))
}
