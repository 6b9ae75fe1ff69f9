//go:build linux

package protect

import (
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/poolkit/poolkit/internal/pagealloc"
)

// userfaultfd ABI. x/sys carries the syscall number but not the ioctl
// surface, so the request codes and argument structs are spelled out here;
// they are fixed kernel ABI.
const (
	uffdAPIVersion = 0xAA

	// _IOWR('\xaa', nr, size) request codes.
	uffdioAPI             = 0xc018aa3f // struct uffdio_api, 24 bytes
	uffdioRegisterReq     = 0xc020aa00 // struct uffdio_register, 32 bytes
	uffdioUnregisterReq   = 0x8010aa01 // struct uffdio_range, 16 bytes
	uffdioWriteprotectReq = 0xc018aa06 // struct uffdio_writeprotect, 24 bytes

	uffdFeatureWP = 1 << 0 // UFFD_FEATURE_PAGEFAULT_FLAG_WP

	uffdioRegisterModeWP = 1 << 1 // UFFDIO_REGISTER_MODE_WP

	uffdioWriteprotectModeWP = 1 << 0 // UFFDIO_WRITEPROTECT_MODE_WP

	uffdEventPagefault = 0x12

	uffdPagefaultFlagWP = 1 << 1 // UFFD_PAGEFAULT_FLAG_WP
)

type uffdioRange struct {
	start uint64
	len   uint64
}

type uffdioAPIArg struct {
	api      uint64
	features uint64
	ioctls   uint64
}

type uffdioRegisterArg struct {
	rng    uffdioRange
	mode   uint64
	ioctls uint64
}

type uffdioWriteprotectArg struct {
	rng  uffdioRange
	mode uint64
}

// uffdMsg mirrors struct uffd_msg: one byte of event, padding, then a
// 24-byte event-specific payload. Only the pagefault payload is read.
type uffdMsg struct {
	event   uint8
	_       uint8
	_       uint16
	_       uint32
	flags   uint64
	address uint64
	_       uint64
}

// uffdProtector is the eager strategy: protected pages trap their writers
// in the kernel until the fault-reading goroutine has run the safepoint
// callback and cleared the page's write-protect bit.
type uffdProtector struct {
	fd      int
	onFault func(addr uintptr)

	mu   sync.Mutex // serializes register/unregister against Close
	done chan struct{}
}

// newPlatformProtector opens and hand-shakes a userfaultfd with
// write-protect support, returning nil (degrade to lazy) if any step is
// refused.
func newPlatformProtector(onFault func(addr uintptr)) Protector {
	fd, _, errno := unix.Syscall(unix.SYS_USERFAULTFD, unix.O_CLOEXEC, 0, 0)
	if errno != 0 {
		return nil
	}
	api := uffdioAPIArg{api: uffdAPIVersion, features: uffdFeatureWP}
	if err := ioctlPtr(int(fd), uffdioAPI, unsafe.Pointer(&api)); err != nil {
		unix.Close(int(fd))
		return nil
	}
	if api.features&uffdFeatureWP == 0 {
		unix.Close(int(fd))
		return nil
	}

	p := &uffdProtector{
		fd:      int(fd),
		onFault: onFault,
		done:    make(chan struct{}),
	}
	// One reader for the life of the process (or until Close); it parks in
	// read(2) between faults.
	go p.readFaults()
	return p
}

func (p *uffdProtector) Mode() Mode { return ModeEager }

// ProtectRange registers the range for write-protect faults and arms the
// write-protect bit on its page-table entries.
func (p *uffdProtector) ProtectRange(addr, length uintptr) {
	p.mu.Lock()
	defer p.mu.Unlock()

	reg := uffdioRegisterArg{
		rng:  uffdioRange{start: uint64(addr), len: uint64(length)},
		mode: uffdioRegisterModeWP,
	}
	if err := ioctlPtr(p.fd, uffdioRegisterReq, unsafe.Pointer(&reg)); err != nil {
		return // range not eligible (not committed anon memory); leave unprotected
	}
	wp := uffdioWriteprotectArg{
		rng:  uffdioRange{start: uint64(addr), len: uint64(length)},
		mode: uffdioWriteprotectModeWP,
	}
	_ = ioctlPtr(p.fd, uffdioWriteprotectReq, unsafe.Pointer(&wp))
}

// UnprotectRange disarms the write-protect bit and unregisters the range.
func (p *uffdProtector) UnprotectRange(addr, length uintptr) {
	p.mu.Lock()
	defer p.mu.Unlock()

	wp := uffdioWriteprotectArg{
		rng: uffdioRange{start: uint64(addr), len: uint64(length)},
	}
	_ = ioctlPtr(p.fd, uffdioWriteprotectReq, unsafe.Pointer(&wp))

	rng := uffdioRange{start: uint64(addr), len: uint64(length)}
	_ = ioctlPtr(p.fd, uffdioUnregisterReq, unsafe.Pointer(&rng))
}

// Close shuts the fault channel down; the reader goroutine exits on the
// closed fd.
func (p *uffdProtector) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	select {
	case <-p.done:
		return
	default:
	}
	close(p.done)
	unix.Close(p.fd)
}

// readFaults is the fault-handling loop: it blocks in read(2) until a
// protected page takes a write, runs the safepoint callback for the page,
// then clears that page's write-protect bit, releasing the trapped writer.
func (p *uffdProtector) readFaults() {
	buf := make([]byte, 16*unsafe.Sizeof(uffdMsg{}))
	for {
		n, err := unix.Read(p.fd, buf)
		if err == unix.EINTR {
			continue
		}
		if n <= 0 {
			return // fd closed
		}
		msgSize := int(unsafe.Sizeof(uffdMsg{}))
		for off := 0; off+msgSize <= n; off += msgSize {
			msg := (*uffdMsg)(unsafe.Pointer(&buf[off]))
			if msg.event != uffdEventPagefault || msg.flags&uffdPagefaultFlagWP == 0 {
				continue
			}
			page := uintptr(msg.address) &^ (pagealloc.PageSize() - 1)
			if p.onFault != nil {
				p.onFault(page)
			}
			// Clearing WP on the page both permits the write and wakes the
			// trapped thread.
			wp := uffdioWriteprotectArg{
				rng: uffdioRange{start: uint64(page), len: uint64(pagealloc.PageSize())},
			}
			_ = ioctlPtr(p.fd, uffdioWriteprotectReq, unsafe.Pointer(&wp))
		}
	}
}

func ioctlPtr(fd int, req uintptr, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), req, uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}
