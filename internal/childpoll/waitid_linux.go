//go:build linux

package childpoll

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// siginfo mirrors the kernel siginfo_t far enough to reach the si_pid,
// si_uid and si_status union members. The union payload starts
// pointer-aligned after the three leading ints, hence the pad. The trailing
// pad keeps the struct at least the 128 bytes the kernel writes.
type siginfo struct {
	Signo  int32
	Errno  int32
	Code   int32
	_      [unsafe.Sizeof(uintptr(0)) - 4]byte
	Pid    int32
	UID    int32
	Status int32
	_      [104]byte
}

// pollAnyChild reports exit, stop and continue events.
func pollAnyChild() Result {
	return pollChildren(unix.WEXITED | unix.WSTOPPED | unix.WCONTINUED)
}

// pollExitedChild reports exit events only.
func pollExitedChild() Result {
	return pollChildren(unix.WEXITED)
}

// pollChildren issues waitid(P_ALL, 0, ..., events|WNOHANG|WNOWAIT).
// WNOHANG makes it return immediately, WNOWAIT leaves the child's status in
// the process table for a real wait call to consume later.
func pollChildren(events int) Result {
	var si siginfo
	flags := events | unix.WNOHANG | unix.WNOWAIT
	for {
		_, _, errno := unix.Syscall6(unix.SYS_WAITID,
			unix.P_ALL, 0,
			uintptr(unsafe.Pointer(&si)),
			uintptr(flags), 0, 0)
		if errno == unix.EINTR {
			continue
		}
		if errno != 0 {
			// Commonly ECHILD: the process has no children at all.
			// Folded into the result rather than escalated.
			return Result{Kind: KindNoChildren, Err: errno}
		}
		break
	}
	if si.Pid == 0 {
		return Result{Kind: KindNonePending}
	}
	return Result{Kind: KindPending, Pid: int(si.Pid)}
}
