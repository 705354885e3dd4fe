package childpoll

import "github.com/shirou/gopsutil/v3/process"

// Verify re-checks that a pid reported as pending still exists. A poll
// result is only a snapshot: another thread may reap the child between the
// poll and the caller acting on it. Zombies count as existing, so a pending
// child that has merely exited (but not been reaped) still verifies.
func Verify(pid int) (bool, error) {
	return process.PidExists(int32(pid))
}
