//go:build !linux

package childpoll

import "syscall"

// pollAnyChild is unsupported outside Linux. ENOSYS follows the error
// contract: a failed query reads as "no waitable children".
func pollAnyChild() Result {
	return Result{Kind: KindNoChildren, Err: syscall.ENOSYS}
}

func pollExitedChild() Result {
	return Result{Kind: KindNoChildren, Err: syscall.ENOSYS}
}
