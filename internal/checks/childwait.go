package checks

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/ykarpov/procnode/internal/childpoll"
)

const defaultChildWaitTimeout = 3 * time.Second

// ChildWaitCheck exercises the non-destructive poll end to end: spawn a
// child that exits immediately, see it turn up pending without consuming
// its status, reap it with a real wait, and confirm the entry is gone.
type ChildWaitCheck struct {
	timeout time.Duration
}

// NewChildWaitCheck builds the check with the default timeout.
func NewChildWaitCheck() *ChildWaitCheck {
	return &ChildWaitCheck{timeout: defaultChildWaitTimeout}
}

// Name implements Check.
func (c *ChildWaitCheck) Name() string { return "childwait" }

// Run implements Check.
func (c *ChildWaitCheck) Run(ctx context.Context) error {
	cmd := exec.Command("true")
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("spawn child: %w", err)
	}
	pid := cmd.Process.Pid

	// Other children of this process (probes, exec'd helpers) may also be
	// pending, so keep polling until our child shows up.
	stop := time.Now().Add(c.timeout)
	for {
		if err := ctx.Err(); err != nil {
			_ = cmd.Wait()
			return err
		}
		if time.Now().After(stop) {
			_ = cmd.Wait()
			return fmt.Errorf("child %d never became waitable within %s", pid, c.timeout)
		}
		res := childpoll.Poll()
		if res.Kind == childpoll.KindPending && res.Pid == pid {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	// A second poll must report the same child: the first poll must not
	// have consumed the wait status.
	again := childpoll.Poll()
	if again.Kind != childpoll.KindPending {
		_ = cmd.Wait()
		return fmt.Errorf("pending status consumed by poll: second poll returned %s", again.Kind)
	}

	// The zombie entry still registers as an existing process.
	if ok, err := childpoll.Verify(pid); err != nil {
		_ = cmd.Wait()
		return fmt.Errorf("verify pid %d: %w", pid, err)
	} else if !ok {
		_ = cmd.Wait()
		return fmt.Errorf("pid %d vanished while pending", pid)
	}

	// Destructive reap; the status must be consumable exactly once.
	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("wait on child %d: %w", pid, err)
	}

	if post := childpoll.Poll(); post.Kind == childpoll.KindPending && post.Pid == pid {
		return fmt.Errorf("pid %d still pending after reap", pid)
	}
	return nil
}
