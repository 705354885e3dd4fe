//go:build linux

package childpoll

import (
	"errors"
	"os/exec"
	"syscall"
	"testing"
	"time"
)

// pollUntilPending polls until a pending child shows up, failing the test
// if none appears before the deadline.
func pollUntilPending(t *testing.T, deadline time.Duration) Result {
	t.Helper()
	stop := time.Now().Add(deadline)
	for time.Now().Before(stop) {
		if res := Poll(); res.Kind == KindPending {
			return res
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("timeout waiting for a pending child")
	return Result{}
}

func TestPollNoChildren(t *testing.T) {
	res := Poll()
	if res.Kind != KindNoChildren {
		t.Fatalf("expected no_children, got %s (pid %d)", res.Kind, res.Pid)
	}
	if res.Sentinel() != -1 {
		t.Errorf("expected sentinel -1, got %d", res.Sentinel())
	}
	if !errors.Is(res.Err, syscall.ECHILD) {
		t.Errorf("expected ECHILD, got %v", res.Err)
	}
}

func TestPollRunningChild(t *testing.T) {
	cmd := exec.Command("sleep", "30")
	if err := cmd.Start(); err != nil {
		t.Fatalf("failed to start child: %v", err)
	}
	defer func() {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
	}()

	// A live child has no pending event yet; repeated polls agree.
	for i := 0; i < 3; i++ {
		res := Poll()
		if res.Kind != KindNonePending {
			t.Fatalf("poll %d: expected none_pending, got %s (pid %d)", i, res.Kind, res.Pid)
		}
		if res.Sentinel() != 0 {
			t.Errorf("poll %d: expected sentinel 0, got %d", i, res.Sentinel())
		}
	}
}

func TestPollPendingChildIsNotConsumed(t *testing.T) {
	cmd := exec.Command("true")
	if err := cmd.Start(); err != nil {
		t.Fatalf("failed to start child: %v", err)
	}

	res := pollUntilPending(t, 3*time.Second)
	if res.Pid != cmd.Process.Pid {
		t.Fatalf("expected pending pid %d, got %d", cmd.Process.Pid, res.Pid)
	}

	// The poll must not consume the event: the same child stays pending
	// until an actual wait reaps it.
	for i := 0; i < 5; i++ {
		again := Poll()
		if again.Kind != KindPending || again.Pid != res.Pid {
			t.Fatalf("repeat poll %d: expected pending pid %d, got %s (pid %d)",
				i, res.Pid, again.Kind, again.Pid)
		}
	}

	// The zombie entry still counts as an existing process.
	if ok, err := Verify(res.Pid); err != nil || !ok {
		t.Errorf("Verify(%d) = %v, %v; want true", res.Pid, ok, err)
	}

	// Reap with a standard wait; the entry is gone afterwards.
	if err := cmd.Wait(); err != nil {
		t.Fatalf("wait failed: %v", err)
	}
	if after := Poll(); after.Kind != KindNoChildren {
		t.Errorf("after reap: expected no_children, got %s (pid %d)", after.Kind, after.Pid)
	}
}

func TestPollExitedIgnoresStoppedChild(t *testing.T) {
	cmd := exec.Command("sleep", "30")
	if err := cmd.Start(); err != nil {
		t.Fatalf("failed to start child: %v", err)
	}
	defer func() {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
	}()

	if err := cmd.Process.Signal(syscall.SIGSTOP); err != nil {
		t.Fatalf("failed to stop child: %v", err)
	}

	// The wide poll reports the stop event once it lands.
	res := pollUntilPending(t, 3*time.Second)
	if res.Pid != cmd.Process.Pid {
		t.Fatalf("expected stopped pid %d pending, got %d", cmd.Process.Pid, res.Pid)
	}

	// The exit-only poll must look straight past it.
	if got := PollExited(); got.Kind != KindNonePending {
		t.Fatalf("expected none_pending from exit-only poll, got %s (pid %d)", got.Kind, got.Pid)
	}
}

func TestPollAfterReapWithRemainingChildren(t *testing.T) {
	long := exec.Command("sleep", "30")
	if err := long.Start(); err != nil {
		t.Fatalf("failed to start long-lived child: %v", err)
	}
	defer func() {
		_ = long.Process.Kill()
		_ = long.Wait()
	}()

	short := exec.Command("true")
	if err := short.Start(); err != nil {
		t.Fatalf("failed to start short-lived child: %v", err)
	}

	res := pollUntilPending(t, 3*time.Second)
	if res.Pid != short.Process.Pid {
		t.Fatalf("expected pending pid %d, got %d", short.Process.Pid, res.Pid)
	}

	if err := short.Wait(); err != nil {
		t.Fatalf("wait failed: %v", err)
	}

	// Other children remain, so the result falls back to the zero
	// sentinel rather than "no children".
	after := Poll()
	if after.Kind != KindNonePending {
		t.Fatalf("expected none_pending, got %s (pid %d)", after.Kind, after.Pid)
	}
	if after.Sentinel() != 0 {
		t.Errorf("expected sentinel 0, got %d", after.Sentinel())
	}
}
