//go:build linux

package checks

import (
	"context"
	"testing"
	"time"
)

func TestChildWaitCheckRoundtrip(t *testing.T) {
	c := NewChildWaitCheck()
	if c.Name() != "childwait" {
		t.Errorf("unexpected name %q", c.Name())
	}
	if err := c.Run(context.Background()); err != nil {
		t.Errorf("roundtrip check failed: %v", err)
	}
}

func TestChildWaitCheckCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := &ChildWaitCheck{timeout: time.Second}
	if err := c.Run(ctx); err == nil {
		t.Error("expected error from cancelled context")
	}
}
