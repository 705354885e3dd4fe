package childpoll

import "testing"

func TestSentinelMapping(t *testing.T) {
	cases := []struct {
		res  Result
		want int
	}{
		{Result{Kind: KindNoChildren}, -1},
		{Result{Kind: KindNonePending}, 0},
		{Result{Kind: KindPending, Pid: 4242}, 4242},
	}
	for _, c := range cases {
		if got := c.res.Sentinel(); got != c.want {
			t.Errorf("Sentinel(%s) = %d, want %d", c.res.Kind, got, c.want)
		}
	}
}

func TestKindString(t *testing.T) {
	if KindNoChildren.String() != "no_children" ||
		KindNonePending.String() != "none_pending" ||
		KindPending.String() != "pending" {
		t.Error("kind strings changed; metric labels depend on them")
	}
	if Kind(99).String() != "unknown" {
		t.Error("out-of-range kind should stringify as unknown")
	}
}
