package schedule

import "testing"

func TestSchedulerStartsDeterministic(t *testing.T) {
	s := New(3)
	if s.Regime() != Deterministic {
		t.Fatalf("initial regime = %v, want Deterministic", s.Regime())
	}
}

func TestSchedulerAdvancesAfterMaxIterations(t *testing.T) {
	s := New(2)
	for i := 0; i < 2; i++ {
		changed, regime := s.Next()
		if changed {
			t.Fatalf("call %d: unexpected regime change", i)
		}
		if regime != Deterministic {
			t.Fatalf("call %d: regime = %v, want Deterministic", i, regime)
		}
	}
	changed, regime := s.Next()
	if !changed {
		t.Fatalf("expected a regime change on the (maxIterations+1)th call")
	}
	if regime != NonDeterministic {
		t.Fatalf("regime = %v, want NonDeterministic", regime)
	}
}

// Each regime runs for maxIPS iteration calls plus the call that
// advances past it, so a full traversal of the four regimes back to
// the starting one takes 4*(maxIPS+1) calls.
func TestSchedulerFullCycleReturnsToStart(t *testing.T) {
	const maxIPS = 5
	s := New(maxIPS)
	start := s.Regime()

	var regimesSeen []Regime
	for i := 0; i < 4*(maxIPS+1); i++ {
		changed, regime := s.Next()
		if changed {
			regimesSeen = append(regimesSeen, regime)
		}
	}

	if len(regimesSeen) != 4 {
		t.Fatalf("expected 4 regime changes, got %d: %v", len(regimesSeen), regimesSeen)
	}
	want := []Regime{NonDeterministic, BitWalk, Regenerate, Deterministic}
	for i, r := range want {
		if regimesSeen[i] != r {
			t.Fatalf("regime change %d = %v, want %v", i, regimesSeen[i], r)
		}
	}
	if s.Regime() != start {
		t.Fatalf("after a full cycle, regime = %v, want starting regime %v", s.Regime(), start)
	}
}

func TestRegimeOrderIsFixed(t *testing.T) {
	cases := []struct {
		from, want Regime
	}{
		{Deterministic, NonDeterministic},
		{NonDeterministic, BitWalk},
		{BitWalk, Regenerate},
		{Regenerate, Deterministic},
	}
	for _, c := range cases {
		if got := next(c.from); got != c.want {
			t.Fatalf("next(%v) = %v, want %v", c.from, got, c.want)
		}
	}
}
