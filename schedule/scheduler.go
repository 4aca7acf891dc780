// Package schedule implements the per-worker regime scheduler: a
// fixed cycle of mutation regimes, advanced on every
// (max-iterations-per-cycle + 1)th call to Next.
package schedule

// Regime is one of the scheduler's four states.
type Regime int

const (
	Deterministic Regime = iota
	NonDeterministic
	BitWalk
	Regenerate
)

func (r Regime) String() string {
	switch r {
	case Deterministic:
		return "deterministic"
	case NonDeterministic:
		return "non-deterministic"
	case BitWalk:
		return "bit-walk"
	default:
		return "regenerate"
	}
}

var order = [...]Regime{Deterministic, NonDeterministic, BitWalk, Regenerate}

func next(r Regime) Regime {
	for i, cur := range order {
		if cur == r {
			return order[(i+1)%len(order)]
		}
	}
	return Deterministic
}

// Scheduler cycles through Deterministic -> NonDeterministic ->
// BitWalk -> Regenerate -> Deterministic -> ... Each regime is kept
// for maxIterations calls to Next that increment the counter; the
// call after them advances the scheduler.
type Scheduler struct {
	regime         Regime
	maxIterations  int
	iterationCount int
}

// New constructs a Scheduler starting in Deterministic with a zero
// iteration counter.
func New(maxIterations int) *Scheduler {
	return &Scheduler{regime: Deterministic, maxIterations: maxIterations}
}

// Regime reports the scheduler's current regime without advancing it.
func (s *Scheduler) Regime() Regime {
	return s.regime
}

// Next reports whether the regime changed on this call, and the
// regime to use now. It advances once iterationCount reaches
// maxIterations, resetting the counter; otherwise it just increments
// the counter.
func (s *Scheduler) Next() (changed bool, regime Regime) {
	if s.iterationCount == s.maxIterations {
		s.regime = next(s.regime)
		s.iterationCount = 0
		return true, s.regime
	}
	s.iterationCount++
	return false, s.regime
}
