package mutate

import "github.com/0xca7/grampus-go/rng"

// Flavor selects which operator list a Mutator draws from.
type Flavor int

const (
	Deterministic Flavor = iota
	NonDeterministic
	BitWalkFlavor
)

func (f Flavor) String() string {
	switch f {
	case NonDeterministic:
		return "non-deterministic"
	case BitWalkFlavor:
		return "bit-walk"
	default:
		return "deterministic"
	}
}

var operatorLists = map[Flavor][]Operator{
	Deterministic:    {BitFlip, XOR, Arithmetic},
	NonDeterministic: {BitFlip, XOR, Arithmetic, Insert, Remove},
	BitWalkFlavor:    nil, // handled specially: walk, insert, remove (see Mutate)
}

// Mutator composes operators into a strategy stack: Mutate draws a
// stack depth n in [0, M) and applies n randomly chosen operators from
// its flavor's list in sequence, stopping early if the sequence
// shrinks to length 1.
type Mutator struct {
	flavor   Flavor
	maxDepth int
	bitwalk  *BitWalk
}

// New constructs a Mutator of the given flavor with maximum stack
// depth maxDepth.
func New(flavor Flavor, maxDepth int) *Mutator {
	m := &Mutator{flavor: flavor, maxDepth: maxDepth}
	if flavor == BitWalkFlavor {
		m.bitwalk = NewBitWalk()
	}
	return m
}

// Flavor reports the mutator's flavor.
func (m *Mutator) Flavor() Flavor {
	return m.flavor
}

// Mutate applies the mutator's strategy to input, returning a new
// byte sequence. input is never modified.
func (m *Mutator) Mutate(prng *rng.Source, input []byte) []byte {
	if m.flavor == BitWalkFlavor {
		return m.mutateBitWalk(prng, input)
	}

	ops := operatorLists[m.flavor]
	out := clone(input)
	if m.maxDepth <= 0 {
		return out
	}
	n := prng.IntRange(0, m.maxDepth)
	for i := 0; i < n; i++ {
		if len(out) <= 1 {
			break
		}
		op := ops[prng.IntRange(0, len(ops))]
		out = op(prng, out)
	}
	return out
}

// mutateBitWalk stacks the bit-walk slot together with Insert/Remove.
// The slot is served by the staged BitWalk machine while it has steps
// to offer; when it returns a skip (Done, or parked on an input
// shorter than its block stages need) the walk is reset and the step
// falls back to the stochastic whole-input BitWalkOnce, so the slot
// always mutates and the flavor keeps making forward progress across
// calls with varying input lengths.
func (m *Mutator) mutateBitWalk(prng *rng.Source, input []byte) []byte {
	out := clone(input)
	if m.maxDepth <= 0 {
		return out
	}
	n := prng.IntRange(0, m.maxDepth)
	for i := 0; i < n; i++ {
		if len(out) <= 1 {
			break
		}
		switch prng.IntRange(0, 3) {
		case 0:
			mutated, ok := m.bitwalk.Walk(prng, out)
			if !ok {
				m.bitwalk.Reset()
				out = BitWalkOnce(prng, out)
				continue
			}
			out = mutated
		case 1:
			out = Insert(prng, out)
		default:
			out = Remove(prng, out)
		}
	}
	return out
}
