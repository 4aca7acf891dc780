// Package mutate implements the byte-level mutation operators, the
// staged bit-walk state machine, and the strategy composer that
// stacks them into Deterministic, NonDeterministic, and BitWalk
// flavors.
package mutate

import "github.com/0xca7/grampus-go/rng"

// Operator mutates input into a new byte sequence, consuming
// randomness from prng. Operators never modify input in place.
type Operator func(prng *rng.Source, input []byte) []byte

// BitFlip flips a single randomly chosen bit in a randomly chosen
// byte.
func BitFlip(prng *rng.Source, input []byte) []byte {
	out := clone(input)
	if len(out) == 0 {
		return out
	}
	idx := prng.IntRange(0, len(out))
	bit := prng.IntRange(0, 8)
	out[idx] ^= 1 << uint(bit)
	return out
}

// XOR xors a randomly chosen byte with a uniformly random byte.
func XOR(prng *rng.Source, input []byte) []byte {
	out := clone(input)
	if len(out) == 0 {
		return out
	}
	idx := prng.IntRange(0, len(out))
	out[idx] ^= prng.Byte()
	return out
}

// Arithmetic adds a wrapping value in [1,256) to a randomly chosen
// byte.
func Arithmetic(prng *rng.Source, input []byte) []byte {
	out := clone(input)
	if len(out) == 0 {
		return out
	}
	idx := prng.IntRange(0, len(out))
	out[idx] += byte(prng.Range(1, 256))
	return out
}

// Insert inserts a uniformly random byte at a random position,
// lengthening the output by one.
func Insert(prng *rng.Source, input []byte) []byte {
	pos := 0
	if len(input) > 0 {
		pos = prng.IntRange(0, len(input))
	}
	out := make([]byte, 0, len(input)+1)
	out = append(out, input[:pos]...)
	out = append(out, prng.Byte())
	out = append(out, input[pos:]...)
	return out
}

// Remove deletes a randomly chosen byte, shortening the output by one.
// It is a no-op on an empty input.
func Remove(prng *rng.Source, input []byte) []byte {
	if len(input) == 0 {
		return clone(input)
	}
	idx := prng.IntRange(0, len(input))
	out := make([]byte, 0, len(input)-1)
	out = append(out, input[:idx]...)
	out = append(out, input[idx+1:]...)
	return out
}

// BitWalkOnce flips L randomly chosen bits (L uniform in [1,4]) in
// each byte of input, independently per byte. This is the stochastic
// whole-input operator, distinct from the staged BitWalk state machine
// in bitwalk.go, which walks one region of the input at a time across
// successive calls.
func BitWalkOnce(prng *rng.Source, input []byte) []byte {
	out := clone(input)
	l := prng.IntRange(1, 5)
	for i := range out {
		for j := 0; j < l; j++ {
			bit := prng.IntRange(0, 8)
			out[i] ^= 1 << uint(bit)
		}
	}
	return out
}

func clone(input []byte) []byte {
	out := make([]byte, len(input))
	copy(out, input)
	return out
}
