package mutate

import "github.com/0xca7/grampus-go/rng"

// Stage is one state of the seven-state bit-walk cycle.
type Stage int

const (
	Stage1x1 Stage = iota
	Stage2x1
	Stage4x1
	Stage8x8
	Stage16x8
	Stage32x8
	StageDone
)

func (s Stage) String() string {
	switch s {
	case Stage1x1:
		return "1/1"
	case Stage2x1:
		return "2/1"
	case Stage4x1:
		return "4/1"
	case Stage8x8:
		return "8/8"
	case Stage16x8:
		return "16/8"
	case Stage32x8:
		return "32/8"
	default:
		return "done"
	}
}

// BitWalk is the staged deterministic bit-flip cycle. Stage1x1/2x1/4x1
// flip 1/2/4 random bits in the byte at the cursor, advancing the
// cursor by one each call. Stage8x8/16x8/32x8 flip 8/16/32 bits at
// positions derived from the cursor, requiring len(input) >= 8, and
// advance the cursor by eight each call. Once the cursor reaches
// len(input) the stage advances and the cursor resets to zero; after
// Stage32x8 the walk reaches StageDone and every further call returns
// false ("skip") until Reset.
type BitWalk struct {
	stage  Stage
	cursor int
}

// NewBitWalk constructs a walk positioned at its first stage.
func NewBitWalk() *BitWalk {
	return &BitWalk{stage: Stage1x1}
}

// Reset returns the walk to Stage1x1 at cursor zero, leaving it
// observationally identical to a freshly constructed BitWalk.
func (w *BitWalk) Reset() {
	w.stage = Stage1x1
	w.cursor = 0
}

// Stage reports the walk's current stage.
func (w *BitWalk) Stage() Stage {
	return w.stage
}

// Walk applies the current stage's mutation to input and advances the
// cursor/stage. It returns (nil, false) when the current stage has no
// mutation to offer this call: the walk is Done, a 1/1, 2/1, or 4/1
// stage gets an empty input, or an 8/8, 16/8, or 32/8 stage needs
// len(input) >= 8 and input is shorter.
func (w *BitWalk) Walk(prng *rng.Source, input []byte) ([]byte, bool) {
	switch w.stage {
	case Stage1x1, Stage2x1, Stage4x1:
		if len(input) == 0 {
			return nil, false
		}
		if w.cursor >= len(input) {
			// input is shorter than the one the cursor advanced over:
			// the cursor is past its end, so the stage is finished.
			w.advance(len(input))
			return w.Walk(prng, input)
		}
		out := clone(input)
		bits := 1
		switch w.stage {
		case Stage2x1:
			bits = 2
		case Stage4x1:
			bits = 4
		}
		for i := 0; i < bits; i++ {
			bit := prng.IntRange(0, 8)
			out[w.cursor] ^= 1 << uint(bit)
		}
		w.cursor++
		w.advance(len(input))
		return out, true

	case Stage8x8, Stage16x8, Stage32x8:
		// No advance on a too-short input: the walk stays parked at
		// this stage/cursor. The caller resets the walk rather than
		// spinning here forever (mutator.go).
		if len(input) < 8 {
			return nil, false
		}
		out := clone(input)
		flips := 8
		switch w.stage {
		case Stage16x8:
			flips = 16
		case Stage32x8:
			flips = 32
		}
		for i := 0; i < flips; i++ {
			// all three block stages use the same cursor-offset,
			// wrapped byte index
			r := prng.IntRange(0, 64)
			idx := (w.cursor + r/8) % len(input)
			bit := r % 8
			out[idx] ^= 1 << uint(bit)
		}
		w.cursor += 8
		w.advance(len(input))
		return out, true

	default: // StageDone
		return nil, false
	}
}

// advance moves the cursor to the next stage once it has walked past
// the end of the input.
func (w *BitWalk) advance(inputLen int) {
	switch w.stage {
	case Stage1x1, Stage2x1, Stage4x1:
		if w.cursor >= inputLen {
			w.cursor = 0
			w.stage++
		}
	case Stage8x8, Stage16x8, Stage32x8:
		if w.cursor >= inputLen {
			w.cursor = 0
			w.stage++
		}
	}
}
