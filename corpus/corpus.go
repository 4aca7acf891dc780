// Package corpus derives a forest of unique sentences from a grammar
// under a bounded-expansion policy and hands out random members of
// that forest as raw fuzz-case bytes.
package corpus

import (
	"fmt"

	"github.com/0xca7/grampus-go/grammar"
	"github.com/0xca7/grampus-go/rng"
	"github.com/0xca7/grampus-go/syntaxtree"
)

// Corpus is a forest of derivation trees plus their rendered
// sentences, generated from a shared, read-only Grammar. A Corpus is
// owned by a single goroutine; concurrent fuzzer workers each hold
// their own Corpus sharing the same *grammar.Grammar pointer.
type Corpus struct {
	grammar      *grammar.Grammar
	startSymbol  string
	maxExpansion int
	forestSize   int
	prng         *rng.Source
	forest       []*syntaxtree.Node
	inputs       []string

	// minCost is nil for the default over-budget policy (shortest
	// alternative by immediate right-hand-side length, first-seen
	// tie-break, uniformly random when all alternatives have the same
	// length). When non-nil, it is grammar.MinDerivableLength(g),
	// and derive uses it for the minimum-derivable-length policy
	// instead (NewMinCost).
	minCost map[string]int
}

// New constructs a Corpus using the default expansion policy. seed
// must be non-zero (rng.New's contract); forestSize and maxExpansion
// must be positive.
func New(g *grammar.Grammar, startSymbol string, maxExpansion, forestSize int, seed uint64) (*Corpus, error) {
	return newCorpus(g, startSymbol, maxExpansion, forestSize, seed, nil)
}

// NewMinCost constructs a Corpus that resolves the over-budget
// expansion choice using each alternative's total minimum derivable
// length (grammar.MinDerivableLength) rather than its immediate
// right-hand-side symbol count. Useful for grammars where a
// short-looking alternative (a single non-terminal) actually expands
// to a much longer sentence than a longer-looking one.
func NewMinCost(g *grammar.Grammar, startSymbol string, maxExpansion, forestSize int, seed uint64) (*Corpus, error) {
	return newCorpus(g, startSymbol, maxExpansion, forestSize, seed, grammar.MinDerivableLength(g))
}

func newCorpus(g *grammar.Grammar, startSymbol string, maxExpansion, forestSize int, seed uint64, minCost map[string]int) (*Corpus, error) {
	if _, ok := g.Productions[startSymbol]; !ok {
		return nil, fmt.Errorf("corpus: start symbol %q has no production", startSymbol)
	}
	if maxExpansion <= 0 {
		return nil, fmt.Errorf("corpus: max expansion must be positive, got %d", maxExpansion)
	}
	if forestSize <= 0 {
		return nil, fmt.Errorf("corpus: forest size must be positive, got %d", forestSize)
	}
	prng, err := rng.New(seed)
	if err != nil {
		return nil, fmt.Errorf("corpus: %w", err)
	}
	return &Corpus{
		grammar:      g,
		startSymbol:  startSymbol,
		maxExpansion: maxExpansion,
		forestSize:   forestSize,
		prng:         prng,
		minCost:      minCost,
	}, nil
}

// Clone returns a fresh Corpus sharing this one's Grammar, start
// symbol, budget, and expansion policy, but with its own PRNG seeded
// from seed and an empty forest. Each fuzzer worker clones the fleet's
// template Corpus once at startup.
func (c *Corpus) Clone(seed uint64) (*Corpus, error) {
	return newCorpus(c.grammar, c.startSymbol, c.maxExpansion, c.forestSize, seed, c.minCost)
}

// Generate replaces the forest with forestSize pairwise-distinct
// derivation trees (by tree hash) and their rendered sentences.
func (c *Corpus) Generate() error {
	hashes := make(map[uint64]struct{}, c.forestSize)
	forest := make([]*syntaxtree.Node, 0, c.forestSize)
	inputs := make([]string, 0, c.forestSize)

	for len(forest) < c.forestSize {
		tree := syntaxtree.New(c.startSymbol)
		noNonTerminals := 0
		if err := derive(c.prng, tree, c.grammar, &noNonTerminals, c.maxExpansion, c.minCost); err != nil {
			return err
		}

		h := tree.Hash()
		if _, seen := hashes[h]; seen {
			continue
		}
		hashes[h] = struct{}{}

		sentence := renderNewlines(tree.Sentence())
		forest = append(forest, tree)
		inputs = append(inputs, sentence)
	}

	c.forest = forest
	c.inputs = inputs
	return nil
}

// renderNewlines turns the two-character escape "\n" into a real
// newline byte, letting grammars whose quoted terminals cannot contain
// a raw newline still emit one.
func renderNewlines(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && s[i+1] == 'n' {
			out = append(out, '\n')
			i++
			continue
		}
		out = append(out, s[i])
	}
	return string(out)
}

// Inputs returns the rendered sentences of the current forest.
func (c *Corpus) Inputs() []string {
	return c.inputs
}

// Len reports the number of derivations currently held.
func (c *Corpus) Len() int {
	return len(c.inputs)
}

// RandomInput returns a uniformly-selected sentence from the forest,
// as raw bytes ready for mutation.
func (c *Corpus) RandomInput() []byte {
	idx := c.prng.IntRange(0, len(c.inputs))
	return []byte(c.inputs[idx])
}

// derive recursively expands tree, rooted at a non-terminal or
// terminal value, under the expansion budget: below maxExpansion
// non-terminals seen so far, pick a uniformly random alternative; at
// or above it, pick the shortest alternative (first one seen when
// several tie for shortest, uniformly random when every alternative
// has the same length) or, when minCost is non-nil, the
// alternative with the lowest total minimum derivable length
// (NewMinCost).
func derive(prng *rng.Source, tree *syntaxtree.Node, g *grammar.Grammar, noNonTerminals *int, maxExpansion int, minCost map[string]int) error {
	if g.IsTerminal(tree.Value) {
		return nil
	}

	*noNonTerminals++

	alts, ok := g.Productions[tree.Value]
	if !ok {
		return fmt.Errorf("corpus: unidentified symbol %q: aborting", tree.Value)
	}

	var ridx int
	if *noNonTerminals < maxExpansion {
		ridx = prng.IntRange(0, len(alts))
	} else if minCost != nil {
		ridx = shortestByMinCost(g, minCost, alts)
	} else {
		minLen, maxLen := int(^uint(0)>>1), 0
		for i, alt := range alts {
			if len(alt) < minLen {
				minLen = len(alt)
				ridx = i
			}
			if len(alt) > maxLen {
				maxLen = len(alt)
			}
		}
		if maxLen == minLen {
			ridx = prng.IntRange(0, len(alts))
		}
	}

	for _, sym := range alts[ridx] {
		tree.InsertChild(sym)
	}
	for _, child := range tree.Children {
		if err := derive(prng, child, g, noNonTerminals, maxExpansion, minCost); err != nil {
			return err
		}
	}
	return nil
}

// shortestByMinCost picks the alternative whose symbols' minCost
// values (1 for a terminal, its precomputed minimum derivable length
// for a non-terminal) sum to the lowest total, first one seen on a
// tie.
func shortestByMinCost(g *grammar.Grammar, minCost map[string]int, alts []grammar.Alternative) int {
	best, bestCost := 0, -1
	for i, alt := range alts {
		cost := 0
		for _, sym := range alt {
			if g.IsTerminal(sym) {
				cost++
			} else {
				cost += minCost[sym]
			}
		}
		if bestCost == -1 || cost < bestCost {
			best, bestCost = i, cost
		}
	}
	return best
}
