// Package grammar parses the line-oriented grammar file format into a
// production table plus its terminal and non-terminal vocabularies,
// and validates that the table is self-consistent before any
// derivation is attempted against it.
package grammar

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	verr "github.com/0xca7/grampus-go/error"
)

const (
	productionSep = "::="
	alternateSep  = "|"
)

// Alternative is one ordered sequence of symbol tokens appearing on
// the right-hand side of a production. Each entry is a symbol value;
// whether it is a terminal or a non-terminal is decided by membership
// in the owning Grammar's Terminals set, not by a tag on the token
// itself.
type Alternative []string

// Grammar is a production table plus the terminal and non-terminal
// vocabularies collected while parsing it. A Grammar is immutable once
// returned by Parse: it is safe to share read-only across worker
// goroutines.
type Grammar struct {
	Productions  map[string][]Alternative
	Terminals    map[string]struct{}
	NonTerminals map[string]struct{}

	// StartSymbol is the LHS of the first production line in the
	// file, the value the CLI's -s flag must match.
	StartSymbol string
}

// IsTerminal reports whether sym is in the grammar's terminal
// vocabulary.
func (g *Grammar) IsTerminal(sym string) bool {
	_, ok := g.Terminals[sym]
	return ok
}

// ParseFile opens path and parses it as a grammar file.
func ParseFile(path string) (*Grammar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &verr.GrammarError{Cause: fmt.Errorf("cannot open grammar file %s: %w", path, err)}
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads a grammar from r. Parsing stops at the first blank line
// or at EOF, whichever comes first. A line lacking "::=" is a
// construction failure, as is a right-hand side that references a
// non-terminal no production defines.
func Parse(r io.Reader) (*Grammar, error) {
	g := &Grammar{
		Productions:  map[string][]Alternative{},
		Terminals:    map[string]struct{}{},
		NonTerminals: map[string]struct{}{},
	}

	referenced := map[string]int{} // non-terminal -> first referencing line, for diagnostics

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	row := 0
	for scanner.Scan() {
		row++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			break
		}

		parts := strings.SplitN(line, productionSep, 2)
		if len(parts) != 2 {
			return nil, &verr.GrammarError{Row: row, Cause: fmt.Errorf("malformed production: missing %q", productionSep)}
		}

		lhs := strings.TrimSpace(parts[0])
		if lhs == "" {
			return nil, &verr.GrammarError{Row: row, Cause: fmt.Errorf("malformed production: empty left-hand side")}
		}
		if g.StartSymbol == "" {
			g.StartSymbol = lhs
		}
		g.NonTerminals[lhs] = struct{}{}

		var alts []Alternative
		for _, rhsText := range strings.Split(parts[1], alternateSep) {
			alt := parseAlternative(strings.TrimSpace(rhsText), g, referenced, row)
			alts = append(alts, alt)
		}
		g.Productions[lhs] = alts
	}
	if err := scanner.Err(); err != nil {
		return nil, &verr.GrammarError{Cause: fmt.Errorf("reading grammar: %w", err)}
	}

	undefined := map[string]int{}
	for sym, row := range referenced {
		if _, ok := g.NonTerminals[sym]; !ok {
			undefined[sym] = row
		}
	}
	if len(undefined) > 0 {
		return nil, undefinedSymbolError(g, undefined)
	}

	return g, nil
}

// parseAlternative tokenizes one "|"-delimited right-hand side into an
// Alternative, recording terminals directly into g.Terminals and
// non-terminal references into referenced (for the post-pass
// completeness check) as it goes.
func parseAlternative(text string, g *Grammar, referenced map[string]int, row int) Alternative {
	var alt Alternative
	for _, field := range strings.Fields(text) {
		replaced := strings.ReplaceAll(field, "^", " ")
		for _, tok := range splitWord(replaced) {
			switch {
			case tok.kind == tokenQuoted:
				g.Terminals[tok.text] = struct{}{}
				alt = append(alt, tok.text)
			case isAllSpace(tok.text):
				// '^' between two quoted terminals: a literal-space
				// terminal, not a symbol to resolve against the
				// production table.
				g.Terminals[tok.text] = struct{}{}
				alt = append(alt, tok.text)
			default:
				if _, ok := referenced[tok.text]; !ok {
					referenced[tok.text] = row
				}
				alt = append(alt, tok.text)
			}
		}
	}
	return alt
}

// undefinedSymbolError builds the diagnostic for the first (by grammar
// line order) non-terminal reference with no matching production,
// suggesting the closest known non-terminal name: among the
// non-terminals that contain the undefined symbol as a subsequence, or
// are contained in it as one (case-insensitively), the one with the
// lowest edit distance, ties broken by name.
func undefinedSymbolError(g *Grammar, referenced map[string]int) error {
	var worst string
	worstRow := -1
	for sym, row := range referenced {
		if worstRow == -1 || row < worstRow || (row == worstRow && sym < worst) {
			worst, worstRow = sym, row
		}
	}

	msg := fmt.Sprintf("unidentified symbol %q: aborting", worst)
	best, bestDist := "", -1
	for nt := range g.NonTerminals {
		d := fuzzy.RankMatchFold(worst, nt)
		if d < 0 {
			d = fuzzy.RankMatchFold(nt, worst)
		}
		if d >= 0 && (bestDist < 0 || d < bestDist || (d == bestDist && nt < best)) {
			best, bestDist = nt, d
		}
	}
	if bestDist >= 0 {
		msg = fmt.Sprintf("%s (did you mean %q?)", msg, best)
	}
	return &verr.GrammarError{Row: worstRow, Cause: errors.New(msg)}
}
