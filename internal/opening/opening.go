// Package opening resolves a game's opening, either from the lichess ECO
// catalog bundled with notnil/chess or from a custom catalog of named move
// prefixes.
package opening

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/notnil/chess"
	chessopening "github.com/notnil/chess/opening"

	"github.com/discochess/insight/internal/game"
)

// ErrUnresolved is reported when no catalog entry prefixes a game.
var ErrUnresolved = errors.New("opening: unresolved")

// Entry is one catalog line.
type Entry struct {
	ECO   string
	Name  string
	Moves []string
}

// Book is an opening catalog. A book built by Default walks the ECO trie;
// custom books keep their entries longest-first so that the first matching
// entry is the most specific one.
type Book struct {
	eco     *chessopening.BookECO
	entries []Entry
}

// The ECO trie parses a few thousand lines, so it is built once.
var ecoBook = sync.OnceValue(chessopening.NewBookECO)

// Default returns the full lichess ECO catalog.
func Default() *Book {
	return &Book{eco: ecoBook()}
}

// Load reads a TSV catalog with eco, name and pgn columns. A header row
// starting with "eco" is skipped.
func Load(r io.Reader) (*Book, error) {
	var entries []Entry
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimRight(scanner.Text(), "\r")
		if text == "" || (line == 1 && strings.HasPrefix(text, "eco\t")) {
			continue
		}
		parts := strings.SplitN(text, "\t", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("line %d: want 3 columns, got %d", line, len(parts))
		}
		moves := SANs(parts[2])
		if len(moves) == 0 {
			return nil, fmt.Errorf("line %d: empty move list", line)
		}
		entries = append(entries, Entry{ECO: parts[0], Name: parts[1], Moves: moves})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return New(entries), nil
}

// New builds a book from entries. Longer lines are tried first; entries of
// equal length keep their relative order.
func New(entries []Entry) *Book {
	sorted := append([]Entry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].Moves) > len(sorted[j].Moves)
	})
	return &Book{entries: sorted}
}

// Len returns the number of custom entries. It is zero for the ECO book.
func (b *Book) Len() int { return len(b.entries) }

// Lookup returns the most specific opening that prefixes the given
// half-moves.
func (b *Book) Lookup(moves []string) (game.Opening, error) {
	if b.eco != nil {
		return b.lookupECO(moves)
	}
	for _, e := range b.entries {
		if hasPrefix(moves, e.Moves) {
			return game.Opening{ECO: e.ECO, Name: e.Name}, nil
		}
	}
	return game.Opening{}, ErrUnresolved
}

// lookupECO replays the moves up to the first one that fails to decode and
// walks the trie with what was played.
func (b *Book) lookupECO(moves []string) (game.Opening, error) {
	g := chess.NewGame()
	for _, san := range moves {
		if err := g.MoveStr(san); err != nil {
			break
		}
	}
	o := b.eco.Find(g.Moves())
	if o == nil {
		return game.Opening{}, ErrUnresolved
	}
	return game.Opening{ECO: o.Code(), Name: o.Title()}, nil
}

// Family returns the part of an opening name before the variation, so
// "Sicilian Defense: Najdorf Variation" becomes "Sicilian Defense".
func Family(name string) string {
	if i := strings.Index(name, ":"); i >= 0 {
		return strings.TrimSpace(name[:i])
	}
	return name
}

// SANs splits movetext such as "1. e4 e5 2. Nf3" into half-moves.
func SANs(text string) []string {
	var out []string
	for _, tok := range strings.Fields(text) {
		if moveNumber(tok) {
			continue
		}
		if i := strings.LastIndex(tok, "."); i >= 0 {
			tok = tok[i+1:]
		}
		if tok != "" {
			out = append(out, tok)
		}
	}
	return out
}

func moveNumber(tok string) bool {
	digits := strings.TrimRight(tok, ".")
	if digits == tok || digits == "" {
		return false
	}
	for _, c := range digits {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func hasPrefix(moves, prefix []string) bool {
	if len(prefix) > len(moves) {
		return false
	}
	for i, m := range prefix {
		if strip(moves[i]) != strip(m) {
			return false
		}
	}
	return true
}

func strip(san string) string {
	return strings.TrimRight(san, "+#!?")
}
