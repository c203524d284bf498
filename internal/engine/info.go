package engine

import (
	"strings"

	"github.com/notnil/chess/uci"
)

// ParseInfo reads a UCI "info" line. ok is true when the line is an exact
// score for the first principal variation at the requested depth. Engines
// report terminal positions (mate or stalemate on the board) at depth 0,
// which is accepted for any requested depth.
func ParseInfo(line string, depth int) (ev Evaluation, ok bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 || fields[0] != "info" {
		return Evaluation{}, false
	}
	kind, hasDepth := scoreKind(fields)
	if kind == "" || !hasDepth {
		return Evaluation{}, false
	}

	var info uci.Info
	if err := info.UnmarshalText([]byte(strings.Join(fields, " "))); err != nil {
		return Evaluation{}, false
	}
	if info.Score.LowerBound || info.Score.UpperBound {
		return Evaluation{}, false
	}
	if info.Multipv > 1 {
		return Evaluation{}, false
	}
	if info.Depth != depth && info.Depth != 0 {
		return Evaluation{}, false
	}

	ev.Depth = info.Depth
	if kind == "mate" {
		ev.Mate = info.Score.Mate
		ev.Score = mateScore(info.Score.Mate)
	} else {
		ev.Score = info.Score.CP
	}
	for _, m := range info.PV {
		ev.PV = append(ev.PV, m.String())
	}
	return ev, true
}

// scoreKind returns "cp" or "mate" for the line's score and whether a depth
// is present. uci.Info zero-fills both, so presence is read off the tokens.
func scoreKind(fields []string) (kind string, hasDepth bool) {
	for i, f := range fields {
		switch f {
		case "depth":
			hasDepth = true
		case "score":
			if i+1 < len(fields) {
				if k := fields[i+1]; k == "cp" || k == "mate" {
					kind = k
				}
			}
		case "pv", "string":
			return kind, hasDepth
		}
	}
	return kind, hasDepth
}

// mateScore saturates a mate distance. A missing or zero distance means the
// side to move is mated.
func mateScore(mate int) int {
	if mate > 0 {
		return MateScore
	}
	return -MateScore
}
