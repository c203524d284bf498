package game

// Final is an endgame archetype. The numeric values are persisted in cache
// blobs and must not be reordered.
type Final int

const (
	NoFinal Final = iota
	EvenPawnFinal
	RookFinal
	QueenFinal
	KingAndPawnVsKing
	BishopFinal
	BishopKnightFinal
	KnightFinal
	KingAndRookVsKing
	KingAndQueenVsKing
)

// Finals lists every archetype in declaration order.
var Finals = []Final{
	NoFinal, EvenPawnFinal, RookFinal, QueenFinal, KingAndPawnVsKing,
	BishopFinal, BishopKnightFinal, KnightFinal, KingAndRookVsKing, KingAndQueenVsKing,
}

var finalNames = map[Final]string{
	NoFinal:            "None",
	EvenPawnFinal:      "Pawn final",
	RookFinal:          "Rook final",
	QueenFinal:         "Queen final",
	KingAndPawnVsKing:  "King and pawn versus King",
	BishopFinal:        "Bishop final",
	BishopKnightFinal:  "Bishop and knight final",
	KnightFinal:        "Knight final",
	KingAndRookVsKing:  "King and rook versus King",
	KingAndQueenVsKing: "King and queen versus King",
}

func (f Final) String() string {
	if n, ok := finalNames[f]; ok {
		return n
	}
	return "None"
}

// Winning reports whether one side holds decisive unopposed material.
func (f Final) Winning() bool {
	switch f {
	case KingAndPawnVsKing, KingAndRookVsKing, KingAndQueenVsKing:
		return true
	}
	return false
}
