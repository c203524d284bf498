package game

// EventSet holds the plies (1-indexed) labeled by the classifier.
type EventSet struct {
	SubjectMistakes     []int `json:"subjectMistakes"`
	SubjectMissedGains  []int `json:"subjectMissedGains"`
	SubjectGoodMoves    []int `json:"subjectGoodMoves"`
	OpponentMistakes    []int `json:"opponentMistakes"`
	OpponentMissedGains []int `json:"opponentMissedGains"`
	OpponentGoodMoves   []int `json:"opponentGoodMoves"`
}

// Contains reports whether ply is in set.
func Contains(set []int, ply int) bool {
	for _, p := range set {
		if p == ply {
			return true
		}
	}
	return false
}
