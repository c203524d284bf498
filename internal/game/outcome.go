package game

// Outcome is a result relative to the subject.
type Outcome int

const (
	Loss Outcome = -1
	Draw Outcome = 0
	Win  Outcome = 1
)

func (o Outcome) String() string {
	switch o {
	case Win:
		return "win"
	case Loss:
		return "loss"
	default:
		return "draw"
	}
}

// outcomes maps platform result codes to outcomes. "abandoned" counts as a
// draw: the platform does not say whether the abandoning side was on the
// clock, so no winner is assumed.
var outcomes = map[string]Outcome{
	"win": Win,

	"checkmated":          Loss,
	"timeout":             Loss,
	"resigned":            Loss,
	"lose":                Loss,
	"kingofthehill":       Loss,
	"bughousepartnerlose": Loss,

	"agreed":             Draw,
	"repetition":         Draw,
	"stalemate":          Draw,
	"insufficient":       Draw,
	"50move":             Draw,
	"abandoned":          Draw,
	"timevsinsufficient": Draw,
	"threecheck":         Draw,
}

// OutcomeFor maps a result code. ok is false for codes outside the table.
func OutcomeFor(code string) (o Outcome, ok bool) {
	o, ok = outcomes[code]
	return o, ok
}

// ResultCodes returns every code the outcome table knows.
func ResultCodes() []string {
	codes := make([]string, 0, len(outcomes))
	for c := range outcomes {
		codes = append(codes, c)
	}
	return codes
}
