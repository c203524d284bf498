package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/discochess/insight/internal/game"
)

// Markdown writes a report as Markdown tables.
type Markdown struct {
	w io.Writer
	// TopOpenings limits the opening tables. Zero writes every opening.
	TopOpenings int
}

// NewMarkdown creates a Markdown writer.
func NewMarkdown(w io.Writer) *Markdown {
	return &Markdown{w: w, TopOpenings: 10}
}

// Write renders r under title.
func (m *Markdown) Write(title string, r Report) {
	fmt.Fprintf(m.w, "# %s\n\n", title)
	fmt.Fprintf(m.w, "- **Games:** %d\n", r.Games)
	fmt.Fprintf(m.w, "- **Results:** %s\n", tally(r.Results))
	fmt.Fprintf(m.w, "- **As White:** %s\n", tally(r.White))
	fmt.Fprintf(m.w, "- **As Black:** %s\n\n", tally(r.Black))

	m.openings("Openings as White", r.FamiliesWhite)
	m.openings("Openings as Black", r.FamiliesBlack)
	m.standings("Position out of the opening", r.OutOfOpening)
	m.tactics(r)
	m.conversions(r.Conversions)
	m.standings("Time management", r.Time)
	m.finals(r)
}

func (m *Markdown) openings(title string, families map[string]Tally) {
	if len(families) == 0 {
		return
	}
	fmt.Fprintf(m.w, "## %s\n\n", title)
	fmt.Fprintln(m.w, "| Opening | Games | Win | Draw | Loss | Win rate |")
	fmt.Fprintln(m.w, "|---------|-------|-----|------|------|----------|")
	for i, name := range Ranked(families) {
		if m.TopOpenings > 0 && i >= m.TopOpenings {
			break
		}
		t := families[name]
		fmt.Fprintf(m.w, "| %s | %d | %d | %d | %d | %.0f%% |\n",
			escape(name), t.Total(), t.Win, t.Draw, t.Loss, 100*t.WinRate())
	}
	fmt.Fprintln(m.w)
}

func (m *Markdown) standings(title string, s map[Standing]Tally) {
	fmt.Fprintf(m.w, "## %s\n\n", title)
	fmt.Fprintln(m.w, "| Standing | Games | Win | Draw | Loss |")
	fmt.Fprintln(m.w, "|----------|-------|-----|------|------|")
	for _, st := range []Standing{Ahead, Even, Behind} {
		t := s[st]
		fmt.Fprintf(m.w, "| %s | %d | %d | %d | %d |\n", st, t.Total(), t.Win, t.Draw, t.Loss)
	}
	fmt.Fprintln(m.w)
}

func (m *Markdown) tactics(r Report) {
	fmt.Fprintln(m.w, "## Tactics")
	fmt.Fprintln(m.w)
	fmt.Fprintln(m.w, "| Stage | Mistakes | Missed gains | Good moves | Opp. mistakes | Opp. missed gains | Opp. good moves |")
	fmt.Fprintln(m.w, "|-------|----------|--------------|------------|---------------|-------------------|-----------------|")
	for _, st := range Stages {
		t := r.Tactics[st]
		fmt.Fprintf(m.w, "| %s | %d | %d | %d | %d | %d | %d |\n", st,
			t.SubjectMistakes, t.SubjectMissedGains, t.SubjectGoodMoves,
			t.OpponentMistakes, t.OpponentMissedGains, t.OpponentGoodMoves)
	}
	fmt.Fprintln(m.w)
	fmt.Fprintf(m.w, "Mistakes per game: mean %.2f, median %.1f, std dev %.2f, max %.0f.\n",
		r.MistakesPerGame.Mean, r.MistakesPerGame.Median, r.MistakesPerGame.StdDev, r.MistakesPerGame.Max)
	if r.ColorMistakes.Significant {
		fmt.Fprintf(m.w, "Mistake rates differ between colours (p=%.4f, d=%.2f).\n",
			r.ColorMistakes.PValue, r.ColorMistakes.CohensD)
	}
	fmt.Fprintln(m.w)
}

func (m *Markdown) conversions(cs []Conversion) {
	fmt.Fprintln(m.w, "## Advantage conversion")
	fmt.Fprintln(m.w)
	fmt.Fprintln(m.w, "| Threshold | Ahead | Converted | Behind | Saved | Opp. converted |")
	fmt.Fprintln(m.w, "|-----------|-------|-----------|--------|-------|----------------|")
	for _, c := range cs {
		fmt.Fprintf(m.w, "| +%.1f | %d | %.0f%% | %d | %.0f%% | %.0f%% |\n",
			float64(c.Threshold)/100, c.Ahead.Total(), 100*c.Ahead.WinRate(),
			c.Behind.Total(), 100*c.Behind.WinRate(), 100*c.Behind.LossRate())
	}
	fmt.Fprintln(m.w)
}

func (m *Markdown) finals(r Report) {
	fmt.Fprintln(m.w, "## Endgames")
	fmt.Fprintln(m.w)
	fmt.Fprintln(m.w, "| Ending | Games | Win | Draw | Loss | Sustained winning |")
	fmt.Fprintln(m.w, "|--------|-------|-----|------|------|-------------------|")
	for _, f := range game.Finals {
		if f == game.NoFinal {
			continue
		}
		t, w := r.Finals[f], r.WinningFinals[f]
		if t.Total() == 0 && w.Total() == 0 {
			continue
		}
		fmt.Fprintf(m.w, "| %s | %d | %d | %d | %d | %d |\n", f, t.Total(), t.Win, t.Draw, t.Loss, w.Total())
	}
	fmt.Fprintln(m.w)
}

func tally(t Tally) string {
	return fmt.Sprintf("%d won, %d drawn, %d lost", t.Win, t.Draw, t.Loss)
}

func escape(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
