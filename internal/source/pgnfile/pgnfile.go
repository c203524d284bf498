// Package pgnfile reads games from a local PGN collection.
package pgnfile

import (
	"bufio"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/discochess/insight/internal/game"
	"github.com/discochess/insight/internal/source"
)

var _ source.Source = (*Source)(nil)

// Split breaks a PGN stream into one text per game. A game starts at each
// "[Event " tag line.
func Split(r io.Reader) ([]string, error) {
	var games []string

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)

	var gameText strings.Builder
	inGame := false
	flush := func() {
		if s := strings.TrimSpace(gameText.String()); s != "" {
			games = append(games, s+"\n")
		}
		gameText.Reset()
	}

	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "[Event ") {
			if inGame {
				flush()
			}
			inGame = true
		}
		if inGame {
			gameText.WriteString(line)
			gameText.WriteString("\n")
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading PGN: %w", err)
	}
	return games, nil
}

var tagRE = regexp.MustCompile(`^\[(\w+)\s+"((?:[^"\\]|\\.)*)"\]\s*$`)

// Tags returns the tag pairs of one game text.
func Tags(pgn string) map[string]string {
	tags := make(map[string]string)
	for _, line := range strings.Split(pgn, "\n") {
		m := tagRE.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		tags[m[1]] = strings.ReplaceAll(m[2], `\"`, `"`)
	}
	return tags
}

// Record maps the tags of one game text to a record.
func Record(pgn string) game.Record {
	tags := Tags(pgn)
	white, black := results(tags["Result"], tags["Termination"])

	rec := game.Record{
		Platform:  game.PlatformPGN,
		URL:       tags["Link"],
		White:     game.Player{Username: tags["White"], Rating: atoi(tags["WhiteElo"]), Result: white},
		Black:     game.Player{Username: tags["Black"], Rating: atoi(tags["BlackElo"]), Result: black},
		PGN:       pgn,
		EndTime:   endTime(tags),
		TimeClass: TimeClassOf(tags["TimeControl"]),
	}
	if rec.URL == "" {
		if site := tags["Site"]; strings.HasPrefix(site, "http") {
			rec.URL = site
		}
	}
	sum := sha1.Sum([]byte(pgn))
	rec.ID = hex.EncodeToString(sum[:8])
	if rec.URL == "" {
		rec.URL = "pgn:" + rec.ID
	}
	return rec
}

func results(result, termination string) (white, black string) {
	lost := "lose"
	t := strings.ToLower(termination)
	switch {
	case strings.Contains(t, "checkmate"):
		lost = "checkmated"
	case strings.Contains(t, "resign"):
		lost = "resigned"
	case strings.Contains(t, "time"):
		lost = "timeout"
	case strings.Contains(t, "abandon"):
		lost = "abandoned"
	}
	switch result {
	case "1-0":
		return "win", lost
	case "0-1":
		return lost, "win"
	}
	draw := "agreed"
	switch {
	case strings.Contains(t, "stalemate"):
		draw = "stalemate"
	case strings.Contains(t, "repetition"):
		draw = "repetition"
	case strings.Contains(t, "insufficient"):
		draw = "insufficient"
	}
	return draw, draw
}

// TimeClassOf classifies a "base+increment" TimeControl tag by the
// estimated duration of a 40-move game. Unparseable controls are rapid.
func TimeClassOf(tc string) game.TimeClass {
	base, inc, _ := strings.Cut(tc, "+")
	b, err := strconv.Atoi(base)
	if err != nil {
		return game.Rapid
	}
	i, _ := strconv.Atoi(inc)
	switch est := b + 40*i; {
	case est < 180:
		return game.Bullet
	case est < 600:
		return game.Blitz
	default:
		return game.Rapid
	}
}

func endTime(tags map[string]string) time.Time {
	date := tags["EndDate"]
	clock := tags["EndTime"]
	if date == "" {
		date, clock = tags["UTCDate"], tags["UTCTime"]
	}
	if date == "" {
		date = tags["Date"]
	}
	if t, err := time.Parse("2006.01.02 15:04:05", date+" "+clock); err == nil {
		return t.UTC()
	}
	if t, err := time.Parse("2006.01.02", date); err == nil {
		return t.UTC()
	}
	return time.Time{}
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// Source serves records from one PGN file.
type Source struct {
	path string
}

// New creates a source reading path on every call. Paths ending in .zst or
// .gz are decompressed.
func New(path string) *Source { return &Source{path: path} }

func (s *Source) records() ([]game.Record, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", source.ErrFetch, err)
	}
	defer f.Close()

	var r io.Reader = f
	switch {
	case strings.HasSuffix(s.path, ".zst"):
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", source.ErrFetch, err)
		}
		defer dec.Close()
		r = dec
	case strings.HasSuffix(s.path, ".gz"):
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", source.ErrFetch, err)
		}
		defer gz.Close()
		r = gz
	}
	return Read(r)
}

// Read maps every game of r to a record.
func Read(r io.Reader) ([]game.Record, error) {
	texts, err := Split(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", source.ErrFetch, err)
	}
	recs := make([]game.Record, len(texts))
	for i, t := range texts {
		recs[i] = Record(t)
	}
	return recs, nil
}

// CanonicalUsername returns the spelling the file uses for user.
func (s *Source) CanonicalUsername(_ context.Context, user string) (string, error) {
	recs, err := s.records()
	if err != nil {
		return "", err
	}
	for _, r := range recs {
		for _, p := range []game.Player{r.White, r.Black} {
			if strings.EqualFold(p.Username, user) {
				return p.Username, nil
			}
		}
	}
	return "", fmt.Errorf("%w: %s", source.ErrUserNotFound, user)
}

// Fetch returns the user's games of q.TimeClass ending no later than the
// end of q.Until's month, keeping the most recent q.MaxGames.
func (s *Source) Fetch(ctx context.Context, q source.Query) ([]game.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	recs, err := s.records()
	if err != nil {
		return nil, err
	}

	var cutoff time.Time
	if !q.Until.IsZero() {
		cutoff = source.MonthStart(q.Until).AddDate(0, 1, 0)
	}
	var out []game.Record
	for _, r := range recs {
		if !strings.EqualFold(r.White.Username, q.Username) && !strings.EqualFold(r.Black.Username, q.Username) {
			continue
		}
		if r.TimeClass != q.TimeClass {
			continue
		}
		if !cutoff.IsZero() && !r.EndTime.IsZero() && !r.EndTime.Before(cutoff) {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].EndTime.Before(out[b].EndTime) })
	if q.MaxGames > 0 && len(out) > q.MaxGames {
		out = out[len(out)-q.MaxGames:]
	}
	return out, nil
}
