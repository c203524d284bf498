// Package lichess fetches games from the lichess.org export API.
package lichess

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/discochess/insight/internal/game"
	"github.com/discochess/insight/internal/source"
)

// DefaultBaseURL is the public site root.
const DefaultBaseURL = "https://lichess.org"

var _ source.Source = (*Client)(nil)

type user struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

type side struct {
	User   user `json:"user"`
	Rating int  `json:"rating"`
}

// Game is one line of the ndjson export.
type Game struct {
	ID         string `json:"id"`
	Variant    string `json:"variant"`
	Speed      string `json:"speed"`
	Status     string `json:"status"`
	Winner     string `json:"winner"`
	Moves      string `json:"moves"`
	PGN        string `json:"pgn"`
	LastMoveAt int64  `json:"lastMoveAt"`
	Players    struct {
		White side `json:"white"`
		Black side `json:"black"`
	} `json:"players"`
}

// Record converts g into the pipeline's record, translating the lichess
// status into per-side result codes.
func (g Game) Record() game.Record {
	white, black := Results(g.Status, g.Winner)
	return game.Record{
		Platform:  game.PlatformLichess,
		ID:        g.ID,
		URL:       DefaultBaseURL + "/" + g.ID,
		White:     game.Player{Username: g.Players.White.User.Name, Rating: g.Players.White.Rating, Result: white},
		Black:     game.Player{Username: g.Players.Black.User.Name, Rating: g.Players.Black.Rating, Result: black},
		PGN:       g.PGN,
		EndTime:   time.UnixMilli(g.LastMoveAt).UTC(),
		TimeClass: game.TimeClass(g.Speed),
	}
}

// Results maps a lichess status and winner color to result codes for
// white and black.
func Results(status, winner string) (white, black string) {
	if winner == "" {
		code := "agreed"
		switch status {
		case "stalemate":
			code = "stalemate"
		case "timeout", "noStart":
			code = "abandoned"
		case "outoftime":
			code = "timevsinsufficient"
		}
		return code, code
	}

	lost := "lose"
	switch status {
	case "mate":
		lost = "checkmated"
	case "resign":
		lost = "resigned"
	case "outoftime":
		lost = "timeout"
	case "timeout", "noStart":
		lost = "abandoned"
	}
	if winner == "white" {
		return "win", lost
	}
	return lost, "win"
}

// Client reads user profiles and game exports.
type Client struct {
	http    *source.Client
	baseURL string
	logger  *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another site root.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTP sets the HTTP client.
func WithHTTP(h *source.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a client.
func New(opts ...Option) *Client {
	c := &Client{
		http:    source.NewClient(1),
		baseURL: DefaultBaseURL,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CanonicalUsername returns the profile's username.
func (c *Client) CanonicalUsername(ctx context.Context, name string) (string, error) {
	body, err := c.http.Get(ctx, c.baseURL+"/api/user/"+url.PathEscape(name), "application/json")
	if errors.Is(err, source.ErrNotFound) {
		return "", fmt.Errorf("%w: %s", source.ErrUserNotFound, name)
	}
	if err != nil {
		return "", err
	}
	var p struct {
		Username string `json:"username"`
		Disabled bool   `json:"disabled"`
	}
	if err := json.Unmarshal(body, &p); err != nil {
		return "", fmt.Errorf("%w: decoding profile: %v", source.ErrFetch, err)
	}
	if p.Username == "" || p.Disabled {
		return "", fmt.Errorf("%w: %s", source.ErrUserNotFound, name)
	}
	return p.Username, nil
}

// Fetch exports games one month window at a time, newest window first,
// keeping standard games of q.TimeClass that have moves.
func (c *Client) Fetch(ctx context.Context, q source.Query) ([]game.Record, error) {
	end := source.MonthStart(q.Until).AddDate(0, 1, 0)
	var windows [][]game.Record
	total := 0

	for i := 0; i < q.Months() && !q.Full(total); i++ {
		start := end.AddDate(0, -1, 0)
		games, err := c.window(ctx, q, start, end)
		if err != nil {
			return nil, err
		}

		var recs []game.Record
		for _, g := range games {
			if g.Variant != "standard" || g.Moves == "" || g.Speed != string(q.TimeClass) {
				continue
			}
			recs = append(recs, g.Record())
		}
		sort.SliceStable(recs, func(a, b int) bool { return recs[a].EndTime.Before(recs[b].EndTime) })
		if q.MaxGames > 0 && total+len(recs) > q.MaxGames {
			recs = recs[len(recs)-(q.MaxGames-total):]
		}
		total += len(recs)
		windows = append(windows, recs)

		c.logger.Debug("export window fetched",
			zap.String("user", q.Username),
			zap.String("month", start.Format("2006-01")),
			zap.Int("games", len(recs)),
		)
		end = start
	}

	out := make([]game.Record, 0, total)
	for i := len(windows) - 1; i >= 0; i-- {
		out = append(out, windows[i]...)
	}
	return out, nil
}

func (c *Client) window(ctx context.Context, q source.Query, start, end time.Time) ([]Game, error) {
	v := url.Values{}
	v.Set("since", strconv.FormatInt(start.UnixMilli(), 10))
	v.Set("until", strconv.FormatInt(end.UnixMilli(), 10))
	v.Set("perfType", string(q.TimeClass))
	v.Set("pgnInJson", "true")
	v.Set("clocks", "true")
	u := fmt.Sprintf("%s/api/games/user/%s?%s", c.baseURL, url.PathEscape(q.Username), v.Encode())

	body, err := c.http.Get(ctx, u, "application/x-ndjson")
	if errors.Is(err, source.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", source.ErrUserNotFound, q.Username)
	}
	if err != nil {
		return nil, err
	}
	return decode(body)
}

func decode(body []byte) ([]Game, error) {
	var games []Game
	sc := bufio.NewScanner(bytes.NewReader(body))
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var g Game
		if err := json.Unmarshal(line, &g); err != nil {
			return nil, fmt.Errorf("%w: decoding export: %v", source.ErrFetch, err)
		}
		games = append(games, g)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading export: %v", source.ErrFetch, err)
	}
	return games, nil
}
