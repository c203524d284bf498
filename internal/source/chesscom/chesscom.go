// Package chesscom fetches games from the chess.com published-data API.
package chesscom

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/discochess/insight/internal/game"
	"github.com/discochess/insight/internal/source"
)

// DefaultBaseURL is the public API root.
const DefaultBaseURL = "https://api.chess.com/pub"

const memberPrefix = "https://www.chess.com/member/"

var _ source.Source = (*Client)(nil)

// Player is one side as the API reports it.
type Player struct {
	Username string `json:"username"`
	Rating   int    `json:"rating"`
	Result   string `json:"result"`
}

// Game is one entry of a monthly archive.
type Game struct {
	URL       string `json:"url"`
	PGN       string `json:"pgn"`
	EndTime   int64  `json:"end_time"`
	TimeClass string `json:"time_class"`
	Rules     string `json:"rules"`
	White     Player `json:"white"`
	Black     Player `json:"black"`
}

// Record converts g into the pipeline's record.
func (g Game) Record() game.Record {
	id := g.URL
	if i := strings.LastIndex(id, "/"); i >= 0 {
		id = id[i+1:]
	}
	return game.Record{
		Platform:  game.PlatformChessCom,
		ID:        id,
		URL:       g.URL,
		White:     game.Player(g.White),
		Black:     game.Player(g.Black),
		PGN:       g.PGN,
		EndTime:   time.Unix(g.EndTime, 0).UTC(),
		TimeClass: game.TimeClass(g.TimeClass),
	}
}

type archive struct {
	Games []Game `json:"games"`
}

type profile struct {
	URL      string `json:"url"`
	Username string `json:"username"`
}

// Client reads profiles and monthly archives.
type Client struct {
	http    *source.Client
	baseURL string
	logger  *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another API root.
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

// New creates a client. The public API asks for serial access, so the
// default client allows a few requests per second.
func New(opts ...Option) *Client {
	c := &Client{
		http:    source.NewClient(3),
		baseURL: DefaultBaseURL,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CanonicalUsername reads the profile of user. The canonical spelling is
// the suffix of the profile URL, which keeps the user's capitalization.
func (c *Client) CanonicalUsername(ctx context.Context, user string) (string, error) {
	body, err := c.http.Get(ctx, c.baseURL+"/player/"+strings.ToLower(user), "application/json")
	if errors.Is(err, source.ErrNotFound) {
		return "", fmt.Errorf("%w: %s", source.ErrUserNotFound, user)
	}
	if err != nil {
		return "", err
	}
	var p profile
	if err := json.Unmarshal(body, &p); err != nil {
		return "", fmt.Errorf("%w: decoding profile: %v", source.ErrFetch, err)
	}
	if name, ok := strings.CutPrefix(p.URL, memberPrefix); ok && name != "" {
		return name, nil
	}
	if p.Username != "" {
		return p.Username, nil
	}
	return user, nil
}

// Fetch walks monthly archives backward from q.Until, keeping standard
// games of q.TimeClass, until q.MaxGames are collected. Within the last
// month read only the most recent games are kept.
func (c *Client) Fetch(ctx context.Context, q source.Query) ([]game.Record, error) {
	month := source.MonthStart(q.Until)
	var months [][]game.Record
	total := 0

	for i := 0; i < q.Months() && !q.Full(total); i++ {
		games, err := c.month(ctx, q.Username, month)
		if err != nil {
			return nil, err
		}

		var recs []game.Record
		for _, g := range games {
			if g.TimeClass != string(q.TimeClass) || (g.Rules != "" && g.Rules != "chess") {
				continue
			}
			recs = append(recs, g.Record())
		}
		sort.SliceStable(recs, func(a, b int) bool { return recs[a].EndTime.Before(recs[b].EndTime) })
		if q.MaxGames > 0 && total+len(recs) > q.MaxGames {
			recs = recs[len(recs)-(q.MaxGames-total):]
		}
		total += len(recs)
		months = append(months, recs)

		c.logger.Debug("archive fetched",
			zap.String("user", q.Username),
			zap.String("month", month.Format("2006-01")),
			zap.Int("games", len(recs)),
		)
		month = month.AddDate(0, -1, 0)
	}

	out := make([]game.Record, 0, total)
	for i := len(months) - 1; i >= 0; i-- {
		out = append(out, months[i]...)
	}
	return out, nil
}

// month returns one archive. A missing archive is an empty month.
func (c *Client) month(ctx context.Context, user string, month time.Time) ([]Game, error) {
	url := fmt.Sprintf("%s/player/%s/games/%04d/%02d", c.baseURL, strings.ToLower(user), month.Year(), int(month.Month()))
	body, err := c.http.Get(ctx, url, "application/json")
	if errors.Is(err, source.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var a archive
	if err := json.Unmarshal(body, &a); err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %v", source.ErrFetch, url, err)
	}
	return a.Games, nil
}
