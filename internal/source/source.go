// Package source defines how games are fetched from a platform and the
// HTTP plumbing the platform clients share.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/discochess/insight/internal/game"
)

var (
	// ErrUserNotFound is returned when the platform does not know the user.
	ErrUserNotFound = errors.New("source: user not found")
	// ErrFetch wraps network and platform failures.
	ErrFetch = errors.New("source: fetch failed")
	// ErrNotFound is returned by Client.Get on a 404 response.
	ErrNotFound = errors.New("source: not found")
)

// DefaultMonthsBack bounds how far back a fetch walks when a user has
// fewer games than requested.
const DefaultMonthsBack = 24

// Query selects the games to fetch.
type Query struct {
	// Username must be the canonical name returned by CanonicalUsername.
	Username  string
	TimeClass game.TimeClass
	// Until is the most recent month to fetch; earlier months are walked
	// backward from it.
	Until time.Time
	// MaxGames caps the number of records returned. Zero means no cap.
	MaxGames int
	// MonthsBack bounds the walk. Zero means DefaultMonthsBack.
	MonthsBack int
}

// Months returns the number of months to walk.
func (q Query) Months() int {
	if q.MonthsBack <= 0 {
		return DefaultMonthsBack
	}
	return q.MonthsBack
}

// Full reports whether n records satisfy the query.
func (q Query) Full(n int) bool { return q.MaxGames > 0 && n >= q.MaxGames }

// Source fetches game records for a player.
type Source interface {
	// CanonicalUsername returns the platform's spelling of user, or
	// ErrUserNotFound.
	CanonicalUsername(ctx context.Context, user string) (string, error)
	// Fetch returns the records matching q, oldest first.
	Fetch(ctx context.Context, q Query) ([]game.Record, error)
}

// Client performs rate-limited GET requests.
type Client struct {
	HTTP      *http.Client
	Limiter   *rate.Limiter
	UserAgent string
}

// DefaultTimeout bounds one HTTP request.
const DefaultTimeout = 60 * time.Second

// NewClient creates a client allowing rps requests per second.
func NewClient(rps float64) *Client {
	return &Client{
		HTTP:      &http.Client{Timeout: DefaultTimeout},
		Limiter:   rate.NewLimiter(rate.Limit(rps), 1),
		UserAgent: "insight/1.0",
	}
}

// Get fetches url and returns the body. A 404 yields ErrNotFound, any other
// failure wraps ErrFetch.
func (c *Client) Get(ctx context.Context, url, accept string) ([]byte, error) {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFetch, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: GET %s: %s", ErrFetch, url, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrFetch, url, err)
	}
	return body, nil
}

// MonthStart returns the first instant of t's UTC month.
func MonthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
