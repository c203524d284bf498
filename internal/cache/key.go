package cache

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/discochess/insight/internal/game"
)

// ErrInvalidKey is returned when a bucket key does not have the
// month%timeClass%username layout.
var ErrInvalidKey = errors.New("cache: invalid bucket key")

const monthLayout = "2006-01"

// BucketID names one bucket.
type BucketID struct {
	Month     time.Time
	TimeClass game.TimeClass
	Username  string
}

// Key returns the stored form of id, such as "2024-03%blitz%hikaru".
func (id BucketID) Key() string {
	return id.Month.UTC().Format(monthLayout) + "%" + string(id.TimeClass) + "%" + id.Username
}

// BucketKey returns the key of the bucket a game belongs to. Games are
// bucketed by the UTC month they ended in.
func BucketKey(g *game.Game, username string) string {
	return BucketID{Month: g.EndTime, TimeClass: g.TimeClass, Username: username}.Key()
}

// ParseBucketKey splits a key built by BucketID.Key. The username is the
// last field so names containing '%' survive.
func ParseBucketKey(key string) (BucketID, error) {
	month, rest, ok := strings.Cut(key, "%")
	if !ok {
		return BucketID{}, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	tc, username, ok := strings.Cut(rest, "%")
	if !ok || username == "" {
		return BucketID{}, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	t, err := time.Parse(monthLayout, month)
	if err != nil {
		return BucketID{}, fmt.Errorf("%w: %q: %v", ErrInvalidKey, key, err)
	}
	return BucketID{Month: t, TimeClass: game.TimeClass(tc), Username: username}, nil
}
