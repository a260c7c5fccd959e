// Package rediscache keeps match scores in Redis so several engine processes
// share one score cache.
package rediscache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	goredis "github.com/redis/go-redis/v9"

	"github.com/okian/pawmatch/internal/domain/cache"
)

const (
	keyPrefix   = "pawmatch:score:"
	scanBatch   = 500
	dialTimeout = 5 * time.Second
)

// Option configures a Store.
type Option func(*Store)

// WithTTL expires entries after ttl. Zero keeps them until overwritten.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl >= 0 {
			s.ttl = ttl
		}
	}
}

// WithClock sets the clock used to stamp entries without ComputedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Store implements cache.Store on Redis. Each entry is a JSON value under
// pawmatch:score:<user>:<pet>; SET gives last-write-wins per key.
type Store struct {
	rdb goredis.Cmdable
	ttl time.Duration
	now func() time.Time
}

var _ cache.Store = (*Store)(nil)

// New wraps an existing client.
func New(rdb goredis.Cmdable, opts ...Option) *Store {
	s := &Store{rdb: rdb, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dial connects to addr and verifies the connection with PING.
func Dial(ctx context.Context, addr string) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: dialTimeout,
	})
	pingCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// RedisKey returns the Redis key holding k.
func RedisKey(k cache.Key) string {
	return keyPrefix + escape(k.UserID) + ":" + escape(k.PetID)
}

// escape keeps ':' inside ids from producing ambiguous keys.
func escape(id string) string {
	return strings.NewReplacer("%", "%25", ":", "%3A").Replace(id)
}

// Get reads the entry for key.
func (s *Store) Get(ctx context.Context, key cache.Key) (cache.Entry, bool, error) {
	raw, err := s.rdb.Get(ctx, RedisKey(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return cache.Entry{}, false, nil
	}
	if err != nil {
		return cache.Entry{}, false, fmt.Errorf("redis get: %w", err)
	}
	var e cache.Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return cache.Entry{}, false, fmt.Errorf("decode entry %s: %w", RedisKey(key), err)
	}
	return e, true, nil
}

// Put writes the entry for key.
func (s *Store) Put(ctx context.Context, key cache.Key, e cache.Entry) error {
	if e.ComputedAt.IsZero() {
		e.ComputedAt = s.now()
	}
	raw, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode entry: %w", err)
	}
	if err := s.rdb.Set(ctx, RedisKey(key), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Invalidate deletes the entry for key.
func (s *Store) Invalidate(ctx context.Context, key cache.Key) error {
	if err := s.rdb.Del(ctx, RedisKey(key)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Len counts score keys with SCAN.
func (s *Store) Len(ctx context.Context) (int, error) {
	var (
		cursor uint64
		total  int
	)
	for {
		keys, next, err := s.rdb.Scan(ctx, cursor, keyPrefix+"*", scanBatch).Result()
		if err != nil {
			return 0, fmt.Errorf("redis scan: %w", err)
		}
		total += len(keys)
		if next == 0 {
			return total, nil
		}
		cursor = next
	}
}

// InvalidateUser deletes every entry of userID and returns how many were
// removed. It is best effort: a failing SCAN or DEL stops early.
func (s *Store) InvalidateUser(ctx context.Context, userID string) int {
	pattern := keyPrefix + globEscape(escape(userID)) + ":*"
	var (
		cursor  uint64
		removed int
	)
	for {
		keys, next, err := s.rdb.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return removed
		}
		if len(keys) > 0 {
			n, err := s.rdb.Del(ctx, keys...).Result()
			if err != nil {
				return removed
			}
			removed += int(n)
		}
		if next == 0 {
			return removed
		}
		cursor = next
	}
}

// globEscape quotes the characters SCAN MATCH treats as wildcards.
func globEscape(s string) string {
	return strings.NewReplacer(`\`, `\\`, "*", `\*`, "?", `\?`, "[", `\[`, "]", `\]`).Replace(s)
}
