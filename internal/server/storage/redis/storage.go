// Package redis implements storage.SessionStorage on Redis.
//
// Each session is a hash under "<prefix>session:<len(principal)>:<principal>:<client>";
// the length prefix keeps the key unambiguous whatever the ids contain. A set
// per principal indexes its client ids and a sorted set scored by expiry (unix
// milliseconds) feeds DeleteExpiredSessions. Keys carry a TTL of expiry plus
// Options.Retention so abandoned sessions disappear even without a sweeper.
// Users are not stored here; pair this store with a SQL UserStorage.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

var (
	// ErrEmptyConnectionURL is returned by Connect when no URL is configured
	ErrEmptyConnectionURL = errors.New("redis: empty connection url")
	// ErrNotReady is returned by Connect when the server never answered a ping
	ErrNotReady = errors.New("redis: not ready")
)

const defaultPrefix = "tokenauth:"

// Options configures the store.
type Options struct {
	// Prefix is prepended to every key. Defaults to "tokenauth:".
	Prefix string
	// Retention keeps expired sessions readable for this long after expiry.
	Retention time.Duration
	// RetryAttempts is the number of pings Connect tries before giving up.
	RetryAttempts int
	// RetryInterval is the pause between pings.
	RetryInterval time.Duration
}

// Storage is the Redis session store
type Storage struct {
	client    *goredis.Client
	prefix    string
	retention time.Duration
}

// Connect parses url, dials Redis and waits until it answers a ping.
func Connect(ctx context.Context, url string, opts Options) (*Storage, error) {
	if url == "" {
		return nil, ErrEmptyConnectionURL
	}

	redisOpts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := goredis.NewClient(redisOpts)

	attempts := max(opts.RetryAttempts, 1)
	for i := 0; i < attempts; i++ {
		if err = client.Ping(ctx).Err(); err == nil {
			break
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			_ = client.Close()
			return nil, errors.Join(ErrNotReady, ctx.Err())
		case <-time.After(opts.RetryInterval):
		}
	}
	if err != nil {
		_ = client.Close()
		return nil, errors.Join(ErrNotReady, err)
	}

	return New(client, opts), nil
}

// New wraps an existing client.
func New(client *goredis.Client, opts Options) *Storage {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Storage{
		client:    client,
		prefix:    prefix,
		retention: opts.Retention,
	}
}

// Ping checks the connection
func (s *Storage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the client
func (s *Storage) Close() error {
	return s.client.Close()
}

func (s *Storage) sessionKey(principalID, clientID string) string {
	return s.prefix + "session:" + strconv.Itoa(len(principalID)) + ":" + principalID + ":" + clientID
}

func (s *Storage) indexKey(principalID string) string {
	return s.prefix + "principal:" + principalID
}

func (s *Storage) expiryKey() string {
	return s.prefix + "expiry"
}

// expiry set members are "<principal>\x00<client>"
func expiryMember(principalID, clientID string) string {
	return principalID + "\x00" + clientID
}

func splitExpiryMember(m string) (principalID, clientID string, ok bool) {
	return strings.Cut(m, "\x00")
}

func expiryScore(t time.Time) float64 {
	return float64(t.UnixMilli())
}
