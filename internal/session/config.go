package session

import (
	"fmt"
	"time"

	"github.com/iudanet/tokenauth/internal/crypto"
)

// Config holds the tunables of the session core. It is passed explicitly to
// NewManager; nothing is read from globals.
type Config struct {
	// SessionTTL is the lifetime of each issued token, counted from issue time.
	SessionTTL time.Duration

	// TokenBytes is the number of random bytes per token (at least 16).
	TokenBytes int

	// MaxDevices caps concurrent sessions per principal. On login the least
	// recently used sessions are evicted to make room. Zero means no cap.
	MaxDevices int

	// StoreTimeout bounds the token swap, which runs detached from the
	// caller's cancellation. Zero means no bound.
	StoreTimeout time.Duration

	// SweepInterval is how often the Sweeper purges expired sessions.
	SweepInterval time.Duration
}

// DefaultConfig returns the defaults used by the server.
func DefaultConfig() Config {
	return Config{
		SessionTTL:    14 * 24 * time.Hour,
		TokenBytes:    32,
		MaxDevices:    10,
		StoreTimeout:  5 * time.Second,
		SweepInterval: time.Hour,
	}
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	switch {
	case c.SessionTTL <= 0:
		return fmt.Errorf("%w: session ttl must be positive", ErrConfig)
	case c.TokenBytes < crypto.MinTokenBytes:
		return fmt.Errorf("%w: token bytes must be at least %d", ErrConfig, crypto.MinTokenBytes)
	case c.MaxDevices < 0:
		return fmt.Errorf("%w: max devices must not be negative", ErrConfig)
	case c.StoreTimeout < 0:
		return fmt.Errorf("%w: store timeout must not be negative", ErrConfig)
	case c.SweepInterval < 0:
		return fmt.Errorf("%w: sweep interval must not be negative", ErrConfig)
	}
	return nil
}
