package models

import "time"

// DeviceSession is one authenticated client (browser, app install) of a user.
//
// TokenHash is the SHA-256 hex digest of the current bearer token; the raw
// token is never stored.
type DeviceSession struct {
	ExpiresAt   time.Time `json:"expires_at"`   // current token is rejected from this instant on
	LastUsedAt  time.Time `json:"last_used_at"` // last successful validation
	CreatedAt   time.Time `json:"created_at"`   // sign-in time
	PrincipalID string    `json:"principal_id"` // owning user ID
	ClientID    string    `json:"client_id"`    // unique per principal only
	TokenHash   string    `json:"-"`            // hex SHA-256 of the current token
}

// IsExpired reports whether the session is expired at now.
// A session whose expiry equals now is already expired.
func (s *DeviceSession) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
