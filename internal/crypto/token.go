package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
)

// MinTokenBytes is the smallest accepted token size (128 bits of entropy).
const MinTokenBytes = 16

// ErrTokenTooShort is returned when fewer than MinTokenBytes are requested.
var ErrTokenTooShort = errors.New("token must carry at least 128 bits of entropy")

// GenerateToken returns nBytes of crypto/rand output encoded as unpadded base64url.
func GenerateToken(nBytes int) (string, error) {
	if nBytes < MinTokenBytes {
		return "", ErrTokenTooShort
	}

	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random token: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}
