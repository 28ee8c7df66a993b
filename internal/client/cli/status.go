package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/tokenauth/internal/client/storage"
)

// runStatus показывает локальную сессию, не обращаясь к серверу:
// запрос к серверу потратил бы токен
func (c *Cli) runStatus(ctx context.Context) error {
	c.io.Println("=== Authentication Status ===")
	c.io.Println()

	auth, err := c.store.GetAuth(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrAuthNotFound) {
			c.io.Println("Status: Not authenticated")
			c.io.Println()
			c.io.Println("Run 'tokenauth login' to authenticate.")
			return nil
		}
		return fmt.Errorf("failed to get auth data: %w", err)
	}

	now := c.now()
	if auth.Expired(now) {
		c.io.Println("Status: Session expired")
	} else {
		c.io.Println("Status: Authenticated")
	}

	c.io.Printf("Server: %s\n", auth.Server)
	c.io.Printf("Email: %s\n", auth.Email)
	c.io.Printf("User ID: %s\n", auth.UID)
	c.io.Printf("Device (client): %s\n", auth.Client)

	if auth.ExpiresAt != 0 {
		expiresAt := time.Unix(auth.ExpiresAt, 0)
		c.io.Printf("Token expires: %s\n", expiresAt.Format(time.RFC3339))
		if remaining := expiresAt.Sub(now); remaining > 0 {
			c.io.Printf("Time remaining: %s\n", remaining.Round(time.Second))
		} else {
			c.io.Println("⚠️  Token has expired. Please login again.")
		}
	}

	return nil
}
