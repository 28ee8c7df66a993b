package cli

import (
	"context"
	"time"
)

func (c *Cli) runWhoami(ctx context.Context) error {
	resp, err := c.apiClient.ValidateToken(ctx)
	if err != nil {
		return err
	}

	c.io.Printf("User ID: %s\n", resp.Data.ID)
	c.io.Printf("Email: %s\n", resp.Data.Email)
	c.io.Printf("Registered: %s\n", resp.Data.CreatedAt.Format(time.RFC3339))

	return nil
}
