package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/iudanet/tokenauth/internal/validation"
	"github.com/iudanet/tokenauth/pkg/api"
)

func (c *Cli) runLogin(ctx context.Context) error {
	c.io.Println("=== Login ===")
	c.io.Println()

	email, err := c.io.ReadInput("Email: ")
	if err != nil {
		return fmt.Errorf("failed to read email: %w", err)
	}

	password, err := c.getPassword("Password: ")
	if err != nil {
		return err
	}

	c.io.Println()
	c.io.Println("Authenticating...")

	resp, err := c.apiClient.Login(ctx, api.LoginRequest{
		Email:    validation.NormalizeEmail(email),
		Password: password,
	})
	if err != nil {
		return err
	}

	auth, err := c.store.GetAuth(ctx)
	if err != nil {
		return fmt.Errorf("failed to read saved session: %w", err)
	}

	c.io.Println()
	c.io.Println("✓ Login successful!")
	c.io.Printf("Email: %s\n", resp.Data.Email)
	c.io.Printf("Device (client): %s\n", auth.Client)
	c.io.Println()
	c.io.Println("Your session has been saved. The token rotates on every request.")

	return nil
}

func envPasswordSet() bool {
	return os.Getenv(PasswordEnv) != ""
}
