package cli

import (
	"context"
	"fmt"

	"github.com/iudanet/tokenauth/internal/validation"
	"github.com/iudanet/tokenauth/pkg/api"
)

func (c *Cli) runRegister(ctx context.Context) error {
	c.io.Println("=== Registration ===")
	c.io.Println()

	email, err := c.io.ReadInput("Email: ")
	if err != nil {
		return fmt.Errorf("failed to read email: %w", err)
	}

	password, err := c.getPassword(fmt.Sprintf("Password (min %d chars): ", validation.MinPasswordLen))
	if err != nil {
		return err
	}

	// Подтверждение пароля запрашиваем только при интерактивном вводе
	confirm := password
	if c.passwordIsInteractive() {
		confirm, err = c.io.ReadPassword("Confirm password: ")
		if err != nil {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}
	}

	req := api.RegisterRequest{
		Email:                validation.NormalizeEmail(email),
		Password:             password,
		PasswordConfirmation: confirm,
	}
	if err := validation.Struct(req); err != nil {
		return fmt.Errorf("invalid input: %w", err)
	}

	c.io.Println()
	c.io.Println("Registering user...")

	resp, err := c.apiClient.Register(ctx, req)
	if err != nil {
		return err
	}

	c.io.Println()
	c.io.Println("✓ Registration successful! You are signed in on this device.")
	c.io.Printf("User ID: %s\n", resp.Data.ID)
	c.io.Printf("Email: %s\n", resp.Data.Email)

	return nil
}

func (c *Cli) passwordIsInteractive() bool {
	return c.passwords.FromFile == "" && c.passwords.FromArgs == "" && !envPasswordSet()
}
