package cli

import (
	"context"
	"fmt"

	"github.com/iudanet/tokenauth/internal/validation"
	"github.com/iudanet/tokenauth/pkg/api"
)

// runPasswd всегда спрашивает пароли интерактивно
func (c *Cli) runPasswd(ctx context.Context) error {
	c.io.Println("=== Change Password ===")
	c.io.Println()

	current, err := c.io.ReadPassword("Current password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	next, err := c.io.ReadPassword(fmt.Sprintf("New password (min %d chars): ", validation.MinPasswordLen))
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	confirm, err := c.io.ReadPassword("Confirm new password: ")
	if err != nil {
		return fmt.Errorf("failed to read confirmation: %w", err)
	}

	req := api.ChangePasswordRequest{
		CurrentPassword:      current,
		Password:             next,
		PasswordConfirmation: confirm,
	}
	if err := validation.Struct(req); err != nil {
		return fmt.Errorf("invalid input: %w", err)
	}

	resp, err := c.apiClient.ChangePassword(ctx, req)
	if err != nil {
		return err
	}

	c.io.Println("✓ Password changed.")
	c.io.Printf("Other devices signed out: %d\n", resp.Revoked)

	return nil
}
