package cli

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"
)

func (c *Cli) runSessions(ctx context.Context) error {
	resp, err := c.apiClient.Sessions(ctx)
	if err != nil {
		return err
	}

	c.io.Println("=== Signed-in Devices ===")
	c.io.Println()

	if len(resp.Sessions) == 0 {
		c.io.Println("No active sessions.")
		return nil
	}

	w := tabwriter.NewWriter(c.io, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "CLIENT\tLAST USED\tEXPIRES\t")
	for _, s := range resp.Sessions {
		mark := ""
		if s.Current {
			mark = "(this device)"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			s.ClientID,
			s.LastUsedAt.Local().Format(time.DateTime),
			s.ExpiresAt.Local().Format(time.DateTime),
			mark)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to print sessions: %w", err)
	}

	c.io.Println()
	c.io.Printf("Total: %d device(s)\n", len(resp.Sessions))

	return nil
}

func (c *Cli) runRevoke(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing client id. Usage: tokenauth revoke <client>")
	}
	clientID := args[0]

	auth, err := c.store.GetAuth(ctx)
	if err == nil && auth.Client == clientID {
		return fmt.Errorf("%s is this device, use 'tokenauth logout' instead", clientID)
	}

	if err := c.apiClient.RevokeSession(ctx, clientID); err != nil {
		return err
	}

	c.io.Printf("✓ Device %s signed out\n", clientID)
	return nil
}
