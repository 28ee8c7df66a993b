package cli

import (
	"context"
	"fmt"
)

// Run выполняет команду. args без имени команды
func (c *Cli) Run(ctx context.Context, command string, args []string) error {
	var err error
	switch command {
	case "register":
		err = c.runRegister(ctx)
	case "login":
		err = c.runLogin(ctx)
	case "logout":
		err = c.runLogout(ctx)
	case "status":
		err = c.runStatus(ctx)
	case "whoami":
		err = c.runWhoami(ctx)
	case "sessions":
		err = c.runSessions(ctx)
	case "revoke":
		err = c.runRevoke(ctx, args)
	case "passwd":
		err = c.runPasswd(ctx)
	default:
		PrintUsage(c.io)
		return fmt.Errorf("unknown command: %s", command)
	}

	return explain(err)
}
