// Package cli команды клиента: регистрация, вход, выход и управление сессиями
package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/iudanet/tokenauth/internal/client/api"
	"github.com/iudanet/tokenauth/internal/client/iocli"
	"github.com/iudanet/tokenauth/internal/client/storage"
)

// PasswordEnv переменная окружения с паролем для неинтерактивного входа
const PasswordEnv = "TOKENAUTH_PASSWORD"

// Passwords источники пароля, кроме переменной окружения и интерактивного ввода
type Passwords struct {
	FromFile string
	FromArgs string
}

// Cli выполняет команды клиента
type Cli struct {
	io        iocli.IO
	apiClient *api.Client
	store     storage.AuthStorage
	now       func() time.Time
	passwords Passwords
}

// New создает Cli
func New(io iocli.IO, apiClient *api.Client, store storage.AuthStorage, passwords Passwords) *Cli {
	return &Cli{
		io:        io,
		apiClient: apiClient,
		store:     store,
		passwords: passwords,
		now:       time.Now,
	}
}

// getPassword retrieves the account password from various sources with priority:
// 1. Environment variable TOKENAUTH_PASSWORD
// 2. File specified in passwords.FromFile
// 3. Command-line parameter passwords.FromArgs
// 4. Interactive prompt (fallback)
func (c *Cli) getPassword(prompt string) (string, error) {
	// Priority 1: Environment variable
	if envPassword := os.Getenv(PasswordEnv); envPassword != "" {
		return envPassword, nil
	}

	// Priority 2: File
	if c.passwords.FromFile != "" {
		content, err := os.ReadFile(c.passwords.FromFile)
		if err != nil {
			return "", fmt.Errorf("failed to read password file: %w", err)
		}
		// Убираем trailing newline/whitespace
		password := strings.TrimSpace(string(content))
		if password == "" {
			return "", fmt.Errorf("password file is empty")
		}
		return password, nil
	}

	// Priority 3: CLI parameter
	if c.passwords.FromArgs != "" {
		return c.passwords.FromArgs, nil
	}

	// Priority 4: Interactive prompt (fallback)
	password, err := c.io.ReadPassword(prompt)
	if err != nil {
		return "", fmt.Errorf("failed to read password from stdin: %w", err)
	}
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}

	return password, nil
}

// explain переводит ошибки клиента в подсказку пользователю
func explain(err error) error {
	switch {
	case errors.Is(err, api.ErrNotAuthenticated):
		return fmt.Errorf("not authenticated. Please run 'tokenauth login' first")
	case errors.Is(err, api.ErrSessionInvalid):
		return fmt.Errorf("session is no longer valid. Please run 'tokenauth login' again")
	case errors.Is(err, api.ErrRotationConflict):
		return fmt.Errorf("session was used by another request at the same time, try again")
	default:
		return err
	}
}

// PrintUsage печатает справку
func PrintUsage(io iocli.IO) {
	io.Println("TokenAuth Client")
	io.Println()
	io.Println("Usage:")
	io.Println("  tokenauth [OPTIONS] COMMAND")
	io.Println()
	io.Println("Options:")
	io.Println("  --version              Show version information")
	io.Println("  --server URL           Server URL (default: http://localhost:8080)")
	io.Println("  --db PATH              Path to local database (default: tokenauth-client.db)")
	io.Println("  --password PASSWORD    Account password (not recommended, use env var or file)")
	io.Println("  --password-file PATH   Path to file containing account password")
	io.Println()
	io.Println("Password Priority (highest to lowest):")
	io.Println("  1. " + PasswordEnv + " environment variable")
	io.Println("  2. --password-file (file path)")
	io.Println("  3. --password (command line)")
	io.Println("  4. Interactive prompt (fallback)")
	io.Println()
	io.Println("Commands:")
	io.Println("  register               Register new user and sign in")
	io.Println("  login                  Sign in from this device")
	io.Println("  logout                 Sign out this device")
	io.Println("  status                 Show local session status")
	io.Println("  whoami                 Show current user (validates and rotates the token)")
	io.Println("  sessions               List signed-in devices")
	io.Println("  revoke <client>        Sign out another device")
	io.Println("  passwd                 Change password and sign out other devices")
	io.Println()
	io.Println("Examples:")
	io.Println("  tokenauth register")
	io.Println("  tokenauth --server https://auth.example.com login")
	io.Println("  tokenauth sessions")
	io.Println("  tokenauth revoke 01HZX3J8Q6W2C9V4K1N7M5T0RB")
}
