// Package authctl implements the operator command line for the auth
// server: creating accounts, listing a user's sessions and purging
// expired token records. It talks to the database directly.
package authctl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fakhri2406/creadev/internal/server/models"
	"github.com/fakhri2406/creadev/internal/server/services"
	"golang.org/x/term"
)

// Accounts is the part of the auth service the CLI needs.
type Accounts interface {
	CreateAccount(ctx context.Context, in services.NewAccount) (*models.User, error)
	Sessions(ctx context.Context, username string) ([]services.Session, error)
}

type Purger interface {
	PurgeExpired(ctx context.Context) (*services.PurgeResult, error)
}

// ErrUsage is returned when the command line cannot be understood.
var ErrUsage = errors.New("usage error")

type App struct {
	accounts Accounts
	purger   Purger
	out      io.Writer

	// readPassword is a test seam for term.ReadPassword.
	readPassword func() ([]byte, error)
}

func NewApp(accounts Accounts, purger Purger, out io.Writer) *App {
	return &App{
		accounts: accounts,
		purger:   purger,
		out:      out,
		readPassword: func() ([]byte, error) {
			return term.ReadPassword(int(os.Stdin.Fd()))
		},
	}
}

const usage = `usage: authctl <command> [arguments]

commands:
  useradd -username NAME [-role ADMIN|EDITOR] [-email E] [-first-name F] [-last-name L] [-phone P]
  sessions USERNAME
  purge
`

// Run executes the command named by args[0].
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(a.out, usage)
		return ErrUsage
	}

	cmd, rest := args[0], args[1:]

	switch cmd {
	case "useradd":
		return a.UserAdd(ctx, rest)
	case "sessions":
		return a.Sessions(ctx, rest)
	case "purge":
		return a.Purge(ctx)
	case "help", "-h", "--help":
		fmt.Fprint(a.out, usage)
		return nil
	default:
		fmt.Fprintf(a.out, "unknown command %q\n", cmd)
		fmt.Fprint(a.out, usage)
		return ErrUsage
	}
}

// GetPassword prompts for a password and reads it without echo.
// The caller wipes the returned slice.
func (a *App) GetPassword(prompt string) ([]byte, error) {
	if _, err := fmt.Fprint(a.out, prompt); err != nil {
		return nil, err
	}
	pw, err := a.readPassword()
	fmt.Fprintln(a.out)
	if err != nil {
		return nil, err
	}
	return pw, nil
}
