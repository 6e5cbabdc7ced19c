package authctl

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/fakhri2406/creadev/internal/common"
)

// Sessions prints the refresh tokens stored for the user named in args[0].
func (a *App) Sessions(ctx context.Context, args []string) error {
	if len(args) != 1 || args[0] == "" {
		fmt.Fprintln(a.out, "usage: authctl sessions USERNAME")
		return ErrUsage
	}

	sessions, err := a.accounts.Sessions(ctx, args[0])
	if err != nil {
		if errors.Is(err, common.ErrAccountNotFound) {
			return fmt.Errorf("user %q not found", args[0])
		}
		return err
	}

	if len(sessions) == 0 {
		fmt.Fprintln(a.out, "no sessions")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCREATED\tEXPIRES\tSTATUS")
	for _, s := range sessions {
		status := "active"
		if s.Expired {
			status = "expired"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.ID,
			s.CreatedAt.UTC().Format(time.RFC3339), s.ExpiresAt.UTC().Format(time.RFC3339), status)
	}
	return w.Flush()
}

// Purge deletes expired revocation and refresh-token records.
func (a *App) Purge(ctx context.Context) error {
	res, err := a.purger.PurgeExpired(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "purged %d revoked tokens, %d refresh tokens\n", res.RevokedTokens, res.RefreshTokens)
	return nil
}
