package cli

import (
	"context"
	"fmt"

	"github.com/iudanet/annosync/internal/client/storage"
)

// RunStatus prints the stored viewer session.
func (c *Cli) RunStatus(ctx context.Context) error {
	session, err := c.sessions.GetSession(ctx)
	if err != nil {
		if err == storage.ErrSessionNotFound {
			fmt.Fprintln(c.out, "no session: run 'watch' first")
			return nil
		}
		return fmt.Errorf("failed to load session: %w", err)
	}

	fmt.Fprintf(c.out, "client:   %s\n", session.ClientID)
	fmt.Fprintf(c.out, "server:   %s\n", session.ServerURL)
	fmt.Fprintf(c.out, "document: %s\n", session.Document)
	fmt.Fprintf(c.out, "page:     %d\n", session.Page)
	fmt.Fprintf(c.out, "zoom:     %.2f\n", session.Zoom)
	return nil
}

// RunReset forgets the stored session; the next watch mints a new
// client identity.
func (c *Cli) RunReset(ctx context.Context) error {
	if err := c.sessions.DeleteSession(ctx); err != nil {
		if err == storage.ErrSessionNotFound {
			fmt.Fprintln(c.out, "nothing to reset")
			return nil
		}
		return fmt.Errorf("failed to delete session: %w", err)
	}

	fmt.Fprintln(c.out, "session cleared")
	return nil
}
