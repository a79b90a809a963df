// Package cli implements the headless viewer commands. It is the
// stand-in host UI: a text widget factory instead of draggable
// on-screen handles, and a small interactive prompt instead of
// gestures. The sync engine underneath is the same one a graphical
// host would embed.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/iudanet/annosync/internal/client/storage"
)

// Cli bundles the collaborators shared by all commands.
type Cli struct {
	sessions storage.SessionStorage
	logger   *slog.Logger
	out      io.Writer
	in       io.Reader
}

// New creates the command runner.
func New(sessions storage.SessionStorage, logger *slog.Logger, in io.Reader, out io.Writer) *Cli {
	return &Cli{
		sessions: sessions,
		logger:   logger,
		out:      out,
		in:       in,
	}
}

// PrintUsage prints the top-level command help.
func PrintUsage(out io.Writer) {
	fmt.Fprintln(out, "annosync client - shared annotations for paginated documents")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Usage:")
	fmt.Fprintln(out, "  annosync [flags] <command>")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  watch    connect to the hub and edit annotations interactively")
	fmt.Fprintln(out, "  status   show the stored session")
	fmt.Fprintln(out, "  reset    forget the stored session")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Flags:")
	fmt.Fprintln(out, "  -server   hub websocket URL (default ws://localhost:8081/ws)")
	fmt.Fprintln(out, "  -document shared document identifier")
	fmt.Fprintln(out, "  -pages    page count of the document")
	fmt.Fprintln(out, "  -db       path to the local session database")
}

// loadOrInitSession returns the stored session, minting a fresh
// client identity on first run. Explicit flags override the stored
// server and document.
func (c *Cli) loadOrInitSession(ctx context.Context, serverURL, document string) (*storage.Session, error) {
	session, err := c.sessions.GetSession(ctx)
	if err != nil {
		if err != storage.ErrSessionNotFound {
			return nil, fmt.Errorf("failed to load session: %w", err)
		}
		session = &storage.Session{
			ClientID: uuid.New().String(),
			Page:     1,
			Zoom:     1.0,
		}
		c.logger.Info("new client identity", "client_id", session.ClientID)
	}

	if serverURL != "" {
		session.ServerURL = serverURL
	}
	if document != "" {
		session.Document = document
	}
	if session.ServerURL == "" {
		return nil, fmt.Errorf("no server URL: pass -server")
	}
	if session.Document == "" {
		return nil, fmt.Errorf("no document: pass -document")
	}
	if session.Page < 1 {
		session.Page = 1
	}
	if session.Zoom <= 0 {
		session.Zoom = 1.0
	}

	if err := c.sessions.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return session, nil
}
