package cli

import (
	"bufio"
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/iudanet/annosync/internal/channel"
	"github.com/iudanet/annosync/internal/client/storage"
	"github.com/iudanet/annosync/internal/geometry"
	"github.com/iudanet/annosync/internal/protocol"
	"github.com/iudanet/annosync/internal/renderer"
	"github.com/iudanet/annosync/internal/store"
	"github.com/iudanet/annosync/internal/widget"
)

// RunWatch connects to the hub and runs the interactive session:
// inbound events from other viewers print as they land, and prompt
// commands drive the same gesture paths a graphical host would.
func (c *Cli) RunWatch(ctx context.Context, serverURL, document string, pageCount int) error {
	session, err := c.loadOrInitSession(ctx, serverURL, document)
	if err != nil {
		return err
	}

	target := channelURL(session.ServerURL, session.Document)
	ch, err := channel.Dial(ctx, target, c.logger)
	if err != nil {
		return fmt.Errorf("failed to connect to hub: %w", err)
	}
	defer ch.Close()

	view := renderer.NewState(pageCount)
	view.SetPage(session.Page)
	if err := view.SetViewport(geometry.Viewport{Scale: session.Zoom}); err != nil {
		return fmt.Errorf("invalid stored zoom %v: %w", session.Zoom, err)
	}

	st := store.New()
	engine := protocol.NewEngine(ch, st, protocol.Config{
		DocumentID: session.Document,
		ClientID:   session.ClientID,
		Logger:     c.logger,
	})

	factory := NewTextFactory(c.out)
	adapter := widget.NewAdapter(factory, engine, view, c.logger)
	st.Subscribe(adapter)

	fmt.Fprintf(c.out, "watching %s as %s (page %d, zoom %.2f) - 'help' lists commands\n",
		session.Document, shortID(session.ClientID), view.CurrentPage(), view.Viewport().Scale)

	w := &watchSession{
		cli:     c,
		session: session,
		engine:  engine,
		store:   st,
		view:    view,
		factory: factory,
	}
	return w.loop(ctx, ch)
}

type watchSession struct {
	cli     *Cli
	session *storage.Session
	engine  *protocol.Engine
	store   *store.Store
	view    *renderer.State
	factory *TextFactory
}

func (w *watchSession) loop(ctx context.Context, ch *channel.WS) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(w.cli.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return w.saveView(context.WithoutCancel(ctx))
		case <-ch.Done():
			return fmt.Errorf("hub connection lost")
		case line, ok := <-lines:
			if !ok {
				return w.saveView(ctx)
			}
			quit, err := w.handleLine(line)
			if err != nil {
				fmt.Fprintf(w.cli.out, "error: %v\n", err)
			}
			if quit {
				return w.saveView(ctx)
			}
		}
	}
}

func (w *watchSession) saveView(ctx context.Context) error {
	w.session.Page = w.view.CurrentPage()
	w.session.Zoom = w.view.Viewport().Scale
	if err := w.cli.sessions.SaveSession(ctx, w.session); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (w *watchSession) handleLine(line string) (quit bool, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}

	switch fields[0] {
	case "add":
		return false, w.cmdAdd(fields[1:])
	case "move":
		return false, w.cmdMove(fields[1:])
	case "resize":
		return false, w.cmdResize(fields[1:])
	case "del":
		return false, w.cmdDelete(fields[1:])
	case "clear":
		w.engine.ClearAnnotations()
		return false, nil
	case "list":
		w.cmdList()
		return false, nil
	case "page":
		return false, w.cmdPage(fields[1:])
	case "zoom":
		return false, w.cmdZoom(fields[1:])
	case "help":
		w.printHelp()
		return false, nil
	case "quit", "exit":
		return true, nil
	default:
		return false, fmt.Errorf("unknown command %q, try 'help'", fields[0])
	}
}

// cmdAdd creates a marker at a document-space position on the current
// page.
func (w *watchSession) cmdAdd(args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: add <x> <y> <radius>")
	}
	pos, err := parsePoint(args[0], args[1])
	if err != nil {
		return err
	}
	radius, err := parsePositiveFloat(args[2], "radius")
	if err != nil {
		return err
	}

	a := w.engine.CreateAnnotation(w.view.CurrentPage(), pos, radius)
	fmt.Fprintf(w.cli.out, "created %s\n", shortID(a.ID))
	return nil
}

// cmdMove simulates a drag ending at a view-space position.
func (w *watchSession) cmdMove(args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: move <id> <viewX> <viewY>")
	}
	id, err := resolveID(args[0], w.store.All())
	if err != nil {
		return err
	}
	pos, err := parsePoint(args[1], args[2])
	if err != nil {
		return err
	}

	h, ok := w.factory.Handle(id)
	if !ok {
		return fmt.Errorf("no handle for %s", shortID(id))
	}
	h.DragEnd(pos)
	return nil
}

// cmdResize simulates a resize ending at a view-space radius.
func (w *watchSession) cmdResize(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: resize <id> <viewRadius>")
	}
	id, err := resolveID(args[0], w.store.All())
	if err != nil {
		return err
	}
	radius, err := parsePositiveFloat(args[1], "radius")
	if err != nil {
		return err
	}

	h, ok := w.factory.Handle(id)
	if !ok {
		return fmt.Errorf("no handle for %s", shortID(id))
	}
	h.ResizeEnd(radius)
	return nil
}

// cmdDelete simulates a tap on the handle's delete affordance.
func (w *watchSession) cmdDelete(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: del <id>")
	}
	id, err := resolveID(args[0], w.store.All())
	if err != nil {
		return err
	}

	h, ok := w.factory.Handle(id)
	if !ok {
		return fmt.Errorf("no handle for %s", shortID(id))
	}
	h.DeleteTap()
	return nil
}

func (w *watchSession) cmdList() {
	all := w.store.All()
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	if len(all) == 0 {
		fmt.Fprintln(w.cli.out, "no annotations")
		return
	}
	for _, a := range all {
		fmt.Fprintf(w.cli.out, "%s page=%d doc=(%.1f, %.1f) r=%.1f color=%s\n",
			shortID(a.ID), a.Page, a.Pos.X, a.Pos.Y, a.Radius, a.Color)
	}
}

func (w *watchSession) cmdPage(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: page <n>")
	}
	n, err := parsePage(args[0])
	if err != nil {
		return err
	}
	w.view.SetPage(n)
	fmt.Fprintf(w.cli.out, "page %d/%d\n", w.view.CurrentPage(), w.view.PageCount())
	return nil
}

func (w *watchSession) cmdZoom(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: zoom <scale>")
	}
	scale, err := parsePositiveFloat(args[0], "scale")
	if err != nil {
		return err
	}

	vp := w.view.Viewport()
	vp.Scale = scale
	if err := w.view.SetViewport(vp); err != nil {
		return err
	}
	fmt.Fprintf(w.cli.out, "zoom %.2f\n", scale)
	return nil
}

func (w *watchSession) printHelp() {
	fmt.Fprintln(w.cli.out, "commands:")
	fmt.Fprintln(w.cli.out, "  add <x> <y> <radius>     add a marker (document space, current page)")
	fmt.Fprintln(w.cli.out, "  move <id> <vx> <vy>      end a drag at a view-space position")
	fmt.Fprintln(w.cli.out, "  resize <id> <vr>         end a resize at a view-space radius")
	fmt.Fprintln(w.cli.out, "  del <id>                 delete a marker")
	fmt.Fprintln(w.cli.out, "  clear                    delete every marker")
	fmt.Fprintln(w.cli.out, "  list                     print the local store")
	fmt.Fprintln(w.cli.out, "  page <n> / zoom <s>      change the view")
	fmt.Fprintln(w.cli.out, "  quit                     save the session and leave")
}

// channelURL appends the document query parameter to the hub URL.
func channelURL(serverURL, document string) string {
	sep := "?"
	if strings.Contains(serverURL, "?") {
		sep = "&"
	}
	return serverURL + sep + "document=" + url.QueryEscape(document)
}
