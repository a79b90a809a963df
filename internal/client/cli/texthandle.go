package cli

import (
	"fmt"
	"io"
	"sync"

	"github.com/iudanet/annosync/internal/models"
	"github.com/iudanet/annosync/internal/widget"
)

// TextFactory renders annotation handles as prompt output lines. One
// line per lifecycle change keeps a remote edit visible the moment it
// lands.
type TextFactory struct {
	out     io.Writer
	handles map[string]*textHandle
	mu      sync.Mutex
}

// NewTextFactory creates a factory writing to out.
func NewTextFactory(out io.Writer) *TextFactory {
	return &TextFactory{
		out:     out,
		handles: make(map[string]*textHandle),
	}
}

// New implements widget.Factory.
func (f *TextFactory) New(a models.Annotation, viewPos models.Point, viewRadius float64, cb widget.Callbacks) widget.Handle {
	h := &textHandle{
		factory: f,
		id:      a.ID,
		page:    a.Page,
		color:   a.Color,
		cb:      cb,
	}

	f.mu.Lock()
	f.handles[a.ID] = h
	f.mu.Unlock()

	f.printf("+ %s page=%d view=(%.1f, %.1f) r=%.1f color=%s",
		shortID(a.ID), a.Page, viewPos.X, viewPos.Y, viewRadius, a.Color)
	return h
}

// Handle returns the live handle for an annotation id.
func (f *TextFactory) Handle(id string) (*textHandle, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	h, ok := f.handles[id]
	return h, ok
}

func (f *TextFactory) printf(format string, args ...any) {
	f.mu.Lock()
	defer f.mu.Unlock()

	fmt.Fprintf(f.out, format+"\n", args...)
}

// textHandle is a Handle without a screen: it narrates placement
// changes and exposes the gesture callbacks for the prompt to drive.
type textHandle struct {
	factory *TextFactory
	id      string
	color   string
	cb      widget.Callbacks
	page    int
	hidden  bool
}

func (h *textHandle) SetPlacement(viewPos models.Point, viewRadius float64) {
	h.factory.printf("~ %s view=(%.1f, %.1f) r=%.1f", shortID(h.id), viewPos.X, viewPos.Y, viewRadius)
}

func (h *textHandle) SetVisible(visible bool) {
	h.hidden = !visible
}

func (h *textHandle) Remove() {
	h.factory.mu.Lock()
	delete(h.factory.handles, h.id)
	h.factory.mu.Unlock()

	h.factory.printf("- %s", shortID(h.id))
}

// DragEnd reports an end-of-drag at a view-space position, exactly as
// a graphical handle would.
func (h *textHandle) DragEnd(viewPos models.Point) {
	if h.cb.DragEnd != nil {
		h.cb.DragEnd(viewPos)
	}
}

// ResizeEnd reports an end-of-resize with a view-space radius.
func (h *textHandle) ResizeEnd(viewRadius float64) {
	if h.cb.ResizeEnd != nil {
		h.cb.ResizeEnd(viewRadius)
	}
}

// DeleteTap reports a tap on the delete affordance.
func (h *textHandle) DeleteTap() {
	if h.cb.DeleteTapped != nil {
		h.cb.DeleteTapped()
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
