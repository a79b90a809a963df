package widget

import (
	"log/slog"
	"sync"

	"github.com/iudanet/annosync/internal/models"
	"github.com/iudanet/annosync/internal/renderer"
)

// Engine is the slice of the sync engine the adapter drives with
// local gestures.
type Engine interface {
	EditAnnotation(id string, pos models.Point, radius float64) bool
	DeleteAnnotation(id string)
}

// Adapter reflects store mutations into handles and relays handle
// gestures back into the sync engine. It implements store.Observer;
// subscribe it to the store that owns the document's annotations.
// The adapter holds only non-owning view state: the store remains
// the single owner of annotation data.
type Adapter struct {
	factory Factory
	engine  Engine
	view    renderer.PageView
	logger  *slog.Logger

	mu      sync.Mutex
	handles map[string]Handle
	anns    map[string]models.Annotation
}

// NewAdapter wires an adapter to a handle factory, a sync engine and
// the page view. It re-places all handles whenever the page or the
// viewport changes.
func NewAdapter(factory Factory, engine Engine, view renderer.PageView, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}

	a := &Adapter{
		factory: factory,
		engine:  engine,
		view:    view,
		logger:  logger,
		handles: make(map[string]Handle),
		anns:    make(map[string]models.Annotation),
	}
	view.OnChange(a.refresh)
	return a
}

// AnnotationUpserted creates the handle for a new id, or re-places
// the live handle on an upsert.
func (a *Adapter) AnnotationUpserted(ann models.Annotation, existed bool) {
	vp := a.view.Viewport()
	viewPos, err := vp.ToView(ann.Pos)
	if err != nil {
		a.logger.Warn("cannot place annotation handle", "id", ann.ID, "error", err)
		return
	}
	viewRadius, err := vp.ToViewSize(ann.Radius)
	if err != nil {
		a.logger.Warn("cannot size annotation handle", "id", ann.ID, "error", err)
		return
	}

	a.mu.Lock()
	a.anns[ann.ID] = ann
	h, live := a.handles[ann.ID]
	if !live {
		h = a.factory.New(ann, viewPos, viewRadius, a.callbacksFor(ann.ID))
		a.handles[ann.ID] = h
	}
	visible := ann.Page == a.view.CurrentPage()
	a.mu.Unlock()

	if live {
		h.SetPlacement(viewPos, viewRadius)
	}
	h.SetVisible(visible)
}

// AnnotationRemoved destroys the handle for the removed id.
func (a *Adapter) AnnotationRemoved(id string) {
	a.mu.Lock()
	h, ok := a.handles[id]
	delete(a.handles, id)
	delete(a.anns, id)
	a.mu.Unlock()

	if ok {
		h.Remove()
	}
}

// StoreCleared destroys every handle.
func (a *Adapter) StoreCleared(ids []string) {
	a.mu.Lock()
	removed := make([]Handle, 0, len(a.handles))
	for _, h := range a.handles {
		removed = append(removed, h)
	}
	a.handles = make(map[string]Handle)
	a.anns = make(map[string]models.Annotation)
	a.mu.Unlock()

	for _, h := range removed {
		h.Remove()
	}
}

// HandleCount returns the number of live handles.
func (a *Adapter) HandleCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return len(a.handles)
}

// callbacksFor builds the gesture callbacks for one annotation id.
// The callbacks convert view-space gesture results back to document
// space and hand them to the engine, which emits the edit; they run
// without the adapter lock so the resulting store notification can
// re-enter the adapter.
func (a *Adapter) callbacksFor(id string) Callbacks {
	return Callbacks{
		DragEnd: func(viewPos models.Point) {
			ann, ok := a.annotation(id)
			if !ok {
				return
			}
			docPos, err := a.view.Viewport().ToDocument(viewPos)
			if err != nil {
				a.logger.Warn("drag end dropped", "id", id, "error", err)
				return
			}
			a.engine.EditAnnotation(id, docPos, ann.Radius)
		},
		ResizeEnd: func(viewRadius float64) {
			ann, ok := a.annotation(id)
			if !ok {
				return
			}
			docRadius, err := a.view.Viewport().ToDocumentSize(viewRadius)
			if err != nil {
				a.logger.Warn("resize end dropped", "id", id, "error", err)
				return
			}
			a.engine.EditAnnotation(id, ann.Pos, docRadius)
		},
		DeleteTapped: func() {
			a.engine.DeleteAnnotation(id)
		},
	}
}

func (a *Adapter) annotation(id string) (models.Annotation, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	ann, ok := a.anns[id]
	return ann, ok
}

// refresh re-places every handle after a page or viewport change.
func (a *Adapter) refresh() {
	vp := a.view.Viewport()
	page := a.view.CurrentPage()

	a.mu.Lock()
	type placement struct {
		handle  Handle
		ann     models.Annotation
		visible bool
	}
	placements := make([]placement, 0, len(a.handles))
	for id, h := range a.handles {
		placements = append(placements, placement{
			handle:  h,
			ann:     a.anns[id],
			visible: a.anns[id].Page == page,
		})
	}
	a.mu.Unlock()

	for _, p := range placements {
		viewPos, err := vp.ToView(p.ann.Pos)
		if err != nil {
			a.logger.Warn("cannot re-place annotation handle", "id", p.ann.ID, "error", err)
			continue
		}
		viewRadius, err := vp.ToViewSize(p.ann.Radius)
		if err != nil {
			continue
		}
		p.handle.SetPlacement(viewPos, viewRadius)
		p.handle.SetVisible(p.visible)
	}
}
