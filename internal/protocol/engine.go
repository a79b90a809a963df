package protocol

import (
	"log/slog"

	"github.com/iudanet/annosync/internal/channel"
	"github.com/iudanet/annosync/internal/models"
	"github.com/iudanet/annosync/internal/store"
)

// Config carries the engine's identity for one open document.
type Config struct {
	// DocumentID scopes events to one shared document. Inbound
	// events carrying a different documentId are ignored.
	DocumentID string

	// ClientID identifies this viewer; it is stamped into payloads
	// as the lastEditedBy owner hint.
	ClientID string

	// Color for locally created markers. Defaults to
	// models.DefaultColor.
	Color string

	Logger *slog.Logger
}

// Engine routes local store mutations out to the event channel and
// inbound channel events into the store. Inbound events are applied
// to the store directly and never re-enter the emission path, so a
// received event can not echo back out. Emissions are fire-and-forget:
// channel errors are logged, not propagated, and nothing is retried
// or buffered here.
type Engine struct {
	ch         channel.Channel
	store      *store.Store
	logger     *slog.Logger
	documentID string
	clientID   string
	color      string
}

// NewEngine binds a channel and a store and subscribes to the four
// sync events. The store must belong to the configured document.
func NewEngine(ch channel.Channel, st *store.Store, cfg Config) *Engine {
	color := cfg.Color
	if color == "" {
		color = models.DefaultColor
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	e := &Engine{
		ch:         ch,
		store:      st,
		logger:     logger,
		documentID: cfg.DocumentID,
		clientID:   cfg.ClientID,
		color:      color,
	}

	ch.On(EventAdd, e.handleAdd)
	ch.On(EventEdit, e.handleEdit)
	ch.On(EventDelete, e.handleDelete)
	ch.On(EventClear, e.handleClear)

	return e
}

// CreateAnnotation places a new marker at a document-space position
// and announces it to the other viewers.
func (e *Engine) CreateAnnotation(page int, pos models.Point, radius float64) models.Annotation {
	a := models.Annotation{
		ID:       models.NewID(),
		Kind:     models.KindFillCircle,
		Color:    e.color,
		EditedBy: e.clientID,
		Pos:      pos,
		Radius:   radius,
		Page:     page,
	}
	e.store.Add(a)
	e.emit(EventAdd, NewAddPayload(a, e.documentID))
	return a
}

// EditAnnotation applies a local position/size change (end of a drag
// or resize gesture) and announces it. Page, kind and color are
// immutable. Editing an id the store does not hold is a no-op.
func (e *Engine) EditAnnotation(id string, pos models.Point, radius float64) bool {
	a, ok := e.store.FindByID(id)
	if !ok {
		e.logger.Debug("local edit for unknown annotation ignored", "id", id)
		return false
	}

	a.Pos = pos
	a.Radius = radius
	a.EditedBy = e.clientID
	e.store.Add(a)
	e.emit(EventEdit, NewEditPayload(a, e.documentID))
	return true
}

// DeleteAnnotation removes a marker locally and announces the
// removal. Deleting an absent id still emits: the remote side may
// hold state this client never saw.
func (e *Engine) DeleteAnnotation(id string) {
	e.store.RemoveByID(id)
	e.emit(EventDelete, DeletePayload{ID: id, DocumentID: e.documentID})
}

// ClearAnnotations removes every marker locally and announces the
// clear.
func (e *Engine) ClearAnnotations() {
	e.store.RemoveAll()
	e.emit(EventClear, ClearPayload{DocumentID: e.documentID})
}

// DocumentID returns the shared document this engine serves.
func (e *Engine) DocumentID() string {
	return e.documentID
}

func (e *Engine) emit(event string, payload any) {
	if err := e.ch.Emit(event, payload); err != nil {
		e.logger.Warn("event emission failed", "event", event, "error", err)
	}
}

// foreignDocument reports whether an inbound payload belongs to a
// different document. An empty documentId is accepted for
// compatibility with minimal single-document senders.
func (e *Engine) foreignDocument(documentID string) bool {
	return documentID != "" && e.documentID != "" && documentID != e.documentID
}

func (e *Engine) handleAdd(data []byte) {
	p, err := decodePayload[AddPayload](data)
	if err != nil {
		e.logger.Warn("dropping malformed add event", "error", err)
		return
	}
	if e.foreignDocument(p.DocumentID) {
		return
	}

	// Upsert by id: a second ADD for a known id replaces fields,
	// never duplicates.
	e.store.Add(p.Annotation())
}

func (e *Engine) handleEdit(data []byte) {
	p, err := decodePayload[EditPayload](data)
	if err != nil {
		e.logger.Warn("dropping malformed edit event", "error", err)
		return
	}
	if e.foreignDocument(p.DocumentID) {
		return
	}

	a, ok := e.store.FindByID(p.ID)
	if !ok {
		// Defensive: an EDIT for an id this client never saw is
		// materialized as an ADD so the viewers converge.
		e.store.Add(models.Annotation{
			ID:       p.ID,
			Kind:     models.KindFillCircle,
			Color:    models.DefaultColor,
			EditedBy: p.EditedBy,
			Pos:      models.Point{X: p.X, Y: p.Y},
			Radius:   p.Radius,
			Page:     1,
		})
		return
	}

	a.Pos = models.Point{X: p.X, Y: p.Y}
	a.Radius = p.Radius
	a.EditedBy = p.EditedBy
	e.store.Add(a)
}

func (e *Engine) handleDelete(data []byte) {
	p, err := decodePayload[DeletePayload](data)
	if err != nil {
		e.logger.Warn("dropping malformed delete event", "error", err)
		return
	}
	if e.foreignDocument(p.DocumentID) {
		return
	}

	// Silent no-op when absent; remote state may have raced ahead.
	e.store.RemoveByID(p.ID)
}

func (e *Engine) handleClear(data []byte) {
	p, err := decodePayload[ClearPayload](data)
	if err != nil {
		e.logger.Warn("dropping malformed clear event", "error", err)
		return
	}
	if e.foreignDocument(p.DocumentID) {
		return
	}

	e.store.RemoveAll()
}
