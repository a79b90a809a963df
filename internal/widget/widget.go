// Package widget bridges the annotation store and the interactive
// on-screen marker handles. The handle itself is an external
// collaborator: the host UI renders it, hit-tests it and runs the
// drag mechanics, then reports end-of-gesture through callbacks.
package widget

import "github.com/iudanet/annosync/internal/models"

// Handle is one on-screen marker. Placement values are view space;
// the adapter is the only code that crosses the view/document
// boundary, and it does so transiently.
type Handle interface {
	// SetPlacement moves and sizes the handle without destroying
	// it, so remote upserts never flicker a live widget.
	SetPlacement(viewPos models.Point, viewRadius float64)

	// SetVisible hides handles that belong to a page that is not on
	// screen.
	SetVisible(visible bool)

	// Remove destroys the handle. The adapter drops its reference
	// afterwards; a removed handle must not call back.
	Remove()
}

// Callbacks are wired into a handle at construction. They fire at
// end-of-gesture, not per frame, which bounds network chatter to one
// event per drag or resize.
type Callbacks struct {
	DragEnd      func(viewPos models.Point)
	ResizeEnd    func(viewRadius float64)
	DeleteTapped func()
}

// Factory creates handles. The host UI supplies one; headless
// clients use a text factory.
type Factory interface {
	New(a models.Annotation, viewPos models.Point, viewRadius float64, cb Callbacks) Handle
}
