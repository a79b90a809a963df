// Package protocol defines the annotation sync wire events and the
// engine that keeps a local annotation store consistent with the
// other viewers of the same document.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/iudanet/annosync/internal/geometry"
	"github.com/iudanet/annosync/internal/models"
)

// Wire event names. These exact strings are a deployment convention
// and must match across every participating client.
const (
	EventAdd    = "add_annotation"
	EventEdit   = "edit_annotation"
	EventDelete = "delete_annotation"
	EventClear  = "clear_annotation"
)

// ErrInvalidPayload indicates an inbound payload that fails
// validation. The event is dropped; the store stays unchanged.
var ErrInvalidPayload = errors.New("invalid event payload")

// AddPayload announces a new annotation, or restates an existing one.
// Coordinates are document space, rounded per the wire policy; the
// receiver never needs to know the sender's zoom level.
type AddPayload struct {
	ID         string  `json:"id"`
	Kind       string  `json:"type"`
	Color      string  `json:"color"`
	EditedBy   string  `json:"lastEditedBy,omitempty"`
	DocumentID string  `json:"documentId,omitempty"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Radius     float64 `json:"radius"`
	Page       int     `json:"page"`
}

// EditPayload carries a position/size change. Page, kind and color
// are immutable and stay off the wire.
type EditPayload struct {
	ID         string  `json:"id"`
	EditedBy   string  `json:"lastEditedBy,omitempty"`
	DocumentID string  `json:"documentId,omitempty"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Radius     float64 `json:"radius"`
}

// DeletePayload removes one annotation.
type DeletePayload struct {
	ID         string `json:"id"`
	DocumentID string `json:"documentId,omitempty"`
}

// ClearPayload removes every annotation of the document.
type ClearPayload struct {
	DocumentID string `json:"documentId,omitempty"`
}

// NewAddPayload serializes an annotation for the wire, applying the
// rounding policy.
func NewAddPayload(a models.Annotation, documentID string) AddPayload {
	pos := geometry.WirePosition(a.Pos)
	return AddPayload{
		ID:         a.ID,
		Kind:       a.Kind,
		Color:      a.Color,
		EditedBy:   a.EditedBy,
		DocumentID: documentID,
		X:          pos.X,
		Y:          pos.Y,
		Radius:     geometry.WireRadius(a.Radius),
		Page:       a.Page,
	}
}

// NewEditPayload serializes a position/size change for the wire.
func NewEditPayload(a models.Annotation, documentID string) EditPayload {
	pos := geometry.WirePosition(a.Pos)
	return EditPayload{
		ID:         a.ID,
		EditedBy:   a.EditedBy,
		DocumentID: documentID,
		X:          pos.X,
		Y:          pos.Y,
		Radius:     geometry.WireRadius(a.Radius),
	}
}

// Annotation reconstructs the shared annotation from an ADD payload.
func (p AddPayload) Annotation() models.Annotation {
	return models.Annotation{
		ID:       p.ID,
		Kind:     p.Kind,
		Color:    p.Color,
		EditedBy: p.EditedBy,
		Pos:      models.Point{X: p.X, Y: p.Y},
		Radius:   p.Radius,
		Page:     p.Page,
	}
}

// Validate checks an inbound ADD payload.
func (p AddPayload) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidPayload)
	}
	if p.Kind == "" {
		return fmt.Errorf("%w: missing type", ErrInvalidPayload)
	}
	if p.Page < 1 {
		return fmt.Errorf("%w: page %d is not 1-based", ErrInvalidPayload, p.Page)
	}
	if p.Radius <= 0 {
		return fmt.Errorf("%w: radius must be positive", ErrInvalidPayload)
	}
	if !finite(p.X) || !finite(p.Y) || !finite(p.Radius) {
		return fmt.Errorf("%w: non-finite coordinates", ErrInvalidPayload)
	}
	return nil
}

// Validate checks an inbound EDIT payload.
func (p EditPayload) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidPayload)
	}
	if p.Radius <= 0 {
		return fmt.Errorf("%w: radius must be positive", ErrInvalidPayload)
	}
	if !finite(p.X) || !finite(p.Y) || !finite(p.Radius) {
		return fmt.Errorf("%w: non-finite coordinates", ErrInvalidPayload)
	}
	return nil
}

// Validate checks an inbound DELETE payload.
func (p DeletePayload) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidPayload)
	}
	return nil
}

// Validate checks an inbound CLEAR payload. CLEAR needs no fields;
// the documentId, when present, is checked by the engine.
func (p ClearPayload) Validate() error {
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// decodePayload unmarshals raw event data into a typed payload and
// validates it. A payload with missing or wrong-typed fields is
// rejected here, never applied.
func decodePayload[P interface{ Validate() error }](data []byte) (P, error) {
	var p P
	if err := json.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}
