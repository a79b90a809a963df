package models

import "github.com/google/uuid"

// Annotation kinds. Only the filled circle marker is defined today;
// the field is a discriminator left open for future shapes.
const (
	KindFillCircle = "fillcircle"
)

// DefaultColor is the display color for locally created markers.
const DefaultColor = "blue"

// Point is a coordinate pair. Unless a name says otherwise it is in
// document space: origin fixed to the page, independent of the
// viewer's zoom and scroll state.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Annotation is the shared unit of collaborative state: one marker
// overlaid on a document page. Pos and Radius are always document
// space; only the widget layer works in view space, and only
// transiently while rendering.
type Annotation struct {
	ID       string // globally unique, assigned at creation, immutable
	Kind     string
	Color    string
	EditedBy string // owner hint for future conflict attribution
	Pos      Point
	Radius   float64
	Page     int // 1-based, set once at creation, not mutated by edits
}

// NewID mints a new globally unique annotation identifier.
func NewID() string {
	return uuid.New().String()
}

// Clone returns a copy of the annotation.
func (a Annotation) Clone() Annotation {
	return a
}
