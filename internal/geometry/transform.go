package geometry

import (
	"errors"
	"math"

	"github.com/iudanet/annosync/internal/models"
)

// ErrInvalidScale indicates a non-positive or non-finite zoom scale.
// Transforms reject it instead of producing non-finite coordinates.
var ErrInvalidScale = errors.New("zoom scale must be positive and finite")

// Viewport describes one client's current view of a page: the zoom
// scale and the scroll offset. The offset is in view space.
type Viewport struct {
	Scroll models.Point
	Scale  float64
}

// Validate checks that the viewport can be used for transforms.
func (v Viewport) Validate() error {
	if v.Scale <= 0 || math.IsNaN(v.Scale) || math.IsInf(v.Scale, 0) {
		return ErrInvalidScale
	}
	return nil
}

// ToView converts a document-space point to view space:
// view = doc*scale - scroll.
func (v Viewport) ToView(p models.Point) (models.Point, error) {
	if err := v.Validate(); err != nil {
		return models.Point{}, err
	}
	return models.Point{
		X: p.X*v.Scale - v.Scroll.X,
		Y: p.Y*v.Scale - v.Scroll.Y,
	}, nil
}

// ToDocument converts a view-space point back to document space.
// It is the exact inverse of ToView up to floating-point rounding.
func (v Viewport) ToDocument(p models.Point) (models.Point, error) {
	if err := v.Validate(); err != nil {
		return models.Point{}, err
	}
	return models.Point{
		X: (p.X + v.Scroll.X) / v.Scale,
		Y: (p.Y + v.Scroll.Y) / v.Scale,
	}, nil
}

// ToViewSize converts a document-space size to view space.
func (v Viewport) ToViewSize(s float64) (float64, error) {
	if err := v.Validate(); err != nil {
		return 0, err
	}
	return s * v.Scale, nil
}

// ToDocumentSize converts a view-space size to document space.
func (v Viewport) ToDocumentSize(s float64) (float64, error) {
	if err := v.Validate(); err != nil {
		return 0, err
	}
	return s / v.Scale, nil
}

// WirePosition rounds a document-space position to the nearest
// integer for transmission. The policy is shared with every other
// implementation of the protocol and must not change.
func WirePosition(p models.Point) models.Point {
	return models.Point{X: math.Round(p.X), Y: math.Round(p.Y)}
}

// WireRadius rounds a document-space radius up for transmission, so
// a receiver never renders the marker smaller than it was drawn.
func WireRadius(r float64) float64 {
	return math.Ceil(r)
}
