package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewID(t *testing.T) {
	a := NewID()
	b := NewID()

	assert.NotEqual(t, a, b)

	_, err := uuid.Parse(a)
	require.NoError(t, err)
}

func TestAnnotationClone(t *testing.T) {
	orig := Annotation{
		ID:       NewID(),
		Kind:     KindFillCircle,
		Color:    DefaultColor,
		EditedBy: "client-1",
		Pos:      Point{X: 45.5, Y: -40},
		Radius:   33.4,
		Page:     3,
	}

	clone := orig.Clone()
	clone.Pos.X = 100
	clone.Radius = 1

	assert.Equal(t, 45.5, orig.Pos.X)
	assert.Equal(t, 33.4, orig.Radius)
}
