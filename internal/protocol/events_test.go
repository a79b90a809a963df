package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/annosync/internal/models"
)

func TestNewAddPayload_WireRounding(t *testing.T) {
	a := models.Annotation{
		ID:     "a1",
		Kind:   models.KindFillCircle,
		Color:  "blue",
		Pos:    models.Point{X: 45.11278195488722, Y: 40.6015037593985},
		Radius: 33.458646616541355,
		Page:   1,
	}

	p := NewAddPayload(a, "shared/example.pdf")

	// Position rounds to nearest, radius rounds up.
	assert.Equal(t, 45.0, p.X)
	assert.Equal(t, 41.0, p.Y)
	assert.Equal(t, 34.0, p.Radius)
	assert.Equal(t, "shared/example.pdf", p.DocumentID)
	assert.Equal(t, models.KindFillCircle, p.Kind)
}

func TestNewEditPayload_WireRounding(t *testing.T) {
	a := models.Annotation{
		ID:     "a1",
		Pos:    models.Point{X: 59.5, Y: 60.49},
		Radius: 30.0,
	}

	p := NewEditPayload(a, "doc")

	assert.Equal(t, 60.0, p.X)
	assert.Equal(t, 60.0, p.Y)
	assert.Equal(t, 30.0, p.Radius)
}

func TestAddPayload_Annotation(t *testing.T) {
	p := AddPayload{
		ID:     "a1",
		Kind:   models.KindFillCircle,
		Color:  "blue",
		X:      45,
		Y:      40,
		Radius: 30,
		Page:   2,
	}

	a := p.Annotation()

	assert.Equal(t, "a1", a.ID)
	assert.Equal(t, models.Point{X: 45, Y: 40}, a.Pos)
	assert.Equal(t, 30.0, a.Radius)
	assert.Equal(t, 2, a.Page)
}

func TestAddPayload_Validate(t *testing.T) {
	valid := AddPayload{
		ID:     "a1",
		Kind:   models.KindFillCircle,
		X:      45,
		Y:      40,
		Radius: 30,
		Page:   1,
	}

	tests := []struct {
		mutate  func(p *AddPayload)
		name    string
		wantErr bool
	}{
		{name: "valid", mutate: func(p *AddPayload) {}, wantErr: false},
		{name: "missing id", mutate: func(p *AddPayload) { p.ID = "" }, wantErr: true},
		{name: "missing type", mutate: func(p *AddPayload) { p.Kind = "" }, wantErr: true},
		{name: "zero page", mutate: func(p *AddPayload) { p.Page = 0 }, wantErr: true},
		{name: "negative page", mutate: func(p *AddPayload) { p.Page = -3 }, wantErr: true},
		{name: "zero radius", mutate: func(p *AddPayload) { p.Radius = 0 }, wantErr: true},
		{name: "negative radius", mutate: func(p *AddPayload) { p.Radius = -5 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			err := p.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPayload)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEditPayload_Validate(t *testing.T) {
	assert.NoError(t, EditPayload{ID: "a1", X: 60, Y: 60, Radius: 30}.Validate())
	assert.ErrorIs(t, EditPayload{X: 60, Y: 60, Radius: 30}.Validate(), ErrInvalidPayload)
	assert.ErrorIs(t, EditPayload{ID: "a1", Radius: 0}.Validate(), ErrInvalidPayload)
}

func TestDeletePayload_Validate(t *testing.T) {
	assert.NoError(t, DeletePayload{ID: "a1"}.Validate())
	assert.ErrorIs(t, DeletePayload{}.Validate(), ErrInvalidPayload)
}

func TestClearPayload_Validate(t *testing.T) {
	assert.NoError(t, ClearPayload{}.Validate())
	assert.NoError(t, ClearPayload{DocumentID: "doc"}.Validate())
}

func TestDecodePayload(t *testing.T) {
	p, err := decodePayload[AddPayload]([]byte(`{"id":"a1","type":"fillcircle","page":1,"x":45,"y":40,"radius":30,"color":"blue"}`))
	require.NoError(t, err)
	assert.Equal(t, "a1", p.ID)

	_, err = decodePayload[AddPayload]([]byte(`{"id":123}`))
	assert.ErrorIs(t, err, ErrInvalidPayload, "wrong-typed field")

	_, err = decodePayload[AddPayload]([]byte(`not json`))
	assert.ErrorIs(t, err, ErrInvalidPayload, "unparseable body")

	_, err = decodePayload[AddPayload]([]byte(`{"type":"fillcircle","page":1,"x":1,"y":1,"radius":1}`))
	assert.ErrorIs(t, err, ErrInvalidPayload, "missing id")
}
