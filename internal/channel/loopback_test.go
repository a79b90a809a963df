package channel

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testPayload struct {
	ID string `json:"id"`
}

func TestPipe_DeliversToPeer(t *testing.T) {
	a, b := Pipe()

	var got []testPayload
	b.On("add_annotation", func(data []byte) {
		var p testPayload
		require.NoError(t, json.Unmarshal(data, &p))
		got = append(got, p)
	})

	require.NoError(t, a.Emit("add_annotation", testPayload{ID: "a1"}))

	require.Len(t, got, 1)
	assert.Equal(t, "a1", got[0].ID)
}

func TestPipe_DoesNotEchoToSender(t *testing.T) {
	a, b := Pipe()

	emitted := 0
	a.On("add_annotation", func([]byte) { emitted++ })
	b.On("add_annotation", func([]byte) {})

	require.NoError(t, a.Emit("add_annotation", testPayload{ID: "a1"}))

	assert.Equal(t, 0, emitted, "sender's own handlers must not fire")
}

func TestPipe_UnknownEventIgnored(t *testing.T) {
	a, _ := Pipe()

	assert.NoError(t, a.Emit("unknown_event", testPayload{ID: "x"}))
}

func TestLoopback_EmitAfterClose(t *testing.T) {
	a, b := Pipe()
	require.NoError(t, a.Close())

	assert.ErrorIs(t, a.Emit("add_annotation", testPayload{ID: "a1"}), ErrClosed)
	assert.ErrorIs(t, b.Emit("add_annotation", testPayload{ID: "a1"}), ErrClosed)
}
