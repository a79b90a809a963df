// Package channel provides the bidirectional event transport between
// viewers of the same document. The sync engine only depends on the
// Channel interface; concrete transports live alongside it.
package channel

import (
	"encoding/json"
	"errors"
)

// ErrClosed indicates an emit on a channel that is no longer
// connected. Emissions are best-effort; callers log and move on.
var ErrClosed = errors.New("event channel is closed")

// Handler receives the raw JSON payload of one inbound event.
// Handlers run on the channel's delivery goroutine, one event at a
// time, in the transport's natural delivery order.
type Handler func(data []byte)

// Channel is a generic publish/subscribe event transport. Emit is
// fire-and-forget: the caller does not await acknowledgment, and
// delivery is not guaranteed. Reconnect and backoff, if any, are the
// transport's own concern.
type Channel interface {
	Emit(event string, payload any) error
	On(event string, h Handler)
	Close() error
}

// Envelope frames one event on the wire.
type Envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// EncodeEnvelope marshals an event and its payload into one wire
// frame.
func EncodeEnvelope(event string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Payload: body})
}
