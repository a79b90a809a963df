package channel

import (
	"encoding/json"
	"sync"
)

// Loopback is an in-process channel half. Emissions on one half are
// delivered synchronously to the handlers of its peer, which makes a
// connected pair behave like two clients on an ideal network. Used in
// tests and single-process demos.
type Loopback struct {
	peer     *Loopback
	handlers map[string][]Handler
	mu       sync.RWMutex
	closed   bool
}

// Pipe returns two connected loopback halves.
func Pipe() (*Loopback, *Loopback) {
	a := &Loopback{handlers: make(map[string][]Handler)}
	b := &Loopback{handlers: make(map[string][]Handler)}
	a.peer = b
	b.peer = a
	return a, b
}

// Emit encodes the payload and delivers it to the peer's handlers.
func (l *Loopback) Emit(event string, payload any) error {
	l.mu.RLock()
	closed := l.closed
	peer := l.peer
	l.mu.RUnlock()

	if closed || peer == nil {
		return ErrClosed
	}

	frame, err := EncodeEnvelope(event, payload)
	if err != nil {
		return err
	}
	return peer.deliver(frame)
}

// On registers a handler for inbound events of the given name.
func (l *Loopback) On(event string, h Handler) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.handlers[event] = append(l.handlers[event], h)
}

// Close disconnects this half. Both halves report ErrClosed on
// subsequent emits.
func (l *Loopback) Close() error {
	l.mu.Lock()
	l.closed = true
	peer := l.peer
	l.peer = nil
	l.mu.Unlock()

	if peer != nil {
		peer.detach()
	}
	return nil
}

func (l *Loopback) detach() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.peer = nil
}

func (l *Loopback) deliver(frame []byte) error {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return err
	}

	l.mu.RLock()
	handlers := make([]Handler, len(l.handlers[env.Event]))
	copy(handlers, l.handlers[env.Event])
	l.mu.RUnlock()

	for _, h := range handlers {
		h(env.Payload)
	}
	return nil
}
