// Package server implements the relay hub: it fans every annotation
// event from one viewer out to the other viewers of the same
// document. The hub never interprets payloads beyond the envelope
// event name and is not authoritative; clients converge because they
// all apply the same events in the room's delivery order.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/iudanet/annosync/internal/channel"
)

// Broker bridges rooms across hub instances. Optional: a single hub
// works without one.
type Broker interface {
	// Publish sends a frame to every other instance serving the
	// document.
	Publish(ctx context.Context, document string, frame []byte) error

	// Subscribe delivers frames published by other instances. The
	// returned function cancels the subscription.
	Subscribe(ctx context.Context, document string, deliver func(frame []byte)) (func(), error)
}

// Hub tracks one room per open document.
type Hub struct {
	logger *slog.Logger
	broker Broker

	mu    sync.Mutex
	rooms map[string]*room
}

// NewHub creates a hub. broker may be nil for single-instance
// deployments.
func NewHub(logger *slog.Logger, broker Broker) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger: logger,
		broker: broker,
		rooms:  make(map[string]*room),
	}
}

// Serve attaches a websocket connection to the document's room and
// pumps it until the peer disconnects. It blocks; call it from the
// connection's handler goroutine. The hub owns the connection from
// here on and closes it on return.
func (h *Hub) Serve(ctx context.Context, document string, conn *websocket.Conn) {
	r := h.joinRoom(ctx, document)

	c := &client{
		conn: conn,
		send: make(chan []byte, 64),
	}
	r.register <- c

	go c.writePump()
	c.readPump(r, h.logger)

	r.unregister <- c
	h.leaveRoom(r)
}

// RoomCount returns the number of open rooms.
func (h *Hub) RoomCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.rooms)
}

func (h *Hub) joinRoom(ctx context.Context, document string) *room {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, ok := h.rooms[document]
	if !ok {
		r = newRoom(document, h.logger)
		h.rooms[document] = r
		go r.run()

		if h.broker != nil {
			// The subscription lives as long as the room, not as
			// long as the first viewer's request.
			brokerCtx := context.WithoutCancel(ctx)
			unsubscribe, err := h.broker.Subscribe(brokerCtx, document, func(data []byte) {
				// Frames from other instances have no local
				// sender; everyone in the room gets them.
				select {
				case r.broadcast <- frame{data: data, from: nil}:
				case <-r.done:
				}
			})
			if err != nil {
				h.logger.Error("broker subscribe failed, room is instance-local",
					"document", document, "error", err)
			} else {
				r.unsubscribe = unsubscribe
			}

			r.publish = func(data []byte) {
				if err := h.broker.Publish(brokerCtx, document, data); err != nil {
					h.logger.Warn("broker publish failed", "document", document, "error", err)
				}
			}
		}
	}
	r.refs++
	return r
}

func (h *Hub) leaveRoom(r *room) {
	h.mu.Lock()
	defer h.mu.Unlock()

	r.refs--
	if r.refs > 0 {
		return
	}
	delete(h.rooms, r.document)
	close(r.done)
	if r.unsubscribe != nil {
		r.unsubscribe()
	}
}

// frame is one raw websocket message tagged with its source, so the
// room can skip echoing it back to the sender.
type frame struct {
	data []byte
	from *client
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

func (c *client) readPump(r *room, logger *slog.Logger) {
	defer c.conn.Close()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		// Only envelope-shaped frames are relayed; the payload
		// itself stays opaque to the hub.
		var env channel.Envelope
		if err := json.Unmarshal(data, &env); err != nil || env.Event == "" {
			logger.Warn("dropping unparseable frame", "document", r.document, "error", err)
			continue
		}

		select {
		case r.broadcast <- frame{data: data, from: c}:
		case <-r.done:
			return
		}
	}
}

func (c *client) writePump() {
	defer c.conn.Close()

	for data := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// room serializes all fan-out for one document on a single goroutine,
// which fixes the delivery order every client applies.
type room struct {
	document    string
	logger      *slog.Logger
	clients     map[*client]bool
	broadcast   chan frame
	register    chan *client
	unregister  chan *client
	done        chan struct{}
	publish     func(data []byte)
	unsubscribe func()
	refs        int
}

func newRoom(document string, logger *slog.Logger) *room {
	return &room{
		document:   document,
		logger:     logger,
		clients:    make(map[*client]bool),
		broadcast:  make(chan frame, 64),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
	}
}

func (r *room) run() {
	for {
		select {
		case c := <-r.register:
			r.clients[c] = true
			r.logger.Info("viewer joined", "document", r.document, "viewers", len(r.clients))

		case c := <-r.unregister:
			if _, ok := r.clients[c]; ok {
				delete(r.clients, c)
				close(c.send)
				r.logger.Info("viewer left", "document", r.document, "viewers", len(r.clients))
			}

		case f := <-r.broadcast:
			if f.from != nil && r.publish != nil {
				r.publish(f.data)
			}
			for c := range r.clients {
				if c == f.from {
					continue // no echo back to the sender
				}
				select {
				case c.send <- f.data:
				default:
					// Slow consumer; drop it rather than stall
					// the room.
					delete(r.clients, c)
					close(c.send)
				}
			}

		case <-r.done:
			for c := range r.clients {
				delete(r.clients, c)
				close(c.send)
			}
			return
		}
	}
}
