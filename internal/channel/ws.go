package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeTimeout = 10 * time.Second

// WS is a websocket-backed event channel. Every websocket text
// message carries one Envelope. Inbound events are dispatched to
// handlers from a single read goroutine, preserving the server's
// delivery order.
type WS struct {
	conn     *websocket.Conn
	logger   *slog.Logger
	handlers map[string][]Handler
	done     chan struct{}
	mu       sync.RWMutex // guards handlers
	writeMu  sync.Mutex   // gorilla allows one concurrent writer
	closeOne sync.Once
}

// Dial connects to a sync hub and starts reading inbound events.
func Dial(ctx context.Context, url string, logger *slog.Logger) (*WS, error) {
	if logger == nil {
		logger = slog.Default()
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", url, err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	ws := &WS{
		conn:     conn,
		logger:   logger,
		handlers: make(map[string][]Handler),
		done:     make(chan struct{}),
	}
	go ws.readLoop()
	return ws, nil
}

// Emit sends one event frame. Best-effort: a write failure is
// returned but the connection state is otherwise the transport's
// problem, not the caller's.
func (ws *WS) Emit(event string, payload any) error {
	select {
	case <-ws.done:
		return ErrClosed
	default:
	}

	frame, err := EncodeEnvelope(event, payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", event, err)
	}

	ws.writeMu.Lock()
	defer ws.writeMu.Unlock()

	if err := ws.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}
	if err := ws.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		return fmt.Errorf("failed to write %s event: %w", event, err)
	}
	return nil
}

// On registers a handler for inbound events of the given name.
func (ws *WS) On(event string, h Handler) {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	ws.handlers[event] = append(ws.handlers[event], h)
}

// Close shuts the connection down. Safe to call more than once.
func (ws *WS) Close() error {
	var err error
	ws.closeOne.Do(func() {
		close(ws.done)

		ws.writeMu.Lock()
		deadline := time.Now().Add(writeTimeout)
		_ = ws.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		ws.writeMu.Unlock()

		err = ws.conn.Close()
	})
	return err
}

// Done is closed when the read loop ends, either by Close or by the
// server going away.
func (ws *WS) Done() <-chan struct{} {
	return ws.done
}

func (ws *WS) readLoop() {
	defer ws.Close()

	for {
		_, frame, err := ws.conn.ReadMessage()
		if err != nil {
			select {
			case <-ws.done:
			default:
				ws.logger.Warn("event channel read failed", "error", err)
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(frame, &env); err != nil {
			ws.logger.Warn("dropping unparseable frame", "error", err)
			continue
		}

		ws.mu.RLock()
		handlers := make([]Handler, len(ws.handlers[env.Event]))
		copy(handlers, ws.handlers[env.Event])
		ws.mu.RUnlock()

		for _, h := range handlers {
			h(env.Payload)
		}
	}
}
