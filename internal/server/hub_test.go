package server_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/annosync/internal/server"
	"github.com/iudanet/annosync/internal/server/handlers"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, broker server.Broker) (*httptest.Server, *server.Hub) {
	t.Helper()

	logger := discardLogger()
	hub := server.NewHub(logger, broker)
	ws := handlers.NewWSHandler(logger, hub)

	router := mux.NewRouter()
	router.HandleFunc("/ws", ws.HandleWS)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, hub
}

func dialViewer(t *testing.T, srv *httptest.Server, document string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?document=" + document
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) []byte {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	return data
}

const addFrame = `{"event":"add_annotation","payload":{"id":"a1","type":"fillcircle","page":1,"x":45,"y":40,"radius":30,"color":"blue"}}`

func TestHub_RelaysToOtherViewers(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	sender := dialViewer(t, srv, "doc1")
	receiver := dialViewer(t, srv, "doc1")
	time.Sleep(100 * time.Millisecond) // let both registrations land

	require.NoError(t, sender.WriteMessage(websocket.TextMessage, []byte(addFrame)))

	assert.JSONEq(t, addFrame, string(readFrame(t, receiver)))
}

func TestHub_DoesNotEchoToSender(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	sender := dialViewer(t, srv, "doc1")
	other := dialViewer(t, srv, "doc1")
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, sender.WriteMessage(websocket.TextMessage, []byte(addFrame)))
	readFrame(t, other) // relayed to the other viewer

	// The next frame the sender sees must be the other viewer's
	// delete, never its own add bounced back.
	deleteFrame := `{"event":"delete_annotation","payload":{"id":"a1"}}`
	require.NoError(t, other.WriteMessage(websocket.TextMessage, []byte(deleteFrame)))

	assert.JSONEq(t, deleteFrame, string(readFrame(t, sender)))
}

func TestHub_DocumentIsolation(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	sender := dialViewer(t, srv, "doc1")
	foreign := dialViewer(t, srv, "doc2")
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, sender.WriteMessage(websocket.TextMessage, []byte(addFrame)))

	require.NoError(t, foreign.SetReadDeadline(time.Now().Add(500*time.Millisecond)))
	_, _, err := foreign.ReadMessage()
	assert.Error(t, err, "a viewer of another document must not receive the frame")
}

func TestHub_MalformedFrameDropped(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	sender := dialViewer(t, srv, "doc1")
	receiver := dialViewer(t, srv, "doc1")
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, sender.WriteMessage(websocket.TextMessage, []byte("not json")))
	require.NoError(t, sender.WriteMessage(websocket.TextMessage, []byte(`{"payload":{}}`)))
	require.NoError(t, sender.WriteMessage(websocket.TextMessage, []byte(addFrame)))

	// Only the well-formed frame makes it through.
	assert.JSONEq(t, addFrame, string(readFrame(t, receiver)))
}

func TestHub_RoomLifecycle(t *testing.T) {
	srv, hub := newTestServer(t, nil)

	conn := dialViewer(t, srv, "doc1")
	require.Eventually(t, func() bool { return hub.RoomCount() == 1 },
		2*time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return hub.RoomCount() == 0 },
		2*time.Second, 10*time.Millisecond, "room should close with its last viewer")
}

func TestWSHandler_MissingDocument(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/ws")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// stubBroker records publishes and lets the test inject frames as if
// another hub instance had published them.
type stubBroker struct {
	mu        sync.Mutex
	published [][]byte
	deliver   func(frame []byte)
}

func (b *stubBroker) Publish(ctx context.Context, document string, frame []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.published = append(b.published, frame)
	return nil
}

func (b *stubBroker) Subscribe(ctx context.Context, document string, deliver func(frame []byte)) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.deliver = deliver
	return func() {}, nil
}

func (b *stubBroker) publishedCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.published)
}

func (b *stubBroker) injectRemote(frame []byte) {
	b.mu.Lock()
	deliver := b.deliver
	b.mu.Unlock()

	if deliver != nil {
		deliver(frame)
	}
}

func TestHub_BrokerBridging(t *testing.T) {
	broker := &stubBroker{}
	srv, _ := newTestServer(t, broker)

	conn := dialViewer(t, srv, "doc1")
	time.Sleep(100 * time.Millisecond)

	// Local frames reach the broker for the other instances.
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(addFrame)))
	require.Eventually(t, func() bool { return broker.publishedCount() == 1 },
		2*time.Second, 10*time.Millisecond)

	// Frames from other instances reach local viewers.
	remote := `{"event":"clear_annotation","payload":{}}`
	broker.injectRemote([]byte(remote))
	assert.JSONEq(t, remote, string(readFrame(t, conn)))
}
